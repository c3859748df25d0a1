package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHumanReadableTimestamp(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		want string
	}{
		{
			name: "afternoon",
			in:   time.Date(2025, time.January, 2, 15, 4, 5, 0, time.UTC),
			want: "1-2-2025, 3.04.05 PM",
		},
		{
			name: "morning single digits",
			in:   time.Date(2025, time.November, 30, 9, 8, 7, 0, time.UTC),
			want: "11-30-2025, 9.08.07 AM",
		},
		{
			name: "midnight",
			in:   time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
			want: "6-1-2025, 12.00.00 AM",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, HumanReadableTimestamp(tc.in))
		})
	}
}
