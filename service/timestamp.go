package service

import (
	"strings"
	"time"
)

// HumanReadableTimestamp renders t like a browser locale string, with "/"
// and ":" swapped for "-" and "." so sub-organization names stay URL and
// filesystem safe while staying visually unambiguous.
func HumanReadableTimestamp(t time.Time) string {
	s := t.Format("1/2/2006, 3:04:05 PM")
	s = strings.ReplaceAll(s, "/", "-")
	return strings.ReplaceAll(s, ":", ".")
}
