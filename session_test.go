package walletauth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiddmetro/wallet-auth/core"
)

func TestManagerStartsUnauthenticated(t *testing.T) {
	m := NewManager()

	assert.False(t, m.IsAuthenticated())
	_, ok := m.Current()
	assert.False(t, ok)
}

func TestManagerReplaceAndClear(t *testing.T) {
	m := NewManager()
	session := core.WalletSession{SubOrgID: "org-1", WalletID: "wallet-1", Address: "0xabc"}

	require.NoError(t, m.Replace(session))
	assert.True(t, m.IsAuthenticated())

	current, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, session, current)

	m.Clear()
	assert.False(t, m.IsAuthenticated())
}

func TestManagerRejectsPartialSession(t *testing.T) {
	m := NewManager()

	err := m.Replace(core.WalletSession{SubOrgID: "org-1"})
	require.Error(t, err)
	assert.False(t, m.IsAuthenticated())
}

func TestManagerReplaceIsWholesale(t *testing.T) {
	m := NewManager()

	first := core.WalletSession{SubOrgID: "org-1", WalletID: "wallet-1", Address: "0xabc"}
	second := core.WalletSession{SubOrgID: "org-2", WalletID: "wallet-2", Address: "0xdef"}
	require.NoError(t, m.Replace(first))
	require.NoError(t, m.Replace(second))

	current, _ := m.Current()
	assert.Equal(t, second, current)
}

func TestManagerInFlightGuard(t *testing.T) {
	m := NewManager()

	require.True(t, m.TryBegin())
	assert.False(t, m.TryBegin(), "second attempt must be rejected while one is in flight")

	m.End()
	assert.True(t, m.TryBegin())
}
