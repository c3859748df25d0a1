package walletauth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiddmetro/wallet-auth/core"
	"github.com/kiddmetro/wallet-auth/ports"
)

type stubCeremony struct {
	live    bool
	liveErr error
}

func (s *stubCeremony) BeginRegistration(context.Context, string) (*ports.CeremonyStart, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCeremony) FinishRegistration(context.Context, string, []byte) (*ports.FinishedRegistration, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCeremony) BeginLogin(context.Context) (*ports.CeremonyStart, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCeremony) FinishLogin(context.Context, string, []byte) (*core.Assertion, error) {
	return nil, errors.New("not implemented")
}

func (s *stubCeremony) HasLiveCredential(context.Context) (bool, error) {
	return s.live, s.liveErr
}

type countingIdentity struct {
	logouts   int
	logoutErr error
}

func (c *countingIdentity) CurrentUser(context.Context) (*ports.User, error) {
	return nil, nil
}

func (c *countingIdentity) Logout(context.Context) error {
	if c.logoutErr != nil {
		return c.logoutErr
	}
	c.logouts++
	return nil
}

func TestWatcherLogsOutOncePerTransition(t *testing.T) {
	ceremony := &stubCeremony{live: false}
	identity := &countingIdentity{}
	w := NewWatcher(NewManager(), ceremony, identity, nil, 0)

	ctx := context.Background()
	w.Check(ctx)
	w.Check(ctx)
	w.Check(ctx)

	assert.Equal(t, 1, identity.logouts, "logout must fire once per dead-relationship transition")
}

func TestWatcherReArmsAfterRecovery(t *testing.T) {
	ceremony := &stubCeremony{live: false}
	identity := &countingIdentity{}
	w := NewWatcher(NewManager(), ceremony, identity, nil, 0)

	ctx := context.Background()
	w.Check(ctx)
	require.Equal(t, 1, identity.logouts)

	// Relationship comes back, then dies again: a new transition.
	ceremony.live = true
	w.Check(ctx)
	ceremony.live = false
	w.Check(ctx)

	assert.Equal(t, 2, identity.logouts)
}

func TestWatcherLeavesLiveRelationshipAlone(t *testing.T) {
	ceremony := &stubCeremony{live: true}
	identity := &countingIdentity{}
	w := NewWatcher(NewManager(), ceremony, identity, nil, 0)

	w.Check(context.Background())
	assert.Zero(t, identity.logouts)
}

func TestWatcherLeavesAuthenticatedSessionAlone(t *testing.T) {
	manager := NewManager()
	require.NoError(t, manager.Replace(core.WalletSession{
		SubOrgID: "org-1", WalletID: "wallet-1", Address: "0xabc",
	}))

	ceremony := &stubCeremony{live: false}
	identity := &countingIdentity{}
	w := NewWatcher(manager, ceremony, identity, nil, 0)

	w.Check(context.Background())
	assert.Zero(t, identity.logouts)
}

func TestWatcherSkipsOnCheckError(t *testing.T) {
	ceremony := &stubCeremony{liveErr: errors.New("identity backend unreachable")}
	identity := &countingIdentity{}
	w := NewWatcher(NewManager(), ceremony, identity, nil, 0)

	w.Check(context.Background())
	assert.Zero(t, identity.logouts)
}

func TestWatcherRetriesAfterFailedLogout(t *testing.T) {
	ceremony := &stubCeremony{live: false}
	identity := &countingIdentity{logoutErr: errors.New("transient")}
	w := NewWatcher(NewManager(), ceremony, identity, nil, 0)

	ctx := context.Background()
	w.Check(ctx)
	require.Zero(t, identity.logouts)

	identity.logoutErr = nil
	w.Check(ctx)
	assert.Equal(t, 1, identity.logouts)
}
