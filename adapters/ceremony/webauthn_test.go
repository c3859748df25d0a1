package ceremony

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiddmetro/wallet-auth/adapters/identity"
	"github.com/kiddmetro/wallet-auth/adapters/store"
	"github.com/kiddmetro/wallet-auth/core"
	"github.com/kiddmetro/wallet-auth/ports"
)

type fakeParser struct {
	challenge    string
	userHandle   []byte
	creationErr  error
	assertionErr error
}

func (f fakeParser) ParseCredentialCreationResponseBytes(_ []byte) (*protocol.ParsedCredentialCreationData, error) {
	if f.creationErr != nil {
		return nil, f.creationErr
	}
	parsed := &protocol.ParsedCredentialCreationData{}
	parsed.Response.CollectedClientData.Challenge = f.challenge
	return parsed, nil
}

func (f fakeParser) ParseCredentialRequestResponseBytes(_ []byte) (*protocol.ParsedCredentialAssertionData, error) {
	if f.assertionErr != nil {
		return nil, f.assertionErr
	}
	parsed := &protocol.ParsedCredentialAssertionData{}
	parsed.Response.CollectedClientData.Challenge = f.challenge
	parsed.Response.UserHandle = f.userHandle
	return parsed, nil
}

func newTestCeremony(t *testing.T) (*WebAuthnCeremony, *identity.MemoryIdentity) {
	t.Helper()
	idp := identity.NewMemoryIdentity()
	c, err := New(Config{
		RPDisplayName: "WalletAuth",
		RPID:          "localhost",
		RPOrigins:     []string{"http://localhost"},
	}, store.NewMemoryStore(), idp)
	require.NoError(t, err)
	return c, idp
}

func optionsChallenge(t *testing.T, optionsJSON []byte) string {
	t.Helper()
	var opts struct {
		PublicKey struct {
			Challenge string `json:"challenge"`
		} `json:"publicKey"`
	}
	require.NoError(t, json.Unmarshal(optionsJSON, &opts))
	require.NotEmpty(t, opts.PublicKey.Challenge)
	return opts.PublicKey.Challenge
}

func TestBeginRegistrationIssuesOptions(t *testing.T) {
	c, _ := newTestCeremony(t)

	start, err := c.BeginRegistration(context.Background(), "WalletAuth + Passkey - 1-2-2025, 3.04.05 PM")
	require.NoError(t, err)
	require.NotEmpty(t, start.CeremonyID)

	optionsChallenge(t, start.OptionsJSON)

	// Discoverable credentials are mandatory for the login side.
	var opts struct {
		PublicKey struct {
			AuthenticatorSelection struct {
				ResidentKey string `json:"residentKey"`
			} `json:"authenticatorSelection"`
		} `json:"publicKey"`
	}
	require.NoError(t, json.Unmarshal(start.OptionsJSON, &opts))
	assert.Equal(t, "required", opts.PublicKey.AuthenticatorSelection.ResidentKey)
}

func TestBeginRegistrationRequiresLabel(t *testing.T) {
	c, _ := newTestCeremony(t)

	_, err := c.BeginRegistration(context.Background(), "")
	assert.Error(t, err)
}

func TestFinishRegistration(t *testing.T) {
	c, _ := newTestCeremony(t)
	ctx := context.Background()

	start, err := c.BeginRegistration(ctx, "test-label")
	require.NoError(t, err)

	c.parser = fakeParser{challenge: optionsChallenge(t, start.OptionsJSON)}

	payload := []byte(`{"id":"cred-1"}`)
	finished, err := c.FinishRegistration(ctx, start.CeremonyID, payload)
	require.NoError(t, err)

	assert.Equal(t, "test-label", finished.IdentityLabel)
	assert.Equal(t, json.RawMessage(payload), finished.Attestation.Payload, "attestation is forwarded verbatim")
	assert.NotEmpty(t, finished.Attestation.Challenge)
}

func TestFinishRegistrationDeclined(t *testing.T) {
	c, _ := newTestCeremony(t)
	ctx := context.Background()

	for _, response := range [][]byte{nil, []byte(`null`)} {
		start, err := c.BeginRegistration(ctx, "test-label")
		require.NoError(t, err)

		_, err = c.FinishRegistration(ctx, start.CeremonyID, response)
		assert.ErrorIs(t, err, core.ErrCeremonyDeclined)
	}
}

func TestFinishRegistrationUnknownCeremony(t *testing.T) {
	c, _ := newTestCeremony(t)

	_, err := c.FinishRegistration(context.Background(), "no-such-ceremony", []byte(`{}`))
	assert.ErrorIs(t, err, core.ErrCeremonyDeclined)
}

func TestFinishRegistrationIsOneShot(t *testing.T) {
	c, _ := newTestCeremony(t)
	ctx := context.Background()

	start, err := c.BeginRegistration(ctx, "test-label")
	require.NoError(t, err)

	c.parser = fakeParser{challenge: optionsChallenge(t, start.OptionsJSON)}

	_, err = c.FinishRegistration(ctx, start.CeremonyID, []byte(`{}`))
	require.NoError(t, err)

	_, err = c.FinishRegistration(ctx, start.CeremonyID, []byte(`{}`))
	assert.ErrorIs(t, err, core.ErrCeremonyDeclined, "consumed ceremony state must not be replayable")
}

func TestFinishRegistrationChallengeMismatch(t *testing.T) {
	c, _ := newTestCeremony(t)
	ctx := context.Background()

	start, err := c.BeginRegistration(ctx, "test-label")
	require.NoError(t, err)

	c.parser = fakeParser{challenge: "some-other-challenge"}

	_, err = c.FinishRegistration(ctx, start.CeremonyID, []byte(`{}`))
	assert.ErrorIs(t, err, core.ErrCeremonyDeclined)
}

func TestFinishRegistrationUnparsableResponse(t *testing.T) {
	c, _ := newTestCeremony(t)
	ctx := context.Background()

	start, err := c.BeginRegistration(ctx, "test-label")
	require.NoError(t, err)

	c.parser = fakeParser{creationErr: errors.New("bad attestation")}

	_, err = c.FinishRegistration(ctx, start.CeremonyID, []byte(`{"broken":`))
	assert.ErrorIs(t, err, core.ErrCeremonyDeclined)
}

func TestFinishLogin(t *testing.T) {
	c, _ := newTestCeremony(t)
	ctx := context.Background()

	start, err := c.BeginLogin(ctx)
	require.NoError(t, err)

	c.parser = fakeParser{
		challenge:  optionsChallenge(t, start.OptionsJSON),
		userHandle: []byte("org-77"),
	}

	assertion, err := c.FinishLogin(ctx, start.CeremonyID, []byte(`{"id":"cred-1"}`))
	require.NoError(t, err)
	assert.Equal(t, "org-77", assertion.OrganizationID, "organization ID comes from the credential's user handle")
}

func TestFinishLoginDeclined(t *testing.T) {
	c, _ := newTestCeremony(t)
	ctx := context.Background()

	start, err := c.BeginLogin(ctx)
	require.NoError(t, err)

	_, err = c.FinishLogin(ctx, start.CeremonyID, nil)
	assert.ErrorIs(t, err, core.ErrNoCredentialAvailable)
}

func TestFinishLoginRejectsRegistrationCeremony(t *testing.T) {
	c, _ := newTestCeremony(t)
	ctx := context.Background()

	start, err := c.BeginRegistration(ctx, "test-label")
	require.NoError(t, err)

	c.parser = fakeParser{challenge: optionsChallenge(t, start.OptionsJSON)}

	_, err = c.FinishLogin(ctx, start.CeremonyID, []byte(`{}`))
	assert.ErrorIs(t, err, core.ErrNoCredentialAvailable)
}

func TestHasLiveCredential(t *testing.T) {
	c, idp := newTestCeremony(t)
	ctx := context.Background()

	live, err := c.HasLiveCredential(ctx)
	require.NoError(t, err)
	assert.False(t, live)

	idp.SetUser(ports.User{ID: "user-1", Name: "alice"})
	live, err = c.HasLiveCredential(ctx)
	require.NoError(t, err)
	assert.True(t, live)
}
