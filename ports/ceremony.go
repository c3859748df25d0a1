package ports

import (
	"context"

	"github.com/kiddmetro/wallet-auth/core"
)

// CeremonyStart is the relying-party half of a passkey ceremony: the
// options the browser feeds to the credential platform, plus an opaque
// ceremony ID that ties the finish call back to the stored challenge.
type CeremonyStart struct {
	CeremonyID  string
	OptionsJSON []byte
}

// FinishedRegistration is the outcome of a completed registration
// ceremony: the identity label the credential was created under and the
// attestation to forward to the custody backend.
type FinishedRegistration struct {
	IdentityLabel string
	Attestation   core.Attestation
}

// Ceremony creates and consumes passkey credentials. The authenticator
// itself is external; this port produces the challenges it needs and
// accepts its outputs as opaque blobs.
type Ceremony interface {
	// BeginRegistration issues credential-creation options for a new
	// passkey under the given identity label.
	BeginRegistration(ctx context.Context, identityLabel string) (*CeremonyStart, error)

	// FinishRegistration consumes the platform's attestation response.
	// A cancelled or empty response yields core.ErrCeremonyDeclined.
	FinishRegistration(ctx context.Context, ceremonyID string, responseJSON []byte) (*FinishedRegistration, error)

	// BeginLogin issues discoverable-login request options for any
	// previously registered credential.
	BeginLogin(ctx context.Context) (*CeremonyStart, error)

	// FinishLogin consumes the platform's assertion response. It fails
	// with core.ErrNoCredentialAvailable when the device had no matching
	// credential or the user cancelled.
	FinishLogin(ctx context.Context, ceremonyID string, responseJSON []byte) (*core.Assertion, error)

	// HasLiveCredential reports whether the device still holds an active
	// credential relationship. Used by the session watcher; must be cheap
	// and idempotent.
	HasLiveCredential(ctx context.Context) (bool, error)
}
