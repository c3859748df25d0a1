package walletauth

import (
	"context"

	"github.com/kiddmetro/wallet-auth/core"
	"github.com/kiddmetro/wallet-auth/ports"
)

// Client is the public surface of the wallet-auth core. Registration and
// login are mutually exclusive ways of establishing a wallet session; every
// later operation reads from that session and nothing else.
type Client interface {
	// BeginRegistration starts the creation ceremony for a fresh passkey
	// under a newly generated sub-organization name.
	BeginRegistration(ctx context.Context) (*ports.CeremonyStart, error)

	// RegisterNewWallet completes registration: it consumes the
	// attestation, provisions a sub-organization with one wallet, and
	// establishes the session. A declined ceremony returns
	// core.ErrCeremonyDeclined and no session.
	RegisterNewWallet(ctx context.Context, ceremonyID string, credentialJSON []byte) (core.WalletSession, error)

	// BeginLogin starts the assertion ceremony for an existing passkey.
	BeginLogin(ctx context.Context) (*ports.CeremonyStart, error)

	// LoginExistingWallet completes login: it resolves the owning
	// sub-organization, its first wallet, and that wallet's first account,
	// and establishes the session.
	LoginExistingWallet(ctx context.Context, ceremonyID string, credentialJSON []byte) (core.WalletSession, error)

	// SignMessage signs arbitrary text scoped to the session's wallet.
	// It fails with core.ErrNoActiveWallet when the session is absent.
	SignMessage(ctx context.Context, session core.WalletSession, message string) (*core.SignedMessage, error)
}
