package core

import "errors"

var (
	// ErrCeremonyDeclined means the user or platform cancelled a passkey
	// ceremony. It is an expected outcome, not a fault: the operation
	// aborts with no session created.
	ErrCeremonyDeclined = errors.New("passkey ceremony declined")

	// ErrNoCredentialAvailable means no matching credential exists on the
	// device for a login attempt. Unlike a declined registration, this is
	// surfaced to the user.
	ErrNoCredentialAvailable = errors.New("no credential available")

	// ErrProvisioningFailed means the custody backend rejected or failed
	// sub-organization/wallet creation.
	ErrProvisioningFailed = errors.New("sub-organization provisioning failed")

	// ErrResolutionIncomplete means a step of login resolution
	// (organization, session, wallet, account) came back empty or
	// malformed.
	ErrResolutionIncomplete = errors.New("wallet session resolution incomplete")

	// ErrNoActiveWallet means signing was attempted without an
	// authenticated wallet session.
	ErrNoActiveWallet = errors.New("no active wallet")

	// ErrSigningFailed means the custody backend's signing call failed.
	ErrSigningFailed = errors.New("message signing failed")

	// ErrOperationInFlight means a registration or login was attempted
	// while another one for the same ceremony is still outstanding.
	ErrOperationInFlight = errors.New("operation already in flight")

	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token has expired")
	ErrTokenInvalidated = errors.New("token has been invalidated")
)
