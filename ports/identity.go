package ports

import "context"

// User is the identity provider's notion of a logged-in user, independent
// of any wallet identity.
type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IdentityProvider gates whether a user session exists at all. It knows
// nothing about wallets.
type IdentityProvider interface {
	// CurrentUser returns the logged-in user, or nil when there is none.
	CurrentUser(ctx context.Context) (*User, error)

	// Logout tears the identity-provider session down. Idempotent.
	Logout(ctx context.Context) error
}
