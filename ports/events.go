package ports

import (
	"context"

	"github.com/kiddmetro/wallet-auth/core"
)

// EventPublisher notifies other instances about session lifecycle changes.
type EventPublisher interface {
	PublishProvisioned(ctx context.Context, session core.WalletSession) error
	PublishLogout(ctx context.Context, subOrgID, tokenID string) error
}
