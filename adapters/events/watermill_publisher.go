package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/kiddmetro/wallet-auth/core"
	"github.com/kiddmetro/wallet-auth/ports"
)

const (
	// TopicProvisioned carries freshly provisioned wallet identities.
	TopicProvisioned = "walletauth.provisioned"

	// TopicLogout carries session teardown notifications so other
	// instances can drop cached state.
	TopicLogout = "walletauth.logout"
)

// ProvisionedEvent is published after a sub-organization and wallet were
// created.
type ProvisionedEvent struct {
	SubOrgID string `json:"sub_org_id"`
	WalletID string `json:"wallet_id"`
	Address  string `json:"address"`
}

// LogoutEvent is published when a wallet session ends.
type LogoutEvent struct {
	SubOrgID string `json:"sub_org_id"`
	TokenID  string `json:"token_id"`
}

// WatermillPublisher implements the EventPublisher interface using
// Watermill.
type WatermillPublisher struct {
	publisher message.Publisher
}

// NewWatermillPublisher creates a new Watermill publisher.
func NewWatermillPublisher(publisher message.Publisher) ports.EventPublisher {
	return &WatermillPublisher{publisher: publisher}
}

func (p *WatermillPublisher) PublishProvisioned(_ context.Context, session core.WalletSession) error {
	return p.publish(TopicProvisioned, uuid.New().String(), ProvisionedEvent{
		SubOrgID: session.SubOrgID,
		WalletID: session.WalletID,
		Address:  session.Address,
	})
}

func (p *WatermillPublisher) PublishLogout(_ context.Context, subOrgID, tokenID string) error {
	return p.publish(TopicLogout, tokenID, LogoutEvent{
		SubOrgID: subOrgID,
		TokenID:  tokenID,
	})
}

func (p *WatermillPublisher) publish(topic, id string, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.publisher.Publish(topic, message.NewMessage(id, payload)); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}
