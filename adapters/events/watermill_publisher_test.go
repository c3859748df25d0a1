package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiddmetro/wallet-auth/core"
)

type capturingPublisher struct {
	topics   []string
	messages []*message.Message
	err      error
}

func (p *capturingPublisher) Publish(topic string, messages ...*message.Message) error {
	if p.err != nil {
		return p.err
	}
	for range messages {
		p.topics = append(p.topics, topic)
	}
	p.messages = append(p.messages, messages...)
	return nil
}

func (p *capturingPublisher) Close() error { return nil }

func TestPublishProvisioned(t *testing.T) {
	capture := &capturingPublisher{}
	publisher := NewWatermillPublisher(capture)

	err := publisher.PublishProvisioned(context.Background(), core.WalletSession{
		SubOrgID: "org-1",
		WalletID: "wallet-1",
		Address:  "0xabc",
	})
	require.NoError(t, err)

	require.Len(t, capture.messages, 1)
	assert.Equal(t, []string{TopicProvisioned}, capture.topics)

	var event ProvisionedEvent
	require.NoError(t, json.Unmarshal(capture.messages[0].Payload, &event))
	assert.Equal(t, "org-1", event.SubOrgID)
	assert.Equal(t, "wallet-1", event.WalletID)
	assert.Equal(t, "0xabc", event.Address)
}

func TestPublishLogout(t *testing.T) {
	capture := &capturingPublisher{}
	publisher := NewWatermillPublisher(capture)

	err := publisher.PublishLogout(context.Background(), "org-1", "refresh-1")
	require.NoError(t, err)

	require.Len(t, capture.messages, 1)
	assert.Equal(t, []string{TopicLogout}, capture.topics)
	assert.Equal(t, "refresh-1", capture.messages[0].UUID)

	var event LogoutEvent
	require.NoError(t, json.Unmarshal(capture.messages[0].Payload, &event))
	assert.Equal(t, "org-1", event.SubOrgID)
	assert.Equal(t, "refresh-1", event.TokenID)
}

func TestPublishFailurePropagates(t *testing.T) {
	capture := &capturingPublisher{err: errors.New("broker down")}
	publisher := NewWatermillPublisher(capture)

	err := publisher.PublishLogout(context.Background(), "org-1", "refresh-1")
	assert.Error(t, err)
}
