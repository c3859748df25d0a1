package identity

import (
	"context"
	"sync"

	"github.com/kiddmetro/wallet-auth/ports"
)

// MemoryIdentity is an in-process identity provider for development and
// tests.
type MemoryIdentity struct {
	mu   sync.Mutex
	user *ports.User
}

// NewMemoryIdentity creates an identity provider with no logged-in user.
func NewMemoryIdentity() *MemoryIdentity {
	return &MemoryIdentity{}
}

// SetUser installs a logged-in user.
func (m *MemoryIdentity) SetUser(user ports.User) {
	m.mu.Lock()
	m.user = &user
	m.mu.Unlock()
}

func (m *MemoryIdentity) CurrentUser(_ context.Context) (*ports.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil, nil
	}
	user := *m.user
	return &user, nil
}

func (m *MemoryIdentity) Logout(_ context.Context) error {
	m.mu.Lock()
	m.user = nil
	m.mu.Unlock()
	return nil
}
