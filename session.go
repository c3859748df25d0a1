package walletauth

import (
	"fmt"
	"sync"

	"github.com/kiddmetro/wallet-auth/core"
)

// Manager holds the current wallet session. A populated session is an
// immutable value: Replace swaps it wholesale, Clear resets it to absent.
// Registration and login are mutually exclusive entry points, so Manager
// also carries the single-slot in-flight guard that rejects a second
// attempt while one is outstanding.
type Manager struct {
	mu       sync.RWMutex
	session  core.WalletSession
	inFlight bool
}

// NewManager returns a manager with an absent session.
func NewManager() *Manager {
	return &Manager{}
}

// IsAuthenticated reports whether a wallet session is present.
func (m *Manager) IsAuthenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Populated()
}

// Current returns the session and whether one is present.
func (m *Manager) Current() (core.WalletSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session, m.session.Populated()
}

// Replace installs a new session. Partial sessions are rejected: the
// holder is only ever absent or complete.
func (m *Manager) Replace(session core.WalletSession) error {
	if !session.Populated() {
		return fmt.Errorf("replace session: incomplete wallet identity")
	}
	m.mu.Lock()
	m.session = session
	m.mu.Unlock()
	return nil
}

// Clear resets the session to absent.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.session = core.WalletSession{}
	m.mu.Unlock()
}

// TryBegin claims the in-flight slot. It returns false while another
// registration or login is outstanding.
func (m *Manager) TryBegin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.inFlight {
		return false
	}
	m.inFlight = true
	return true
}

// End releases the in-flight slot.
func (m *Manager) End() {
	m.mu.Lock()
	m.inFlight = false
	m.mu.Unlock()
}
