package walletauth

import (
	"context"
	"sync"
	"time"

	"github.com/kiddmetro/wallet-auth/ports"
	"go.uber.org/zap"
)

// Watcher keeps the identity-provider session consistent with the wallet
// session: when no live credential relationship remains while the wallet
// session is absent, it triggers an explicit identity-provider logout.
// The check is edge-triggered, so the logout fires exactly once per
// transition no matter how often Check runs.
type Watcher struct {
	manager  *Manager
	ceremony ports.Ceremony
	identity ports.IdentityProvider
	log      *zap.Logger
	interval time.Duration

	mu    sync.Mutex
	fired bool
}

// NewWatcher builds a watcher. A zero interval defaults to 30 seconds.
func NewWatcher(manager *Manager, ceremony ports.Ceremony, identity ports.IdentityProvider, log *zap.Logger, interval time.Duration) *Watcher {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		manager:  manager,
		ceremony: ceremony,
		identity: identity,
		log:      log,
		interval: interval,
	}
}

// Run checks on the configured interval until the context is done.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Check(ctx)
		}
	}
}

// Check runs one consistency pass. It is cheap and idempotent, so callers
// may also invoke it on every state-affecting event in addition to the
// background loop.
func (w *Watcher) Check(ctx context.Context) {
	live, err := w.ceremony.HasLiveCredential(ctx)
	if err != nil {
		w.log.Warn("credential relationship check failed", zap.Error(err))
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if live || w.manager.IsAuthenticated() {
		// Re-arm: the next dead-relationship transition triggers again.
		w.fired = false
		return
	}
	if w.fired {
		return
	}
	if err := w.identity.Logout(ctx); err != nil {
		w.log.Warn("identity provider logout failed", zap.Error(err))
		return
	}
	w.fired = true
	w.log.Info("cleared stale identity session")
}
