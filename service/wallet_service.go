package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	walletauth "github.com/kiddmetro/wallet-auth"
	"github.com/kiddmetro/wallet-auth/core"
	"github.com/kiddmetro/wallet-auth/ports"
	"go.uber.org/zap"
)

const revokedKeyPrefix = "revoked:"
const inFlightKeyPrefix = "inflight:"

// DefaultSubOrgPrefix prefixes generated sub-organization names; the
// timestamp suffix keeps them practically unique.
const DefaultSubOrgPrefix = "WalletAuth + Passkey - "

// Config tunes the wallet service.
type Config struct {
	SubOrgPrefix   string
	AccessTTL      time.Duration
	RefreshTTL     time.Duration
	CustodyTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.SubOrgPrefix == "" {
		c.SubOrgPrefix = DefaultSubOrgPrefix
	}
	if c.AccessTTL <= 0 {
		c.AccessTTL = 5 * time.Minute
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = 5 * 24 * time.Hour
	}
	if c.CustodyTimeout <= 0 {
		c.CustodyTimeout = 30 * time.Second
	}
	return c
}

// WalletService orchestrates the two entry points into a wallet session
// (registration and login) and every operation gated behind it.
type WalletService struct {
	ceremony  ports.Ceremony
	custody   ports.Custody
	store     ports.Store
	tokenizer ports.Tokenizer
	events    ports.EventPublisher
	manager   *walletauth.Manager
	log       *zap.Logger
	cfg       Config

	now func() time.Time
}

var _ walletauth.Client = (*WalletService)(nil)

// NewWalletService creates a wallet service over its collaborator ports.
func NewWalletService(
	ceremony ports.Ceremony,
	custody ports.Custody,
	store ports.Store,
	tokenizer ports.Tokenizer,
	events ports.EventPublisher,
	manager *walletauth.Manager,
	log *zap.Logger,
	cfg Config,
) *WalletService {
	if log == nil {
		log = zap.NewNop()
	}
	if manager == nil {
		manager = walletauth.NewManager()
	}
	return &WalletService{
		ceremony:  ceremony,
		custody:   custody,
		store:     store,
		tokenizer: tokenizer,
		events:    events,
		manager:   manager,
		log:       log,
		cfg:       cfg.withDefaults(),
		now:       time.Now,
	}
}

// Manager exposes the session holder, for the watcher and the transport.
func (s *WalletService) Manager() *walletauth.Manager {
	return s.manager
}

// BeginRegistration starts the creation ceremony under a fresh
// sub-organization name.
func (s *WalletService) BeginRegistration(ctx context.Context) (*ports.CeremonyStart, error) {
	label := s.cfg.SubOrgPrefix + HumanReadableTimestamp(s.now())
	return s.ceremony.BeginRegistration(ctx, label)
}

// RegisterNewWallet completes a registration ceremony and provisions a
// sub-organization with exactly one wallet. Each completed call creates a
// distinct sub-organization; the in-flight guard is what prevents the
// same attempt from double-submitting.
func (s *WalletService) RegisterNewWallet(ctx context.Context, ceremonyID string, credentialJSON []byte) (core.WalletSession, error) {
	release, err := s.beginAttempt(ctx, ceremonyID)
	if err != nil {
		return core.WalletSession{}, err
	}
	defer release()

	finished, err := s.ceremony.FinishRegistration(ctx, ceremonyID, credentialJSON)
	if err != nil {
		if errors.Is(err, core.ErrCeremonyDeclined) {
			// Expected outcome, not a fault: the user backed out.
			s.log.Debug("registration ceremony declined", zap.String("ceremony_id", ceremonyID))
			return core.WalletSession{}, err
		}
		return core.WalletSession{}, fmt.Errorf("finish registration ceremony: %w", err)
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.CustodyTimeout)
	defer cancel()

	details, err := s.custody.CreateSubOrganization(cctx, ports.CreateSubOrganizationRequest{
		SubOrgName:  finished.IdentityLabel,
		Challenge:   finished.Attestation.Challenge,
		Attestation: finished.Attestation.Payload,
	})
	if err != nil {
		s.log.Error("sub-organization provisioning failed",
			zap.String("sub_org_name", finished.IdentityLabel), zap.Error(err))
		return core.WalletSession{}, fmt.Errorf("%w: %v", core.ErrProvisioningFailed, err)
	}

	// The backend's echo is used verbatim; IDs are never derived locally.
	session := core.WalletSession{
		SubOrgID: details.SubOrgID,
		WalletID: details.WalletID,
		Address:  details.Address,
	}
	if !session.Populated() {
		return core.WalletSession{}, fmt.Errorf("%w: incomplete wallet details from custody", core.ErrProvisioningFailed)
	}
	if err := s.manager.Replace(session); err != nil {
		return core.WalletSession{}, fmt.Errorf("%w: %v", core.ErrProvisioningFailed, err)
	}

	if s.events != nil {
		if err := s.events.PublishProvisioned(ctx, session); err != nil {
			// The session is established either way.
			s.log.Warn("failed to publish provisioned event", zap.Error(err))
		}
	}

	s.log.Info("wallet provisioned",
		zap.String("sub_org_id", session.SubOrgID),
		zap.String("wallet_id", session.WalletID))
	return session, nil
}

// beginAttempt claims the in-flight slot: the in-process one, then a
// per-ceremony lock in the shared store so a ceremony cannot be submitted
// twice across instances. The store lock self-expires in case an instance
// dies mid-attempt; the custody timeout bounds the slow part of any
// attempt, so it bounds the lock too.
func (s *WalletService) beginAttempt(ctx context.Context, ceremonyID string) (release func(), err error) {
	if !s.manager.TryBegin() {
		return nil, core.ErrOperationInFlight
	}

	key := inFlightKeyPrefix + ceremonyID
	ok, err := s.store.SetNX(ctx, key, "1", s.cfg.CustodyTimeout)
	if err != nil {
		s.manager.End()
		return nil, fmt.Errorf("claim ceremony lock: %w", err)
	}
	if !ok {
		s.manager.End()
		return nil, core.ErrOperationInFlight
	}

	return func() {
		_ = s.store.Delete(ctx, key)
		s.manager.End()
	}, nil
}

// BeginLogin starts the assertion ceremony for an existing credential.
func (s *WalletService) BeginLogin(ctx context.Context) (*ports.CeremonyStart, error) {
	return s.ceremony.BeginLogin(ctx)
}

// LoginExistingWallet completes a login ceremony and resolves the
// asserted identity to its wallet: owning sub-organization, first wallet,
// first account. Empty wallet or account lists leave the session absent.
func (s *WalletService) LoginExistingWallet(ctx context.Context, ceremonyID string, credentialJSON []byte) (core.WalletSession, error) {
	release, err := s.beginAttempt(ctx, ceremonyID)
	if err != nil {
		return core.WalletSession{}, err
	}
	defer release()

	assertion, err := s.ceremony.FinishLogin(ctx, ceremonyID, credentialJSON)
	if err != nil {
		if errors.Is(err, core.ErrNoCredentialAvailable) {
			return core.WalletSession{}, err
		}
		return core.WalletSession{}, fmt.Errorf("finish login ceremony: %w", err)
	}

	session, err := s.resolveWallet(ctx, assertion.OrganizationID)
	if err != nil {
		// Login failures must be explicit: log and surface, never swallow.
		s.log.Error("wallet session resolution failed",
			zap.String("organization_id", assertion.OrganizationID), zap.Error(err))
		return core.WalletSession{}, err
	}

	if err := s.manager.Replace(session); err != nil {
		return core.WalletSession{}, fmt.Errorf("%w: %v", core.ErrResolutionIncomplete, err)
	}
	s.log.Info("wallet session resolved",
		zap.String("sub_org_id", session.SubOrgID),
		zap.String("wallet_id", session.WalletID))
	return session, nil
}

func (s *WalletService) resolveWallet(ctx context.Context, organizationID string) (core.WalletSession, error) {
	if organizationID == "" {
		return core.WalletSession{}, fmt.Errorf("%w: assertion carries no organization id", core.ErrResolutionIncomplete)
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.CustodyTimeout)
	defer cancel()

	if _, err := s.custody.ResolveSession(cctx, organizationID); err != nil {
		return core.WalletSession{}, fmt.Errorf("%w: resolve custody session: %v", core.ErrResolutionIncomplete, err)
	}

	wallets, err := s.custody.ListWallets(cctx, organizationID)
	if err != nil {
		return core.WalletSession{}, fmt.Errorf("%w: list wallets: %v", core.ErrResolutionIncomplete, err)
	}
	if len(wallets) == 0 {
		return core.WalletSession{}, fmt.Errorf("%w: organization has no wallets", core.ErrResolutionIncomplete)
	}
	// Policy: the first wallet and first account are the canonical ones.
	wallet := wallets[0]

	accounts, err := s.custody.ListAccounts(cctx, organizationID, wallet.ID)
	if err != nil {
		return core.WalletSession{}, fmt.Errorf("%w: list accounts: %v", core.ErrResolutionIncomplete, err)
	}
	if len(accounts) == 0 || accounts[0].Address == "" {
		return core.WalletSession{}, fmt.Errorf("%w: wallet has no usable accounts", core.ErrResolutionIncomplete)
	}

	return core.WalletSession{
		SubOrgID: organizationID,
		WalletID: wallet.ID,
		Address:  accounts[0].Address,
	}, nil
}

// SignMessage signs arbitrary text scoped to the session's wallet. The
// message may be empty; the only precondition is an authenticated session.
func (s *WalletService) SignMessage(ctx context.Context, session core.WalletSession, message string) (*core.SignedMessage, error) {
	if !session.Populated() {
		return nil, core.ErrNoActiveWallet
	}

	cctx, cancel := context.WithTimeout(ctx, s.cfg.CustodyTimeout)
	defer cancel()

	signature, err := s.custody.SignMessage(cctx, session.SubOrgID, session.Address, message)
	if err != nil {
		s.log.Error("message signing failed",
			zap.String("sub_org_id", session.SubOrgID), zap.Error(err))
		return nil, fmt.Errorf("%w: %v", core.ErrSigningFailed, err)
	}

	return &core.SignedMessage{Message: message, Signature: signature}, nil
}

// IssueTokens mints an access/refresh pair for an established session.
func (s *WalletService) IssueTokens(session core.WalletSession) (access, refresh string, err error) {
	now := s.now()
	transportSession := &core.Session{
		ID:            uuid.New().String(),
		Wallet:        session,
		IssuedAt:      now,
		AccessExpiry:  now.Add(s.cfg.AccessTTL),
		RefreshExpiry: now.Add(s.cfg.RefreshTTL),
		RefreshID:     uuid.New().String(),
	}

	access, err = s.tokenizer.SessionToAccessToken(transportSession)
	if err != nil {
		return "", "", fmt.Errorf("failed to create access token: %w", err)
	}
	refresh, err = s.tokenizer.SessionToRefreshToken(transportSession)
	if err != nil {
		return "", "", fmt.Errorf("failed to create refresh token: %w", err)
	}
	return access, refresh, nil
}

// RefreshTokens rotates a refresh token: the old token is revoked for its
// remaining lifetime and a fresh pair is minted for the same wallet.
func (s *WalletService) RefreshTokens(ctx context.Context, refreshToken string) (access, refresh string, err error) {
	session, err := s.tokenizer.RefreshTokenToSession(refreshToken)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}
	if s.now().After(session.RefreshExpiry) {
		return "", "", core.ErrTokenExpired
	}

	revoked, err := s.isRevoked(ctx, session.RefreshID)
	if err != nil {
		return "", "", err
	}
	if revoked {
		return "", "", core.ErrTokenInvalidated
	}

	if err := s.revoke(ctx, session.RefreshID, time.Until(session.RefreshExpiry)); err != nil {
		return "", "", err
	}
	return s.IssueTokens(session.Wallet)
}

// Logout revokes the refresh token, clears the session holder, and
// notifies other instances.
func (s *WalletService) Logout(ctx context.Context, refreshToken string) error {
	session, err := s.tokenizer.RefreshTokenToSession(refreshToken)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}

	// Expired tokens are still recorded briefly so they cannot be
	// replayed by instances with skewed clocks.
	ttl := time.Until(session.RefreshExpiry)
	if ttl <= 0 {
		ttl = time.Hour
	}
	if err := s.revoke(ctx, session.RefreshID, ttl); err != nil {
		return err
	}

	s.manager.Clear()

	if s.events != nil {
		if err := s.events.PublishLogout(ctx, session.Wallet.SubOrgID, session.RefreshID); err != nil {
			// The token is already revoked, which is the critical part.
			s.log.Warn("failed to publish logout event", zap.Error(err))
		}
	}
	return nil
}

// ValidateAccessToken checks an access token and returns the session it
// encodes. Revoking a refresh token also kills its paired access token.
func (s *WalletService) ValidateAccessToken(ctx context.Context, accessToken string) (*core.Session, error) {
	session, err := s.tokenizer.AccessTokenToSession(accessToken)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrInvalidToken, err)
	}
	if s.now().After(session.AccessExpiry) {
		return nil, core.ErrTokenExpired
	}
	if session.RefreshID != "" {
		revoked, err := s.isRevoked(ctx, session.RefreshID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, core.ErrTokenInvalidated
		}
	}
	return session, nil
}

func (s *WalletService) revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if err := s.store.Set(ctx, revokedKeyPrefix+tokenID, "1", ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (s *WalletService) isRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, err := s.store.Get(ctx, revokedKeyPrefix+tokenID)
	if errors.Is(err, ports.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return true, nil
}
