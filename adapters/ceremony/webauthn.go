package ceremony

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-webauthn/webauthn/protocol"
	"github.com/go-webauthn/webauthn/webauthn"
	"github.com/google/uuid"
	"github.com/kiddmetro/wallet-auth/core"
	"github.com/kiddmetro/wallet-auth/ports"
)

const (
	kindRegistration = "registration"
	kindLogin        = "login"
)

// WebAuthnCeremony is the relying-party half of passkey ceremonies. It
// issues the challenges the credential platform needs and consumes its
// responses as opaque blobs; credential verification belongs to the
// custody backend, which holds the registered public keys.
type WebAuthnCeremony struct {
	web      *webauthn.WebAuthn
	store    ports.Store
	identity ports.IdentityProvider
	parser   credentialParser
	ttl      time.Duration
}

// New builds a ceremony adapter from relying-party configuration.
func New(cfg Config, store ports.Store, identity ports.IdentityProvider) (*WebAuthnCeremony, error) {
	web, err := webauthn.New(&webauthn.Config{
		RPDisplayName: cfg.RPDisplayName,
		RPID:          cfg.RPID,
		RPOrigins:     cfg.RPOrigins,
	})
	if err != nil {
		return nil, fmt.Errorf("configure relying party: %w", err)
	}
	ttl := cfg.CeremonyTTL
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &WebAuthnCeremony{
		web:      web,
		store:    store,
		identity: identity,
		parser:   defaultCredentialParser{},
		ttl:      ttl,
	}, nil
}

type credentialParser interface {
	ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error)
	ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error)
}

type defaultCredentialParser struct{}

func (defaultCredentialParser) ParseCredentialCreationResponseBytes(data []byte) (*protocol.ParsedCredentialCreationData, error) {
	return protocol.ParseCredentialCreationResponseBytes(data)
}

func (defaultCredentialParser) ParseCredentialRequestResponseBytes(data []byte) (*protocol.ParsedCredentialAssertionData, error) {
	return protocol.ParseCredentialRequestResponseBytes(data)
}

// ceremonyUser is the provisional WebAuthn user a registration ceremony
// runs under. The custody backend later rebinds the credential to the
// sub-organization it provisions.
type ceremonyUser struct {
	id   []byte
	name string
}

func (u ceremonyUser) WebAuthnID() []byte                         { return u.id }
func (u ceremonyUser) WebAuthnName() string                       { return u.name }
func (u ceremonyUser) WebAuthnDisplayName() string                { return u.name }
func (u ceremonyUser) WebAuthnCredentials() []webauthn.Credential { return nil }

type ceremonyState struct {
	Kind    string               `json:"kind"`
	Label   string               `json:"label,omitempty"`
	Session webauthn.SessionData `json:"session"`
}

func (c *WebAuthnCeremony) BeginRegistration(ctx context.Context, identityLabel string) (*ports.CeremonyStart, error) {
	if identityLabel == "" {
		return nil, fmt.Errorf("identity label is required")
	}

	user := ceremonyUser{id: []byte(uuid.New().String()), name: identityLabel}
	creation, session, err := c.web.BeginRegistration(user,
		webauthn.WithResidentKeyRequirement(protocol.ResidentKeyRequirementRequired),
	)
	if err != nil {
		return nil, fmt.Errorf("begin registration: %w", err)
	}

	start, err := c.storeState(ctx, ceremonyState{Kind: kindRegistration, Label: identityLabel, Session: *session}, creation)
	if err != nil {
		return nil, err
	}
	return start, nil
}

func (c *WebAuthnCeremony) FinishRegistration(ctx context.Context, ceremonyID string, responseJSON []byte) (*ports.FinishedRegistration, error) {
	state, err := c.loadState(ctx, ceremonyID, kindRegistration)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrCeremonyDeclined, err)
	}
	if declined(responseJSON) {
		return nil, core.ErrCeremonyDeclined
	}

	parsed, err := c.parser.ParseCredentialCreationResponseBytes(responseJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: parse attestation: %v", core.ErrCeremonyDeclined, err)
	}
	if parsed.Response.CollectedClientData.Challenge != state.Session.Challenge {
		return nil, fmt.Errorf("%w: challenge mismatch", core.ErrCeremonyDeclined)
	}

	return &ports.FinishedRegistration{
		IdentityLabel: state.Label,
		Attestation: core.Attestation{
			Challenge: state.Session.Challenge,
			Payload:   responseJSON,
		},
	}, nil
}

func (c *WebAuthnCeremony) BeginLogin(ctx context.Context) (*ports.CeremonyStart, error) {
	assertion, session, err := c.web.BeginDiscoverableLogin()
	if err != nil {
		return nil, fmt.Errorf("begin login: %w", err)
	}

	start, err := c.storeState(ctx, ceremonyState{Kind: kindLogin, Session: *session}, assertion)
	if err != nil {
		return nil, err
	}
	return start, nil
}

func (c *WebAuthnCeremony) FinishLogin(ctx context.Context, ceremonyID string, responseJSON []byte) (*core.Assertion, error) {
	state, err := c.loadState(ctx, ceremonyID, kindLogin)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrNoCredentialAvailable, err)
	}
	if declined(responseJSON) {
		return nil, core.ErrNoCredentialAvailable
	}

	parsed, err := c.parser.ParseCredentialRequestResponseBytes(responseJSON)
	if err != nil {
		return nil, fmt.Errorf("%w: parse assertion: %v", core.ErrNoCredentialAvailable, err)
	}
	if parsed.Response.CollectedClientData.Challenge != state.Session.Challenge {
		return nil, fmt.Errorf("%w: challenge mismatch", core.ErrNoCredentialAvailable)
	}

	// The user handle carries the sub-organization ID the custody backend
	// bound the credential to at registration time.
	return &core.Assertion{
		OrganizationID: string(parsed.Response.UserHandle),
		Payload:        responseJSON,
	}, nil
}

// HasLiveCredential reports whether an identity-provider session still
// backs the credential relationship.
func (c *WebAuthnCeremony) HasLiveCredential(ctx context.Context) (bool, error) {
	user, err := c.identity.CurrentUser(ctx)
	if err != nil {
		return false, fmt.Errorf("current user: %w", err)
	}
	return user != nil, nil
}

func (c *WebAuthnCeremony) storeState(ctx context.Context, state ceremonyState, options any) (*ports.CeremonyStart, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode ceremony state: %w", err)
	}
	ceremonyID := uuid.New().String()
	if err := c.store.Set(ctx, stateKey(ceremonyID), string(payload), c.ttl); err != nil {
		return nil, fmt.Errorf("store ceremony state: %w", err)
	}

	optionsJSON, err := json.Marshal(options)
	if err != nil {
		return nil, fmt.Errorf("encode ceremony options: %w", err)
	}
	return &ports.CeremonyStart{CeremonyID: ceremonyID, OptionsJSON: optionsJSON}, nil
}

// loadState fetches and consumes pending ceremony state. Ceremonies are
// one-shot: the state is deleted before the response is examined.
func (c *WebAuthnCeremony) loadState(ctx context.Context, ceremonyID, expectedKind string) (*ceremonyState, error) {
	if ceremonyID == "" {
		return nil, errors.New("ceremony id is required")
	}
	raw, err := c.store.Get(ctx, stateKey(ceremonyID))
	if errors.Is(err, ports.ErrNotFound) {
		return nil, errors.New("ceremony expired or unknown")
	}
	if err != nil {
		return nil, fmt.Errorf("load ceremony state: %w", err)
	}
	_ = c.store.Delete(ctx, stateKey(ceremonyID))

	var state ceremonyState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("decode ceremony state: %w", err)
	}
	if state.Kind != expectedKind {
		return nil, errors.New("ceremony kind mismatch")
	}
	return &state, nil
}

func stateKey(ceremonyID string) string {
	return "ceremony:" + ceremonyID
}

// declined reports whether the platform response marks a cancelled
// ceremony: an empty body or an explicit JSON null.
func declined(responseJSON []byte) bool {
	if len(responseJSON) == 0 {
		return true
	}
	var probe any
	if err := json.Unmarshal(responseJSON, &probe); err == nil && probe == nil {
		return true
	}
	return false
}
