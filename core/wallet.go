package core

import (
	"encoding/json"
	"time"
)

// SubOrganization is an isolated identity namespace inside the custody
// backend. It is created exactly once per registration and never mutated
// or deleted by this service.
type SubOrganization struct {
	ID   string // assigned by the custody backend, globally unique
	Name string // human-readable, prefix + timestamp
}

// Wallet is a custody-managed container of chain accounts scoped to one
// sub-organization.
type Wallet struct {
	ID       string
	Accounts []Account
}

// Account is a single chain address derived within a wallet. Accounts are
// created by the custody backend from a fixed derivation template, never
// client-side.
type Account struct {
	Address string
}

// WalletDetails is the custody backend's echo after provisioning a
// sub-organization with its wallet. The fields are used verbatim; the
// service never derives or rewrites IDs.
type WalletDetails struct {
	SubOrgID string `json:"subOrgId"`
	WalletID string `json:"walletId"`
	Address  string `json:"address"`
}

// WalletSession is the authenticated wallet identity. A populated session
// is immutable; re-authentication replaces it wholesale. The zero value
// means "unauthenticated".
type WalletSession struct {
	SubOrgID string
	WalletID string
	Address  string
}

// Populated reports whether the session carries a complete wallet identity.
func (s WalletSession) Populated() bool {
	return s.SubOrgID != "" && s.WalletID != "" && s.Address != ""
}

// Session is a transport-level session bound to a wallet identity. It is
// what access and refresh tokens encode.
type Session struct {
	ID            string
	Wallet        WalletSession
	IssuedAt      time.Time
	AccessExpiry  time.Time
	RefreshExpiry time.Time
	RefreshID     string
}

// SignedMessage is the ephemeral result of a signing call. It is never
// persisted; each signing call supersedes the previous result.
type SignedMessage struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// Attestation is the registration-time form of a credential: the encoded
// ceremony challenge plus the authenticator's attestation payload. The
// payload is opaque to this service and forwarded verbatim to the custody
// backend, which verifies it and registers the credential.
type Attestation struct {
	Challenge string
	Payload   json.RawMessage
}

// Assertion is the login-time form of a credential: proof of possession of
// a previously registered credential. OrganizationID is the sub-organization
// the credential belongs to, recovered from the credential's user handle.
type Assertion struct {
	OrganizationID string
	Payload        json.RawMessage
}
