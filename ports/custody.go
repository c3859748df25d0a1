package ports

import (
	"context"
	"encoding/json"

	"github.com/kiddmetro/wallet-auth/core"
)

// CreateSubOrganizationRequest is the provisioning payload. In one logical
// transaction the custody backend creates the sub-organization, registers
// the attested credential as its sole authentication factor, and creates
// exactly one wallet from its fixed account-derivation template.
type CreateSubOrganizationRequest struct {
	SubOrgName  string          `json:"subOrgName"`
	Challenge   string          `json:"challenge"`
	Attestation json.RawMessage `json:"attestation"`
}

// CustodySession is the backend's view of an asserted identity.
type CustodySession struct {
	OrganizationID string `json:"organizationId"`
	UserID         string `json:"userId,omitempty"`
}

// Custody is the key-custody backend. It stores keys and performs signing;
// no private key material ever crosses this interface. Empty wallet or
// account lists are valid responses, not errors.
type Custody interface {
	CreateSubOrganization(ctx context.Context, req CreateSubOrganizationRequest) (*core.WalletDetails, error)
	ResolveSession(ctx context.Context, organizationID string) (*CustodySession, error)
	ListWallets(ctx context.Context, organizationID string) ([]core.Wallet, error)
	ListAccounts(ctx context.Context, organizationID, walletID string) ([]core.Account, error)
	SignMessage(ctx context.Context, organizationID, address, message string) (string, error)
}
