package custody

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/kiddmetro/wallet-auth/core"
	"github.com/kiddmetro/wallet-auth/ports"
)

type subOrg struct {
	name     string
	walletID string
	address  string
	key      *ecdsa.PrivateKey
}

// MemoryCustody is an in-process custody backend for development and
// tests. It provisions real secp256k1 accounts and signs with EIP-191
// personal-sign semantics, so the rest of the stack runs end-to-end
// without a custody vendor. Keys never leave this adapter.
type MemoryCustody struct {
	mu   sync.Mutex
	orgs map[string]*subOrg
}

// NewMemoryCustody creates an empty in-process custody backend.
func NewMemoryCustody() *MemoryCustody {
	return &MemoryCustody{orgs: make(map[string]*subOrg)}
}

func (c *MemoryCustody) CreateSubOrganization(_ context.Context, req ports.CreateSubOrganizationRequest) (*core.WalletDetails, error) {
	if req.SubOrgName == "" {
		return nil, fmt.Errorf("sub-organization name is required")
	}
	if req.Challenge == "" || len(req.Attestation) == 0 {
		return nil, fmt.Errorf("credential attestation is required")
	}

	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, fmt.Errorf("derive account key: %w", err)
	}

	org := &subOrg{
		name:     req.SubOrgName,
		walletID: uuid.New().String(),
		address:  crypto.PubkeyToAddress(key.PublicKey).Hex(),
		key:      key,
	}
	orgID := uuid.New().String()

	c.mu.Lock()
	c.orgs[orgID] = org
	c.mu.Unlock()

	return &core.WalletDetails{
		SubOrgID: orgID,
		WalletID: org.walletID,
		Address:  org.address,
	}, nil
}

func (c *MemoryCustody) ResolveSession(_ context.Context, organizationID string) (*ports.CustodySession, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.orgs[organizationID]; !ok {
		return nil, fmt.Errorf("unknown organization %q", organizationID)
	}
	return &ports.CustodySession{OrganizationID: organizationID}, nil
}

func (c *MemoryCustody) ListWallets(_ context.Context, organizationID string) ([]core.Wallet, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	org, ok := c.orgs[organizationID]
	if !ok {
		return nil, nil
	}
	return []core.Wallet{{ID: org.walletID}}, nil
}

func (c *MemoryCustody) ListAccounts(_ context.Context, organizationID, walletID string) ([]core.Account, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	org, ok := c.orgs[organizationID]
	if !ok || org.walletID != walletID {
		return nil, nil
	}
	return []core.Account{{Address: org.address}}, nil
}

func (c *MemoryCustody) SignMessage(_ context.Context, organizationID, address, message string) (string, error) {
	c.mu.Lock()
	org, ok := c.orgs[organizationID]
	c.mu.Unlock()
	if !ok {
		return "", fmt.Errorf("unknown organization %q", organizationID)
	}
	if org.address != address {
		return "", fmt.Errorf("address %s does not belong to organization %q", address, organizationID)
	}

	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), org.key)
	if err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}
	return hexutil.Encode(sig), nil
}
