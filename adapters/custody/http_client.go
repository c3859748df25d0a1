package custody

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/kiddmetro/wallet-auth/core"
	"github.com/kiddmetro/wallet-auth/ports"
)

// HTTPClient talks to a custody backend over its REST API. Keys live on
// the backend; this client only moves opaque attestations in and
// signatures out.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// NewHTTPClient creates a custody client. The timeout bounds every call;
// a zero timeout defaults to 30 seconds.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) CreateSubOrganization(ctx context.Context, req ports.CreateSubOrganizationRequest) (*core.WalletDetails, error) {
	var details core.WalletDetails
	if err := c.do(ctx, http.MethodPost, "/v1/sub-organizations", req, &details); err != nil {
		return nil, fmt.Errorf("create sub-organization: %w", err)
	}
	return &details, nil
}

func (c *HTTPClient) ResolveSession(ctx context.Context, organizationID string) (*ports.CustodySession, error) {
	var session ports.CustodySession
	path := "/v1/organizations/" + url.PathEscape(organizationID) + "/session"
	if err := c.do(ctx, http.MethodGet, path, nil, &session); err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return &session, nil
}

func (c *HTTPClient) ListWallets(ctx context.Context, organizationID string) ([]core.Wallet, error) {
	var out struct {
		Wallets []struct {
			WalletID string `json:"walletId"`
		} `json:"wallets"`
	}
	path := "/v1/organizations/" + url.PathEscape(organizationID) + "/wallets"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list wallets: %w", err)
	}
	wallets := make([]core.Wallet, 0, len(out.Wallets))
	for _, w := range out.Wallets {
		wallets = append(wallets, core.Wallet{ID: w.WalletID})
	}
	return wallets, nil
}

func (c *HTTPClient) ListAccounts(ctx context.Context, organizationID, walletID string) ([]core.Account, error) {
	var out struct {
		Accounts []struct {
			Address string `json:"address"`
		} `json:"accounts"`
	}
	path := "/v1/organizations/" + url.PathEscape(organizationID) + "/wallets/" + url.PathEscape(walletID) + "/accounts"
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	accounts := make([]core.Account, 0, len(out.Accounts))
	for _, a := range out.Accounts {
		accounts = append(accounts, core.Account{Address: a.Address})
	}
	return accounts, nil
}

func (c *HTTPClient) SignMessage(ctx context.Context, organizationID, address, message string) (string, error) {
	req := struct {
		Address string `json:"address"`
		Message string `json:"message"`
	}{Address: address, Message: message}
	var out struct {
		Signature string `json:"signature"`
	}
	path := "/v1/organizations/" + url.PathEscape(organizationID) + "/sign"
	if err := c.do(ctx, http.MethodPost, path, req, &out); err != nil {
		return "", fmt.Errorf("sign message: %w", err)
	}
	return out.Signature, nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("custody request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("custody responded %d: %s", resp.StatusCode, bytes.TrimSpace(detail))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
