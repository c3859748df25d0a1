package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/kiddmetro/wallet-auth/ports"
)

// HTTPClient talks to the identity provider's session API. The provider
// knows nothing about wallets; it only answers "who is logged in" and
// tears sessions down.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates an identity provider client. A zero timeout
// defaults to 10 seconds.
func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// CurrentUser returns the logged-in user, or nil on a 204/404 response.
func (c *HTTPClient) CurrentUser(ctx context.Context) (*ports.User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/session/current", nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var user ports.User
		if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
			return nil, fmt.Errorf("decode user: %w", err)
		}
		return &user, nil
	case http.StatusNoContent, http.StatusNotFound:
		return nil, nil
	default:
		return nil, fmt.Errorf("identity responded %d", resp.StatusCode)
	}
}

// Logout tears down the identity-provider session.
func (c *HTTPClient) Logout(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/session/logout", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("identity request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		return fmt.Errorf("identity responded %d", resp.StatusCode)
	}
	return nil
}
