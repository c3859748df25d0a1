package tokenizer

import "github.com/golang-jwt/jwt/v5"

// AccessClaims bind the wallet identity into a short-lived access token.
// The subject is the sub-organization ID.
type AccessClaims struct {
	jwt.RegisteredClaims
	WalletID  string `json:"wid"`
	Address   string `json:"addr"`
	RefreshID string `json:"rid"` // ID of the paired refresh token
}

// RefreshClaims carry the full wallet identity so rotation can mint a new
// pair without re-resolving the wallet.
type RefreshClaims struct {
	jwt.RegisteredClaims
	WalletID string `json:"wid"`
	Address  string `json:"addr"`
}
