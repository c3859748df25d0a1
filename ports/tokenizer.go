package ports

import "github.com/kiddmetro/wallet-auth/core"

// Tokenizer converts between wallet sessions and bearer tokens.
type Tokenizer interface {
	SessionToAccessToken(session *core.Session) (string, error)
	AccessTokenToSession(token string) (*core.Session, error)
	SessionToRefreshToken(session *core.Session) (string, error)
	RefreshTokenToSession(token string) (*core.Session, error)
}
