package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the daemon configuration, loaded from the environment.
// Leaving CustodyURL or IdentityURL empty selects the in-process dev
// adapters instead of remote backends.
type Config struct {
	ListenAddr string `env:"WALLETAUTH_LISTEN_ADDR" envDefault:":9000"`
	RedisURL   string `env:"WALLETAUTH_REDIS_URL"   envDefault:"redis://localhost:6379/0"`

	CustodyURL     string        `env:"WALLETAUTH_CUSTODY_URL"`
	CustodyAPIKey  string        `env:"WALLETAUTH_CUSTODY_API_KEY"`
	CustodyTimeout time.Duration `env:"WALLETAUTH_CUSTODY_TIMEOUT" envDefault:"30s"`

	IdentityURL string `env:"WALLETAUTH_IDENTITY_URL"`

	SubOrgPrefix    string        `env:"WALLETAUTH_SUBORG_PREFIX"`
	AccessTTL       time.Duration `env:"WALLETAUTH_ACCESS_TTL"       envDefault:"5m"`
	RefreshTTL      time.Duration `env:"WALLETAUTH_REFRESH_TTL"      envDefault:"120h"`
	WatcherInterval time.Duration `env:"WALLETAUTH_WATCHER_INTERVAL" envDefault:"30s"`
}

// Load parses configuration from environment variables.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
