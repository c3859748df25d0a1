package ceremony

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config controls WebAuthn relying-party settings.
type Config struct {
	RPDisplayName string        `env:"WALLETAUTH_RP_DISPLAY_NAME" envDefault:"WalletAuth"`
	RPID          string        `env:"WALLETAUTH_RP_ID"           envDefault:"localhost"`
	RPOrigins     []string      `env:"WALLETAUTH_RP_ORIGINS"      envSeparator:","`
	CeremonyTTL   time.Duration `env:"WALLETAUTH_CEREMONY_TTL"    envDefault:"5m"`
}

// LoadConfigFromEnv returns ceremony configuration with defaults.
func LoadConfigFromEnv() Config {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		cfg = Config{
			RPDisplayName: "WalletAuth",
			RPID:          "localhost",
			CeremonyTTL:   5 * time.Minute,
		}
	}
	if len(cfg.RPOrigins) == 0 {
		cfg.RPOrigins = []string{"http://localhost:9000"}
	}
	return cfg
}
