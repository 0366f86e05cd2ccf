package oracle

import (
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the PaymentOracle sub-config, parsed from environment variables
// via struct tags rather than this repository's hand-rolled getEnv/getInt
// helpers (see DESIGN.md for why this one corner of config uses a library
// instead of matching internal/config's style exactly).
type Config struct {
	BaseURL string        `env:"ORACLE_LNBITS_URL" envDefault:"http://127.0.0.1:5000"`
	APIKey  string        `env:"ORACLE_LNBITS_API_KEY"`
	Timeout time.Duration `env:"ORACLE_TIMEOUT" envDefault:"5s"`
}

// LoadConfig parses Config from the environment.
func LoadConfig() (Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
