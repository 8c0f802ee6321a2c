package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Remote legal-assistant API
	APIBaseURL string `env:"LAWCHAT_API_URL" envDefault:"http://localhost:8000/api/v1"`

	// Where the bearer token is kept between runs. Empty means
	// <user config dir>/lawchat/token.
	TokenPath string `env:"LAWCHAT_TOKEN_PATH"`

	// Logging
	LogLevel string `env:"LAWCHAT_LOG_LEVEL" envDefault:"info"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.TokenPath == "" {
		dir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		cfg.TokenPath = filepath.Join(dir, "lawchat", "token")
	}
	return cfg, nil
}
