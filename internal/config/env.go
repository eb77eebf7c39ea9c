package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// EnvOverrides are settings read from the process environment. They win over the file.
type EnvOverrides struct {
	ConfigPath string `env:"FAMBOARD_CONFIG"`
	DBPath     string `env:"FAMBOARD_DB_PATH"`
	AppName    string `env:"FAMBOARD_APP_NAME"`
	DevMode    *bool  `env:"FAMBOARD_DEV_MODE"`
	LogLevel   string `env:"FAMBOARD_LOG_LEVEL"`
	Debug      *bool  `env:"FAMBOARD_DEBUG"`
}

// ParseEnv loads overrides from environment variables.
func ParseEnv() (EnvOverrides, error) {
	var out EnvOverrides
	if err := env.Parse(&out); err != nil {
		return EnvOverrides{}, fmt.Errorf("parse env: %w", err)
	}
	return out, nil
}

// Apply returns cfg with every set override applied.
func (o EnvOverrides) Apply(cfg Config) Config {
	if v := strings.TrimSpace(o.DBPath); v != "" {
		cfg.Database.Path = v
	}
	if v := strings.TrimSpace(o.LogLevel); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if o.Debug != nil {
		cfg.Features.Debug = *o.Debug
	}
	return cfg
}
