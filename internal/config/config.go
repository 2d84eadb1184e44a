// Package config reads tapcheck's environment configuration. Command-line
// flags take precedence; these values only supply their defaults.
package config

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

// Formats lists the accepted output formats.
var Formats = []string{"text", "json", "tap"}

// Config is the environment configuration.
type Config struct {
	// Database is the default SQLite event store path.
	Database string `env:"TAPCHECK_DB"`

	// Format is the default output format.
	Format string `env:"TAPCHECK_FORMAT,default=text"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `env:"TAPCHECK_LOG_LEVEL,default=warn"`
}

// Load reads the configuration from the process environment.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}
	return validate(&cfg)
}

// LoadFrom reads the configuration from a map instead of the environment.
func LoadFrom(ctx context.Context, env map[string]string) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.MapLookuper(env),
	}); err != nil {
		return nil, fmt.Errorf("processing config: %w", err)
	}
	return validate(&cfg)
}

func validate(cfg *Config) (*Config, error) {
	if !ValidFormat(cfg.Format) {
		return nil, fmt.Errorf("TAPCHECK_FORMAT: invalid format %q: must be one of %v", cfg.Format, Formats)
	}
	if _, err := cfg.Level(); err != nil {
		return nil, fmt.Errorf("TAPCHECK_LOG_LEVEL: %w", err)
	}
	return cfg, nil
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return level, nil
}

// ValidFormat reports whether format is one of Formats.
func ValidFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}
