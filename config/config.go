// Package config loads process configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/caarlos0/env/v11"
)

// DefaultKind is the adapter kind assumed for definitions that do not name one.
const DefaultKind = "better-promise"

// ErrInvalidLogOutput is returned when an invalid log output destination is specified.
var ErrInvalidLogOutput = errors.New("invalid log output")

// Config is the environment-driven configuration.
type Config struct {
	// DefaultKind is used for definitions loaded without an explicit kind.
	DefaultKind string `env:"BREEZE_DEFAULT_KIND" envDefault:"better-promise"`

	// DefinitionsFile optionally points at a YAML file of operation definitions.
	DefinitionsFile string `env:"BREEZE_DEFINITIONS"`

	LogJSON        bool       `env:"LOG_JSON"         envDefault:"false"`
	LogLevel       slog.Level `env:"LOG_LEVEL"        envDefault:"INFO"`
	LegacyLogLevel slog.Level `env:"LEGACY_LOG_LEVEL" envDefault:"INFO"`
	LogOutput      string     `env:"LOG_OUTPUT"       envDefault:"stdout"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if _, err := cfg.Output(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Output resolves LogOutput to a writer.
func (c Config) Output() (io.Writer, error) {
	switch c.LogOutput {
	case "", "stdout":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidLogOutput, c.LogOutput)
	}
}
