// Package config loads service configuration from defaults, an optional
// YAML file, CHAMP_ environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix is the prefix of environment variables read by Load.
const EnvPrefix = "CHAMP_"

// Defaults.
const (
	DefaultHTTPAddr        = ":8080"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "text"
	DefaultShutdownTimeout = 10 * time.Second
)

// Config is the service configuration.
type Config struct {
	HTTPAddr        string        `koanf:"http_addr"`
	PostgresDSN     string        `koanf:"postgres_dsn"`
	UseMemory       bool          `koanf:"use_memory"`
	SeedFile        string        `koanf:"seed_file"`
	Migrate         bool          `koanf:"migrate"`
	LogLevel        string        `koanf:"log_level"`
	LogFormat       string        `koanf:"log_format"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// RegisterFlags adds the flags understood by Load to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.String("http-addr", DefaultHTTPAddr, "HTTP listen address")
	fs.String("postgres-dsn", "", "PostgreSQL connection string")
	fs.Bool("use-memory", false, "use the in-memory store instead of PostgreSQL")
	fs.String("seed-file", "", "YAML fixture applied at startup")
	fs.Bool("migrate", false, "run database migrations at startup")
	fs.String("log-level", DefaultLogLevel, "log level (debug, info, warn, error)")
	fs.String("log-format", DefaultLogFormat, "log format (text, json)")
	fs.Duration("shutdown-timeout", DefaultShutdownTimeout, "graceful shutdown timeout")
}

// Load builds a Config. Precedence (highest to lowest):
// flags > env vars > config file > defaults.
// cfgFile may be empty; flags may be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"http_addr":        DefaultHTTPAddr,
		"use_memory":       false,
		"migrate":          false,
		"log_level":        DefaultLogLevel,
		"log_format":       DefaultLogFormat,
		"shutdown_timeout": DefaultShutdownTimeout.String(),
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile == "" && flags != nil {
		cfgFile, _ = flags.GetString("config")
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// CHAMP_POSTGRES_DSN -> postgres_dsn
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed || f.Name == "config" {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			// The CLI spells --seed-file as --seed.
			if key == "seed" {
				key = "seed_file"
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the combination of settings.
func (c *Config) Validate() error {
	if !c.UseMemory && c.PostgresDSN == "" {
		return errors.New("postgres_dsn is required unless use_memory is set")
	}
	if c.UseMemory && c.Migrate {
		return errors.New("migrate requires postgres")
	}
	if c.HTTPAddr == "" {
		return errors.New("http_addr must not be empty")
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", c.ShutdownTimeout)
	}
	return nil
}
