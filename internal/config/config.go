// Package config loads settings from, in increasing precedence: defaults, a
// yaml config file, RECUR_* environment variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const envPrefix = "RECUR_"

// Config holds everything the recur processes need at startup.
type Config struct {
	DBPath               string `koanf:"db_path" validate:"required"`
	ListenAddr           string `koanf:"listen_addr" validate:"required,hostname_port"`
	ReposDir             string `koanf:"repos_dir" validate:"required"`
	DefaultIntervalHours int    `koanf:"default_interval_hours" validate:"min=1,max=8760"`
	SyncOnStart          bool   `koanf:"sync_on_start"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		DBPath:               "recur.db",
		ListenAddr:           "localhost:8347",
		ReposDir:             "repos",
		DefaultIntervalHours: 24,
	}
}

// Load builds the effective configuration. path may be empty or point to a
// missing file; both mean "no config file". flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
			}
		}
	}

	// RECUR_DB_PATH -> db_path, and so on.
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment config: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flag config: %w", err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
