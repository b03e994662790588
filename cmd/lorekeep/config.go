// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Lorekeep Contributors

package main

import (
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"
)

// Config holds the CLI configuration, merged from the optional YAML config
// file and command-line flags. The DATABASE_URL environment variable fills
// the database URL when neither source sets it.
type Config struct {
	DatabaseURL string `koanf:"database_url"`
	MetricsAddr string `koanf:"metrics_addr"`
	LogFormat   string `koanf:"log_format"`
}

// Default configuration values.
const (
	defaultMetricsAddr = "127.0.0.1:9100"
	defaultLogFormat   = "json"
)

// loadConfig merges configuration sources: file first, then flags. Flag
// values that were left at their defaults do not override file values.
func loadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("path", path).Wrap(err)
		}
	}
	if flags != nil {
		// Flag names use dashes, config keys use underscores.
		provider := posflag.ProviderWithValue(flags, ".", k, func(key, value string) (string, any) {
			return strings.ReplaceAll(key, "-", "_"), value
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code("CONFIG_INVALID").Wrap(err)
		}
	}

	cfg := &Config{
		MetricsAddr: defaultMetricsAddr,
		LogFormat:   defaultLogFormat,
	}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code("CONFIG_INVALID").Wrap(err)
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	return cfg, nil
}

// requireDatabaseURL returns the configured database URL or a CONFIG_INVALID
// error when none was provided by any source.
func requireDatabaseURL(cfg *Config) (string, error) {
	if cfg.DatabaseURL == "" {
		return "", oops.Code("CONFIG_INVALID").Errorf("database_url is required (set DATABASE_URL, the config file, or --database-url)")
	}
	return cfg.DatabaseURL, nil
}
