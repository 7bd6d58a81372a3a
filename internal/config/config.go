// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Universe Contributors

package config

import (
	"errors"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	unierr "github.com/shoprag/universe/pkg/errors"
)

// Config is the top-level universe server configuration.
type Config struct {
	Listen      string         `mapstructure:"listen"`
	DataDir     string         `mapstructure:"data_dir"`
	CORSOrigins []string       `mapstructure:"cors_origins"`
	Provider    ProviderConfig `mapstructure:"provider"`
}

// ProviderConfig selects and configures the embedding provider.
type ProviderConfig struct {
	Name       string `mapstructure:"name"`
	APIKey     string `mapstructure:"api_key"`
	Model      string `mapstructure:"model"`
	Dimensions int    `mapstructure:"dimensions"`
	Endpoint   string `mapstructure:"endpoint"`
}

// SetDefaults installs configuration defaults on v. Every key is registered
// here, even the zero-valued ones: viper only surfaces AutomaticEnv values
// through Unmarshal for keys it already knows about.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("listen", "127.0.0.1:4242")
	v.SetDefault("data_dir", defaultDataDir())
	v.SetDefault("cors_origins", []string{})
	v.SetDefault("provider.name", "openai")
	v.SetDefault("provider.api_key", "")
	v.SetDefault("provider.model", "")
	v.SetDefault("provider.dimensions", 0)
	v.SetDefault("provider.endpoint", "")
}

// SetupEnv wires UNIVERSE_-prefixed environment variables, e.g.
// UNIVERSE_PROVIDER_API_KEY overrides provider.api_key.
func SetupEnv(v *viper.Viper) {
	v.SetEnvPrefix("UNIVERSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load reads configuration from the given path (or defaults) with
// environment variable overrides.
func Load(path string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)
	SetupEnv(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, unierr.Wrapf(err, unierr.CodeConfigLoadReadFailure, "reading config %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, unierr.Wrap(err, unierr.CodeConfigValidateInvalidValue, "unmarshalling config")
	}

	cfg.DataDir = expandHome(cfg.DataDir)

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, unierr.Wrap(errors.Join(errs...), unierr.CodeConfigValidateInvalidValue, "validating config")
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors, collecting all
// issues rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	if c.Listen == "" {
		errs = append(errs, unierr.Errorf(unierr.CodeConfigValidateInvalidValue,
			"config: listen must not be empty"))
	} else {
		_, portStr, err := net.SplitHostPort(c.Listen)
		if err != nil {
			errs = append(errs, unierr.Errorf(unierr.CodeConfigValidateInvalidValue,
				"config: listen must be a valid host:port address, got %q: %w", c.Listen, err))
		} else if port, err := strconv.Atoi(portStr); err != nil {
			errs = append(errs, unierr.Errorf(unierr.CodeConfigValidateInvalidValue,
				"config: listen port must be a number, got %q", portStr))
		} else if port < 1 || port > 65535 {
			errs = append(errs, unierr.Errorf(unierr.CodeConfigValidateInvalidValue,
				"config: listen port must be between 1 and 65535, got %d", port))
		}
	}

	if c.DataDir == "" {
		errs = append(errs, unierr.Errorf(unierr.CodeConfigValidateInvalidValue,
			"config: data_dir must not be empty"))
	}

	validProviders := map[string]bool{"openai": true, "voyage": true}
	if !validProviders[c.Provider.Name] {
		errs = append(errs, unierr.Errorf(unierr.CodeConfigValidateInvalidValue,
			"config: provider.name must be one of [openai, voyage], got %q", c.Provider.Name))
	}

	if c.Provider.Dimensions < 0 {
		errs = append(errs, unierr.Errorf(unierr.CodeConfigValidateInvalidValue,
			"config: provider.dimensions must be non-negative, got %d", c.Provider.Dimensions))
	}

	return errs
}

// defaultDataDir returns ~/.universe, falling back to a relative directory
// when the home directory cannot be resolved.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".universe"
	}
	return filepath.Join(home, ".universe")
}

// expandHome resolves a leading ~/ against the user's home directory.
func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(strings.TrimPrefix(path, "~"), "/"))
	}
	return path
}
