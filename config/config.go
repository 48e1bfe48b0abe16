// Package config loads process configuration from a YAML file and
// TRENDGATE_-prefixed environment variables, environment winning.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config is the full process configuration.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string `mapstructure:"listen_addr"`

	// Issuer is the OAuth token issuer, kept verbatim for the exact
	// iss claim comparison. Required.
	Issuer string `mapstructure:"issuer"`

	// Audiences are the accepted aud values. Empty disables the
	// audience check.
	Audiences []string `mapstructure:"audiences"`

	// RequiredScopes must all be present on every token.
	RequiredScopes []string `mapstructure:"required_scopes"`

	// ResourceURL identifies this server as an OAuth resource.
	ResourceURL string `mapstructure:"resource_url"`

	// DataDir holds the trend dataset files. Required.
	DataDir string `mapstructure:"data_dir"`

	DefaultLimit int    `mapstructure:"default_limit"`
	MaxLimit     int    `mapstructure:"max_limit"`
	LogLevel     string `mapstructure:"log_level"`
}

// Load reads configuration from the given file (optional; empty path
// means environment and defaults only) and the environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TRENDGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("listen_addr", ":8788")
	v.SetDefault("default_limit", 25)
	v.SetDefault("max_limit", 200)
	v.SetDefault("log_level", "info")
	v.SetDefault("required_scopes", []string{"openid", "profile", "email"})

	// Keys without a default still need registering or AutomaticEnv
	// will not surface them through Unmarshal.
	v.SetDefault("issuer", "")
	v.SetDefault("audiences", []string{})
	v.SetDefault("resource_url", "")
	v.SetDefault("data_dir", "")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	// Env values for list keys arrive as one comma-separated string.
	cfg.Audiences = splitList(cfg.Audiences)
	cfg.RequiredScopes = splitList(cfg.RequiredScopes)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if strings.TrimSpace(c.Issuer) == "" {
		return errors.New("config: issuer is required")
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return errors.New("config: data_dir is required")
	}
	if c.DefaultLimit < 1 {
		return fmt.Errorf("config: default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.MaxLimit < c.DefaultLimit {
		return fmt.Errorf("config: max_limit %d is below default_limit %d", c.MaxLimit, c.DefaultLimit)
	}
	return nil
}

// JWKSURL derives the key-set document location from the issuer.
func (c *Config) JWKSURL() string {
	return strings.TrimRight(c.Issuer, "/") + "/.well-known/jwks.json"
}

func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
