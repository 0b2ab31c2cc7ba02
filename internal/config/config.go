// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ariahq/aria/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete aria configuration, shared by the client and the
// relay server.
type Config struct {
	// DataDir is where conversations, profile, and logs live
	// (default ~/.aria).
	DataDir string `toml:"data_dir"`

	// Client configuration (aria TUI).
	Client ClientConfig `toml:"client"`

	// Upstream configuration (aria-relay's model API).
	Upstream UpstreamConfig `toml:"upstream"`

	// Server configuration (aria-relay listener).
	Server ServerConfig `toml:"server"`

	// UI configuration.
	UI UIConfig `toml:"ui"`
}

// ClientConfig configures the aria TUI's relay connection.
type ClientConfig struct {
	// RelayURL is the relay server base URL.
	RelayURL string `toml:"relay_url"`

	// ConnectTimeoutSecs bounds connection establishment.
	ConnectTimeoutSecs int `toml:"connect_timeout_secs"`
}

// UpstreamConfig configures the relay's upstream model API.
type UpstreamConfig struct {
	// APIKey authenticates against the upstream API.
	APIKey string `toml:"api_key"`

	// BaseURL is the upstream base URL.
	BaseURL string `toml:"base_url"`

	// Model is the upstream model identifier.
	Model string `toml:"model"`

	// MaxTokens bounds completion length.
	MaxTokens int `toml:"max_tokens"`
}

// ServerConfig configures the aria-relay HTTP listener.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// UIConfig contains presentation settings.
type UIConfig struct {
	// Markdown renders assistant replies as markdown when true.
	Markdown bool `toml:"markdown"`

	// Theme selects the glamour style ("dark", "light", "auto").
	Theme string `toml:"theme"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Client: ClientConfig{
			RelayURL:           "http://localhost:5000",
			ConnectTimeoutSecs: 30,
		},
		Upstream: UpstreamConfig{
			BaseURL:   "https://api.openai.com/v1",
			Model:     "gpt-5.2",
			MaxTokens: 8192,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 5000,
		},
		UI: UIConfig{
			Markdown: true,
			Theme:    "auto",
		},
	}
}

// ConfigDir returns the aria configuration directory (~/.aria).
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve home dir: %w", err)
	}
	return filepath.Join(home, ".aria"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load returns the effective configuration: defaults, overlaid by
// ~/.aria/config.toml when present, overlaid by environment variables.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err == nil {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromPath loads configuration from an explicit file, with defaults and
// environment overrides applied the same way Load does.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := LoadTOML(cfg, path); err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file over cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

// Save writes cfg as TOML to the default config path.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: create config dir: %w", err)
	}

	var buf strings.Builder
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("config: encode: %w", err)
	}
	// 0600: the file may carry the upstream API key.
	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0o600); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides overlays ARIA_* environment variables. The upstream key
// and URL also honor the AI_INTEGRATIONS_OPENAI_* names for compatibility
// with existing deployments.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("ARIA_DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv("ARIA_RELAY_URL"); v != "" {
		c.Client.RelayURL = v
	}
	if v := os.Getenv("ARIA_API_KEY"); v != "" {
		c.Upstream.APIKey = v
	} else if v := os.Getenv("AI_INTEGRATIONS_OPENAI_API_KEY"); v != "" {
		c.Upstream.APIKey = v
	}
	if v := os.Getenv("ARIA_UPSTREAM_URL"); v != "" {
		c.Upstream.BaseURL = v
	} else if v := os.Getenv("AI_INTEGRATIONS_OPENAI_BASE_URL"); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := os.Getenv("ARIA_MODEL"); v != "" {
		c.Upstream.Model = v
	}
	if v := os.Getenv("ARIA_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("ARIA_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Validate checks the configuration for obvious mistakes.
func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.Client.RelayURL); err != nil {
		return ValidationError{Field: "client.relay_url", Message: "not a valid URL"}
	}
	if c.Client.ConnectTimeoutSecs <= 0 {
		return ValidationError{Field: "client.connect_timeout_secs", Message: "must be positive"}
	}
	if _, err := url.ParseRequestURI(c.Upstream.BaseURL); err != nil {
		return ValidationError{Field: "upstream.base_url", Message: "not a valid URL"}
	}
	if c.Upstream.Model == "" {
		return ValidationError{Field: "upstream.model", Message: "must not be empty"}
	}
	if c.Upstream.MaxTokens <= 0 {
		return ValidationError{Field: "upstream.max_tokens", Message: "must be positive"}
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return ValidationError{Field: "server.port", Message: "must be between 1 and 65535"}
	}
	switch c.UI.Theme {
	case "dark", "light", "auto":
	default:
		return ValidationError{Field: "ui.theme", Message: "must be dark, light, or auto"}
	}
	return nil
}

// ListenAddr returns the relay listen address ("host:port").
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
