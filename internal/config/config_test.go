// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultValidates(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadFromPathOverlaysDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[client]
relay_url = "http://relay.internal:8080"

[upstream]
model = "gpt-5.2-mini"

[server]
port = 9000
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Client.RelayURL != "http://relay.internal:8080" {
		t.Errorf("relay_url = %q", cfg.Client.RelayURL)
	}
	if cfg.Upstream.Model != "gpt-5.2-mini" {
		t.Errorf("model = %q", cfg.Upstream.Model)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
	// Untouched fields keep defaults.
	if cfg.Upstream.MaxTokens != 8192 {
		t.Errorf("max_tokens = %d, want default 8192", cfg.Upstream.MaxTokens)
	}
	if cfg.Client.ConnectTimeoutSecs != 30 {
		t.Errorf("connect_timeout_secs = %d, want default 30", cfg.Client.ConnectTimeoutSecs)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("ARIA_RELAY_URL", "http://env-relay:7000")
	t.Setenv("ARIA_API_KEY", "sk-env")
	t.Setenv("ARIA_MODEL", "gpt-5.2-pro")
	t.Setenv("ARIA_PORT", "7001")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Client.RelayURL != "http://env-relay:7000" {
		t.Errorf("relay_url = %q", cfg.Client.RelayURL)
	}
	if cfg.Upstream.APIKey != "sk-env" {
		t.Errorf("api_key = %q", cfg.Upstream.APIKey)
	}
	if cfg.Upstream.Model != "gpt-5.2-pro" {
		t.Errorf("model = %q", cfg.Upstream.Model)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("port = %d", cfg.Server.Port)
	}
}

func TestCompatEnvNames(t *testing.T) {
	t.Setenv("ARIA_API_KEY", "")
	t.Setenv("AI_INTEGRATIONS_OPENAI_API_KEY", "sk-compat")
	t.Setenv("AI_INTEGRATIONS_OPENAI_BASE_URL", "https://proxy.example/v1")

	cfg := Default()
	cfg.ApplyEnvOverrides()

	if cfg.Upstream.APIKey != "sk-compat" {
		t.Errorf("api_key = %q", cfg.Upstream.APIKey)
	}
	if cfg.Upstream.BaseURL != "https://proxy.example/v1" {
		t.Errorf("base_url = %q", cfg.Upstream.BaseURL)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"bad relay url", func(c *Config) { c.Client.RelayURL = "not a url" }, "client.relay_url"},
		{"empty model", func(c *Config) { c.Upstream.Model = "" }, "upstream.model"},
		{"zero max tokens", func(c *Config) { c.Upstream.MaxTokens = 0 }, "upstream.max_tokens"},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"unknown theme", func(c *Config) { c.UI.Theme = "solarized" }, "ui.theme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			var ve ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestListenAddr(t *testing.T) {
	cfg := Default()
	if got := cfg.ListenAddr(); got != "0.0.0.0:5000" {
		t.Errorf("ListenAddr() = %q", got)
	}
}
