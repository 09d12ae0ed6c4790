// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsValidate(t *testing.T) {
	if err := defaultConfig().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadDefaultsOnly(t *testing.T) {
	cfg, err := loadFrom("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Embedding.Provider != "hashing" {
		t.Errorf("provider = %q, want hashing", cfg.Embedding.Provider)
	}
	if cfg.Recommend.MaxK != 10 {
		t.Errorf("max k = %d, want 10", cfg.Recommend.MaxK)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  port: 9090
catalog:
  path: /tmp/catalog.json
  watch: false
embedding:
  provider: http
  base_url: https://api.example.com/v1
  model: text-embedding-3-small
  dimension: 1536
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Embedding.Dimension != 1536 {
		t.Errorf("dimension = %d, want 1536", cfg.Embedding.Dimension)
	}
	if cfg.Catalog.Watch {
		t.Error("watch should be false")
	}
	// Untouched sections keep defaults.
	if cfg.Recommend.DefaultK != 10 {
		t.Errorf("default k = %d, want 10", cfg.Recommend.DefaultK)
	}
}

func TestEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("port = %d, want 7070 from env", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
	if len(cfg.API.CORSOrigins) != 2 || cfg.API.CORSOrigins[1] != "https://b.example" {
		t.Errorf("cors origins = %v", cfg.API.CORSOrigins)
	}
}

func TestUnknownEnvVarsIgnored(t *testing.T) {
	t.Setenv("PATH_LIKE_NOISE", "whatever")

	if _, err := loadFrom(""); err != nil {
		t.Fatalf("unrelated env var broke loading: %v", err)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }},
		{"missing catalog path", func(c *Config) { c.Catalog.Path = "" }},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "magic" }},
		{"http provider without url", func(c *Config) { c.Embedding.Provider = "http" }},
		{"rerank enabled without model", func(c *Config) {
			c.Rerank.Enabled = true
			c.Rerank.BaseURL = "https://api.example.com/v1"
		}},
		{"max k below default", func(c *Config) { c.Recommend.MaxK = 1 }},
		{"zero rate limit", func(c *Config) { c.API.RateLimitReqs = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := defaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestConfigPathEnvVar(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	if err := os.WriteFile(path, []byte("server:\n  timeout: 45s\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Timeout != 45*time.Second {
		t.Errorf("timeout = %v, want 45s", cfg.Server.Timeout)
	}
}
