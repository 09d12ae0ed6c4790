// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

// Package config loads layered service configuration: built-in defaults,
// then an optional YAML file, then environment variables. Precedence is
// ENV > file > defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Embedding EmbeddingConfig `koanf:"embedding"`
	Rerank    RerankConfig    `koanf:"rerank"`
	Recommend RecommendConfig `koanf:"recommend"`
	API       APIConfig       `koanf:"api"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// CatalogConfig holds catalog snapshot settings.
type CatalogConfig struct {
	// Path is the catalog snapshot JSON file.
	Path string `koanf:"path"`

	// Watch enables fsnotify-driven hot reload of the snapshot.
	Watch bool `koanf:"watch"`

	// ReloadDebounce coalesces bursts of file events into one reload.
	ReloadDebounce time.Duration `koanf:"reload_debounce"`
}

// EmbeddingConfig selects and tunes the embedder.
type EmbeddingConfig struct {
	// Provider is "http" for a remote OpenAI-compatible endpoint, or
	// "hashing" for the local deterministic embedder.
	Provider string `koanf:"provider"`

	BaseURL      string        `koanf:"base_url"`
	APIKey       string        `koanf:"api_key"`
	Model        string        `koanf:"model"`
	Dimension    int           `koanf:"dimension"`
	Timeout      time.Duration `koanf:"timeout"`
	BatchRPS     float64       `koanf:"batch_rps"`
	MaxBatchSize int           `koanf:"max_batch_size"`
}

// RerankConfig tunes the optional LLM reranker.
type RerankConfig struct {
	Enabled bool          `koanf:"enabled"`
	BaseURL string        `koanf:"base_url"`
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
}

// RecommendConfig tunes the recommendation pipeline.
type RecommendConfig struct {
	DefaultK        int `koanf:"default_k"`
	MaxK            int `koanf:"max_k"`
	OverFetchFactor int `koanf:"over_fetch_factor"`
	MaxQueryChars   int `koanf:"max_query_chars"`
}

// APIConfig holds HTTP API settings.
type APIConfig struct {
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig holds log settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// defaultConfig returns built-in defaults, applied before file and env
// layers.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     30 * time.Second,
			Environment: "development",
		},
		Catalog: CatalogConfig{
			Path:           "/data/catalog.json",
			Watch:          true,
			ReloadDebounce: 2 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:     "hashing",
			Dimension:    384,
			Timeout:      2 * time.Second,
			BatchRPS:     0,
			MaxBatchSize: 64,
		},
		Rerank: RerankConfig{
			Enabled: false,
			Timeout: 5 * time.Second,
		},
		Recommend: RecommendConfig{
			DefaultK:        10,
			MaxK:            10,
			OverFetchFactor: 3,
			MaxQueryChars:   8000,
		},
		API: APIConfig{
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     nil,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks cross-field invariants after all layers are applied.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive")
	}
	if c.Catalog.Path == "" {
		return fmt.Errorf("catalog.path is required")
	}

	switch c.Embedding.Provider {
	case "hashing":
	case "http":
		if c.Embedding.BaseURL == "" {
			return fmt.Errorf("embedding.base_url is required for http provider")
		}
		if c.Embedding.Model == "" {
			return fmt.Errorf("embedding.model is required for http provider")
		}
	default:
		return fmt.Errorf("unknown embedding.provider %q", c.Embedding.Provider)
	}
	if c.Embedding.Dimension <= 0 {
		return fmt.Errorf("embedding.dimension must be positive")
	}

	if c.Rerank.Enabled {
		if c.Rerank.BaseURL == "" {
			return fmt.Errorf("rerank.base_url is required when rerank is enabled")
		}
		if c.Rerank.Model == "" {
			return fmt.Errorf("rerank.model is required when rerank is enabled")
		}
	}

	if c.Recommend.DefaultK <= 0 || c.Recommend.MaxK < c.Recommend.DefaultK {
		return fmt.Errorf("recommend k bounds invalid: default %d, max %d",
			c.Recommend.DefaultK, c.Recommend.MaxK)
	}
	if c.Recommend.OverFetchFactor < 1 {
		return fmt.Errorf("recommend.over_fetch_factor must be at least 1")
	}

	if c.API.RateLimitReqs <= 0 {
		return fmt.Errorf("api.rate_limit_reqs must be positive")
	}
	if c.API.RateLimitWindow <= 0 {
		return fmt.Errorf("api.rate_limit_window must be positive")
	}

	return nil
}

// IsProduction reports whether the service runs with production checks.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
