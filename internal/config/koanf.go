// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, first hit wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/skillmatch/config.yaml",
	"/etc/skillmatch/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the configuration from layered sources:
//  1. built-in defaults
//  2. optional YAML config file
//  3. environment variables (highest priority)
func Load() (*Config, error) {
	return loadFrom(findConfigFile())
}

// LoadFile builds the configuration with an explicit config file path.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file: %w", err)
	}
	return loadFrom(path)
}

func loadFrom(configPath string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", configPath, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices when
// they arrive as env var strings.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to config paths.
// Unknown variables are dropped so unrelated environment noise cannot
// shadow config keys.
//
// Examples:
//   - HTTP_PORT            -> server.port
//   - CATALOG_PATH         -> catalog.path
//   - EMBEDDING_BASE_URL   -> embedding.base_url
//   - RERANK_API_KEY       -> rerank.api_key
func envTransformFunc(key string) string {
	mappings := map[string]string{
		"http_host":   "server.host",
		"http_port":   "server.port",
		"environment": "server.environment",

		"catalog_path":            "catalog.path",
		"catalog_watch":           "catalog.watch",
		"catalog_reload_debounce": "catalog.reload_debounce",

		"embedding_provider":       "embedding.provider",
		"embedding_base_url":       "embedding.base_url",
		"embedding_api_key":        "embedding.api_key",
		"embedding_model":          "embedding.model",
		"embedding_dimension":      "embedding.dimension",
		"embedding_timeout":        "embedding.timeout",
		"embedding_batch_rps":      "embedding.batch_rps",
		"embedding_max_batch_size": "embedding.max_batch_size",

		"rerank_enabled":  "rerank.enabled",
		"rerank_base_url": "rerank.base_url",
		"rerank_api_key":  "rerank.api_key",
		"rerank_model":    "rerank.model",
		"rerank_timeout":  "rerank.timeout",

		"recommend_default_k":         "recommend.default_k",
		"recommend_max_k":             "recommend.max_k",
		"recommend_over_fetch_factor": "recommend.over_fetch_factor",
		"recommend_max_query_chars":   "recommend.max_query_chars",

		"rate_limit_reqs":   "api.rate_limit_reqs",
		"rate_limit_window": "api.rate_limit_window",
		"cors_origins":      "api.cors_origins",

		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := mappings[strings.ToLower(key)]; ok {
		return mapped
	}
	return ""
}
