// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

// Command server runs the assessment recommendation HTTP service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/skillmatch/internal/api"
	"github.com/tomtom215/skillmatch/internal/catalog"
	"github.com/tomtom215/skillmatch/internal/config"
	"github.com/tomtom215/skillmatch/internal/embedding"
	"github.com/tomtom215/skillmatch/internal/logging"
	"github.com/tomtom215/skillmatch/internal/metrics"
	"github.com/tomtom215/skillmatch/internal/recommend"
	"github.com/tomtom215/skillmatch/internal/rerank"
	"github.com/tomtom215/skillmatch/internal/supervisor"
	"github.com/tomtom215/skillmatch/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("version", api.Version).
		Str("environment", cfg.Server.Environment).
		Msg("Starting SkillMatch")
	metrics.AppInfo.WithLabelValues(api.Version).Set(1)

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Service failed")
	}
}

func run(cfg *config.Config) error {
	embedder, err := buildEmbedder(cfg)
	if err != nil {
		return fmt.Errorf("build embedder: %w", err)
	}

	var reranker rerank.Reranker
	if cfg.Rerank.Enabled {
		llm, err := rerank.NewLLMReranker(rerank.LLMConfig{
			BaseURL: cfg.Rerank.BaseURL,
			APIKey:  cfg.Rerank.APIKey,
			Model:   cfg.Rerank.Model,
			Timeout: cfg.Rerank.Timeout,
		})
		if err != nil {
			return fmt.Errorf("build reranker: %w", err)
		}
		reranker = llm
		logging.Info().Str("model", cfg.Rerank.Model).Msg("LLM reranking enabled")
	}

	engine, err := recommend.NewEngine(recommend.Config{
		DefaultK:        cfg.Recommend.DefaultK,
		MaxK:            cfg.Recommend.MaxK,
		OverFetchFactor: cfg.Recommend.OverFetchFactor,
		MaxQueryChars:   cfg.Recommend.MaxQueryChars,
	}, logging.Logger(), embedder, reranker)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}

	// Initial catalog load. A missing or invalid snapshot is fatal at boot;
	// after boot, the watcher tolerates bad snapshots and keeps serving.
	records, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return fmt.Errorf("load catalog %s: %w", cfg.Catalog.Path, err)
	}
	if err := engine.Reload(context.Background(), records); err != nil {
		return fmt.Errorf("build initial index: %w", err)
	}

	router := api.NewRouter(api.NewHandler(engine), api.NewMiddleware(&api.MiddlewareConfig{
		CORSAllowedOrigins: cfg.API.CORSOrigins,
		RateLimitRequests:  cfg.API.RateLimitReqs,
		RateLimitWindow:    cfg.API.RateLimitWindow,
		RequestTimeout:     cfg.Server.Timeout,
	}))

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	slogLogger := slog.New(logging.NewSlogHandler())
	tree, err := supervisor.NewTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		return fmt.Errorf("build supervisor tree: %w", err)
	}

	tree.AddAPIService(services.NewHTTPService(server, 10*time.Second))
	if cfg.Catalog.Watch {
		tree.AddDataService(services.NewCatalogWatcher(
			cfg.Catalog.Path, cfg.Catalog.ReloadDebounce, engine, logging.Logger()))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Serving")
	errCh := tree.ServeBackground(ctx)
	err = <-errCh

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, s := range report {
			logging.Warn().Str("service", s.Name).Msg("Service did not stop in time")
		}
	}

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logging.Info().Msg("Shutdown complete")
	return nil
}

// buildEmbedder constructs the configured embedder implementation.
func buildEmbedder(cfg *config.Config) (embedding.Embedder, error) {
	switch cfg.Embedding.Provider {
	case "http":
		return embedding.NewHTTPEmbedder(embedding.HTTPConfig{
			BaseURL:      cfg.Embedding.BaseURL,
			APIKey:       cfg.Embedding.APIKey,
			Model:        cfg.Embedding.Model,
			Dimension:    cfg.Embedding.Dimension,
			Timeout:      cfg.Embedding.Timeout,
			BatchRPS:     cfg.Embedding.BatchRPS,
			MaxBatchSize: cfg.Embedding.MaxBatchSize,
		})
	case "hashing":
		return embedding.NewHashingEmbedder(cfg.Embedding.Dimension)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Embedding.Provider)
	}
}
