// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/tomtom215/skillmatch/internal/cache"
	"github.com/tomtom215/skillmatch/internal/catalog"
	"github.com/tomtom215/skillmatch/internal/embedding"
	"github.com/tomtom215/skillmatch/internal/index"
	"github.com/tomtom215/skillmatch/internal/metrics"
	"github.com/tomtom215/skillmatch/internal/recommend/diversity"
	"github.com/tomtom215/skillmatch/internal/rerank"
)

// Engine coordinates retrieval, balancing, and reranking over the active
// catalog index. It is safe for concurrent use; all mutable state is the
// index pointer, swapped whole on reload.
type Engine struct {
	config   Config
	logger   zerolog.Logger
	embedder embedding.Embedder
	balancer *diversity.Balancer
	reranker rerank.Reranker // nil disables reranking

	active atomic.Pointer[index.Index]

	// queryVectors caches normalized query embeddings so repeated queries
	// skip the embedding call entirely.
	queryVectors *cache.LRU[[]float32]

	requestCount  atomic.Int64
	fallbackCount atomic.Int64
}

// NewEngine creates an engine. The reranker may be nil; everything else is
// required. No index is active until the first Reload.
func NewEngine(cfg Config, logger zerolog.Logger, embedder embedding.Embedder, reranker rerank.Reranker) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}

	return &Engine{
		config:       cfg,
		logger:       logger.With().Str("component", "recommend").Logger(),
		embedder:     embedder,
		balancer:     diversity.NewBalancer(),
		reranker:     reranker,
		queryVectors: cache.NewLRU[[]float32](4096, 10*time.Minute),
	}, nil
}

// Reload builds a fresh index over records and swaps it in. When the
// embedding service is down, it falls back to a lexical-only index so the
// catalog update still lands; the next reload retries the vector build.
// A dimension mismatch never degrades: it means the configured dimension
// and the model disagree, which a retry or fallback would only hide.
//
// In-flight requests keep the index they started with. An empty catalog is
// accepted and serves empty results.
func (e *Engine) Reload(ctx context.Context, records []catalog.Assessment) error {
	ix, err := index.Build(ctx, records, e.embedder)
	if err != nil {
		if errors.Is(err, embedding.ErrDimensionMismatch) || !errors.Is(err, embedding.ErrUnavailable) {
			return fmt.Errorf("build index: %w", err)
		}

		e.logger.Warn().Err(err).Msg("embedding unavailable during reload, building lexical-only index")
		ix, err = index.BuildLexical(records)
		if err != nil {
			return fmt.Errorf("build lexical index: %w", err)
		}
	}

	e.active.Store(ix)
	e.logger.Info().
		Int("records", ix.Len()).
		Bool("lexical_only", ix.Lexical()).
		Msg("index reloaded")
	return nil
}

// Recommend serves one query through the full pipeline.
func (e *Engine) Recommend(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	e.requestCount.Add(1)

	query, k, err := e.prepare(req)
	if err != nil {
		metrics.RecommendRequests.WithLabelValues("invalid").Inc()
		return nil, err
	}

	ix := e.active.Load()
	if ix == nil {
		metrics.RecommendRequests.WithLabelValues("not_ready").Inc()
		return nil, ErrIndexNotReady
	}

	candidates, strategy := e.retrieve(ctx, ix, query, k*e.config.OverFetchFactor)

	balanced := e.balancer.Balance(candidates, k)

	final, reranked := e.maybeRerank(ctx, query, balanced)

	resp := &Response{
		RecommendedAssessments: make([]Recommendation, len(final)),
		Strategy:               strategy,
		Reranked:               reranked,
	}
	for i, c := range final {
		resp.RecommendedAssessments[i] = toRecommendation(c)
	}

	elapsed := time.Since(start)
	metrics.RecommendRequests.WithLabelValues(string(strategy)).Inc()
	metrics.RecommendDuration.Observe(elapsed.Seconds())
	e.logger.Debug().
		Str("strategy", string(strategy)).
		Int("k", k).
		Int("results", len(final)).
		Bool("reranked", reranked).
		Dur("elapsed", elapsed).
		Msg("recommendation served")

	return resp, nil
}

// prepare validates and normalizes a request: trims the query, truncates it
// to the embedding window, and clamps k into [1, MaxK].
func (e *Engine) prepare(req Request) (string, int, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return "", 0, fmt.Errorf("%w: empty query", ErrInvalidQuery)
	}
	if len(query) > e.config.MaxQueryChars {
		// Back off to the previous rune boundary so the cut never produces
		// invalid UTF-8 for the embedding API or the tokenizer.
		cut := e.config.MaxQueryChars
		for cut > 0 && !utf8.RuneStart(query[cut]) {
			cut--
		}
		query = query[:cut]
	}

	k := req.K
	switch {
	case k == 0:
		k = e.config.DefaultK
	case k < 1:
		k = 1
	case k > e.config.MaxK:
		k = e.config.MaxK
	}

	return query, k, nil
}

// retrieve runs vector retrieval, falling back to lexical scoring when the
// index has no vectors or the query cannot be embedded.
func (e *Engine) retrieve(ctx context.Context, ix *index.Index, query string, n int) ([]index.Candidate, Strategy) {
	if ix.Lexical() {
		return lexicalTopN(query, ix.Records(), n), StrategyLexical
	}

	vec, err := e.queryVector(ctx, query)
	if err == nil {
		candidates, topErr := ix.TopN(vec, n)
		if topErr == nil {
			return candidates, StrategyVector
		}
		err = topErr
	}

	e.fallbackCount.Add(1)
	metrics.LexicalFallbacks.Inc()
	e.logger.Warn().Err(err).Msg("vector retrieval unavailable, using lexical fallback")
	return lexicalTopN(query, ix.Records(), n), StrategyLexical
}

// queryVector returns the normalized embedding for query, served from the
// LRU cache when the same query was embedded recently. Failed embeddings
// are never cached.
func (e *Engine) queryVector(ctx context.Context, query string) ([]float32, error) {
	if vec, ok := e.queryVectors.Get(query); ok {
		return vec, nil
	}

	vec, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	embedding.Normalize(vec)
	e.queryVectors.Set(query, vec)
	return vec, nil
}

// maybeRerank applies the LLM reranker when configured. Failures are
// absorbed: the balanced order is already a correct response.
func (e *Engine) maybeRerank(ctx context.Context, query string, balanced []index.Candidate) ([]index.Candidate, bool) {
	if e.reranker == nil || len(balanced) < 2 {
		return balanced, false
	}

	out, err := e.reranker.Rerank(ctx, query, balanced)
	if err != nil {
		e.logger.Warn().Err(err).Msg("rerank failed, keeping balanced order")
		return balanced, false
	}
	return out, true
}

// Status returns the engine's health snapshot.
func (e *Engine) Status() Status {
	ix := e.active.Load()
	if ix == nil {
		return Status{Ready: false}
	}

	strategy := StrategyVector
	if ix.Lexical() {
		strategy = StrategyLexical
	}

	// Local embedders have no reachability notion and always report true.
	reachable := true
	if r, ok := e.embedder.(interface{ Ready() bool }); ok {
		reachable = r.Ready()
	}

	return Status{
		Ready:              true,
		IndexRecords:       ix.Len(),
		IndexBuiltAt:       ix.BuiltAt().UTC().Format(time.RFC3339),
		ActiveStrategy:     strategy,
		EmbeddingReachable: reachable,
		Categories:         categoryCounts(ix.Records()),
	}
}

// Ready reports whether an index is active.
func (e *Engine) Ready() bool {
	return e.active.Load() != nil
}

// Records returns the active catalog, or nil before the first reload.
func (e *Engine) Records() []catalog.Assessment {
	ix := e.active.Load()
	if ix == nil {
		return nil
	}
	return ix.Records()
}
