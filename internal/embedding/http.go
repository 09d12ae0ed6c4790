// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package embedding

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/skillmatch/internal/logging"
	"github.com/tomtom215/skillmatch/internal/metrics"
)

// HTTPConfig holds settings for the remote embedding client.
type HTTPConfig struct {
	// BaseURL is the API root, e.g. "https://api.openai.com/v1".
	BaseURL string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// Model is the embedding model identifier.
	Model string

	// Dimension is the expected vector length. Responses with any other
	// length are rejected with ErrDimensionMismatch.
	Dimension int

	// Timeout bounds a single embedding request. Keep it short: a slow
	// embedding call blocks the whole recommendation, and the lexical
	// fallback is cheap.
	Timeout time.Duration

	// BatchRPS rate-limits batch calls during index builds so a catalog
	// rebuild cannot exhaust the provider quota. Zero disables the limiter.
	BatchRPS float64

	// MaxBatchSize caps texts per request; larger batches are split.
	MaxBatchSize int
}

// HTTPEmbedder calls an OpenAI-compatible /embeddings endpoint.
//
// All failure modes (transport, HTTP status, open circuit, malformed body,
// wrong dimension) collapse into ErrUnavailable so the engine has a single
// degradation signal to act on.
type HTTPEmbedder struct {
	cfg     HTTPConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[[][]float32]
	limiter *rate.Limiter
}

// NewHTTPEmbedder creates a remote embedding client.
// Circuit breaker configuration mirrors the service defaults:
// opens after 60% failures over at least 10 requests, probes again after 30s.
func NewHTTPEmbedder(cfg HTTPConfig) (*HTTPEmbedder, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("embedding base URL is required")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", cfg.Dimension)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Second
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 64
	}

	cbName := "embedding-api"
	metrics.BreakerState.WithLabelValues(cbName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[[][]float32](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 10 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("embedding circuit breaker state change")
			metrics.BreakerState.WithLabelValues(name).Set(breakerStateValue(to))
		},
	})

	var limiter *rate.Limiter
	if cfg.BatchRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.BatchRPS), 1)
	}

	return &HTTPEmbedder{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
		limiter: limiter,
	}, nil
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateOpen:
		return 1
	case gobreaker.StateHalfOpen:
		return 2
	default:
		return 0
	}
}

// Dimension implements Embedder.
func (e *HTTPEmbedder) Dimension() int {
	return e.cfg.Dimension
}

// Ready reports whether the circuit currently admits requests. Used by the
// health endpoint; it does not issue a probe request.
func (e *HTTPEmbedder) Ready() bool {
	return e.breaker.State() != gobreaker.StateOpen
}

// Embed implements Embedder.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.embedChunk(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch implements Embedder. Batches above MaxBatchSize are split into
// sequential requests; the rate limiter, when configured, paces them.
func (e *HTTPEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	out := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += e.cfg.MaxBatchSize {
		end := start + e.cfg.MaxBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		if e.limiter != nil {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
		}

		vecs, err := e.embedChunk(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, vecs...)
	}
	return out, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// embedChunk issues one API call through the circuit breaker.
func (e *HTTPEmbedder) embedChunk(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	vecs, err := e.breaker.Execute(func() ([][]float32, error) {
		return e.doRequest(ctx, texts)
	})
	metrics.EmbeddingRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.EmbeddingRequests.WithLabelValues("failure").Inc()
		logging.Warn().Err(err).Int("texts", len(texts)).Msg("embedding request failed")
		// A dimension mismatch is a configuration error, not an outage; it
		// must surface as itself so callers fail instead of degrading.
		if errors.Is(err, ErrDimensionMismatch) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	metrics.EmbeddingRequests.WithLabelValues("success").Inc()
	return vecs, nil
}

func (e *HTTPEmbedder) doRequest(ctx context.Context, texts []string) ([][]float32, error) {
	body, err := json.Marshal(embeddingRequest{Model: e.cfg.Model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.cfg.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.cfg.APIKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Read a bounded amount for the log line; upstream error bodies can be huge.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("embedding API status %d: %s", resp.StatusCode, snippet)
	}

	var parsed embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(parsed.Data))
	}

	vecs := make([][]float32, len(texts))
	for _, d := range parsed.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		if len(d.Embedding) != e.cfg.Dimension {
			return nil, fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, e.cfg.Dimension, len(d.Embedding))
		}
		vecs[d.Index] = Normalize(d.Embedding)
	}
	for i, v := range vecs {
		if v == nil {
			return nil, fmt.Errorf("missing embedding for input %d", i)
		}
	}

	return vecs, nil
}
