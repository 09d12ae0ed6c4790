// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package recommend

import (
	"fmt"

	"github.com/tomtom215/skillmatch/internal/catalog"
	"github.com/tomtom215/skillmatch/internal/index"
)

// Strategy identifies which retrieval path served a response.
type Strategy string

const (
	// StrategyVector is the normal path: embedded query against the vector
	// index.
	StrategyVector Strategy = "vector"

	// StrategyLexical is the degraded path: token-overlap scoring, used when
	// embedding is unavailable.
	StrategyLexical Strategy = "lexical"
)

// Request is one recommendation query.
type Request struct {
	// Query is the free-text job description or requirement.
	Query string `json:"query" validate:"required"`

	// K is the maximum number of results. Zero means the configured default;
	// out-of-range values are clamped, not rejected.
	K int `json:"k,omitempty"`
}

// Recommendation is one result row. The JSON shape is the external contract
// consumed by the evaluation harness and downstream clients.
type Recommendation struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	URL             string   `json:"url"`
	Description     string   `json:"description,omitempty"`
	Duration        int      `json:"duration"`
	TestType        []string `json:"test_type"`
	AdaptiveSupport bool     `json:"adaptive_support"`
	RemoteSupport   bool     `json:"remote_support"`

	// Score is kept for the evaluator and tests; similarity scores from the
	// two retrieval strategies are not comparable, so clients never see them.
	Score float64 `json:"-"`
}

// Response is the full recommendation payload.
type Response struct {
	RecommendedAssessments []Recommendation `json:"recommended_assessments"`

	// Strategy reports whether the vector or the lexical path served this
	// response.
	Strategy Strategy `json:"strategy"`

	// Reranked is true when the LLM reranker contributed the final order.
	Reranked bool `json:"reranked"`
}

// Config holds engine tuning knobs.
type Config struct {
	// DefaultK is used when a request leaves K unset.
	DefaultK int

	// MaxK caps K; larger requests are clamped down to it.
	MaxK int

	// OverFetchFactor multiplies k for the retrieval stage, giving the
	// balancer enough candidates from minority categories to work with.
	OverFetchFactor int

	// MaxQueryChars truncates longer queries before embedding. Embedding
	// models silently drop text past their window anyway; truncating here
	// keeps the lexical path consistent with the vector path.
	MaxQueryChars int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		DefaultK:        10,
		MaxK:            10,
		OverFetchFactor: 3,
		MaxQueryChars:   8000,
	}
}

// Validate checks config invariants.
func (c Config) Validate() error {
	if c.DefaultK <= 0 {
		return fmt.Errorf("default k must be positive, got %d", c.DefaultK)
	}
	if c.MaxK < c.DefaultK {
		return fmt.Errorf("max k %d below default k %d", c.MaxK, c.DefaultK)
	}
	if c.OverFetchFactor < 1 {
		return fmt.Errorf("over-fetch factor must be at least 1, got %d", c.OverFetchFactor)
	}
	if c.MaxQueryChars <= 0 {
		return fmt.Errorf("max query chars must be positive, got %d", c.MaxQueryChars)
	}
	return nil
}

// toRecommendation converts a ranked candidate to the response row shape.
func toRecommendation(c index.Candidate) Recommendation {
	return Recommendation{
		ID:              c.Assessment.ID,
		Name:            c.Assessment.Name,
		URL:             c.Assessment.URL,
		Description:     c.Assessment.Description,
		Duration:        c.Assessment.DurationMinutes,
		TestType:        c.Assessment.CategoryNames(),
		AdaptiveSupport: c.Assessment.AdaptiveSupport,
		RemoteSupport:   c.Assessment.RemoteSupport,
		Score:           c.Score,
	}
}

// Status is the engine's health snapshot, served by the health endpoints.
type Status struct {
	Ready          bool     `json:"ready"`
	IndexRecords   int      `json:"index_records"`
	IndexBuiltAt   string   `json:"index_built_at,omitempty"`
	ActiveStrategy Strategy `json:"active_strategy"`

	// EmbeddingReachable is the embedding breaker state: false while the
	// breaker is open and vector retrieval is failing over to lexical.
	EmbeddingReachable bool           `json:"embedding_reachable"`
	Categories         map[string]int `json:"categories,omitempty"`
}

// categoryCounts tallies records per primary category for the status payload.
func categoryCounts(records []catalog.Assessment) map[string]int {
	out := make(map[string]int)
	for _, r := range records {
		out[r.PrimaryCategory().String()]++
	}
	return out
}
