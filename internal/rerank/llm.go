// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package rerank

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/skillmatch/internal/index"
	"github.com/tomtom215/skillmatch/internal/logging"
	"github.com/tomtom215/skillmatch/internal/metrics"
)

// LLMConfig holds settings for the chat-completion reranker.
type LLMConfig struct {
	// BaseURL is the API root of an OpenAI-compatible chat endpoint.
	BaseURL string

	// APIKey is sent as a bearer token when non-empty.
	APIKey string

	// Model is the chat model identifier.
	Model string

	// Timeout bounds one rerank call. Rerank sits on the request path, so
	// this should stay well under the overall request budget.
	Timeout time.Duration
}

// LLMReranker asks a chat model to reorder candidates by relevance to the
// query. The model answers with assessment names, one per line; names are
// matched back to candidates case-insensitively, and candidates the model
// failed to mention keep their relative order at the tail.
type LLMReranker struct {
	cfg     LLMConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[string]
}

// NewLLMReranker creates a chat-completion reranker.
func NewLLMReranker(cfg LLMConfig) (*LLMReranker, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("rerank base URL is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("rerank model is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	cbName := "rerank-llm"
	metrics.BreakerState.WithLabelValues(cbName).Set(0)

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < 5 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= 0.6
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Info().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("rerank circuit breaker state change")
			if to == gobreaker.StateOpen {
				metrics.BreakerState.WithLabelValues(name).Set(1)
			} else if to == gobreaker.StateHalfOpen {
				metrics.BreakerState.WithLabelValues(name).Set(2)
			} else {
				metrics.BreakerState.WithLabelValues(name).Set(0)
			}
		},
	})

	return &LLMReranker{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		breaker: breaker,
	}, nil
}

// Rerank implements Reranker.
func (r *LLMReranker) Rerank(ctx context.Context, query string, candidates []index.Candidate) ([]index.Candidate, error) {
	if len(candidates) < 2 {
		// Nothing to reorder.
		return candidates, nil
	}

	start := time.Now()
	answer, err := r.breaker.Execute(func() (string, error) {
		return r.complete(ctx, query, candidates)
	})
	metrics.RerankRequestDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.RerankRequests.WithLabelValues("failure").Inc()
		logging.Warn().Err(err).Msg("rerank request failed")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	out, err := r.applyOrdering(answer, candidates)
	if err != nil {
		metrics.RerankRequests.WithLabelValues("unparseable").Inc()
		logging.Warn().Err(err).Msg("rerank response unusable")
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if err := validatePermutation(candidates, out); err != nil {
		metrics.RerankRequests.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	metrics.RerankRequests.WithLabelValues("success").Inc()
	return out, nil
}

const systemPrompt = "You rank skill assessments by relevance to a job description. " +
	"Reply with the assessment names only, one per line, most relevant first. " +
	"Use the exact names given. Do not add commentary."

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (r *LLMReranker) complete(ctx context.Context, query string, candidates []index.Candidate) (string, error) {
	var prompt strings.Builder
	prompt.WriteString("Job description or query:\n")
	prompt.WriteString(query)
	prompt.WriteString("\n\nAssessments:\n")
	for _, c := range candidates {
		prompt.WriteString("- ")
		prompt.WriteString(c.Assessment.Name)
		prompt.WriteString("\n")
	}

	body, err := json.Marshal(chatRequest{
		Model: r.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt.String()},
		},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if r.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+r.cfg.APIKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("rerank request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("rerank API status %d: %s", resp.StatusCode, snippet)
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty completion")
	}
	return parsed.Choices[0].Message.Content, nil
}

// applyOrdering matches answer lines back to candidates by name. Mentioned
// candidates come first in mention order; unmentioned ones follow in their
// original relative order, so the result is always a permutation. An answer
// that mentions no candidate at all is rejected.
func (r *LLMReranker) applyOrdering(answer string, candidates []index.Candidate) ([]index.Candidate, error) {
	byName := make(map[string]int, len(candidates))
	for i, c := range candidates {
		byName[strings.ToLower(c.Assessment.Name)] = i
	}

	used := make([]bool, len(candidates))
	out := make([]index.Candidate, 0, len(candidates))

	for _, line := range strings.Split(answer, "\n") {
		name := strings.ToLower(strings.Trim(line, " \t-*0123456789."))
		if name == "" {
			continue
		}
		i, ok := byName[name]
		if !ok || used[i] {
			continue
		}
		used[i] = true
		out = append(out, candidates[i])
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no candidate names recognized in completion")
	}

	for i, c := range candidates {
		if !used[i] {
			out = append(out, c)
		}
	}

	for i := range out {
		out[i].Rank = i
	}
	return out, nil
}
