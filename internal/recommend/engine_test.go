// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package recommend

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"github.com/tomtom215/skillmatch/internal/catalog"
	"github.com/tomtom215/skillmatch/internal/embedding"
	"github.com/tomtom215/skillmatch/internal/index"
	"github.com/tomtom215/skillmatch/internal/rerank"
)

// mockEmbedder hashes by default but can be switched to failing mid-test to
// exercise the lexical fallback.
type mockEmbedder struct {
	inner      embedding.Embedder
	failing    bool
	embedCalls int
}

func newMockEmbedder(t *testing.T) *mockEmbedder {
	t.Helper()
	inner, err := embedding.NewHashingEmbedder(64)
	if err != nil {
		t.Fatal(err)
	}
	return &mockEmbedder{inner: inner}
}

func (m *mockEmbedder) Dimension() int { return m.inner.Dimension() }

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	m.embedCalls++
	if m.failing {
		return nil, embedding.ErrUnavailable
	}
	return m.inner.Embed(ctx, text)
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if m.failing {
		return nil, embedding.ErrUnavailable
	}
	return m.inner.EmbedBatch(ctx, texts)
}

// mockReranker reverses the candidate order, or fails on demand.
type mockReranker struct {
	fail   bool
	called bool
}

func (m *mockReranker) Rerank(_ context.Context, _ string, in []index.Candidate) ([]index.Candidate, error) {
	m.called = true
	if m.fail {
		return nil, rerank.ErrUnavailable
	}
	out := make([]index.Candidate, len(in))
	for i, c := range in {
		out[len(in)-1-i] = c
	}
	for i := range out {
		out[i].Rank = i
	}
	return out, nil
}

func testCatalog() []catalog.Assessment {
	return []catalog.Assessment{
		{ID: "java", Name: "Java Programming Test", Description: "java coding backend development", Categories: []catalog.Category{catalog.CategoryKnowledge}},
		{ID: "python", Name: "Python Programming Test", Description: "python coding scripting", Categories: []catalog.Category{catalog.CategoryKnowledge}},
		{ID: "sql", Name: "SQL Skills Test", Description: "sql queries databases", Categories: []catalog.Category{catalog.CategoryKnowledge}},
		{ID: "teamwork", Name: "Teamwork Styles", Description: "collaboration personality teamwork", Categories: []catalog.Category{catalog.CategoryPersonality}},
		{ID: "numerical", Name: "Numerical Reasoning", Description: "numbers aptitude reasoning", Categories: []catalog.Category{catalog.CategoryAptitude}},
	}
}

func newTestEngine(t *testing.T, emb embedding.Embedder, rr rerank.Reranker) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), zerolog.Nop(), emb, rr)
	if err != nil {
		t.Fatal(err)
	}
	return e
}

func newLoadedEngine(t *testing.T, emb embedding.Embedder, rr rerank.Reranker) *Engine {
	t.Helper()
	e := newTestEngine(t, emb, rr)
	if err := e.Reload(context.Background(), testCatalog()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	return e
}

func TestRecommendEmptyQuery(t *testing.T) {
	e := newLoadedEngine(t, newMockEmbedder(t), nil)

	_, err := e.Recommend(context.Background(), Request{Query: "   "})
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestRecommendBeforeFirstReload(t *testing.T) {
	e := newTestEngine(t, newMockEmbedder(t), nil)

	_, err := e.Recommend(context.Background(), Request{Query: "java developer"})
	if !errors.Is(err, ErrIndexNotReady) {
		t.Fatalf("expected ErrIndexNotReady, got %v", err)
	}
}

func TestRecommendVectorPath(t *testing.T) {
	e := newLoadedEngine(t, newMockEmbedder(t), nil)

	resp, err := e.Recommend(context.Background(), Request{Query: "java coding backend", K: 3})
	if err != nil {
		t.Fatal(err)
	}

	if resp.Strategy != StrategyVector {
		t.Errorf("strategy = %q, want vector", resp.Strategy)
	}
	if len(resp.RecommendedAssessments) == 0 || len(resp.RecommendedAssessments) > 3 {
		t.Fatalf("got %d results, want 1..3", len(resp.RecommendedAssessments))
	}
	if resp.RecommendedAssessments[0].ID != "java" {
		t.Errorf("top result = %q, want java", resp.RecommendedAssessments[0].ID)
	}
}

func TestRecommendLexicalFallback(t *testing.T) {
	emb := newMockEmbedder(t)
	e := newLoadedEngine(t, emb, nil)

	emb.failing = true
	resp, err := e.Recommend(context.Background(), Request{Query: "sql queries databases", K: 3})
	if err != nil {
		t.Fatal(err)
	}

	if resp.Strategy != StrategyLexical {
		t.Errorf("strategy = %q, want lexical", resp.Strategy)
	}
	if resp.RecommendedAssessments[0].ID != "sql" {
		t.Errorf("top result = %q, want sql", resp.RecommendedAssessments[0].ID)
	}
}

func TestReloadWithEmbeddingDownBuildsLexicalIndex(t *testing.T) {
	emb := newMockEmbedder(t)
	emb.failing = true
	e := newTestEngine(t, emb, nil)

	if err := e.Reload(context.Background(), testCatalog()); err != nil {
		t.Fatalf("reload: %v", err)
	}

	st := e.Status()
	if !st.Ready {
		t.Fatal("expected ready after lexical reload")
	}
	if st.ActiveStrategy != StrategyLexical {
		t.Errorf("active strategy = %q, want lexical", st.ActiveStrategy)
	}

	// Queries still work without any embedding at all.
	resp, err := e.Recommend(context.Background(), Request{Query: "teamwork collaboration", K: 2})
	if err != nil {
		t.Fatal(err)
	}
	if resp.RecommendedAssessments[0].ID != "teamwork" {
		t.Errorf("top result = %q, want teamwork", resp.RecommendedAssessments[0].ID)
	}
}

func TestRecommendEmptyCatalog(t *testing.T) {
	e := newTestEngine(t, newMockEmbedder(t), nil)
	if err := e.Reload(context.Background(), nil); err != nil {
		t.Fatalf("empty catalog reload: %v", err)
	}

	resp, err := e.Recommend(context.Background(), Request{Query: "java developer"})
	if err != nil {
		t.Fatalf("empty catalog must serve empty results, got %v", err)
	}
	if len(resp.RecommendedAssessments) != 0 {
		t.Errorf("got %d results, want 0", len(resp.RecommendedAssessments))
	}
}

func TestRecommendClampsK(t *testing.T) {
	e := newLoadedEngine(t, newMockEmbedder(t), nil)

	resp, err := e.Recommend(context.Background(), Request{Query: "java", K: 500})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.RecommendedAssessments) > DefaultConfig().MaxK {
		t.Errorf("got %d results, cap is %d", len(resp.RecommendedAssessments), DefaultConfig().MaxK)
	}

	resp, err = e.Recommend(context.Background(), Request{Query: "java", K: -3})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.RecommendedAssessments) != 1 {
		t.Errorf("negative k: got %d results, want 1", len(resp.RecommendedAssessments))
	}
}

func TestRecommendRerankApplied(t *testing.T) {
	rr := &mockReranker{}
	e := newLoadedEngine(t, newMockEmbedder(t), rr)

	resp, err := e.Recommend(context.Background(), Request{Query: "java coding", K: 3})
	if err != nil {
		t.Fatal(err)
	}
	if !rr.called {
		t.Fatal("reranker not invoked")
	}
	if !resp.Reranked {
		t.Error("response not marked reranked")
	}
}

func TestRecommendRerankFailureAbsorbed(t *testing.T) {
	rr := &mockReranker{fail: true}
	e := newLoadedEngine(t, newMockEmbedder(t), rr)

	resp, err := e.Recommend(context.Background(), Request{Query: "java coding backend", K: 3})
	if err != nil {
		t.Fatalf("rerank failure must not fail the request: %v", err)
	}
	if resp.Reranked {
		t.Error("response marked reranked despite failure")
	}
	if resp.RecommendedAssessments[0].ID != "java" {
		t.Errorf("top result = %q, want pre-rerank java", resp.RecommendedAssessments[0].ID)
	}
}

func TestRecommendNoDuplicateResults(t *testing.T) {
	e := newLoadedEngine(t, newMockEmbedder(t), nil)

	resp, err := e.Recommend(context.Background(), Request{Query: "programming test", K: 10})
	if err != nil {
		t.Fatal(err)
	}

	seen := map[string]bool{}
	for _, r := range resp.RecommendedAssessments {
		if seen[r.ID] {
			t.Fatalf("duplicate result %q", r.ID)
		}
		seen[r.ID] = true
	}
}

func TestRecommendTruncatesLongQuery(t *testing.T) {
	e := newLoadedEngine(t, newMockEmbedder(t), nil)

	long := "java developer " + strings.Repeat("requirements and responsibilities ", 2000)
	resp, err := e.Recommend(context.Background(), Request{Query: long, K: 3})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.RecommendedAssessments) == 0 {
		t.Fatal("expected results for truncated query")
	}
}

func TestPrepareTruncatesOnRuneBoundary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxQueryChars = 9
	e, err := NewEngine(cfg, zerolog.Nop(), newMockEmbedder(t), nil)
	if err != nil {
		t.Fatal(err)
	}

	// "é" is two bytes starting at byte 8, so a byte-9 cut lands mid-rune.
	query, _, err := e.prepare(Request{Query: "entwickléé développeur"})
	if err != nil {
		t.Fatal(err)
	}
	if !utf8.ValidString(query) {
		t.Fatalf("truncated query is invalid UTF-8: %q", query)
	}
	if len(query) > cfg.MaxQueryChars {
		t.Errorf("truncated to %d bytes, limit is %d", len(query), cfg.MaxQueryChars)
	}
	if !strings.HasPrefix("entwickléé développeur", query) {
		t.Errorf("truncation changed content: %q", query)
	}
}

func TestStatusBeforeAndAfterReload(t *testing.T) {
	e := newTestEngine(t, newMockEmbedder(t), nil)

	if st := e.Status(); st.Ready {
		t.Error("expected not ready before reload")
	}

	if err := e.Reload(context.Background(), testCatalog()); err != nil {
		t.Fatal(err)
	}

	st := e.Status()
	if !st.Ready {
		t.Fatal("expected ready")
	}
	if st.IndexRecords != len(testCatalog()) {
		t.Errorf("index records = %d, want %d", st.IndexRecords, len(testCatalog()))
	}
	if st.Categories["Knowledge & Skills"] != 3 {
		t.Errorf("knowledge count = %d, want 3", st.Categories["Knowledge & Skills"])
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}

	bad := DefaultConfig()
	bad.OverFetchFactor = 0
	if err := bad.Validate(); err == nil {
		t.Error("expected error for zero over-fetch factor")
	}

	bad = DefaultConfig()
	bad.MaxK = 1
	if err := bad.Validate(); err == nil {
		t.Error("expected error for max k below default k")
	}
}

func TestRecommendCachesQueryEmbedding(t *testing.T) {
	emb := newMockEmbedder(t)
	e := newLoadedEngine(t, emb, nil)
	emb.embedCalls = 0

	for i := 0; i < 3; i++ {
		if _, err := e.Recommend(context.Background(), Request{Query: "java developer"}); err != nil {
			t.Fatalf("recommend %d: %v", i, err)
		}
	}

	if emb.embedCalls != 1 {
		t.Errorf("embed calls = %d, want 1 (repeats should hit the cache)", emb.embedCalls)
	}

	if _, err := e.Recommend(context.Background(), Request{Query: "sql analyst"}); err != nil {
		t.Fatal(err)
	}
	if emb.embedCalls != 2 {
		t.Errorf("embed calls = %d, want 2 after a new query", emb.embedCalls)
	}
}

func TestRecommendDeterministic(t *testing.T) {
	e := newLoadedEngine(t, newMockEmbedder(t), nil)

	ids := func() []string {
		resp, err := e.Recommend(context.Background(), Request{Query: "programming test", K: 5})
		if err != nil {
			t.Fatal(err)
		}
		out := make([]string, len(resp.RecommendedAssessments))
		for i, r := range resp.RecommendedAssessments {
			out[i] = r.ID
		}
		return out
	}

	first := ids()
	for i := 0; i < 3; i++ {
		if got := ids(); strings.Join(got, ",") != strings.Join(first, ",") {
			t.Fatalf("run %d returned %v, first run returned %v", i, got, first)
		}
	}
}

func TestRecommendMixedCategoryScenario(t *testing.T) {
	records := []catalog.Assessment{
		{ID: "a", Name: "Java Programming Test", Description: "Java programming test", Categories: []catalog.Category{catalog.CategoryKnowledge}},
		{ID: "b", Name: "Teamwork Communication", Description: "teamwork communication", Categories: []catalog.Category{catalog.CategoryPersonality}},
		{ID: "c", Name: "Python Programming Test", Description: "Python programming test", Categories: []catalog.Category{catalog.CategoryKnowledge}},
	}

	e := newTestEngine(t, newMockEmbedder(t), nil)
	if err := e.Reload(context.Background(), records); err != nil {
		t.Fatal(err)
	}

	resp, err := e.Recommend(context.Background(), Request{Query: "Java developer with strong communication", K: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(resp.RecommendedAssessments) != 2 {
		t.Fatalf("got %d results, want 2", len(resp.RecommendedAssessments))
	}

	// Once the best match takes a slot, the second slot goes to the other
	// category: the weaker Knowledge record never displaces the Personality
	// one, so the pair is always {a, b}.
	got := map[string]bool{}
	for _, r := range resp.RecommendedAssessments {
		got[r.ID] = true
	}
	if !got["a"] || !got["b"] {
		t.Errorf("results = %v, want exactly a and b", resp.RecommendedAssessments)
	}
}

// mismatchEmbedder reports one dimension but emits another, simulating a
// misconfigured remote model.
type mismatchEmbedder struct{}

func (mismatchEmbedder) Dimension() int { return 4 }

func (mismatchEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{1, 2, 3}, nil
}

func (m mismatchEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1, 2, 3}
	}
	return out, nil
}

func TestReloadDimensionMismatchIsFatal(t *testing.T) {
	e := newTestEngine(t, mismatchEmbedder{}, nil)

	err := e.Reload(context.Background(), testCatalog())
	if !errors.Is(err, embedding.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}

	// A configuration error must not degrade into a lexical-only index.
	if e.Ready() {
		t.Fatal("engine became ready from a mismatched build")
	}
}
