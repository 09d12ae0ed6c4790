// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

// Package eval measures recommendation quality offline against a labeled
// query set. It runs the same engine the server runs, so measured recall
// reflects the full pipeline including balancing, not just raw retrieval.
package eval

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/tomtom215/skillmatch/internal/recommend"
)

// LabeledQuery pairs a query with the set of assessment IDs a human judged
// relevant to it.
type LabeledQuery struct {
	Query    string
	Relevant []string
}

// QueryResult is the per-query evaluation outcome.
type QueryResult struct {
	Query     string
	Recall    float64
	Hits      int
	Relevant  int
	Returned  int
	Strategy  recommend.Strategy
	TopResult string
}

// Report aggregates evaluation over the whole labeled set.
type Report struct {
	K          int
	Queries    int
	MeanRecall float64
	PerQuery   []QueryResult

	// CategoryCounts tallies how often each category appeared anywhere in a
	// result list, a cheap diversity read-out alongside recall.
	CategoryCounts map[string]int
}

// LoadLabeledCSV reads a labeled query set. Each row is
// "query,relevant_ids" with relevant IDs separated by '|'. A header row
// starting with "query" is skipped.
func LoadLabeledCSV(path string) ([]LabeledQuery, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open labeled set: %w", err)
	}
	defer f.Close()

	return ParseLabeledCSV(f)
}

// ParseLabeledCSV decodes labeled queries from CSV.
func ParseLabeledCSV(r io.Reader) ([]LabeledQuery, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	var out []LabeledQuery
	for line := 1; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("labeled set line %d: %w", line, err)
		}

		if line == 1 && strings.EqualFold(strings.TrimSpace(row[0]), "query") {
			continue
		}

		query := strings.TrimSpace(row[0])
		if query == "" {
			return nil, fmt.Errorf("labeled set line %d: empty query", line)
		}

		var relevant []string
		for _, id := range strings.Split(row[1], "|") {
			id = strings.TrimSpace(id)
			if id != "" {
				relevant = append(relevant, id)
			}
		}
		if len(relevant) == 0 {
			return nil, fmt.Errorf("labeled set line %d: no relevant ids", line)
		}

		out = append(out, LabeledQuery{Query: query, Relevant: relevant})
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("labeled set contains no queries")
	}
	return out, nil
}

// RecallAtK returns the fraction of relevant IDs present in the top k of
// returned. Relevant must be non-empty.
func RecallAtK(returned, relevant []string, k int) float64 {
	if len(relevant) == 0 {
		return 0
	}
	if k > len(returned) {
		k = len(returned)
	}

	want := make(map[string]struct{}, len(relevant))
	for _, id := range relevant {
		want[id] = struct{}{}
	}

	var hits int
	for _, id := range returned[:k] {
		if _, ok := want[id]; ok {
			hits++
			delete(want, id)
		}
	}
	return float64(hits) / float64(len(relevant))
}

// Evaluate runs every labeled query through the engine and reports mean
// recall@k. Per-query failures abort the run: a broken engine makes every
// aggregate meaningless.
func Evaluate(ctx context.Context, engine *recommend.Engine, queries []LabeledQuery, k int) (*Report, error) {
	if len(queries) == 0 {
		return nil, fmt.Errorf("no labeled queries")
	}
	if k <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", k)
	}

	report := &Report{
		K:              k,
		Queries:        len(queries),
		PerQuery:       make([]QueryResult, 0, len(queries)),
		CategoryCounts: make(map[string]int),
	}

	var sum float64
	for _, lq := range queries {
		resp, err := engine.Recommend(ctx, recommend.Request{Query: lq.Query, K: k})
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", lq.Query, err)
		}

		returned := make([]string, len(resp.RecommendedAssessments))
		for i, rec := range resp.RecommendedAssessments {
			returned[i] = rec.ID
			for _, cat := range rec.TestType {
				report.CategoryCounts[cat]++
			}
		}

		recall := RecallAtK(returned, lq.Relevant, k)
		sum += recall

		qr := QueryResult{
			Query:    lq.Query,
			Recall:   recall,
			Hits:     int(recall*float64(len(lq.Relevant)) + 0.5),
			Relevant: len(lq.Relevant),
			Returned: len(returned),
			Strategy: resp.Strategy,
		}
		if len(returned) > 0 {
			qr.TopResult = returned[0]
		}
		report.PerQuery = append(report.PerQuery, qr)
	}

	report.MeanRecall = sum / float64(len(queries))
	return report, nil
}
