// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package rerank

import (
	"context"
	"errors"

	"github.com/tomtom215/skillmatch/internal/index"
)

// ErrUnavailable reports that reranking could not produce a usable ordering.
// The caller keeps its existing order; this error is never user-visible.
var ErrUnavailable = errors.New("rerank unavailable")

// Reranker reorders candidates for a query.
//
// Implementations must return a permutation of the input candidates. The
// engine rejects anything else.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []index.Candidate) ([]index.Candidate, error)
}

// validatePermutation checks that out contains exactly the IDs of in, each
// once. Order may differ; nothing else may.
func validatePermutation(in, out []index.Candidate) error {
	if len(out) != len(in) {
		return errors.New("candidate count changed")
	}

	want := make(map[string]int, len(in))
	for _, c := range in {
		want[c.Assessment.ID]++
	}
	for _, c := range out {
		n, ok := want[c.Assessment.ID]
		if !ok || n == 0 {
			return errors.New("candidate introduced or duplicated")
		}
		want[c.Assessment.ID] = n - 1
	}
	return nil
}
