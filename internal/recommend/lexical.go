// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package recommend

import (
	"sort"

	"github.com/tomtom215/skillmatch/internal/catalog"
	"github.com/tomtom215/skillmatch/internal/embedding"
	"github.com/tomtom215/skillmatch/internal/index"
)

// lexicalTopN scores every record by Jaccard similarity between the query's
// token set and the record's canonical-text token set, and returns the n best
// in descending order with catalog-order ties.
//
// This is the degraded retrieval path. Scores are not comparable to cosine
// scores from the vector path, but they rank, which is all the rest of the
// pipeline needs.
func lexicalTopN(query string, records []catalog.Assessment, n int) []index.Candidate {
	if n <= 0 || len(records) == 0 {
		return nil
	}
	if n > len(records) {
		n = len(records)
	}

	queryTokens := tokenSet(query)

	scored := make([]index.Candidate, len(records))
	for i, r := range records {
		scored[i] = index.Candidate{
			Assessment: r,
			Score:      jaccard(queryTokens, tokenSet(r.CanonicalText())),
		}
	}

	sort.SliceStable(scored, func(a, b int) bool {
		return scored[a].Score > scored[b].Score
	})

	top := scored[:n:n]
	for i := range top {
		top[i].Rank = i
	}
	return top
}

func tokenSet(text string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range embedding.Tokenize(text) {
		out[tok] = struct{}{}
	}
	return out
}

// jaccard returns intersection size over union size, zero when both sets are
// empty.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}

	small, large := a, b
	if len(b) < len(a) {
		small, large = b, a
	}

	var inter int
	for tok := range small {
		if _, ok := large[tok]; ok {
			inter++
		}
	}

	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
