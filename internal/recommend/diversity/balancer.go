// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

// Package diversity rebalances retrieval candidates across assessment
// categories so a single dominant category cannot fill the whole result list.
package diversity

import (
	"github.com/tomtom215/skillmatch/internal/catalog"
	"github.com/tomtom215/skillmatch/internal/index"
)

// Balancer selects up to k candidates with a greedy round-robin over primary
// categories.
//
// The selection rules, in order:
//
//  1. The globally highest-scoring candidate is always picked first. The top
//     match must never be displaced by balancing.
//  2. Each following pick comes from the non-exhausted category with the
//     fewest picks so far. When several categories are tied on pick count,
//     the one whose best remaining candidate scores highest wins.
//  3. Within a category, candidates are consumed in descending score order.
//
// Input order must already be descending by score (the index guarantees
// this). The output preserves no global score order beyond rule 1, since
// interleaving categories is the point.
type Balancer struct{}

// NewBalancer returns a category balancer.
func NewBalancer() *Balancer {
	return &Balancer{}
}

// Balance returns at most k candidates, re-ranked. Fewer than k candidates in
// equals fewer out; the balancer never invents or duplicates entries.
func (b *Balancer) Balance(candidates []index.Candidate, k int) []index.Candidate {
	if k <= 0 || len(candidates) == 0 {
		return nil
	}

	// Partition into per-category queues, preserving the incoming descending
	// score order within each queue.
	queues := make(map[catalog.Category][]index.Candidate)
	var order []catalog.Category
	for _, c := range candidates {
		cat := c.Assessment.PrimaryCategory()
		if _, ok := queues[cat]; !ok {
			order = append(order, cat)
		}
		queues[cat] = append(queues[cat], c)
	}

	picks := make(map[catalog.Category]int, len(order))
	out := make([]index.Candidate, 0, k)

	// Rule 1: global best first.
	first := candidates[0]
	firstCat := first.Assessment.PrimaryCategory()
	queues[firstCat] = queues[firstCat][1:]
	picks[firstCat]++
	out = append(out, first)

	for len(out) < k {
		best, ok := b.nextCategory(order, queues, picks)
		if !ok {
			break
		}
		out = append(out, queues[best][0])
		queues[best] = queues[best][1:]
		picks[best]++
	}

	return renumber(out)
}

// nextCategory picks the category for the next slot: fewest picks first,
// then highest best-remaining score among the tied.
func (b *Balancer) nextCategory(order []catalog.Category, queues map[catalog.Category][]index.Candidate, picks map[catalog.Category]int) (catalog.Category, bool) {
	var (
		best      catalog.Category
		bestScore float64
		minPicks  int
		found     bool
	)

	for _, cat := range order {
		q := queues[cat]
		if len(q) == 0 {
			continue
		}
		p := picks[cat]
		head := q[0].Score

		switch {
		case !found, p < minPicks, p == minPicks && head > bestScore:
			best, bestScore, minPicks, found = cat, head, p, true
		}
	}

	return best, found
}

func renumber(out []index.Candidate) []index.Candidate {
	for i := range out {
		out[i].Rank = i
	}
	return out
}
