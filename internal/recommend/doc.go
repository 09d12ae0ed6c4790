// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

// Package recommend implements the recommendation engine.
//
// A request flows through a fixed pipeline: validate, embed the query,
// retrieve an over-fetched candidate set from the vector index, rebalance
// across categories, optionally rerank with an LLM, and truncate to k.
//
// The engine degrades instead of failing: an unavailable embedding service
// routes the query through lexical token-overlap retrieval, and a failed
// rerank keeps the balanced order. Only an invalid query or a missing index
// produce errors.
//
// The active index is held behind an atomic pointer. Catalog reloads build a
// complete replacement index off to the side and swap it in; in-flight
// requests keep the snapshot they started with.
package recommend
