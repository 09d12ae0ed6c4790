// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

// Package embedding provides text embedding for the vector index and query
// pipeline.
//
// Two implementations are available:
//
//   - HTTPEmbedder talks to an OpenAI-compatible /embeddings endpoint with a
//     hard request timeout and a circuit breaker. Any failure surfaces as
//     ErrUnavailable, which the recommendation engine translates into the
//     lexical fallback rather than a user-visible error.
//   - HashingEmbedder is a deterministic local feature-hashing embedder. It
//     needs no network or model files and is the default for offline
//     evaluation and tests.
//
// Both produce unit-length vectors of a fixed dimension. The same embedder
// (and dimension) must be used at index-build time and query time; a
// dimension mismatch is a configuration error, never silently corrected.
package embedding
