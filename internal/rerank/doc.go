// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

// Package rerank reorders a balanced candidate list with an LLM.
//
// Reranking is strictly best-effort: it may only permute the candidates it
// was given, never add, drop, or duplicate. Any failure (transport, timeout,
// open circuit, unparseable or non-permutation output) surfaces as
// ErrUnavailable, and the engine serves the pre-rerank order unchanged. A
// broken rerank provider must never degrade a response below what retrieval
// alone produced.
package rerank
