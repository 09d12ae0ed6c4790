// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

// Package index implements the in-memory vector index over the assessment
// catalog.
//
// The index is immutable after Build; the engine swaps whole indexes
// atomically on catalog reload instead of mutating a live one. Retrieval is
// an exhaustive dot-product scan over every stored vector, which at catalog
// scale (hundreds to low thousands of records) beats approximate structures
// on both simplicity and recall.
package index
