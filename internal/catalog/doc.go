// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

// Package catalog defines the assessment catalog: the fixed set of
// recommendable items loaded from a JSON snapshot produced by an external
// crawler.
//
// The catalog is read-only for the lifetime of a serving process. A refresh
// replaces the whole in-memory structure at once (see recommend.Engine.Reload);
// there is no partial-update path.
//
// # Snapshot Format
//
// The snapshot is a JSON array of records, one per assessment:
//
//	[
//	  {
//	    "id": "java-programming",
//	    "name": "Java Programming Test",
//	    "url": "https://example.com/catalog/java-programming",
//	    "description": "Measures Java coding proficiency.",
//	    "categories": ["K"],
//	    "duration_minutes": 40,
//	    "adaptive_support": false,
//	    "remote_support": true
//	  }
//	]
//
// Category tags use the single-letter codes of the source catalog
// (K, P, A, S, O); full names are accepted as well.
package catalog
