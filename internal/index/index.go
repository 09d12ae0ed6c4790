// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package index

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tomtom215/skillmatch/internal/catalog"
	"github.com/tomtom215/skillmatch/internal/embedding"
	"github.com/tomtom215/skillmatch/internal/logging"
	"github.com/tomtom215/skillmatch/internal/metrics"
)

// Candidate is one retrieval hit: an assessment with its similarity to the
// query and its zero-based rank in the result list.
type Candidate struct {
	Assessment catalog.Assessment
	Score      float64
	Rank       int
}

// Index holds unit-length vectors for every catalog record. It is immutable
// after construction and safe for unlimited concurrent readers.
type Index struct {
	records []catalog.Assessment
	vectors [][]float32
	dim     int
	builtAt time.Time

	// lexical marks an index built without vectors; TopN cannot serve it and
	// the engine must route queries through the token-overlap fallback.
	lexical bool
}

// Build embeds every record's canonical text and constructs a vector index.
// Records keep their catalog order, which is the tie-break order for equal
// scores.
// An empty catalog builds an empty index; queries against it return no
// candidates rather than an error.
func Build(ctx context.Context, records []catalog.Assessment, embedder embedding.Embedder) (*Index, error) {
	start := time.Now()

	texts := make([]string, len(records))
	for i, r := range records {
		texts[i] = r.CanonicalText()
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed catalog: %w", err)
	}
	if len(vectors) != len(records) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d records", len(vectors), len(records))
	}

	dim := embedder.Dimension()
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("record %q: %w: expected %d, got %d",
				records[i].ID, embedding.ErrDimensionMismatch, dim, len(v))
		}
		embedding.Normalize(v)
	}

	elapsed := time.Since(start)
	metrics.IndexBuildDuration.Observe(elapsed.Seconds())
	metrics.IndexSize.Set(float64(len(records)))
	logging.Info().
		Int("records", len(records)).
		Int("dimension", dim).
		Dur("elapsed", elapsed).
		Msg("vector index built")

	return &Index{
		records: records,
		vectors: vectors,
		dim:     dim,
		builtAt: time.Now(),
	}, nil
}

// BuildLexical constructs an index with no vectors. Used when the embedding
// service is down at startup or reload time: the catalog is still servable
// through the lexical fallback, just without the vector path.
func BuildLexical(records []catalog.Assessment) (*Index, error) {
	metrics.IndexSize.Set(float64(len(records)))
	logging.Warn().
		Int("records", len(records)).
		Msg("built lexical-only index, vector retrieval disabled")

	return &Index{
		records: records,
		builtAt: time.Now(),
		lexical: true,
	}, nil
}

// Len returns the number of indexed records.
func (ix *Index) Len() int {
	return len(ix.records)
}

// Dimension returns the vector dimension, or zero for a lexical-only index.
func (ix *Index) Dimension() int {
	return ix.dim
}

// Lexical reports whether this index carries no vectors.
func (ix *Index) Lexical() bool {
	return ix.lexical
}

// BuiltAt returns when the index was constructed.
func (ix *Index) BuiltAt() time.Time {
	return ix.builtAt
}

// Records returns the indexed assessments in catalog order. Callers must not
// modify the returned slice.
func (ix *Index) Records() []catalog.Assessment {
	return ix.records
}

// TopN scans every vector and returns the n most similar records in
// descending score order. Ties keep catalog order. Requesting more than
// Len() returns everything.
func (ix *Index) TopN(query []float32, n int) ([]Candidate, error) {
	if ix.lexical {
		return nil, fmt.Errorf("index has no vectors")
	}
	if len(query) != ix.dim {
		return nil, fmt.Errorf("%w: query has %d, index has %d",
			embedding.ErrDimensionMismatch, len(query), ix.dim)
	}
	if n <= 0 {
		return nil, nil
	}
	if n > len(ix.records) {
		n = len(ix.records)
	}

	scores := make([]Candidate, len(ix.records))
	for i, v := range ix.vectors {
		scores[i] = Candidate{
			Assessment: ix.records[i],
			Score:      embedding.Dot(query, v),
		}
	}

	// Stable sort keeps catalog order for equal scores.
	sort.SliceStable(scores, func(a, b int) bool {
		return scores[a].Score > scores[b].Score
	})

	top := scores[:n:n]
	for i := range top {
		top[i].Rank = i
	}
	return top, nil
}
