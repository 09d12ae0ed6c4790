// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package embedding

import (
	"context"
	"errors"
	"math"
)

// ErrUnavailable reports that the embedding capability could not produce a
// vector (transport failure, timeout, open circuit, malformed response).
// Callers must treat it as a signal to degrade, not as a request failure.
var ErrUnavailable = errors.New("embedding unavailable")

// ErrDimensionMismatch reports a vector whose length disagrees with the
// configured dimension. This is a configuration error between the embedding
// service and the index; it is fatal at build time and is never papered over
// with a zero vector.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Embedder converts text into fixed-dimension vectors.
//
// Implementations must be deterministic for identical input and safe for
// concurrent use.
type Embedder interface {
	// Embed returns the vector for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per input text, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension returns the vector length produced by this embedder.
	Dimension() int
}

// Normalize scales v to unit length in place and returns it. A zero vector is
// returned unchanged; cosine similarity against it is zero everywhere, which
// is the correct "no signal" behavior.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	inv := 1.0 / math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) * inv)
	}
	return v
}

// Dot returns the dot product of two equal-length vectors. With unit-length
// inputs this is the cosine similarity.
func Dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
