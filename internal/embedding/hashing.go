// SkillMatch - Assessment Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/skillmatch

package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"
	"unicode"
)

// DefaultDimension matches the dimension of common sentence-embedding models
// so that configs can switch between local and remote embedders without an
// index rebuild surprise.
const DefaultDimension = 384

// HashingEmbedder maps text into a fixed-dimension vector by feature hashing:
// each token and adjacent token pair is hashed into a bucket, with a second
// hash choosing the sign. The output is unit-length.
//
// It captures lexical overlap, not semantics, but it is fully deterministic,
// needs no network, and gives the retrieval and evaluation pipelines a real
// vector path in tests and offline runs.
type HashingEmbedder struct {
	dim int
}

// NewHashingEmbedder creates a local embedder producing dim-length vectors.
func NewHashingEmbedder(dim int) (*HashingEmbedder, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("embedding dimension must be positive, got %d", dim)
	}
	return &HashingEmbedder{dim: dim}, nil
}

// Dimension implements Embedder.
func (e *HashingEmbedder) Dimension() int {
	return e.dim
}

// Embed implements Embedder. It never fails; the context is accepted for
// interface symmetry with the remote client.
func (e *HashingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return e.vector(text), nil
}

// EmbedBatch implements Embedder.
func (e *HashingEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *HashingEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dim)

	tokens := Tokenize(text)
	for i, tok := range tokens {
		e.add(v, tok)
		if i+1 < len(tokens) {
			e.add(v, tok+" "+tokens[i+1])
		}
	}

	return Normalize(v)
}

// add hashes one feature into its bucket. Bit 32 of the 64-bit hash picks the
// sign so that unrelated features cancel rather than accumulate.
func (e *HashingEmbedder) add(v []float32, feature string) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()

	bucket := int(sum % uint64(e.dim))
	if sum&(1<<32) != 0 {
		v[bucket]--
	} else {
		v[bucket]++
	}
}

// Tokenize lowercases text and splits it into alphanumeric runs. Shared with
// the lexical fallback scorer so that degraded retrieval and the local
// embedder agree on what a token is.
func Tokenize(text string) []string {
	lower := strings.ToLower(text)
	return strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
