package retrieval

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math"
	"strings"
)

// HashEmbedder is a deterministic, dependency-free Embedder: it hashes
// overlapping token shingles into a fixed-width vector and L2-normalises
// the result, so cosine similarity behaves sensibly for exact and
// near-duplicate text even with no model call. No embedding-API client
// library appears anywhere in the retrieval pack (DESIGN.md), so this is
// the wired default rather than a silent stdlib fallback: every caller
// that needs semantic nuance beyond lexical overlap is expected to
// supply its own Embedder (the interface this satisfies), e.g. one
// backed by a hosted embeddings endpoint.
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder constructs a HashEmbedder producing vectors of the
// given dimensionality (spec.md §6's configured embedding dimensions,
// default 1024 per spec.md §4.2).
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 1024
	}
	return &HashEmbedder{dimensions: dimensions}
}

// Embed satisfies Embedder.
func (e *HashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, e.dimensions)
	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return vec, nil
	}
	for _, shingle := range shingles(words, 3) {
		h := sha256.Sum256([]byte(shingle))
		idx := binary.BigEndian.Uint64(h[:8]) % uint64(e.dimensions)
		sign := 1.0
		if h[8]&1 == 1 {
			sign = -1.0
		}
		vec[idx] += sign
	}
	normalize(vec)
	return vec, nil
}

func shingles(words []string, n int) []string {
	if len(words) < n {
		return []string{strings.Join(words, " ")}
	}
	out := make([]string, 0, len(words)-n+1)
	for i := 0; i+n <= len(words); i++ {
		out = append(out, strings.Join(words[i:i+n], " "))
	}
	return out
}

func normalize(vec []float64) {
	var sumSq float64
	for _, v := range vec {
		sumSq += v * v
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range vec {
		vec[i] /= norm
	}
}
