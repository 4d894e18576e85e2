// Package embedding provides the embedding function used for both chunk
// indexing and query-time retrieval. Every index is built with exactly one
// Embedder so chunk and query vectors stay comparable.
package embedding

import (
	"context"
	"math"
)

// Embedder converts text into a fixed-dimension vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}

// CosineSimilarity returns the cosine of the angle between a and b, or 0 for
// empty or mismatched vectors.
func CosineSimilarity(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
