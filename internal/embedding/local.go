package embedding

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// LocalEmbedder is a deterministic bag-of-words hashing embedder. It needs no
// network access, which makes it the default when no remote embedding
// endpoint is configured and keeps the retrieval pipeline testable offline.
// Tokens are hashed into a fixed number of buckets with a sign hash, then the
// vector is L2-normalized so cosine ranking behaves like a learned embedding.
type LocalEmbedder struct {
	dimension int
}

func NewLocalEmbedder(dimension int) *LocalEmbedder {
	if dimension <= 0 {
		dimension = 256
	}
	return &LocalEmbedder{dimension: dimension}
}

func (e *LocalEmbedder) Dimension() int { return e.dimension }

func (e *LocalEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return nil, fmt.Errorf("embedding input is empty")
	}

	vec := make([]float32, e.dimension)
	for _, tok := range tokens {
		h := fnv.New32a()
		_, _ = h.Write([]byte(tok))
		sum := h.Sum32()
		bucket := int(sum % uint32(e.dimension))
		sign := float32(1)
		if sum&0x80000000 != 0 {
			sign = -1
		}
		vec[bucket] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm > 0 {
		inv := float32(1 / math.Sqrt(norm))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec, nil
}

func (e *LocalEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
