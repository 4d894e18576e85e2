package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"pdfchat/internal/embedding"
)

// CachedEmbedder wraps an Embedder with an LRU cache keyed by input text.
// Query embeddings dominate the hot path (the same question wording often
// repeats within a conversation), so only single-text Embed calls are cached;
// batch ingestion always goes to the underlying embedder.
type CachedEmbedder struct {
	inner embedding.Embedder
	cache *lru.Cache[string, []float32]
}

func NewCachedEmbedder(inner embedding.Embedder, size int) (*CachedEmbedder, error) {
	if size <= 0 {
		size = 512
	}
	c, err := lru.New[string, []float32](size)
	if err != nil {
		return nil, err
	}
	return &CachedEmbedder{inner: inner, cache: c}, nil
}

func (e *CachedEmbedder) Dimension() int { return e.inner.Dimension() }

func (e *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if vec, ok := e.cache.Get(text); ok {
		return vec, nil
	}
	vec, err := e.inner.Embed(ctx, text)
	if err != nil {
		return nil, err
	}
	e.cache.Add(text, vec)
	return vec, nil
}

func (e *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return e.inner.EmbedBatch(ctx, texts)
}
