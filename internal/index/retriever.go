package index

import (
	"context"
	"fmt"

	"pdfchat/internal/embedding"
	"pdfchat/internal/model"
)

// Retriever answers top-K similarity queries against a registered document
// index using the same embedding function the index was built with.
type Retriever struct {
	registry *Registry
	embedder embedding.Embedder
}

func NewRetriever(registry *Registry, embedder embedding.Embedder) *Retriever {
	return &Retriever{registry: registry, embedder: embedder}
}

// TopK embeds the query and returns up to k chunks from the document's index
// ranked by descending similarity. An index with fewer than k chunks yields
// all of them. An unknown document id yields ErrNotFound.
func (r *Retriever) TopK(ctx context.Context, documentID, query string, k int) ([]model.Chunk, error) {
	ix, err := r.registry.Get(documentID)
	if err != nil {
		return nil, err
	}

	queryVec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query failed: %w", err)
	}

	results := ix.Search(queryVec, k)
	chunks := make([]model.Chunk, len(results))
	for i := range results {
		chunks[i] = results[i].Chunk
	}
	return chunks, nil
}
