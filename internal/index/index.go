// Package index keeps one in-memory vector index per live document and
// serves brute-force cosine nearest-neighbor search over its chunks.
package index

import (
	"errors"
	"sort"

	"pdfchat/internal/embedding"
	"pdfchat/internal/model"
)

// ErrNotFound is returned when no index is registered for a document id.
var ErrNotFound = errors.New("document index not found")

// SearchResult is a chunk paired with its similarity to the query vector.
type SearchResult struct {
	Chunk model.Chunk
	Score float32
}

// Index is an immutable collection of chunks and their embeddings for a
// single document. Build a new Index and swap it into the Registry instead of
// mutating one in place; readers then never observe a half-updated index.
type Index struct {
	documentID string
	chunks     []model.Chunk
}

func New(documentID string, chunks []model.Chunk) *Index {
	return &Index{documentID: documentID, chunks: chunks}
}

func (ix *Index) DocumentID() string { return ix.documentID }

func (ix *Index) Len() int { return len(ix.chunks) }

// Search returns up to k chunks ordered by non-increasing cosine similarity
// to the query vector. Fewer than k chunks means all of them; never an error.
func (ix *Index) Search(query []float32, k int) []SearchResult {
	if k <= 0 || len(ix.chunks) == 0 {
		return nil
	}
	results := make([]SearchResult, len(ix.chunks))
	for i := range ix.chunks {
		results[i] = SearchResult{
			Chunk: ix.chunks[i],
			Score: embedding.CosineSimilarity(query, ix.chunks[i].Embedding),
		}
	}
	sort.SliceStable(results, func(a, b int) bool {
		return results[a].Score > results[b].Score
	})
	if k > len(results) {
		k = len(results)
	}
	return results[:k]
}
