// Package ingest turns document text into a searchable vector index.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pdfchat/internal/embedding"
	"pdfchat/internal/index"
	"pdfchat/internal/model"
)

// Embedding providers commonly cap the batch size, so chunks are embedded in
// fixed-size batches.
const embeddingBatchSize = 10

// ErrNoContent is returned when a document yields no chunkable text.
var ErrNoContent = errors.New("document has no extractable text")

// Ingestor builds per-document vector indexes: split into overlapping
// chunks, embed every chunk with the one configured embedding function,
// assemble an Index ready for registration.
type Ingestor struct {
	embedder     embedding.Embedder
	chunkSize    int
	chunkOverlap int
}

func NewIngestor(embedder embedding.Embedder, chunkSize, chunkOverlap int) *Ingestor {
	return &Ingestor{
		embedder:     embedder,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
	}
}

// Ingest builds a fresh index for documentID from text. The returned index is
// not registered; the caller decides when it becomes visible.
func (ing *Ingestor) Ingest(ctx context.Context, documentID, text string) (*index.Index, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoContent
	}

	pieces := SplitText(text, ing.chunkSize, ing.chunkOverlap)
	if len(pieces) == 0 {
		return nil, ErrNoContent
	}

	var vectors [][]float32
	for i := 0; i < len(pieces); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(pieces) {
			end = len(pieces)
		}
		batch, err := ing.embedder.EmbedBatch(ctx, pieces[i:end])
		if err != nil {
			return nil, fmt.Errorf("embed chunk batch failed: %w", err)
		}
		vectors = append(vectors, batch...)
	}
	if len(vectors) != len(pieces) {
		return nil, fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(pieces), len(vectors))
	}

	chunks := make([]model.Chunk, len(pieces))
	for i := range pieces {
		chunks[i] = model.Chunk{
			DocumentID: documentID,
			Position:   i,
			Text:       pieces[i],
			Embedding:  vectors[i],
		}
	}
	return index.New(documentID, chunks), nil
}
