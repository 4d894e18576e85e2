package model

// Document is an uploaded file currently live in the system. The identifier
// is the sanitized filename; re-uploading the same name replaces the document.
type Document struct {
	ID   string `json:"id"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Chunk is a bounded span of a document's text together with its embedding.
// Chunks are immutable once built.
type Chunk struct {
	DocumentID string    `json:"document_id"`
	Position   int       `json:"position"`
	Text       string    `json:"text"`
	Embedding  []float32 `json:"-"`
}
