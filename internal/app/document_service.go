package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"pdfchat/internal/index"
	"pdfchat/internal/ingest"
	"pdfchat/internal/model"
	"pdfchat/internal/pkg/pdfextract"
)

// DocumentService owns the live document set: the backing files under the
// upload directory and the vector index per document. Mutations on one
// document id are serialized through a per-key lock; distinct documents
// proceed independently.
type DocumentService struct {
	registry  *index.Registry
	ingestor  *ingest.Ingestor
	uploadDir string
	logger    *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
	docs  map[string]model.Document
}

func NewDocumentService(registry *index.Registry, ingestor *ingest.Ingestor, uploadDir string, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		registry:  registry,
		ingestor:  ingestor,
		uploadDir: uploadDir,
		logger:    logger,
		locks:     make(map[string]*sync.Mutex),
		docs:      make(map[string]model.Document),
	}
}

// Upload ingests raw PDF bytes under the sanitized filename and registers
// the resulting index, atomically replacing any previous document with the
// same name. File-type and size validation is the caller's job.
func (s *DocumentService) Upload(ctx context.Context, filename string, content []byte) (string, error) {
	id := filepath.Base(strings.TrimSpace(filename))
	if id == "" || id == "." || id == string(filepath.Separator) {
		return "", ErrInvalidInput
	}

	text, err := pdfextract.ExtractText(content)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrIngestion, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: pdf contains no extractable text", ErrIngestion)
	}

	// Build the new index off to the side; the swap below is what makes the
	// replacement atomic for readers.
	ix, err := s.ingestor.Ingest(ctx, id, text)
	if err != nil {
		if errors.Is(err, ingest.ErrNoContent) {
			return "", fmt.Errorf("%w: %v", ErrIngestion, err)
		}
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	lock := s.keyLock(id)
	lock.Lock()
	defer lock.Unlock()

	path := filepath.Join(s.uploadDir, id)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("store uploaded file failed: %w", err)
	}

	s.registry.Put(id, ix)
	s.mu.Lock()
	s.docs[id] = model.Document{ID: id, Path: path, Size: int64(len(content))}
	s.mu.Unlock()

	s.logger.Info("document ingested",
		zap.String("document_id", id),
		zap.Int("chunks", ix.Len()),
		zap.Int("bytes", len(content)),
	)
	return id, nil
}

// Delete removes the document's index and backing file together and reports
// whether the document existed. Deleting an unknown id is not an error.
func (s *DocumentService) Delete(id string) bool {
	lock := s.keyLock(id)
	lock.Lock()
	defer lock.Unlock()

	s.mu.Lock()
	doc, ok := s.docs[id]
	delete(s.docs, id)
	s.mu.Unlock()

	s.registry.Delete(id)
	if !ok {
		return false
	}

	if err := os.Remove(doc.Path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("remove uploaded file failed", zap.String("document_id", id), zap.Error(err))
	}
	s.logger.Info("document deleted", zap.String("document_id", id))
	return true
}

// Has reports whether id refers to a live document.
func (s *DocumentService) Has(id string) bool {
	return s.registry.Has(id)
}

func (s *DocumentService) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

// Purge drops every document and removes the upload directory. Called on
// clean shutdown; the registries are rebuilt empty on the next start anyway.
func (s *DocumentService) Purge() error {
	s.mu.Lock()
	s.docs = make(map[string]model.Document)
	s.mu.Unlock()
	return os.RemoveAll(s.uploadDir)
}

func (s *DocumentService) keyLock(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	return l
}
