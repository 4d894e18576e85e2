package app

import "errors"

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDocumentNotFound = errors.New("document not found")
	ErrIngestion        = errors.New("document ingestion failed")
	ErrUpstream         = errors.New("upstream model call failed")
)
