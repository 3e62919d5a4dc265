package models

import "errors"

// The pipeline error kinds. Every failure surfaced by the core wraps exactly
// one of these so callers can match with errors.Is and pick a transport
// status; the core never collapses them into a generic error.
var (
	ErrUnsupportedFormat = errors.New("unsupported document format")
	ErrNoExtractableText = errors.New("no extractable text in document")
	ErrEmptyChunkSet     = errors.New("chunking produced no chunks")
	ErrEmbeddingService  = errors.New("embedding service failure")
	ErrEmptyIndex        = errors.New("cannot build an empty index")
	ErrIndexNotFound     = errors.New("no index found for tenant")
	ErrGenerationService = errors.New("generation service failure")
)
