package types

import "errors"

// Domain errors shared across components
var (
	// ErrEmbeddingUnavailable means the embedding service is unreachable or
	// unhealthy. Fatal to the current search call; no meaningful ranking is
	// possible without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrInvalidChunkParams is returned before chunking begins when
	// chunkSize <= 0 or overlap is outside [0, chunkSize)
	ErrInvalidChunkParams = errors.New("invalid chunk parameters")

	// Search result errors
	ErrInvalidResultID   = errors.New("invalid result ID")
	ErrInvalidSourceType = errors.New("invalid source type")
	ErrEmptyContent      = errors.New("content cannot be empty")
)
