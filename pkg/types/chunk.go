package types

import "errors"

// Default chunking parameters. Sizes are in characters; the embedding
// model sees roughly size/4 tokens.
const (
	DefaultChunkSize = 800
	DefaultOverlap   = 200
)

// Chunk represents an overlapping passage of page text prepared for
// embedding and retrieval.
type Chunk struct {
	// Identification
	ID         int64
	DocumentID int64
	PageID     int64

	// Content
	Content string

	// Position
	ChunkIndex int // Sequential within an ingestion run, starting at 0
	StartChar  int // Offset into the source page text
	EndChar    int

	// PageNumber is set when chunking multi-page input
	PageNumber int
}

// Validate checks chunk content and position invariants
func (c *Chunk) Validate() error {
	if c.Content == "" {
		return ErrEmptyContent
	}

	if c.StartChar < 0 || c.EndChar <= c.StartChar {
		return errors.New("chunk offsets must satisfy 0 <= start < end")
	}

	if c.ChunkIndex < 0 {
		return errors.New("chunk index must be non-negative")
	}

	return nil
}

// EstimateTokens returns a rough token count for the chunk content (chars/4)
func (c *Chunk) EstimateTokens() int {
	return len(c.Content) / 4
}

// Page is a single page of extracted document text with optional images
// produced by the extraction pipeline.
type Page struct {
	PageNumber         int
	Text               string
	ImagePath          string
	AnnotatedImagePath string
}
