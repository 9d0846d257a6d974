package types

// SourceType identifies which content pool a search result came from
type SourceType string

const (
	SourceChunk   SourceType = "chunk"
	SourceElement SourceType = "element"
)

// SearchResult represents a single search hit in the unified distance
// space (lower score = better match). Results are constructed fresh per
// search call and never persisted.
type SearchResult struct {
	// Identification. ID is unique within its SourceType namespace.
	ID         int64
	SourceType SourceType

	// Score is a normalized distance, lower is better. Vector results
	// carry the index distance directly; lexical ranks are inverted
	// into the same space before merging.
	Score float64

	// Content is the chunk text or the element search text
	Content string

	// Document and page linkage
	DocumentSlug  string
	DocumentTitle string
	PageNumber    int

	// Element-only fields, set iff SourceType == SourceElement
	ElementType  ElementType
	ElementLabel string
	CropPath     string
	RenderedPath string

	// Chunk-only field, set iff SourceType == SourceChunk
	ChunkIndex int
}

// Key returns the dedup key for merge-by-best-score
func (r *SearchResult) Key() ResultKey {
	return ResultKey{SourceType: r.SourceType, ID: r.ID}
}

// ResultKey identifies a result across query variants and backends
type ResultKey struct {
	SourceType SourceType
	ID         int64
}

// Validate checks result invariants
func (r *SearchResult) Validate() error {
	if r.ID == 0 {
		return ErrInvalidResultID
	}

	if r.SourceType != SourceChunk && r.SourceType != SourceElement {
		return ErrInvalidSourceType
	}

	if r.Content == "" {
		return ErrEmptyContent
	}

	if r.SourceType == SourceElement && !r.ElementType.Valid() {
		return ErrInvalidSourceType
	}

	return nil
}

// Document holds metadata for an ingested document
type Document struct {
	ID             int64
	Slug           string
	Title          string
	SourceFile     string
	ExtractionDate string
	Model          string
	Summary        string
	Keywords       string
	License        string
	PageCount      int
	ChunkCount     int
	ElementCount   int
}
