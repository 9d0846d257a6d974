package storage

import (
	"context"
	"time"

	"github.com/paperstack/doclibrary/pkg/types"
)

// ContentPool selects which corpus an index query runs against
type ContentPool string

const (
	PoolChunks   ContentPool = "chunk"
	PoolElements ContentPool = "element"
)

// Storage defines the interface for persisting and querying the document
// library: documents, pages, text chunks, and visual elements, plus the
// vector and lexical index queries consumed by the searcher.
type Storage interface {
	// Document operations
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocumentBySlug(ctx context.Context, slug string) (*Document, error)
	GetDocumentBySourceFile(ctx context.Context, sourceFile string) (*Document, error)
	ListDocuments(ctx context.Context) ([]*Document, error)
	DeleteDocument(ctx context.Context, documentID int64) error

	// Page operations
	InsertPage(ctx context.Context, page *Page) error
	GetPage(ctx context.Context, documentID int64, pageNumber int) (*Page, error)
	ListPages(ctx context.Context, documentID int64) ([]*Page, error)

	// Chunk operations
	InsertChunk(ctx context.Context, chunk *Chunk) error
	GetChunk(ctx context.Context, chunkID int64) (*Chunk, error)
	// GetChunkContext returns a chunk and up to radius neighbors on each
	// side from the same page, ordered by chunk index
	GetChunkContext(ctx context.Context, chunkID int64, radius int) ([]*Chunk, error)

	// Element operations
	InsertElement(ctx context.Context, element *Element) error
	GetElement(ctx context.Context, elementID int64) (*Element, error)
	ListElements(ctx context.Context, documentSlug string, elementType types.ElementType) ([]*Element, error)

	// Index queries. QueryVector returns results ordered by ascending
	// cosine distance (lower is better). QueryLexical returns results
	// ordered by descending relevance rank (higher is better).
	QueryVector(ctx context.Context, embedding []float32, limit int, pool ContentPool, filters *Filters) ([]types.SearchResult, error)
	QueryLexical(ctx context.Context, query string, limit int, pool ContentPool, filters *Filters) ([]LexicalResult, error)

	// Status operations
	Status(ctx context.Context) (*LibraryStatus, error)

	// Database operations
	Close() error
}

// Document is the storage row for an ingested document
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
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Page is the storage row for one extracted document page
type Page struct {
	ID                 int64
	DocumentID         int64
	PageNumber         int
	Text               string
	ImagePath          string
	AnnotatedImagePath string
	CreatedAt          time.Time
}

// Chunk is the storage row for one text passage. Embedding is the
// serialized float32 vector, nil when ingested without embeddings.
type Chunk struct {
	ID         int64
	DocumentID int64
	PageID     int64
	Content    string
	ChunkIndex int
	StartChar  int
	EndChar    int
	Embedding  []byte
	CreatedAt  time.Time
}

// Element is the storage row for a visual element
type Element struct {
	ID           int64
	DocumentID   int64
	PageID       int64
	ElementType  string
	Label        string
	Description  string
	SearchText   string
	CropPath     string
	RenderedPath string
	BBox         [4]int
	Embedding    []byte
	CreatedAt    time.Time
}

// Filters narrows index queries to a document and, for elements, a type
type Filters struct {
	DocumentSlug string
	ElementType  types.ElementType
}

// LexicalResult pairs a populated search result with its raw relevance
// rank. Rank is in [0, 1), higher is better; the searcher converts it
// into the unified distance space before merging.
type LexicalResult struct {
	Result types.SearchResult
	Rank   float64
}

// LibraryStatus contains statistics about the indexed library
type LibraryStatus struct {
	DocumentCount  int
	PageCount      int
	ChunkCount     int
	ElementCount   int
	EmbeddedChunks int
	IndexSizeMB    float64
	Health         HealthStatus
}

// HealthStatus represents the health of the index
type HealthStatus struct {
	DatabaseAccessible bool
	FTSIndexesBuilt    bool
}

// ToTypesDocument converts a storage Document to the shared domain type
func (d *Document) ToTypesDocument() types.Document {
	return types.Document{
		ID:             d.ID,
		Slug:           d.Slug,
		Title:          d.Title,
		SourceFile:     d.SourceFile,
		ExtractionDate: d.ExtractionDate,
		Model:          d.Model,
		Summary:        d.Summary,
		Keywords:       d.Keywords,
		License:        d.License,
	}
}
