package indexer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/paperstack/doclibrary/internal/chunker"
	"github.com/paperstack/doclibrary/internal/embedder"
	"github.com/paperstack/doclibrary/internal/storage"
	"github.com/paperstack/doclibrary/pkg/types"
)

const (
	// DefaultEmbedBatchSize bounds one embedding request to avoid
	// timeouts on long documents
	DefaultEmbedBatchSize = 32

	// DefaultEmbedWorkers is the number of concurrent embedding batches
	DefaultEmbedWorkers = 2
)

// Config contains configuration for the indexer
type Config struct {
	DataDir        string
	ChunkSize      int
	ChunkOverlap   int
	EmbedBatchSize int
	EmbedWorkers   int
}

// IngestOptions control how a single document ingest behaves
type IngestOptions struct {
	// SkipExisting treats an already-ingested document as success
	SkipExisting bool

	// DeleteFirst replaces an already-ingested document
	DeleteFirst bool

	// EmbedContent generates embeddings during ingest. Automatically
	// disabled with a warning when the embedding server is down.
	EmbedContent bool

	// DryRun counts pages, chunks, and elements without writing
	DryRun bool
}

// Statistics summarizes one ingest run
type Statistics struct {
	RunID            string
	Slug             string
	Title            string
	Pages            int
	Chunks           int
	Elements         int
	EmbeddedChunks   int
	EmbeddedElements int
	Skipped          bool
	DryRun           bool
	Duration         time.Duration
	Warnings         []string
}

// Indexer coordinates the ingest pipeline: load extraction JSON,
// chunk page text, embed, and store
type Indexer struct {
	chunker  *chunker.Chunker
	embedder embedder.Embedder
	storage  storage.Storage
	config   Config
	lock     IndexLock
}

// New creates a new Indexer instance
func New(store storage.Storage, emb embedder.Embedder, config Config) (*Indexer, error) {
	if config.ChunkSize <= 0 {
		config.ChunkSize = types.DefaultChunkSize
	}
	if config.ChunkOverlap <= 0 {
		config.ChunkOverlap = types.DefaultOverlap
	}
	if config.EmbedBatchSize <= 0 {
		config.EmbedBatchSize = DefaultEmbedBatchSize
	}
	if config.EmbedWorkers <= 0 {
		config.EmbedWorkers = DefaultEmbedWorkers
	}

	ch, err := chunker.New(config.ChunkSize, config.ChunkOverlap)
	if err != nil {
		return nil, fmt.Errorf("invalid chunking config: %w", err)
	}

	return &Indexer{
		chunker:  ch,
		embedder: emb,
		storage:  store,
		config:   config,
	}, nil
}

// IngestDocument ingests one extraction directory under DataDir,
// identified by its slug (the directory name)
func (idx *Indexer) IngestDocument(ctx context.Context, slug string, opts IngestOptions) (*Statistics, error) {
	if !idx.lock.TryAcquire() {
		return nil, fmt.Errorf("another ingest is already in progress")
	}
	defer idx.lock.Release()

	startTime := time.Now()
	stats := &Statistics{
		RunID:  uuid.NewString(),
		Slug:   slug,
		DryRun: opts.DryRun,
	}

	extraction, err := LoadExtraction(filepath.Join(idx.config.DataDir, slug))
	if err != nil {
		return nil, fmt.Errorf("failed to load extraction for %s: %w", slug, err)
	}

	sourceFile := extraction.SourceFile
	if sourceFile == "" {
		sourceFile = slug + ".pdf"
	}

	skip, err := idx.resolveExisting(ctx, slug, sourceFile, opts, stats)
	if err != nil {
		return nil, err
	}
	if skip {
		stats.Skipped = true
		stats.Duration = time.Since(startTime)
		return stats, nil
	}

	stats.Title = TitleFromSlug(slug)
	stats.Pages = len(extraction.Pages)

	if opts.DryRun {
		idx.countDryRun(extraction, stats)
		stats.Duration = time.Since(startTime)
		return stats, nil
	}

	embedContent := opts.EmbedContent
	if embedContent && !idx.embedder.Healthy(ctx) {
		warning := "embedding server not available, ingesting without embeddings"
		stats.Warnings = append(stats.Warnings, warning)
		log.Printf("ingest %s (%s): %s", slug, stats.RunID, warning)
		embedContent = false
	}

	doc := &storage.Document{
		Slug:           slug,
		Title:          stats.Title,
		SourceFile:     sourceFile,
		ExtractionDate: extraction.ExtractionDate,
		Model:          extraction.Model,
		Summary:        extraction.Summary,
		Keywords:       extraction.Keywords,
		License:        extraction.License,
	}
	if err := idx.storage.CreateDocument(ctx, doc); err != nil {
		return nil, fmt.Errorf("failed to create document %s: %w", slug, err)
	}

	for _, page := range extraction.Pages {
		if err := idx.ingestPage(ctx, doc, page, embedContent, stats); err != nil {
			return nil, fmt.Errorf("failed to ingest page %d of %s: %w", page.PageNumber, slug, err)
		}
	}

	stats.Duration = time.Since(startTime)
	log.Printf("ingested %s (%s): %d pages, %d chunks, %d elements in %s",
		slug, stats.RunID, stats.Pages, stats.Chunks, stats.Elements, stats.Duration.Round(time.Millisecond))
	return stats, nil
}

// IngestAll ingests every extraction directory under DataDir. Failures
// on individual documents are collected as warnings; the run continues.
func (idx *Indexer) IngestAll(ctx context.Context, opts IngestOptions) ([]*Statistics, error) {
	slugs, err := DiscoverDocuments(idx.config.DataDir)
	if err != nil {
		return nil, err
	}

	var all []*Statistics
	for _, slug := range slugs {
		stats, err := idx.IngestDocument(ctx, slug, opts)
		if err != nil {
			if ctx.Err() != nil {
				return all, ctx.Err()
			}
			log.Printf("ingest %s failed: %v", slug, err)
			all = append(all, &Statistics{
				Slug:     slug,
				Warnings: []string{err.Error()},
			})
			continue
		}
		all = append(all, stats)
	}

	return all, nil
}

// resolveExisting applies the skip/replace policy against documents
// already in the library, matching by slug and by source file
func (idx *Indexer) resolveExisting(ctx context.Context, slug, sourceFile string, opts IngestOptions, stats *Statistics) (bool, error) {
	for _, lookup := range []func() (*storage.Document, error){
		func() (*storage.Document, error) { return idx.storage.GetDocumentBySlug(ctx, slug) },
		func() (*storage.Document, error) { return idx.storage.GetDocumentBySourceFile(ctx, sourceFile) },
	} {
		existing, err := lookup()
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return false, err
		}

		switch {
		case opts.SkipExisting:
			return true, nil
		case opts.DeleteFirst:
			if opts.DryRun {
				return false, nil
			}
			if err := idx.storage.DeleteDocument(ctx, existing.ID); err != nil {
				return false, fmt.Errorf("failed to delete existing document %s: %w", existing.Slug, err)
			}
		default:
			return false, fmt.Errorf("document already exists as %q (id=%d): use delete-first or skip-existing", existing.Slug, existing.ID)
		}
	}

	return false, nil
}

// countDryRun fills statistics without touching storage
func (idx *Indexer) countDryRun(extraction *ExtractionDocument, stats *Statistics) {
	for _, page := range extraction.Pages {
		text := chunker.CleanText(page.Text)
		stats.Chunks += len(idx.chunker.ChunkText(text))
		stats.Elements += len(page.Elements)
	}
}

// ingestPage stores one page with its chunks and elements
func (idx *Indexer) ingestPage(ctx context.Context, doc *storage.Document, page ExtractionPage, embedContent bool, stats *Statistics) error {
	pageRow := &storage.Page{
		DocumentID:         doc.ID,
		PageNumber:         page.PageNumber,
		Text:               page.Text,
		ImagePath:          page.Image,
		AnnotatedImagePath: page.AnnotatedImage,
	}
	if err := idx.storage.InsertPage(ctx, pageRow); err != nil {
		return err
	}

	text := chunker.CleanText(page.Text)
	chunks := idx.chunker.ChunkText(text)

	var embeddings [][]float32
	if embedContent && len(chunks) > 0 {
		contents := make([]string, len(chunks))
		for i, c := range chunks {
			contents[i] = c.Content
		}
		var err error
		embeddings, err = idx.embedBatched(ctx, contents)
		if err != nil {
			warning := fmt.Sprintf("page %d: chunk embedding failed: %v", page.PageNumber, err)
			stats.Warnings = append(stats.Warnings, warning)
			log.Printf("ingest %s: %s", doc.Slug, warning)
			embeddings = nil
		}
	}

	for i, chunk := range chunks {
		row := &storage.Chunk{
			DocumentID: doc.ID,
			PageID:     pageRow.ID,
			Content:    chunk.Content,
			ChunkIndex: chunk.ChunkIndex,
			StartChar:  chunk.StartChar,
			EndChar:    chunk.EndChar,
		}
		if embeddings != nil && i < len(embeddings) {
			row.Embedding = storage.SerializeEmbedding(embeddings[i])
			stats.EmbeddedChunks++
		}
		if err := idx.storage.InsertChunk(ctx, row); err != nil {
			return err
		}
		stats.Chunks++
	}

	for _, element := range page.Elements {
		if err := idx.ingestElement(ctx, doc, pageRow, element, embedContent, stats); err != nil {
			return err
		}
	}

	return nil
}

// ingestElement stores one visual element, embedding its search text
func (idx *Indexer) ingestElement(ctx context.Context, doc *storage.Document, page *storage.Page, element ExtractionElement, embedContent bool, stats *Statistics) error {
	searchText := element.SearchText
	if searchText == "" {
		searchText = element.Description
	}

	row := &storage.Element{
		DocumentID:   doc.ID,
		PageID:       page.ID,
		ElementType:  element.Type,
		Label:        element.Label,
		Description:  element.Description,
		SearchText:   element.SearchText,
		CropPath:     element.CropPath,
		RenderedPath: element.RenderedPath,
	}
	if len(element.BBoxPixels) == 4 {
		copy(row.BBox[:], element.BBoxPixels)
	}

	if embedContent && searchText != "" {
		embeddings, err := idx.embedder.Embed(ctx, []string{searchText})
		if err != nil {
			warning := fmt.Sprintf("element %s on page %d: embedding failed: %v", element.Label, page.PageNumber, err)
			stats.Warnings = append(stats.Warnings, warning)
			log.Printf("ingest %s: %s", doc.Slug, warning)
		} else {
			row.Embedding = storage.SerializeEmbedding(embeddings[0])
			stats.EmbeddedElements++
		}
	}

	if err := idx.storage.InsertElement(ctx, row); err != nil {
		return err
	}
	stats.Elements++
	return nil
}

// embedBatched splits texts into batches and embeds them concurrently,
// preserving input order in the result
func (idx *Indexer) embedBatched(ctx context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(idx.config.EmbedWorkers)
	var mu sync.Mutex

	for start := 0; start < len(texts); start += idx.config.EmbedBatchSize {
		end := start + idx.config.EmbedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		g.Go(func() error {
			batch, err := idx.embedder.Embed(gctx, texts[start:end])
			if err != nil {
				return err
			}
			mu.Lock()
			copy(results[start:end], batch)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
