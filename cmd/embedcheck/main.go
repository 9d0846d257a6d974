package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/paperstack/doclibrary/internal/indexer"
	"github.com/paperstack/doclibrary/internal/storage"
)

// MockEmbedder provides a simple test embedder
type MockEmbedder struct {
	dimension int
}

func NewMockEmbedder(dimension int) *MockEmbedder {
	return &MockEmbedder{dimension: dimension}
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i := range texts {
		vector := make([]float32, m.dimension)
		for j := range vector {
			vector[j] = 0.1 * float32(j)
		}
		vectors[i] = vector
	}
	return vectors, nil
}

func (m *MockEmbedder) Healthy(ctx context.Context) bool { return true }
func (m *MockEmbedder) Dimension() int                   { return m.dimension }
func (m *MockEmbedder) Provider() string                 { return "mock" }
func (m *MockEmbedder) Model() string                    { return "mock-v1" }
func (m *MockEmbedder) Close() error                     { return nil }

func main() {
	fmt.Println("Testing embedding integration...")

	// Create temp extraction directory for test
	tmpDir, err := os.MkdirTemp("", "doclibrary-test-*")
	if err != nil {
		log.Fatalf("Failed to create temp dir: %v", err)
	}
	defer os.RemoveAll(tmpDir)

	if err := writeTestExtraction(tmpDir, "sample-doc"); err != nil {
		log.Fatalf("Failed to write test extraction: %v", err)
	}

	// Create in-memory storage
	store, err := storage.NewSQLiteStorage(":memory:")
	if err != nil {
		log.Fatalf("Failed to create storage: %v", err)
	}
	defer store.Close()

	// Create mock embedder
	mockEmb := NewMockEmbedder(1024)

	idx, err := indexer.New(store, mockEmb, indexer.Config{
		DataDir:      tmpDir,
		ChunkSize:    200,
		ChunkOverlap: 40,
	})
	if err != nil {
		log.Fatalf("Failed to create indexer: %v", err)
	}

	ctx := context.Background()
	stats, err := idx.IngestDocument(ctx, "sample-doc", indexer.IngestOptions{
		EmbedContent: true,
	})
	if err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}

	// Print statistics
	fmt.Printf("\nIngest Statistics:\n")
	fmt.Printf("  Run ID: %s\n", stats.RunID)
	fmt.Printf("  Pages: %d\n", stats.Pages)
	fmt.Printf("  Chunks: %d\n", stats.Chunks)
	fmt.Printf("  Elements: %d\n", stats.Elements)
	fmt.Printf("  Embedded Chunks: %d\n", stats.EmbeddedChunks)
	fmt.Printf("  Embedded Elements: %d\n", stats.EmbeddedElements)
	fmt.Printf("  Duration: %v\n", stats.Duration)

	if len(stats.Warnings) > 0 {
		fmt.Printf("\nWarnings:\n")
		for _, msg := range stats.Warnings {
			fmt.Printf("  - %s\n", msg)
		}
	}

	// Verify embeddings were stored and are queryable
	status, err := store.Status(ctx)
	if err != nil {
		log.Fatalf("Failed to get library status: %v", err)
	}

	query, err := mockEmb.Embed(ctx, []string{"spectral analysis"})
	if err != nil {
		log.Fatalf("Failed to embed query: %v", err)
	}
	results, err := store.QueryVector(ctx, query[0], 5, storage.PoolChunks, nil)
	if err != nil {
		log.Fatalf("Failed to run vector query: %v", err)
	}

	fmt.Printf("\nVerification:\n")
	fmt.Printf("  Embedded chunks in DB: %d\n", status.EmbeddedChunks)
	fmt.Printf("  Vector query results: %d\n", len(results))

	if status.EmbeddedChunks > 0 && len(results) > 0 {
		fmt.Println("\n✓ SUCCESS: Embeddings were generated, stored, and queried!")
	} else {
		fmt.Println("\n✗ FAILURE: Embedding pipeline did not produce queryable vectors!")
		os.Exit(1)
	}
}

// writeTestExtraction lays out a minimal extraction directory
func writeTestExtraction(dataDir, slug string) error {
	docDir := filepath.Join(dataDir, slug)
	if err := os.MkdirAll(filepath.Join(docDir, "pages"), 0o755); err != nil {
		return err
	}

	doc := map[string]string{
		"source_file": slug + ".pdf",
		"model":       "mock-extract",
		"summary":     "Sample document for embedding pipeline verification.",
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(docDir, "document.json"), data, 0o644); err != nil {
		return err
	}

	page := map[string]interface{}{
		"page_number": 1,
		"text": "Spectral analysis decomposes a signal into frequency components. " +
			"The Fourier transform maps time-domain samples into the frequency domain, " +
			"revealing periodic structure that is invisible in the raw waveform.",
		"elements": []map[string]interface{}{
			{
				"type":        "figure",
				"label":       "Figure 1",
				"description": "Power spectrum of the sampled signal",
				"search_text": "power spectrum frequency components",
			},
		},
	}
	data, err = json.Marshal(page)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(docDir, "pages", "page_001.json"), data, 0o644)
}
