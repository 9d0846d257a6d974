// Package storage provides SQLite-based persistence for the document library.
//
// The storage layer manages:
//   - Document metadata (slug, title, extraction provenance)
//   - Page text and image paths
//   - Text chunks with inline vector embeddings
//   - Visual elements (figures, tables, equations, charts, diagrams)
//   - Full-text search indexes over chunks and elements
//
// # Database Schema
//
// Tables:
//   - documents: Document metadata, unique by slug
//   - pages: Page text and renders, unique per (document, page number)
//   - chunks: Overlapping text chunks with embedding BLOBs
//   - elements: Visual elements with descriptions and embedding BLOBs
//   - chunks_fts: FTS5 full-text index over chunk content
//   - elements_fts: FTS5 full-text index over element search text
//
// Embeddings are stored inline on the chunk and element rows as
// little-endian float32 BLOBs. A NULL embedding marks content that was
// ingested while the embedding server was unavailable.
//
// # Basic Usage
//
//	db, err := storage.NewSQLiteStorage("~/.doclibrary/library.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
//	doc := &storage.Document{Slug: "smith-2024-attention", Title: "Attention Revisited"}
//	if err := db.CreateDocument(ctx, doc); err != nil {
//	    return err
//	}
//
// # Index Queries
//
// QueryVector scans a content pool for the nearest neighbors of a query
// embedding, ordered by ascending cosine distance:
//
//	results, err := db.QueryVector(ctx, embedding, 50, storage.PoolChunks, nil)
//
// QueryLexical runs an FTS5 BM25 search, ordered by descending rank:
//
//	hits, err := db.QueryLexical(ctx, "transformer attention", 50, storage.PoolChunks, nil)
//
// Both accept optional Filters to restrict by document slug or element
// type.
//
// # Build Tags
//
// The storage package supports two build configurations:
//
// CGO Build (cgo_sqlite tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//   - Requires C compiler
//
//     CGO_ENABLED=1 go build -tags "cgo_sqlite,fts5"
//
// Pure Go Build (purego tag):
//
//   - Uses modernc.org/sqlite driver
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build -tags "purego"
//
// Vector search is a brute-force cosine scan in Go in both modes; the
// pure Go build is the default for development.
package storage
