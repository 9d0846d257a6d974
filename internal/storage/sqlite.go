package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/paperstack/doclibrary/pkg/types"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
)

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Apply migrations
	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// Document operations

// CreateDocument inserts a new document row
func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *Document) error {
	now := time.Now()
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (slug, title, source_file, extraction_date, model,
			summary, keywords, license, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, doc.Slug, doc.Title, doc.SourceFile, doc.ExtractionDate, doc.Model,
		doc.Summary, doc.Keywords, doc.License, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("document %s: %w", doc.Slug, ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create document: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	doc.ID = id
	doc.CreatedAt = now
	doc.UpdatedAt = now
	return nil
}

// GetDocumentBySlug retrieves a document by its slug
func (s *SQLiteStorage) GetDocumentBySlug(ctx context.Context, slug string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, slug, title, source_file, extraction_date, model,
			summary, keywords, license, created_at, updated_at
		FROM documents WHERE slug = ?
	`, slug)
	return scanDocument(row)
}

// GetDocumentBySourceFile retrieves a document by its source file name.
// Used to detect the same PDF ingested under a different slug.
func (s *SQLiteStorage) GetDocumentBySourceFile(ctx context.Context, sourceFile string) (*Document, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, slug, title, source_file, extraction_date, model,
			summary, keywords, license, created_at, updated_at
		FROM documents WHERE source_file = ?
	`, sourceFile)
	return scanDocument(row)
}

// ListDocuments returns all documents ordered by slug
func (s *SQLiteStorage) ListDocuments(ctx context.Context) ([]*Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, slug, title, source_file, extraction_date, model,
			summary, keywords, license, created_at, updated_at
		FROM documents ORDER BY slug
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocumentRows(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}

	return docs, rows.Err()
}

// DeleteDocument removes a document and all its pages, chunks, and
// elements. Chunks and elements are removed from the FTS mirrors first
// since virtual tables do not participate in foreign-key cascades.
func (s *SQLiteStorage) DeleteDocument(ctx context.Context, documentID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM chunks_fts WHERE chunk_id IN
			(SELECT id FROM chunks WHERE document_id = ?)
	`, documentID); err != nil {
		return fmt.Errorf("failed to delete chunk FTS rows: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM elements_fts WHERE element_id IN
			(SELECT id FROM elements WHERE document_id = ?)
	`, documentID); err != nil {
		return fmt.Errorf("failed to delete element FTS rows: %w", err)
	}

	result, err := tx.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	return tx.Commit()
}

// Page operations

// InsertPage inserts a page row
func (s *SQLiteStorage) InsertPage(ctx context.Context, page *Page) error {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO pages (document_id, page_number, text, image_path, annotated_image_path)
		VALUES (?, ?, ?, ?, ?)
	`, page.DocumentID, page.PageNumber, page.Text, page.ImagePath, page.AnnotatedImagePath)
	if err != nil {
		return fmt.Errorf("failed to insert page: %w", err)
	}

	page.ID, err = result.LastInsertId()
	return err
}

// GetPage retrieves a page by document and page number
func (s *SQLiteStorage) GetPage(ctx context.Context, documentID int64, pageNumber int) (*Page, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, page_number, text, image_path, annotated_image_path, created_at
		FROM pages WHERE document_id = ? AND page_number = ?
	`, documentID, pageNumber)

	var page Page
	err := row.Scan(&page.ID, &page.DocumentID, &page.PageNumber, &page.Text,
		&page.ImagePath, &page.AnnotatedImagePath, &page.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// ListPages returns all pages of a document ordered by page number
func (s *SQLiteStorage) ListPages(ctx context.Context, documentID int64) ([]*Page, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, page_number, text, image_path, annotated_image_path, created_at
		FROM pages WHERE document_id = ? ORDER BY page_number
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var pages []*Page
	for rows.Next() {
		var page Page
		if err := rows.Scan(&page.ID, &page.DocumentID, &page.PageNumber, &page.Text,
			&page.ImagePath, &page.AnnotatedImagePath, &page.CreatedAt); err != nil {
			return nil, err
		}
		pages = append(pages, &page)
	}

	return pages, rows.Err()
}

// Chunk operations

// InsertChunk inserts a chunk row and its FTS mirror in one transaction
func (s *SQLiteStorage) InsertChunk(ctx context.Context, chunk *Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO chunks (document_id, page_id, content, chunk_index, start_char, end_char, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, chunk.DocumentID, chunk.PageID, chunk.Content, chunk.ChunkIndex,
		chunk.StartChar, chunk.EndChar, chunk.Embedding)
	if err != nil {
		return fmt.Errorf("failed to insert chunk: %w", err)
	}

	chunk.ID, err = result.LastInsertId()
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO chunks_fts (content, chunk_id) VALUES (?, ?)",
		chunk.Content, chunk.ID); err != nil {
		return fmt.Errorf("failed to index chunk for FTS: %w", err)
	}

	return tx.Commit()
}

// GetChunk retrieves a chunk by ID
func (s *SQLiteStorage) GetChunk(ctx context.Context, chunkID int64) (*Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, page_id, content, chunk_index, start_char, end_char, embedding, created_at
		FROM chunks WHERE id = ?
	`, chunkID)

	var chunk Chunk
	err := row.Scan(&chunk.ID, &chunk.DocumentID, &chunk.PageID, &chunk.Content,
		&chunk.ChunkIndex, &chunk.StartChar, &chunk.EndChar, &chunk.Embedding, &chunk.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &chunk, nil
}

// GetChunkContext returns a chunk and its surrounding neighbors from the
// same page, ordered by chunk index
func (s *SQLiteStorage) GetChunkContext(ctx context.Context, chunkID int64, radius int) ([]*Chunk, error) {
	center, err := s.GetChunk(ctx, chunkID)
	if err != nil {
		return nil, err
	}

	lo := center.ChunkIndex - radius
	if lo < 0 {
		lo = 0
	}
	hi := center.ChunkIndex + radius

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, page_id, content, chunk_index, start_char, end_char, embedding, created_at
		FROM chunks
		WHERE page_id = ? AND chunk_index BETWEEN ? AND ?
		ORDER BY chunk_index
	`, center.PageID, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("failed to query chunk context: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var chunks []*Chunk
	for rows.Next() {
		var chunk Chunk
		if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.PageID, &chunk.Content,
			&chunk.ChunkIndex, &chunk.StartChar, &chunk.EndChar, &chunk.Embedding, &chunk.CreatedAt); err != nil {
			return nil, err
		}
		chunks = append(chunks, &chunk)
	}

	return chunks, rows.Err()
}

// Element operations

// InsertElement inserts an element row and its FTS mirror
func (s *SQLiteStorage) InsertElement(ctx context.Context, element *Element) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	result, err := tx.ExecContext(ctx, `
		INSERT INTO elements (document_id, page_id, element_type, label, description,
			search_text, crop_path, rendered_path, bbox_x0, bbox_y0, bbox_x1, bbox_y1, embedding)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, element.DocumentID, element.PageID, element.ElementType, element.Label,
		element.Description, element.SearchText, element.CropPath, element.RenderedPath,
		element.BBox[0], element.BBox[1], element.BBox[2], element.BBox[3], element.Embedding)
	if err != nil {
		return fmt.Errorf("failed to insert element: %w", err)
	}

	element.ID, err = result.LastInsertId()
	if err != nil {
		return err
	}

	indexText := element.SearchText
	if indexText == "" {
		indexText = element.Description
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO elements_fts (search_text, element_id) VALUES (?, ?)",
		indexText, element.ID); err != nil {
		return fmt.Errorf("failed to index element for FTS: %w", err)
	}

	return tx.Commit()
}

// GetElement retrieves an element by ID
func (s *SQLiteStorage) GetElement(ctx context.Context, elementID int64) (*Element, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document_id, page_id, element_type, label, description, search_text,
			crop_path, rendered_path, bbox_x0, bbox_y0, bbox_x1, bbox_y1, embedding, created_at
		FROM elements WHERE id = ?
	`, elementID)

	var el Element
	err := row.Scan(&el.ID, &el.DocumentID, &el.PageID, &el.ElementType, &el.Label,
		&el.Description, &el.SearchText, &el.CropPath, &el.RenderedPath,
		&el.BBox[0], &el.BBox[1], &el.BBox[2], &el.BBox[3], &el.Embedding, &el.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &el, nil
}

// ListElements returns elements, optionally filtered by document slug
// and element type, ordered by document, page, and label
func (s *SQLiteStorage) ListElements(ctx context.Context, documentSlug string, elementType types.ElementType) ([]*Element, error) {
	query := `
		SELECT e.id, e.document_id, e.page_id, e.element_type, e.label, e.description,
			e.search_text, e.crop_path, e.rendered_path,
			e.bbox_x0, e.bbox_y0, e.bbox_x1, e.bbox_y1, e.embedding, e.created_at
		FROM elements e
		JOIN documents d ON e.document_id = d.id
		JOIN pages p ON e.page_id = p.id
		WHERE 1=1
	`
	var args []interface{}

	if documentSlug != "" {
		query += " AND d.slug = ?"
		args = append(args, documentSlug)
	}
	if elementType != "" {
		query += " AND e.element_type = ?"
		args = append(args, string(elementType))
	}
	query += " ORDER BY d.slug, p.page_number, e.label"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list elements: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var elements []*Element
	for rows.Next() {
		var el Element
		if err := rows.Scan(&el.ID, &el.DocumentID, &el.PageID, &el.ElementType, &el.Label,
			&el.Description, &el.SearchText, &el.CropPath, &el.RenderedPath,
			&el.BBox[0], &el.BBox[1], &el.BBox[2], &el.BBox[3], &el.Embedding, &el.CreatedAt); err != nil {
			return nil, err
		}
		elements = append(elements, &el)
	}

	return elements, rows.Err()
}

// Status returns library statistics and index health
func (s *SQLiteStorage) Status(ctx context.Context) (*LibraryStatus, error) {
	status := &LibraryStatus{}

	counts := []struct {
		query string
		dest  *int
	}{
		{"SELECT COUNT(*) FROM documents", &status.DocumentCount},
		{"SELECT COUNT(*) FROM pages", &status.PageCount},
		{"SELECT COUNT(*) FROM chunks", &status.ChunkCount},
		{"SELECT COUNT(*) FROM elements", &status.ElementCount},
		{"SELECT COUNT(*) FROM chunks WHERE embedding IS NOT NULL", &status.EmbeddedChunks},
	}

	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count: %w", err)
		}
	}
	status.Health.DatabaseAccessible = true

	var ftsCount int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks_fts").Scan(&ftsCount); err == nil {
		status.Health.FTSIndexesBuilt = ftsCount == status.ChunkCount
	}

	var pageCount, pageSize int64
	if err := s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		if err := s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize); err == nil {
			status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
		}
	}

	return status, nil
}

// Helpers

func scanDocument(row *sql.Row) (*Document, error) {
	var doc Document
	err := row.Scan(&doc.ID, &doc.Slug, &doc.Title, &doc.SourceFile, &doc.ExtractionDate,
		&doc.Model, &doc.Summary, &doc.Keywords, &doc.License, &doc.CreatedAt, &doc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func scanDocumentRows(rows *sql.Rows) (*Document, error) {
	var doc Document
	err := rows.Scan(&doc.ID, &doc.Slug, &doc.Title, &doc.SourceFile, &doc.ExtractionDate,
		&doc.Model, &doc.Summary, &doc.Keywords, &doc.License, &doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// Matched by message so both the cgo and purego drivers are covered.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "constraint failed: UNIQUE")
}
