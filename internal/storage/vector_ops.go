package storage

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/paperstack/doclibrary/pkg/types"
)

// serializeVector converts a float32 slice to bytes for storage
func serializeVector(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(v))
	}
	return buf
}

// deserializeVector converts stored bytes back to a float32 slice
func deserializeVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector data length: %d", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}

// cosineDistance computes 1 - cosine similarity between two vectors.
// Returns 1.0 (maximally distant) for mismatched or zero vectors.
func cosineDistance(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 1.0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1.0
	}
	return 1.0 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}

// scoredRow carries a result with its embedding distance during the scan
type scoredRow struct {
	result types.SearchResult
	dist   float64
}

// QueryVector scans the requested pool for the nearest neighbors of the
// query embedding. Results are ordered by ascending cosine distance.
//
// This is a brute-force scan: every stored embedding for the pool is
// deserialized and compared in Go, regardless of driver build. Fine for
// libraries of a few hundred documents; revisit if that grows.
func (s *SQLiteStorage) QueryVector(ctx context.Context, embedding []float32, limit int, pool ContentPool, filters *Filters) ([]types.SearchResult, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("empty query embedding")
	}
	if limit <= 0 {
		return []types.SearchResult{}, nil
	}

	switch pool {
	case PoolChunks:
		return s.queryVectorChunks(ctx, embedding, limit, filters)
	case PoolElements:
		return s.queryVectorElements(ctx, embedding, limit, filters)
	default:
		return nil, fmt.Errorf("unknown content pool: %s", pool)
	}
}

func (s *SQLiteStorage) queryVectorChunks(ctx context.Context, embedding []float32, limit int, filters *Filters) ([]types.SearchResult, error) {
	query := `
		SELECT c.id, c.content, c.chunk_index, c.embedding, p.page_number, d.slug, d.title
		FROM chunks c
		JOIN pages p ON c.page_id = p.id
		JOIN documents d ON c.document_id = d.id
		WHERE c.embedding IS NOT NULL
	`
	var args []interface{}
	if filters != nil && filters.DocumentSlug != "" {
		query += " AND d.slug = ?"
		args = append(args, filters.DocumentSlug)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan chunk embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var scored []scoredRow
	for rows.Next() {
		var (
			r     types.SearchResult
			embed []byte
		)
		if err := rows.Scan(&r.ID, &r.Content, &r.ChunkIndex, &embed,
			&r.PageNumber, &r.DocumentSlug, &r.DocumentTitle); err != nil {
			return nil, err
		}
		vec, err := deserializeVector(embed)
		if err != nil {
			continue
		}
		r.SourceType = types.SourceChunk
		dist := cosineDistance(embedding, vec)
		r.Score = dist
		scored = append(scored, scoredRow{result: r, dist: dist})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return topResults(scored, limit), nil
}

func (s *SQLiteStorage) queryVectorElements(ctx context.Context, embedding []float32, limit int, filters *Filters) ([]types.SearchResult, error) {
	query := `
		SELECT e.id, e.element_type, e.label, e.description, e.search_text,
			e.crop_path, e.rendered_path, e.embedding, p.page_number, d.slug, d.title
		FROM elements e
		JOIN pages p ON e.page_id = p.id
		JOIN documents d ON e.document_id = d.id
		WHERE e.embedding IS NOT NULL
	`
	var args []interface{}
	if filters != nil {
		if filters.DocumentSlug != "" {
			query += " AND d.slug = ?"
			args = append(args, filters.DocumentSlug)
		}
		if filters.ElementType != "" {
			query += " AND e.element_type = ?"
			args = append(args, string(filters.ElementType))
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to scan element embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var scored []scoredRow
	for rows.Next() {
		var (
			r           types.SearchResult
			elementType string
			description string
			searchText  string
			embed       []byte
		)
		if err := rows.Scan(&r.ID, &elementType, &r.ElementLabel, &description, &searchText,
			&r.CropPath, &r.RenderedPath, &embed, &r.PageNumber, &r.DocumentSlug, &r.DocumentTitle); err != nil {
			return nil, err
		}
		vec, err := deserializeVector(embed)
		if err != nil {
			continue
		}
		r.SourceType = types.SourceElement
		r.ElementType = types.ElementType(elementType)
		r.Content = searchText
		if r.Content == "" {
			r.Content = description
		}
		dist := cosineDistance(embedding, vec)
		r.Score = dist
		scored = append(scored, scoredRow{result: r, dist: dist})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return topResults(scored, limit), nil
}

// topResults sorts scored rows by ascending distance and truncates.
// Ties break on (source type, id) for stable ordering across runs.
func topResults(scored []scoredRow, limit int) []types.SearchResult {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].dist != scored[j].dist {
			return scored[i].dist < scored[j].dist
		}
		if scored[i].result.SourceType != scored[j].result.SourceType {
			return scored[i].result.SourceType < scored[j].result.SourceType
		}
		return scored[i].result.ID < scored[j].result.ID
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	results := make([]types.SearchResult, len(scored))
	for i, s := range scored {
		results[i] = s.result
	}
	return results
}

// ftsOperatorPattern matches FTS5 query operators that need escaping
var ftsOperatorPattern = regexp.MustCompile(`\b(AND|OR|NOT|NEAR)\b`)

// sanitizeFTSQuery makes user input safe for FTS5 MATCH. Operators are
// neutralized and each token is quoted, giving plain terms-must-match
// semantics instead of query-syntax interpretation.
func sanitizeFTSQuery(query string) string {
	cleaned := ftsOperatorPattern.ReplaceAllStringFunc(query, strings.ToLower)
	cleaned = strings.Map(func(r rune) rune {
		switch r {
		case '"', '*', '(', ')', ':', '^', '-':
			return ' '
		}
		return r
	}, cleaned)

	tokens := strings.Fields(cleaned)
	if len(tokens) == 0 {
		return ""
	}
	quoted := make([]string, len(tokens))
	for i, tok := range tokens {
		quoted[i] = `"` + tok + `"`
	}
	return strings.Join(quoted, " ")
}

// rankHalfPoint is the bm25 magnitude that maps to rank 0.5, which is
// where lexicalToDistance in the searcher reaches distance 0. Matches
// weaker than this keep a nonzero distance and stay subject to the
// relevance cutoff.
const rankHalfPoint = 2.0

// normalizeRank maps an FTS5 bm25 score to [0, 1), higher is better.
// bm25 scores from SQLite are negative and grow in magnitude with
// relevance, so the rank must increase with the magnitude.
func normalizeRank(bm25 float64) float64 {
	magnitude := math.Abs(bm25)
	return magnitude / (magnitude + rankHalfPoint)
}

// QueryLexical runs a full-text search over the requested pool.
// Results are ordered by descending rank (higher is better).
func (s *SQLiteStorage) QueryLexical(ctx context.Context, query string, limit int, pool ContentPool, filters *Filters) ([]LexicalResult, error) {
	sanitized := sanitizeFTSQuery(query)
	if sanitized == "" {
		return []LexicalResult{}, nil
	}
	if limit <= 0 {
		return []LexicalResult{}, nil
	}

	switch pool {
	case PoolChunks:
		return s.queryLexicalChunks(ctx, sanitized, limit, filters)
	case PoolElements:
		return s.queryLexicalElements(ctx, sanitized, limit, filters)
	default:
		return nil, fmt.Errorf("unknown content pool: %s", pool)
	}
}

func (s *SQLiteStorage) queryLexicalChunks(ctx context.Context, match string, limit int, filters *Filters) ([]LexicalResult, error) {
	query := `
		SELECT c.id, c.content, c.chunk_index, p.page_number, d.slug, d.title,
			bm25(chunks_fts) AS score
		FROM chunks_fts
		JOIN chunks c ON chunks_fts.chunk_id = c.id
		JOIN pages p ON c.page_id = p.id
		JOIN documents d ON c.document_id = d.id
		WHERE chunks_fts MATCH ?
	`
	args := []interface{}{match}
	if filters != nil && filters.DocumentSlug != "" {
		query += " AND d.slug = ?"
		args = append(args, filters.DocumentSlug)
	}
	query += " ORDER BY score LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("chunk text search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []LexicalResult
	for rows.Next() {
		var (
			r    types.SearchResult
			bm25 float64
		)
		if err := rows.Scan(&r.ID, &r.Content, &r.ChunkIndex, &r.PageNumber,
			&r.DocumentSlug, &r.DocumentTitle, &bm25); err != nil {
			return nil, err
		}
		r.SourceType = types.SourceChunk
		results = append(results, LexicalResult{Result: r, Rank: normalizeRank(bm25)})
	}

	return results, rows.Err()
}

func (s *SQLiteStorage) queryLexicalElements(ctx context.Context, match string, limit int, filters *Filters) ([]LexicalResult, error) {
	query := `
		SELECT e.id, e.element_type, e.label, e.description, e.search_text,
			e.crop_path, e.rendered_path, p.page_number, d.slug, d.title,
			bm25(elements_fts) AS score
		FROM elements_fts
		JOIN elements e ON elements_fts.element_id = e.id
		JOIN pages p ON e.page_id = p.id
		JOIN documents d ON e.document_id = d.id
		WHERE elements_fts MATCH ?
	`
	args := []interface{}{match}
	if filters != nil {
		if filters.DocumentSlug != "" {
			query += " AND d.slug = ?"
			args = append(args, filters.DocumentSlug)
		}
		if filters.ElementType != "" {
			query += " AND e.element_type = ?"
			args = append(args, string(filters.ElementType))
		}
	}
	query += " ORDER BY score LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("element text search failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []LexicalResult
	for rows.Next() {
		var (
			r           types.SearchResult
			elementType string
			description string
			searchText  string
			bm25        float64
		)
		if err := rows.Scan(&r.ID, &elementType, &r.ElementLabel, &description, &searchText,
			&r.CropPath, &r.RenderedPath, &r.PageNumber, &r.DocumentSlug, &r.DocumentTitle, &bm25); err != nil {
			return nil, err
		}
		r.SourceType = types.SourceElement
		r.ElementType = types.ElementType(elementType)
		r.Content = searchText
		if r.Content == "" {
			r.Content = description
		}
		results = append(results, LexicalResult{Result: r, Rank: normalizeRank(bm25)})
	}

	return results, rows.Err()
}

var _ Storage = (*SQLiteStorage)(nil)

// SerializeEmbedding exposes vector serialization to the indexer
func SerializeEmbedding(vec []float32) []byte {
	return serializeVector(vec)
}

// DeserializeEmbedding exposes vector deserialization for diagnostics
func DeserializeEmbedding(data []byte) ([]float32, error) {
	return deserializeVector(data)
}
