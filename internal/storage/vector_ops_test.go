package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paperstack/doclibrary/pkg/types"
)

func TestSerializeDeserializeVector(t *testing.T) {
	vec := []float32{0.5, -1.25, 3.0, 0.0}
	data := serializeVector(vec)
	assert.Len(t, data, 16)

	restored, err := deserializeVector(data)
	require.NoError(t, err)
	assert.Equal(t, vec, restored)
}

func TestDeserializeVector_InvalidLength(t *testing.T) {
	_, err := deserializeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestCosineDistance(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}

	// Identical vectors have zero distance
	assert.InDelta(t, 0.0, cosineDistance(a, a), 1e-9)
	// Orthogonal vectors have distance 1
	assert.InDelta(t, 1.0, cosineDistance(a, b), 1e-9)
	// Opposite vectors have distance 2
	assert.InDelta(t, 2.0, cosineDistance(a, []float32{-1, 0, 0}), 1e-9)

	// Degenerate inputs are maximally distant
	assert.Equal(t, 1.0, cosineDistance(a, []float32{1, 0}))
	assert.Equal(t, 1.0, cosineDistance(a, []float32{0, 0, 0}))
	assert.Equal(t, 1.0, cosineDistance(nil, nil))
}

// seedSearchCorpus inserts two documents with embedded chunks and
// elements for query tests
func seedSearchCorpus(t *testing.T, ctx context.Context, s *SQLiteStorage) {
	docA, pageA := seedDocument(t, ctx, s, "corpus-a")
	docB, pageB := seedDocument(t, ctx, s, "corpus-b")

	chunks := []struct {
		doc     *Document
		page    *Page
		content string
		index   int
		vec     []float32
	}{
		{docA, pageA, "Attention mechanisms weigh token relevance in transformers.", 0, []float32{1, 0, 0}},
		{docA, pageA, "Convolutional networks excel at local spatial features.", 1, []float32{0.9, 0.1, 0}},
		{docB, pageB, "Gradient descent minimizes the loss function iteratively.", 0, []float32{0, 1, 0}},
	}
	for _, c := range chunks {
		require.NoError(t, s.InsertChunk(ctx, &Chunk{
			DocumentID: c.doc.ID,
			PageID:     c.page.ID,
			Content:    c.content,
			ChunkIndex: c.index,
			Embedding:  serializeVector(c.vec),
		}))
	}

	elements := []struct {
		doc         *Document
		page        *Page
		elementType string
		label       string
		searchText  string
		vec         []float32
	}{
		{docA, pageA, "figure", "Figure 1", "attention heatmap across layers", []float32{1, 0, 0}},
		{docA, pageA, "table", "Table 1", "accuracy comparison across models", []float32{0, 0, 1}},
	}
	for _, e := range elements {
		require.NoError(t, s.InsertElement(ctx, &Element{
			DocumentID:  e.doc.ID,
			PageID:      e.page.ID,
			ElementType: e.elementType,
			Label:       e.label,
			SearchText:  e.searchText,
			Embedding:   serializeVector(e.vec),
		}))
	}
}

func TestQueryVector_Chunks(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	seedSearchCorpus(t, ctx, storage)

	results, err := storage.QueryVector(ctx, []float32{1, 0, 0}, 10, PoolChunks, nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	// Ascending distance: exact match first, orthogonal last
	assert.InDelta(t, 0.0, results[0].Score, 1e-9)
	assert.Contains(t, results[0].Content, "Attention mechanisms")
	assert.InDelta(t, 1.0, results[2].Score, 1e-9)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i].Score, results[i-1].Score)
	}

	// Metadata joined in
	assert.Equal(t, "corpus-a", results[0].DocumentSlug)
	assert.Equal(t, 1, results[0].PageNumber)
	assert.Equal(t, types.SourceChunk, results[0].SourceType)
}

func TestQueryVector_Limit(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	seedSearchCorpus(t, ctx, storage)

	results, err := storage.QueryVector(ctx, []float32{1, 0, 0}, 2, PoolChunks, nil)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = storage.QueryVector(ctx, []float32{1, 0, 0}, 0, PoolChunks, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryVector_DocumentFilter(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	seedSearchCorpus(t, ctx, storage)

	results, err := storage.QueryVector(ctx, []float32{1, 0, 0}, 10, PoolChunks,
		&Filters{DocumentSlug: "corpus-b"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "corpus-b", results[0].DocumentSlug)
}

func TestQueryVector_Elements(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	seedSearchCorpus(t, ctx, storage)

	results, err := storage.QueryVector(ctx, []float32{1, 0, 0}, 10, PoolElements, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, types.SourceElement, results[0].SourceType)
	assert.Equal(t, "Figure 1", results[0].ElementLabel)
	assert.Equal(t, types.ElementType("figure"), results[0].ElementType)
	assert.Equal(t, "attention heatmap across layers", results[0].Content)
}

func TestQueryVector_ElementTypeFilter(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	seedSearchCorpus(t, ctx, storage)

	results, err := storage.QueryVector(ctx, []float32{1, 0, 0}, 10, PoolElements,
		&Filters{ElementType: types.ElementType("table")})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Table 1", results[0].ElementLabel)
}

func TestQueryVector_SkipsUnembedded(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	doc, page := seedDocument(t, ctx, storage, "partial")
	require.NoError(t, storage.InsertChunk(ctx, &Chunk{
		DocumentID: doc.ID, PageID: page.ID, Content: "no embedding here",
	}))
	require.NoError(t, storage.InsertChunk(ctx, &Chunk{
		DocumentID: doc.ID, PageID: page.ID, Content: "embedded", ChunkIndex: 1,
		Embedding: serializeVector([]float32{1, 0}),
	}))

	results, err := storage.QueryVector(ctx, []float32{1, 0}, 10, PoolChunks, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "embedded", results[0].Content)
}

func TestQueryVector_EmptyEmbedding(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	_, err := storage.QueryVector(context.Background(), nil, 10, PoolChunks, nil)
	assert.Error(t, err)
}

func TestQueryLexical_Chunks(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	seedSearchCorpus(t, ctx, storage)

	results, err := storage.QueryLexical(ctx, "attention transformers", 10, PoolChunks, nil)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Contains(t, results[0].Result.Content, "Attention mechanisms")
	assert.Equal(t, types.SourceChunk, results[0].Result.SourceType)

	// Ranks are in [0, 1), descending
	for i, r := range results {
		assert.GreaterOrEqual(t, r.Rank, 0.0)
		assert.Less(t, r.Rank, 1.0)
		if i > 0 {
			assert.LessOrEqual(t, r.Rank, results[i-1].Rank)
		}
	}
}

func TestQueryLexical_StrongMatchOutranksWeak(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	doc, page := seedDocument(t, ctx, storage, "lexical-rank")

	strong := strings.Repeat("transformer attention ", 30)
	weak := "transformer " + strings.Repeat("unrelated filler prose about nothing in particular ", 15)
	require.NoError(t, storage.InsertChunk(ctx, &Chunk{
		DocumentID: doc.ID, PageID: page.ID, Content: strong, ChunkIndex: 0,
	}))
	require.NoError(t, storage.InsertChunk(ctx, &Chunk{
		DocumentID: doc.ID, PageID: page.ID, Content: weak, ChunkIndex: 1,
	}))

	results, err := storage.QueryLexical(ctx, "transformer", 10, PoolChunks, nil)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// The term-dense chunk must come first and carry the strictly
	// higher rank; a bare mention in filler cannot tie with it
	assert.Equal(t, 0, results[0].Result.ChunkIndex)
	assert.Equal(t, 1, results[1].Result.ChunkIndex)
	assert.Greater(t, results[0].Rank, results[1].Rank)
}

func TestQueryLexical_Elements(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	seedSearchCorpus(t, ctx, storage)

	results, err := storage.QueryLexical(ctx, "heatmap", 10, PoolElements, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Figure 1", results[0].Result.ElementLabel)
	assert.Equal(t, types.SourceElement, results[0].Result.SourceType)
}

func TestQueryLexical_NoMatch(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	ctx := context.Background()
	seedSearchCorpus(t, ctx, storage)

	results, err := storage.QueryLexical(ctx, "xylophone", 10, PoolChunks, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryLexical_EmptyQuery(t *testing.T) {
	storage := setupTestDB(t)
	defer storage.Close()

	results, err := storage.QueryLexical(context.Background(), "   ", 10, PoolChunks, nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSanitizeFTSQuery(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain terms", "gradient descent", `"gradient" "descent"`},
		{"operators neutralized", "cats AND dogs", `"cats" "and" "dogs"`},
		{"near neutralized", "NEAR miss", `"near" "miss"`},
		{"special chars stripped", `"quoted" (grouped) star*`, `"quoted" "grouped" "star"`},
		{"hyphen split", "state-of-the-art", `"state" "of" "the" "art"`},
		{"empty", "", ""},
		{"only specials", `*()"`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeFTSQuery(tt.input))
		})
	}
}

func TestNormalizeRank(t *testing.T) {
	// More relevant (more negative) scores rank higher
	assert.Greater(t, normalizeRank(-50), normalizeRank(-10))
	assert.Greater(t, normalizeRank(-10), normalizeRank(-1))
	assert.Greater(t, normalizeRank(-1), normalizeRank(-0.1))

	// Range is [0, 1): a vacuous match ranks 0, strong matches
	// approach but never reach 1
	assert.Equal(t, 0.0, normalizeRank(0))
	assert.Less(t, normalizeRank(-1000), 1.0)

	// The half point anchors the distance conversion: rank 0.5 is
	// where 1 - rank*2 bottoms out at distance 0
	assert.InDelta(t, 0.5, normalizeRank(-rankHalfPoint), 1e-9)

	// Weak matches stay below the half point and keep a nonzero
	// distance after conversion
	assert.Less(t, normalizeRank(-0.5), 0.5)
}
