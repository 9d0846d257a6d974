package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/paperstack/doclibrary/internal/indexer"
	"github.com/paperstack/doclibrary/internal/searcher"
	"github.com/paperstack/doclibrary/internal/storage"
	"github.com/paperstack/doclibrary/pkg/types"
)

// SearchTestSuite exercises the full ingest and search pipeline
type SearchTestSuite struct {
	suite.Suite
	storage  storage.Storage
	indexer  *indexer.Indexer
	searcher *searcher.Searcher
	embedder *MockEmbedder
	ctx      context.Context
}

// SetupTest runs before each test
func (s *SearchTestSuite) SetupTest() {
	s.ctx = context.Background()

	store, err := storage.NewSQLiteStorage(":memory:")
	s.Require().NoError(err)
	s.storage = store

	s.embedder = NewMockEmbedder()

	dataDir := s.T().TempDir()
	s.Require().NoError(writeFixtureCorpus(dataDir))

	s.indexer, err = indexer.New(s.storage, s.embedder, indexer.Config{
		DataDir:      dataDir,
		ChunkSize:    200,
		ChunkOverlap: 40,
	})
	s.Require().NoError(err)

	s.searcher = searcher.NewSearcher(s.storage, s.embedder, searcher.DefaultSearchConfig())

	runs, err := s.indexer.IngestAll(s.ctx, indexer.IngestOptions{EmbedContent: true})
	s.Require().NoError(err)
	s.Require().Len(runs, 3)
	for _, stats := range runs {
		s.Empty(stats.Warnings, "ingest of %s should be clean", stats.Slug)
	}
}

// TearDownTest runs after each test
func (s *SearchTestSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
}

// TestHybridSearch verifies that vocabulary overlap drives ranking
func (s *SearchTestSuite) TestHybridSearch() {
	resp, err := s.searcher.Search(s.ctx, searcher.SearchRequest{
		Query: "gradient descent momentum loss",
		Limit: 10,
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(resp.Results)

	s.Equal("optimization-methods", resp.Results[0].DocumentSlug,
		"top result should come from the optimization document")
	s.False(resp.Partial)
	s.Positive(resp.SemanticHits)
	s.Positive(resp.LexicalHits)

	for i := 1; i < len(resp.Results); i++ {
		s.LessOrEqual(resp.Results[i-1].Score, resp.Results[i].Score,
			"results should be sorted by ascending distance")
	}
}

// TestSearchDeduplicates verifies each source appears at most once
func (s *SearchTestSuite) TestSearchDeduplicates() {
	resp, err := s.searcher.Search(s.ctx, searcher.SearchRequest{
		Query: "attention token relevance sequence",
		Limit: 20,
	})
	s.Require().NoError(err)

	seen := make(map[types.ResultKey]bool)
	for _, result := range resp.Results {
		key := result.Key()
		s.False(seen[key], "result %v should appear once", key)
		seen[key] = true
	}
}

// TestDocumentFilter restricts results to one document
func (s *SearchTestSuite) TestDocumentFilter() {
	resp, err := s.searcher.Search(s.ctx, searcher.SearchRequest{
		Query:        "attention queries keys values",
		Limit:        10,
		DocumentSlug: "attention-paper",
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(resp.Results)

	for _, result := range resp.Results {
		s.Equal("attention-paper", result.DocumentSlug)
	}
}

// TestSemanticOnly skips the lexical leg entirely
func (s *SearchTestSuite) TestSemanticOnly() {
	resp, err := s.searcher.Search(s.ctx, searcher.SearchRequest{
		Query:        "B-tree index range scan",
		Limit:        10,
		SemanticOnly: true,
	})
	s.Require().NoError(err)
	s.Zero(resp.LexicalHits)
	s.Positive(resp.SemanticHits)
}

// TestSearchLimit truncates to the requested size
func (s *SearchTestSuite) TestSearchLimit() {
	resp, err := s.searcher.Search(s.ctx, searcher.SearchRequest{
		Query: "gradient attention index",
		Limit: 2,
	})
	s.Require().NoError(err)
	s.LessOrEqual(len(resp.Results), 2)
}

// TestSearchCache serves the second identical query from cache
func (s *SearchTestSuite) TestSearchCache() {
	req := searcher.SearchRequest{
		Query:    "momentum oscillation valleys",
		Limit:    10,
		UseCache: true,
	}

	first, err := s.searcher.Search(s.ctx, req)
	s.Require().NoError(err)
	s.False(first.CacheHit)

	second, err := s.searcher.Search(s.ctx, req)
	s.Require().NoError(err)
	s.True(second.CacheHit)
	s.Equal(len(first.Results), len(second.Results))
}

// TestSearchEmptyQuery rejects blank queries
func (s *SearchTestSuite) TestSearchEmptyQuery() {
	_, err := s.searcher.Search(s.ctx, searcher.SearchRequest{Query: "   ", Limit: 10})
	s.Require().Error(err)
	s.Contains(err.Error(), "query cannot be empty")
}

// TestSearchEmbedderDown surfaces the embedding availability error
func (s *SearchTestSuite) TestSearchEmbedderDown() {
	s.embedder.SetHealthy(false)

	_, err := s.searcher.Search(s.ctx, searcher.SearchRequest{
		Query: "gradient descent",
		Limit: 10,
	})
	s.Require().Error(err)
	s.ErrorIs(err, types.ErrEmbeddingUnavailable)
}

// TestElementSearch finds visual elements by description
func (s *SearchTestSuite) TestElementSearch() {
	results, err := s.searcher.SearchElements(s.ctx, searcher.ElementSearchRequest{
		Query: "attention heatmap encoder layers",
		Limit: 5,
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(results)

	s.Equal(types.SourceElement, results[0].SourceType)
	s.Equal("Figure 1", results[0].ElementLabel)
	s.Equal("attention-paper", results[0].DocumentSlug)
}

// TestElementSearchTypeFilter returns only the requested type
func (s *SearchTestSuite) TestElementSearchTypeFilter() {
	results, err := s.searcher.SearchElements(s.ctx, searcher.ElementSearchRequest{
		Query:       "translation benchmark scores",
		Limit:       5,
		ElementType: types.ElementTable,
	})
	s.Require().NoError(err)
	s.Require().NotEmpty(results)

	for _, result := range results {
		s.Equal(types.ElementTable, result.ElementType)
	}
}

// TestChunkContext returns neighboring chunks around a hit
func (s *SearchTestSuite) TestChunkContext() {
	hits, err := s.storage.QueryLexical(s.ctx, "adaptive optimizers", 1,
		storage.PoolChunks, nil)
	s.Require().NoError(err)
	s.Require().NotEmpty(hits)

	chunks, err := s.storage.GetChunkContext(s.ctx, hits[0].Result.ID, 1)
	s.Require().NoError(err)
	s.NotEmpty(chunks)

	found := false
	for _, chunk := range chunks {
		if chunk.ID == hits[0].Result.ID {
			found = true
		}
	}
	s.True(found, "context window should include the requested chunk")
}

// TestSearchTestSuite runs the suite
func TestSearchTestSuite(t *testing.T) {
	suite.Run(t, new(SearchTestSuite))
}
