package searcher

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/paperstack/doclibrary/internal/embedder"
	"github.com/paperstack/doclibrary/internal/storage"
	"github.com/paperstack/doclibrary/pkg/types"
)

// Index is the slice of the storage layer the searcher depends on
type Index interface {
	QueryVector(ctx context.Context, embedding []float32, limit int, pool storage.ContentPool, filters *storage.Filters) ([]types.SearchResult, error)
	QueryLexical(ctx context.Context, query string, limit int, pool storage.ContentPool, filters *storage.Filters) ([]storage.LexicalResult, error)
}

// SearchConfig holds the relevance thresholds for hybrid search.
// Results must clear both bars: LowBarPct rejects noise and
// ConfidenceFloorPct enforces a minimum match quality. The effective
// cutoff is the stricter of the two.
type SearchConfig struct {
	LowBarPct          float64
	ConfidenceFloorPct float64
}

// DefaultSearchConfig returns the standard relevance thresholds
func DefaultSearchConfig() SearchConfig {
	return SearchConfig{
		LowBarPct:          5,
		ConfidenceFloorPct: 20,
	}
}

// SearchRequest contains parameters for a hybrid search operation
type SearchRequest struct {
	Query        string
	Limit        int
	DocumentSlug string

	// Pools restricts which content pools are searched. Empty means
	// both chunks and elements.
	Pools []storage.ContentPool

	// SemanticOnly skips the BM25 lexical phase
	SemanticOnly bool

	UseCache bool
	CacheTTL time.Duration
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results      []types.SearchResult
	TotalResults int
	Duration     time.Duration
	CacheHit     bool
	SemanticHits int
	LexicalHits  int

	// Partial is set when the context was cancelled before every
	// search task reported back
	Partial bool
}

// ElementSearchRequest contains parameters for element-only search
type ElementSearchRequest struct {
	Query        string
	Limit        int
	DocumentSlug string
	ElementType  types.ElementType
}

// cacheEntry represents a cached search response with expiration time
type cacheEntry struct {
	response  *SearchResponse
	expiresAt time.Time
}

// Searcher coordinates multi-query hybrid search across the vector and
// lexical indexes
type Searcher struct {
	index    Index
	embedder embedder.Embedder
	config   SearchConfig
	cache    *lru.Cache[[32]byte, *cacheEntry]
	cacheMu  sync.RWMutex
}

// NewSearcher creates a new Searcher instance
func NewSearcher(index Index, emb embedder.Embedder, config SearchConfig) *Searcher {
	cache, err := lru.New[[32]byte, *cacheEntry](1000)
	if err != nil {
		// Only possible with a non-positive size
		panic(fmt.Sprintf("failed to create LRU cache: %v", err))
	}

	return &Searcher{
		index:    index,
		embedder: emb,
		config:   config,
		cache:    cache,
	}
}

// Search runs the full hybrid pipeline: build query variants, fan out
// semantic and lexical lookups across the requested pools, merge by
// best score, then sort, threshold, and truncate.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	if s.embedder == nil {
		return nil, fmt.Errorf("embedder not initialized")
	}
	if err := s.validateRequest(&req); err != nil {
		return nil, fmt.Errorf("invalid search request: %w", err)
	}

	if req.UseCache {
		if cached := s.checkCache(req); cached != nil {
			cached.CacheHit = true
			cached.Duration = time.Since(startTime)
			return cached, nil
		}
	}

	if !s.embedder.Healthy(ctx) {
		return nil, fmt.Errorf("embedding server health check failed: %w", types.ErrEmbeddingUnavailable)
	}

	response, err := s.hybridSearch(ctx, req)
	if err != nil {
		return nil, err
	}
	response.Duration = time.Since(startTime)

	if req.UseCache && len(response.Results) > 0 && !response.Partial {
		s.storeInCache(req, response)
	}

	return response, nil
}

// SearchChunks restricts a hybrid search to the chunk pool
func (s *Searcher) SearchChunks(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	req.Pools = []storage.ContentPool{storage.PoolChunks}
	return s.Search(ctx, req)
}

// SearchElements runs a semantic-only search over the element pool.
// Unlike Search it applies no relevance thresholds, so browsing-style
// queries still return the nearest elements.
func (s *Searcher) SearchElements(ctx context.Context, req ElementSearchRequest) ([]types.SearchResult, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("embedder not initialized")
	}
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if req.Limit <= 0 {
		req.Limit = 10
	}

	if !s.embedder.Healthy(ctx) {
		return nil, fmt.Errorf("embedding server health check failed: %w", types.ErrEmbeddingUnavailable)
	}

	embeddings, err := s.embedder.Embed(ctx, []string{req.Query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	filters := &storage.Filters{
		DocumentSlug: req.DocumentSlug,
		ElementType:  req.ElementType,
	}
	return s.index.QueryVector(ctx, embeddings[0], req.Limit, storage.PoolElements, filters)
}

// taskResult carries one search task's output to the merge loop
type taskResult struct {
	semantic []types.SearchResult
	lexical  []storage.LexicalResult
	err      error
	desc     string
}

// hybridSearch fans out one task per (variant, pool, phase) and merges
// everything that comes back into a single best-score-per-key set
func (s *Searcher) hybridSearch(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	keywords := ExtractKeywords(req.Query)

	semanticQueries := []string{req.Query}
	if keywords != "" && keywords != req.Query && len(keywords) > 2 {
		semanticQueries = append(semanticQueries, keywords)
	}

	var lexicalQueries []string
	if !req.SemanticOnly {
		lexicalQueries = []string{req.Query}
		if keywords != "" && keywords != req.Query {
			lexicalQueries = append(lexicalQueries, keywords)
		}
	}

	filters := &storage.Filters{DocumentSlug: req.DocumentSlug}
	results := make(chan taskResult)
	var launched int

	for _, q := range semanticQueries {
		for _, pool := range req.Pools {
			launched++
			go s.runSemanticTask(ctx, q, pool, req.Limit, filters, results)
		}
	}
	for _, q := range lexicalQueries {
		for _, pool := range req.Pools {
			launched++
			go s.runLexicalTask(ctx, q, pool, req.Limit, filters, results)
		}
	}

	// Single consumer merges as tasks report. Cancellation stops the
	// collection loop; whatever merged before that is still returned.
	best := make(map[types.ResultKey]types.SearchResult)
	response := &SearchResponse{}
	var firstErr error
	var failed int

collect:
	for received := 0; received < launched; received++ {
		var res taskResult
		select {
		case res = <-results:
		case <-ctx.Done():
			response.Partial = true
			break collect
		}

		if res.err != nil {
			failed++
			if firstErr == nil {
				firstErr = res.err
			}
			log.Printf("search task failed (%s): %v", res.desc, res.err)
			continue
		}

		for _, r := range res.semantic {
			mergeBest(best, r)
			response.SemanticHits++
		}
		for _, lr := range res.lexical {
			r := lr.Result
			r.Score = lexicalToDistance(lr.Rank)
			mergeBest(best, r)
			response.LexicalHits++
		}
	}

	if failed == launched && launched > 0 {
		return nil, fmt.Errorf("all search tasks failed: %w", firstErr)
	}

	response.Results = s.rankAndFilter(best, req.Limit)
	response.TotalResults = len(response.Results)
	return response, nil
}

func (s *Searcher) runSemanticTask(ctx context.Context, query string, pool storage.ContentPool, limit int, filters *storage.Filters, out chan<- taskResult) {
	res := taskResult{desc: fmt.Sprintf("semantic/%s", pool)}
	embeddings, err := s.embedder.Embed(ctx, []string{query})
	if err != nil {
		res.err = fmt.Errorf("failed to embed query variant: %w", err)
	} else {
		res.semantic, res.err = s.index.QueryVector(ctx, embeddings[0], limit, pool, filters)
	}
	select {
	case out <- res:
	case <-ctx.Done():
	}
}

func (s *Searcher) runLexicalTask(ctx context.Context, query string, pool storage.ContentPool, limit int, filters *storage.Filters, out chan<- taskResult) {
	res := taskResult{desc: fmt.Sprintf("lexical/%s", pool)}
	res.lexical, res.err = s.index.QueryLexical(ctx, query, limit, pool, filters)
	select {
	case out <- res:
	case <-ctx.Done():
	}
}

// mergeBest keeps the strictly lower score for each (source type, id)
func mergeBest(best map[types.ResultKey]types.SearchResult, r types.SearchResult) {
	key := r.Key()
	if existing, ok := best[key]; !ok || r.Score < existing.Score {
		best[key] = r
	}
}

// rankAndFilter sorts merged results by ascending distance, drops
// everything past the stricter relevance cutoff, and truncates
func (s *Searcher) rankAndFilter(best map[types.ResultKey]types.SearchResult, limit int) []types.SearchResult {
	results := make([]types.SearchResult, 0, len(best))
	for _, r := range best {
		results = append(results, r)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		if results[i].SourceType != results[j].SourceType {
			return results[i].SourceType < results[j].SourceType
		}
		return results[i].ID < results[j].ID
	})

	cutoff := DistanceCutoff(s.config.LowBarPct)
	if floor := DistanceCutoff(s.config.ConfidenceFloorPct); floor < cutoff {
		cutoff = floor
	}

	filtered := results[:0]
	for _, r := range results {
		if r.Score <= cutoff {
			filtered = append(filtered, r)
		}
	}

	if len(filtered) > limit {
		filtered = filtered[:limit]
	}
	return filtered
}

// validateRequest ensures search request is valid and applies defaults
func (s *Searcher) validateRequest(req *SearchRequest) error {
	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}

	if req.Limit <= 0 {
		req.Limit = 10
	}
	if req.Limit > 100 {
		req.Limit = 100
	}

	if len(req.Pools) == 0 {
		req.Pools = []storage.ContentPool{storage.PoolChunks, storage.PoolElements}
	}
	for _, pool := range req.Pools {
		if pool != storage.PoolChunks && pool != storage.PoolElements {
			return fmt.Errorf("unknown content pool: %s", pool)
		}
	}

	if req.CacheTTL == 0 {
		req.CacheTTL = 1 * time.Hour
	}

	return nil
}

// checkCache looks up a cached search response, dropping expired entries
func (s *Searcher) checkCache(req SearchRequest) *SearchResponse {
	hash := computeQueryHash(req)

	s.cacheMu.RLock()
	entry, found := s.cache.Get(hash)
	if !found {
		s.cacheMu.RUnlock()
		return nil
	}

	if time.Now().After(entry.expiresAt) {
		s.cacheMu.RUnlock()
		s.cacheMu.Lock()
		s.cache.Remove(hash)
		s.cacheMu.Unlock()
		return nil
	}

	response := copySearchResponse(entry.response)
	s.cacheMu.RUnlock()
	return response
}

// storeInCache saves a search response under the request hash
func (s *Searcher) storeInCache(req SearchRequest, response *SearchResponse) {
	entry := &cacheEntry{
		response:  copySearchResponse(response),
		expiresAt: time.Now().Add(req.CacheTTL),
	}

	s.cacheMu.Lock()
	s.cache.Add(computeQueryHash(req), entry)
	s.cacheMu.Unlock()
}

// InvalidateCache drops all cached queries. Called after ingest or
// delete changes the library contents.
func (s *Searcher) InvalidateCache() {
	s.cacheMu.Lock()
	s.cache.Purge()
	s.cacheMu.Unlock()
}

// copySearchResponse creates a copy so cached responses cannot be
// mutated by callers
func copySearchResponse(src *SearchResponse) *SearchResponse {
	if src == nil {
		return nil
	}
	dst := *src
	dst.Results = make([]types.SearchResult, len(src.Results))
	copy(dst.Results, src.Results)
	return &dst
}

// computeQueryHash computes a deterministic hash for a search request
func computeQueryHash(req SearchRequest) [32]byte {
	var data strings.Builder
	data.WriteString(req.Query)
	data.WriteString("|")
	data.WriteString(req.DocumentSlug)
	data.WriteString("|")
	data.WriteString(fmt.Sprintf("%d|%t", req.Limit, req.SemanticOnly))
	for _, pool := range req.Pools {
		data.WriteString("|")
		data.WriteString(string(pool))
	}
	return sha256.Sum256([]byte(data.String()))
}
