// Package searcher implements multi-query hybrid search over the
// document library.
//
// A single user query expands into up to two variants: the original
// text and a stopword-stripped keyword form. Each variant runs both a
// semantic lookup (embedding similarity against stored vectors) and a
// lexical lookup (FTS5 BM25), across the chunk and element pools.
// All lookups run concurrently and a single merge loop keeps the best
// score seen for each result.
//
// # Score Space
//
// Everything merges in cosine-distance space where 0 is a perfect
// match. BM25 ranks are mapped into the same space with
// distance = max(0, 1 - rank*2), so strong lexical hits compete with
// strong semantic hits on equal footing.
//
// Final results must clear two relevance bars, a low noise bar and a
// confidence floor; the stricter cutoff wins. ScorePercent converts a
// distance back into a 0-100 figure for display.
//
// # Basic Usage
//
//	s := searcher.NewSearcher(db, emb, searcher.DefaultSearchConfig())
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    Query: "how does attention scale with sequence length",
//	    Limit: 10,
//	})
//
// SearchElements is a narrower entry point for browsing figures and
// tables: semantic only, optional element-type filter, no relevance
// thresholds.
package searcher
