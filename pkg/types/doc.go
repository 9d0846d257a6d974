// Package types provides shared type definitions for the doclibrary
// retrieval engine.
//
// This package defines the domain types used across components: chunks,
// pages, visual elements, documents, and search results.
//
// # Core Types
//
// Chunk represents an overlapping passage of page text prepared for
// embedding and retrieval:
//
//	chunk := &types.Chunk{
//	    Content:    passage,
//	    ChunkIndex: 0,
//	    StartChar:  0,
//	    EndChar:    len(passage),
//	    PageNumber: 3,
//	}
//
// Element represents a visual unit extracted from a page (figure, table,
// equation, chart, or diagram) with its description and artifact paths.
//
// SearchResult is the unified result type for both content pools. Scores
// live in a single "distance" space where lower is better; lexical ranks
// are inverted into that space before merging so vector and keyword hits
// are comparable:
//
//	results are deduplicated by (SourceType, ID), keeping the best score
//
// # Error Semantics
//
// Sentinel errors defined here cross component boundaries:
// ErrEmbeddingUnavailable aborts a whole search, while
// ErrInvalidChunkParams rejects a chunking call before it begins.
package types
