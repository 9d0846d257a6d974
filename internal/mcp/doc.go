// Package mcp exposes the document library over the Model Context
// Protocol on stdio.
//
// Tools:
//   - search_documents: hybrid search over chunks and elements
//   - search_visual_elements: semantic element search with type filter
//   - list_documents: library inventory with summaries
//   - get_element_details: full element description by document + label
//   - get_chunk_context: a chunk with its page neighbors
//   - get_library_status: counts, index health, embedding server state
//   - ingest_document: ingest an extraction directory
//
// Tool output is plain text formatted for an LLM reader: results carry
// the document slug and element label so follow-up calls can use the
// compound key without tracking numeric IDs. Relevance is reported as
// a percentage derived from the internal distance score.
//
// Errors use JSON-RPC codes: -32602 invalid params, -32603 internal,
// -32001 embedding server unavailable, -32002 ingest in progress,
// -32003 not found, -32004 empty query.
//
// All diagnostics go to stderr; stdout carries only protocol frames.
package mcp
