// Package indexer implements the document ingest pipeline.
//
// An extraction directory holds the output of the PDF extraction step:
//
//	{slug}/document.json        document metadata
//	{slug}/pages/page_001.json  per-page text and visual elements
//
// IngestDocument loads that directory, cleans and chunks the page
// text, embeds chunks in concurrent batches and elements individually,
// and writes everything through the storage layer. Each run gets a
// unique run ID for log correlation.
//
// When the embedding server is down, ingest proceeds without
// embeddings and records a warning; such content is still reachable
// through lexical search and can be re-embedded by a later replace
// ingest.
//
// Only one ingest runs at a time. IngestDocument returns an error
// immediately when another ingest holds the lock.
package indexer
