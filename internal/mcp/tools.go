package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/paperstack/doclibrary/internal/indexer"
	"github.com/paperstack/doclibrary/internal/searcher"
	"github.com/paperstack/doclibrary/internal/storage"
	"github.com/paperstack/doclibrary/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams        = -32602 // Invalid method parameters
	ErrorCodeInternalError        = -32603 // Internal JSON-RPC error
	ErrorCodeEmbeddingUnavailable = -32001 // Embedding server not reachable
	ErrorCodeIngestInProgress     = -32002 // Another ingest operation is already running
	ErrorCodeNotFound             = -32003 // Document, chunk, or element not found
	ErrorCodeEmptyQuery           = -32004 // Query parameter is empty
)

// contentPreviewLen bounds result content in tool output
const contentPreviewLen = 300

// handleSearchDocuments handles the search_documents tool invocation
func (s *Server) handleSearchDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 50 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 50", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	documentSlug := getStringDefault(args, "document_slug", "")

	resp, err := s.searcher.Search(ctx, searcher.SearchRequest{
		Query:        query,
		Limit:        limit,
		DocumentSlug: documentSlug,
		UseCache:     true,
	})
	if err != nil {
		if errors.Is(err, types.ErrEmbeddingUnavailable) {
			return nil, newMCPError(ErrorCodeEmbeddingUnavailable, "embedding server not available", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if len(resp.Results) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No results found for query: %s", query)), nil
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Found %d results for: %s\n", len(resp.Results), query)
	for i, result := range resp.Results {
		out.WriteString("\n")
		out.WriteString(formatSearchResult(result, i+1))
		out.WriteString("\n")
	}

	return mcp.NewToolResultText(out.String()), nil
}

// handleSearchVisualElements handles the search_visual_elements tool invocation
func (s *Server) handleSearchVisualElements(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	limit := getIntDefault(args, "limit", 10)
	if limit < 1 || limit > 50 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 50", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	elementType := types.ElementType(getStringDefault(args, "element_type", ""))
	if elementType != "" && !elementType.Valid() {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid element_type", map[string]interface{}{
			"param":   "element_type",
			"value":   string(elementType),
			"allowed": types.AllElementTypes,
		})
	}

	results, err := s.searcher.SearchElements(ctx, searcher.ElementSearchRequest{
		Query:        query,
		Limit:        limit,
		DocumentSlug: getStringDefault(args, "document_slug", ""),
		ElementType:  elementType,
	})
	if err != nil {
		if errors.Is(err, types.ErrEmbeddingUnavailable) {
			return nil, newMCPError(ErrorCodeEmbeddingUnavailable, "embedding server not available", map[string]interface{}{
				"error": err.Error(),
			})
		}
		return nil, newMCPError(ErrorCodeInternalError, "element search failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if len(results) == 0 {
		typeFilter := ""
		if elementType != "" {
			typeFilter = fmt.Sprintf(" of type '%s'", elementType)
		}
		return mcp.NewToolResultText(fmt.Sprintf("No visual elements%s found for query: %s", typeFilter, query)), nil
	}

	var out strings.Builder
	fmt.Fprintf(&out, "Found %d visual elements for: %s\n", len(results), query)
	for i, result := range results {
		out.WriteString("\n")
		out.WriteString(formatSearchResult(result, i+1))
		out.WriteString("\n")
	}

	return mcp.NewToolResultText(out.String()), nil
}

// handleListDocuments handles the list_documents tool invocation
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	docs, err := s.storage.ListDocuments(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list documents", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if len(docs) == 0 {
		return mcp.NewToolResultText("No documents found in the library."), nil
	}

	var out strings.Builder
	out.WriteString("Available documents:\n")
	for _, doc := range docs {
		pages, err := s.storage.ListPages(ctx, doc.ID)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternalError, "failed to list pages", map[string]interface{}{
				"error": err.Error(),
			})
		}

		fmt.Fprintf(&out, "\n## %s (%s)\n", doc.Title, doc.Slug)
		fmt.Fprintf(&out, "   Pages: %d\n", len(pages))
		if doc.Summary != "" {
			fmt.Fprintf(&out, "   Summary: %s\n", searcher.TruncateText(doc.Summary, 200))
		}
	}

	return mcp.NewToolResultText(out.String()), nil
}

// handleGetElementDetails handles the get_element_details tool invocation
func (s *Server) handleGetElementDetails(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	documentSlug, ok := args["document_slug"].(string)
	if !ok || documentSlug == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "document_slug parameter is required", map[string]interface{}{
			"param":  "document_slug",
			"reason": "missing or empty",
		})
	}
	elementLabel, ok := args["element_label"].(string)
	if !ok || elementLabel == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "element_label parameter is required", map[string]interface{}{
			"param":  "element_label",
			"reason": "missing or empty",
		})
	}
	pageNumber := getIntDefault(args, "page_number", 0)

	doc, err := s.storage.GetDocumentBySlug(ctx, documentSlug)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, newMCPError(ErrorCodeNotFound, fmt.Sprintf("document %q not found", documentSlug), nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to look up document", map[string]interface{}{
			"error": err.Error(),
		})
	}

	elements, err := s.storage.ListElements(ctx, documentSlug, "")
	if err != nil {
		return nil, newMCPError(ErrorCodeInternalError, "failed to list elements", map[string]interface{}{
			"error": err.Error(),
		})
	}

	var match *storage.Element
	for _, el := range elements {
		if el.Label != elementLabel {
			continue
		}
		if pageNumber > 0 {
			page, err := s.pageNumberOf(ctx, doc.ID, el.PageID)
			if err != nil || page != pageNumber {
				continue
			}
		}
		match = el
		break
	}
	if match == nil {
		msg := fmt.Sprintf("element %q not found in document %q", elementLabel, documentSlug)
		if pageNumber > 0 {
			msg += fmt.Sprintf(" on page %d", pageNumber)
		}
		return nil, newMCPError(ErrorCodeNotFound, msg, nil)
	}

	elementType := types.ElementType(match.ElementType)
	var out strings.Builder
	fmt.Fprintf(&out, "Type: %s\n", strings.ToUpper(match.ElementType))
	fmt.Fprintf(&out, "Tag: %s\n", elementType.TagPrefix())
	fmt.Fprintf(&out, "Label: %s\n", match.Label)
	fmt.Fprintf(&out, "Document: %s (%s)\n", doc.Title, doc.Slug)
	if page, err := s.pageNumberOf(ctx, doc.ID, match.PageID); err == nil {
		fmt.Fprintf(&out, "Page: %d\n", page)
	}
	out.WriteString("\nDescription:\n")
	if match.Description != "" {
		out.WriteString(match.Description)
	} else {
		out.WriteString("No description available")
	}
	if match.SearchText != "" {
		out.WriteString("\n\nContext:\n")
		out.WriteString(match.SearchText)
	}
	if match.CropPath != "" {
		fmt.Fprintf(&out, "\n\nCrop: %s", match.CropPath)
	}

	return mcp.NewToolResultText(out.String()), nil
}

// handleGetChunkContext handles the get_chunk_context tool invocation
func (s *Server) handleGetChunkContext(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	chunkID := getIntDefault(args, "chunk_id", 0)
	if chunkID <= 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "chunk_id parameter is required", map[string]interface{}{
			"param":  "chunk_id",
			"reason": "missing or not positive",
		})
	}
	radius := getIntDefault(args, "radius", 1)
	if radius < 0 || radius > 5 {
		return nil, newMCPError(ErrorCodeInvalidParams, "radius must be between 0 and 5", map[string]interface{}{
			"param": "radius",
			"value": radius,
		})
	}

	chunks, err := s.storage.GetChunkContext(ctx, int64(chunkID), radius)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, newMCPError(ErrorCodeNotFound, fmt.Sprintf("chunk %d not found", chunkID), nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "failed to load chunk context", map[string]interface{}{
			"error": err.Error(),
		})
	}

	var out strings.Builder
	for i, chunk := range chunks {
		if i > 0 {
			out.WriteString("\n\n")
		}
		marker := " "
		if chunk.ID == int64(chunkID) {
			marker = ">"
		}
		fmt.Fprintf(&out, "%s [chunk %d]\n%s", marker, chunk.ID, chunk.Content)
	}

	return mcp.NewToolResultText(out.String()), nil
}

// handleGetLibraryStatus handles the get_library_status tool invocation
func (s *Server) handleGetLibraryStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var out strings.Builder
	out.WriteString("Document Library Status\n\n")

	embedOK := s.embedder.Healthy(ctx)
	state := "NOT AVAILABLE"
	if embedOK {
		state = "OK"
	}
	fmt.Fprintf(&out, "Embedding server: %s\n", state)
	fmt.Fprintf(&out, "  Provider: %s (%s, dim %d)\n", s.embedder.Provider(), s.embedder.Model(), s.embedder.Dimension())

	status, err := s.storage.Status(ctx)
	if err != nil {
		fmt.Fprintf(&out, "Database: ERROR - %v\n", err)
	} else {
		fmt.Fprintf(&out, "Database: OK (%d documents, %d pages)\n", status.DocumentCount, status.PageCount)
		fmt.Fprintf(&out, "  Chunks: %d (%d embedded)\n", status.ChunkCount, status.EmbeddedChunks)
		fmt.Fprintf(&out, "  Elements: %d\n", status.ElementCount)
		fmt.Fprintf(&out, "  Index size: %.2f MB\n", status.IndexSizeMB)
		fmt.Fprintf(&out, "  FTS indexes built: %t\n", status.Health.FTSIndexesBuilt)
	}
	fmt.Fprintf(&out, "Config source: %s\n", s.configSource)
	fmt.Fprintf(&out, "Storage build: %s\n", storage.BuildMode)

	return mcp.NewToolResultText(out.String()), nil
}

// handleIngestDocument handles the ingest_document tool invocation
func (s *Server) handleIngestDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	slug, ok := args["slug"].(string)
	if !ok || slug == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "slug parameter is required", map[string]interface{}{
			"param":  "slug",
			"reason": "missing or empty",
		})
	}

	opts := indexer.IngestOptions{
		SkipExisting: getBoolDefault(args, "skip_existing", false),
		DeleteFirst:  getBoolDefault(args, "delete_first", false),
		EmbedContent: getBoolDefault(args, "embed_content", true),
		DryRun:       getBoolDefault(args, "dry_run", false),
	}

	stats, err := s.indexer.IngestDocument(ctx, slug, opts)
	if err != nil {
		if strings.Contains(err.Error(), "already in progress") {
			return nil, newMCPError(ErrorCodeIngestInProgress, "another ingest is already running", nil)
		}
		return nil, newMCPError(ErrorCodeInternalError, "ingest failed", map[string]interface{}{
			"error": err.Error(),
		})
	}

	// Cached queries may now be stale
	s.searcher.InvalidateCache()

	var out strings.Builder
	switch {
	case stats.Skipped:
		fmt.Fprintf(&out, "Skipped %s: already ingested\n", slug)
	case stats.DryRun:
		fmt.Fprintf(&out, "Dry run for %s:\n", slug)
		fmt.Fprintf(&out, "  Pages: %d\n  Chunks: %d\n  Elements: %d\n", stats.Pages, stats.Chunks, stats.Elements)
	default:
		fmt.Fprintf(&out, "Ingested %s (run %s):\n", slug, stats.RunID)
		fmt.Fprintf(&out, "  Title: %s\n", stats.Title)
		fmt.Fprintf(&out, "  Pages: %d\n  Chunks: %d (%d embedded)\n  Elements: %d (%d embedded)\n",
			stats.Pages, stats.Chunks, stats.EmbeddedChunks, stats.Elements, stats.EmbeddedElements)
		fmt.Fprintf(&out, "  Duration: %s\n", stats.Duration.Round(time.Millisecond))
	}
	for _, warning := range stats.Warnings {
		fmt.Fprintf(&out, "  WARNING: %s\n", warning)
	}

	return mcp.NewToolResultText(out.String()), nil
}

// formatSearchResult renders one result with its relevance percentage.
// Document slug and element label are included so follow-up tool calls
// can use the compound key directly.
func formatSearchResult(result types.SearchResult, index int) string {
	scorePct := searcher.ScorePercent(result.Score)
	content := searcher.TruncateText(result.Content, contentPreviewLen)

	if result.SourceType == types.SourceElement {
		elemType := string(result.ElementType)
		if elemType == "" {
			elemType = "element"
		}
		return fmt.Sprintf("[%d] %s: %s\n  Document: %s\n  Page: %d\n  Score: %.1f%%\n  Content: %s",
			index, strings.ToUpper(elemType), result.ElementLabel,
			result.DocumentSlug, result.PageNumber, scorePct, content)
	}

	return fmt.Sprintf("[%d] TEXT CHUNK (chunk %d)\n  Document: %s\n  Page: %d\n  Score: %.1f%%\n  Content: %s",
		index, result.ID, result.DocumentSlug, result.PageNumber, scorePct, content)
}

// pageNumberOf resolves a page row ID to its page number
func (s *Server) pageNumberOf(ctx context.Context, documentID, pageID int64) (int, error) {
	pages, err := s.storage.ListPages(ctx, documentID)
	if err != nil {
		return 0, err
	}
	for _, page := range pages {
		if page.ID == pageID {
			return page.PageNumber, nil
		}
	}
	return 0, storage.ErrNotFound
}

// Helper functions

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}

// getStringDefault extracts a string parameter with a default value
func getStringDefault(args map[string]interface{}, key string, defaultValue string) string {
	if val, ok := args[key].(string); ok {
		return val
	}
	return defaultValue
}
