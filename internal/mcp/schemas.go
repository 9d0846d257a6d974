package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// searchDocumentsTool returns the tool definition for search_documents
func searchDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_documents",
		Description: "Search the document library with hybrid semantic and keyword matching over text chunks and visual elements",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query (natural language or keywords)",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-50)",
					"default":     10,
					"minimum":     1,
					"maximum":     50,
				},
				"document_slug": map[string]interface{}{
					"type":        "string",
					"description": "Restrict the search to a single document",
				},
			},
			Required: []string{"query"},
		},
	}
}

// searchVisualElementsTool returns the tool definition for search_visual_elements
func searchVisualElementsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_visual_elements",
		Description: "Search visual elements only: figures, tables, equations, charts, and diagrams",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Search query text",
				},
				"element_type": map[string]interface{}{
					"type":        "string",
					"description": "Filter by element type",
					"enum":        []string{"figure", "table", "equation", "chart", "diagram"},
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results (1-50)",
					"default":     10,
					"minimum":     1,
					"maximum":     50,
				},
				"document_slug": map[string]interface{}{
					"type":        "string",
					"description": "Restrict the search to a single document",
				},
			},
			Required: []string{"query"},
		},
	}
}

// listDocumentsTool returns the tool definition for list_documents
func listDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_documents",
		Description: "List all documents in the library with page counts and summaries",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// getElementDetailsTool returns the tool definition for get_element_details
func getElementDetailsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_element_details",
		Description: "Get the full description of a visual element by document and label",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"document_slug": map[string]interface{}{
					"type":        "string",
					"description": "Document identifier from search results",
				},
				"element_label": map[string]interface{}{
					"type":        "string",
					"description": "Element label from search results (e.g. 'Table 5', 'Figure 3-1')",
				},
				"page_number": map[string]interface{}{
					"type":        "integer",
					"description": "Disambiguates when multiple elements share a label",
				},
			},
			Required: []string{"document_slug", "element_label"},
		},
	}
}

// getChunkContextTool returns the tool definition for get_chunk_context
func getChunkContextTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_chunk_context",
		Description: "Get a text chunk together with its neighboring chunks on the same page",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"chunk_id": map[string]interface{}{
					"type":        "integer",
					"description": "Chunk ID from search results",
				},
				"radius": map[string]interface{}{
					"type":        "integer",
					"description": "Number of neighboring chunks on each side (default 1)",
					"default":     1,
					"minimum":     0,
					"maximum":     5,
				},
			},
			Required: []string{"chunk_id"},
		},
	}
}

// getLibraryStatusTool returns the tool definition for get_library_status
func getLibraryStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_library_status",
		Description: "Check library statistics, index health, and embedding server availability",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}

// ingestDocumentTool returns the tool definition for ingest_document
func ingestDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        "ingest_document",
		Description: "Ingest an extracted document directory into the library",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"slug": map[string]interface{}{
					"type":        "string",
					"description": "Extraction directory name under the data directory",
				},
				"skip_existing": map[string]interface{}{
					"type":        "boolean",
					"description": "Treat an already-ingested document as success",
					"default":     false,
				},
				"delete_first": map[string]interface{}{
					"type":        "boolean",
					"description": "Replace the document if it already exists",
					"default":     false,
				},
				"embed_content": map[string]interface{}{
					"type":        "boolean",
					"description": "Generate embeddings during ingest",
					"default":     true,
				},
				"dry_run": map[string]interface{}{
					"type":        "boolean",
					"description": "Preview counts without writing",
					"default":     false,
				},
			},
			Required: []string{"slug"},
		},
	}
}
