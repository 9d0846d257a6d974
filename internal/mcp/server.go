package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mark3labs/mcp-go/server"

	"github.com/paperstack/doclibrary/internal/config"
	"github.com/paperstack/doclibrary/internal/embedder"
	"github.com/paperstack/doclibrary/internal/indexer"
	"github.com/paperstack/doclibrary/internal/searcher"
	"github.com/paperstack/doclibrary/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "doclibrary"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp          *server.MCPServer
	storage      storage.Storage
	embedder     embedder.Embedder
	indexer      *indexer.Indexer
	searcher     *searcher.Searcher
	configSource string
}

// NewServer creates a new MCP server instance from the effective
// configuration
func NewServer(cfg config.Config) (*Server, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	emb, err := embedder.New(embedder.Config{
		Provider:  cfg.EmbedProvider,
		BaseURL:   cfg.EmbedURL,
		APIKey:    os.Getenv(embedder.EnvOpenAIKey),
		CacheSize: 10000,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	idx, err := indexer.New(store, emb, indexer.Config{
		DataDir:      cfg.DataDir,
		ChunkSize:    cfg.ChunkSize,
		ChunkOverlap: cfg.ChunkOverlap,
	})
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize indexer: %w", err)
	}

	srch := searcher.NewSearcher(store, emb, searcher.SearchConfig{
		LowBarPct:          cfg.LowBarPct,
		ConfidenceFloorPct: cfg.ConfidenceFloorPct,
	})

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:          mcpServer,
		storage:      store,
		embedder:     emb,
		indexer:      idx,
		searcher:     srch,
		configSource: cfg.Source,
	}
	s.registerTools()

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer s.Close()
	return server.ServeStdio(s.mcp)
}

// Close releases the server's resources
func (s *Server) Close() {
	_ = s.embedder.Close()
	_ = s.storage.Close()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(searchDocumentsTool(), s.handleSearchDocuments)
	s.mcp.AddTool(searchVisualElementsTool(), s.handleSearchVisualElements)
	s.mcp.AddTool(listDocumentsTool(), s.handleListDocuments)
	s.mcp.AddTool(getElementDetailsTool(), s.handleGetElementDetails)
	s.mcp.AddTool(getChunkContextTool(), s.handleGetChunkContext)
	s.mcp.AddTool(getLibraryStatusTool(), s.handleGetLibraryStatus)
	s.mcp.AddTool(ingestDocumentTool(), s.handleIngestDocument)
}
