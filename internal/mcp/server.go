package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/server"

	"github.com/raymondclowe/RememBot/internal/classifier"
	"github.com/raymondclowe/RememBot/internal/extractor"
	"github.com/raymondclowe/RememBot/internal/search"
	"github.com/raymondclowe/RememBot/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "remembot-mcp"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp         *server.MCPServer
	store       storage.Store
	engine      *search.Engine
	pipeline    *extractor.Pipeline
	taxonomy    classifier.Classifier
	maxAttempts int
}

// NewServer creates a new MCP server instance over an already-open store.
// Plain text submissions are extracted and classified inline; everything
// else lands in the pending queue for the background worker. A nil taxonomy
// falls back to the keyword classifier so inline saves still get one.
func NewServer(store storage.Store, engine *search.Engine, pipeline *extractor.Pipeline, taxonomy classifier.Classifier, maxAttempts int) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if engine == nil {
		engine = search.NewEngine(store, nil)
	}
	if pipeline == nil {
		pipeline = extractor.New(nil, nil)
	}
	if taxonomy == nil {
		taxonomy = classifier.NewKeyword()
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:         mcpServer,
		store:       store,
		engine:      engine,
		pipeline:    pipeline,
		taxonomy:    taxonomy,
		maxAttempts: maxAttempts,
	}

	if err := s.registerTools(); err != nil {
		return nil, fmt.Errorf("failed to register tools: %w", err)
	}

	return s, nil
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	defer func() { _ = s.store.Close() }()
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() error {
	s.mcp.AddTool(saveContentTool(), s.handleSaveContent)
	s.mcp.AddTool(searchContentTool(), s.handleSearchContent)
	s.mcp.AddTool(listContentTool(), s.handleListContent)
	s.mcp.AddTool(getItemTool(), s.handleGetItem)
	s.mcp.AddTool(updateItemTool(), s.handleUpdateItem)
	s.mcp.AddTool(deleteItemTool(), s.handleDeleteItem)
	s.mcp.AddTool(getRecentActivityTool(), s.handleGetRecentActivity)
	s.mcp.AddTool(getStatsTool(), s.handleGetStats)

	return nil
}
