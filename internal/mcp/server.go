// Package mcp exposes the indexing and recall pipeline as Model Context
// Protocol tools over stdio, so agent hosts can search a local tree without
// shelling out to the CLI.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ragrep/ragrep/internal/indexer"
	"github.com/ragrep/ragrep/internal/recall"
	"github.com/ragrep/ragrep/internal/storage"
)

const (
	// ServerName is the MCP server name
	ServerName = "ragrep"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp    *server.MCPServer
	store  storage.Store
	idx    *indexer.Indexer
	engine *recall.Engine
	root   string
}

// NewServer creates an MCP server over an already assembled pipeline. root
// is the tree the server answers queries about.
func NewServer(store storage.Store, idx *indexer.Indexer, engine *recall.Engine, root string) *Server {
	mcpServer := server.NewMCPServer(
		ServerName,
		ServerVersion,
	)

	s := &Server{
		mcp:    mcpServer,
		store:  store,
		idx:    idx,
		engine: engine,
		root:   root,
	}
	s.registerTools()
	return s
}

// Serve starts the MCP server on stdio and blocks until shutdown
func (s *Server) Serve(ctx context.Context) error {
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(recallTool(), s.handleRecall)
	s.mcp.AddTool(indexTool(), s.handleIndex)
	s.mcp.AddTool(statsTool(), s.handleStats)
}
