package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ragrep/ragrep/internal/indexer"
	"github.com/ragrep/ragrep/pkg/types"
)

// MCP error codes
const (
	ErrorCodeInvalidParams      = -32602 // Invalid method parameters
	ErrorCodeInternalError      = -32603 // Internal JSON-RPC error
	ErrorCodeIndexingInProgress = -32002 // Another indexing operation is already running
	ErrorCodeEmptyQuery         = -32004 // Query parameter is empty
	ErrorCodeProviderFailed     = -32005 // Embedding provider unreachable or failed
)

// handleRecall handles the recall tool invocation
func (s *Server) handleRecall(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
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
	limit := getIntDefault(args, "limit", 0)
	autoIndex := getBoolDefault(args, "auto_index", true)

	matches, err := s.engine.Recall(ctx, query, s.root, limit, autoIndex)
	if err != nil {
		return nil, classifyError(err, "recall failed")
	}

	results := make([]map[string]interface{}, len(matches))
	for i, m := range matches {
		results[i] = map[string]interface{}{
			"score":          m.Score,
			"source_path":    m.SourcePath,
			"sequence_index": m.SequenceIndex,
			"start_offset":   m.StartOffset,
			"end_offset":     m.EndOffset,
			"chunk_text":     m.ChunkText,
		}
	}
	return mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"query":   query,
		"matches": results,
	})), nil
}

// handleIndex handles the index tool invocation
func (s *Server) handleIndex(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	force := false
	if args, ok := request.Params.Arguments.(map[string]interface{}); ok {
		force, _ = args["force"].(bool)
	}

	summary, err := s.idx.Run(ctx, s.root, force)
	if err != nil {
		return nil, classifyError(err, "indexing failed")
	}

	response := map[string]interface{}{
		"files_scanned":   summary.FilesScanned,
		"files_indexed":   summary.FilesIndexed,
		"files_unchanged": summary.FilesUnchanged,
		"files_skipped":   summary.FilesSkipped,
		"files_deleted":   summary.FilesDeleted,
		"chunks_created":  summary.ChunksCreated,
		"duration_ms":     summary.Duration.Milliseconds(),
	}
	if len(summary.Errors) > 0 {
		errorCount := len(summary.Errors)
		if errorCount > 5 {
			response["errors"] = summary.Errors[:5]
			response["error_count"] = errorCount
		} else {
			response["errors"] = summary.Errors
		}
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleStats handles the stats tool invocation
func (s *Server) handleStats(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, classifyError(err, "stats failed")
	}

	response := map[string]interface{}{
		"root":             s.root,
		"file_count":       stats.FileCount,
		"chunk_count":      stats.ChunkCount,
		"embedding_count":  stats.EmbeddingCount,
		"store_size_bytes": stats.StoreSizeBytes,
		"model":            stats.Model,
	}
	if !stats.LastIndexedAt.IsZero() {
		response["last_indexed_at"] = stats.LastIndexedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// classifyError maps pipeline errors onto MCP error codes
func classifyError(err error, message string) error {
	code := ErrorCodeInternalError
	switch {
	case errors.Is(err, indexer.ErrIndexInProgress):
		code = ErrorCodeIndexingInProgress
	case errors.Is(err, types.ErrProviderUnavailable):
		code = ErrorCodeProviderFailed
	case errors.Is(err, types.ErrConfig), errors.Is(err, types.ErrRootMismatch):
		code = ErrorCodeInvalidParams
	}
	return newMCPError(code, message, map[string]interface{}{
		"error": err.Error(),
	})
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
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

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
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

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}
