package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	mcpgo "github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragrep/ragrep/internal/chunker"
	"github.com/ragrep/ragrep/internal/config"
	"github.com/ragrep/ragrep/internal/embedder"
	"github.com/ragrep/ragrep/internal/indexer"
	"github.com/ragrep/ragrep/internal/recall"
	"github.com/ragrep/ragrep/internal/storage"
)

func newTestServer(t *testing.T) (*Server, string) {
	t.Helper()
	root := t.TempDir()

	store, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	emb, err := embedder.NewLocalProvider(embedder.NewCache(100))
	require.NoError(t, err)

	ch, err := chunker.New(1000, 200)
	require.NoError(t, err)

	cfg := &config.Config{
		ChunkSize:    1000,
		ChunkOverlap: 200,
		Staleness:    config.StalenessMtime,
		MaxFileSize:  1 << 20,
	}
	idx := indexer.New(store, emb, ch, cfg, zerolog.Nop())
	engine := recall.NewEngine(store, emb, idx, zerolog.Nop())
	return NewServer(store, idx, engine, root), root
}

func toolRequest(args map[string]interface{}) mcpgo.CallToolRequest {
	return mcpgo.CallToolRequest{
		Params: mcpgo.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcpgo.CallToolResult) map[string]interface{} {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := mcpgo.AsTextContent(result.Content[0])
	require.True(t, ok)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload
}

func TestHandleIndexAndStats(t *testing.T) {
	s, root := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("hello world\n"), 0o644))

	result, err := s.handleIndex(context.Background(), toolRequest(nil))
	require.NoError(t, err)
	payload := resultText(t, result)
	assert.EqualValues(t, 1, payload["files_indexed"])
	assert.EqualValues(t, 1, payload["chunks_created"])

	result, err = s.handleStats(context.Background(), toolRequest(nil))
	require.NoError(t, err)
	payload = resultText(t, result)
	assert.EqualValues(t, 1, payload["file_count"])
	assert.Equal(t, embedder.DefaultLocalModel, payload["model"])
	assert.Contains(t, payload, "last_indexed_at")
}

func TestHandleRecall(t *testing.T) {
	s, root := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("needle in a haystack"), 0o644))

	result, err := s.handleRecall(context.Background(), toolRequest(map[string]interface{}{
		"query": "needle in a haystack",
		"limit": float64(3),
	}))
	require.NoError(t, err)
	payload := resultText(t, result)

	matches, ok := payload["matches"].([]interface{})
	require.True(t, ok)
	require.Len(t, matches, 1)
	first := matches[0].(map[string]interface{})
	assert.Equal(t, "a.txt", first["source_path"])
	assert.InDelta(t, 1.0, first["score"].(float64), 1e-6)
}

func TestHandleRecallAutoIndexOff(t *testing.T) {
	s, root := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("needle in a haystack"), 0o644))

	// auto_index false leaves the never-indexed store empty.
	result, err := s.handleRecall(context.Background(), toolRequest(map[string]interface{}{
		"query":      "needle in a haystack",
		"auto_index": false,
	}))
	require.NoError(t, err)
	matches, ok := resultText(t, result)["matches"].([]interface{})
	require.True(t, ok)
	assert.Empty(t, matches)

	// The default refreshes the index first.
	result, err = s.handleRecall(context.Background(), toolRequest(map[string]interface{}{
		"query": "needle in a haystack",
	}))
	require.NoError(t, err)
	matches, ok = resultText(t, result)["matches"].([]interface{})
	require.True(t, ok)
	assert.Len(t, matches, 1)
}

func TestHandleRecallRequiresQuery(t *testing.T) {
	s, _ := newTestServer(t)

	_, err := s.handleRecall(context.Background(), toolRequest(map[string]interface{}{}))
	require.Error(t, err)
	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeEmptyQuery, mcpErr.Code)
}

func TestHandleIndexForce(t *testing.T) {
	s, root := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("content\n"), 0o644))

	_, err := s.handleIndex(context.Background(), toolRequest(nil))
	require.NoError(t, err)

	// Without force the second run is a no-op; with force it re-embeds.
	result, err := s.handleIndex(context.Background(), toolRequest(nil))
	require.NoError(t, err)
	assert.EqualValues(t, 0, resultText(t, result)["files_indexed"])

	result, err = s.handleIndex(context.Background(), toolRequest(map[string]interface{}{"force": true}))
	require.NoError(t, err)
	assert.EqualValues(t, 1, resultText(t, result)["files_indexed"])
}
