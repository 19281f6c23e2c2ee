package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// recallTool returns the tool definition for recall
func recallTool() mcp.Tool {
	return mcp.Tool{
		Name:        "recall",
		Description: "Semantically search the indexed tree and return the most relevant chunks. By default the index is refreshed before the query.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language or keyword query",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     5,
					"minimum":     1,
					"maximum":     100,
				},
				"auto_index": map[string]interface{}{
					"type":        "boolean",
					"description": "If false, query the store as-is without refreshing the index first",
					"default":     true,
				},
			},
			Required: []string{"query"},
		},
	}
}

// indexTool returns the tool definition for index
func indexTool() mcp.Tool {
	return mcp.Tool{
		Name:        "index",
		Description: "Incrementally index the tree: embed added and modified files, prune deleted ones",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"force": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, drop all indexed data and rebuild from scratch",
					"default":     false,
				},
			},
		},
	}
}

// statsTool returns the tool definition for stats
func statsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "stats",
		Description: "Report index contents: file count, chunk count, store size, model, last index time",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
