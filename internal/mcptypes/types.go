// internal/mcptypes/types.go
// Package mcptypes contains shared MCP tool input/output types.
// These are used by both the direct MCP server (tools) and the shim proxy.
package mcptypes

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MereWhiplash/semfind/internal/types"
)

// IndexFileInput defines the input schema for index_file
type IndexFileInput struct {
	Path string `json:"path" jsonschema:"required" jsonschema_description:"Path of the text file to index"`
}

// IndexFileOutput defines the output schema for index_file
type IndexFileOutput struct {
	File      types.FileRecord `json:"file"`
	Embedding types.Embedding  `json:"embedding"`
}

// SearchInput defines the input schema for search
type SearchInput struct {
	Query string `json:"query" jsonschema:"required" jsonschema_description:"Free-text description of the file to find"`
}

// SearchOutput defines the output schema for search
type SearchOutput struct {
	Path string `json:"path"`
}

// SearchFilesInput defines the input schema for search_files
type SearchFilesInput struct {
	Query string `json:"query" jsonschema:"required" jsonschema_description:"Free-text description of the files to find"`
	Limit int    `json:"limit,omitempty" jsonschema_description:"Maximum number of results (default: 5)"`
}

// SearchFilesOutput defines the output schema for search_files
type SearchFilesOutput struct {
	Matches []types.Match `json:"matches"`
}

// ListFilesInput defines the input schema for list_files
type ListFilesInput struct {
	Limit  int `json:"limit,omitempty" jsonschema_description:"Maximum number of results (default: 20)"`
	Offset int `json:"offset,omitempty" jsonschema_description:"Number of files to skip"`
}

// ListFilesOutput defines the output schema for list_files
type ListFilesOutput struct {
	Files []types.FileRecord `json:"files"`
}

// TextResult creates a successful MCP result with text content
func TextResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

// ErrorResult creates an error MCP result
func ErrorResult(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// Tool definitions (shared between server and shim)
var (
	IndexFileTool = &mcp.Tool{
		Name:        "index_file",
		Description: "Index a text file for semantic search and return its embedding",
	}

	SearchTool = &mcp.Tool{
		Name:        "search",
		Description: "Return the path of the indexed file most similar to a query",
	}

	SearchFilesTool = &mcp.Tool{
		Name:        "search_files",
		Description: "Rank indexed files by semantic similarity to a query",
	}

	ListFilesTool = &mcp.Tool{
		Name:        "list_files",
		Description: "List indexed files, newest first",
	}
)
