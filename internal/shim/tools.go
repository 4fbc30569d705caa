// internal/shim/tools.go
package shim

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MereWhiplash/semfind/internal/apitypes"
	"github.com/MereWhiplash/semfind/internal/mcptypes"
	"github.com/MereWhiplash/semfind/internal/types"
)

// APIClient is the subset of client.Client the shim forwards to
type APIClient interface {
	IndexFile(ctx context.Context, path string) (*apitypes.IndexFileResponse, error)
	Search(ctx context.Context, query string) (string, error)
	SearchN(ctx context.Context, query string, limit int) ([]types.Match, error)
	List(ctx context.Context, limit, offset int) (*apitypes.ListResponse, error)
}

// Handler holds shim dependencies
type Handler struct {
	client APIClient
}

// NewHandler creates a new shim handler
func NewHandler(c APIClient) *Handler {
	return &Handler{client: c}
}

// Register adds all semfind tools to the MCP server
func Register(server *mcp.Server, h *Handler) {
	mcp.AddTool(server, mcptypes.IndexFileTool, h.IndexFile)
	mcp.AddTool(server, mcptypes.SearchTool, h.Search)
	mcp.AddTool(server, mcptypes.SearchFilesTool, h.SearchFiles)
	mcp.AddTool(server, mcptypes.ListFilesTool, h.ListFiles)
}

func (h *Handler) IndexFile(ctx context.Context, req *mcp.CallToolRequest, input mcptypes.IndexFileInput) (*mcp.CallToolResult, mcptypes.IndexFileOutput, error) {
	if input.Path == "" {
		return mcptypes.ErrorResult("path is required"), mcptypes.IndexFileOutput{}, nil
	}

	res, err := h.client.IndexFile(ctx, input.Path)
	if err != nil {
		return mcptypes.ErrorResult(fmt.Sprintf("failed to index file: %v", err)), mcptypes.IndexFileOutput{}, nil
	}

	return mcptypes.TextResult(res.Embedding.String()), mcptypes.IndexFileOutput{
		File:      res.File,
		Embedding: res.Embedding,
	}, nil
}

func (h *Handler) Search(ctx context.Context, req *mcp.CallToolRequest, input mcptypes.SearchInput) (*mcp.CallToolResult, mcptypes.SearchOutput, error) {
	if input.Query == "" {
		return mcptypes.ErrorResult("query is required"), mcptypes.SearchOutput{}, nil
	}

	path, err := h.client.Search(ctx, input.Query)
	if errors.Is(err, types.ErrNotFound) {
		return mcptypes.ErrorResult("No files have been indexed yet."), mcptypes.SearchOutput{}, nil
	}
	if err != nil {
		return mcptypes.ErrorResult(fmt.Sprintf("failed to search: %v", err)), mcptypes.SearchOutput{}, nil
	}

	return mcptypes.TextResult(path), mcptypes.SearchOutput{Path: path}, nil
}

func (h *Handler) SearchFiles(ctx context.Context, req *mcp.CallToolRequest, input mcptypes.SearchFilesInput) (*mcp.CallToolResult, mcptypes.SearchFilesOutput, error) {
	if input.Query == "" {
		return mcptypes.ErrorResult("query is required"), mcptypes.SearchFilesOutput{}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 5
	}

	matches, err := h.client.SearchN(ctx, input.Query, limit)
	if errors.Is(err, types.ErrNotFound) || (err == nil && len(matches) == 0) {
		return mcptypes.TextResult("No matching files found."), mcptypes.SearchFilesOutput{Matches: []types.Match{}}, nil
	}
	if err != nil {
		return mcptypes.ErrorResult(fmt.Sprintf("failed to search: %v", err)), mcptypes.SearchFilesOutput{}, nil
	}

	result, _ := json.MarshalIndent(matches, "", "  ")
	return mcptypes.TextResult(string(result)), mcptypes.SearchFilesOutput{Matches: matches}, nil
}

func (h *Handler) ListFiles(ctx context.Context, req *mcp.CallToolRequest, input mcptypes.ListFilesInput) (*mcp.CallToolResult, mcptypes.ListFilesOutput, error) {
	res, err := h.client.List(ctx, input.Limit, input.Offset)
	if err != nil {
		return mcptypes.ErrorResult(fmt.Sprintf("failed to list: %v", err)), mcptypes.ListFilesOutput{}, nil
	}

	if len(res.Files) == 0 {
		return mcptypes.TextResult("No files found."), mcptypes.ListFilesOutput{Files: []types.FileRecord{}}, nil
	}

	result, _ := json.MarshalIndent(res.Files, "", "  ")
	return mcptypes.TextResult(string(result)), mcptypes.ListFilesOutput{Files: res.Files}, nil
}
