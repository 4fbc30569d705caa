package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MereWhiplash/semfind/internal/mcptypes"
	"github.com/MereWhiplash/semfind/internal/service"
	"github.com/MereWhiplash/semfind/internal/types"
)

// Service is the subset of service.Service the tools call
type Service interface {
	IndexFile(ctx context.Context, path string) (*service.IndexResult, error)
	Search(ctx context.Context, query string) (string, error)
	SearchN(ctx context.Context, query string, limit int) ([]types.Match, error)
	List(ctx context.Context, limit, offset int) ([]types.FileRecord, error)
}

// Handler holds dependencies for tool handlers
type Handler struct {
	svc Service
}

// NewHandler creates a Handler backed by svc
func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

// Register adds all semfind tools to the MCP server
func Register(server *mcp.Server, svc Service) {
	h := NewHandler(svc)

	mcp.AddTool(server, mcptypes.IndexFileTool, h.IndexFile)
	mcp.AddTool(server, mcptypes.SearchTool, h.Search)
	mcp.AddTool(server, mcptypes.SearchFilesTool, h.SearchFiles)
	mcp.AddTool(server, mcptypes.ListFilesTool, h.ListFiles)
}

func (h *Handler) IndexFile(ctx context.Context, req *mcp.CallToolRequest, input mcptypes.IndexFileInput) (*mcp.CallToolResult, mcptypes.IndexFileOutput, error) {
	if input.Path == "" {
		return mcptypes.ErrorResult("path is required"), mcptypes.IndexFileOutput{}, nil
	}

	res, err := h.svc.IndexFile(ctx, input.Path)
	if err != nil {
		return mcptypes.ErrorResult(fmt.Sprintf("failed to index file: %v", err)), mcptypes.IndexFileOutput{}, nil
	}

	return mcptypes.TextResult(res.Embedding.String()), mcptypes.IndexFileOutput{
		File:      res.Record,
		Embedding: res.Embedding,
	}, nil
}

func (h *Handler) Search(ctx context.Context, req *mcp.CallToolRequest, input mcptypes.SearchInput) (*mcp.CallToolResult, mcptypes.SearchOutput, error) {
	if input.Query == "" {
		return mcptypes.ErrorResult("query is required"), mcptypes.SearchOutput{}, nil
	}

	path, err := h.svc.Search(ctx, input.Query)
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

	matches, err := h.svc.SearchN(ctx, input.Query, limit)
	if err != nil {
		return mcptypes.ErrorResult(fmt.Sprintf("failed to search: %v", err)), mcptypes.SearchFilesOutput{}, nil
	}

	if len(matches) == 0 {
		return mcptypes.TextResult("No matching files found."), mcptypes.SearchFilesOutput{Matches: []types.Match{}}, nil
	}

	result, err := json.MarshalIndent(matches, "", "  ")
	if err != nil {
		return mcptypes.ErrorResult(fmt.Sprintf("failed to format response: %v", err)), mcptypes.SearchFilesOutput{}, nil
	}
	return mcptypes.TextResult(string(result)), mcptypes.SearchFilesOutput{Matches: matches}, nil
}

func (h *Handler) ListFiles(ctx context.Context, req *mcp.CallToolRequest, input mcptypes.ListFilesInput) (*mcp.CallToolResult, mcptypes.ListFilesOutput, error) {
	files, err := h.svc.List(ctx, input.Limit, input.Offset)
	if err != nil {
		return mcptypes.ErrorResult(fmt.Sprintf("failed to list: %v", err)), mcptypes.ListFilesOutput{}, nil
	}

	if len(files) == 0 {
		return mcptypes.TextResult("No files found."), mcptypes.ListFilesOutput{Files: []types.FileRecord{}}, nil
	}

	result, err := json.MarshalIndent(files, "", "  ")
	if err != nil {
		return mcptypes.ErrorResult(fmt.Sprintf("failed to format response: %v", err)), mcptypes.ListFilesOutput{}, nil
	}
	return mcptypes.TextResult(string(result)), mcptypes.ListFilesOutput{Files: files}, nil
}
