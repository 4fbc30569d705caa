// Package apitypes contains the HTTP API request and response bodies.
// It has no CGO dependencies so the client and shim can import it.
package apitypes

import (
	"errors"

	"github.com/MereWhiplash/semfind/internal/types"
)

// IndexFileRequest is the body for POST /v1/files
type IndexFileRequest struct {
	Path string `json:"path"`
}

// IndexFileResponse is the response for POST /v1/files
type IndexFileResponse struct {
	File      types.FileRecord `json:"file"`
	Embedding types.Embedding  `json:"embedding"`
}

// SearchRequest is the body for POST /v1/search
type SearchRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

// SearchResponse is the response for POST /v1/search.
// Path is the best match; Matches holds the ranked list when Limit > 1.
type SearchResponse struct {
	Path    string        `json:"path"`
	Matches []types.Match `json:"matches,omitempty"`
}

// ListResponse is the response for GET /v1/files
type ListResponse struct {
	Files      []types.FileRecord `json:"files"`
	Pagination PaginationInfo     `json:"pagination"`
}

// PaginationInfo describes the page returned by a list call
type PaginationInfo struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

// ErrorResponse is returned for all non-2xx responses
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// HealthResponse is the response for GET /health
type HealthResponse struct {
	Status string `json:"status"`
}

// Error kind names carried in ErrorResponse.Kind
const (
	KindIO        = "io"
	KindEmbedding = "embedding"
	KindStore     = "store"
	KindNotFound  = "not_found"
)

// KindOf returns the wire name of err's kind, or "" for untyped errors.
func KindOf(err error) string {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return KindNotFound
	case errors.Is(err, types.ErrIO):
		return KindIO
	case errors.Is(err, types.ErrEmbedding):
		return KindEmbedding
	case errors.Is(err, types.ErrStore):
		return KindStore
	}
	return ""
}

// ErrorFromResponse rebuilds a typed error from an API error body.
func ErrorFromResponse(op string, resp ErrorResponse) error {
	cause := errors.New(resp.Error)
	switch resp.Kind {
	case KindNotFound:
		return types.NotFoundError(op)
	case KindIO:
		return types.IOError(op, cause)
	case KindEmbedding:
		return types.EmbeddingError(op, cause)
	case KindStore:
		return types.StoreError(op, cause)
	}
	return cause
}
