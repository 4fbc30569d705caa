// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/MereWhiplash/semfind/internal/apitypes"
	"github.com/MereWhiplash/semfind/internal/service"
	"github.com/MereWhiplash/semfind/internal/types"
)

// Service is the subset of service.Service the handlers call
type Service interface {
	IndexFile(ctx context.Context, path string) (*service.IndexResult, error)
	Search(ctx context.Context, query string) (string, error)
	SearchN(ctx context.Context, query string, limit int) ([]types.Match, error)
	List(ctx context.Context, limit, offset int) ([]types.FileRecord, error)
	Count(ctx context.Context) (int64, error)
}

// Handlers holds HTTP handler dependencies
type Handlers struct {
	svc         Service
	logger      *slog.Logger
	healthCheck func(ctx context.Context) error
}

// NewHandlers creates new API handlers
func NewHandlers(svc Service) *Handlers {
	return &Handlers{
		svc:    svc,
		logger: slog.Default().With("component", "api"),
	}
}

// respondJSON marshals before writing the status; an encode failure becomes a 500.
func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		h.logger.Error("failed to encode response", "err", err)
		status = http.StatusInternalServerError
		body, _ = json.Marshal(apitypes.ErrorResponse{Error: "failed to encode response: " + err.Error()})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.logger.Warn("failed to write response", "err", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, msg string) {
	h.respondJSON(w, status, apitypes.ErrorResponse{Error: msg})
}

// respondServiceError maps the error taxonomy onto HTTP status codes
func (h *Handlers) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "request_id", GetRequestID(r.Context()), "path", r.URL.Path, "err", err)
	}
	h.respondJSON(w, status, apitypes.ErrorResponse{
		Error: err.Error(),
		Kind:  apitypes.KindOf(err),
	})
}

// StatusFor returns the HTTP status code for a service error
func StatusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrIO):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrEmbedding):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// SetHealthCheck sets the probe run by Health
func (h *Handlers) SetHealthCheck(check func(ctx context.Context) error) {
	h.healthCheck = check
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.healthCheck != nil {
		if err := h.healthCheck(r.Context()); err != nil {
			h.logger.Warn("health check failed", "err", err)
			h.respondJSON(w, http.StatusServiceUnavailable, apitypes.HealthResponse{Status: "unhealthy"})
			return
		}
	}
	h.respondJSON(w, http.StatusOK, apitypes.HealthResponse{Status: "ok"})
}

// IndexFile handles POST /v1/files
func (h *Handlers) IndexFile(w http.ResponseWriter, r *http.Request) {
	var req apitypes.IndexFileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Path == "" {
		h.respondError(w, http.StatusBadRequest, "path is required")
		return
	}

	res, err := h.svc.IndexFile(r.Context(), req.Path)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	h.respondJSON(w, http.StatusCreated, apitypes.IndexFileResponse{
		File:      res.Record,
		Embedding: res.Embedding,
	})
}

// Search handles POST /v1/search
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	var req apitypes.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.Query == "" {
		h.respondError(w, http.StatusBadRequest, "query is required")
		return
	}

	ctx := r.Context()

	if req.Limit <= 1 {
		path, err := h.svc.Search(ctx, req.Query)
		if err != nil {
			h.respondServiceError(w, r, err)
			return
		}
		h.respondJSON(w, http.StatusOK, apitypes.SearchResponse{Path: path})
		return
	}

	matches, err := h.svc.SearchN(ctx, req.Query, req.Limit)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if len(matches) == 0 {
		h.respondServiceError(w, r, types.NotFoundError("search"))
		return
	}

	h.respondJSON(w, http.StatusOK, apitypes.SearchResponse{
		Path:    matches[0].Path,
		Matches: matches,
	})
}

// List handles GET /v1/files
func (h *Handlers) List(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	offset := 0
	if o := r.URL.Query().Get("offset"); o != "" {
		if parsed, err := strconv.Atoi(o); err == nil && parsed > 0 {
			offset = parsed
		}
	}

	ctx := r.Context()

	files, err := h.svc.List(ctx, limit, offset)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	total, err := h.svc.Count(ctx)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}
	if files == nil {
		files = []types.FileRecord{}
	}

	h.respondJSON(w, http.StatusOK, apitypes.ListResponse{
		Files: files,
		Pagination: apitypes.PaginationInfo{
			Limit:  limit,
			Offset: offset,
			Total:  total,
		},
	})
}
