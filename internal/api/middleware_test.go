package api_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/MereWhiplash/semfind/internal/api"
)

func TestRequestID_Generated(t *testing.T) {
	var captured string

	handler := api.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = api.GetRequestID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/test", nil))

	if _, err := uuid.Parse(captured); err != nil {
		t.Errorf("expected a uuid request id, got %q", captured)
	}
	if got := rr.Header().Get(api.RequestIDHeader); got != captured {
		t.Errorf("expected response header %q, got %q", captured, got)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	var captured string

	handler := api.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = api.GetRequestID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set(api.RequestIDHeader, "abc-123")
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if captured != "abc-123" {
		t.Errorf("expected 'abc-123', got %q", captured)
	}
}

func TestMaxBodySize(t *testing.T) {
	var readErr error

	handler := api.MaxBodySize(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	body := strings.NewReader(strings.Repeat("x", api.MaxBodyBytes+1))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/test", body))

	if readErr == nil {
		t.Error("expected oversized body to fail")
	}
}
