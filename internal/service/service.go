// internal/service/service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/MereWhiplash/semfind/internal/embedder"
	"github.com/MereWhiplash/semfind/internal/guard"
	"github.com/MereWhiplash/semfind/internal/metrics"
	"github.com/MereWhiplash/semfind/internal/storage"
	"github.com/MereWhiplash/semfind/internal/types"
)

// Service contains the business logic for indexing and searching files.
// The embedder guards its own session and tokenizer; the store is guarded here.
type Service struct {
	store    *guard.Mutex[storage.Storage]
	embedder embedder.Embedder
	logger   *slog.Logger
}

// IndexResult is the outcome of indexing a single file
type IndexResult struct {
	Record    types.FileRecord
	Embedding types.Embedding
}

// New creates a new Service
func New(store storage.Storage, emb embedder.Embedder) *Service {
	return &Service{
		store:    guard.New[storage.Storage]("store", store),
		embedder: emb,
		logger:   slog.Default().With("component", "service"),
	}
}

// IndexFile reads the file at path, embeds its content as a document and
// stores it under the file's absolute path.
func (s *Service) IndexFile(ctx context.Context, path string) (res *IndexResult, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("index", start, err) }()

	if path == "" {
		return nil, types.IOError("read file", fmt.Errorf("path is empty"))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, types.IOError("read file", err)
	}

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, types.IOError("read file", err)
	}
	if !utf8.Valid(content) {
		return nil, types.IOError("read file", fmt.Errorf("%s is not valid UTF-8 text", abs))
	}

	emb, err := embedder.ForStorage(ctx, s.embedder, string(content))
	if err != nil {
		return nil, err
	}

	rec, err := withStore(s, "insert", func(st storage.Storage) (*types.FileRecord, error) {
		return st.Insert(ctx, abs, emb)
	})
	if err != nil {
		s.logger.Error("failed to store file", "path", abs, "err", err)
		return nil, err
	}

	s.logger.Info("indexed file", "id", rec.ID, "path", abs, "bytes", len(content), "duration", time.Since(start))
	return &IndexResult{Record: *rec, Embedding: emb}, nil
}

// withStore runs fn under the store lock. Failures that carry no error kind,
// such as a recovered panic, are reported as store errors.
func withStore[R any](s *Service, op string, fn func(storage.Storage) (R, error)) (R, error) {
	out, err := guard.With(s.store, fn)
	if err != nil && !types.HasKind(err) {
		return out, types.StoreError(op, err)
	}
	return out, err
}

// Search returns the path of the file most similar to query
func (s *Service) Search(ctx context.Context, query string) (path string, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("search", start, err) }()

	emb, err := embedder.ForSearch(ctx, s.embedder, query)
	if err != nil {
		return "", err
	}

	path, err = withStore(s, "search", func(st storage.Storage) (string, error) {
		return storage.SearchTop1(ctx, st, emb)
	})
	if err != nil {
		return "", err
	}

	s.logger.Debug("search", "path", path, "duration", time.Since(start))
	return path, nil
}

// SearchN returns up to limit files ranked by similarity to query
func (s *Service) SearchN(ctx context.Context, query string, limit int) (matches []types.Match, err error) {
	start := time.Now()
	defer func() { metrics.ObserveOperation("search_n", start, err) }()

	if limit <= 0 {
		limit = 5
	}

	emb, err := embedder.ForSearch(ctx, s.embedder, query)
	if err != nil {
		return nil, err
	}

	return withStore(s, "search", func(st storage.Storage) ([]types.Match, error) {
		return st.Search(ctx, emb, limit)
	})
}

// List returns indexed files, newest first
func (s *Service) List(ctx context.Context, limit, offset int) ([]types.FileRecord, error) {
	return withStore(s, "list", func(st storage.Storage) ([]types.FileRecord, error) {
		return st.List(ctx, types.ListOpts{Limit: limit, Offset: offset})
	})
}

// Count returns the number of indexed files
func (s *Service) Count(ctx context.Context) (int64, error) {
	return withStore(s, "count", func(st storage.Storage) (int64, error) {
		return st.Count(ctx)
	})
}

// Close cleans up resources
func (s *Service) Close() error {
	_, err := withStore(s, "close", func(st storage.Storage) (struct{}, error) {
		return struct{}{}, st.Close()
	})
	if c, ok := s.embedder.(interface{ Close() error }); ok {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}
