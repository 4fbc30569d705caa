//go:build !cgo

package storage

import (
	"context"
	"fmt"

	"github.com/MereWhiplash/semfind/internal/types"
)

// SQLite is a stub for non-CGO builds
type SQLite struct{}

var errNoCGO = fmt.Errorf("SQLite storage requires CGO (build with CGO_ENABLED=1)")

// NewSQLite returns an error in non-CGO builds
func NewSQLite(path string, dims int) (*SQLite, error) {
	return nil, types.StoreError("open", errNoCGO)
}

func (s *SQLite) Insert(ctx context.Context, path string, embedding types.Embedding) (*types.FileRecord, error) {
	return nil, types.StoreError("insert", errNoCGO)
}

func (s *SQLite) Search(ctx context.Context, embedding types.Embedding, k int) ([]types.Match, error) {
	return nil, types.StoreError("search", errNoCGO)
}

func (s *SQLite) List(ctx context.Context, opts types.ListOpts) ([]types.FileRecord, error) {
	return nil, types.StoreError("list", errNoCGO)
}

func (s *SQLite) Count(ctx context.Context) (int64, error) {
	return 0, types.StoreError("count", errNoCGO)
}

func (s *SQLite) Close() error {
	return nil
}
