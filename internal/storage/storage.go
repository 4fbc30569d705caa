package storage

import (
	"context"
	"fmt"

	"github.com/MereWhiplash/semfind/internal/types"
)

// Storage defines the interface for indexed file persistence
type Storage interface {
	// Insert writes the file row and its embedding atomically and returns the new row
	Insert(ctx context.Context, path string, embedding types.Embedding) (*types.FileRecord, error)
	// Search returns up to k nearest files, best first
	Search(ctx context.Context, embedding types.Embedding, k int) ([]types.Match, error)
	List(ctx context.Context, opts types.ListOpts) ([]types.FileRecord, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}

// DefaultListLimit applies when ListOpts.Limit is not set
const DefaultListLimit = 20

// tieSlack is the number of extra nearest-neighbour candidates fetched by
// index-backed searches so that ties at the cut-off are resolved by id.
const tieSlack = 16

// SearchTop1 returns the path of the single nearest file
func SearchTop1(ctx context.Context, s Storage, embedding types.Embedding) (string, error) {
	matches, err := s.Search(ctx, embedding, 1)
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", types.NotFoundError("search")
	}
	return matches[0].Path, nil
}

func checkDims(op string, want int, embedding types.Embedding) error {
	if len(embedding) != want {
		return types.StoreError(op, fmt.Errorf("%w: got %d, want %d", types.ErrDimensionMismatch, len(embedding), want))
	}
	return nil
}

func checkPath(path string) error {
	if path == "" {
		return types.StoreError("insert", fmt.Errorf("file path is empty"))
	}
	return nil
}

func listLimit(opts types.ListOpts) (limit, offset int) {
	limit = opts.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	offset = opts.Offset
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
