// Package indexer indexes many files concurrently on a bounded worker pool.
package indexer

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/MereWhiplash/semfind/internal/service"
	"github.com/MereWhiplash/semfind/internal/types"
)

// FileIndexer indexes a single file. *service.Service implements it.
type FileIndexer interface {
	IndexFile(ctx context.Context, path string) (*service.IndexResult, error)
}

// Result is the outcome for one file. Exactly one of Record and Err is set.
type Result struct {
	Path   string            `json:"path"`
	Record *types.FileRecord `json:"record,omitempty"`
	Err    error             `json:"-"`
}

// Summary counts the results of a batch
type Summary struct {
	Indexed  int
	Failed   int
	Duration time.Duration
}

// Indexer submits one IndexFile call per file to an ants pool.
type Indexer struct {
	files  FileIndexer
	pool   *ants.Pool
	logger *slog.Logger
}

// Option configures an Indexer.
type Option func(*Indexer) error

// WithWorkers sets the worker pool size.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithWorkers(size int) Option {
	return func(ix *Indexer) error {
		if size < 1 {
			size = 1
		}
		if ix.pool != nil {
			ix.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		ix.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(ix *Indexer) error {
		if logger != nil {
			ix.logger = logger
		}
		return nil
	}
}

// New creates an Indexer
func New(files FileIndexer, opts ...Option) (*Indexer, error) {
	if files == nil {
		return nil, errors.New("indexer: file indexer is required")
	}

	size := runtime.NumCPU() / 2
	if size < 1 {
		size = 1
	}
	pool, err := ants.NewPool(size)
	if err != nil {
		return nil, err
	}

	ix := &Indexer{
		files:  files,
		pool:   pool,
		logger: slog.Default().With("component", "indexer"),
	}
	for _, opt := range opts {
		if err := opt(ix); err != nil {
			ix.Release()
			return nil, err
		}
	}
	return ix, nil
}

// Release stops the worker pool
func (ix *Indexer) Release() {
	if ix.pool != nil {
		ix.pool.Release()
	}
}

// Index expands paths and indexes every file found. Results follow the
// expanded order; one file's failure does not stop the others.
func (ix *Indexer) Index(ctx context.Context, paths []string) ([]Result, Summary) {
	start := time.Now()
	files := Expand(paths)
	results := make([]Result, len(files))

	var wg sync.WaitGroup
	for i, f := range files {
		results[i].Path = f.Path
		if f.Err != nil {
			results[i].Err = f.Err
			continue
		}

		i, path := i, f.Path
		wg.Add(1)
		err := ix.pool.Submit(func() {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			res, err := ix.files.IndexFile(ctx, path)
			if err != nil {
				results[i].Err = err
				return
			}
			rec := res.Record
			results[i].Record = &rec
		})
		if err != nil {
			wg.Done()
			results[i].Err = err
		}
	}
	wg.Wait()

	sum := Summary{Duration: time.Since(start)}
	for _, r := range results {
		if r.Err != nil {
			sum.Failed++
			ix.logger.Warn("failed to index file", "path", r.Path, "err", r.Err)
			continue
		}
		sum.Indexed++
	}
	ix.logger.Info("batch indexed", "indexed", sum.Indexed, "failed", sum.Failed, "duration", sum.Duration)

	return results, sum
}

// File is an expanded input path
type File struct {
	Path string
	Err  error
}

// Expand resolves each path to the regular files under it. Directories are
// walked recursively and entries whose name starts with "." are skipped.
// Unreadable paths are returned with an IO error.
func Expand(paths []string) []File {
	var out []File
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			out = append(out, File{Path: p, Err: types.IOError("stat", err)})
			continue
		}
		if !info.IsDir() {
			out = append(out, File{Path: p})
			continue
		}

		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				out = append(out, File{Path: path, Err: types.IOError("walk", err)})
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if path != p && strings.HasPrefix(d.Name(), ".") {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.Type().IsRegular() {
				out = append(out, File{Path: path})
			}
			return nil
		})
		if err != nil {
			out = append(out, File{Path: p, Err: types.IOError("walk", err)})
		}
	}
	return out
}
