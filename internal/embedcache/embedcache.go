// Package embedcache persists embeddings in BadgerDB so unchanged text is
// not sent through the model twice.
package embedcache

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/MereWhiplash/semfind/internal/codec"
	"github.com/MereWhiplash/semfind/internal/embedder"
	"github.com/MereWhiplash/semfind/internal/metrics"
	"github.com/MereWhiplash/semfind/internal/types"
)

const keyPrefix = "emb:"

// Store is a key/value cache of encoded embeddings
type Store struct {
	db     *badger.DB
	logger *slog.Logger
}

type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// Open opens the cache directory at path, creating it if needed.
// With inMemory set, path is ignored and nothing touches disk.
func Open(path string, inMemory bool) (*Store, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if path == "" {
			return nil, fmt.Errorf("cache path is required")
		}
		if err := os.MkdirAll(path, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}

	logger := slog.Default().With("component", "embedcache")
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedding cache: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Get returns the cached embedding for key. ok is false on a miss.
func (s *Store) Get(key []byte) (emb types.Embedding, ok bool, err error) {
	err = s.db.View(func(tx *badger.Txn) error {
		item, err := tx.Get(key)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return nil
			}
			return err
		}
		return item.Value(func(val []byte) error {
			emb, err = codec.Decode(val)
			if err != nil {
				return err
			}
			ok = true
			return nil
		})
	})
	if err != nil {
		return nil, false, err
	}
	return emb, ok, nil
}

// Put stores emb under key
func (s *Store) Put(key []byte, emb types.Embedding) error {
	return s.db.Update(func(tx *badger.Txn) error {
		return tx.Set(key, codec.Encode(emb))
	})
}

// Len returns the number of cached embeddings
func (s *Store) Len() (int, error) {
	n := 0
	err := s.db.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(keyPrefix)
		it := tx.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Key derives the cache key for text embedded by model under task
func Key(model string, task types.TaskPrefix, text string) []byte {
	h := sha256.New()
	h.Write([]byte(model))
	h.Write([]byte{0})
	h.Write([]byte(task))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return append([]byte(keyPrefix), h.Sum(nil)...)
}

// Embedder wraps another Embedder with a read-through cache
type Embedder struct {
	next  embedder.Embedder
	store *Store
	model string
}

var _ embedder.Embedder = (*Embedder)(nil)

// Wrap returns next with lookups served from store. model namespaces the
// keys so switching models never returns stale vectors.
func Wrap(next embedder.Embedder, store *Store, model string) *Embedder {
	return &Embedder{next: next, store: store, model: model}
}

func (e *Embedder) Dimensions() int {
	return e.next.Dimensions()
}

func (e *Embedder) Embed(ctx context.Context, text string, task types.TaskPrefix) (types.Embedding, error) {
	key := Key(e.model, task, text)

	emb, ok, err := e.store.Get(key)
	switch {
	case err != nil:
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		e.store.logger.Warn("cache read failed", "err", err)
	case ok && len(emb) == e.next.Dimensions():
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return emb, nil
	default:
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	}

	emb, err = e.next.Embed(ctx, text, task)
	if err != nil {
		return nil, err
	}

	if err := e.store.Put(key, emb); err != nil {
		e.store.logger.Warn("cache write failed", "err", err)
	}
	return emb, nil
}

// Close closes the wrapped embedder if it holds resources, then the cache
func (e *Embedder) Close() error {
	var firstErr error
	if c, ok := e.next.(interface{ Close() error }); ok {
		firstErr = c.Close()
	}
	if err := e.store.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
