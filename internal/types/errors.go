package types

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is.
var (
	ErrIO        = errors.New("io error")
	ErrEmbedding = errors.New("embedding error")
	ErrStore     = errors.New("store error")
	ErrNotFound  = errors.New("not found")
)

// ErrDimensionMismatch is wrapped in a store error when an embedding does not
// have the width the index was created with.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// Error carries the kind of failure, the operation that failed and its cause.
type Error struct {
	Kind error
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is and errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// IOError wraps a file read failure
func IOError(op string, err error) error {
	return &Error{Kind: ErrIO, Op: op, Err: err}
}

// EmbeddingError wraps a tokenization or inference failure
func EmbeddingError(op string, err error) error {
	return &Error{Kind: ErrEmbedding, Op: op, Err: err}
}

// StoreError wraps a schema, connection, extension or write failure
func StoreError(op string, err error) error {
	return &Error{Kind: ErrStore, Op: op, Err: err}
}

// NotFoundError reports a search with no match
func NotFoundError(op string) error {
	return &Error{Kind: ErrNotFound, Op: op}
}

// HasKind reports whether err carries one of the error kinds.
func HasKind(err error) bool {
	return errors.Is(err, ErrIO) || errors.Is(err, ErrEmbedding) ||
		errors.Is(err, ErrStore) || errors.Is(err, ErrNotFound)
}
