// internal/types/types.go
// Package types contains shared data types that have no CGO dependencies.
// This allows packages like the shim to use FileRecord without pulling in sqlite-vec.
package types

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultDimensions is the embedding width of nomic-embed-text.
const DefaultDimensions = 768

// TaskPrefix selects the asymmetric embedding mode of a nomic-style model
type TaskPrefix string

const (
	TaskSearchQuery    TaskPrefix = "search_query"
	TaskSearchDocument TaskPrefix = "search_document"
	TaskClassification TaskPrefix = "classification"
	TaskClustering     TaskPrefix = "clustering"
)

// Valid returns true if the TaskPrefix is a known valid tag
func (t TaskPrefix) Valid() bool {
	switch t {
	case TaskSearchQuery, TaskSearchDocument, TaskClassification, TaskClustering:
		return true
	}
	return false
}

// Validate returns an error if the TaskPrefix is invalid
func (t TaskPrefix) Validate() error {
	if !t.Valid() {
		return fmt.Errorf("invalid task prefix %q: must be search_query, search_document, classification, or clustering", t)
	}
	return nil
}

// Apply prepends the task label to text, separated by ": ".
func (t TaskPrefix) Apply(text string) string {
	return string(t) + ": " + text
}

// Embedding is a fixed-length semantic vector
type Embedding []float32

// String renders the embedding the way the index_file command reports it.
func (e Embedding) String() string {
	var b strings.Builder
	b.Grow(len(e)*10 + 2)
	b.WriteByte('[')
	for i, v := range e {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	b.WriteByte(']')
	return b.String()
}

// FileRecord represents an indexed file
type FileRecord struct {
	ID        int64     `json:"id"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// Match is a single similarity search hit, ordered best-first
type Match struct {
	ID         int64   `json:"id"`
	Path       string  `json:"path"`
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity"`
}

// ListOpts configures list behavior
type ListOpts struct {
	Limit  int
	Offset int
}
