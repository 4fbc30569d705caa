// Package guard gives exclusive, scoped access to a long-lived resource such
// as an inference session, a tokenizer or a database connection.
package guard

import (
	"fmt"
	"sync"
	"time"

	"github.com/MereWhiplash/semfind/internal/metrics"
)

// Mutex owns a value of type T. The value is only reachable inside Do or With,
// while the lock is held.
type Mutex[T any] struct {
	name string
	mu   sync.Mutex
	v    T
}

// New wraps v. name labels lock wait metrics.
func New[T any](name string, v T) *Mutex[T] {
	return &Mutex[T]{name: name, v: v}
}

// Name returns the resource label.
func (m *Mutex[T]) Name() string {
	return m.name
}

// Do runs fn with exclusive access to the value. The lock is released when fn
// returns, fails or panics; a panic is returned as an error.
func (m *Mutex[T]) Do(fn func(T) error) (err error) {
	start := time.Now()
	m.mu.Lock()
	metrics.LockWait.WithLabelValues(m.name).Observe(time.Since(start).Seconds())
	defer m.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic while holding lock: %v", m.name, r)
		}
	}()

	return fn(m.v)
}

// With is Do for callbacks that produce a value.
func With[T, R any](m *Mutex[T], fn func(T) (R, error)) (R, error) {
	var out R
	err := m.Do(func(v T) error {
		var err error
		out, err = fn(v)
		return err
	})
	return out, err
}
