package kv

import (
	"fmt"
	"sync"

	"github.com/roach88/watchfilter/internal/value"
)

// Backend holds mirrored values keyed by string.
// Implementations must be safe for concurrent use and must not fail;
// internal errors are reported through logging and treated as absence.
type Backend interface {
	Get(key string) (value.Mirror, bool)
	Put(key string, m value.Mirror)
	Clear()
	Len() int
	Keys() []string
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Store exposes a Backend through evaluation values.
type Store struct {
	backend Backend
}

// New creates a store over the given backend.
func New(b Backend) *Store {
	return &Store{backend: b}
}

// NewMemory creates a store over a fresh ShardedMap.
func NewMemory() *Store {
	return New(NewShardedMap())
}

// Open creates a store over the named backend.
func Open(backend string) (*Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendSQLite:
		b, err := OpenSQLite()
		if err != nil {
			return nil, err
		}
		return New(b), nil
	default:
		return nil, fmt.Errorf("unknown kv backend %q: must be %q or %q", backend, BackendMemory, BackendSQLite)
	}
}

// Clear removes every entry.
func (s *Store) Clear() {
	s.backend.Clear()
}

// Store saves a snapshot of v under key, replacing any previous entry.
func (s *Store) Store(key string, v any) {
	s.backend.Put(key, value.FromValue(v))
}

// Fetch returns a fresh copy of the value stored under key, or nil.
func (s *Store) Fetch(key string) any {
	m, ok := s.backend.Get(key)
	if !ok {
		return nil
	}
	return value.ToValue(m)
}

// Len returns the number of entries.
func (s *Store) Len() int {
	return s.backend.Len()
}

// Keys returns all keys in sorted order.
func (s *Store) Keys() []string {
	return s.backend.Keys()
}

// Close releases backend resources when the backend holds any.
func (s *Store) Close() error {
	if c, ok := s.backend.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}

var shared = sync.OnceValue(NewMemory)

// Shared returns the process-wide store, creating it on first use.
// Every caller, from any goroutine, receives the same instance.
func Shared() *Store {
	return shared()
}
