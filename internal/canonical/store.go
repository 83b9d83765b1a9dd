package canonical

import (
	"context"
	"slices"
	"sync"

	"github.com/MrWong99/hindinames/pkg/types"
)

// Store persists canonical maps. Implementations must be safe for concurrent
// use.
type Store interface {
	// Save inserts or replaces every entry of m.
	Save(ctx context.Context, m types.CanonicalMap) error

	// Get returns the entry for name. The boolean is false when no entry
	// exists.
	Get(ctx context.Context, name string) (types.CanonicalEntry, bool, error)

	// List returns every stored entry with keys sorted by name.
	List(ctx context.Context) (types.CanonicalMap, error)
}

// MemStore is an in-memory [Store].
type MemStore struct {
	mu      sync.RWMutex
	entries map[string]types.CanonicalEntry
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty [MemStore].
func NewMemStore() *MemStore {
	return &MemStore{entries: make(map[string]types.CanonicalEntry)}
}

// Save implements [Store].
func (s *MemStore) Save(_ context.Context, m types.CanonicalMap) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range m.Keys {
		e := m.Entries[k]
		e.Variants = slices.Clone(e.Variants)
		s.entries[k] = e
	}
	return nil
}

// Get implements [Store].
func (s *MemStore) Get(_ context.Context, name string) (types.CanonicalEntry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if ok {
		e.Variants = slices.Clone(e.Variants)
	}
	return e, ok, nil
}

// List implements [Store].
func (s *MemStore) List(_ context.Context) (types.CanonicalMap, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := types.CanonicalMap{
		Entries: make(map[string]types.CanonicalEntry, len(s.entries)),
		Keys:    make([]string, 0, len(s.entries)),
	}
	for k, e := range s.entries {
		e.Variants = slices.Clone(e.Variants)
		out.Entries[k] = e
		out.Keys = append(out.Keys, k)
	}
	slices.Sort(out.Keys)
	return out, nil
}
