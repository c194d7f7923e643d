package rootstore

import (
	"context"
	"sort"
	"sync"

	"github.com/shielded/poolcore/pkg/primitives"
)

// InMemoryStore is a Store backed by plain slices and a map, useful
// for tests and single-process deployments.
type InMemoryStore struct {
	mu     sync.RWMutex
	leaves map[uint64]primitives.Hash32
	roots  []primitives.Hash32
}

// NewInMemoryStore constructs an empty InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{leaves: make(map[uint64]primitives.Hash32)}
}

func (s *InMemoryStore) AppendLeaf(ctx context.Context, index uint64, leaf primitives.Hash32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.leaves[index]; ok {
		return ErrLeafExists
	}
	s.leaves[index] = leaf
	return nil
}

func (s *InMemoryStore) Leaves(ctx context.Context) ([]LeafRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]LeafRecord, 0, len(s.leaves))
	for idx, leaf := range s.leaves {
		out = append(out, LeafRecord{Index: idx, Leaf: leaf})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out, nil
}

func (s *InMemoryStore) SaveRoot(ctx context.Context, root primitives.Hash32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roots = append(s.roots, root)
	return nil
}

func (s *InMemoryStore) RecentRoots(ctx context.Context, limit int) ([]primitives.Hash32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := len(s.roots)
	if limit > n {
		limit = n
	}
	out := make([]primitives.Hash32, limit)
	for i := 0; i < limit; i++ {
		out[i] = s.roots[n-1-i]
	}
	return out, nil
}
