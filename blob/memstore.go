// Implements the in-memory Store used as an ephemeral backend and test fake.

package blob

import (
	"context"
	"slices"
	"sync"
)

// MemStore is an in-memory Store backed by a map.
//
// It is safe for concurrent use. Content slices are copied on the way in and
// out so callers cannot alias internal state.
type MemStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{blobs: make(map[string][]byte)}
}

// Create implements Store.
func (s *MemStore) Create(_ context.Context, name string, content []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	s.blobs[name] = slices.Clone(content)
	s.mu.Unlock()
	return nil
}

// Read implements Store. Absent names yield empty content.
func (s *MemStore) Read(_ context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	s.mu.RLock()
	content := slices.Clone(s.blobs[name])
	s.mu.RUnlock()
	return content, nil
}

// Update implements Store. Same overwrite semantics as Create.
func (s *MemStore) Update(ctx context.Context, name string, content []byte) error {
	return s.Create(ctx, name, content)
}

// Delete implements Store. Deleting an absent name is a no-op.
func (s *MemStore) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.blobs, name)
	s.mu.Unlock()
	return nil
}

// Append implements Store.
func (s *MemStore) Append(_ context.Context, name string, content []byte) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	s.mu.Lock()
	s.blobs[name] = append(s.blobs[name], content...)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored blobs.
func (s *MemStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}

var _ Store = (*MemStore)(nil)
