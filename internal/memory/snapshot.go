package memory

import (
	"context"
	"sync"
)

// SnapshotStore is the durable-storage contract: best-effort full-memory
// writes and reads. Implementations must serialize the UserMemory shape
// losslessly.
type SnapshotStore interface {
	Put(ctx context.Context, userID string, snapshot *UserMemory) error
	Get(ctx context.Context, userID string) (*UserMemory, error)
	Close() error
}

// InMemorySnapshotStore keeps snapshots in process for local/dev use.
type InMemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]*UserMemory
}

func NewInMemorySnapshotStore() *InMemorySnapshotStore {
	return &InMemorySnapshotStore{snapshots: make(map[string]*UserMemory)}
}

func (s *InMemorySnapshotStore) Put(_ context.Context, userID string, snapshot *UserMemory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[userID] = cloneMemory(snapshot)
	return nil
}

func (s *InMemorySnapshotStore) Get(_ context.Context, userID string) (*UserMemory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snapshot, ok := s.snapshots[userID]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneMemory(snapshot), nil
}

func (s *InMemorySnapshotStore) Close() error { return nil }
