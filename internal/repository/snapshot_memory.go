package repository

import (
	"context"
	"sort"
	"sync"
)

// MemorySnapshotStore keeps snapshots in process. Rooms survive a reconnect
// but not a restart.
type MemorySnapshotStore struct {
	mu        sync.RWMutex
	snapshots map[string]RoomSnapshot
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{snapshots: make(map[string]RoomSnapshot)}
}

func (m *MemorySnapshotStore) Save(ctx context.Context, s RoomSnapshot) error {
	s.State = s.State.Clone()
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.snapshots[s.RoomID]; ok && old.State.Version > s.State.Version {
		return nil
	}
	m.snapshots[s.RoomID] = s
	return nil
}

func (m *MemorySnapshotStore) Get(ctx context.Context, roomID string) (RoomSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.snapshots[roomID]
	if !ok {
		return RoomSnapshot{}, ErrSnapshotNotFound
	}
	s.State = s.State.Clone()
	return s, nil
}

func (m *MemorySnapshotStore) Delete(ctx context.Context, roomID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, roomID)
	return nil
}

func (m *MemorySnapshotStore) List(ctx context.Context) ([]RoomSnapshot, error) {
	m.mu.RLock()
	out := make([]RoomSnapshot, 0, len(m.snapshots))
	for _, s := range m.snapshots {
		s.State = s.State.Clone()
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
