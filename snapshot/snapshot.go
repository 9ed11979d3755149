package snapshot

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNotFound is returned when no snapshot exists for a table.
var ErrNotFound = errors.New("snapshot not found")

// TableSnapshot is a periodic, best-effort capture of a table's public state.
// It is written after ledger-relevant events so that session stacks can be
// reconciled after a crash; it is not a source of truth during normal
// operation.
type TableSnapshot struct {
	TableID string         `json:"tableId"`
	Phase   string         `json:"phase"`
	Pot     int            `json:"pot"`
	Stacks  map[string]int `json:"stacks"`
	TakenAt time.Time      `json:"takenAt"`
}

// Store persists table snapshots.
type Store interface {
	Save(ctx context.Context, snap TableSnapshot) error
	Load(ctx context.Context, tableID string) (TableSnapshot, error)
	Delete(ctx context.Context, tableID string) error
}

// MemoryStore is an in-process Store, used when no Redis address is
// configured and in tests.
type MemoryStore struct {
	mu    sync.Mutex
	snaps map[string]TableSnapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{snaps: make(map[string]TableSnapshot)}
}

func (s *MemoryStore) Save(_ context.Context, snap TableSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snaps[snap.TableID] = snap
	return nil
}

func (s *MemoryStore) Load(_ context.Context, tableID string) (TableSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, ok := s.snaps[tableID]
	if !ok {
		return TableSnapshot{}, ErrNotFound
	}
	return snap, nil
}

func (s *MemoryStore) Delete(_ context.Context, tableID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, tableID)
	return nil
}
