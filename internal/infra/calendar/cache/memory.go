package cache

import (
	"context"
	"sync"
	"time"
)

type MemoryStore struct {
	mu   sync.RWMutex
	snap *Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(context.Context) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snap == nil {
		return nil, nil
	}
	cp := *s.snap
	return &cp, nil
}

func (s *MemoryStore) Save(_ context.Context, snap Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = &snap
	return nil
}

// Expire rewinds the timestamp to the zero time and keeps the events.
func (s *MemoryStore) Expire(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap != nil {
		s.snap.FetchedAt = time.Time{}
	}
	return nil
}

var _ Store = (*MemoryStore)(nil)
