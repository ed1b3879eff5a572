package unseen

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Store persists the last-acknowledged timestamp so the unseen flag survives
// reloads. A store failure is never fatal: the marker falls back to its
// in-memory default.
type Store interface {
	Load(ctx context.Context, key string) (time.Time, error)
	Save(ctx context.Context, key string, at time.Time) error
}

var ErrNotFound = errors.New("no acknowledgment recorded")

// MemoryStore keeps timestamps per key in process memory. Used as the
// fallback when no durable backend is configured, and in tests.
type MemoryStore struct {
	mu  sync.RWMutex
	acc map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{acc: make(map[string]time.Time)}
}

func (s *MemoryStore) Load(_ context.Context, key string) (time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	at, ok := s.acc[key]
	if !ok {
		return time.Time{}, ErrNotFound
	}
	return at, nil
}

func (s *MemoryStore) Save(_ context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acc[key] = at
	return nil
}
