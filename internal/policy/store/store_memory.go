package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"passgate/internal/policy/config"
)

// InMemoryStore holds the active policy in process memory. Used as the
// default backend and in tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	active *Record
}

func NewInMemory() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Active(_ context.Context) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == nil {
		return nil, nil
	}
	record := *s.active
	record.Config = s.active.Config.Clone()
	return &record, nil
}

func (s *InMemoryStore) Save(_ context.Context, cfg config.Config, updatedBy string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = &Record{
		ID:        uuid.NewString(),
		Config:    cfg.Clone(),
		UpdatedBy: updatedBy,
		UpdatedAt: time.Now(),
	}
	record := *s.active
	record.Config = s.active.Config.Clone()
	return &record, nil
}
