package store

import (
	"context"
	"sync"

	"raidsched/internal/model"
)

// MemoryStore keeps schedules in process memory. It is used by tests and
// by the "memory" storage driver.
type MemoryStore struct {
	mu        sync.RWMutex
	defaultTZ string
	schedules map[string]model.Schedule
}

func NewMemoryStore(defaultTZ string) *MemoryStore {
	return &MemoryStore{
		defaultTZ: defaultZone(defaultTZ),
		schedules: make(map[string]model.Schedule),
	}
}

func (m *MemoryStore) GetSchedule(ctx context.Context, communityID string) (model.Schedule, error) {
	if err := ctx.Err(); err != nil {
		return model.Schedule{}, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.schedules[communityID]
	if !ok {
		return model.NewSchedule(m.defaultTZ), nil
	}
	return s.Clone(), nil
}

func (m *MemoryStore) UpdateSchedule(ctx context.Context, communityID string, s model.Schedule) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[communityID] = s.Clone()
	return nil
}

