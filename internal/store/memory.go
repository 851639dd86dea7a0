package store

import (
	"context"
	"slices"
	"sync"

	"github.com/sevenofnine/scheduler/internal/domain"
)

type Memory struct {
	mu     sync.RWMutex
	events map[string]domain.Event
	order  []string
}

func NewMemory() *Memory {
	return &Memory{events: make(map[string]domain.Event)}
}

func (m *Memory) List(context.Context) ([]domain.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Event, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.events[id])
	}
	return out, nil
}

func (m *Memory) Get(_ context.Context, id string) (domain.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.events[id]
	if !ok {
		return domain.Event{}, ErrNotFound
	}
	return e, nil
}

func (m *Memory) Insert(_ context.Context, e domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.ID]; ok {
		return ErrDuplicate
	}
	m.events[e.ID] = e
	m.order = append(m.order, e.ID)
	return nil
}

func (m *Memory) Replace(_ context.Context, e domain.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[e.ID]; !ok {
		return ErrNotFound
	}
	m.events[e.ID] = e
	return nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.events[id]; !ok {
		return ErrNotFound
	}
	delete(m.events, id)
	if i := slices.Index(m.order, id); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	return nil
}

func (m *Memory) Len(context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order), nil
}
