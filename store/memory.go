package store

import (
	"context"
	"sync"

	"github.com/zero-day-ai/runtimehealth/types"
)

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	results map[string]types.HealthStatus
	closed  bool
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{results: make(map[string]types.HealthStatus)}
}

// Put stores or replaces the result for status.Source.
func (m *Memory) Put(_ context.Context, status types.HealthStatus) error {
	if err := validate(status); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if len(status.Details) > 0 {
		status = status.WithDetails(nil)
	}
	m.results[status.Source] = status
	return nil
}

// Delete removes the cached result for source. Missing entries are ignored.
func (m *Memory) Delete(_ context.Context, source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	delete(m.results, source)
	return nil
}

// List returns copies of the cached results ordered by source.
func (m *Memory) List(_ context.Context) ([]types.HealthStatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, ErrClosed
	}

	out := make([]types.HealthStatus, 0, len(m.results))
	for _, s := range m.results {
		out = append(out, s)
	}
	sortBySource(out)
	return out, nil
}

// Close drops the cache. Later calls return ErrClosed.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.results = nil
	return nil
}
