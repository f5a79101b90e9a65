package store

import (
	"context"
	"sync"

	"github.com/use-agent/marsscrape/models"
)

// Memory is an in-process store. It is safe for concurrent use and
// copies records on the way in and out.
type Memory struct {
	mu      sync.RWMutex
	current *models.Record
}

// NewMemory creates an empty store.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Latest(ctx context.Context) (*models.Record, error) {
	m.mu.RLock()
	rec := m.current
	m.mu.RUnlock()

	if rec == nil {
		return nil, ErrNotFound
	}
	return rec.Clone(), nil
}

func (m *Memory) Replace(ctx context.Context, rec *models.Record) error {
	c := rec.Clone()

	m.mu.Lock()
	m.current = c
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }
