package store

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/JonMunkholm/admingrid/internal/core"
)

// MemorySource serves records held in memory, keyed by grid.
type MemorySource struct {
	mu      sync.RWMutex
	records map[string][]core.Record
}

// NewMemorySource creates an empty source.
func NewMemorySource() *MemorySource {
	return &MemorySource{records: make(map[string][]core.Record)}
}

// Set replaces the records of one grid.
func (m *MemorySource) Set(grid string, records []core.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[grid] = records
}

// Fetch returns a copy of the grid's records, so callers can never change
// what later fetches see.
func (m *MemorySource) Fetch(ctx context.Context, def core.Definition) ([]core.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	records, ok := m.records[def.Key]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("no records for grid %s", def.Key)
	}

	out := make([]core.Record, len(records))
	for i, r := range records {
		if r != nil {
			out[i] = maps.Clone(r)
		}
	}
	return out, nil
}
