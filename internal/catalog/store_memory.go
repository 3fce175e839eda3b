package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
)

type memoryStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryStore(entries ...Entry) Store {
	m := &memoryStore{entries: map[string]Entry{}}
	for _, e := range entries {
		m.entries[e.ID] = e
	}
	return m
}

func (m *memoryStore) ListEntries(_ context.Context) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryStore) GetEntry(_ context.Context, id string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[id]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return e, nil
}

func (m *memoryStore) PutEntry(_ context.Context, e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.ID] = e
	return nil
}

// LoadFile reads a JSON array of entries, as exported by GET /catalog.
func LoadFile(path string) ([]Entry, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(buf, &entries); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return entries, nil
}
