package paper

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memoryStore struct {
	mu     sync.RWMutex
	papers map[string]Paper
}

// NewInMemoryStore is used by tests and the offline CLI.
func NewInMemoryStore() Store {
	return &memoryStore{papers: map[string]Paper{}}
}

func (m *memoryStore) PutPaper(_ context.Context, p Paper) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().Unix()
	if p.CreatedAt == 0 {
		p.CreatedAt = now
	}
	if p.Status == "" {
		p.Status = StatusDraft
	}
	p.UpdatedAt = now
	m.papers[p.ID] = clonePaper(p)
	return nil
}

func (m *memoryStore) GetPaper(_ context.Context, id string) (Paper, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.papers[id]
	if !ok {
		return Paper{}, ErrNotFound
	}
	return clonePaper(p), nil
}

func (m *memoryStore) ListPapers(_ context.Context, opts ListOpts) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Summary{}
	for _, p := range m.papers {
		if opts.Q != "" && !strings.Contains(p.Metadata.Title, opts.Q) {
			continue
		}
		if opts.Status != "" && p.Status != opts.Status {
			continue
		}
		out = append(out, Summary{
			ID:              p.ID,
			Title:           p.Metadata.Title,
			Status:          p.Status,
			DataStructureID: p.DataStructureID,
			Questions:       len(p.Questions),
			CreatedAt:       p.CreatedAt,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt != out[j].CreatedAt {
			return out[i].CreatedAt > out[j].CreatedAt
		}
		return out[i].ID < out[j].ID
	})
	if opts.Offset >= len(out) {
		return []Summary{}, nil
	}
	out = out[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(out) {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *memoryStore) UpdateMetadata(_ context.Context, id string, md Metadata) (Paper, error) {
	return m.modify(id, func(p *Paper) error {
		if p.Status == StatusConfirmed {
			return ErrLocked
		}
		p.Metadata = md
		return nil
	})
}

func (m *memoryStore) SetMatch(_ context.Context, id, dataStructureID string) (Paper, error) {
	return m.modify(id, func(p *Paper) error {
		if p.Status == StatusConfirmed {
			return ErrLocked
		}
		p.DataStructureID = dataStructureID
		return nil
	})
}

func (m *memoryStore) SetStatus(_ context.Context, id string, st Status) (Paper, error) {
	return m.modify(id, func(p *Paper) error {
		p.Status = st
		return nil
	})
}

func (m *memoryStore) SaveAnswers(_ context.Context, id, number string, alts []Alternative) (Paper, error) {
	return m.modify(id, func(p *Paper) error { return SetAnswers(p, number, alts) })
}

func (m *memoryStore) AddAttachment(_ context.Context, id, number, key string) (Paper, error) {
	return m.modify(id, func(p *Paper) error { return AttachFile(p, number, key) })
}

func (m *memoryStore) modify(id string, fn func(*Paper) error) (Paper, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.papers[id]
	if !ok {
		return Paper{}, ErrNotFound
	}
	p := clonePaper(stored)
	if err := fn(&p); err != nil {
		return Paper{}, err
	}
	p.UpdatedAt = time.Now().Unix()
	m.papers[id] = p
	return clonePaper(p), nil
}
