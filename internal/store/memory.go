package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	appLog "coursegrid/internal/log"
	"coursegrid/internal/model"
)

// Memory is the in-memory Store used when no database is configured and in
// tests. Everything is guarded by one RWMutex; reads hand out copies so
// callers can treat the snapshot as immutable.
type Memory struct {
	mu         sync.RWMutex
	events     []model.EventRecord
	visibility []string
	shares     map[string]*Share
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{shares: make(map[string]*Share)}
}

var _ Store = (*Memory)(nil)

func (m *Memory) List(_ context.Context) ([]model.EventRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]model.EventRecord, len(m.events))
	copy(out, m.events)
	return out, nil
}

func (m *Memory) Create(_ context.Context, rec model.EventRecord) (model.EventRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec.ID = uuid.NewString()
	m.events = append(m.events, rec)
	return rec, nil
}

func (m *Memory) Update(_ context.Context, id string, patch EventPatch) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.events {
		if m.events[i].ID == id {
			return applyPatch(&m.events[i], patch)
		}
	}
	return ErrNotFound
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.events {
		if m.events[i].ID == id {
			m.events = append(m.events[:i], m.events[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

func (m *Memory) BulkCreate(_ context.Context, recs []model.EventRecord) ([]model.EventRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	created := make([]model.EventRecord, 0, len(recs))
	for _, rec := range recs {
		rec.ID = uuid.NewString()
		m.events = append(m.events, rec)
		created = append(created, rec)
	}
	return created, nil
}

func (m *Memory) Clear(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := len(m.events)
	m.events = nil
	return n, nil
}

func (m *Memory) GetVisibility(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]string, len(m.visibility))
	copy(out, m.visibility)
	return out, nil
}

func (m *Memory) SetVisibility(_ context.Context, codes []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.visibility = make([]string, len(codes))
	copy(m.visibility, codes)
	return nil
}

func (m *Memory) CreateShare(_ context.Context, share Share) (Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	share.ID = uuid.NewString()
	share.CreatedAt = time.Now()
	share.ViewCount = 0
	stored := share
	m.shares[share.ID] = &stored
	return share, nil
}

func (m *Memory) GetShare(_ context.Context, id string) (Share, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.shares[id]
	if !ok {
		return Share{}, ErrNotFound
	}
	s.ViewCount++
	return *s, nil
}

func (m *Memory) PurgeSharesBefore(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.shares {
		if s.CreatedAt.Before(cutoff) {
			delete(m.shares, id)
			n++
		}
	}
	if n > 0 {
		appLog.Info("purged expired shares", "count", n)
	}
	return n, nil
}
