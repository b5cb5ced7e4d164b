package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"go-storefront/internal/domain/model"
	"go-storefront/internal/repository/dao"
)

var errStoreDown = errors.New("connection refused")

// memAuditStore 按 dao.AuditFilter 语义在内存中过滤
type memAuditStore struct {
	mu     sync.Mutex
	rows   []model.AuditEvent
	nextID int64
	clock  func() time.Time
	fail   error
}

func newMemAuditStore() *memAuditStore {
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.Local)
	n := 0
	return &memAuditStore{clock: func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Second)
	}}
}

func (m *memAuditStore) Create(_ context.Context, e *model.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.nextID++
	e.ID = m.nextID
	e.CreatedAt = m.clock()
	m.rows = append(m.rows, *e)
	return nil
}

func (m *memAuditStore) insertMigrated(e model.AuditEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	e.ID = m.nextID
	m.rows = append(m.rows, e)
}

func match(f dao.AuditFilter, e model.AuditEvent) bool {
	switch {
	case f.LogType != "" && e.LogType != f.LogType:
		return false
	case f.AdminID != nil && (e.AdminID == nil || *e.AdminID != *f.AdminID):
		return false
	case f.Category != "" && e.Category != f.Category:
		return false
	case f.ActionType != "" && e.ActionType != f.ActionType:
		return false
	case f.TitleContains != "" && !strings.Contains(strings.ToLower(e.Title), strings.ToLower(f.TitleContains)):
		return false
	case !f.From.IsZero() && e.CreatedAt.Before(f.From):
		return false
	case !f.To.IsZero() && !e.CreatedAt.Before(f.To):
		return false
	}
	return true
}

func (m *memAuditStore) filtered(f dao.AuditFilter) []model.AuditEvent {
	out := make([]model.AuditEvent, 0)
	for _, e := range m.rows {
		if match(f, e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}

func (m *memAuditStore) List(_ context.Context, f dao.AuditFilter, limit, offset int) ([]model.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	all := m.filtered(f)
	if offset >= len(all) {
		return []model.AuditEvent{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (m *memAuditStore) Count(_ context.Context, f dao.AuditFilter) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return 0, m.fail
	}
	return int64(len(m.filtered(f))), nil
}

func (m *memAuditStore) CountByType(_ context.Context) (map[model.LogType]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return nil, m.fail
	}
	out := map[model.LogType]int64{}
	for _, e := range m.rows {
		out[e.LogType]++
	}
	return out, nil
}

func (m *memAuditStore) Categories(_ context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]struct{}{}
	var out []string
	for _, e := range m.rows {
		if _, ok := seen[e.Category]; !ok {
			seen[e.Category] = struct{}{}
			out = append(out, e.Category)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memAuditStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}
