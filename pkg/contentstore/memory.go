package contentstore

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and embedders that do
// not need persistence. Safe for concurrent use.
type Memory struct {
	mu     sync.RWMutex
	items  map[int64]*Item
	meta   map[int64]map[string][]string
	nextID int64
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		items: make(map[int64]*Item),
		meta:  make(map[int64]map[string][]string),
	}
}

func (m *Memory) Create(_ context.Context, item *Item) error {
	if item == nil || item.Type == "" {
		return ErrInvalidItem
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.nextID++
	now := time.Now()
	item.ID = m.nextID
	item.CreatedAt = now
	item.UpdatedAt = now

	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *Memory) Get(_ context.Context, id int64) (*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *item
	return &cp, nil
}

func (m *Memory) Update(_ context.Context, item *Item) error {
	if item == nil || item.Type == "" {
		return ErrInvalidItem
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	stored, ok := m.items[item.ID]
	if !ok {
		return ErrNotFound
	}
	item.CreatedAt = stored.CreatedAt
	item.UpdatedAt = time.Now()

	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *Memory) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	delete(m.meta, id)
	return nil
}

func (m *Memory) List(_ context.Context, q Query) ([]*Item, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []*Item
	for _, item := range m.items {
		if !matches(item, q) {
			continue
		}
		cp := *item
		matched = append(matched, &cp)
	}

	order := q.OrderBy
	if order == "" {
		order = OrderByID
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if equalKey(a, b, order) {
			// Ties fall back to ID so paging is deterministic.
			if q.Descending {
				return a.ID > b.ID
			}
			return a.ID < b.ID
		}
		var less bool
		switch order {
		case OrderByCreated:
			less = a.CreatedAt.Before(b.CreatedAt)
		case OrderByPosition:
			less = a.Position < b.Position
		default:
			less = a.ID < b.ID
		}
		if q.Descending {
			return !less
		}
		return less
	})

	total := int64(len(matched))

	if off := q.offset(); off > 0 {
		if off >= len(matched) {
			matched = nil
		} else {
			matched = matched[off:]
		}
	}
	if q.PerPage > 0 && len(matched) > q.PerPage {
		matched = matched[:q.PerPage]
	}

	return matched, total, nil
}

func equalKey(a, b *Item, order Order) bool {
	switch order {
	case OrderByCreated:
		return a.CreatedAt.Equal(b.CreatedAt)
	case OrderByPosition:
		return a.Position == b.Position
	default:
		return a.ID == b.ID
	}
}

func matches(item *Item, q Query) bool {
	if q.RootOnly && item.ParentID != 0 {
		return false
	}
	if q.ParentID != 0 && item.ParentID != q.ParentID {
		return false
	}
	if q.AuthorID != 0 && item.AuthorID != q.AuthorID {
		return false
	}
	if len(q.Types) > 0 && !slices.Contains(q.Types, item.Type) {
		return false
	}
	if len(q.Statuses) > 0 && !slices.Contains(q.Statuses, item.Status) {
		return false
	}
	if len(q.In) > 0 && !slices.Contains(q.In, item.ID) {
		return false
	}
	if slices.Contains(q.NotIn, item.ID) {
		return false
	}
	if q.Search != "" && !strings.Contains(strings.ToLower(item.Title), strings.ToLower(q.Search)) {
		return false
	}
	return true
}

func (m *Memory) CountChildren(_ context.Context, parentID int64, types, statuses []string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, item := range m.items {
		if item.ParentID == parentID && typeStatusMatch(item, types, statuses) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) CountByAuthor(_ context.Context, authorID int64, types, statuses []string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, item := range m.items {
		if item.AuthorID == authorID && typeStatusMatch(item, types, statuses) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) DistinctAuthors(_ context.Context, parentID int64, types, statuses []string) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var children []*Item
	for _, item := range m.items {
		if item.ParentID == parentID && typeStatusMatch(item, types, statuses) {
			children = append(children, item)
		}
	}
	sort.Slice(children, func(i, j int) bool { return children[i].ID < children[j].ID })

	seen := make(map[int64]struct{})
	var authors []int64
	for _, c := range children {
		if _, ok := seen[c.AuthorID]; ok {
			continue
		}
		seen[c.AuthorID] = struct{}{}
		authors = append(authors, c.AuthorID)
	}
	return authors, nil
}

func (m *Memory) LatestChild(_ context.Context, parentID int64, types, statuses []string) (*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *Item
	for _, item := range m.items {
		if item.ParentID != parentID || !typeStatusMatch(item, types, statuses) {
			continue
		}
		if latest == nil || item.ID > latest.ID {
			latest = item
		}
	}
	if latest == nil {
		return nil, ErrNotFound
	}
	cp := *latest
	return &cp, nil
}

func typeStatusMatch(item *Item, types, statuses []string) bool {
	if len(types) > 0 && !slices.Contains(types, item.Type) {
		return false
	}
	if len(statuses) > 0 && !slices.Contains(statuses, item.Status) {
		return false
	}
	return true
}

func (m *Memory) GetMeta(_ context.Context, itemID int64, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	values := m.meta[itemID][key]
	if len(values) == 0 {
		return "", ErrNotFound
	}
	return values[0], nil
}

func (m *Memory) SetMeta(_ context.Context, itemID int64, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.meta[itemID] == nil {
		m.meta[itemID] = make(map[string][]string)
	}
	m.meta[itemID][key] = []string{value}
	return nil
}

func (m *Memory) AddMeta(_ context.Context, itemID int64, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.meta[itemID] == nil {
		m.meta[itemID] = make(map[string][]string)
	}
	m.meta[itemID][key] = append(m.meta[itemID][key], value)
	return nil
}

func (m *Memory) GetAllMeta(_ context.Context, itemID int64, key string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	values := m.meta[itemID][key]
	out := make([]string, len(values))
	copy(out, values)
	return out, nil
}

func (m *Memory) DeleteMeta(_ context.Context, itemID int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if keys, ok := m.meta[itemID]; ok {
		delete(keys, key)
	}
	return nil
}

var _ Store = (*Memory)(nil)
