package usermeta

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// roleListKey holds the host's per-user role list, comma-joined.
const roleListKey = "_user_roles"

// Memory is an in-process Store for tests and embedders.
// Safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	data map[int64]map[string]string
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{data: make(map[int64]map[string]string)}
}

func (m *Memory) Get(_ context.Context, userID int64, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.data[userID][key]
	if !ok {
		return "", ErrNotFound
	}
	return value, nil
}

func (m *Memory) Set(_ context.Context, userID int64, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.data[userID] == nil {
		m.data[userID] = make(map[string]string)
	}
	m.data[userID][key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, userID int64, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if keys, ok := m.data[userID]; ok {
		delete(keys, key)
	}
	return nil
}

func (m *Memory) UsersWithValueContaining(_ context.Context, key, needle string) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var users []int64
	for userID, keys := range m.data {
		if containsMember(keys[key], needle) {
			users = append(users, userID)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users, nil
}

// containsMember reports whether needle appears as a whole member of a
// comma-joined list. Substring matches ("12" inside "112") don't count.
func containsMember(list, needle string) bool {
	if list == "" || needle == "" {
		return false
	}
	for part := range strings.SplitSeq(list, ",") {
		if strings.TrimSpace(part) == needle {
			return true
		}
	}
	return false
}

func (m *Memory) Roles(ctx context.Context, userID int64) ([]string, error) {
	raw, err := m.Get(ctx, userID, roleListKey)
	if err != nil {
		return nil, nil
	}
	return splitRoles(raw), nil
}

func (m *Memory) SetRoles(ctx context.Context, userID int64, roles []string) error {
	return m.Set(ctx, userID, roleListKey, strings.Join(roles, ","))
}

func splitRoles(raw string) []string {
	var roles []string
	for part := range strings.SplitSeq(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			roles = append(roles, part)
		}
	}
	return roles
}

var _ Store = (*Memory)(nil)
