package role

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/boardkit/boardkit/pkg/logger"
	"github.com/boardkit/boardkit/pkg/optionstore"
	"github.com/boardkit/boardkit/pkg/usermeta"
	"github.com/boardkit/boardkit/post"
)

var (
	// ErrUnknownRole is returned when assigning a role that is not
	// registered.
	ErrUnknownRole = errors.New("role: unknown role")

	// ErrInvalidUser is returned for non-positive user IDs.
	ErrInvalidUser = errors.New("role: invalid user id")
)

// HostRoleAdministrator is the host role that maps to Keymaster when a
// user first touches the board without a board role.
const HostRoleAdministrator = "administrator"

// Manager assigns board roles and resolves the effective role of a
// user from the shared role list.
type Manager struct {
	meta    usermeta.Store
	options optionstore.Store
	log     *slog.Logger
}

// NewManager creates a role manager. A nil logger discards logs.
func NewManager(meta usermeta.Store, options optionstore.Store, log *slog.Logger) *Manager {
	if log == nil {
		log = logger.Discard()
	}
	return &Manager{meta: meta, options: options, log: log}
}

// Assign gives the user the named board role, replacing any board role
// they already hold. Host roles on the same list are preserved
// untouched; the board only ever owns one slot in it.
func (m *Manager) Assign(ctx context.Context, userID int64, name string) error {
	if userID <= 0 {
		return ErrInvalidUser
	}
	if !IsDynamic(name) {
		return ErrUnknownRole
	}

	current, err := m.meta.Roles(ctx, userID)
	if err != nil {
		return err
	}

	kept := make([]string, 0, len(current)+1)
	for _, r := range current {
		if !IsDynamic(r) {
			kept = append(kept, r)
		}
	}
	kept = append(kept, name)

	if err := m.meta.SetRoles(ctx, userID, kept); err != nil {
		return err
	}
	m.log.InfoContext(ctx, "role assigned",
		slog.Int64("user_id", userID),
		slog.String("role", name),
	)
	return nil
}

// Strip removes the user's board role, leaving host roles alone.
func (m *Manager) Strip(ctx context.Context, userID int64) error {
	if userID <= 0 {
		return ErrInvalidUser
	}
	current, err := m.meta.Roles(ctx, userID)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(slices.Clone(current), IsDynamic)
	if len(kept) == len(current) {
		return nil
	}
	return m.meta.SetRoles(ctx, userID, kept)
}

// RoleOf returns the user's effective board role. A stored board role
// wins; otherwise the role is derived from host roles (administrators
// become keymasters, everyone else gets the configured default) and
// persisted so the derivation happens once.
//
// User ID 0 is the anonymous visitor and always resolves to
// Spectator without touching storage.
func (m *Manager) RoleOf(ctx context.Context, userID int64) (string, error) {
	if userID <= 0 {
		return Spectator, nil
	}

	current, err := m.meta.Roles(ctx, userID)
	if err != nil {
		return "", err
	}
	for _, r := range current {
		if IsDynamic(r) {
			return r, nil
		}
	}

	name := m.defaultRole(ctx)
	if slices.Contains(current, HostRoleAdministrator) {
		name = Keymaster
	}
	if err := m.Assign(ctx, userID, name); err != nil {
		return "", err
	}
	return name, nil
}

func (m *Manager) defaultRole(ctx context.Context) string {
	raw, err := m.options.Get(ctx, post.OptionDefaultRole)
	if err == nil && IsDynamic(raw) {
		return raw
	}
	return Participant
}

// Can reports whether the user's effective role grants the primitive
// capability.
func (m *Manager) Can(ctx context.Context, userID int64, capability string) (bool, error) {
	if capability == DoNotAllow {
		return false, nil
	}
	name, err := m.RoleOf(ctx, userID)
	if err != nil {
		return false, err
	}
	return Grants(name, capability), nil
}
