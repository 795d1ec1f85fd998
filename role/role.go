// Package role implements the board's dynamic role and capability
// system.
//
// Board roles live alongside whatever roles the host system already
// assigns; a user holds exactly one board role at a time plus any
// number of host roles the board never touches. Capabilities are flat
// string grants resolved per role, with object-aware decision rules
// (can this user edit that topic) layered on top in Resolver.
package role

import (
	"sort"
	"sync"
)

// Built-in role names, strongest first.
const (
	Keymaster   = "keymaster"
	Moderator   = "moderator"
	Participant = "participant"
	Spectator   = "spectator"
	Blocked     = "blocked"
)

// Role is a named bundle of capability grants. A capability absent
// from Caps is denied; an explicit false entry is a hard deny that
// survives additive filters.
type Role struct {
	Caps  map[string]bool
	Name  string
	Label string
}

var registry = struct {
	sync.RWMutex
	roles map[string]Role
	order []string
}{roles: make(map[string]Role)}

// Register adds a role definition. The first registration of a name
// wins so embedders cannot redefine the built-ins; later duplicates
// are ignored and reported false.
func Register(r Role) bool {
	if r.Name == "" {
		return false
	}
	registry.Lock()
	defer registry.Unlock()
	if _, ok := registry.roles[r.Name]; ok {
		return false
	}
	registry.roles[r.Name] = r
	registry.order = append(registry.order, r.Name)
	return true
}

// Lookup returns the role registered under name.
func Lookup(name string) (Role, bool) {
	registry.RLock()
	defer registry.RUnlock()
	r, ok := registry.roles[name]
	return r, ok
}

// IsDynamic reports whether name is a board role, as opposed to a
// host role the board must leave untouched.
func IsDynamic(name string) bool {
	_, ok := Lookup(name)
	return ok
}

// All returns every registered role sorted by name.
func All() []Role {
	registry.RLock()
	defer registry.RUnlock()
	out := make([]Role, 0, len(registry.roles))
	for _, r := range registry.roles {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Grants reports whether the role grants the capability. Unknown
// roles grant nothing.
func Grants(roleName, capability string) bool {
	r, ok := Lookup(roleName)
	if !ok {
		return false
	}
	return r.Caps[capability]
}

func init() {
	Register(Role{Name: Keymaster, Label: "Keymaster", Caps: keymasterCaps()})
	Register(Role{Name: Moderator, Label: "Moderator", Caps: moderatorCaps()})
	Register(Role{Name: Participant, Label: "Participant", Caps: participantCaps()})
	Register(Role{Name: Spectator, Label: "Spectator", Caps: spectatorCaps()})
	Register(Role{Name: Blocked, Label: "Blocked", Caps: blockedCaps()})
}
