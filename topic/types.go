package topic

import (
	"sort"
	"sync"
)

// Built-in topic types. The type mirrors the topic's sticky placement
// for display: normal topics sort by activity, stickies float to the
// top of their forum, super stickies to the top of every forum. The
// two option-backed sticky lists stay the source of truth; the
// per-topic type meta is a read-side mirror kept current by Stick,
// Superstick and Unstick.
const (
	TypeNormal = "normal"
	TypeSticky = "sticky"
	TypeSuper  = "super-sticky"
)

// TypeInfo describes a registered topic type.
type TypeInfo struct {
	Name    string
	Label   string
	Replies bool // topics of this type accept replies

	// internal marks the built-ins, which cannot be unregistered.
	internal bool
}

var typeRegistry = struct {
	sync.RWMutex
	types map[string]TypeInfo
}{
	types: map[string]TypeInfo{
		TypeNormal: {Name: TypeNormal, Label: "Normal", Replies: true, internal: true},
		TypeSticky: {Name: TypeSticky, Label: "Sticky", Replies: true, internal: true},
		TypeSuper:  {Name: TypeSuper, Label: "Super Sticky", Replies: true, internal: true},
	},
}

// RegisterType adds a topic type to the registry. The first
// registration of a name wins; later registrations of the same name
// are ignored so plugins cannot clobber the built-ins.
func RegisterType(info TypeInfo) bool {
	if info.Name == "" {
		return false
	}
	typeRegistry.Lock()
	defer typeRegistry.Unlock()
	if _, ok := typeRegistry.types[info.Name]; ok {
		return false
	}
	info.internal = false
	typeRegistry.types[info.Name] = info
	return true
}

// UnregisterType removes a registered type. The built-ins are internal
// and stay put.
func UnregisterType(name string) bool {
	typeRegistry.Lock()
	defer typeRegistry.Unlock()
	info, ok := typeRegistry.types[name]
	if !ok || info.internal {
		return false
	}
	delete(typeRegistry.types, name)
	return true
}

// LookupType returns the registered type info for name.
func LookupType(name string) (TypeInfo, bool) {
	typeRegistry.RLock()
	defer typeRegistry.RUnlock()
	info, ok := typeRegistry.types[name]
	return info, ok
}

// Types returns all registered types sorted by name.
func Types() []TypeInfo {
	typeRegistry.RLock()
	defer typeRegistry.RUnlock()
	out := make([]TypeInfo, 0, len(typeRegistry.types))
	for _, info := range typeRegistry.types {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
