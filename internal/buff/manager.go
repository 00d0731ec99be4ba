package buff

import (
	"log/slog"

	"github.com/udisondev/statfx/internal/signal"
)

// Manager owns the active modifier sets of one entity, keyed by name, and
// drives their per-tick processing.
//
// Modules intercept the apply/remove lifecycle in registration order; any
// BeforeApply veto rejects the whole application. Removal of expired sets
// happens only after the iteration pass that discovered them, always
// through the normal remove path so hooks fire consistently.
//
// Unlike a networked effect list there is no mutex here: module hooks and
// condition callbacks re-enter the manager synchronously, and the engine
// runs single-threaded by contract.
type Manager struct {
	owner   Owner
	active  map[string]ModifierSet
	order   []string // insertion order, for deterministic iteration
	modules []Module

	applied signal.Signal[ModifierSet]
	removed signal.Signal[ModifierSet]
}

// NewManager creates an empty manager for owner.
func NewManager(owner Owner) *Manager {
	return &Manager{
		owner:  owner,
		active: make(map[string]ModifierSet),
	}
}

// Owner returns the entity this manager modifies.
func (b *Manager) Owner() Owner { return b.owner }

// AddModule appends a lifecycle module. Hook order follows registration
// order.
func (b *Manager) AddModule(m Module) {
	if m == nil {
		return
	}
	b.modules = append(b.modules, m)
}

// OnApplied exposes the applied notification.
func (b *Manager) OnApplied() *signal.Signal[ModifierSet] { return &b.applied }

// OnRemoved exposes the removed notification.
func (b *Manager) OnRemoved() *signal.Signal[ModifierSet] { return &b.removed }

// Apply activates a modifier set. With copyTemplate set the incoming set
// is deep-copied first, so callers can hold reusable templates.
//
// Module BeforeApply hooks run in order and may veto; a veto is a normal
// control-flow outcome, not an error. When a set with the same name is
// already active, the incoming set merges into it instead of adding a
// second entry.
func (b *Manager) Apply(set ModifierSet, copyTemplate bool) bool {
	if set == nil {
		return false
	}
	if copyTemplate {
		set = set.Copy()
	}

	// Module hooks may rename the set (independent stacking). On any
	// failed path the caller's set gets its name back, so an unapplied
	// template is never left mutated.
	origName := set.Name()

	for _, mod := range b.modules {
		if !mod.BeforeApply(b, set) {
			slog.Debug("modifier set vetoed", "set", set.Name())
			set.SetName(origName)
			return false
		}
	}

	if existing, ok := b.active[set.Name()]; ok {
		if !existing.Merge(set) {
			slog.Debug("modifier set merge rejected", "set", set.Name())
			set.SetName(origName)
			return false
		}
		set = existing
	} else {
		if !set.Init(b.owner) {
			set.SetName(origName)
			return false
		}
		b.active[set.Name()] = set
		b.order = append(b.order, set.Name())
	}

	for _, mod := range b.modules {
		mod.AfterApply(b, set)
	}
	b.applied.Emit(set)
	return true
}

// Remove deletes an active set by name through the module hooks. Returns
// false when no set of that name is active.
func (b *Manager) Remove(name string) bool {
	set, ok := b.active[name]
	if !ok {
		return false
	}

	for _, mod := range b.modules {
		mod.BeforeRemove(b, set)
	}

	set.Delete()
	delete(b.active, name)
	for i, n := range b.order {
		if n == name {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}

	for _, mod := range b.modules {
		mod.AfterRemove(b, set)
	}
	b.removed.Emit(set)
	return true
}

// Process advances every active set by dt, then the modules, then removes
// the sets that expired during the pass.
func (b *Manager) Process(dt float64) {
	var expired []string
	for _, name := range b.order {
		set, ok := b.active[name]
		if !ok {
			continue
		}
		if set.MarkedForDeletion() {
			expired = append(expired, name)
			continue
		}
		if set.ProcessEveryTick() {
			set.Process(dt)
			if set.MarkedForDeletion() {
				expired = append(expired, name)
			}
		}
	}

	for _, mod := range b.modules {
		mod.Process(b, dt)
	}

	for _, name := range expired {
		b.Remove(name)
	}
}

// Get returns an active set by name.
func (b *Manager) Get(name string) (ModifierSet, bool) {
	set, ok := b.active[name]
	return set, ok
}

// Has reports whether a set of that name is active.
func (b *Manager) Has(name string) bool {
	_, ok := b.active[name]
	return ok
}

// Names returns the active set names in insertion order.
func (b *Manager) Names() []string {
	out := make([]string, len(b.order))
	copy(out, b.order)
	return out
}

// Len returns the number of active sets.
func (b *Manager) Len() int { return len(b.active) }

// Group returns the active sets carrying the given group label, in
// insertion order.
func (b *Manager) Group(group string) []ModifierSet {
	var out []ModifierSet
	for _, name := range b.order {
		if set, ok := b.active[name]; ok && set.Group() == group {
			out = append(out, set)
		}
	}
	return out
}

// HasGroup reports whether any active set carries the group label.
func (b *Manager) HasGroup(group string) bool {
	for _, set := range b.active {
		if set.Group() == group {
			return true
		}
	}
	return false
}

// RemoveGroup removes every active set in the group and returns how many
// were removed.
func (b *Manager) RemoveGroup(group string) int {
	var names []string
	for _, name := range b.order {
		if set, ok := b.active[name]; ok && set.Group() == group {
			names = append(names, name)
		}
	}
	for _, name := range names {
		b.Remove(name)
	}
	return len(names)
}
