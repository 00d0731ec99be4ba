package buff

import (
	"log/slog"

	"github.com/google/uuid"
)

// ModifierSet is the manager-facing contract shared by plain and timed
// sets.
type ModifierSet interface {
	Name() string
	SetName(name string)
	Group() string
	InstanceID() string
	// Init binds every contained modifier and the optional condition to
	// owner and applies initial effects per the set's flags.
	Init(owner Owner) bool
	// Process advances per-tick work. Called by the manager only for
	// sets with ProcessEveryTick.
	Process(dt float64)
	ProcessEveryTick() bool
	// Merge folds other into the receiver; returns false when the sets
	// are incompatible, leaving both unchanged.
	Merge(other ModifierSet) bool
	Delete()
	MarkedForDeletion() bool
	// Copy deep-copies the set as an unbound template instance with a
	// fresh instance ID.
	Copy() ModifierSet
	Modifiers() []*Modifier
	Snapshot() map[string]any
}

// Set is a named, grouped collection of modifiers, optionally gated by a
// condition.
type Set struct {
	name       string
	group      string
	instanceID string

	modifiers []*Modifier
	condition *Condition

	// ApplyOnStart forces immediate application at Init even with a
	// condition present.
	ApplyOnStart bool
	// ApplyOnConditionChange applies all modifiers when the condition
	// becomes true; RemoveOnConditionChange removes them when it becomes
	// false.
	ApplyOnConditionChange  bool
	RemoveOnConditionChange bool
	// PauseWhenFalse suspends per-tick processing while the condition is
	// false. Used by timed sets to freeze ticking during a gate.
	PauseWhenFalse bool
	// EveryTick opts the set into Manager.Process.
	EveryTick bool
	// MergeEnabled allows re-application under the same name to merge
	// into the active set.
	MergeEnabled bool

	owner          Owner
	marked         bool // queued for removal
	released       bool // effects reverted and subscriptions dropped
	effectsApplied bool
	condToken      int
}

// NewSet creates an empty modifier set. Mergeable by default.
func NewSet(name, group string) *Set {
	return &Set{
		name:         name,
		group:        group,
		instanceID:   uuid.NewString(),
		MergeEnabled: true,
	}
}

// Name returns the set's key within a manager.
func (s *Set) Name() string { return s.name }

// SetName renames the set. Modules use this before insertion to create
// independent stack entries.
func (s *Set) SetName(name string) { s.name = name }

// Group returns the set's group label.
func (s *Set) Group() string { return s.group }

// SetGroup assigns the set's group label.
func (s *Set) SetGroup(group string) { s.group = group }

// InstanceID returns the unique identity of this set instance.
func (s *Set) InstanceID() string { return s.instanceID }

// Modifiers returns the contained modifiers in apply order.
func (s *Set) Modifiers() []*Modifier { return s.modifiers }

// Condition returns the gating condition, nil when ungated.
func (s *Set) Condition() *Condition { return s.condition }

// SetCondition installs the gating condition. Must be called before Init.
func (s *Set) SetCondition(c *Condition) { s.condition = c }

// AddModifier appends a modifier. Rejected once the set is marked for
// deletion.
func (s *Set) AddModifier(m *Modifier) bool {
	if s.marked || m == nil {
		return false
	}
	s.modifiers = append(s.modifiers, m)
	return true
}

// ProcessEveryTick reports whether the manager should call Process.
func (s *Set) ProcessEveryTick() bool { return s.EveryTick }

// MarkedForDeletion reports whether the set awaits removal.
func (s *Set) MarkedForDeletion() bool { return s.marked }

// Init binds the condition and every modifier to owner. Without a
// condition, or with ApplyOnStart, all modifiers are applied
// immediately; otherwise application waits for the condition to flip
// true.
func (s *Set) Init(owner Owner) bool {
	if !s.bind(owner) {
		return false
	}
	if s.condition == nil || s.ApplyOnStart {
		s.ApplyAll()
	} else if s.condition.Result() && s.ApplyOnConditionChange {
		s.ApplyAll()
	}
	return true
}

// bind wires owner, condition and modifiers without applying effects.
func (s *Set) bind(owner Owner) bool {
	if owner == nil {
		slog.Error("modifier set init with nil owner", "set", s.name)
		return false
	}
	s.owner = owner

	// An unresolvable gate keeps the whole set inert: a broken condition
	// must not degrade into a permanently open one.
	if s.condition != nil {
		if !s.condition.Bind(owner) {
			slog.Warn("modifier set condition failed to bind, set left inert", "set", s.name)
			s.owner = nil
			return false
		}
		s.condToken = s.condition.Changed().Subscribe(s.onConditionChanged)
	}

	for _, m := range s.modifiers {
		if !m.Bind(owner) {
			slog.Warn("modifier failed to bind, left inert", "set", s.name, "stat", m.Stat)
		}
	}
	return true
}

func (s *Set) onConditionChanged(result bool) {
	if result {
		if s.ApplyOnConditionChange && !s.effectsApplied {
			s.ApplyAll()
		}
		return
	}
	if s.RemoveOnConditionChange {
		s.RemoveAll()
	}
}

// paused reports whether per-tick work is suspended by the gate.
func (s *Set) paused() bool {
	return s.PauseWhenFalse && s.condition != nil && !s.condition.Result()
}

// ApplyAll applies every modifier in array order.
func (s *Set) ApplyAll() {
	for _, m := range s.modifiers {
		m.Apply()
	}
	s.effectsApplied = true
}

// RemoveAll removes every modifier's full effect in array order.
func (s *Set) RemoveAll() {
	for _, m := range s.modifiers {
		m.Remove(true)
	}
	s.effectsApplied = false
}

// Process ticks the condition cooldown. The gate itself is event-driven;
// this is the condition's only polling need.
func (s *Set) Process(dt float64) {
	if s.condition != nil {
		s.condition.Tick(dt)
	}
}

// Merge pairwise-merges modifiers whose (operation, stat) match, in array
// order. Sets of differing length are distinct effects and do not merge.
func (s *Set) Merge(other ModifierSet) bool {
	if !s.MergeEnabled || other == nil {
		return false
	}
	return s.mergeModifiers(other)
}

func (s *Set) mergeModifiers(other ModifierSet) bool {
	theirs := other.Modifiers()
	if len(s.modifiers) != len(theirs) {
		return false
	}
	// Validate every pair first so a partial merge never happens.
	for i, mine := range s.modifiers {
		if mine.Op != theirs[i].Op || mine.Stat != theirs[i].Stat {
			return false
		}
	}
	for i, mine := range s.modifiers {
		mine.Merge(theirs[i])
	}
	return true
}

// Delete removes all modifier effects, unbinds everything and marks the
// set for deletion. A deleted set rejects further AddModifier calls.
func (s *Set) Delete() {
	s.expire(true)
}

// expire marks the set for deletion, optionally leaving applied effects
// in place (a timed set that should not revert its work on finish).
func (s *Set) expire(removeEffects bool) {
	if s.released {
		return
	}
	if removeEffects {
		s.RemoveAll()
	}
	s.unbind()
	s.released = true
	s.marked = true
}

func (s *Set) unbind() {
	if s.condition != nil {
		s.condition.Changed().Unsubscribe(s.condToken)
		s.condition.Unbind()
	}
	for _, m := range s.modifiers {
		m.Unbind()
	}
	s.owner = nil
}

// Copy deep-copies the set configuration into a fresh unbound instance.
func (s *Set) Copy() ModifierSet {
	return s.copyBase()
}

func (s *Set) copyBase() *Set {
	c := NewSet(s.name, s.group)
	c.ApplyOnStart = s.ApplyOnStart
	c.ApplyOnConditionChange = s.ApplyOnConditionChange
	c.RemoveOnConditionChange = s.RemoveOnConditionChange
	c.PauseWhenFalse = s.PauseWhenFalse
	c.EveryTick = s.EveryTick
	c.MergeEnabled = s.MergeEnabled
	if s.condition != nil {
		c.condition = s.condition.Copy()
	}
	for _, m := range s.modifiers {
		c.modifiers = append(c.modifiers, m.Copy())
	}
	return c
}
