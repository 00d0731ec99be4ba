package buff

import (
	"fmt"
	"sort"

	"github.com/udisondev/statfx/internal/stat"
)

// Snapshot returns a generic string-keyed view of the modifier, including
// its runtime apply state. Composite modifiers carry a "composite" class
// discriminator and their reference block.
func (m *Modifier) Snapshot() map[string]any {
	d := map[string]any{
		"class":          "modifier",
		"target_stat":    m.Stat,
		"operation":      m.Op.String(),
		"value":          m.Value,
		"merge_strategy": m.Strategy.String(),
		"apply_once":     m.ApplyOnce,
		"applied":        m.applied,
		"applied_delta":  m.appliedDelta,
	}
	if m.Ref != nil {
		d["class"] = "composite"
		d["ref"] = map[string]any{
			"stat":       m.Ref.Stat,
			"expression": m.Ref.Expression,
			"operation":  m.Ref.Op.String(),
			"snapshot":   m.Ref.Snapshot,
		}
	}
	return d
}

// ModifierFromSnapshot rebuilds an unbound modifier, restoring the
// runtime apply state so a later Remove still reverses exactly.
func ModifierFromSnapshot(d map[string]any) (*Modifier, error) {
	op, ok := ParseOp(stat.Str(d, "operation", ""))
	if !ok {
		return nil, fmt.Errorf("unknown modifier operation %q", stat.Str(d, "operation", ""))
	}
	strategy, _ := ParseMergeStrategy(stat.Str(d, "merge_strategy", "add"))
	m := &Modifier{
		Stat:         stat.Str(d, "target_stat", ""),
		Op:           op,
		Value:        stat.Num(d, "value", 0),
		Strategy:     strategy,
		ApplyOnce:    stat.Bool(d, "apply_once", false),
		applied:      stat.Bool(d, "applied", false),
		appliedDelta: stat.Num(d, "applied_delta", 0),
	}
	if m.Stat == "" {
		return nil, fmt.Errorf("modifier snapshot missing target stat")
	}
	if stat.Str(d, "class", "modifier") == "composite" {
		ref, ok := d["ref"].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("composite snapshot missing ref block")
		}
		refOp, _ := ParseRefOp(stat.Str(ref, "operation", "value_multiply"))
		m.Ref = &Ref{
			Stat:       stat.Str(ref, "stat", ""),
			Expression: stat.Str(ref, "expression", ""),
			Op:         refOp,
			Snapshot:   stat.Bool(ref, "snapshot", false),
		}
	}
	return m, nil
}

// Snapshot returns a generic string-keyed view of the condition.
func (c *Condition) Snapshot() map[string]any {
	return map[string]any{
		"ref1":           c.Ref1,
		"ref1_kind":      c.Kind1.String(),
		"ref2":           c.Ref2,
		"ref2_kind":      c.Kind2.String(),
		"comparator":     c.Cmp.String(),
		"negate":         c.Negate,
		"fallback_value": c.Fallback,
		"expression":     c.Expression,
		"cooldown":       c.Cooldown,
		"current_result": c.result,
		"cooldown_timer": c.cooldownLeft,
	}
}

// ConditionFromSnapshot rebuilds an unbound condition.
func ConditionFromSnapshot(d map[string]any) *Condition {
	kind1, _ := ParseRefKind(stat.Str(d, "ref1_kind", "value"))
	kind2, _ := ParseRefKind(stat.Str(d, "ref2_kind", "value"))
	cmp, _ := ParseComparator(stat.Str(d, "comparator", "eq"))
	return &Condition{
		Ref1:         stat.Str(d, "ref1", ""),
		Kind1:        kind1,
		Ref2:         stat.Str(d, "ref2", ""),
		Kind2:        kind2,
		Cmp:          cmp,
		Negate:       stat.Bool(d, "negate", false),
		Fallback:     stat.Num(d, "fallback_value", 0),
		Expression:   stat.Str(d, "expression", ""),
		Cooldown:     stat.Num(d, "cooldown", 0),
		result:       stat.Bool(d, "current_result", false),
		cooldownLeft: stat.Num(d, "cooldown_timer", 0),
	}
}

// Snapshot returns a generic string-keyed view of the set and its
// modifiers.
func (s *Set) Snapshot() map[string]any {
	d := map[string]any{
		"class":                      "set",
		"name":                       s.name,
		"group":                      s.group,
		"instance_id":                s.instanceID,
		"apply_on_start":             s.ApplyOnStart,
		"apply_on_condition_change":  s.ApplyOnConditionChange,
		"remove_on_condition_change": s.RemoveOnConditionChange,
		"pause_process_when_false":   s.PauseWhenFalse,
		"process_every_tick":         s.EveryTick,
		"merge_enabled":              s.MergeEnabled,
		"marked_for_deletion":        s.marked,
		"effects_applied":            s.effectsApplied,
	}
	mods := make([]any, 0, len(s.modifiers))
	for _, m := range s.modifiers {
		mods = append(mods, m.Snapshot())
	}
	d["modifiers"] = mods
	if s.condition != nil {
		d["condition"] = s.condition.Snapshot()
	}
	return d
}

// Snapshot extends the base set view with the timing configuration and
// runtime timers.
func (t *TimedSet) Snapshot() map[string]any {
	d := t.Set.Snapshot()
	d["class"] = "timed_set"
	d["interval"] = t.Interval
	d["min_interval"] = t.MinInterval
	d["max_interval"] = t.MaxInterval
	d["duration"] = t.Duration
	d["total_ticks"] = t.TotalTicks
	d["apply_at_start"] = t.ApplyAtStart
	d["remove_effect_on_finish"] = t.RemoveEffectOnFinish
	d["merge_policy"] = float64(t.Policy)
	d["elapsed_time"] = t.elapsed
	d["tick_accumulator"] = t.accumulator
	d["ticks_applied"] = t.ticksApplied
	return d
}

// SetFromSnapshot rebuilds an unbound set or timed set, dispatching on
// the "class" discriminator.
func SetFromSnapshot(d map[string]any) (ModifierSet, error) {
	base, err := baseSetFromSnapshot(d)
	if err != nil {
		return nil, err
	}
	if stat.Str(d, "class", "set") != "timed_set" {
		return base, nil
	}
	t := &TimedSet{
		Set:                  *base,
		Interval:             stat.Num(d, "interval", 0),
		MinInterval:          stat.Num(d, "min_interval", 0),
		MaxInterval:          stat.Num(d, "max_interval", 0),
		Duration:             stat.Num(d, "duration", 0),
		TotalTicks:           int(stat.Num(d, "total_ticks", 0)),
		ApplyAtStart:         stat.Bool(d, "apply_at_start", true),
		RemoveEffectOnFinish: stat.Bool(d, "remove_effect_on_finish", true),
		Policy:               MergePolicy(stat.Num(d, "merge_policy", 0)),
		elapsed:              stat.Num(d, "elapsed_time", 0),
		accumulator:          stat.Num(d, "tick_accumulator", 0),
		ticksApplied:         int(stat.Num(d, "ticks_applied", 0)),
	}
	return t, nil
}

func baseSetFromSnapshot(d map[string]any) (*Set, error) {
	name := stat.Str(d, "name", "")
	if name == "" {
		return nil, fmt.Errorf("set snapshot missing name")
	}
	s := NewSet(name, stat.Str(d, "group", ""))
	if id := stat.Str(d, "instance_id", ""); id != "" {
		s.instanceID = id
	}
	s.ApplyOnStart = stat.Bool(d, "apply_on_start", false)
	s.ApplyOnConditionChange = stat.Bool(d, "apply_on_condition_change", false)
	s.RemoveOnConditionChange = stat.Bool(d, "remove_on_condition_change", false)
	s.PauseWhenFalse = stat.Bool(d, "pause_process_when_false", false)
	s.EveryTick = stat.Bool(d, "process_every_tick", false)
	s.MergeEnabled = stat.Bool(d, "merge_enabled", true)
	s.marked = stat.Bool(d, "marked_for_deletion", false)
	s.effectsApplied = stat.Bool(d, "effects_applied", false)

	if mods, ok := d["modifiers"].([]any); ok {
		for _, raw := range mods {
			md, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("set %q: malformed modifier snapshot", name)
			}
			m, err := ModifierFromSnapshot(md)
			if err != nil {
				return nil, fmt.Errorf("set %q: %w", name, err)
			}
			s.modifiers = append(s.modifiers, m)
		}
	}
	if cd, ok := d["condition"].(map[string]any); ok {
		s.condition = ConditionFromSnapshot(cd)
	}
	return s, nil
}

// Snapshot returns the manager's active sets keyed by name.
func (b *Manager) Snapshot() map[string]any {
	sets := make(map[string]any, len(b.active))
	for name, set := range b.active {
		sets[name] = set.Snapshot()
	}
	return map[string]any{"sets": sets}
}

// Restore rebuilds the active sets from a Snapshot map. Sets are rebound
// to the manager's owner without re-applying effects: the owning stats
// carry the applied state in their own snapshots. Module AfterApply hooks
// still run for each restored set so bookkeeping like stack counts
// rebuilds. Insertion order is not serialized, so restored sets iterate
// in name order.
func (b *Manager) Restore(d map[string]any) error {
	sets, ok := d["sets"].(map[string]any)
	if !ok {
		return fmt.Errorf("manager snapshot missing sets")
	}
	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		sd, ok := sets[name].(map[string]any)
		if !ok {
			return fmt.Errorf("manager snapshot: malformed set %q", name)
		}
		set, err := SetFromSnapshot(sd)
		if err != nil {
			return err
		}
		if !b.rebind(set) {
			return fmt.Errorf("manager snapshot: set %q failed to bind", name)
		}
		b.active[set.Name()] = set
		b.order = append(b.order, set.Name())
		for _, mod := range b.modules {
			mod.AfterApply(b, set)
		}
	}
	return nil
}

// rebind wires a restored set to the owner without triggering initial
// application.
func (b *Manager) rebind(set ModifierSet) bool {
	switch s := set.(type) {
	case *TimedSet:
		return s.bind(b.owner)
	case *Set:
		return s.bind(b.owner)
	default:
		return set.Init(b.owner)
	}
}
