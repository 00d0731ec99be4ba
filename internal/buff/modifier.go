package buff

import (
	"log/slog"
	"math"

	"github.com/udisondev/statfx/internal/signal"
	"github.com/udisondev/statfx/internal/stat"
)

// Modifier is an atomic, reversible operation bound to one target stat.
//
// A modifier with a non-nil Ref is a composite: its magnitude derives from
// other stats (or an expression over them) instead of the stored Value.
// Configuration fields are set before Bind and must not change while the
// modifier is applied.
type Modifier struct {
	Stat      string
	Op        Op
	Value     float64
	Strategy  MergeStrategy
	ApplyOnce bool
	Ref       *Ref

	target   *stat.Stat
	resolver *Resolver

	applied      bool
	appliedDelta float64

	// guards against re-entrant reference refresh when a composite's
	// target stat is also one of its references
	refreshing bool
	refSubs    []refSub

	appliedSig signal.Signal[float64]
	removedSig signal.Signal[float64]
}

type refSub struct {
	st    *stat.Stat
	token int
}

// Bind resolves the target stat against owner and, for dynamic
// composites, subscribes to every referenced stat. A failed resolution
// logs a warning and leaves the modifier invalid: all further operations
// are no-ops returning zero.
func (m *Modifier) Bind(owner Owner) bool {
	if owner == nil {
		slog.Error("modifier bind with nil owner", "stat", m.Stat)
		return false
	}
	m.resolver = NewResolver(owner)
	m.target = owner.GetStat(m.Stat)
	if m.target == nil {
		slog.Warn("modifier target stat not found", "stat", m.Stat)
		return false
	}
	if m.Ref != nil {
		if !m.Ref.compile() {
			m.target = nil
			return false
		}
		if !m.Ref.Snapshot {
			m.subscribeRefs()
		}
	}
	return true
}

// Unbind drops the target reference and every dependency subscription.
func (m *Modifier) Unbind() {
	for _, sub := range m.refSubs {
		sub.st.Changed().Unsubscribe(sub.token)
	}
	m.refSubs = nil
	m.target = nil
	m.resolver = nil
}

// Valid reports whether the modifier is bound to a live stat.
func (m *Modifier) Valid() bool { return m.target != nil }

// Applied reports whether the modifier currently has an effect applied.
func (m *Modifier) Applied() bool { return m.applied }

// AppliedDelta returns the accumulated actual change produced on the
// target stat.
func (m *Modifier) AppliedDelta() float64 { return m.appliedDelta }

// OnApplied exposes the applied notification; the payload is the delta
// produced by that application.
func (m *Modifier) OnApplied() *signal.Signal[float64] { return &m.appliedSig }

// OnRemoved exposes the removed notification; the payload is the delta
// produced by that removal.
func (m *Modifier) OnRemoved() *signal.Signal[float64] { return &m.removedSig }

// Apply applies the modifier's effect and returns the actual delta
// produced on the target stat, which may be smaller than the configured
// value under clamping. Composite modifiers compute their reference value
// fresh on every call.
func (m *Modifier) Apply() float64 {
	v := m.Value
	if m.Ref != nil {
		v = m.referenceValue()
	}
	return m.ApplyValue(v)
}

// ApplyValue applies the effect with an explicit magnitude.
func (m *Modifier) ApplyValue(v float64) float64 {
	if !m.Valid() {
		return 0
	}
	if m.ApplyOnce && m.applied {
		return 0
	}

	if m.Op.IsSet() {
		m.applySet(v)
		m.applied = true
		m.appliedSig.Emit(0)
		return 0
	}

	delta := m.mutateField(m.scale(v))
	m.appliedDelta += delta
	m.applied = true
	m.appliedSig.Emit(delta)
	return delta
}

// Remove reverses the applied effect by feeding the negated delta through
// the same stat mutator, so clamping is respected symmetrically.
//
// With removeAll false (and ApplyOnce unset) a single value-sized step is
// removed instead, clamped so it cannot overshoot past zero remaining.
// Set* operations have no pre-image: removal only clears the applied flag.
func (m *Modifier) Remove(removeAll bool) float64 {
	if !m.Valid() || !m.applied {
		return 0
	}
	if m.Op.IsSet() {
		m.applied = false
		m.removedSig.Emit(0)
		return 0
	}

	mag := m.appliedDelta
	if !removeAll && !m.ApplyOnce {
		step := math.Abs(m.scale(m.Value))
		if step < math.Abs(mag) {
			mag = math.Copysign(step, mag)
		}
	}

	actual := m.mutateField(-mag)
	m.appliedDelta += actual
	if math.Abs(m.appliedDelta) < stat.Epsilon {
		m.appliedDelta = 0
		m.applied = false
	}
	m.removedSig.Emit(actual)
	return actual
}

// Merge combines other into m per m's merge strategy. Both modifiers must
// share (operation, target stat); otherwise Merge returns false and
// leaves both unchanged. If m is currently applied it is removed and
// re-applied so the stat reflects the combined value.
func (m *Modifier) Merge(other *Modifier) bool {
	if other == nil || m.Op != other.Op || m.Stat != other.Stat {
		return false
	}

	merged := m.Value
	switch m.Strategy {
	case MergeAdd:
		merged = m.Value + other.Value
	case MergeOverride:
		merged = other.Value
	case MergeMax:
		merged = math.Max(m.Value, other.Value)
	case MergeMin:
		merged = math.Min(m.Value, other.Value)
	}

	if m.applied {
		m.Remove(true)
		m.Value = merged
		m.Apply()
	} else {
		m.Value = merged
	}
	return true
}

// SimulateEffect applies the modifier to a disposable copy of the bound
// stat and returns the value/max difference against the live stat,
// without mutating it.
func (m *Modifier) SimulateEffect() (valueDiff, maxDiff float64) {
	if !m.Valid() {
		return 0, 0
	}
	probe := &Modifier{
		Stat:      m.Stat,
		Op:        m.Op,
		Value:     m.Value,
		ApplyOnce: m.ApplyOnce,
		applied:   m.applied,
		target:    m.target.Clone(),
	}
	v := m.Value
	if m.Ref != nil {
		v = m.referenceValue()
	}
	probe.ApplyValue(v)
	return probe.target.Value() - m.target.Value(), probe.target.Max() - m.target.Max()
}

// Copy returns a fresh unbound modifier with the same configuration.
func (m *Modifier) Copy() *Modifier {
	c := &Modifier{
		Stat:      m.Stat,
		Op:        m.Op,
		Value:     m.Value,
		Strategy:  m.Strategy,
		ApplyOnce: m.ApplyOnce,
	}
	if m.Ref != nil {
		c.Ref = m.Ref.copy()
	}
	return c
}

// scale converts a configured magnitude into field units. Normalized
// percent kinds take fractions (0.5 = 50%) and feed the percent
// accumulators in points.
func (m *Modifier) scale(v float64) float64 {
	if m.Op == OpPercentNormalized || m.Op == OpMaxPercentNormalized {
		return v * 100
	}
	return v
}

// mutateField applies a field-unit delta through the stat mutator matching
// the operation and returns the actual change.
func (m *Modifier) mutateField(x float64) float64 {
	switch m.Op {
	case OpFlat:
		return m.target.AddFlat(x)
	case OpPercent, OpPercentNormalized:
		return m.target.AddPercent(x)
	case OpMaxFlat:
		return m.target.AddMaxFlat(x)
	case OpMaxPercent, OpMaxPercentNormalized:
		return m.target.AddMaxPercent(x)
	case OpValue:
		return m.target.AddValue(x)
	case OpMaxValue:
		return m.target.AddMaxValue(x)
	case OpMinValue:
		return m.target.AddMinValue(x)
	default:
		return 0
	}
}

func (m *Modifier) applySet(v float64) {
	switch m.Op {
	case OpSetBase:
		m.target.SetBase(v)
	case OpSetMax:
		m.target.SetMax(v)
	case OpSetMin:
		m.target.SetMin(v)
	}
}
