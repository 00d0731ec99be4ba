package buff

// MergePolicy is a bitmask of merge behaviors for timed sets. Flags are
// independent and may combine; evaluation order is fixed:
// value → duration → interval → custom → resets → delete.
type MergePolicy uint16

const (
	// MergeAddValue delegates to the base set merge (pairwise modifier
	// merging).
	MergeAddValue MergePolicy = 1 << iota
	// MergeAddDuration sums the durations.
	MergeAddDuration
	// MergeAddInterval / MergeReduceInterval shift the interval by the
	// incoming set's interval, clamped to [MinInterval, MaxInterval].
	MergeAddInterval
	MergeReduceInterval
	// MergeCustom invokes the caller-supplied merge callback.
	MergeCustom
	// MergeResetDuration / MergeResetIntervalTimer zero the respective
	// runtime timer.
	MergeResetDuration
	MergeResetIntervalTimer
	// MergeDelete marks the merged set for deletion.
	MergeDelete
)

// TimedSet extends Set with interval ticking, a total duration and a tick
// cap.
//
// State machine: Idle → Active (Init, effects live if ApplyAtStart) →
// Ticking (per Process) → Deleted (terminal). A timed set with both
// interval and duration zero is invalid and deletes itself on the first
// Process call.
type TimedSet struct {
	Set

	Interval    float64
	MinInterval float64
	MaxInterval float64
	Duration    float64
	// TotalTicks caps interval applications; 0 or negative means
	// uncapped.
	TotalTicks int
	// ApplyAtStart applies effects at Init rather than waiting for the
	// first interval tick.
	ApplyAtStart bool
	// RemoveEffectOnFinish reverts applied effects when the set expires.
	RemoveEffectOnFinish bool

	Policy MergePolicy
	// CustomMerge runs under MergeCustom with the receiver and the
	// incoming set.
	CustomMerge func(existing, incoming *TimedSet)

	elapsed      float64
	accumulator  float64
	ticksApplied int
}

// NewTimedSet creates an empty timed set. Timed sets participate in
// Manager.Process by default, expire with effect removal, and merge by
// refreshing the duration.
func NewTimedSet(name, group string) *TimedSet {
	t := &TimedSet{
		Set:                  *NewSet(name, group),
		ApplyAtStart:         true,
		RemoveEffectOnFinish: true,
		Policy:               MergeResetDuration,
	}
	t.EveryTick = true
	return t
}

// Elapsed returns the accumulated lifetime.
func (t *TimedSet) Elapsed() float64 { return t.elapsed }

// TicksApplied returns how many interval applications have run.
func (t *TimedSet) TicksApplied() int { return t.ticksApplied }

// Init binds the set and applies effects when ApplyAtStart is set and the
// gate (if any) is open.
func (t *TimedSet) Init(owner Owner) bool {
	if !t.bind(owner) {
		return false
	}
	if t.ApplyAtStart && (t.condition == nil || t.condition.Result()) {
		t.ApplyAll()
	}
	return true
}

// Process advances the interval accumulator and the duration clock.
//
// The accumulator is capped so it cannot exceed the remaining duration;
// each full interval re-applies all modifiers once. The duration cutoff
// is independent of the tick branch: a set can have both a ticking effect
// and a hard expiry.
func (t *TimedSet) Process(dt float64) {
	if t.marked {
		return
	}
	t.Set.Process(dt) // condition cooldown keeps ticking even when paused
	if t.paused() {
		return
	}

	if t.Interval == 0 && t.Duration == 0 {
		t.expire(t.RemoveEffectOnFinish)
		return
	}

	if t.Interval > 0 {
		t.accumulator += dt
		if t.Duration > 0 {
			if remaining := t.Duration - t.elapsed; t.accumulator > remaining {
				t.accumulator = remaining
			}
		}
		for t.accumulator >= t.Interval {
			t.accumulator -= t.Interval
			t.ApplyAll()
			t.ticksApplied++
			if t.TotalTicks > 0 && t.ticksApplied >= t.TotalTicks {
				t.expire(t.RemoveEffectOnFinish)
				return
			}
		}
	}

	if t.Duration > 0 {
		t.elapsed += dt
		if t.elapsed >= t.Duration {
			t.expire(t.RemoveEffectOnFinish)
		}
	}
}

// Merge folds an incoming timed set into the receiver per the merge
// policy bitmask. Returns false when merging is disabled, the other set
// is not timed, or MergeAddValue finds incompatible modifier lists.
func (t *TimedSet) Merge(other ModifierSet) bool {
	if !t.MergeEnabled {
		return false
	}
	incoming, ok := other.(*TimedSet)
	if !ok {
		return false
	}

	if t.Policy&MergeAddValue != 0 {
		if !t.mergeModifiers(incoming) {
			return false
		}
	}
	if t.Policy&MergeAddDuration != 0 {
		t.Duration += incoming.Duration
	}
	if t.Policy&MergeAddInterval != 0 {
		t.Interval = t.clampInterval(t.Interval + incoming.Interval)
	}
	if t.Policy&MergeReduceInterval != 0 {
		t.Interval = t.clampInterval(t.Interval - incoming.Interval)
	}
	if t.Policy&MergeCustom != 0 && t.CustomMerge != nil {
		t.CustomMerge(t, incoming)
	}
	if t.Policy&MergeResetDuration != 0 {
		t.elapsed = 0
	}
	if t.Policy&MergeResetIntervalTimer != 0 {
		t.accumulator = 0
	}
	if t.Policy&MergeDelete != 0 {
		t.marked = true
	}
	return true
}

func (t *TimedSet) clampInterval(v float64) float64 {
	if t.MinInterval > 0 && v < t.MinInterval {
		v = t.MinInterval
	}
	if t.MaxInterval > 0 && v > t.MaxInterval {
		v = t.MaxInterval
	}
	if v < 0 {
		v = 0
	}
	return v
}

// Copy deep-copies the timed set configuration into a fresh unbound
// instance.
func (t *TimedSet) Copy() ModifierSet {
	c := &TimedSet{
		Set:                  *t.copyBase(),
		Interval:             t.Interval,
		MinInterval:          t.MinInterval,
		MaxInterval:          t.MaxInterval,
		Duration:             t.Duration,
		TotalTicks:           t.TotalTicks,
		ApplyAtStart:         t.ApplyAtStart,
		RemoveEffectOnFinish: t.RemoveEffectOnFinish,
		Policy:               t.Policy,
		CustomMerge:          t.CustomMerge,
	}
	return c
}
