package buff

import (
	"testing"

	"github.com/udisondev/statfx/internal/stat"
)

func TestModifierApplyRemoveInverse(t *testing.T) {
	owner := newTestOwner()
	owner.add("health", stat.Config{Base: 100, Min: 0, Max: 200, FinalClamped: true})

	m := &Modifier{Stat: "health", Op: OpFlat, Value: 50}
	if !m.Bind(owner) {
		t.Fatal("bind failed")
	}

	delta := m.Apply()
	approx(t, delta, 50, "apply delta")
	approx(t, owner.GetStat("health").Value(), 150, "value after apply")
	if !m.Applied() {
		t.Fatal("modifier should be applied")
	}

	back := m.Remove(true)
	approx(t, back, -50, "remove delta")
	approx(t, owner.GetStat("health").Value(), 100, "value after remove")
	approx(t, m.AppliedDelta(), 0, "applied delta after remove")
	if m.Applied() {
		t.Fatal("modifier should not be applied after remove")
	}
}

func TestModifierClampedDeltaReverses(t *testing.T) {
	owner := newTestOwner()
	health := owner.add("health", stat.Config{Base: 100, Min: 0, Max: 200, BaseClamped: true})

	m := &Modifier{Stat: "health", Op: OpValue, Value: 150}
	m.Bind(owner)

	delta := m.Apply()
	approx(t, delta, 100, "clamped apply delta")
	approx(t, health.Base(), 200, "base after clamped apply")

	m.Remove(true)
	approx(t, health.Base(), 100, "base after remove")
}

func TestModifierApplyOnce(t *testing.T) {
	owner := newTestOwner()
	owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	m := &Modifier{Stat: "strength", Op: OpFlat, Value: 5, ApplyOnce: true}
	m.Bind(owner)

	approx(t, m.Apply(), 5, "first apply")
	approx(t, m.Apply(), 0, "second apply is a no-op")
	approx(t, owner.GetStat("strength").Value(), 15, "value")
}

func TestModifierStackedApplyPartialRemove(t *testing.T) {
	owner := newTestOwner()
	health := owner.add("health", stat.Config{Base: 100, Min: 0, Max: 500})

	m := &Modifier{Stat: "health", Op: OpFlat, Value: 10}
	m.Bind(owner)

	m.Apply()
	m.Apply()
	m.Apply()
	approx(t, m.AppliedDelta(), 30, "accumulated delta")

	m.Remove(false)
	approx(t, m.AppliedDelta(), 20, "delta after one step")
	approx(t, health.Value(), 120, "value after one step")
	if !m.Applied() {
		t.Fatal("partial removal must keep the modifier applied")
	}

	m.Remove(false)
	m.Remove(false)
	approx(t, m.AppliedDelta(), 0, "delta after full stepwise removal")
	approx(t, health.Value(), 100, "value restored")
	if m.Applied() {
		t.Fatal("modifier should be released after full stepwise removal")
	}
}

func TestModifierPartialRemoveNeverOvershoots(t *testing.T) {
	owner := newTestOwner()
	health := owner.add("health", stat.Config{Base: 100, Min: 0, Max: 500})

	m := &Modifier{Stat: "health", Op: OpFlat, Value: 10}
	m.Bind(owner)
	m.Apply()

	// Remaining effect (10) is smaller than two steps; the second step
	// must not push past zero.
	m.Remove(false)
	m.Remove(false)
	approx(t, health.Value(), 100, "value")
	approx(t, m.AppliedDelta(), 0, "delta")
}

func TestModifierMergeAdd(t *testing.T) {
	owner := newTestOwner()
	health := owner.add("health", stat.Config{Base: 100, Min: 0, Max: 500})

	m := &Modifier{Stat: "health", Op: OpFlat, Value: 20, Strategy: MergeAdd}
	m.Bind(owner)
	m.Apply()

	other := &Modifier{Stat: "health", Op: OpFlat, Value: 30}
	if !m.Merge(other) {
		t.Fatal("merge rejected")
	}
	approx(t, m.Value, 50, "merged value")
	approx(t, health.Value(), 150, "stat reflects merged value")
}

func TestModifierMergeStrategies(t *testing.T) {
	cases := []struct {
		strategy MergeStrategy
		want     float64
	}{
		{MergeAdd, 50},
		{MergeOverride, 30},
		{MergeMax, 30},
		{MergeMin, 20},
	}
	for _, tc := range cases {
		m := &Modifier{Stat: "health", Op: OpFlat, Value: 20, Strategy: tc.strategy}
		other := &Modifier{Stat: "health", Op: OpFlat, Value: 30}
		if !m.Merge(other) {
			t.Fatalf("%v: merge rejected", tc.strategy)
		}
		approx(t, m.Value, tc.want, tc.strategy.String())
	}
}

func TestModifierMergeRejectsMismatch(t *testing.T) {
	m := &Modifier{Stat: "health", Op: OpFlat, Value: 20}
	if m.Merge(&Modifier{Stat: "mana", Op: OpFlat, Value: 30}) {
		t.Fatal("merge across stats must be rejected")
	}
	if m.Merge(&Modifier{Stat: "health", Op: OpPercent, Value: 30}) {
		t.Fatal("merge across operations must be rejected")
	}
	approx(t, m.Value, 20, "value unchanged after rejected merges")
}

func TestModifierSimulateEffect(t *testing.T) {
	owner := newTestOwner()
	health := owner.add("health", stat.Config{Base: 100, Min: 0, Max: 200, FinalClamped: true})

	m := &Modifier{Stat: "health", Op: OpFlat, Value: 150}
	m.Bind(owner)

	valueDiff, maxDiff := m.SimulateEffect()
	approx(t, valueDiff, 100, "simulated value diff respects clamping")
	approx(t, maxDiff, 0, "simulated max diff")
	approx(t, health.Value(), 100, "live stat untouched")
	if m.Applied() {
		t.Fatal("simulation must not mark the modifier applied")
	}
}

func TestModifierSetOpNotReversible(t *testing.T) {
	owner := newTestOwner()
	health := owner.add("health", stat.Config{Base: 100, Min: 0, Max: 200})

	m := &Modifier{Stat: "health", Op: OpSetBase, Value: 42}
	m.Bind(owner)

	approx(t, m.Apply(), 0, "set apply reports no delta")
	approx(t, health.Base(), 42, "base overwritten")

	approx(t, m.Remove(true), 0, "set remove reports no delta")
	approx(t, health.Base(), 42, "base stays overwritten")
	if m.Applied() {
		t.Fatal("remove must clear the applied flag")
	}
}

func TestModifierInvalidIsInert(t *testing.T) {
	owner := newTestOwner()

	m := &Modifier{Stat: "missing", Op: OpFlat, Value: 10}
	if m.Bind(owner) {
		t.Fatal("bind against a missing stat must fail")
	}
	if m.Valid() {
		t.Fatal("modifier must be invalid")
	}
	approx(t, m.Apply(), 0, "apply on invalid")
	approx(t, m.Remove(true), 0, "remove on invalid")
}

func TestModifierPercentNormalizedScaling(t *testing.T) {
	owner := newTestOwner()
	health := owner.add("health", stat.Config{Base: 100, Min: 0, Max: 500})

	// 0.5 means +50% of base.
	m := &Modifier{Stat: "health", Op: OpPercentNormalized, Value: 0.5}
	m.Bind(owner)

	m.Apply()
	approx(t, health.Percent(), 50, "percent points after apply")
	approx(t, health.Value(), 150, "value after apply")

	m.Remove(true)
	approx(t, health.Value(), 100, "value after remove")
}

func TestModifierSignals(t *testing.T) {
	owner := newTestOwner()
	owner.add("health", stat.Config{Base: 100, Min: 0, Max: 500})

	m := &Modifier{Stat: "health", Op: OpFlat, Value: 25}
	m.Bind(owner)

	var appliedDeltas, removedDeltas []float64
	m.OnApplied().Subscribe(func(d float64) { appliedDeltas = append(appliedDeltas, d) })
	m.OnRemoved().Subscribe(func(d float64) { removedDeltas = append(removedDeltas, d) })

	m.Apply()
	m.Remove(true)

	if len(appliedDeltas) != 1 || len(removedDeltas) != 1 {
		t.Fatalf("signal counts = %d/%d, want 1/1", len(appliedDeltas), len(removedDeltas))
	}
	approx(t, appliedDeltas[0], 25, "applied payload")
	approx(t, removedDeltas[0], -25, "removed payload")
}

func TestModifierCopyIsUnbound(t *testing.T) {
	owner := newTestOwner()
	owner.add("health", stat.Config{Base: 100, Min: 0, Max: 500})

	m := &Modifier{Stat: "health", Op: OpFlat, Value: 10, Ref: &Ref{Stat: "strength", Op: RefBaseMultiply}}
	m.Bind(owner)
	m.Apply()

	c := m.Copy()
	if c.Valid() || c.Applied() {
		t.Fatal("copy must be unbound and unapplied")
	}
	if c.Ref == m.Ref {
		t.Fatal("copy must not share the reference block")
	}
	if c.Stat != m.Stat || c.Op != m.Op || c.Value != m.Value {
		t.Fatal("copy must keep the configuration")
	}
}
