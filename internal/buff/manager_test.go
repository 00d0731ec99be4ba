package buff

import (
	"testing"

	"github.com/udisondev/statfx/internal/stat"
)

func TestManagerApplyAndRemove(t *testing.T) {
	owner := newTestOwner()
	strength := owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	b := NewManager(owner)

	s := NewSet("giant_strength", "physical")
	s.AddModifier(&Modifier{Stat: "strength", Op: OpFlat, Value: 5})

	if !b.Apply(s, false) {
		t.Fatal("apply failed")
	}
	approx(t, strength.Value(), 15, "effect live")
	if !b.Has("giant_strength") || b.Len() != 1 {
		t.Fatal("set must be tracked")
	}

	if !b.Remove("giant_strength") {
		t.Fatal("remove failed")
	}
	approx(t, strength.Value(), 10, "effect reverted")
	if b.Has("giant_strength") || b.Len() != 0 {
		t.Fatal("set must be gone")
	}
	if b.Remove("giant_strength") {
		t.Fatal("removing an absent set must fail")
	}
}

func TestManagerApplyCopiesTemplate(t *testing.T) {
	owner := newTestOwner()
	owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	b := NewManager(owner)

	tpl := NewSet("giant_strength", "physical")
	tpl.AddModifier(&Modifier{Stat: "strength", Op: OpFlat, Value: 5})

	b.Apply(tpl, true)
	if tpl.Modifiers()[0].Valid() {
		t.Fatal("template must stay unbound")
	}
	active, _ := b.Get("giant_strength")
	if active == ModifierSet(tpl) {
		t.Fatal("active set must be a copy of the template")
	}
}

func TestManagerMergeOnSameName(t *testing.T) {
	owner := newTestOwner()
	strength := owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	b := NewManager(owner)

	build := func() *Set {
		s := NewSet("warcry", "physical")
		s.AddModifier(&Modifier{Stat: "strength", Op: OpFlat, Value: 5, Strategy: MergeAdd})
		return s
	}

	b.Apply(build(), false)
	b.Apply(build(), false)

	if b.Len() != 1 {
		t.Fatalf("active sets = %d, want 1 after merge", b.Len())
	}
	approx(t, strength.Value(), 20, "merged effect")
}

func TestManagerMergeRejectionFailsApply(t *testing.T) {
	owner := newTestOwner()
	owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	b := NewManager(owner)

	a := NewSet("unique", "")
	a.MergeEnabled = false
	a.AddModifier(&Modifier{Stat: "strength", Op: OpFlat, Value: 5})
	b.Apply(a, false)

	dup := NewSet("unique", "")
	dup.AddModifier(&Modifier{Stat: "strength", Op: OpFlat, Value: 5})
	if b.Apply(dup, false) {
		t.Fatal("apply must fail when the active set rejects the merge")
	}
	if b.Len() != 1 {
		t.Fatal("rejected apply must not add an entry")
	}
}

type vetoModule struct {
	BaseModule
	veto bool
}

func (v *vetoModule) BeforeApply(*Manager, ModifierSet) bool { return !v.veto }

func TestManagerModuleVeto(t *testing.T) {
	owner := newTestOwner()
	strength := owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	b := NewManager(owner)
	mod := &vetoModule{veto: true}
	b.AddModule(mod)

	s := NewSet("giant_strength", "")
	s.AddModifier(&Modifier{Stat: "strength", Op: OpFlat, Value: 5})

	if b.Apply(s, false) {
		t.Fatal("vetoed apply must fail")
	}
	approx(t, strength.Value(), 10, "veto leaves the stat untouched")

	mod.veto = false
	if !b.Apply(s, false) {
		t.Fatal("apply must pass once the veto lifts")
	}
}

func TestManagerProcessRemovesExpired(t *testing.T) {
	owner := newTestOwner()
	strength := owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	b := NewManager(owner)

	var removed []string
	b.OnRemoved().Subscribe(func(s ModifierSet) { removed = append(removed, s.Name()) })

	ts := NewTimedSet("giant_strength", "physical")
	ts.Duration = 2
	ts.AddModifier(&Modifier{Stat: "strength", Op: OpFlat, Value: 5})
	b.Apply(ts, false)

	b.Process(1)
	if b.Len() != 1 {
		t.Fatal("set must survive mid-duration")
	}
	b.Process(1)
	if b.Len() != 0 {
		t.Fatal("expired set must be removed after the pass")
	}
	approx(t, strength.Value(), 10, "effect reverted on expiry")
	if len(removed) != 1 || removed[0] != "giant_strength" {
		t.Fatalf("removed signal = %v", removed)
	}
}

func TestManagerGroups(t *testing.T) {
	owner := newTestOwner()
	owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})
	owner.add("health", stat.Config{Base: 100, Min: 0, Max: 500})

	b := NewManager(owner)

	phys := NewSet("giant_strength", "physical")
	phys.AddModifier(&Modifier{Stat: "strength", Op: OpFlat, Value: 5})
	regen := NewSet("minor_regen", "regen")
	regen.AddModifier(&Modifier{Stat: "health", Op: OpFlat, Value: 10})
	phys2 := NewSet("warcry", "physical")
	phys2.AddModifier(&Modifier{Stat: "strength", Op: OpFlat, Value: 2})

	b.Apply(phys, false)
	b.Apply(regen, false)
	b.Apply(phys2, false)

	if got := len(b.Group("physical")); got != 2 {
		t.Fatalf("physical group size = %d, want 2", got)
	}
	if !b.HasGroup("regen") {
		t.Fatal("regen group must be present")
	}

	if n := b.RemoveGroup("physical"); n != 2 {
		t.Fatalf("removed = %d, want 2", n)
	}
	if b.Len() != 1 || !b.Has("minor_regen") {
		t.Fatal("only the regen set must remain")
	}
	approx(t, owner.GetStat("strength").Value(), 10, "physical effects reverted")
}

func TestManagerNamesInInsertionOrder(t *testing.T) {
	owner := newTestOwner()
	owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	b := NewManager(owner)
	for _, name := range []string{"c", "a", "b"} {
		s := NewSet(name, "")
		s.AddModifier(&Modifier{Stat: "strength", Op: OpFlat, Value: 1})
		b.Apply(s, false)
	}

	names := b.Names()
	if len(names) != 3 || names[0] != "c" || names[1] != "a" || names[2] != "b" {
		t.Fatalf("names = %v, want insertion order [c a b]", names)
	}
}
