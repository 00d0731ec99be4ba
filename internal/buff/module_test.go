package buff

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/udisondev/statfx/internal/stat"
)

func strengthSet(name string) *Set {
	s := NewSet(name, "physical")
	s.AddModifier(&Modifier{Stat: "strength", Op: OpFlat, Value: 5, Strategy: MergeAdd})
	return s
}

func TestStackingMergeCap(t *testing.T) {
	owner := newTestOwner()
	strength := owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	b := NewManager(owner)
	stacking := NewStackingModule()
	stacking.SetRule("warcry", StackRule{MaxStacks: 2, Behavior: StackMerge})
	b.AddModule(stacking)

	if !b.Apply(strengthSet("warcry"), false) {
		t.Fatal("first stack rejected")
	}
	if !b.Apply(strengthSet("warcry"), false) {
		t.Fatal("second stack rejected")
	}
	if b.Apply(strengthSet("warcry"), false) {
		t.Fatal("third stack must be vetoed at the cap")
	}
	approx(t, strength.Value(), 20, "two merged stacks")
	if stacking.Count("warcry") != 2 {
		t.Fatalf("count = %d, want 2", stacking.Count("warcry"))
	}
}

func TestStackingIndependentEntries(t *testing.T) {
	owner := newTestOwner()
	strength := owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	b := NewManager(owner)
	stacking := NewStackingModule()
	stacking.SetRule("warcry", StackRule{MaxStacks: 3, Behavior: StackIndependent})
	b.AddModule(stacking)

	for i := 0; i < 3; i++ {
		if !b.Apply(strengthSet("warcry"), false) {
			t.Fatalf("stack %d rejected", i+1)
		}
	}
	if b.Apply(strengthSet("warcry"), false) {
		t.Fatal("fourth stack must be vetoed")
	}

	if b.Len() != 3 {
		t.Fatalf("active sets = %d, want 3 independent entries", b.Len())
	}
	for i := 1; i <= 3; i++ {
		if !b.Has(fmt.Sprintf("warcry#%d", i)) {
			t.Fatalf("missing independent entry warcry#%d", i)
		}
	}
	approx(t, strength.Value(), 25, "three independent stacks")

	b.Remove("warcry#2")
	if stacking.Count("warcry") != 2 {
		t.Fatalf("count after removal = %d, want 2", stacking.Count("warcry"))
	}
	if !b.Apply(strengthSet("warcry"), false) {
		t.Fatal("a freed slot must accept a new stack")
	}
}

func TestStackingFreedSuffixNotReused(t *testing.T) {
	owner := newTestOwner()
	strength := owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	b := NewManager(owner)
	stacking := NewStackingModule()
	stacking.SetRule("warcry", StackRule{MaxStacks: 3, Behavior: StackIndependent})
	b.AddModule(stacking)

	for i := 0; i < 3; i++ {
		b.Apply(strengthSet("warcry"), false)
	}
	b.Remove("warcry#2")
	approx(t, strength.Value(), 20, "two stacks after the middle removal")

	if !b.Apply(strengthSet("warcry"), false) {
		t.Fatal("freed slot rejected")
	}
	if b.Len() != 3 {
		t.Fatalf("active sets = %d, want 3 distinct independent stacks", b.Len())
	}
	for _, name := range []string{"warcry#1", "warcry#3", "warcry#4"} {
		if !b.Has(name) {
			t.Fatalf("missing entry %s, names = %v", name, b.Names())
		}
	}
	if b.Has("warcry#2") {
		t.Fatal("removed suffix must not come back")
	}
	approx(t, strength.Value(), 25, "each stack contributes once")
	if stacking.Count("warcry") != 3 {
		t.Fatalf("count = %d, want 3", stacking.Count("warcry"))
	}
}

func TestStackingRenameRolledBackOnLaterVeto(t *testing.T) {
	owner := newTestOwner()
	owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	b := NewManager(owner)
	stacking := NewStackingModule()
	stacking.SetRule("warcry", StackRule{MaxStacks: 3, Behavior: StackIndependent})
	veto := &vetoModule{veto: true}
	b.AddModule(stacking)
	b.AddModule(veto)

	s := strengthSet("warcry")
	if b.Apply(s, false) {
		t.Fatal("apply must be vetoed")
	}
	if s.Name() != "warcry" {
		t.Fatalf("set name = %q, a failed apply must not leave the rename behind", s.Name())
	}

	veto.veto = false
	if !b.Apply(s, false) {
		t.Fatal("apply must pass once the veto lifts")
	}
	if !b.Has("warcry#1") {
		t.Fatalf("expected the first suffix, names = %v", b.Names())
	}
}

func TestStackingUnruledNamesPassThrough(t *testing.T) {
	owner := newTestOwner()
	owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	b := NewManager(owner)
	b.AddModule(NewStackingModule())

	if !b.Apply(strengthSet("freebie"), false) {
		t.Fatal("unruled names must pass")
	}
}

func TestCategoryRemoval(t *testing.T) {
	owner := newTestOwner()
	strength := owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	b := NewManager(owner)
	cats := NewCategoryModule()
	cats.SetCategory("warcry", "shout")
	cats.SetCategory("battlecry", "shout")
	cats.SetCategory("blessing", "holy")
	b.AddModule(cats)

	b.Apply(strengthSet("warcry"), false)
	b.Apply(strengthSet("battlecry"), false)
	b.Apply(strengthSet("blessing"), false)

	if n := cats.RemoveCategory(b, "shout"); n != 2 {
		t.Fatalf("removed = %d, want 2", n)
	}
	if b.Len() != 1 || !b.Has("blessing") {
		t.Fatal("only the holy set must remain")
	}
	approx(t, strength.Value(), 15, "shout effects reverted")
}

func TestCategoryMatchesIndependentStacks(t *testing.T) {
	owner := newTestOwner()
	owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	b := NewManager(owner)
	stacking := NewStackingModule()
	stacking.SetRule("warcry", StackRule{MaxStacks: 2, Behavior: StackIndependent})
	cats := NewCategoryModule()
	cats.SetCategory("warcry", "shout")
	b.AddModule(stacking)
	b.AddModule(cats)

	b.Apply(strengthSet("warcry"), false)
	b.Apply(strengthSet("warcry"), false)

	if n := cats.RemoveCategory(b, "shout"); n != 2 {
		t.Fatalf("removed = %d, want both stack entries", n)
	}
}

func TestResistanceVetoAndPassThrough(t *testing.T) {
	owner := newTestOwner()
	owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	b := NewManager(owner)
	res := NewResistanceModule(rand.New(rand.NewSource(1)))
	res.SetResistance("curse", 100)
	res.SetResistance("warcry", 0)
	b.AddModule(res)

	if b.Apply(strengthSet("curse"), false) {
		t.Fatal("certain resistance must always veto")
	}
	if !b.Apply(strengthSet("warcry"), false) {
		t.Fatal("zero resistance must always pass")
	}
}

func TestResistanceRollDistribution(t *testing.T) {
	owner := newTestOwner()
	owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	b := NewManager(owner)
	res := NewResistanceModule(rand.New(rand.NewSource(42)))
	res.SetResistance("curse", 50)
	b.AddModule(res)

	var passed int
	for i := 0; i < 200; i++ {
		if b.Apply(strengthSet("curse"), false) {
			passed++
			b.Remove("curse")
		}
	}
	if passed < 60 || passed > 140 {
		t.Fatalf("passes = %d out of 200, expected roughly half", passed)
	}
}

func TestResistanceImmunityDecay(t *testing.T) {
	owner := newTestOwner()
	owner.add("strength", stat.Config{Base: 10, Min: 0, Max: 99})

	b := NewManager(owner)
	res := NewResistanceModule(rand.New(rand.NewSource(1)))
	b.AddModule(res)

	res.GrantImmunity("curse", 2)
	if !res.Immune("curse") {
		t.Fatal("immunity must be active")
	}
	if b.Apply(strengthSet("curse"), false) {
		t.Fatal("immune name must be rejected")
	}

	b.Process(1)
	if !res.Immune("curse") {
		t.Fatal("immunity must survive a partial decay")
	}
	b.Process(1.5)
	if res.Immune("curse") {
		t.Fatal("immunity must expire")
	}
	if !b.Apply(strengthSet("curse"), false) {
		t.Fatal("applications must pass once the immunity expires")
	}
}
