// Package model provides the entities that host the stat engine: actors
// with a named stat table, a buff manager and a material ledger.
package model

import (
	"github.com/udisondev/statfx/internal/buff"
	"github.com/udisondev/statfx/internal/stat"
)

// Actor is a single owning entity: a named stat table plus the buff
// manager driving its active modifier sets.
//
// Actor implements buff.Owner. Not safe for concurrent use.
type Actor struct {
	id   string
	name string

	stats map[string]*stat.Stat
	order []string

	materials map[string]int

	buffs *buff.Manager
}

// NewActor creates an empty actor.
func NewActor(id, name string) *Actor {
	a := &Actor{
		id:        id,
		name:      name,
		stats:     make(map[string]*stat.Stat),
		materials: make(map[string]int),
	}
	a.buffs = buff.NewManager(a)
	return a
}

// ID returns the actor's identity key.
func (a *Actor) ID() string { return a.id }

// Name returns the actor's display name.
func (a *Actor) Name() string { return a.name }

// Buffs returns the actor's buff manager.
func (a *Actor) Buffs() *buff.Manager { return a.buffs }

// GetStat resolves a stat by name. Nil when absent.
func (a *Actor) GetStat(name string) *stat.Stat {
	return a.stats[name]
}

// AddStat installs a stat under name. Re-adding a name replaces the stat
// in place, keeping its original position.
func (a *Actor) AddStat(name string, s *stat.Stat) {
	if _, exists := a.stats[name]; !exists {
		a.order = append(a.order, name)
	}
	a.stats[name] = s
}

// StatNames returns the stat names in insertion order.
func (a *Actor) StatNames() []string {
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Update advances the actor's buff manager by dt.
func (a *Actor) Update(dt float64) {
	a.buffs.Process(dt)
}

// HasMaterials reports whether the ledger covers every entry of cost.
func (a *Actor) HasMaterials(cost map[string]int) bool {
	for name, amount := range cost {
		if a.materials[name] < amount {
			return false
		}
	}
	return true
}

// ConsumeMaterials removes cost from the ledger. All-or-nothing: returns
// false without changes when any entry is short.
func (a *Actor) ConsumeMaterials(cost map[string]int) bool {
	if !a.HasMaterials(cost) {
		return false
	}
	for name, amount := range cost {
		left := a.materials[name] - amount
		if left == 0 {
			delete(a.materials, name)
			continue
		}
		a.materials[name] = left
	}
	return true
}

// StoreMaterials adds the given amounts to the ledger.
func (a *Actor) StoreMaterials(income map[string]int) {
	for name, amount := range income {
		if amount <= 0 {
			continue
		}
		a.materials[name] += amount
	}
}

// MaterialCount returns the stored amount of one material.
func (a *Actor) MaterialCount(name string) int {
	return a.materials[name]
}

// Snapshot returns a generic string-keyed view of the actor: stats, buff
// manager state and materials.
func (a *Actor) Snapshot() map[string]any {
	stats := make(map[string]any, len(a.stats))
	for name, s := range a.stats {
		stats[name] = s.Snapshot()
	}
	materials := make(map[string]any, len(a.materials))
	for name, amount := range a.materials {
		materials[name] = amount
	}
	return map[string]any{
		"id":        a.id,
		"name":      a.name,
		"stats":     stats,
		"buffs":     a.buffs.Snapshot(),
		"materials": materials,
	}
}

// Restore overwrites the actor's state from a Snapshot map. Stats present
// in the snapshot but missing from the actor are created; the buff
// manager is rebuilt and rebound.
func (a *Actor) Restore(d map[string]any) error {
	if stats, ok := d["stats"].(map[string]any); ok {
		for name, raw := range stats {
			sd, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if existing := a.stats[name]; existing != nil {
				existing.Restore(sd)
				continue
			}
			a.AddStat(name, stat.FromSnapshot(sd))
		}
	}
	if materials, ok := d["materials"].(map[string]any); ok {
		a.materials = make(map[string]int, len(materials))
		for name := range materials {
			a.materials[name] = int(stat.Num(materials, name, 0))
		}
	}
	if buffs, ok := d["buffs"].(map[string]any); ok {
		a.buffs = buff.NewManager(a)
		if err := a.buffs.Restore(buffs); err != nil {
			return err
		}
	}
	return nil
}
