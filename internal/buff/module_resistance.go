package buff

import (
	"log/slog"
	"math/rand"
)

// ResistanceModule probabilistically vetoes applications by name and
// supports timed immunities that reject a name outright while active.
type ResistanceModule struct {
	BaseModule
	chances    map[string]float64 // percent chance to resist
	immunities map[string]float64 // remaining immunity seconds
	rng        *rand.Rand
}

// NewResistanceModule creates a resistance module rolling on rng. A nil
// rng falls back to the shared global source; tests pass a seeded one.
func NewResistanceModule(rng *rand.Rand) *ResistanceModule {
	return &ResistanceModule{
		chances:    make(map[string]float64),
		immunities: make(map[string]float64),
		rng:        rng,
	}
}

// SetResistance installs a percent chance [0,100] to resist a set name.
func (r *ResistanceModule) SetResistance(name string, percent float64) {
	r.chances[name] = percent
}

// GrantImmunity rejects every application of the set name for the given
// number of seconds.
func (r *ResistanceModule) GrantImmunity(name string, seconds float64) {
	if seconds <= 0 {
		return
	}
	r.immunities[name] = seconds
}

// Immune reports whether a timed immunity is active for the name.
func (r *ResistanceModule) Immune(name string) bool {
	return r.immunities[baseStackName(name)] > 0
}

// BeforeApply rejects immune names and rolls the resistance chance.
func (r *ResistanceModule) BeforeApply(b *Manager, set ModifierSet) bool {
	name := baseStackName(set.Name())
	if r.immunities[name] > 0 {
		slog.Debug("modifier set rejected by immunity", "set", name)
		return false
	}
	chance, ok := r.chances[name]
	if !ok || chance <= 0 {
		return true
	}
	if r.roll()*100 < chance {
		slog.Debug("modifier set resisted", "set", name, "chance", chance)
		return false
	}
	return true
}

// Process decays immunity timers.
func (r *ResistanceModule) Process(b *Manager, dt float64) {
	for name, left := range r.immunities {
		left -= dt
		if left <= 0 {
			delete(r.immunities, name)
			continue
		}
		r.immunities[name] = left
	}
}

func (r *ResistanceModule) roll() float64 {
	if r.rng != nil {
		return r.rng.Float64()
	}
	return rand.Float64()
}
