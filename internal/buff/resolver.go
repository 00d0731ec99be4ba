package buff

import (
	"log/slog"

	"github.com/udisondev/statfx/internal/expr"
	"github.com/udisondev/statfx/internal/stat"
)

// Resolver turns stat names and expression variables into live stat
// readings against one owner. Resolution happens once at bind time; the
// resolver never re-dispatches per call.
type Resolver struct {
	owner Owner
}

// NewResolver wraps an owner for stat lookup.
func NewResolver(owner Owner) *Resolver {
	return &Resolver{owner: owner}
}

// Stat resolves a stat by name. Returns nil (with a warning) when the
// owner does not expose the stat.
func (r *Resolver) Stat(name string) *stat.Stat {
	if r.owner == nil {
		return nil
	}
	st := r.owner.GetStat(name)
	if st == nil {
		slog.Warn("stat not found on owner", "stat", name)
	}
	return st
}

// Value resolves an expression variable to its current reading. The kind
// suffix defaults to the effective value.
func (r *Resolver) Value(v expr.Var) (float64, bool) {
	st := r.Stat(v.Stat)
	if st == nil {
		return 0, false
	}
	kind, ok := ParseRefKind(v.Kind)
	if !ok {
		slog.Warn("unknown reference kind", "stat", v.Stat, "kind", v.Kind)
		return 0, false
	}
	return readKind(st, kind), true
}

// Stats resolves every distinct stat referenced by a compiled program.
// Missing stats are skipped with a warning.
func (r *Resolver) Stats(p *expr.Program) []*stat.Stat {
	seen := make(map[string]bool, len(p.Vars()))
	var out []*stat.Stat
	for _, v := range p.Vars() {
		if seen[v.Stat] {
			continue
		}
		seen[v.Stat] = true
		if st := r.Stat(v.Stat); st != nil {
			out = append(out, st)
		}
	}
	return out
}

// readKind reads a stat through a kind selector.
func readKind(st *stat.Stat, kind RefKind) float64 {
	switch kind {
	case KindBase:
		return st.Base()
	case KindMax:
		return st.Max()
	case KindBaseMax:
		return st.BaseMax()
	case KindMin:
		return st.Min()
	case KindPercent:
		return st.Percentage()
	case KindNormalized:
		return st.Normalized()
	default:
		return st.Value()
	}
}
