package buff

import (
	"log/slog"

	"github.com/udisondev/statfx/internal/expr"
	"github.com/udisondev/statfx/internal/stat"
)

// Ref turns a Modifier into a composite: the applied magnitude derives
// from one referenced stat (direct forms) or from an expression over
// several (RefExpression).
//
// Snapshot mode computes the reference value at each Apply call and never
// tracks changes afterwards. Dynamic mode (Snapshot false) re-applies the
// modifier whenever any referenced stat changes.
type Ref struct {
	Stat       string // direct reference target
	Expression string // formula for RefExpression
	Op         RefOp
	Snapshot   bool

	prog       *expr.Program
	compileErr bool
}

func (r *Ref) copy() *Ref {
	return &Ref{
		Stat:       r.Stat,
		Expression: r.Expression,
		Op:         r.Op,
		Snapshot:   r.Snapshot,
	}
}

// compile prepares the expression program once at bind time. Malformed
// expressions log an error and invalidate the modifier.
func (r *Ref) compile() bool {
	if r.Op != RefExpression {
		return true
	}
	if r.prog != nil || r.compileErr {
		return !r.compileErr
	}
	prog, err := expr.Compile(r.Expression)
	if err != nil {
		slog.Error("composite expression rejected", "expression", r.Expression, "err", err)
		r.compileErr = true
		return false
	}
	r.prog = prog
	return true
}

// referenceValue computes the composite magnitude from the current
// reference readings.
func (m *Modifier) referenceValue() float64 {
	r := m.Ref
	if r == nil {
		return m.Value
	}

	if r.Op == RefExpression {
		if r.prog == nil {
			return 0
		}
		values := make(map[string]float64, len(r.prog.Vars()))
		for _, v := range r.prog.Vars() {
			val, ok := m.resolver.Value(v)
			if !ok {
				return 0
			}
			values[v.Name] = val
		}
		out, err := r.prog.Eval(values)
		if err != nil {
			slog.Error("composite expression failed", "expression", r.Expression, "err", err)
			return 0
		}
		return out * m.Value
	}

	ref := m.resolver.Stat(r.Stat)
	if ref == nil {
		return 0
	}
	switch r.Op {
	case RefBaseMultiply:
		return ref.Base() * m.Value
	case RefValueMultiply:
		return ref.Value() * m.Value
	case RefMaxMultiply:
		return ref.Max() * m.Value
	case RefPercentOf:
		return ref.Value() * m.Value / 100
	case RefAdd:
		return ref.Value() + m.Value
	case RefDiminishing:
		return 1 - 1/(1+ref.Value()*m.Value*0.01)
	default:
		return 0
	}
}

// subscribeRefs wires dynamic recomputation: any change of a referenced
// stat removes and re-applies the modifier with fresh readings.
func (m *Modifier) subscribeRefs() {
	for _, st := range m.referencedStats() {
		st := st
		token := st.Changed().Subscribe(func(stat.Change) {
			m.onRefChanged()
		})
		m.refSubs = append(m.refSubs, refSub{st: st, token: token})
	}
}

func (m *Modifier) referencedStats() []*stat.Stat {
	r := m.Ref
	if r.Op == RefExpression {
		if r.prog == nil {
			return nil
		}
		return m.resolver.Stats(r.prog)
	}
	if st := m.resolver.Stat(r.Stat); st != nil {
		return []*stat.Stat{st}
	}
	return nil
}

func (m *Modifier) onRefChanged() {
	if !m.applied || m.refreshing {
		return
	}
	m.refreshing = true
	m.Remove(true)
	m.Apply()
	m.refreshing = false
}
