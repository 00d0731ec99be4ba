package buff

import (
	"log/slog"
	"math"

	"github.com/udisondev/statfx/internal/expr"
	"github.com/udisondev/statfx/internal/signal"
	"github.com/udisondev/statfx/internal/stat"
)

// Condition is a boolean predicate over one or two stat references.
//
// Re-evaluation is event-driven off referenced-stat changes, optionally
// rate-limited by a cooldown window. A host with a non-zero cooldown must
// call Tick(dt) every frame so a deferred re-check can fire when the
// window expires. The change signal fires only on actual boolean flips.
type Condition struct {
	Ref1     string
	Kind1    RefKind
	Ref2     string
	Kind2    RefKind
	Cmp      Comparator
	Negate   bool
	Fallback float64 // constant used for an absent side
	// Expression is the formula for CmpExpression; the resolved scalars
	// are available as "ref1" and "ref2".
	Expression string
	Cooldown   float64

	resolver *Resolver
	st1, st2 *stat.Stat
	prog     *expr.Program

	result       bool
	cooldownLeft float64
	pending      bool
	subs         []refSub

	changed signal.Signal[bool]
}

// Bind resolves the references against owner, compiles the expression if
// any, subscribes to referenced-stat changes and seeds the cached result
// without emitting.
func (c *Condition) Bind(owner Owner) bool {
	if owner == nil {
		slog.Error("condition bind with nil owner")
		return false
	}
	c.resolver = NewResolver(owner)

	if c.Ref1 != "" {
		c.st1 = c.resolver.Stat(c.Ref1)
		if c.st1 == nil {
			return false
		}
	}
	if c.Ref2 != "" {
		c.st2 = c.resolver.Stat(c.Ref2)
		if c.st2 == nil {
			return false
		}
	}

	if c.Cmp == CmpExpression {
		prog, err := expr.Compile(c.Expression)
		if err != nil {
			slog.Error("condition expression rejected", "expression", c.Expression, "err", err)
		} else {
			c.prog = prog
		}
	}

	for _, st := range []*stat.Stat{c.st1, c.st2} {
		if st == nil {
			continue
		}
		st := st
		token := st.Changed().Subscribe(func(stat.Change) {
			c.Update(true)
		})
		c.subs = append(c.subs, refSub{st: st, token: token})
	}

	c.result = c.Evaluate()
	return true
}

// Unbind drops every stat subscription.
func (c *Condition) Unbind() {
	for _, sub := range c.subs {
		sub.st.Changed().Unsubscribe(sub.token)
	}
	c.subs = nil
	c.st1, c.st2 = nil, nil
	c.resolver = nil
}

// Result returns the cached boolean result.
func (c *Condition) Result() bool { return c.result }

// Changed exposes the flip notification.
func (c *Condition) Changed() *signal.Signal[bool] { return &c.changed }

// Evaluate computes the predicate from current readings without touching
// the cooldown or the cached result.
func (c *Condition) Evaluate() bool {
	a := c.side(c.st1, c.Kind1)
	b := c.side(c.st2, c.Kind2)

	var out bool
	switch c.Cmp {
	case CmpEq:
		out = math.Abs(a-b) < stat.Epsilon
	case CmpGt:
		out = a > b
	case CmpLt:
		out = a < b
	case CmpGte:
		out = a >= b
	case CmpLte:
		out = a <= b
	case CmpNeq:
		out = math.Abs(a-b) >= stat.Epsilon
	case CmpExpression:
		out = c.evalExpression(a, b)
	}
	if c.Negate {
		out = !out
	}
	return out
}

func (c *Condition) side(st *stat.Stat, kind RefKind) float64 {
	if st == nil {
		return c.Fallback
	}
	return readKind(st, kind)
}

// evalExpression runs the user formula over the two resolved scalars.
// Invalid or unparsable expressions evaluate to false.
func (c *Condition) evalExpression(a, b float64) bool {
	if c.prog == nil {
		return false
	}
	out, err := c.prog.Eval(map[string]float64{"ref1": a, "ref2": b})
	if err != nil {
		slog.Error("condition expression failed", "expression", c.Expression, "err", err)
		return false
	}
	return math.Abs(out) > stat.Epsilon
}

// Update re-evaluates the predicate and emits the change signal if the
// boolean result flipped. With respectCooldown set and an active cooldown
// window, the re-check is deferred until Tick expires the window.
func (c *Condition) Update(respectCooldown bool) {
	if respectCooldown && c.Cooldown > 0 {
		if c.cooldownLeft > 0 {
			c.pending = true
			return
		}
		c.cooldownLeft = c.Cooldown
	}
	next := c.Evaluate()
	if next == c.result {
		return
	}
	c.result = next
	c.changed.Emit(next)
}

// Tick advances the cooldown timer. When the window expires with a
// deferred re-check pending, the re-check runs immediately.
func (c *Condition) Tick(dt float64) {
	if c.cooldownLeft <= 0 {
		return
	}
	c.cooldownLeft -= dt
	if c.cooldownLeft > 0 {
		return
	}
	c.cooldownLeft = 0
	if c.pending {
		c.pending = false
		c.Update(true)
	}
}

// Copy returns a fresh unbound condition with the same configuration.
func (c *Condition) Copy() *Condition {
	return &Condition{
		Ref1:       c.Ref1,
		Kind1:      c.Kind1,
		Ref2:       c.Ref2,
		Kind2:      c.Kind2,
		Cmp:        c.Cmp,
		Negate:     c.Negate,
		Fallback:   c.Fallback,
		Expression: c.Expression,
		Cooldown:   c.Cooldown,
	}
}
