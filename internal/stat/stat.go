// Package stat implements clamped numeric attributes with reversible
// modifier arithmetic.
//
// A Stat stores a base value plus flat/percent bonuses on both the value
// and the max, and reports every mutation as the exact delta applied to
// the stored field. Callers that want to undo a mutation later must keep
// that delta; feeding its negation back through the same mutator restores
// the field bit-for-bit.
package stat

import (
	"math"

	"github.com/udisondev/statfx/internal/signal"
)

// Epsilon is the tolerance used for float comparisons across the engine.
const Epsilon = 0.0001

// Type selects the output domain of a Stat.
type Type int8

const (
	TypeFloat Type = iota // raw float values
	TypeInt               // truncated toward zero
	TypeBool              // |x| > Epsilon maps to 1, else 0
)

// String returns the serialized name of the type.
func (t Type) String() string {
	switch t {
	case TypeInt:
		return "int"
	case TypeBool:
		return "bool"
	default:
		return "float"
	}
}

// ParseType parses a serialized type name. Unknown names yield TypeFloat.
func ParseType(s string) Type {
	switch s {
	case "int":
		return TypeInt
	case "bool":
		return TypeBool
	default:
		return TypeFloat
	}
}

// Bounds limits a single stored field.
type Bounds struct {
	Min float64
	Max float64
}

// Change carries the post-mutation value/max pair of a Stat.
type Change struct {
	Value float64
	Max   float64
}

// Config describes a Stat at construction time.
type Config struct {
	Type Type
	Base float64
	Min  float64
	Max  float64

	// BaseClamped keeps the stored base inside [Min, Max()] on every
	// base write. FinalClamped clamps only the computed Value().
	BaseClamped  bool
	FinalClamped bool

	// Optional per-field bounds for the modifier accumulators.
	FlatBounds       *Bounds
	PercentBounds    *Bounds
	MaxFlatBounds    *Bounds
	MaxPercentBounds *Bounds
}

// Stat is a single numeric attribute.
//
// All mutation goes through the accessor methods so the cached change
// detection stays correct; other packages never write fields directly.
// Not safe for concurrent use.
type Stat struct {
	typ  Type
	base float64
	min  float64
	max  float64

	flat       float64
	percent    float64 // percent points: 50 means +50% of base
	maxFlat    float64
	maxPercent float64

	baseClamped  bool
	finalClamped bool

	flatBounds       *Bounds
	percentBounds    *Bounds
	maxFlatBounds    *Bounds
	maxPercentBounds *Bounds

	cachedValue float64
	cachedMax   float64
	suppress    bool

	changed Signal
}

// Signal is the change-notification slot of a Stat.
type Signal = signal.Signal[Change]

// New builds a Stat from cfg and seeds the change-detection cache without
// emitting.
func New(cfg Config) *Stat {
	s := &Stat{
		typ:              cfg.Type,
		base:             cfg.Base,
		min:              cfg.Min,
		max:              cfg.Max,
		baseClamped:      cfg.BaseClamped,
		finalClamped:     cfg.FinalClamped,
		flatBounds:       cfg.FlatBounds,
		percentBounds:    cfg.PercentBounds,
		maxFlatBounds:    cfg.MaxFlatBounds,
		maxPercentBounds: cfg.MaxPercentBounds,
	}
	if s.typ != TypeFloat {
		s.base = s.typed(s.base)
		s.min = s.typed(s.min)
		s.max = s.typed(s.max)
	}
	s.cachedValue = s.Value()
	s.cachedMax = s.Max()
	return s
}

// Type returns the output domain.
func (s *Stat) Type() Type { return s.typ }

// Base returns the stored base value.
func (s *Stat) Base() float64 { return s.base }

// Min returns the typed minimum.
func (s *Stat) Min() float64 { return s.typed(s.min) }

// BaseMax returns the stored max field before max modifiers.
func (s *Stat) BaseMax() float64 { return s.max }

// Flat returns the accumulated flat modifier.
func (s *Stat) Flat() float64 { return s.flat }

// Percent returns the accumulated percent modifier, in percent points.
func (s *Stat) Percent() float64 { return s.percent }

// MaxFlat returns the accumulated flat max modifier.
func (s *Stat) MaxFlat() float64 { return s.maxFlat }

// MaxPercent returns the accumulated percent max modifier.
func (s *Stat) MaxPercent() float64 { return s.maxPercent }

// Max returns the typed effective maximum:
// max + maxFlat + maxPercent/100*max.
func (s *Stat) Max() float64 {
	return s.typed(s.max + s.maxFlat + s.maxPercent/100*s.max)
}

// Value returns the typed effective value:
// base + flat + percent/100*base, clamped into [Min, Max] when the stat is
// final-clamped.
func (s *Stat) Value() float64 {
	v := s.base + s.flat + s.percent/100*s.base
	if s.finalClamped {
		v = clamp(v, s.min, s.Max())
	}
	return s.typed(v)
}

// Percentage returns Value as a share of Max in percent points.
// Returns 0 when Max is 0.
func (s *Stat) Percentage() float64 {
	m := s.Max()
	if m == 0 {
		return 0
	}
	return s.Value() / m * 100
}

// Normalized returns Value/Max in [0,1] terms. Returns 0 when Max is 0.
func (s *Stat) Normalized() float64 {
	m := s.Max()
	if m == 0 {
		return 0
	}
	return s.Value() / m
}

// IsMax reports whether Value has reached Max. Float stats compare within
// Epsilon; Int and Bool compare exactly.
func (s *Stat) IsMax() bool { return s.equal(s.Value(), s.Max()) }

// IsMin reports whether Value has reached Min.
func (s *Stat) IsMin() bool { return s.equal(s.Value(), s.Min()) }

func (s *Stat) equal(a, b float64) bool {
	if s.typ == TypeFloat {
		return math.Abs(a-b) < Epsilon
	}
	return a == b
}

// AddFlat adds x to the flat modifier and returns the delta actually
// applied after bounds and type conversion.
func (s *Stat) AddFlat(x float64) float64 {
	return s.mutate(&s.flat, x, s.flatBounds)
}

// AddPercent adds x percent points to the percent modifier.
func (s *Stat) AddPercent(x float64) float64 {
	return s.mutatePercent(&s.percent, x, s.percentBounds)
}

// AddMaxFlat adds x to the flat max modifier.
func (s *Stat) AddMaxFlat(x float64) float64 {
	return s.mutate(&s.maxFlat, x, s.maxFlatBounds)
}

// AddMaxPercent adds x percent points to the percent max modifier.
func (s *Stat) AddMaxPercent(x float64) float64 {
	return s.mutatePercent(&s.maxPercent, x, s.maxPercentBounds)
}

// AddValue adds x to the base value, clamping into [Min, Max] when the
// stat is base-clamped. Returns the delta actually applied.
func (s *Stat) AddValue(x float64) float64 {
	next := s.base + x
	if s.baseClamped {
		next = clamp(next, s.min, s.Max())
	}
	next = s.typedField(next)
	delta := next - s.base
	s.base = next
	s.refresh()
	return delta
}

// AddMaxValue adds x to the stored max field.
func (s *Stat) AddMaxValue(x float64) float64 {
	return s.mutate(&s.max, x, nil)
}

// AddMinValue adds x to the stored min field.
func (s *Stat) AddMinValue(x float64) float64 {
	return s.mutate(&s.min, x, nil)
}

// SetBase overwrites the base value. There is no stored pre-image, so the
// write is not reversible through delta bookkeeping. Returns new-old.
func (s *Stat) SetBase(x float64) float64 {
	next := s.typedField(x)
	if s.baseClamped {
		next = clamp(next, s.min, s.Max())
	}
	delta := next - s.base
	s.base = next
	s.refresh()
	return delta
}

// SetMax overwrites the stored max field. Not reversible.
func (s *Stat) SetMax(x float64) float64 {
	next := s.typedField(x)
	delta := next - s.max
	s.max = next
	s.refresh()
	return delta
}

// SetMin overwrites the stored min field. Not reversible.
func (s *Stat) SetMin(x float64) float64 {
	next := s.typedField(x)
	delta := next - s.min
	s.min = next
	s.refresh()
	return delta
}

// Changed exposes the value/max change signal. It fires only when the
// (Value, Max) pair actually moved.
func (s *Stat) Changed() *Signal { return &s.changed }

// Clone returns a detached copy with the same fields and no subscribers.
// Used to simulate modifier effects without touching the live stat.
func (s *Stat) Clone() *Stat {
	c := *s
	c.changed = Signal{}
	return &c
}

func (s *Stat) mutate(field *float64, x float64, b *Bounds) float64 {
	next := *field + x
	if b != nil {
		next = clamp(next, b.Min, b.Max)
	}
	next = s.typedField(next)
	delta := next - *field
	*field = next
	s.refresh()
	return delta
}

// mutatePercent skips field-level type conversion: percent accumulators
// stay fractional even on Int stats, conversion happens at Value time.
func (s *Stat) mutatePercent(field *float64, x float64, b *Bounds) float64 {
	next := *field + x
	if b != nil {
		next = clamp(next, b.Min, b.Max)
	}
	delta := next - *field
	*field = next
	s.refresh()
	return delta
}

// typedField converts a stored field for Int stats so whole-number
// arithmetic stays exact. Float and Bool stats keep raw fields; Bool
// conversion happens only at output.
func (s *Stat) typedField(x float64) float64 {
	if s.typ == TypeInt {
		return math.Trunc(x)
	}
	return x
}

// typed converts an output value per the stat type.
func (s *Stat) typed(x float64) float64 {
	switch s.typ {
	case TypeInt:
		return math.Trunc(x)
	case TypeBool:
		if math.Abs(x) > Epsilon {
			return 1
		}
		return 0
	default:
		return x
	}
}

// refresh re-reads (Value, Max) and emits on actual change. Suppressed
// during batched restores.
func (s *Stat) refresh() {
	if s.suppress {
		return
	}
	v, m := s.Value(), s.Max()
	if v == s.cachedValue && m == s.cachedMax {
		return
	}
	s.cachedValue = v
	s.cachedMax = m
	s.changed.Emit(Change{Value: v, Max: m})
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
