package stat

// Snapshot returns a generic string-keyed view of the stat, suitable for
// any map-based serializer.
func (s *Stat) Snapshot() map[string]any {
	return map[string]any{
		"type":                 s.typ.String(),
		"base_value":           s.base,
		"min_value":            s.min,
		"max_value":            s.max,
		"flat_modifier":        s.flat,
		"percent_modifier":     s.percent,
		"max_flat_modifier":    s.maxFlat,
		"max_percent_modifier": s.maxPercent,
		"base_value_clamped":   s.baseClamped,
		"final_value_clamped":  s.finalClamped,
	}
}

// Restore overwrites the stat's fields from a Snapshot map. Notification
// is suppressed during the batched writes and fires at most once at the
// end, if the (value, max) pair moved.
func (s *Stat) Restore(m map[string]any) {
	s.suppress = true
	if v, ok := m["type"]; ok {
		if name, ok := v.(string); ok {
			s.typ = ParseType(name)
		}
	}
	s.base = Num(m, "base_value", s.base)
	s.min = Num(m, "min_value", s.min)
	s.max = Num(m, "max_value", s.max)
	s.flat = Num(m, "flat_modifier", s.flat)
	s.percent = Num(m, "percent_modifier", s.percent)
	s.maxFlat = Num(m, "max_flat_modifier", s.maxFlat)
	s.maxPercent = Num(m, "max_percent_modifier", s.maxPercent)
	s.baseClamped = Bool(m, "base_value_clamped", s.baseClamped)
	s.finalClamped = Bool(m, "final_value_clamped", s.finalClamped)
	s.suppress = false
	s.refresh()
}

// FromSnapshot builds a fresh Stat from a Snapshot map.
func FromSnapshot(m map[string]any) *Stat {
	s := New(Config{})
	s.Restore(m)
	return s
}

// Num reads a numeric snapshot entry, tolerating the integer types a
// generic decoder may produce. Returns def when the key is absent or not
// numeric.
func Num(m map[string]any, key string, def float64) float64 {
	v, ok := m[key]
	if !ok {
		return def
	}
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return def
	}
}

// Bool reads a boolean snapshot entry, returning def on absence or type
// mismatch.
func Bool(m map[string]any, key string, def bool) bool {
	if v, ok := m[key].(bool); ok {
		return v
	}
	return def
}

// Str reads a string snapshot entry, returning def on absence or type
// mismatch.
func Str(m map[string]any, key, def string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return def
}
