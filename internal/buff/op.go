package buff

// Op selects which stat mutator a modifier drives.
type Op int8

const (
	OpFlat Op = iota // add to the flat modifier
	OpPercent
	OpMaxFlat
	OpMaxPercent
	OpValue    // add to the base value
	OpMaxValue // add to the stored max
	OpMinValue // add to the stored min
	OpPercentNormalized
	OpMaxPercentNormalized

	// The Set* kinds overwrite a field. They keep no pre-image, so
	// Remove cannot restore the previous value: removal only clears the
	// applied flag. Callers must not rely on reversal for these.
	OpSetBase
	OpSetMax
	OpSetMin
)

var opNames = map[Op]string{
	OpFlat:                 "flat",
	OpPercent:              "percent",
	OpMaxFlat:              "max_flat",
	OpMaxPercent:           "max_percent",
	OpValue:                "value",
	OpMaxValue:             "max_value",
	OpMinValue:             "min_value",
	OpPercentNormalized:    "percent_normalized",
	OpMaxPercentNormalized: "max_percent_normalized",
	OpSetBase:              "set_base",
	OpSetMax:               "set_max",
	OpSetMin:               "set_min",
}

// String returns the serialized operation name.
func (o Op) String() string {
	if s, ok := opNames[o]; ok {
		return s
	}
	return "flat"
}

// ParseOp parses a serialized operation name.
func ParseOp(s string) (Op, bool) {
	for op, name := range opNames {
		if name == s {
			return op, true
		}
	}
	return OpFlat, false
}

// IsSet reports whether the operation is one of the non-reversible
// overwrite kinds.
func (o Op) IsSet() bool {
	return o == OpSetBase || o == OpSetMax || o == OpSetMin
}

// MergeStrategy combines the values of two modifiers on merge.
type MergeStrategy int8

const (
	MergeAdd      MergeStrategy = iota // sum the values
	MergeOverride                      // incoming replaces existing
	MergeMax                           // keep the larger value
	MergeMin                           // keep the smaller value
)

var strategyNames = map[MergeStrategy]string{
	MergeAdd:      "add",
	MergeOverride: "override",
	MergeMax:      "max",
	MergeMin:      "min",
}

// String returns the serialized strategy name.
func (m MergeStrategy) String() string {
	if s, ok := strategyNames[m]; ok {
		return s
	}
	return "add"
}

// ParseMergeStrategy parses a serialized strategy name.
func ParseMergeStrategy(s string) (MergeStrategy, bool) {
	for st, name := range strategyNames {
		if name == s {
			return st, true
		}
	}
	return MergeAdd, false
}

// RefOp derives a composite modifier's magnitude from a referenced stat.
type RefOp int8

const (
	RefBaseMultiply  RefOp = iota // ref.Base() * value
	RefValueMultiply              // ref.Value() * value
	RefMaxMultiply                // ref.Max() * value
	RefPercentOf                  // ref.Value() * value / 100
	RefAdd                        // ref.Value() + value
	RefDiminishing                // 1 - 1/(1 + ref.Value()*value*0.01)
	RefExpression                 // expression result * value
)

var refOpNames = map[RefOp]string{
	RefBaseMultiply:  "base_multiply",
	RefValueMultiply: "value_multiply",
	RefMaxMultiply:   "max_multiply",
	RefPercentOf:     "percent_of",
	RefAdd:           "add",
	RefDiminishing:   "diminishing",
	RefExpression:    "expression",
}

// String returns the serialized reference operation name.
func (r RefOp) String() string {
	if s, ok := refOpNames[r]; ok {
		return s
	}
	return "value_multiply"
}

// ParseRefOp parses a serialized reference operation name.
func ParseRefOp(s string) (RefOp, bool) {
	for op, name := range refOpNames {
		if name == s {
			return op, true
		}
	}
	return RefValueMultiply, false
}

// RefKind selects which reading of a stat a reference uses.
type RefKind int8

const (
	KindValue RefKind = iota // effective value (default)
	KindBase
	KindMax
	KindBaseMax // stored max before max modifiers
	KindMin
	KindPercent    // value/max in percent points
	KindNormalized // value/max in [0,1]
)

var refKindNames = map[RefKind]string{
	KindValue:      "value",
	KindBase:       "base",
	KindMax:        "max",
	KindBaseMax:    "base_max",
	KindMin:        "min",
	KindPercent:    "percent",
	KindNormalized: "normalized",
}

// String returns the serialized kind name.
func (k RefKind) String() string {
	if s, ok := refKindNames[k]; ok {
		return s
	}
	return "value"
}

// ParseRefKind parses a serialized kind name. The empty string is the
// default KindValue.
func ParseRefKind(s string) (RefKind, bool) {
	if s == "" {
		return KindValue, true
	}
	for k, name := range refKindNames {
		if name == s {
			return k, true
		}
	}
	return KindValue, false
}

// Comparator is a condition's comparison operator.
type Comparator int8

const (
	CmpEq Comparator = iota
	CmpGt
	CmpLt
	CmpGte
	CmpLte
	CmpNeq
	CmpExpression // user formula over the two resolved scalars
)

var comparatorNames = map[Comparator]string{
	CmpEq:         "eq",
	CmpGt:         "gt",
	CmpLt:         "lt",
	CmpGte:        "gte",
	CmpLte:        "lte",
	CmpNeq:        "neq",
	CmpExpression: "expression",
}

// String returns the serialized comparator name.
func (c Comparator) String() string {
	if s, ok := comparatorNames[c]; ok {
		return s
	}
	return "eq"
}

// ParseComparator parses a serialized comparator name.
func ParseComparator(s string) (Comparator, bool) {
	for c, name := range comparatorNames {
		if name == s {
			return c, true
		}
	}
	return CmpEq, false
}
