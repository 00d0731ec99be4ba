// Package data loads stat and buff definitions from YAML catalogs into
// engine templates.
//
// A catalog describes the stat table of an actor archetype plus reusable
// modifier set templates; malformed entries are logged and skipped so one
// bad row never takes the whole catalog down.
package data

import (
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/statfx/internal/buff"
	"github.com/udisondev/statfx/internal/stat"
)

// StatDef describes one stat row.
type StatDef struct {
	Name         string  `yaml:"name"`
	Type         string  `yaml:"type"` // float (default), int, bool
	Base         float64 `yaml:"base"`
	Min          float64 `yaml:"min"`
	Max          float64 `yaml:"max"`
	BaseClamped  bool    `yaml:"base_clamped"`
	FinalClamped bool    `yaml:"final_clamped"`
}

// RefDef describes a composite modifier reference.
type RefDef struct {
	Stat       string `yaml:"stat"`
	Expression string `yaml:"expression"`
	Operation  string `yaml:"operation"`
	Snapshot   bool   `yaml:"snapshot"`
}

// ModifierDef describes one modifier row of a buff.
type ModifierDef struct {
	Stat      string  `yaml:"stat"`
	Operation string  `yaml:"operation"`
	Value     float64 `yaml:"value"`
	Merge     string  `yaml:"merge_strategy"`
	ApplyOnce bool    `yaml:"apply_once"`
	Ref       *RefDef `yaml:"ref"`
}

// ConditionDef describes an optional gating condition.
type ConditionDef struct {
	Ref1       string  `yaml:"ref1"`
	Ref1Kind   string  `yaml:"ref1_kind"`
	Ref2       string  `yaml:"ref2"`
	Ref2Kind   string  `yaml:"ref2_kind"`
	Comparator string  `yaml:"comparator"`
	Negate     bool    `yaml:"negate"`
	Fallback   float64 `yaml:"fallback_value"`
	Expression string  `yaml:"expression"`
	Cooldown   float64 `yaml:"cooldown"`
}

// BuffDef describes one modifier set template. A zero Duration and
// Interval yields a plain (untimed) set.
type BuffDef struct {
	Name                 string        `yaml:"name"`
	Group                string        `yaml:"group"`
	Duration             float64       `yaml:"duration"`
	Interval             float64       `yaml:"interval"`
	MinInterval          float64       `yaml:"min_interval"`
	MaxInterval          float64       `yaml:"max_interval"`
	TotalTicks           int           `yaml:"total_ticks"`
	ApplyAtStart         *bool         `yaml:"apply_at_start"`
	RemoveEffectOnFinish *bool         `yaml:"remove_effect_on_finish"`
	MergePolicy          []string      `yaml:"merge_policy"`
	ApplyOnCondition     bool          `yaml:"apply_on_condition_change"`
	RemoveOnCondition    bool          `yaml:"remove_on_condition_change"`
	PauseWhenFalse       bool          `yaml:"pause_process_when_false"`
	MergeEnabled         *bool         `yaml:"merge_enabled"`
	Modifiers            []ModifierDef `yaml:"modifiers"`
	Condition            *ConditionDef `yaml:"condition"`
}

// Catalog is a parsed stat/buff definition file.
type Catalog struct {
	Stats []StatDef `yaml:"stats"`
	Buffs []BuffDef `yaml:"buffs"`
}

var mergePolicyNames = map[string]buff.MergePolicy{
	"add_value":            buff.MergeAddValue,
	"add_duration":         buff.MergeAddDuration,
	"add_interval":         buff.MergeAddInterval,
	"reduce_interval":      buff.MergeReduceInterval,
	"custom":               buff.MergeCustom,
	"reset_duration":       buff.MergeResetDuration,
	"reset_interval_timer": buff.MergeResetIntervalTimer,
	"delete":               buff.MergeDelete,
}

// Load reads and parses a catalog file.
func Load(path string) (*Catalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	return Parse(raw)
}

// Parse parses catalog YAML.
func Parse(raw []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parsing catalog: %w", err)
	}
	return &c, nil
}

// BuildStats constructs the stats of the catalog in declaration order.
// Rows without a name are skipped with a warning.
func (c *Catalog) BuildStats() ([]string, map[string]*stat.Stat) {
	var order []string
	stats := make(map[string]*stat.Stat, len(c.Stats))
	for _, def := range c.Stats {
		if def.Name == "" {
			slog.Warn("catalog stat row without name, skipped")
			continue
		}
		stats[def.Name] = stat.New(stat.Config{
			Type:         stat.ParseType(def.Type),
			Base:         def.Base,
			Min:          def.Min,
			Max:          def.Max,
			BaseClamped:  def.BaseClamped,
			FinalClamped: def.FinalClamped,
		})
		order = append(order, def.Name)
	}
	return order, stats
}

// BuildBuffs constructs every valid buff template keyed by name. Invalid
// definitions are logged and skipped.
func (c *Catalog) BuildBuffs() map[string]buff.ModifierSet {
	out := make(map[string]buff.ModifierSet, len(c.Buffs))
	for i := range c.Buffs {
		def := &c.Buffs[i]
		set, err := def.Build()
		if err != nil {
			slog.Warn("catalog buff rejected", "buff", def.Name, "err", err)
			continue
		}
		out[def.Name] = set
	}
	return out
}

// Build constructs the modifier set template for this definition.
func (d *BuffDef) Build() (buff.ModifierSet, error) {
	if d.Name == "" {
		return nil, fmt.Errorf("buff without name")
	}
	if len(d.Modifiers) == 0 {
		return nil, fmt.Errorf("buff %q has no modifiers", d.Name)
	}

	timed := d.Duration > 0 || d.Interval > 0
	var base *buff.Set
	var set buff.ModifierSet

	if timed {
		t := buff.NewTimedSet(d.Name, d.Group)
		t.Interval = d.Interval
		t.MinInterval = d.MinInterval
		t.MaxInterval = d.MaxInterval
		t.Duration = d.Duration
		t.TotalTicks = d.TotalTicks
		if d.ApplyAtStart != nil {
			t.ApplyAtStart = *d.ApplyAtStart
		}
		if d.RemoveEffectOnFinish != nil {
			t.RemoveEffectOnFinish = *d.RemoveEffectOnFinish
		}
		if len(d.MergePolicy) > 0 {
			policy, err := parseMergePolicy(d.MergePolicy)
			if err != nil {
				return nil, err
			}
			t.Policy = policy
		}
		base = &t.Set
		set = t
	} else {
		s := buff.NewSet(d.Name, d.Group)
		base = s
		set = s
	}

	base.ApplyOnConditionChange = d.ApplyOnCondition
	base.RemoveOnConditionChange = d.RemoveOnCondition
	base.PauseWhenFalse = d.PauseWhenFalse
	if d.MergeEnabled != nil {
		base.MergeEnabled = *d.MergeEnabled
	}

	for _, md := range d.Modifiers {
		m, err := md.build()
		if err != nil {
			return nil, fmt.Errorf("buff %q: %w", d.Name, err)
		}
		base.AddModifier(m)
	}

	if d.Condition != nil {
		cond, err := d.Condition.build()
		if err != nil {
			return nil, fmt.Errorf("buff %q: %w", d.Name, err)
		}
		base.SetCondition(cond)
	}
	return set, nil
}

func (d *ModifierDef) build() (*buff.Modifier, error) {
	if d.Stat == "" {
		return nil, fmt.Errorf("modifier without stat")
	}
	op, ok := buff.ParseOp(d.Operation)
	if !ok {
		return nil, fmt.Errorf("unknown operation %q", d.Operation)
	}
	strategy := buff.MergeAdd
	if d.Merge != "" {
		strategy, ok = buff.ParseMergeStrategy(d.Merge)
		if !ok {
			return nil, fmt.Errorf("unknown merge strategy %q", d.Merge)
		}
	}
	m := &buff.Modifier{
		Stat:      d.Stat,
		Op:        op,
		Value:     d.Value,
		Strategy:  strategy,
		ApplyOnce: d.ApplyOnce,
	}
	if d.Ref != nil {
		refOp, ok := buff.ParseRefOp(d.Ref.Operation)
		if !ok {
			return nil, fmt.Errorf("unknown reference operation %q", d.Ref.Operation)
		}
		if refOp == buff.RefExpression && d.Ref.Expression == "" {
			return nil, fmt.Errorf("expression reference without expression")
		}
		if refOp != buff.RefExpression && d.Ref.Stat == "" {
			return nil, fmt.Errorf("reference without stat")
		}
		m.Ref = &buff.Ref{
			Stat:       d.Ref.Stat,
			Expression: d.Ref.Expression,
			Op:         refOp,
			Snapshot:   d.Ref.Snapshot,
		}
	}
	return m, nil
}

func (d *ConditionDef) build() (*buff.Condition, error) {
	cmp, ok := buff.ParseComparator(d.Comparator)
	if !ok {
		return nil, fmt.Errorf("unknown comparator %q", d.Comparator)
	}
	kind1, ok := buff.ParseRefKind(d.Ref1Kind)
	if !ok {
		return nil, fmt.Errorf("unknown ref kind %q", d.Ref1Kind)
	}
	kind2, ok := buff.ParseRefKind(d.Ref2Kind)
	if !ok {
		return nil, fmt.Errorf("unknown ref kind %q", d.Ref2Kind)
	}
	if cmp == buff.CmpExpression && d.Expression == "" {
		return nil, fmt.Errorf("expression comparator without expression")
	}
	return &buff.Condition{
		Ref1:       d.Ref1,
		Kind1:      kind1,
		Ref2:       d.Ref2,
		Kind2:      kind2,
		Cmp:        cmp,
		Negate:     d.Negate,
		Fallback:   d.Fallback,
		Expression: d.Expression,
		Cooldown:   d.Cooldown,
	}, nil
}

func parseMergePolicy(names []string) (buff.MergePolicy, error) {
	var policy buff.MergePolicy
	for _, name := range names {
		flag, ok := mergePolicyNames[name]
		if !ok {
			return 0, fmt.Errorf("unknown merge policy flag %q", name)
		}
		policy |= flag
	}
	return policy, nil
}
