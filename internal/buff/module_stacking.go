package buff

import (
	"fmt"
	"strconv"
	"strings"
)

// StackBehavior selects how repeated applications of the same set name
// stack.
type StackBehavior int8

const (
	// StackMerge folds repeats into the existing entry via set merge.
	StackMerge StackBehavior = iota
	// StackIndependent inserts each repeat under a suffixed name,
	// creating distinct entries.
	StackIndependent
)

// StackRule caps and shapes stacking for one set name.
type StackRule struct {
	MaxStacks int
	Behavior  StackBehavior
}

// StackingModule enforces per-name stack rules. Names without a rule pass
// through untracked.
type StackingModule struct {
	BaseModule
	rules  map[string]StackRule
	counts map[string]int
	// serials issue independent-stack suffixes. Monotonic per base name,
	// never reset on removal, so a freed middle slot cannot hand out a
	// suffix that is still live.
	serials map[string]int
}

// NewStackingModule creates an empty stacking module.
func NewStackingModule() *StackingModule {
	return &StackingModule{
		rules:   make(map[string]StackRule),
		counts:  make(map[string]int),
		serials: make(map[string]int),
	}
}

// SetRule installs the stack rule for a set name.
func (s *StackingModule) SetRule(name string, r StackRule) {
	s.rules[name] = r
}

// Count returns the current stack count for a base name.
func (s *StackingModule) Count(name string) int {
	return s.counts[name]
}

// BeforeApply vetoes applications at the stack cap. Independent behavior
// renames the incoming set with a numeric suffix so it lands as a
// distinct entry.
func (s *StackingModule) BeforeApply(b *Manager, set ModifierSet) bool {
	base := baseStackName(set.Name())
	rule, ok := s.rules[base]
	if !ok {
		return true
	}
	n := s.counts[base]
	if rule.MaxStacks > 0 && n >= rule.MaxStacks {
		return false
	}
	if rule.Behavior == StackIndependent {
		set.SetName(fmt.Sprintf("%s#%d", base, s.serials[base]+1))
	}
	return true
}

// AfterApply counts the stack once the application survived every veto
// and advances the suffix serial past the inserted name, so restored
// sets are accounted for too.
func (s *StackingModule) AfterApply(b *Manager, set ModifierSet) {
	base := baseStackName(set.Name())
	if _, ok := s.rules[base]; !ok {
		return
	}
	s.counts[base]++
	if n := stackSerial(set.Name()); n > s.serials[base] {
		s.serials[base] = n
	}
}

// AfterRemove decrements the base name's counter, erasing it at zero.
func (s *StackingModule) AfterRemove(b *Manager, set ModifierSet) {
	base := baseStackName(set.Name())
	if _, ok := s.counts[base]; !ok {
		return
	}
	s.counts[base]--
	if s.counts[base] <= 0 {
		delete(s.counts, base)
	}
}

// baseStackName strips the "#n" suffix added for independent stacks.
func baseStackName(name string) string {
	if idx := strings.LastIndexByte(name, '#'); idx > 0 {
		return name[:idx]
	}
	return name
}

// stackSerial extracts the numeric "#n" suffix, 0 when absent.
func stackSerial(name string) int {
	idx := strings.LastIndexByte(name, '#')
	if idx <= 0 {
		return 0
	}
	n, err := strconv.Atoi(name[idx+1:])
	if err != nil {
		return 0
	}
	return n
}
