package buff

// Module intercepts the apply/remove lifecycle of a manager's sets.
// Hooks run in registration order; BeforeApply short-circuits on the
// first veto. AfterApply/AfterRemove are observational.
type Module interface {
	BeforeApply(b *Manager, s ModifierSet) bool
	AfterApply(b *Manager, s ModifierSet)
	BeforeRemove(b *Manager, s ModifierSet)
	AfterRemove(b *Manager, s ModifierSet)
	// Process runs once per manager tick, after set processing.
	Process(b *Manager, dt float64)
}

// BaseModule provides no-op defaults; concrete modules embed it and
// override what they need.
type BaseModule struct{}

func (BaseModule) BeforeApply(*Manager, ModifierSet) bool { return true }
func (BaseModule) AfterApply(*Manager, ModifierSet)       {}
func (BaseModule) BeforeRemove(*Manager, ModifierSet)     {}
func (BaseModule) AfterRemove(*Manager, ModifierSet)      {}
func (BaseModule) Process(*Manager, float64)              {}
