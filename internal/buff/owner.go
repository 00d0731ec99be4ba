// Package buff implements reversible stat modifiers, condition-gated and
// timed modifier sets, and the per-entity manager that drives them.
//
// The package is single-threaded by contract: an external driver calls
// Manager.Process(dt) once per logical tick, and every callback runs
// synchronously inside that call. Nothing here takes locks.
package buff

import "github.com/udisondev/statfx/internal/stat"

// Owner resolves stat names for binding. Any entity exposing its stat
// table through GetStat can host modifiers; a nil result means the stat
// does not exist on this owner.
type Owner interface {
	GetStat(name string) *stat.Stat
}
