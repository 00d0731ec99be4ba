package buff

import (
	"math"
	"testing"

	"github.com/udisondev/statfx/internal/stat"
)

// testOwner is a minimal stat holder for the tests in this package.
type testOwner struct {
	stats map[string]*stat.Stat
}

func newTestOwner() *testOwner {
	return &testOwner{stats: make(map[string]*stat.Stat)}
}

func (o *testOwner) add(name string, cfg stat.Config) *stat.Stat {
	s := stat.New(cfg)
	o.stats[name] = s
	return s
}

func (o *testOwner) GetStat(name string) *stat.Stat {
	return o.stats[name]
}

func approx(t *testing.T, got, want float64, what string) {
	t.Helper()
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("%s = %v, want %v", what, got, want)
	}
}
