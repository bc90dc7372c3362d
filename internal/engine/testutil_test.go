package engine

import (
	"testing"

	"github.com/aoleynichenko/EXP-T-sub002/internal/block"
	"github.com/aoleynichenko/EXP-T-sub002/internal/spinor"
	"github.com/aoleynichenko/EXP-T-sub002/internal/symmetry"
)

// newTestRegistry builds a C1 (single-irrep), two-hole/two-particle
// toy registry, small enough to hand-check kernel results against,
// grounded on spec.md §8's two-spinor toy-model harness shape.
func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	sym, err := symmetry.NewAbelianXOR(1)
	if err != nil {
		t.Fatalf("symmetry.NewAbelianXOR: %v", err)
	}
	b := spinor.NewBuilder()
	b.Add(-1.0, 0, spinor.Hole, false) // spinor 0: hole
	b.Add(-0.8, 0, spinor.Hole, false) // spinor 1: hole
	b.Add(0.5, 0, spinor.Part, false)  // spinor 2: particle
	b.Add(0.7, 0, spinor.Part, false)  // spinor 3: particle
	sp, err := b.Build(2)
	if err != nil {
		t.Fatalf("spinor.Build: %v", err)
	}
	store := block.NewStore(t.TempDir(), 0)
	return NewRegistry(store, sym, sp)
}

// fillLinear writes 1, 2, 3, ... into a diagram's blocks in Enumerate
// order, for deterministic, easily-inverted test fixtures.
func fillLinear(r *Registry, name string) {
	v := 1.0
	r.store.Enumerate(name, func(k block.Key, bl *block.Block) {
		for i := range bl.Data {
			bl.Data[i] = complex(v, 0)
			v++
		}
	})
}
