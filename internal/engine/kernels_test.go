package engine

import (
	"fmt"
	"math"
	"math/cmplx"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/aoleynichenko/EXP-T-sub002/internal/block"
)

func TestReorderRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.Tmplt("t2", "pphh", nil, "1234", false); err != nil {
		t.Fatalf("Tmplt: %v", err)
	}
	fillLinear(r, "t2")

	if err := r.Reorder("t2", "t2_swapped", "2134"); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	if err := r.Reorder("t2_swapped", "t2_back", "2134"); err != nil {
		t.Fatalf("Reorder (back): %v", err)
	}

	orig := snapshot(r, "t2")
	back := snapshot(r, "t2_back")
	if diff := cmp.Diff(orig, back); diff != "" {
		t.Errorf("reorder is not self-inverse for a transposition (-orig +back):\n%s", diff)
	}
}

func TestPermFullAntisymmetriser(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.Tmplt("v", "pphh", nil, "1234", false); err != nil {
		t.Fatalf("Tmplt: %v", err)
	}
	fillLinear(r, "v")

	if err := r.Perm("v", "(12)"); err != nil {
		t.Fatalf("Perm: %v", err)
	}

	// v is now antisymmetric under exchange of lines 1,2: swapping them
	// and negating must reproduce v exactly.
	if err := r.Reorder("v", "v_swapped", "2134"); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	d, _ := r.Find("v")
	rank := d.Rank()
	r.store.Enumerate("v", func(k block.Key, b *block.Block) {
		sb, ok := r.store.Get("v_swapped", k)
		if !ok {
			t.Fatalf("missing swapped block for key")
		}
		idx := make([]int, rank)
		var rec func(axis int)
		rec = func(axis int) {
			if axis == rank {
				got := b.At(idx)
				want := -sb.At(idx)
				if cmplx.Abs(got-want) > 1e-12 {
					t.Errorf("antisymmetry violated at %v: v=%v, -swap(v)=%v", idx, got, want)
				}
				return
			}
			for i := 0; i < b.Dims[axis]; i++ {
				idx[axis] = i
				rec(axis + 1)
			}
		}
		rec(0)
	})
}

func TestDivepsIntruderDetection(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.Tmplt("t2", "pphh", nil, "1234", false); err != nil {
		t.Fatalf("Tmplt: %v", err)
	}
	fillLinear(r, "t2")

	intruders, err := r.Diveps("t2", 10.0) // every denominator passes a generous threshold
	if err != nil {
		t.Fatalf("Diveps: %v", err)
	}
	if intruders == 0 {
		t.Errorf("expected at least one intruder warning under a generous threshold, got 0")
	}

	if _, err := r.Diveps("t2", 0); err != nil {
		t.Fatalf("Diveps (re-divide, zero threshold): %v", err)
	}
}

func TestScalarProductConjugateSymmetry(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.Tmplt("a", "pphh", nil, "1234", false); err != nil {
		t.Fatalf("Tmplt a: %v", err)
	}
	if _, err := r.Tmplt("b", "pphh", nil, "1234", false); err != nil {
		t.Fatalf("Tmplt b: %v", err)
	}
	fillLinear(r, "a")
	fillLinear(r, "b")

	nn, err := r.ScalarProduct('N', 'N', "a", "b")
	if err != nil {
		t.Fatalf("ScalarProduct(N,N): %v", err)
	}
	// All elements here are real, so conjugation is a no-op and every
	// configuration of conjugation flags must agree.
	cn, err := r.ScalarProduct('C', 'N', "a", "b")
	if err != nil {
		t.Fatalf("ScalarProduct(C,N): %v", err)
	}
	if cmplx.Abs(nn-cn) > 1e-12 {
		t.Errorf("conjugation changed a real scalar product: N,N=%v C,N=%v", nn, cn)
	}

	ba, err := r.ScalarProduct('N', 'N', "b", "a")
	if err != nil {
		t.Fatalf("ScalarProduct(b,a): %v", err)
	}
	if cmplx.Abs(nn-ba) > 1e-12 {
		t.Errorf("scalar product not commutative for real operands: <a|b>=%v <b|a>=%v", nn, ba)
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	if _, err := r.Tmplt("t2", "pphh", nil, "1234", false); err != nil {
		t.Fatalf("Tmplt: %v", err)
	}
	fillLinear(r, "t2")

	path := t.TempDir() + "/t2.dg"
	if err := r.Write("t2", path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	r2 := newTestRegistry(t)
	name, err := r2.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if name != "t2" {
		t.Fatalf("Read returned name %q, want t2", name)
	}

	d1, _ := r.Find("t2")
	d2, _ := r2.Find("t2")
	if diff := cmp.Diff(d1.Classes, d2.Classes); diff != "" {
		t.Errorf("classes mismatch after round-trip (-orig +read):\n%s", diff)
	}
	if diff := cmp.Diff(d1.Valence, d2.Valence); diff != "" {
		t.Errorf("valence mask mismatch after round-trip (-orig +read):\n%s", diff)
	}

	if diff := cmp.Diff(snapshot(r, "t2"), snapshot(r2, "t2")); diff != "" {
		t.Errorf("block data mismatch after round-trip (-orig +read):\n%s", diff)
	}
}

// snapshot flattens every block of a diagram into a key-sorted map of
// real/imag pairs, comparable with cmp.Diff independent of Enumerate
// order or block allocation identity.
func snapshot(r *Registry, name string) map[string][]float64 {
	d, _ := r.Find(name)
	rank := d.Rank()
	out := make(map[string][]float64)
	r.store.Enumerate(name, func(k block.Key, b *block.Block) {
		vals := make([]float64, 0, 2*len(b.Data))
		for _, v := range b.Data {
			vals = append(vals, math.Round(real(v)*1e9)/1e9, math.Round(imag(v)*1e9)/1e9)
		}
		out[fmt.Sprint(k.Tuple(rank))] = vals
	})
	return out
}
