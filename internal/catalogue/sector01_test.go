package catalogue_test

import (
	"testing"

	"github.com/aoleynichenko/EXP-T-sub002/internal/block"
	"github.com/aoleynichenko/EXP-T-sub002/internal/catalogue"
	"github.com/aoleynichenko/EXP-T-sub002/internal/config"
	"github.com/aoleynichenko/EXP-T-sub002/internal/engine"
	"github.com/aoleynichenko/EXP-T-sub002/internal/spinor"
	"github.com/aoleynichenko/EXP-T-sub002/internal/symmetry"
)

// newOneValenceParticleFixture builds a toy space with one inactive
// hole, one inactive particle and one active (valence) particle, the
// minimum needed to exercise the 0h1p sector's "vh"/"vhpp" diagrams.
func newOneValenceParticleFixture(t *testing.T) *engine.Registry {
	t.Helper()
	sym, err := symmetry.NewAbelianXOR(1)
	if err != nil {
		t.Fatalf("symmetry.NewAbelianXOR: %v", err)
	}
	b := spinor.NewBuilder()
	b.Add(-1.0, 0, spinor.Hole, false)
	b.Add(0.5, 0, spinor.Part, false)
	b.Add(0.3, 0, spinor.Part, true) // the valence particle
	sp, err := b.Build(2)
	if err != nil {
		t.Fatalf("spinor.Build: %v", err)
	}
	store := block.NewStore(t.TempDir(), 0)
	reg := engine.NewRegistry(store, sym, sp)

	mustTmplt := func(name, classes, order string) {
		if _, err := reg.Tmplt(name, classes, nil, order, false); err != nil {
			t.Fatalf("Tmplt(%s,%s): %v", name, classes, err)
		}
	}
	// 0h1p's required integrals (sector01.go).
	mustTmplt("vh", "vh", "12")
	mustTmplt("vp", "vp", "12")
	mustTmplt("vv", "vv", "12")
	mustTmplt("vhpp", "vhpp", "1234")
	return reg
}

func TestSector01ConstTermsRequiresIntegrals(t *testing.T) {
	store := block.NewStore(t.TempDir(), 0)
	sym, _ := symmetry.NewAbelianXOR(1)
	sp, _ := spinor.NewBuilder().Build(0)
	reg := engine.NewRegistry(store, sym, sp)

	model, err := catalogue.For(config.Sector{H: 0, P: 1})
	if err != nil {
		t.Fatalf("catalogue.For(0h1p): %v", err)
	}
	if err := model.ConstTerms(reg, config.CCSD); err == nil {
		t.Errorf("ConstTerms should fail when required integrals are absent")
	}
}

func TestSector01FullIteration(t *testing.T) {
	reg := newOneValenceParticleFixture(t)
	model, err := catalogue.For(config.Sector{H: 0, P: 1})
	if err != nil {
		t.Fatalf("catalogue.For(0h1p): %v", err)
	}

	if err := model.ConstTerms(reg, config.CCSD); err != nil {
		t.Fatalf("ConstTerms: %v", err)
	}
	if err := model.InitialGuess(reg, config.CCSD); err != nil {
		t.Fatalf("InitialGuess: %v", err)
	}
	if err := model.Residual(reg, config.CCSD); err != nil {
		t.Fatalf("Residual: %v", err)
	}

	e, err := model.Energy(reg, config.CCSD)
	if err != nil {
		t.Fatalf("Energy: %v", err)
	}
	if e != 0 {
		t.Errorf("0h1p carries no direct energy contribution, got %v", e)
	}

	// Folded is a no-op here: no 0h0p Heff has been built in this
	// fixture, so it should do nothing rather than error.
	if err := model.Folded(reg, config.CCSD); err != nil {
		t.Fatalf("Folded: %v", err)
	}

	if err := model.Heff(reg, config.CCSD, "veff01"); err != nil {
		t.Fatalf("Heff: %v", err)
	}
	if _, ok := reg.Find("veff01"); !ok {
		t.Errorf("Heff should create the veff01 diagram")
	}
}

func TestSector01ChannelsAreFixedRegardlessOfModel(t *testing.T) {
	model, err := catalogue.For(config.Sector{H: 0, P: 1})
	if err != nil {
		t.Fatalf("catalogue.For(0h1p): %v", err)
	}
	if n := len(model.Channels(config.CCSD)); n != 2 {
		t.Errorf("Channels() = %d, want 2 (s1, s2)", n)
	}
	if n := len(model.Channels(config.CCSDT)); n != 2 {
		t.Errorf("Channels() under CCSDT = %d, want 2 (valence sectors carry no triples channel)", n)
	}
}
