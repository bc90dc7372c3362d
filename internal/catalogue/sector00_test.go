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

func newGroundStateFixture(t *testing.T) *engine.Registry {
	t.Helper()
	sym, err := symmetry.NewAbelianXOR(1)
	if err != nil {
		t.Fatalf("symmetry.NewAbelianXOR: %v", err)
	}
	b := spinor.NewBuilder()
	b.Add(-1.0, 0, spinor.Hole, false)
	b.Add(-0.8, 0, spinor.Hole, false)
	b.Add(0.5, 0, spinor.Part, false)
	b.Add(0.7, 0, spinor.Part, false)
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
	mustTmplt("hh", "hh", "12")
	mustTmplt("pp", "pp", "12")
	mustTmplt("hp", "hp", "12")
	mustTmplt("ph", "ph", "12")
	mustTmplt("hhhh", "hhhh", "1234")
	mustTmplt("hhpp", "hhpp", "1234")
	mustTmplt("pphh", "pphh", "1234")
	mustTmplt("pppp", "pppp", "1234")
	mustTmplt("phhp", "phhp", "1234")
	return reg
}

func TestSector00ConstTermsRequiresIntegrals(t *testing.T) {
	store := block.NewStore(t.TempDir(), 0)
	sym, _ := symmetry.NewAbelianXOR(1)
	sp, _ := spinor.NewBuilder().Build(0)
	reg := engine.NewRegistry(store, sym, sp)

	if err := (catalogue.Sector00{}).ConstTerms(reg, config.CCSD); err == nil {
		t.Errorf("ConstTerms should fail when required integrals are absent")
	}
}

func TestSector00FullIteration(t *testing.T) {
	reg := newGroundStateFixture(t)
	model, err := catalogue.For(config.Sector{H: 0, P: 0})
	if err != nil {
		t.Fatalf("catalogue.For(0h0p): %v", err)
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
		t.Errorf("Energy on zero amplitudes should be exactly zero, got %v", e)
	}

	if err := model.Folded(reg, config.CCSD); err != nil {
		t.Fatalf("Folded: %v", err)
	}
	if err := model.Heff(reg, config.CCSD, "veff00"); err != nil {
		t.Fatalf("Heff: %v", err)
	}
	if _, ok := reg.Find("veff00"); !ok {
		t.Errorf("Heff should create the veff00 diagram")
	}
}

func TestSector00ChannelsIncludeTriplesOnlyWhenRequested(t *testing.T) {
	model, err := catalogue.For(config.Sector{H: 0, P: 0})
	if err != nil {
		t.Fatalf("catalogue.For(0h0p): %v", err)
	}
	if n := len(model.Channels(config.CCSD)); n != 2 {
		t.Errorf("CCSD Channels() = %d, want 2 (t1, t2)", n)
	}
	if n := len(model.Channels(config.CCSDT)); n != 3 {
		t.Errorf("CCSDT Channels() = %d, want 3 (t1, t2, t3)", n)
	}
}
