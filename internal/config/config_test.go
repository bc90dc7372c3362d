package config_test

import (
	"testing"

	"github.com/aoleynichenko/EXP-T-sub002/internal/config"
)

func TestDiagramActiveRespectsCutoffTable(t *testing.T) {
	cases := []struct {
		model config.Model
		diag  config.PTOrder
		want  bool
	}{
		{config.CCSD, config.PT2, false},      // no triples at all
		{config.CCSDT1, config.PT2, true},     // PT2 <= cutoff PT2
		{config.CCSDT1, config.PT3, false},    // PT3 > cutoff PT2
		{config.CCSDT2, config.PT3, true},     // PT3 <= cutoff PT3
		{config.CCSDT3, config.PT3, true},
		{config.CCSDT, config.PT4, true},      // full CC: PTInf cutoff, everything active
		{config.CCSDT, config.PTInf, true},
	}
	for _, c := range cases {
		got := config.DiagramActive(c.model, c.diag)
		if got != c.want {
			t.Errorf("DiagramActive(%v, %v) = %v, want %v", c.model, c.diag, got, c.want)
		}
	}
}

func TestParseModelRoundTrip(t *testing.T) {
	for _, m := range []config.Model{config.CCSD, config.CCSDT1, config.CCSDT2, config.CCSDT3, config.CCSDT} {
		got, err := config.ParseModel(m.String())
		if err != nil {
			t.Fatalf("ParseModel(%q): %v", m.String(), err)
		}
		if got != m {
			t.Errorf("ParseModel(%q) = %v, want %v", m.String(), got, m)
		}
	}
	if _, err := config.ParseModel("not-a-model"); err == nil {
		t.Errorf("ParseModel on an unknown tag should return an error")
	}
}

func TestRequestedSectorsFollowsFixedSolveOrder(t *testing.T) {
	opts := &config.Options{
		Sectors: map[config.Sector]config.SectorOptions{
			{H: 1, P: 2}: config.DefaultSectorOptions(),
			{H: 0, P: 0}: config.DefaultSectorOptions(),
			{H: 0, P: 1}: config.DefaultSectorOptions(),
		},
	}
	got := opts.RequestedSectors()
	want := []config.Sector{{H: 0, P: 0}, {H: 0, P: 1}, {H: 1, P: 2}}
	if len(got) != len(want) {
		t.Fatalf("RequestedSectors() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("RequestedSectors()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestValidateRejectsEmptySectors(t *testing.T) {
	opts := &config.Options{}
	if err := opts.Validate(); err == nil {
		t.Errorf("Validate() on an empty sector map should return an error")
	}
}

func TestValidateRejectsNonPositiveTolerance(t *testing.T) {
	so := config.DefaultSectorOptions()
	so.Tolerance = 0
	opts := &config.Options{Sectors: map[config.Sector]config.SectorOptions{{H: 0, P: 0}: so}}
	if err := opts.Validate(); err == nil {
		t.Errorf("Validate() with zero tolerance should return an error")
	}
}
