package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/aoleynichenko/EXP-T-sub002/internal/block"
	"github.com/aoleynichenko/EXP-T-sub002/internal/config"
	"github.com/aoleynichenko/EXP-T-sub002/internal/spinor"
	"github.com/aoleynichenko/EXP-T-sub002/internal/symmetry"
)

// runInput is the JSON run-description read by the "run" subcommand:
// the spinor space and symmetry table spec.md's Non-goals explicitly
// keep out of the solver core (no basis/integral parsing here) still
// have to come from somewhere for the engine to allocate blocks, so
// this is the minimal ambient glue -- not a chemistry input format.
type runInput struct {
	NumElectrons int              `json:"num_electrons"`
	Symmetry     symmetryInput    `json:"symmetry"`
	Spinors      []spinorInput    `json:"spinors"`
	Model        string           `json:"model"`
	Sectors      []sectorInput    `json:"sectors"`
	MemoryBudgetMB int64          `json:"memory_budget_mb"`
	RealMode     bool             `json:"real_mode"`
	PrintLevel   int              `json:"print_level"`
}

type symmetryInput struct {
	NIrreps int        `json:"n_irreps"` // power-of-two order for NewAbelianXOR; Table wins if non-empty
	Names   []string   `json:"names,omitempty"`
	Table   [][]int    `json:"table,omitempty"`
}

type spinorInput struct {
	Energy float64 `json:"energy"`
	Irrep  int     `json:"irrep"`
	Class  string  `json:"class"` // "h" or "p"
	Active bool    `json:"active"`
}

type sectorInput struct {
	H         int     `json:"h"`
	P         int     `json:"p"`
	Tolerance float64 `json:"tolerance"`
	MaxIter   int     `json:"max_iter"`
	DIISMax   int     `json:"diis_max"`
	DIISStart int     `json:"diis_start"`
	FlushEvery int    `json:"flush_every"`
	Damping   struct {
		Enabled bool    `json:"enabled"`
		Factor  float64 `json:"factor"`
		Stop    int     `json:"stop"`
	} `json:"damping"`
}

func loadRunInput(path string) (*runInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run input: %w", err)
	}
	var in runInput
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, fmt.Errorf("parsing run input %s: %w", path, err)
	}
	return &in, nil
}

func (in *runInput) buildSymmetry() (*symmetry.Engine, error) {
	if len(in.Symmetry.Table) > 0 {
		table := make([][]symmetry.Irrep, len(in.Symmetry.Table))
		for i, row := range in.Symmetry.Table {
			table[i] = make([]symmetry.Irrep, len(row))
			for j, v := range row {
				table[i][j] = symmetry.Irrep(v)
			}
		}
		return symmetry.New(in.Symmetry.Names, table)
	}
	n := in.Symmetry.NIrreps
	if n == 0 {
		n = 1
	}
	return symmetry.NewAbelianXOR(n)
}

func (in *runInput) buildSpinorSpace() (*spinor.Space, error) {
	b := spinor.NewBuilder()
	for _, s := range in.Spinors {
		var cl spinor.Class
		switch s.Class {
		case "h":
			cl = spinor.Hole
		case "p":
			cl = spinor.Part
		default:
			return nil, fmt.Errorf("input: spinor class must be \"h\" or \"p\", got %q", s.Class)
		}
		b.Add(s.Energy, symmetry.Irrep(s.Irrep), cl, s.Active)
	}
	return b.Build(in.NumElectrons)
}

func (in *runInput) buildOptions(workDir string) (*config.Options, error) {
	model, err := config.ParseModel(in.Model)
	if err != nil {
		return nil, err
	}
	opts := &config.Options{
		Model:        model,
		Sectors:      make(map[config.Sector]config.SectorOptions, len(in.Sectors)),
		StorageMode:  block.Auto,
		MemoryBudget: in.MemoryBudgetMB * 1024 * 1024,
		RealMode:     in.RealMode,
		WorkDir:      workDir,
		PrintLevel:   in.PrintLevel,
	}
	for _, s := range in.Sectors {
		so := config.DefaultSectorOptions()
		if s.Tolerance > 0 {
			so.Tolerance = s.Tolerance
		}
		if s.MaxIter > 0 {
			so.MaxIter = s.MaxIter
		}
		if s.DIISMax > 0 {
			so.DIISMax = s.DIISMax
		}
		if s.DIISStart > 0 {
			so.DIISStart = s.DIISStart
		}
		if s.FlushEvery > 0 {
			so.FlushEvery = s.FlushEvery
		}
		so.Damping = config.Damping{Enabled: s.Damping.Enabled, Factor: s.Damping.Factor, Stop: s.Damping.Stop}
		opts.Sectors[config.Sector{H: s.H, P: s.P}] = so
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return opts, nil
}
