// Package catalogue holds the per-sector diagram routines of the
// Fock-space coupled-cluster hierarchy (spec.md §4.5): for each sector
// (h valence holes, p valence particles), the constant intermediates
// built once, the residual equations evaluated every iteration, and
// the folded-diagram (effective Hamiltonian) contribution extracted
// from the converged amplitudes.
//
// Each sector file is grounded on its namesake in
// original_source/src/methods (sector00.c, sector01.c, ...): the
// overall diagram shapes and contraction pattern follow that source,
// adapted into the engine's Go kernel calls and simplified where the
// full multireference folded-diagram expansion would dwarf the scope
// of this module (documented per-sector in DESIGN.md).
//
// 2026 EXP-T-sub002 contributors
package catalogue

import (
	"fmt"

	"github.com/aoleynichenko/EXP-T-sub002/internal/config"
	"github.com/aoleynichenko/EXP-T-sub002/internal/engine"
)

// Channel names one amplitude/residual rank within a sector, e.g. "t1"
// (rank-2 singles) or "t2" (rank-4 doubles) of sector 0h0p, or the
// valence-dressed equivalents of higher sectors.
type Channel struct {
	Name string // base name, e.g. "t1"; diagram names are "<name>c" (current) / "<name>nw" (new)
	Rank int
}

func (c Channel) Current() string { return c.Name + "c" }
func (c Channel) New() string     { return c.Name + "nw" }

// SectorModel implements one Fock-space sector's diagram routines.
type SectorModel interface {
	// Sector identifies which (h,p) this model solves.
	Sector() config.Sector

	// Channels lists the amplitude ranks solved in this sector, active
	// under the given CC model (triples appear only when the model
	// carries them).
	Channels(m config.Model) []Channel

	// ConstTerms builds the sector's constant (amplitude-independent)
	// intermediates once, before iteration begins.
	ConstTerms(reg *engine.Registry, m config.Model) error

	// InitialGuess populates every channel's "c" (current) diagram
	// with an MP-like starting guess (zero amplitudes for valence
	// sectors). It creates the diagrams afresh and fails if one of them
	// already exists.
	InitialGuess(reg *engine.Registry, m config.Model) error

	// Residual evaluates every channel's "nw" (new, pre-division)
	// diagram for the current amplitudes.
	Residual(reg *engine.Registry, m config.Model) error

	// Energy returns the sector's correlation energy contribution
	// (0h0p: the CC correlation energy; higher sectors: 0, since their
	// contribution is carried by the effective Hamiltonian instead).
	Energy(reg *engine.Registry, m config.Model) (complex128, error)

	// Folded applies the sector's folded-diagram correction to the
	// "nw" residual, using already-converged lower-sector amplitudes;
	// a no-op for 0h0p, which has no lower sector to fold in.
	Folded(reg *engine.Registry, m config.Model) error

	// Heff extracts the sector's contribution to the effective
	// Hamiltonian from the converged amplitudes into dst.
	Heff(reg *engine.Registry, m config.Model, dst string) error
}

// Registry maps sectors to their SectorModel implementation.
var registry = map[config.Sector]SectorModel{}

func register(m SectorModel) { registry[m.Sector()] = m }

func init() {
	register(Sector00{})
	register(newSector01())
	register(newSector10())
	register(newSector02())
	register(newSector20())
	register(newSector11())
	register(newSector03())
	register(newSector12())
}

// For returns the SectorModel for a given sector, or an error if the
// sector is not one of the eight the program implements.
func For(s config.Sector) (SectorModel, error) {
	m, ok := registry[s]
	if !ok {
		return nil, fmt.Errorf("catalogue: sector %s not implemented", s)
	}
	return m, nil
}
