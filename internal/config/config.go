// Package config holds the solver-option record consumed by the
// driver and diagram catalogue: per-sector tolerance, maxiter, DIIS
// dimension, damping schedule, storage mode and memory budget
// (spec.md §6, §4.7).
//
// 2026 EXP-T-sub002 contributors
package config

import (
	"fmt"

	"github.com/aoleynichenko/EXP-T-sub002/internal/block"
)

// Model is the coupled-cluster model tag; it selects which triples
// diagrams are active (spec.md §4.5).
type Model int

const (
	CCSD Model = iota
	CCSDT1
	CCSDT2
	CCSDT3
	CCSDT
)

func (m Model) String() string {
	switch m {
	case CCSD:
		return "CCSD"
	case CCSDT1:
		return "CCSDT-1"
	case CCSDT2:
		return "CCSDT-2"
	case CCSDT3:
		return "CCSDT-3"
	case CCSDT:
		return "CCSDT"
	default:
		return "unknown"
	}
}

// ParseModel parses a CC model tag, as accepted on the command line.
func ParseModel(s string) (Model, error) {
	switch s {
	case "CCSD":
		return CCSD, nil
	case "CCSDT-1", "CCSDT1":
		return CCSDT1, nil
	case "CCSDT-2", "CCSDT2":
		return CCSDT2, nil
	case "CCSDT-3", "CCSDT3":
		return CCSDT3, nil
	case "CCSDT":
		return CCSDT, nil
	default:
		return 0, fmt.Errorf("config: unknown CC model tag %q", s)
	}
}

// HasTriples reports whether the model carries any T3 amplitudes.
func (m Model) HasTriples() bool { return m != CCSD }

// PTOrder is a perturbation-theory order tag used to select which
// triples diagrams participate in a given model (spec.md §4.5): every
// triples diagram is tagged with the lowest PT order at which it
// contributes.
type PTOrder int

const (
	PTInf PTOrder = -1 // full CC, no truncation
	PT2   PTOrder = 2
	PT3   PTOrder = 3
	PT4   PTOrder = 4
)

// TriplesPTCutoff is the single canonical selection table answering
// the Open Question of spec.md §9 ("a single canonical selection
// table rather than ad-hoc per-diagram if cascades"): it maps a CC
// model to the maximum PT order of triples diagrams that participate.
// A diagram tagged with a finite PT order p is active under model m iff
// p <= TriplesPTCutoff(m); a PTInf cutoff (CCSDT) makes every diagram
// active, and a diagram tagged PTInf is active only under that cutoff.
func TriplesPTCutoff(m Model) PTOrder {
	switch m {
	case CCSD:
		return 0 // no triples at all
	case CCSDT1:
		return PT2
	case CCSDT2:
		return PT3
	case CCSDT3:
		return PT3
	case CCSDT:
		return PTInf
	default:
		return 0
	}
}

// DiagramActive reports whether a triples diagram tagged diagPT
// participates under model m.
func DiagramActive(m Model, diagPT PTOrder) bool {
	cutoff := TriplesPTCutoff(m)
	if cutoff == 0 {
		return false
	}
	if cutoff == PTInf {
		return true
	}
	return diagPT != PTInf && diagPT <= cutoff
}

// Damping holds one sector's linear-mixing schedule (ccutils.c:
// damping): T_new := (1-factor)*T_new + factor*T_old while
// iter <= Stop.
type Damping struct {
	Enabled bool
	Factor  float64
	Stop    int
}

// Sector identifies a Fock-space sector (h valence holes, p valence
// particles).
type Sector struct {
	H, P int
}

func (s Sector) String() string { return fmt.Sprintf("%dh%dp", s.H, s.P) }

// sectorLetters is the single canonical lookup table for the
// <letter><rank>c.dg naming convention of spec.md §6.
var sectorLetters = map[Sector]byte{
	{0, 0}: 't',
	{0, 1}: 's',
	{1, 0}: 'h',
	{0, 2}: 'x',
	{2, 0}: 'g',
	{1, 1}: 'e',
	{0, 3}: 'z',
	{1, 2}: 'm',
}

// SectorLetter returns the amplitude-family letter for a sector, or
// ('?', false) if the sector is not one of the eight supported ones.
func SectorLetter(s Sector) (byte, bool) {
	l, ok := sectorLetters[s]
	return l, ok
}

// SolveOrder is the fixed sector order of spec.md §2 in which the
// driver visits sectors.
var SolveOrder = []Sector{
	{0, 0}, {0, 1}, {1, 0}, {0, 2}, {2, 0}, {1, 1}, {0, 3}, {1, 2},
}

// SectorOptions holds per-sector solver options.
type SectorOptions struct {
	Tolerance float64
	MaxIter   int
	DIISMax   int
	DIISStart int // iteration at which DIIS extrapolation begins
	Damping   Damping
	FlushEvery int // flush diagrams to disk every N iterations; 0 disables
}

// DefaultSectorOptions returns reasonable defaults grounded on the
// typical EXP-T input defaults (tight tolerance, generous DIIS depth).
func DefaultSectorOptions() SectorOptions {
	return SectorOptions{
		Tolerance:  1e-9,
		MaxIter:    50,
		DIISMax:    5,
		DIISStart:  2,
		Damping:    Damping{Enabled: false, Factor: 0.0, Stop: 0},
		FlushEvery: 10,
	}
}

// Options is the full solver-option record, one entry per requested
// sector plus global knobs.
type Options struct {
	Model        Model
	Sectors      map[Sector]SectorOptions
	StorageMode  block.Mode
	MemoryBudget int64 // bytes
	RealMode     bool  // recorded only: the engine does not read it, and Tmplt always creates complex diagrams
	RestartFromDisk bool
	WorkDir      string
	PrintLevel   int
}

// Validate checks option internal consistency, returning a plain
// fmt.Errorf error describing the first problem found (it does not wrap
// engine.ErrConfiguration).
func (o *Options) Validate() error {
	if len(o.Sectors) == 0 {
		return fmt.Errorf("config: no sectors requested")
	}
	for s, so := range o.Sectors {
		if _, ok := SectorLetter(s); !ok {
			return fmt.Errorf("config: sector %s has no amplitude-family letter", s)
		}
		if so.Tolerance <= 0 {
			return fmt.Errorf("config: sector %s: tolerance must be positive", s)
		}
		if so.MaxIter <= 0 {
			return fmt.Errorf("config: sector %s: maxiter must be positive", s)
		}
		if so.DIISMax < 0 {
			return fmt.Errorf("config: sector %s: DIIS max dimension must be >= 0", s)
		}
	}
	return nil
}

// RequestedSectors returns the requested sectors in the fixed solve
// order (spec.md §2), skipping sectors not present in o.Sectors.
func (o *Options) RequestedSectors() []Sector {
	out := make([]Sector, 0, len(o.Sectors))
	for _, s := range SolveOrder {
		if _, ok := o.Sectors[s]; ok {
			out = append(out, s)
		}
	}
	return out
}
