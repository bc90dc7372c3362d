// Package spinor holds the one-particle basis (molecular spinors)
// partitioned into hole/particle occupancy classes, their symmetry
// irrep labels, one-particle energies, and the orthogonal active-space
// (valence) flag. The space is read-only after construction
// (spec.md §4.1).
//
// 2026 EXP-T-sub002 contributors
package spinor

import (
	"fmt"

	"github.com/aoleynichenko/EXP-T-sub002/internal/symmetry"
)

// Class is a spinor's occupancy class relative to the Fermi vacuum.
// It is independent of the active-space (valence) flag: the familiar
// diagram name-tag letters h/p/v/g of spec.md §3 are the four
// (Class, active) combinations -- h=(Hole,false), p=(Part,false),
// v=(Part,true), g=(Hole,true) -- not four disjoint occupancy values.
// A diagram line's Classes entry is always Hole or Part; whether that
// line is additionally restricted to the active subset is carried by
// the diagram's own Valence mask (spec.md §3 Diagram.valence_mask),
// grounded on the original's `tmplt("s1_0", "pp", "10", "12", ...)`
// call: class string "pp" with a separate valence string "10".
type Class byte

const (
	Hole Class = 'h'
	Part Class = 'p'
)

func (c Class) String() string { return string(c) }

// Letter returns the diagram name-tag letter for the (class, active)
// combination: h/p/v/g.
func Letter(c Class, active bool) byte {
	switch {
	case c == Hole && !active:
		return 'h'
	case c == Part && !active:
		return 'p'
	case c == Part && active:
		return 'v'
	case c == Hole && active:
		return 'g'
	}
	return '?'
}

// ClassOfLetter parses one of the four name-tag letters into its
// (Class, active) components.
func ClassOfLetter(l byte) (Class, bool, error) {
	switch l {
	case 'h':
		return Hole, false, nil
	case 'p':
		return Part, false, nil
	case 'v':
		return Part, true, nil
	case 'g':
		return Hole, true, nil
	default:
		return 0, false, fmt.Errorf("spinor: invalid class letter %q", l)
	}
}

// Info describes a single spinor.
type Info struct {
	Index  int
	Energy float64
	Irrep  symmetry.Irrep
	Class  Class
	Active bool // member of the model (valence) space
}

// Space is the master, read-only partitioning of the one-particle
// basis. Its concatenation order {h,p,v,g} (inactive holes, inactive
// particles, active particles, active holes) is the master spinor
// index order used by every diagram (spec.md §4.1).
type Space struct {
	infos       []Info
	byLetter    map[byte][]int
	numElectron int
}

// Builder accumulates spinors before freezing them into a Space.
type Builder struct {
	infos []Info
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

// Add appends one spinor definition.
func (b *Builder) Add(energy float64, irrep symmetry.Irrep, class Class, active bool) *Builder {
	b.infos = append(b.infos, Info{Energy: energy, Irrep: irrep, Class: class, Active: active})
	return b
}

// Build freezes the accumulated spinors into a Space, reordering them
// into the canonical h,p,v,g concatenation order used throughout the
// solver. numElectrons is the number of electrons in the Fermi-vacuum
// reference determinant (used by diagnostics such as the T1 norm).
func (b *Builder) Build(numElectrons int) (*Space, error) {
	letters := []byte{'h', 'p', 'v', 'g'}
	sp := &Space{byLetter: make(map[byte][]int, 4), numElectron: numElectrons}
	placed := 0
	for _, l := range letters {
		cl, active, _ := ClassOfLetter(l)
		for _, in := range b.infos {
			if in.Class == cl && in.Active == active {
				in.Index = len(sp.infos)
				sp.byLetter[l] = append(sp.byLetter[l], in.Index)
				sp.infos = append(sp.infos, in)
				placed++
			}
		}
	}
	if placed != len(b.infos) {
		return nil, fmt.Errorf("spinor: inconsistent spinor classification")
	}
	return sp, nil
}

// SpinorCount returns the total number of spinors.
func (s *Space) SpinorCount() int { return len(s.infos) }

// Info returns the full descriptor for spinor i.
func (s *Space) Info(i int) Info { return s.infos[i] }

// NumElectrons is the electron count of the Fermi-vacuum reference.
func (s *Space) NumElectrons() int { return s.numElectron }

// LetterIndices returns the dense spinor indices tagged by the given
// name-tag letter (h/p/v/g), in canonical order.
func (s *Space) LetterIndices(letter byte) []int { return s.byLetter[letter] }

// LineIndices returns the dense spinor indices available to a diagram
// line declared with occupancy class cl and valence restriction
// valenceOnly: every spinor of occupancy cl (both active and inactive)
// if valenceOnly is false, or only its active (valence) subset if
// true -- grounded on `tmplt("s1_0", "pp", "10", "12", ...)`, where
// the unrestricted second "p" line must still admit active particles.
func (s *Space) LineIndices(cl Class, valenceOnly bool) []int {
	if valenceOnly {
		return s.byLetter[Letter(cl, true)]
	}
	return append(append([]int(nil), s.byLetter[Letter(cl, false)]...), s.byLetter[Letter(cl, true)]...)
}

// ClassOf is a convenience accessor.
func (s *Space) ClassOf(i int) Class { return s.infos[i].Class }

// IsActive is a convenience accessor.
func (s *Space) IsActive(i int) bool { return s.infos[i].Active }

// EpsilonOf is a convenience accessor.
func (s *Space) EpsilonOf(i int) float64 { return s.infos[i].Energy }

// IrrepOf is a convenience accessor.
func (s *Space) IrrepOf(i int) symmetry.Irrep { return s.infos[i].Irrep }

// ParseClassString turns a diagram class-tag string into a []Class
// plus the per-line active flag implied by v/g letters, validating
// each letter. h/p letters default the line's active flag to false;
// callers that need a valence-restricted h/p line pass the explicit
// valence mask to Tmplt separately, and v/g letters imply it directly.
func ParseClassString(s string) (classes []Class, valence []bool, err error) {
	classes = make([]Class, len(s))
	valence = make([]bool, len(s))
	for i := 0; i < len(s); i++ {
		cl, active, e := ClassOfLetter(s[i])
		if e != nil {
			return nil, nil, fmt.Errorf("spinor: invalid class letter %q in %q", s[i], s)
		}
		classes[i] = cl
		valence[i] = active
	}
	return classes, valence, nil
}
