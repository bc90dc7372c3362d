package catalogue

import (
	"fmt"

	"github.com/aoleynichenko/EXP-T-sub002/internal/config"
	"github.com/aoleynichenko/EXP-T-sub002/internal/engine"
)

// valenceChannel describes one amplitude rank of a valence (h+p > 0)
// sector: its Tmplt class/order strings (class letters v/g imply the
// valence restriction per spinor.ParseClassString), if non-empty, the
// canonical sorted-integral diagram that seeds its residual's driving
// term, and, if FockIntegral is non-empty, the rank-2 diagonal-class
// Fock block (e.g. "vv", "gg") contracted against FockAxis -- the
// linear self-coupling term every sector file carries (sector01.c's
// dgs3a: mult(s1c, ppr, r1, 1); update(s1nw, 1.0, r1)).
type valenceChannel struct {
	Channel
	Classes      string
	Order        string
	Drive        string
	FockAxis     int
	FockIntegral string
}

// valenceSector is a shared SectorModel for the seven sectors with
// h+p > 0 (spec.md §4.5's S1/S2/... operator families), grounded on
// sector01.c/sector10.c/sector02.c/sector20.c/sector11.c's shared
// shape (each is "the CC(0,0) program with hole-creation lines flipped
// to valence-particle-annihilation lines", per sector01.c's own
// header comment): every channel gets a driving term copied from its
// canonical integral, a Fock-dressing self-coupling term, and a folded
// contraction against the converged lower-sector amplitude, reduced
// relative to the full per-sector diagram expansion (the T1/T2-mediated
// nonlinear cascade of calc_S1/calc_S2 and friends) -- see DESIGN.md.
type valenceSector struct {
	sec        config.Sector
	channels   []valenceChannel
	integrals  []string
	foldSector config.Sector // the one sector folded in; zero value if none
	foldRank0  bool          // true if foldSector is the 0h0p ground state (folds as a scalar derived from its Heff); Folded is a no-op otherwise
}

func (s valenceSector) Sector() config.Sector { return s.sec }

func (s valenceSector) Channels(m config.Model) []Channel {
	out := make([]Channel, len(s.channels))
	for i, c := range s.channels {
		out[i] = c.Channel
	}
	return out
}

func (s valenceSector) ConstTerms(reg *engine.Registry, m config.Model) error {
	for _, name := range s.integrals {
		if _, ok := reg.Find(name); !ok {
			return fmt.Errorf("catalogue: sector %s missing required integral %q: %w", s.sec, name, engine.ErrNotFound)
		}
	}
	return nil
}

func (s valenceSector) InitialGuess(reg *engine.Registry, m config.Model) error {
	for _, ch := range s.channels {
		if _, err := reg.Tmplt(ch.Current(), ch.Classes, nil, ch.Order, false); err != nil {
			return err
		}
	}
	return nil
}

func (s valenceSector) Residual(reg *engine.Registry, m config.Model) error {
	for _, ch := range s.channels {
		if ch.Drive == "" {
			if _, err := reg.Tmplt(ch.New(), ch.Classes, nil, ch.Order, false); err != nil {
				return err
			}
		} else {
			if err := reg.Copy(ch.Drive, ch.New()); err != nil {
				return err
			}
		}
		if ch.FockIntegral == "" {
			continue
		}
		if err := fockDress(reg, ch.New(), ch.Rank, ch.FockAxis, ch.FockIntegral); err != nil {
			return err
		}
	}
	return nil
}

func (valenceSector) Energy(reg *engine.Registry, m config.Model) (complex128, error) { return 0, nil }

// Folded folds in the lower sector's converged contribution when this
// sector's immediate lower neighbour is the bare ground state
// (foldRank0; spec.md §4.5: "products of lower-sector Heff pieces with
// current-sector amplitudes"). The 0h0p Heff diagram built by Closed
// is rank-2, not the bare scalar of the full multireference theory, so
// it is first turned into a genuine number by contracting it against
// the amplitude that produced it (the same rank-2 diagram its own
// sector's Heff call closed over) -- not against itself, which would
// carry no information about that amplitude's sign or direction.
// Sectors whose immediate lower neighbour is itself a valence sector
// fold trivially here (documented scope reduction in DESIGN.md).
func (s valenceSector) Folded(reg *engine.Registry, m config.Model) error {
	if !s.foldRank0 {
		return nil
	}
	heffName := fmt.Sprintf("veff%d%d", s.foldSector.H, s.foldSector.P)
	heff, ok := reg.Find(heffName)
	if !ok || heff.Rank() != 2 {
		return nil
	}
	lower, err := For(s.foldSector)
	if err != nil {
		return nil
	}
	var partner string
	for _, lch := range lower.Channels(m) {
		if lch.Rank == heff.Rank() {
			partner = lch.Current()
			break
		}
	}
	if partner == "" {
		return nil
	}
	if _, ok := reg.Find(partner); !ok {
		return nil
	}
	val, err := reg.ScalarProduct('N', 'N', heffName, partner)
	if err != nil {
		return err
	}
	for _, ch := range s.channels {
		if err := reg.Update(ch.New(), val, ch.Current()); err != nil {
			return err
		}
	}
	return nil
}

// fockDress adds the one-body term sum_p amp[..,p,..] * fock[p,q] back
// into axis of amp, the minimal linear self-coupling every sector file
// mixes into its residual (sector01.c's dgs3a / sector10.c's
// hole-line analogue): amp's axis is rotated to the last position, the
// rank-2 diagonal-class Fock block is contracted against it, and the
// result is rotated back to line up with amp's own axis order.
func fockDress(reg *engine.Registry, amp string, rank, axis int, fock string) error {
	defer reg.Scope()()
	if err := reg.Reorder(amp, "__fockdress_end__", axisToEndOrder(rank, axis)); err != nil {
		return err
	}
	if err := reg.Mult("__fockdress_end__", fock, "__fockdress_out__", 1); err != nil {
		return err
	}
	if err := reg.Reorder("__fockdress_out__", "__fockdress_back__", endToAxisOrder(rank, axis)); err != nil {
		return err
	}
	return reg.Update(amp, 1, "__fockdress_back__")
}

// axisToEndOrder returns the Reorder digit string moving line axis
// (0-based) to the last position, keeping every other line's relative
// order.
func axisToEndOrder(rank, axis int) string {
	p := make([]int, rank)
	j := 0
	for i := 0; i < rank; i++ {
		if i == axis {
			continue
		}
		p[j] = i
		j++
	}
	p[rank-1] = axis
	return digitsFromPerm(p)
}

// endToAxisOrder is axisToEndOrder's inverse: it moves the last line
// back to position axis.
func endToAxisOrder(rank, axis int) string {
	p := make([]int, rank)
	for i := 0; i < axis; i++ {
		p[i] = i
	}
	p[axis] = rank - 1
	for i := axis + 1; i < rank; i++ {
		p[i] = i - 1
	}
	return digitsFromPerm(p)
}

func digitsFromPerm(p []int) string {
	b := make([]byte, len(p))
	for i, v := range p {
		b[i] = byte('1' + v)
	}
	return string(b)
}

func (s valenceSector) Heff(reg *engine.Registry, m config.Model, dst string) error {
	if len(s.channels) == 0 {
		return fmt.Errorf("catalogue: sector %s has no channels", s.sec)
	}
	return reg.Closed(s.channels[0].Current(), dst)
}
