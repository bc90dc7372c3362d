package engine

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/aoleynichenko/EXP-T-sub002/internal/block"
	"github.com/aoleynichenko/EXP-T-sub002/internal/spinor"
)

// permTerm is one signed permutation contributing to an
// anti-symmetriser: perm is a full-rank 0-based permutation (line i of
// the result takes the value that was at line perm[i] of the
// operand), sign is +1 or -1.
type permTerm struct {
	perm []int
	sign int
}

// parsePermSpec parses the "(g1/g2|g3/g4...)" anti-symmetriser
// descriptor of spec.md §4.4. Pipes separate independent clauses,
// applied in sequence (they act on disjoint line positions so the
// order does not matter); within a clause, slashes separate groups of
// 1-based line positions.
//
// Clause semantics (the canonical choice documented in DESIGN.md for
// the open question of perm syntax):
//   - a single group of two positions "(ab)": the plain transposition
//     antisymmetriser, 1 - P(a,b).
//   - a single group of more than two positions "(abc)": the full
//     antisymmetriser over that set, the signed sum over all
//     permutations of the group.
//   - two or more slash-separated groups "(a/bc...)": the roving
//     antisymmetriser 1 - sum_{x in later groups} P(first, x), with
//     first generalised to a simultaneous pairwise swap when a later
//     group has the same size as the first, e.g. "(ij/kl)" subtracts
//     the simultaneous swap i<->k, j<->l.
func parsePermSpec(rank int, spec string) ([]permTerm, error) {
	clauses := strings.Split(spec, "|")
	// start from the identity-only term set and compose each clause.
	terms := []permTerm{{perm: canonicalOrder(rank), sign: 1}}
	for _, clause := range clauses {
		clause = strings.TrimSpace(clause)
		clause = strings.TrimPrefix(clause, "(")
		clause = strings.TrimSuffix(clause, ")")
		if clause == "" {
			continue
		}
		groupStrs := strings.Split(clause, "/")
		groups := make([][]int, len(groupStrs))
		for i, g := range groupStrs {
			for _, ch := range g {
				pos := int(ch-'0') - 1
				if pos < 0 || pos >= rank {
					return nil, fmt.Errorf("perm: position %q out of range for rank %d", string(ch), rank)
				}
				groups[i] = append(groups[i], pos)
			}
		}
		clauseTerms, err := clauseOperator(rank, groups)
		if err != nil {
			return nil, err
		}
		terms = composeTerms(rank, terms, clauseTerms)
	}
	return terms, nil
}

func clauseOperator(rank int, groups [][]int) ([]permTerm, error) {
	id := permTerm{perm: canonicalOrder(rank), sign: 1}
	if len(groups) == 1 {
		g := groups[0]
		if len(g) == 2 {
			return []permTerm{id, {perm: swap(rank, g[0], g[1]), sign: -1}}, nil
		}
		// full antisymmetriser over the group.
		return fullAntisymmetriser(rank, g), nil
	}
	first := groups[0]
	out := []permTerm{id}
	for _, g := range groups[1:] {
		switch {
		case len(first) == 1 && len(g) >= 1:
			for _, x := range g {
				out = append(out, permTerm{perm: swap(rank, first[0], x), sign: -1})
			}
		case len(first) == len(g):
			p := canonicalOrder(rank)
			for i := range first {
				p[first[i]] = g[i]
				p[g[i]] = first[i]
			}
			out = append(out, permTerm{perm: p, sign: -1})
		default:
			return nil, fmt.Errorf("perm: incompatible group sizes %d and %d", len(first), len(g))
		}
	}
	return out, nil
}

func fullAntisymmetriser(rank int, g []int) []permTerm {
	idx := append([]int(nil), g...)
	sort.Ints(idx)
	var terms []permTerm
	var rec func(remaining []int, chosen []int, sign int)
	rec = func(remaining []int, chosen []int, sign int) {
		if len(remaining) == 0 {
			p := canonicalOrder(rank)
			for i, pos := range idx {
				p[pos] = chosen[i]
			}
			terms = append(terms, permTerm{perm: p, sign: sign})
			return
		}
		for i, v := range remaining {
			rest := append(append([]int(nil), remaining[:i]...), remaining[i+1:]...)
			rec(rest, append(chosen, v), sign*parityOfRemoval(i, len(remaining)))
		}
	}
	rec(append([]int(nil), idx...), nil, 1)
	return terms
}

func parityOfRemoval(i, n int) int {
	// removing the i-th of n remaining elements to place it next
	// contributes (-1)^i to the overall permutation sign (standard
	// recursive determinant-expansion parity).
	if i%2 == 0 {
		return 1
	}
	return -1
}

func swap(rank, a, b int) []int {
	p := canonicalOrder(rank)
	p[a], p[b] = p[b], p[a]
	return p
}

// composeTerms applies the second operator after the first: for every
// (p1,s1) in base and (p2,s2) in next, the composite permutation maps
// result line i to base line p1[p2[i]]... concretely we want
// next(base(A)): result[i] = base(A)[p2[i]] = A[p1[p2[i]]].
func composeTerms(rank int, base, next []permTerm) []permTerm {
	out := make([]permTerm, 0, len(base)*len(next))
	for _, b := range base {
		for _, n := range next {
			p := make([]int, rank)
			for i := range p {
				p[i] = b.perm[n.perm[i]]
			}
			out = append(out, permTerm{perm: p, sign: b.sign * n.sign})
		}
	}
	return out
}

// Perm rebuilds diagram name in place as the signed sum over the
// anti-symmetriser described by spec (spec.md §4.4).
func (r *Registry) Perm(name, spec string) error {
	d, err := r.MustFind("perm", name)
	if err != nil {
		return err
	}
	rank := d.Rank()
	terms, err := parsePermSpec(rank, spec)
	if err != nil {
		return kerr("perm", name, ErrShapeMismatch, err.Error())
	}
	pos := r.GetStackPos()
	defer r.RestoreStackPos(pos)

	const accName = "__perm_acc__"
	r.Erase(accName)
	accD := &Diagram{Name: accName, Classes: append([]spinor.Class(nil), d.Classes...), Valence: append([]bool(nil), d.Valence...),
		Order: canonicalOrder(rank), PermUnique: false, Elem: d.Elem}
	r.diagrams[accName] = accD
	r.recordCreated(accName)
	r.store.CreateDiagram(accName)

	for ti, term := range terms {
		permStr := orderToDigits(term.perm)
		tmpName := fmt.Sprintf("__perm_tmp_%d__", ti)
		if err := r.Reorder(name, tmpName, permStr); err != nil {
			return err
		}
		if err := r.Update(accName, complex(float64(term.sign), 0), tmpName); err != nil {
			return err
		}
	}

	// replace d's blocks with acc's.
	r.store.DropDiagram(name)
	r.store.CreateDiagram(name)
	r.store.Enumerate(accName, func(k block.Key, b *block.Block) {
		nb := block.NewZero(b.Dims)
		copy(nb.Data, b.Data)
		r.store.Put(name, k, nb)
	})
	return nil
}

func orderToDigits(p []int) string {
	b := make([]byte, len(p))
	for i, v := range p {
		b[i] = byte('1' + v)
	}
	return string(b)
}

// Diveps divides every element of diagram name by its Moller-Plesset
// denominator sum(eps_occupied) - sum(eps_virtual), using the
// per-spinor energies attached to each index position (spec.md §4.4).
// name must be in canonical order (invariant I4). Returns a non-fatal
// intruder-state warning count (small-denominator detections) for the
// caller to log.
func (r *Registry) Diveps(name string, intruderThreshold float64) (intruders int, err error) {
	d, e := r.MustFind("diveps", name)
	if e != nil {
		return 0, e
	}
	if !d.IsCanonical() {
		return 0, kerr("diveps", name, ErrShapeMismatch, "diagram not in canonical order")
	}
	rank := d.Rank()
	r.store.Enumerate(name, func(k block.Key, b *block.Block) {
		tuple := k.Tuple(rank)
		lineIdx := make([][]int, rank)
		for i := 0; i < rank; i++ {
			lineIdx[i] = r.lineSpinors(d.Classes[i], tuple[i], d.Valence[i])
		}
		idx := make([]int, rank)
		var rec func(axis int)
		rec = func(axis int) {
			if axis == rank {
				denom := 0.0
				for i := 0; i < rank; i++ {
					eps := r.spinors.EpsilonOf(lineIdx[i][idx[i]])
					if d.Classes[i] == spinor.Hole {
						denom += eps
					} else {
						denom -= eps
					}
				}
				if math.Abs(denom) < intruderThreshold {
					intruders++
				}
				if denom != 0 {
					b.Set(idx, b.At(idx)/complex(denom, 0))
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
	return intruders, nil
}

// Closed extracts the sub-diagram of src whose every line is
// restricted to the active (valence) subset -- the sector's H_eff
// contribution piece (spec.md §4.4). If src already has every line
// valence-restricted, Closed is a structural copy.
func (r *Registry) Closed(src, dst string) error {
	s, err := r.MustFind("closed", src)
	if err != nil {
		return err
	}
	rank := s.Rank()
	r.Erase(dst)
	allValence := make([]bool, rank)
	for i := range allValence {
		allValence[i] = true
	}
	d := &Diagram{Name: dst, Classes: append([]spinor.Class(nil), s.Classes...), Valence: allValence, Order: canonicalOrder(rank), PermUnique: s.PermUnique, Elem: s.Elem}
	r.diagrams[dst] = d
	r.recordCreated(dst)
	r.store.CreateDiagram(dst)

	r.store.Enumerate(src, func(k block.Key, b *block.Block) {
		tuple := k.Tuple(rank)
		// selection indices, per line, of this block's active subset
		// within the (possibly broader) index list the block was built
		// over.
		fullIdx := make([][]int, rank)
		activeSel := make([][]int, rank)
		for i := 0; i < rank; i++ {
			fullIdx[i] = r.lineSpinors(s.Classes[i], tuple[i], s.Valence[i])
			activeFull := r.lineSpinors(s.Classes[i], tuple[i], true)
			activeSet := make(map[int]bool, len(activeFull))
			for _, a := range activeFull {
				activeSet[a] = true
			}
			for pos, sidx := range fullIdx[i] {
				if activeSet[sidx] {
					activeSel[i] = append(activeSel[i], pos)
				}
			}
		}
		dims := make([]int, rank)
		empty := false
		for i, sel := range activeSel {
			dims[i] = len(sel)
			if dims[i] == 0 {
				empty = true
			}
		}
		if empty {
			return
		}
		nb := block.NewZero(dims)
		srcIdx := make([]int, rank)
		dstIdx := make([]int, rank)
		var rec func(axis int)
		rec = func(axis int) {
			if axis == rank {
				nb.Set(dstIdx, b.At(srcIdx))
				return
			}
			for j, sp := range activeSel[axis] {
				dstIdx[axis] = j
				srcIdx[axis] = sp
				rec(axis + 1)
			}
		}
		rec(0)
		r.store.Put(dst, k, nb)
	})
	return nil
}

// FindMax returns the largest |element| across every block of
// diagram name, together with its global spinor multi-index
// (spec.md §4.4).
func (r *Registry) FindMax(name string) (val float64, idx []int, err error) {
	d, e := r.MustFind("findmax", name)
	if e != nil {
		return 0, nil, e
	}
	rank := d.Rank()
	r.store.Enumerate(name, func(k block.Key, b *block.Block) {
		tuple := k.Tuple(rank)
		lineIdx := make([][]int, rank)
		for i := 0; i < rank; i++ {
			lineIdx[i] = r.lineSpinors(d.Classes[i], tuple[i], d.Valence[i])
		}
		cur := make([]int, rank)
		var rec func(axis int)
		rec = func(axis int) {
			if axis == rank {
				v := cmplxAbs(b.At(cur))
				if v > val {
					val = v
					idx = make([]int, rank)
					for i := range idx {
						idx[i] = lineIdx[i][cur[i]]
					}
				}
				return
			}
			for i := 0; i < b.Dims[axis]; i++ {
				cur[axis] = i
				rec(axis + 1)
			}
		}
		rec(0)
	})
	return val, idx, nil
}

// DiffMax returns max|a-b| and its global spinor multi-index.
func (r *Registry) DiffMax(a, b string) (val float64, idx []int, err error) {
	A, e := r.MustFind("diffmax", a)
	if e != nil {
		return 0, nil, e
	}
	rank := A.Rank()
	r.store.Enumerate(a, func(k block.Key, ba *block.Block) {
		bb, ok := r.store.Get(b, k)
		tuple := k.Tuple(rank)
		lineIdx := make([][]int, rank)
		for i := 0; i < rank; i++ {
			lineIdx[i] = r.lineSpinors(A.Classes[i], tuple[i], A.Valence[i])
		}
		cur := make([]int, rank)
		var rec func(axis int)
		rec = func(axis int) {
			if axis == rank {
				var bv complex128
				if ok {
					bv = bb.At(cur)
				}
				d := cmplxAbs(ba.At(cur) - bv)
				if d > val {
					val = d
					idx = make([]int, rank)
					for i := range idx {
						idx[i] = lineIdx[i][cur[i]]
					}
				}
				return
			}
			for i := 0; i < ba.Dims[axis]; i++ {
				cur[axis] = i
				rec(axis + 1)
			}
		}
		rec(0)
	})
	return val, idx, nil
}

func cmplxAbs(v complex128) float64 {
	return math.Hypot(real(v), imag(v))
}

// ScalarProduct computes the element-wise inner product of A and B
// with per-operand conjugation flags ("C"=conjugate, "N"=natural), as
// used by DIIS and energy evaluation (spec.md §4.4).
func (r *Registry) ScalarProduct(confA, confB byte, a, b string) (complex128, error) {
	A, err := r.MustFind("scalar_product", a)
	if err != nil {
		return 0, err
	}
	if !classesEqual(A.Classes, mustClasses(r, b)) {
		return 0, kerr("scalar_product", a, ErrIncompatibleClasses, "A and B have different classes")
	}
	var total complex128
	rank := A.Rank()
	r.store.Enumerate(a, func(k block.Key, ba *block.Block) {
		bb, ok := r.store.Get(b, k)
		if !ok {
			return
		}
		for i := range ba.Data {
			va, vb := ba.Data[i], bb.Data[i]
			if confA == 'C' {
				va = complexConj(va)
			}
			if confB == 'C' {
				vb = complexConj(vb)
			}
			total += va * vb
		}
	})
	_ = rank
	return total, nil
}

// Norm2 returns sum|element|^2 over every stored element of name, the
// building block of the T1/T2 diagnostics reported after each sector
// converges (ccutils.c's t1_diagnostic).
func (r *Registry) Norm2(name string) (float64, error) {
	if _, err := r.MustFind("norm2", name); err != nil {
		return 0, err
	}
	var total float64
	r.store.Enumerate(name, func(k block.Key, b *block.Block) {
		for _, v := range b.Data {
			total += cmplxAbs(v) * cmplxAbs(v)
		}
	})
	return total, nil
}

func mustClasses(r *Registry, name string) []spinor.Class {
	d, ok := r.diagrams[name]
	if !ok {
		return nil
	}
	return d.Classes
}

func complexConj(v complex128) complex128 { return complex(real(v), -imag(v)) }
