// Package symmetry implements the abelian point-group (double group)
// multiplication table used to restrict which irrep-tuples of a
// diagram's external lines may host a nonzero symmetry block.
//
// 2026 EXP-T-sub002 contributors
package symmetry

import "fmt"

// Irrep is a dense 0-based label for an irreducible representation of
// the working abelian group. Irrep 0 is always the totally symmetric
// representation.
type Irrep int

// TotallySymmetric is the identity element of every abelian group
// table accepted by this package.
const TotallySymmetric Irrep = 0

// Engine answers products of irrep labels via a precomputed
// multiplication table. It is read-only after New.
type Engine struct {
	nIrreps int
	names   []string
	table   [][]Irrep // table[a][b] = a (x) b
}

// New builds a symmetry Engine from an explicit multiplication table.
// table must be square, table[0] must act as the identity row/column,
// and every entry must be a valid index into names. table[a][b] is
// required to equal table[b][a] (abelian).
func New(names []string, table [][]Irrep) (*Engine, error) {
	n := len(names)
	if len(table) != n {
		return nil, fmt.Errorf("symmetry: table has %d rows, want %d", len(table), n)
	}
	for i, row := range table {
		if len(row) != n {
			return nil, fmt.Errorf("symmetry: table row %d has %d entries, want %d", i, len(row), n)
		}
		for j, c := range row {
			if c < 0 || int(c) >= n {
				return nil, fmt.Errorf("symmetry: table[%d][%d]=%d out of range", i, j, c)
			}
			if table[j][i] != c {
				return nil, fmt.Errorf("symmetry: table not abelian at (%d,%d)", i, j)
			}
		}
	}
	e := &Engine{nIrreps: n, names: append([]string(nil), names...), table: table}
	for a := 0; a < n; a++ {
		if e.table[0][a] != Irrep(a) {
			return nil, fmt.Errorf("symmetry: irrep 0 is not the identity (0⊗%d=%d)", a, e.table[0][a])
		}
	}
	return e, nil
}

// NewAbelianXOR builds the multiplication table of an elementary
// abelian 2-group (Z2)^k, the common case for real abelian point
// groups (C1, Ci, C2, C2v, D2, D2h, ...): irrep labels are bit-vectors
// and the product is bitwise XOR. n must be a power of two.
func NewAbelianXOR(n int) (*Engine, error) {
	if n <= 0 || n&(n-1) != 0 {
		return nil, fmt.Errorf("symmetry: NewAbelianXOR requires a power-of-two order, got %d", n)
	}
	names := make([]string, n)
	table := make([][]Irrep, n)
	for a := 0; a < n; a++ {
		names[a] = fmt.Sprintf("irrep%d", a)
		table[a] = make([]Irrep, n)
		for b := 0; b < n; b++ {
			table[a][b] = Irrep(a ^ b)
		}
	}
	return New(names, table)
}

// NIrreps reports the order of the group.
func (e *Engine) NIrreps() int { return e.nIrreps }

// Name returns the display name of irrep a.
func (e *Engine) Name(a Irrep) string {
	if int(a) < 0 || int(a) >= e.nIrreps {
		return "?"
	}
	return e.names[a]
}

// Product returns a (x) b.
func (e *Engine) Product(a, b Irrep) Irrep {
	return e.table[a][b]
}

// IsTotallySymmetric reports whether the product of irreps contains
// (equivalently, for an abelian group, equals) the totally symmetric
// representation.
func (e *Engine) IsTotallySymmetric(irreps ...Irrep) bool {
	acc := TotallySymmetric
	for _, r := range irreps {
		acc = e.Product(acc, r)
	}
	return acc == TotallySymmetric
}

// EnumerateTuples calls yield for every tuple of length rank over the
// group's irreps whose product is totally symmetric, varying the first
// rank-1 positions freely and fixing the last to make the product
// symmetric. This is how a diagram's block dictionary is populated on
// creation (spec.md §4.2: "the engine enumerates all irrep tuples over
// external lines whose product is totally symmetric").
func (e *Engine) EnumerateTuples(rank int, yield func(tuple []Irrep)) {
	if rank <= 0 {
		return
	}
	tuple := make([]Irrep, rank)
	var rec func(pos int, acc Irrep)
	rec = func(pos int, acc Irrep) {
		if pos == rank-1 {
			// last slot must satisfy acc (x) last = identity.
			for last := 0; last < e.nIrreps; last++ {
				if e.Product(acc, Irrep(last)) == TotallySymmetric {
					tuple[pos] = Irrep(last)
					cp := append([]Irrep(nil), tuple...)
					yield(cp)
				}
			}
			return
		}
		for a := 0; a < e.nIrreps; a++ {
			tuple[pos] = Irrep(a)
			rec(pos+1, e.Product(acc, Irrep(a)))
		}
	}
	rec(0, TotallySymmetric)
}
