package engine

import (
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/cblas128"

	"github.com/aoleynichenko/EXP-T-sub002/internal/block"
	"github.com/aoleynichenko/EXP-T-sub002/internal/spinor"
	"github.com/aoleynichenko/EXP-T-sub002/internal/symmetry"
)

// Tmplt allocates a zero diagram: spec.md §4.4. classes is a line-class
// string such as "hhpp"; order is the initial storage order (e.g.
// "1234", 1-based as in the original convention); valenceMask flags
// which lines are restricted to active spinors.
func (r *Registry) Tmplt(name, classes string, valenceMask []bool, order string, permUnique bool) (*Diagram, error) {
	if _, exists := r.diagrams[name]; exists {
		return nil, kerr("tmplt", name, ErrAlreadyExists, "")
	}
	cls, impliedValence, err := spinor.ParseClassString(classes)
	if err != nil {
		return nil, kerr("tmplt", name, ErrShapeMismatch, err.Error())
	}
	rank := len(cls)
	ord, err := parseOrder(order, rank)
	if err != nil {
		return nil, kerr("tmplt", name, ErrShapeMismatch, err.Error())
	}
	if valenceMask == nil {
		valenceMask = make([]bool, rank)
	}
	if len(valenceMask) != rank {
		return nil, kerr("tmplt", name, ErrShapeMismatch, "valence mask length %d != rank %d", len(valenceMask), rank)
	}
	merged := make([]bool, rank)
	for i := range merged {
		merged[i] = valenceMask[i] || impliedValence[i]
	}
	elem := Complex
	d := &Diagram{Name: name, Classes: cls, Valence: merged, Order: ord, PermUnique: permUnique, Elem: elem}
	r.diagrams[name] = d
	r.recordCreated(name)
	r.store.CreateDiagram(name)
	r.allocateBlocks(d)
	return d, nil
}

// allocateBlocks enumerates the totally-symmetric irrep tuples over
// d's external lines and creates a zero block for each, restricted by
// d's valence mask and spinor classes (spec.md §4.2).
func (r *Registry) allocateBlocks(d *Diagram) {
	rank := d.Rank()
	r.sym.EnumerateTuples(rank, func(tuple []symmetry.Irrep) {
		dims := make([]int, rank)
		ok := true
		for i, cl := range d.Classes {
			dims[i] = r.countSpinors(cl, tuple[i], d.Valence[i])
			if dims[i] == 0 {
				ok = false
			}
		}
		if !ok {
			return
		}
		b := block.NewZero(dims)
		r.store.Put(d.Name, block.NewKey(tuple), b)
	})
}

func (r *Registry) countSpinors(cl spinor.Class, irr symmetry.Irrep, valenceOnly bool) int {
	n := 0
	for _, idx := range r.spinors.LineIndices(cl, valenceOnly) {
		if r.spinors.IrrepOf(idx) == irr {
			n++
		}
	}
	return n
}

// lineSpinors returns the ordered spinor indices available to a
// diagram line of class cl (optionally valence-restricted) carrying
// irrep irr -- the same filtering and ordering used by countSpinors,
// needed again by diveps to recover each block position's epsilon.
func (r *Registry) lineSpinors(cl spinor.Class, irr symmetry.Irrep, valenceOnly bool) []int {
	out := make([]int, 0)
	for _, idx := range r.spinors.LineIndices(cl, valenceOnly) {
		if r.spinors.IrrepOf(idx) == irr {
			out = append(out, idx)
		}
	}
	return out
}

func parseOrder(s string, rank int) ([]int, error) {
	if len(s) != rank {
		return nil, kerr("tmplt", "", ErrShapeMismatch, "order %q has length %d, want %d", s, len(s), rank)
	}
	out := make([]int, rank)
	seen := make([]bool, rank+1)
	for i := 0; i < rank; i++ {
		v := int(s[i] - '0')
		if v < 1 || v > rank || seen[v] {
			return nil, kerr("tmplt", "", ErrShapeMismatch, "order %q is not a permutation of 1..%d", s, rank)
		}
		seen[v] = true
		out[i] = v - 1
	}
	return out, nil
}

// Copy performs a structural copy of src into dst: classes, valence,
// order and blocks (spec.md §4.4). dst is created if absent, overwritten
// otherwise.
func (r *Registry) Copy(src, dst string) error {
	s, err := r.MustFind("copy", src)
	if err != nil {
		return err
	}
	r.Erase(dst)
	d := &Diagram{Name: dst, Classes: append([]spinor.Class(nil), s.Classes...), Valence: append([]bool(nil), s.Valence...),
		Order: append([]int(nil), s.Order...), PermUnique: s.PermUnique, Elem: s.Elem}
	r.diagrams[dst] = d
	r.recordCreated(dst)
	r.store.CreateDiagram(dst)
	r.store.Enumerate(src, func(k block.Key, b *block.Block) {
		nb := block.NewZero(b.Dims)
		copy(nb.Data, b.Data)
		r.store.Put(dst, k, nb)
	})
	return nil
}

// Erase removes a diagram and its blocks from the registry. It is a
// no-op if the diagram does not exist.
func (r *Registry) Erase(name string) {
	if _, ok := r.diagrams[name]; !ok {
		return
	}
	delete(r.diagrams, name)
	r.store.DropDiagram(name)
}

// Reorder produces dst whose line order is perm (1-based digit string,
// e.g. "21" transposes a rank-2 diagram) applied to src's current
// order, physically permuting block dimensions and re-keying blocks by
// the correspondingly permuted irrep tuple (spec.md §4.4).
func (r *Registry) Reorder(src, dst, perm string) error {
	s, err := r.MustFind("reorder", src)
	if err != nil {
		return err
	}
	rank := s.Rank()
	p, err := parseOrder(perm, rank)
	if err != nil {
		return kerr("reorder", src, ErrShapeMismatch, "invalid permutation %q", perm)
	}
	r.Erase(dst)
	newClasses := make([]spinor.Class, rank)
	newValence := make([]bool, rank)
	for i, pi := range p {
		newClasses[i] = s.Classes[pi]
		newValence[i] = s.Valence[pi]
	}
	d := &Diagram{Name: dst, Classes: newClasses, Valence: newValence, Order: canonicalOrder(rank), PermUnique: s.PermUnique, Elem: s.Elem}
	r.diagrams[dst] = d
	r.recordCreated(dst)
	r.store.CreateDiagram(dst)
	r.store.Enumerate(src, func(k block.Key, b *block.Block) {
		oldTuple := k.Tuple(rank)
		newTuple := make([]symmetry.Irrep, rank)
		newDims := make([]int, rank)
		for i, pi := range p {
			newTuple[i] = oldTuple[pi]
			newDims[i] = b.Dims[pi]
		}
		nb := block.NewZero(newDims)
		permuteInto(nb, b, p)
		r.store.Put(dst, block.NewKey(newTuple), nb)
	})
	return nil
}

// permuteInto fills dst (already allocated with permuted dims) with
// src's elements reindexed by perm: dst[i_0,...,i_{r-1}] =
// src[i_{perm^-1(0)}, ...] -- equivalently dst's axis j holds src's
// axis perm[j].
func permuteInto(dst, src *block.Block, perm []int) {
	rank := len(perm)
	srcIdx := make([]int, rank)
	dstIdx := make([]int, rank)
	var rec func(axis int)
	rec = func(axis int) {
		if axis == rank {
			for j, pj := range perm {
				dstIdx[j] = srcIdx[pj]
			}
			dst.Set(dstIdx, src.At(srcIdx))
			return
		}
		for i := 0; i < src.Dims[axis]; i++ {
			srcIdx[axis] = i
			rec(axis + 1)
		}
	}
	rec(0)
}

// Mult performs C := A contracted with B over the last k lines of A
// and the first k lines of B; C's external lines are A's remaining
// lines followed by B's remaining lines (spec.md §4.4). Both operands
// must already be in canonical order (apply Reorder first if not). C
// is (re)allocated with the inferred classes/valence mask.
func (r *Registry) Mult(a, b, c string, k int) error {
	A, err := r.MustFind("mult", a)
	if err != nil {
		return err
	}
	B, err := r.MustFind("mult", b)
	if err != nil {
		return err
	}
	rankA, rankB := A.Rank(), B.Rank()
	if k > rankA || k > rankB {
		return kerr("mult", a, ErrRankUnderflow, "k=%d exceeds rank(A)=%d or rank(B)=%d", k, rankA, rankB)
	}
	extA, extB := rankA-k, rankB-k
	for i := 0; i < k; i++ {
		if A.Classes[extA+i] != B.Classes[i] {
			return kerr("mult", a, ErrIncompatibleClasses, "line %d of A (%s) vs line %d of B (%s)",
				extA+i, A.Classes[extA+i], i, B.Classes[i])
		}
	}
	r.Erase(c)
	newClasses := append(append([]spinor.Class(nil), A.Classes[:extA]...), B.Classes[k:]...)
	newValence := append(append([]bool(nil), A.Valence[:extA]...), B.Valence[k:]...)
	rankC := len(newClasses)
	d := &Diagram{Name: c, Classes: newClasses, Valence: newValence, Order: canonicalOrder(rankC), PermUnique: false, Elem: A.Elem}
	r.diagrams[c] = d
	r.recordCreated(c)
	r.store.CreateDiagram(c)

	accum := make(map[block.Key]*block.Block)
	var accumOrder []block.Key // first-seen order, so C's key order is deterministic

	r.store.Enumerate(a, func(ka block.Key, ba *block.Block) {
		tupleA := ka.Tuple(rankA)
		leftTuple := tupleA[:extA]
		contractedA := tupleA[extA:]
		leftSize := prodInts(ba.Dims[:extA])
		contractSize := prodInts(ba.Dims[extA:])
		matA := cblas128.General{Rows: leftSize, Cols: contractSize, Stride: contractSize, Data: append([]complex128(nil), ba.Data...)}

		r.store.Enumerate(b, func(kb block.Key, bb *block.Block) {
			tupleB := kb.Tuple(rankB)
			contractedB := tupleB[:k]
			if !irrepTupleEqual(contractedA, contractedB) {
				return
			}
			rightTuple := tupleB[k:]
			rightSize := prodInts(bb.Dims[k:])
			matB := cblas128.General{Rows: contractSize, Cols: rightSize, Stride: rightSize, Data: append([]complex128(nil), bb.Data...)}

			outTuple := append(append([]symmetry.Irrep(nil), leftTuple...), rightTuple...)
			outKey := block.NewKey(outTuple)
			outDims := append(append([]int(nil), ba.Dims[:extA]...), bb.Dims[k:]...)

			acc, ok := accum[outKey]
			if !ok {
				acc = block.NewZero(outDims)
				accum[outKey] = acc
				accumOrder = append(accumOrder, outKey)
			}
			matC := cblas128.General{Rows: leftSize, Cols: rightSize, Stride: rightSize, Data: acc.Data}
			cblas128.Gemm(blas.NoTrans, blas.NoTrans, complex(1, 0), matA, matB, complex(1, 0), matC)
		})
	})

	for _, key := range accumOrder {
		r.store.Put(c, key, accum[key])
	}
	return nil
}

func prodInts(xs []int) int {
	n := 1
	for _, x := range xs {
		n *= x
	}
	return n
}

func irrepTupleEqual(a, b []symmetry.Irrep) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Add forms C := alpha*A + beta*B (spec.md §4.4). A and B must share
// classes. Add does not look at either operand's Order: blocks are
// combined element-wise as stored, with no reordering, and C is given
// canonical order.
func (r *Registry) Add(alpha complex128, a string, beta complex128, b string, c string) error {
	A, err := r.MustFind("add", a)
	if err != nil {
		return err
	}
	B, err := r.MustFind("add", b)
	if err != nil {
		return err
	}
	if !classesEqual(A.Classes, B.Classes) {
		return kerr("add", a, ErrIncompatibleClasses, "A and B have different classes")
	}
	r.Erase(c)
	d := &Diagram{Name: c, Classes: append([]spinor.Class(nil), A.Classes...), Valence: append([]bool(nil), A.Valence...),
		Order: canonicalOrder(A.Rank()), PermUnique: A.PermUnique && B.PermUnique, Elem: A.Elem}
	r.diagrams[c] = d
	r.recordCreated(c)
	r.store.CreateDiagram(c)
	r.store.Enumerate(a, func(k block.Key, ba *block.Block) {
		nb := block.NewZero(ba.Dims)
		for i, v := range ba.Data {
			nb.Data[i] = alpha * v
		}
		r.store.Put(c, k, nb)
	})
	r.store.Enumerate(b, func(k block.Key, bb *block.Block) {
		if existing, ok := r.store.Get(c, k); ok {
			for i, v := range bb.Data {
				existing.Data[i] += beta * v
			}
		} else {
			nb := block.NewZero(bb.Dims)
			for i, v := range bb.Data {
				nb.Data[i] = beta * v
			}
			r.store.Put(c, k, nb)
		}
	})
	return nil
}

// Update performs C := C + alpha*A in place (spec.md §4.4).
func (r *Registry) Update(c string, alpha complex128, a string) error {
	C, err := r.MustFind("update", c)
	if err != nil {
		return err
	}
	A, err := r.MustFind("update", a)
	if err != nil {
		return err
	}
	if !classesEqual(C.Classes, A.Classes) {
		return kerr("update", c, ErrIncompatibleClasses, "C and A have different classes")
	}
	r.store.Enumerate(a, func(k block.Key, ba *block.Block) {
		cb, ok := r.store.Get(c, k)
		if !ok {
			cb = block.NewZero(ba.Dims)
			r.store.Put(c, k, cb)
		}
		for i, v := range ba.Data {
			cb.Data[i] += alpha * v
		}
	})
	return nil
}

func classesEqual(a, b []spinor.Class) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Clear zeroes every block of a diagram in place.
func (r *Registry) Clear(name string) error {
	_, err := r.MustFind("clear", name)
	if err != nil {
		return err
	}
	r.store.Enumerate(name, func(_ block.Key, b *block.Block) {
		for i := range b.Data {
			b.Data[i] = 0
		}
	})
	return nil
}
