// Package block implements the symmetry-blocked sparse tensor store:
// a diagram's dense sub-tensors ("blocks"), keyed by the tuple of
// irreps on its external lines, with an LRU residency policy and
// on-disk spill (spec.md §4.3).
//
// 2026 EXP-T-sub002 contributors
package block

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"

	"github.com/aoleynichenko/EXP-T-sub002/internal/symmetry"
)

// Residency describes where a Block's data currently lives.
type Residency int

const (
	InMemory Residency = iota
	OnDisk
)

// Key identifies a block within a diagram: the irrep carried by each
// external line, in line order.
type Key struct {
	irreps string // symmetry.Irrep values packed as a comparable string
}

// NewKey builds a Key from an irrep tuple.
func NewKey(tuple []symmetry.Irrep) Key {
	b := make([]byte, len(tuple)*4)
	for i, ir := range tuple {
		v := uint32(ir)
		b[4*i] = byte(v)
		b[4*i+1] = byte(v >> 8)
		b[4*i+2] = byte(v >> 16)
		b[4*i+3] = byte(v >> 24)
	}
	return Key{irreps: string(b)}
}

// Tuple decodes the Key back into an irrep tuple of the given rank.
func (k Key) Tuple(rank int) []symmetry.Irrep {
	out := make([]symmetry.Irrep, rank)
	for i := range out {
		v := uint32(k.irreps[4*i]) | uint32(k.irreps[4*i+1])<<8 |
			uint32(k.irreps[4*i+2])<<16 | uint32(k.irreps[4*i+3])<<24
		out[i] = symmetry.Irrep(v)
	}
	return out
}

// Block is a dense rank-r array of complex128 elements. Real-mode
// diagrams use the same storage with imaginary parts held at zero;
// no kernel branches on the element type, so real data simply flow
// through the complex code paths.
type Block struct {
	Dims      []int // one entry per external line, in canonical order
	Data      []complex128
	Residency Residency
	dirty     bool
	diskOff   int64 // byte offset within the diagram's backing file, if OnDisk
	diskLen   int64

	lruPrev, lruNext *Block // intrusive LRU list links, owned by Store
	owner            string // diagram name, for diagnostics and spill paths
	key              Key
}

// Size is the element count of the block.
func (b *Block) Size() int {
	n := 1
	for _, d := range b.Dims {
		n *= d
	}
	return n
}

// Bytes is the in-memory footprint, used by the Store's memory budget.
func (b *Block) Bytes() int64 { return int64(b.Size()) * 16 }

// NewZero allocates a zeroed block of the given dimensions.
func NewZero(dims []int) *Block {
	n := 1
	for _, d := range dims {
		n *= d
	}
	return &Block{Dims: append([]int(nil), dims...), Data: make([]complex128, n), Residency: InMemory}
}

// At returns the element at a multi-index (row-major over Dims).
func (b *Block) At(idx []int) complex128 {
	return b.Data[b.flatIndex(idx)]
}

// Set assigns the element at a multi-index and marks the block dirty.
func (b *Block) Set(idx []int, v complex128) {
	b.Data[b.flatIndex(idx)] = v
	b.dirty = true
}

func (b *Block) flatIndex(idx []int) int {
	off := 0
	for d := 0; d < len(b.Dims); d++ {
		off = off*b.Dims[d] + idx[d]
	}
	return off
}

// AsGeneralReal reshapes the block into a blas64.General of shape
// rows x cols (product of Dims must equal rows*cols), splitting the
// leading rows-dimensions from the trailing cols-dimensions, with
// elements copied from the real part only. No kernel in this module
// calls it; Mult contracts complex blocks through cblas128 instead.
func (b *Block) AsGeneralReal(rows, cols int) blas64.General {
	if rows*cols != b.Size() {
		panic(fmt.Sprintf("block: AsGeneralReal shape mismatch: %dx%d != %d elements", rows, cols, b.Size()))
	}
	data := make([]float64, rows*cols)
	for i, v := range b.Data {
		data[i] = real(v)
	}
	return blas64.General{Rows: rows, Cols: cols, Stride: cols, Data: data}
}
