// Package diis implements Direct Inversion in the Iterative Subspace
// extrapolation of coupled-cluster amplitudes (spec.md §4.6), grounded
// on the original's src/methods/diis.c, itself following
// Scuseria/Lee/Schaefer (Chem. Phys. Lett. 130, 236 (1986)) in the
// variant used by psi4numpy's spin-orbital CCSD tutorial.
//
// 2026 EXP-T-sub002 contributors
package diis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/aoleynichenko/EXP-T-sub002/internal/engine"
)

const maxDepth = 20

// vector is one retained (amplitude, error) pair for a single
// sector/rank diagram, e.g. T1 or T2 of the current sector.
type vector struct {
	amp string // diagram holding the stored amplitudes
	err string // diagram holding new-minus-old as the error vector
}

// Queue accumulates DIIS history for an arbitrary set of named
// amplitude channels (T1, T2, T3, ... -- whatever the caller's sector
// wants extrapolated), mirroring diis_queue_t but without the
// original's fixed do_t1/do_t2/do_t3 trio so it generalises to any
// sector's amplitude set.
type Queue struct {
	reg      *engine.Registry
	channels []string // channel names, e.g. "t1", "t2"
	history  [][]vector
	counter  int
}

// NewQueue creates an empty queue that extrapolates the given channel
// names for every Put/Extrapolate call.
func NewQueue(reg *engine.Registry, channels ...string) *Queue {
	return &Queue{reg: reg, channels: append([]string(nil), channels...)}
}

// Put adds one iteration's amplitudes to the queue. newAmps and
// oldAmps must each have one diagram name per channel, in the same
// order as the Queue's channel list.
func (q *Queue) Put(newAmps, oldAmps map[string]string) error {
	if len(q.history) >= maxDepth {
		return fmt.Errorf("diis: queue depth exceeds %d, call Truncate first", maxDepth)
	}
	row := make([]vector, len(q.channels))
	q.counter++
	for i, ch := range q.channels {
		newName, oldName := newAmps[ch], oldAmps[ch]
		if newName == "" || oldName == "" {
			return fmt.Errorf("diis: channel %q missing from Put arguments", ch)
		}
		ampName := fmt.Sprintf("diis_%s_t%d", ch, q.counter)
		if err := q.reg.Copy(newName, ampName); err != nil {
			return err
		}
		errName := fmt.Sprintf("diis_%s_e%d", ch, q.counter)
		if err := q.reg.Copy(newName, errName); err != nil {
			return err
		}
		if err := q.reg.Update(errName, -1, oldName); err != nil {
			return err
		}
		row[i] = vector{amp: ampName, err: errName}
	}
	q.history = append(q.history, row)
	return nil
}

// Truncate drops history entries from the front of the queue until at
// most length iterations remain, erasing their diagrams.
func (q *Queue) Truncate(length int) {
	if len(q.history) <= length {
		return
	}
	drop := len(q.history) - length
	for i := 0; i < drop; i++ {
		for _, v := range q.history[i] {
			q.reg.Erase(v.amp)
			q.reg.Erase(v.err)
		}
	}
	q.history = append([][]vector(nil), q.history[drop:]...)
}

// Depth is the number of iterations currently retained.
func (q *Queue) Depth() int { return len(q.history) }

// ErrSingular is returned by Extrapolate when the bordered Pulay
// matrix is numerically singular; the caller should disable DIIS for
// the remainder of the sector rather than treat this as a fatal error,
// matching the original's "DIIS will be turned off" recovery.
var ErrSingular = fmt.Errorf("diis: Pulay matrix is singular")

// Extrapolate solves the bordered Pulay least-squares problem over the
// retained history and writes, for each channel, the linear
// combination sum_i c_i * amp_i into the diagram named in out (keyed
// by channel name). On ErrSingular the caller is expected to fall back
// to the unextrapolated amplitudes and disable DIIS going forward.
func (q *Queue) Extrapolate(out map[string]string) error {
	dim := len(q.history)
	if dim == 0 {
		return fmt.Errorf("diis: empty queue")
	}
	bdim := dim + 1

	b := mat.NewDense(bdim, bdim, nil)
	for i := 0; i < dim; i++ {
		for j := i; j < dim; j++ {
			var sum complex128
			for k := range q.channels {
				z, err := q.reg.ScalarProduct('C', 'N', q.history[i][k].err, q.history[j][k].err)
				if err != nil {
					return err
				}
				sum += z
			}
			b.Set(i, j, real(sum))
			b.Set(j, i, real(sum))
		}
		b.Set(i, dim, -1)
		b.Set(dim, i, -1)
	}
	b.Set(dim, dim, 0)

	absmax := 0.0
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			if v := math.Abs(b.At(i, j)); v > absmax {
				absmax = v
			}
		}
	}
	if absmax > 0 {
		for i := 0; i < dim; i++ {
			for j := 0; j < dim; j++ {
				b.Set(i, j, b.At(i, j)/absmax)
			}
		}
	}

	rhs := mat.NewDense(bdim, 1, nil)
	rhs.Set(dim, 0, -1)

	var lu mat.LU
	lu.Factorize(b)
	if cond := lu.Cond(); math.IsInf(cond, 1) || cond > 1e14 {
		return ErrSingular
	}
	var x mat.Dense
	if err := lu.SolveTo(&x, false, rhs); err != nil {
		return ErrSingular
	}

	for k, ch := range q.channels {
		dst := out[ch]
		if dst == "" {
			return fmt.Errorf("diis: channel %q missing from Extrapolate output map", ch)
		}
		if err := q.reg.Clear(dst); err != nil {
			return err
		}
		for i := 0; i < dim; i++ {
			coeff := complex(x.At(i, 0), 0)
			if err := q.reg.Update(dst, coeff, q.history[i][k].amp); err != nil {
				return err
			}
		}
	}
	return nil
}
