package engine

import (
	"errors"
	"fmt"
)

// Sentinel errors for the kernel-level taxonomy of spec.md §7. Fatal
// errors propagate to the top-level driver; DIISSingular and
// IntruderWarning are recovered/non-fatal and are reported, not
// wrapped in one of these.
var (
	ErrAlreadyExists      = errors.New("engine: diagram already exists")
	ErrNotFound           = errors.New("engine: diagram or integral not found")
	ErrShapeMismatch      = errors.New("engine: shape mismatch")
	ErrIncompatibleClasses = errors.New("engine: incompatible spinor classes on contracted lines")
	ErrRankUnderflow      = errors.New("engine: contraction rank exceeds operand rank")
	ErrStorageError       = errors.New("engine: storage I/O failed")
	ErrNumericalDivergence = errors.New("engine: amplitude exceeds divergence threshold")
	ErrNotConverged       = errors.New("engine: maxiter reached without convergence")
	ErrConfiguration      = errors.New("engine: invalid configuration")
)

// KernelError decorates a sentinel with the kernel name, the diagram
// most directly implicated and a free-form detail (for some errors the
// offending ranks or classes). It does not record a source file or line.
type KernelError struct {
	Op   string // kernel name, e.g. "mult"
	Name string // diagram name most directly implicated
	Err  error  // one of the sentinels above
	Detail string
}

func (e *KernelError) Error() string {
	if e.Detail == "" {
		return e.Op + "(" + e.Name + "): " + e.Err.Error()
	}
	return e.Op + "(" + e.Name + "): " + e.Err.Error() + ": " + e.Detail
}

func (e *KernelError) Unwrap() error { return e.Err }

func kerr(op, name string, err error, detailf string, args ...any) error {
	d := detailf
	if len(args) > 0 {
		d = fmt.Sprintf(detailf, args...)
	}
	return &KernelError{Op: op, Name: name, Err: err, Detail: d}
}
