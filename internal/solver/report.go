package solver

import (
	"fmt"
	"math"
	"strings"

	"github.com/aoleynichenko/EXP-T-sub002/internal/engine"
)

// T1Diagnostic is the norm-based convergence diagnostic ||T1||/sqrt(nelec),
// grounded on ccutils.c:t1_diagnostic -- values above ~0.02 flag a
// single-reference description under strain.
func T1Diagnostic(reg *engine.Registry, t1Name string, numElectrons int) (float64, error) {
	if numElectrons <= 0 {
		return 0, fmt.Errorf("solver: t1 diagnostic: numElectrons must be positive")
	}
	sum, err := reg.Norm2(t1Name)
	if err != nil {
		return 0, fmt.Errorf("solver: t1 diagnostic: %w", err)
	}
	return math.Sqrt(sum / float64(numElectrons)), nil
}

// String renders a one-line convergence summary for a sector,
// grounded on sector00.c's per-iteration banner line.
func (r SectorReport) String() string {
	var b strings.Builder
	status := "not converged"
	if r.Converged {
		status = "converged"
	}
	fmt.Fprintf(&b, "sector %s: %s in %d iterations, E=%.12f", r.Sector, status, r.Iterations, real(r.Energy))
	if r.Intruders > 0 {
		fmt.Fprintf(&b, " (%d intruder warnings)", r.Intruders)
	}
	for _, ch := range sortedKeys(r.DiffMax) {
		fmt.Fprintf(&b, " diffmax(%s)=%.3e", ch, r.DiffMax[ch])
	}
	return b.String()
}

func sortedKeys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
