// Package solver implements the sector-by-sector iterative amplitude
// solver: the state machine of spec.md §4.7
// (SORTING→CONST_TERMS→INIT_AMPLITUDES→ITERATE→CONVERGED|DIVERGED→
// FLUSH→BUILD_HEFF), driving the diagram catalogue and the DIIS
// extrapolator over the fixed sector order of spec.md §2.
//
// Grounded on original_source/src/methods/sector00.c's sector00()
// driver loop (the same calc_T*/diveps/diffmax/DIIS/damping/flush
// shape, generalised across all eight sectors instead of being
// special-cased per file).
//
// 2026 EXP-T-sub002 contributors
package solver

import (
	"fmt"

	"github.com/aoleynichenko/EXP-T-sub002/internal/catalogue"
	"github.com/aoleynichenko/EXP-T-sub002/internal/config"
	"github.com/aoleynichenko/EXP-T-sub002/internal/diis"
	"github.com/aoleynichenko/EXP-T-sub002/internal/engine"
)

// SectorReport summarises one solved sector for the caller (CLI or
// test harness), grounded on ccutils.c's convergence banner.
type SectorReport struct {
	Sector     config.Sector
	Converged  bool
	Iterations int
	Energy     complex128
	DiffMax    map[string]float64 // last diffmax per channel
	Intruders  int
}

// Driver runs the solver state machine over a fixed set of requested
// sectors.
type Driver struct {
	eng *engine.Engine
}

// New creates a Driver bound to eng.
func New(eng *engine.Engine) *Driver {
	return &Driver{eng: eng}
}

// Run solves every requested sector in the fixed order of
// config.SolveOrder, skipping sectors the options did not request, and
// returns one report per solved sector. It stops at the first
// diverged or not-converged sector, matching spec.md §6's exit-code
// policy (nonzero on any sector failure).
func (d *Driver) Run() ([]SectorReport, error) {
	var reports []SectorReport
	for _, sec := range d.eng.Options.RequestedSectors() {
		rep, err := d.runSector(sec)
		reports = append(reports, rep)
		if err != nil {
			return reports, err
		}
	}
	return reports, nil
}

func (d *Driver) runSector(sec config.Sector) (SectorReport, error) {
	reg := d.eng.Registry
	m := d.eng.Options.Model
	so, ok := d.eng.Options.Sectors[sec]
	if !ok {
		return SectorReport{}, fmt.Errorf("solver: sector %s has no options", sec)
	}
	model, err := catalogue.For(sec)
	if err != nil {
		return SectorReport{}, err
	}
	report := SectorReport{Sector: sec, DiffMax: make(map[string]float64)}

	d.eng.Log.Info("sector start", "sector", sec.String(), "model", m.String())

	if err := model.ConstTerms(reg, m); err != nil {
		return report, fmt.Errorf("solver: sector %s const_terms: %w", sec, err)
	}
	if err := model.InitialGuess(reg, m); err != nil {
		return report, fmt.Errorf("solver: sector %s init_amplitudes: %w", sec, err)
	}

	channels := model.Channels(m)
	channelNames := make([]string, len(channels))
	for i, ch := range channels {
		channelNames[i] = ch.Name
	}
	queue := diis.NewQueue(reg, channelNames...)
	diisEnabled := so.DIISMax > 0

	for it := 1; it <= so.MaxIter; it++ {
		if err := model.Residual(reg, m); err != nil {
			return report, fmt.Errorf("solver: sector %s iter %d residual: %w", sec, it, err)
		}
		if err := model.Folded(reg, m); err != nil {
			return report, fmt.Errorf("solver: sector %s iter %d folded: %w", sec, it, err)
		}

		allConverged := true
		diverged := false
		for _, ch := range channels {
			intruders, err := reg.Diveps(ch.New(), so.Tolerance*1e-3)
			if err != nil {
				return report, fmt.Errorf("solver: sector %s iter %d diveps(%s): %w", sec, it, ch.Name, err)
			}
			report.Intruders += intruders

			dm, _, err := reg.DiffMax(ch.Current(), ch.New())
			if err != nil {
				return report, fmt.Errorf("solver: sector %s iter %d diffmax(%s): %w", sec, it, ch.Name, err)
			}
			report.DiffMax[ch.Name] = dm
			if dm >= so.Tolerance {
				allConverged = false
			}

			fm, _, err := reg.FindMax(ch.New())
			if err != nil {
				return report, fmt.Errorf("solver: sector %s iter %d findmax(%s): %w", sec, it, ch.Name, err)
			}
			if fm > 1.0 {
				diverged = true
			}
		}
		if diverged {
			return report, fmt.Errorf("solver: sector %s iter %d: %w", sec, it, engine.ErrNumericalDivergence)
		}

		if diisEnabled {
			newAmps := make(map[string]string, len(channels))
			oldAmps := make(map[string]string, len(channels))
			for _, ch := range channels {
				newAmps[ch.Name] = ch.New()
				oldAmps[ch.Name] = ch.Current()
			}
			if err := queue.Put(newAmps, oldAmps); err != nil {
				return report, fmt.Errorf("solver: sector %s iter %d diis put: %w", sec, it, err)
			}
			if it >= so.DIISStart {
				queue.Truncate(so.DIISMax)
				out := make(map[string]string, len(channels))
				for _, ch := range channels {
					out[ch.Name] = ch.New()
				}
				if err := queue.Extrapolate(out); err == diis.ErrSingular {
					d.eng.Log.Warn("DIIS singular, disabling for remainder of sector", "sector", sec.String())
					diisEnabled = false
				} else if err != nil {
					return report, fmt.Errorf("solver: sector %s iter %d diis extrapolate: %w", sec, it, err)
				}
			}
		}

		for _, ch := range channels {
			damp := so.Damping
			if damp.Enabled && it <= damp.Stop {
				if err := reg.Add(complex(1-damp.Factor, 0), ch.New(), complex(damp.Factor, 0), ch.Current(), ch.New()); err != nil {
					return report, fmt.Errorf("solver: sector %s iter %d damping(%s): %w", sec, it, ch.Name, err)
				}
			}
			if err := reg.Copy(ch.New(), ch.Current()); err != nil {
				return report, fmt.Errorf("solver: sector %s iter %d copy-back(%s): %w", sec, it, ch.Name, err)
			}
		}

		e, err := model.Energy(reg, m)
		if err != nil {
			return report, fmt.Errorf("solver: sector %s iter %d energy: %w", sec, it, err)
		}
		report.Energy = e
		report.Iterations = it

		d.eng.Log.Debug("iteration", "sector", sec.String(), "it", it, "energy", e, "diffmax", report.DiffMax)

		if so.FlushEvery > 0 && it%so.FlushEvery == 0 {
			if err := d.flush(sec, channels); err != nil {
				return report, err
			}
		}

		if allConverged {
			report.Converged = true
			break
		}
	}

	if !report.Converged {
		return report, fmt.Errorf("solver: sector %s: %w", sec, engine.ErrNotConverged)
	}

	if err := d.flush(sec, channels); err != nil {
		return report, err
	}

	letter, _ := config.SectorLetter(sec)
	heffName := fmt.Sprintf("veff%d%d", sec.H, sec.P)
	if err := model.Heff(reg, m, heffName); err != nil {
		return report, fmt.Errorf("solver: sector %s build_heff: %w", sec, err)
	}
	if d.eng.Options.WorkDir != "" {
		if err := reg.Write(heffName, engine.DiagramFilePath(d.eng.Options.WorkDir, heffName)); err != nil {
			return report, fmt.Errorf("solver: sector %s flush heff: %w", sec, err)
		}
	}
	d.eng.Log.Info("sector converged", "sector", sec.String(), "letter", string(letter), "iterations", report.Iterations, "energy", report.Energy)

	return report, nil
}

func (d *Driver) flush(sec config.Sector, channels []catalogue.Channel) error {
	if d.eng.Options.WorkDir == "" {
		return nil
	}
	reg := d.eng.Registry
	for _, ch := range channels {
		path := engine.DiagramFilePath(d.eng.Options.WorkDir, ch.Current())
		if err := reg.Write(ch.Current(), path); err != nil {
			return fmt.Errorf("solver: sector %s flush %s: %w", sec, ch.Name, err)
		}
	}
	return nil
}
