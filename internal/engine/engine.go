// Package engine bundles the diagram registry, block store, symmetry
// table, spinor space and solver options into a single value threaded
// through every primitive tensor kernel -- the redesign called for by
// spec.md §9 in place of the original's process-wide globals.
//
// 2026 EXP-T-sub002 contributors
package engine

import (
	"log/slog"

	"github.com/aoleynichenko/EXP-T-sub002/internal/block"
	"github.com/aoleynichenko/EXP-T-sub002/internal/config"
	"github.com/aoleynichenko/EXP-T-sub002/internal/spinor"
	"github.com/aoleynichenko/EXP-T-sub002/internal/symmetry"
)

// Engine is the single top-level owner of a solver run's mutable
// state: diagram registry, block store, symmetry engine, spinor
// space and options.
type Engine struct {
	Registry *Registry
	Store    *block.Store
	Symmetry *symmetry.Engine
	Spinors  *spinor.Space
	Options  *config.Options
	Log      *slog.Logger
}

// New constructs an Engine. log may be nil, in which case slog.Default
// is used.
func New(store *block.Store, sym *symmetry.Engine, spinors *spinor.Space, opts *config.Options, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		Registry: NewRegistry(store, sym, spinors),
		Store:    store,
		Symmetry: sym,
		Spinors:  spinors,
		Options:  opts,
		Log:      log,
	}
}
