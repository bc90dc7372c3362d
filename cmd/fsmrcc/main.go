// Command fsmrcc solves the requested Fock-space sectors of the
// relativistic FS-MRCC amplitude equations and reports the converged
// energies and effective Hamiltonian.
//
// Grounded on oisee-z80-optimizer/cmd/z80opt/main.go's cobra shape:
// one root command, subcommands for discrete operations.
//
// 2026 EXP-T-sub002 contributors
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/aoleynichenko/EXP-T-sub002/internal/block"
	"github.com/aoleynichenko/EXP-T-sub002/internal/config"
	"github.com/aoleynichenko/EXP-T-sub002/internal/engine"
	"github.com/aoleynichenko/EXP-T-sub002/internal/solver"
	"github.com/aoleynichenko/EXP-T-sub002/internal/spinor"
	"github.com/aoleynichenko/EXP-T-sub002/internal/symmetry"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "fsmrcc",
		Short: "Relativistic Fock-space multireference coupled-cluster amplitude solver",
	}

	rootCmd.AddCommand(newRunCmd(), newInspectCmd())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var inputPath string
	var workDir string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Solve the requested sectors to convergence",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(inputPath, workDir, verbose)
		},
	}
	cmd.Flags().StringVar(&inputPath, "input", "", "path to the run-description JSON file (required)")
	cmd.Flags().StringVar(&workDir, "workdir", ".", "directory holding sorted integral diagrams and solver output")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	cmd.MarkFlagRequired("input")
	return cmd
}

func runSolve(inputPath, workDir string, verbose bool) error {
	in, err := loadRunInput(inputPath)
	if err != nil {
		return err
	}

	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	sym, err := in.buildSymmetry()
	if err != nil {
		return fmt.Errorf("building symmetry table: %w", err)
	}
	spinors, err := in.buildSpinorSpace()
	if err != nil {
		return fmt.Errorf("building spinor space: %w", err)
	}
	opts, err := in.buildOptions(workDir)
	if err != nil {
		return fmt.Errorf("building solver options: %w", err)
	}

	store := block.NewStore(workDir, opts.MemoryBudget)
	eng := engine.New(store, sym, spinors, opts, log)

	if err := loadIntegrals(eng, workDir); err != nil {
		return fmt.Errorf("loading sorted integrals: %w", err)
	}

	drv := solver.New(eng)
	reports, err := drv.Run()
	for _, rep := range reports {
		fmt.Println(rep.String())
	}
	if err != nil {
		return err
	}
	return nil
}

// loadIntegrals reads every *.dg file already present in workDir (the
// pre-sorted integral diagrams spec.md's Non-goals keep out of this
// solver's scope) into the registry before the driver starts.
func loadIntegrals(eng *engine.Engine, workDir string) error {
	matches, err := filepath.Glob(filepath.Join(workDir, "*.dg"))
	if err != nil {
		return err
	}
	for _, path := range matches {
		if _, err := eng.Registry.Read(path); err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
	}
	return nil
}

func newInspectCmd() *cobra.Command {
	var sizesOut string

	cmd := &cobra.Command{
		Use:   "inspect [diagram.dg]",
		Short: "Print a persisted diagram's header and optionally dump its block-size histogram",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(args[0], sizesOut)
		},
	}
	cmd.Flags().StringVar(&sizesOut, "sizes-out", "", "write the block-size histogram to this path")
	return cmd
}

// spinorSpaceEmpty builds a placeholder spinor space for "inspect",
// which reads a diagram's header and blocks directly from the file
// without needing the originating run's actual spinor space.
func spinorSpaceEmpty() (*spinor.Space, error) {
	return spinor.NewBuilder().Build(0)
}

func runInspect(path, sizesOut string) error {
	sym, err := symmetry.NewAbelianXOR(1)
	if err != nil {
		return err
	}
	spinors, err := spinorSpaceEmpty()
	if err != nil {
		return err
	}
	store := block.NewStore(filepath.Dir(path), 0)
	opts := &config.Options{Sectors: map[config.Sector]config.SectorOptions{{H: 0, P: 0}: config.DefaultSectorOptions()}}
	eng := engine.New(store, sym, spinors, opts, slog.Default())

	name, err := eng.Registry.Read(path)
	if err != nil {
		return err
	}
	d, _ := eng.Registry.Find(name)
	fmt.Printf("name: %s\n", d.Name)
	fmt.Printf("rank: %d\n", d.Rank())
	classes := make([]byte, d.Rank())
	for i, c := range d.Classes {
		classes[i] = byte(c)
	}
	fmt.Printf("classes: %s\n", classes)
	fmt.Printf("valence mask: %v\n", d.Valence)
	fmt.Printf("element type: %v\n", d.Elem)

	if sizesOut != "" {
		if err := store.FlushSizes(name, sizesOut); err != nil {
			return fmt.Errorf("flushing block sizes: %w", err)
		}
		fmt.Printf("block sizes written to %s\n", sizesOut)
	}
	return nil
}
