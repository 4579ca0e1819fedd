// Command ebeamsim runs electron-beam lithography simulations: single
// point exposures producing a PSF for proximity-effect correction, and
// full pattern exposures producing a 3D dose distribution.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dreece2304/EBeamSim-sub000/config"
)

var log = config.NamedLogger("ebeamsim")

func main() {
	cfg := config.Default()

	rootCmd := &cobra.Command{
		Use:   "ebeamsim",
		Short: "electron-beam lithography exposure simulator",
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfg.OutputDir, "output", "o", "results", "output directory")
	flags.StringVar(&cfg.LoggingLevel, "log-level", cfg.LoggingLevel, "logging level")
	flags.StringVar(&cfg.DBPath, "db", cfg.DBPath, "run archive path")
	flags.StringVar(&cfg.Engine, "engine", cfg.Engine, "transport engine name")
	flags.IntVar(&cfg.Workers, "workers", cfg.Workers, "number of parallel workers")
	flags.Int64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	flags.Float64Var(&cfg.BeamEnergy, "beam-energy", cfg.BeamEnergy, "beam energy, keV")
	flags.Float64Var(&cfg.ResistThickness, "resist-thickness", cfg.ResistThickness, "resist thickness, nm")
	flags.StringVar(&cfg.ResistMaterial, "resist-material", cfg.ResistMaterial, "resist material name")

	rootCmd.AddCommand(psfCmd(&cfg), patternCmd(&cfg), serveCmd(&cfg))

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// validateConfig reports problems to stderr; the process exits before
// any run starts.
func validateConfig(cfg *config.Config) error {
	problems := cfg.Validate()
	for _, problem := range problems {
		fmt.Fprintln(os.Stderr, problem)
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration (%d problems)", len(problems))
	}
	return nil
}
