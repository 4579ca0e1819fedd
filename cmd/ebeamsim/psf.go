package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreece2304/EBeamSim-sub000/config"
	"github.com/dreece2304/EBeamSim-sub000/db"
	"github.com/dreece2304/EBeamSim-sub000/model"
	"github.com/dreece2304/EBeamSim-sub000/pkg/export"
	"github.com/dreece2304/EBeamSim-sub000/pkg/scoring"
	"github.com/dreece2304/EBeamSim-sub000/runner"
	"github.com/dreece2304/EBeamSim-sub000/simulation"
)

func psfCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "psf",
		Short: "simulate a single point exposure and export the PSF",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPSF(cfg)
		},
	}

	flags := cmd.Flags()
	flags.IntVarP(&cfg.Events, "events", "n", cfg.Events, "number of primary electrons")
	flags.IntVar(&cfg.NumRadialBins, "radial-bins", cfg.NumRadialBins, "number of radial bins")
	flags.Float64Var(&cfg.MinRadius, "min-radius", cfg.MinRadius, "innermost tracked radius, nm")
	flags.Float64Var(&cfg.MaxRadius, "max-radius", cfg.MaxRadius, "outermost tracked radius, nm")
	flags.BoolVar(&cfg.LogBinning, "log-binning", cfg.LogBinning, "logarithmic radial bins")
	flags.IntVar(&cfg.NumDepthBins, "depth-bins", cfg.NumDepthBins, "number of depth bins")
	flags.Float64Var(&cfg.DepthMin, "depth-min", cfg.DepthMin, "lower depth window edge, nm")
	flags.Float64Var(&cfg.DepthMax, "depth-max", cfg.DepthMax, "upper depth window edge, nm")
	return cmd
}

func runPSF(cfg *config.Config) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	engine, err := simulation.Lookup(cfg.Engine)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := &runner.PSFRunner{
		Engine: engine,
		Beam: simulation.Beam{
			Energy:          cfg.BeamEnergy,
			ResistThickness: cfg.ResistThickness,
		},
		Radial:  scoring.NewRadialBinner(cfg.NumRadialBins, cfg.MinRadius, cfg.MaxRadius, cfg.LogBinning),
		Depth:   scoring.NewDepthBinner(cfg.NumDepthBins, cfg.DepthMin, cfg.DepthMax),
		Events:  cfg.Events,
		Workers: cfg.Workers,
		Seed:    cfg.Seed,
		ShowBar: true,
	}

	started := time.Now()
	acc, err := r.Run(ctx)
	if err != nil {
		return err
	}
	ended := time.Now()

	meta := export.Meta{
		BeamEnergy:      cfg.BeamEnergy,
		ResistThickness: cfg.ResistThickness,
		ResistMaterial:  cfg.ResistMaterial,
	}
	if err := export.WritePSFFiles(cfg.OutputDir, acc, meta); err != nil {
		return err
	}

	summary := runner.PSFSummary(acc, engine.Name(), r.Beam, started, ended)
	return archiveRun(cfg, summary)
}

// archiveRun persists a finished run's summary row.
func archiveRun(cfg *config.Config, summary model.RunSummary) error {
	archive, err := db.Connect(cfg.DBPath)
	if err != nil {
		return err
	}
	defer archive.Close()

	_, err = archive.SaveRun(context.Background(), summary)
	return err
}
