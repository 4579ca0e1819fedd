package main

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dreece2304/EBeamSim-sub000/config"
	"github.com/dreece2304/EBeamSim-sub000/pkg/export"
	"github.com/dreece2304/EBeamSim-sub000/pkg/pattern"
	"github.com/dreece2304/EBeamSim-sub000/pkg/scoring"
	"github.com/dreece2304/EBeamSim-sub000/runner"
	"github.com/dreece2304/EBeamSim-sub000/simulation"
)

func patternCmd(cfg *config.Config) *cobra.Command {
	var modulation []string

	cmd := &cobra.Command{
		Use:   "pattern",
		Short: "expose a shot pattern and export the dose distribution",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPattern(cfg, modulation)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.PatternType, "type", cfg.PatternType, "pattern type: spot, square, line, cross")
	flags.Float64Var(&cfg.PatternSize, "size", cfg.PatternSize, "pattern size, nm")
	flags.IntVar(&cfg.EOSMode, "eos-mode", cfg.EOSMode, "EOS lens mode: 3 or 6")
	flags.IntVar(&cfg.ShotPitch, "shot-pitch", cfg.ShotPitch, "shot pitch in machine grid units")
	flags.Float64Var(&cfg.BeamCurrent, "beam-current", cfg.BeamCurrent, "beam current, nA")
	flags.Float64Var(&cfg.Dose, "dose", cfg.Dose, "base dose, uC/cm^2")
	flags.StringVar(&cfg.ScanOrder, "scan-order", cfg.ScanOrder, "scan order: raster, serpentine, spiral")
	flags.IntVar(&cfg.ArrayNx, "array-nx", cfg.ArrayNx, "array columns")
	flags.IntVar(&cfg.ArrayNy, "array-ny", cfg.ArrayNy, "array rows")
	flags.Float64Var(&cfg.ArrayPitch, "array-pitch", cfg.ArrayPitch, "array pitch, nm")
	flags.StringSliceVar(&modulation, "modulation", nil, "dose modulation entries, rank=value")
	flags.IntVar(&cfg.ElectronsPerShot, "electrons-per-shot", cfg.ElectronsPerShot,
		"primaries per full-dose shot (0 = physical electron count)")

	flags.IntVar(&cfg.GridNx, "grid-nx", cfg.GridNx, "dose grid cells in x")
	flags.IntVar(&cfg.GridNy, "grid-ny", cfg.GridNy, "dose grid cells in y")
	flags.IntVar(&cfg.GridNz, "grid-nz", cfg.GridNz, "dose grid cells in z")
	flags.Float64Var(&cfg.GridXMin, "grid-xmin", cfg.GridXMin, "dose grid lower x bound, nm")
	flags.Float64Var(&cfg.GridXMax, "grid-xmax", cfg.GridXMax, "dose grid upper x bound, nm")
	flags.Float64Var(&cfg.GridYMin, "grid-ymin", cfg.GridYMin, "dose grid lower y bound, nm")
	flags.Float64Var(&cfg.GridYMax, "grid-ymax", cfg.GridYMax, "dose grid upper y bound, nm")
	flags.Float64Var(&cfg.GridZMin, "grid-zmin", cfg.GridZMin, "dose grid lower z bound, nm")
	flags.Float64Var(&cfg.GridZMax, "grid-zmax", cfg.GridZMax, "dose grid upper z bound, nm")
	return cmd
}

func runPattern(cfg *config.Config, modulation []string) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}
	engine, err := simulation.Lookup(cfg.Engine)
	if err != nil {
		return err
	}

	params, err := patternParameters(cfg, modulation)
	if err != nil {
		return err
	}

	gen := pattern.NewGenerator(params)
	if err := gen.Generate(); err != nil {
		return err
	}

	grid, err := scoring.NewDoseGrid(
		cfg.GridNx, cfg.GridNy, cfg.GridNz,
		cfg.GridXMin, cfg.GridXMax,
		cfg.GridYMin, cfg.GridYMax,
		cfg.GridZMin, cfg.GridZMax,
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := &runner.PatternRunner{
		Engine:           engine,
		Generator:        gen,
		Grid:             grid,
		BeamEnergy:       cfg.BeamEnergy,
		ResistThickness:  cfg.ResistThickness,
		ElectronsPerShot: cfg.ElectronsPerShot,
		Workers:          cfg.Workers,
		Seed:             cfg.Seed,
		ShowBar:          true,
	}

	started := time.Now()
	if _, err := r.Run(ctx); err != nil {
		return err
	}
	ended := time.Now()

	electrons := cfg.ElectronsPerShot
	if electrons < 1 {
		electrons = gen.ElectronsPerPoint()
	}
	conv := scoring.NewDoseConverter(grid, electrons)
	meta := export.DoseMeta{
		BeamCurrent:       cfg.BeamCurrent,
		ElectronsPerPoint: electrons,
	}
	if err := export.WriteDoseFiles(cfg.OutputDir, grid, conv, meta); err != nil {
		return err
	}

	summary := runner.PatternSummary(grid, gen, engine.Name(),
		gen.TotalShots()*electrons, cfg.BeamEnergy, cfg.ResistThickness, started, ended)
	return archiveRun(cfg, summary)
}

// patternParameters builds the generator configuration from flags.
func patternParameters(cfg *config.Config, modulation []string) (pattern.Parameters, error) {
	params := pattern.DefaultParameters()
	params.Size = cfg.PatternSize
	params.ShotPitch = cfg.ShotPitch
	params.BeamCurrent = cfg.BeamCurrent
	params.Dose = cfg.Dose
	params.ArrayNx = cfg.ArrayNx
	params.ArrayNy = cfg.ArrayNy
	params.ArrayPitch = cfg.ArrayPitch

	switch cfg.PatternType {
	case "spot":
		params.Type = pattern.SingleSpot
	case "square":
		params.Type = pattern.Square
	case "line":
		params.Type = pattern.Line
	case "cross":
		params.Type = pattern.Cross
	default:
		return params, fmt.Errorf("unknown pattern type %q", cfg.PatternType)
	}

	switch cfg.EOSMode {
	case 3:
		params.EOSMode = pattern.EOSMode3
	case 6:
		params.EOSMode = pattern.EOSMode6
	default:
		return params, fmt.Errorf("unknown EOS mode %d", cfg.EOSMode)
	}

	switch cfg.ScanOrder {
	case "raster":
		params.ScanOrder = pattern.Raster
	case "serpentine":
		params.ScanOrder = pattern.Serpentine
	case "spiral":
		params.ScanOrder = pattern.Spiral
	default:
		return params, fmt.Errorf("unknown scan order %q", cfg.ScanOrder)
	}

	for _, entry := range modulation {
		rank, value, err := parseModulation(entry)
		if err != nil {
			return params, err
		}
		if err := params.SetModulation(rank, value); err != nil {
			return params, err
		}
	}
	return params, nil
}

func parseModulation(entry string) (int, float64, error) {
	parts := strings.SplitN(entry, "=", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("malformed modulation entry %q, expected rank=value", entry)
	}
	rank, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("malformed modulation rank %q", parts[0])
	}
	value, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("malformed modulation value %q", parts[1])
	}
	return rank, value, nil
}
