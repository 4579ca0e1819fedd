// Package config provides simulation configuration and package loggers.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Default scoring parameters. Lengths are in nanometers, energies in keV.
const (
	DefaultNumRadialBins = 250
	DefaultMinRadius     = 0.05      // nm
	DefaultMaxRadius     = 100000.0  // nm (100 um)
	DefaultNumDepthBins  = 100
	DefaultDepthMin      = -50000.0 // nm (50 um into the substrate)
	DefaultDepthMax      = 150.0    // nm (above the resist surface)

	DefaultBeamEnergy      = 100.0 // keV
	DefaultResistThickness = 30.0  // nm
)

// Default output file names.
const (
	PSFDataFilename     = "ebl_psf_data.csv"
	DepthRadialFilename = "ebl_psf_depth.csv"
	BeamerFilename      = "beamer_psf.dat"
	SummaryFilename     = "simulation_summary.txt"
	DoseGridFilename    = "pattern_dose_distribution.csv"
	DoseGrid2DFilename  = "pattern_dose_2d.csv"
)

// Config represents one simulation invocation.
type Config struct {
	OutputDir    string
	LoggingLevel string
	DBPath       string
	Address      string

	NumRadialBins int
	MinRadius     float64 // nm
	MaxRadius     float64 // nm
	LogBinning    bool
	NumDepthBins  int
	DepthMin      float64 // nm
	DepthMax      float64 // nm

	BeamEnergy      float64 // keV
	ResistThickness float64 // nm
	ResistMaterial  string

	Events  int
	Workers int
	Engine  string
	Seed    int64

	// pattern exposure
	PatternType string
	PatternSize float64 // nm
	EOSMode     int
	ShotPitch   int
	BeamCurrent float64 // nA
	Dose        float64 // uC/cm^2
	ScanOrder   string
	ArrayNx     int
	ArrayNy     int
	ArrayPitch  float64 // nm

	// primaries per full-dose shot; 0 means the physical electron count
	ElectronsPerShot int

	// dose grid geometry
	GridNx, GridNy, GridNz int
	GridXMin, GridXMax     float64 // nm
	GridYMin, GridYMax     float64 // nm
	GridZMin, GridZMax     float64 // nm
}

// Default returns the configuration used when no flags override it.
func Default() Config {
	return Config{
		OutputDir:       "",
		LoggingLevel:    "info",
		DBPath:          "ebeamsim.sqlite",
		Address:         "localhost:3002",
		NumRadialBins:   DefaultNumRadialBins,
		MinRadius:       DefaultMinRadius,
		MaxRadius:       DefaultMaxRadius,
		LogBinning:      true,
		NumDepthBins:    DefaultNumDepthBins,
		DepthMin:        DefaultDepthMin,
		DepthMax:        DefaultDepthMax,
		BeamEnergy:      DefaultBeamEnergy,
		ResistThickness: DefaultResistThickness,
		ResistMaterial:  "HSQ",
		Events:          100000,
		Workers:         runtime.GOMAXPROCS(0),
		Engine:          "double-gaussian",
		Seed:            1,

		PatternType: "square",
		PatternSize: 1000.0,
		EOSMode:     3,
		ShotPitch:   4,
		BeamCurrent: 2.0,
		Dose:        400.0,
		ScanOrder:   "serpentine",
		ArrayNx:     1,
		ArrayNy:     1,

		GridNx: 100, GridNy: 100, GridNz: 30,
		GridXMin: -2000.0, GridXMax: 2000.0,
		GridYMin: -2000.0, GridYMax: 2000.0,
		GridZMin: -500.0, GridZMax: 50.0,
	}
}

// Validate reports configuration problems as human-readable strings.
// An empty slice means the config is usable.
func (c *Config) Validate() []string {
	errors := []string{}

	if c.NumRadialBins < 2 {
		errors = append(errors, fmt.Sprintf("number of radial bins must be at least 2, got %d", c.NumRadialBins))
	}
	if c.MinRadius <= 0 {
		errors = append(errors, fmt.Sprintf("minimum radius must be positive, got %g nm", c.MinRadius))
	}
	if c.MaxRadius <= c.MinRadius {
		errors = append(errors, fmt.Sprintf("maximum radius %g nm must exceed minimum radius %g nm", c.MaxRadius, c.MinRadius))
	}
	if c.NumDepthBins < 1 {
		errors = append(errors, fmt.Sprintf("number of depth bins must be at least 1, got %d", c.NumDepthBins))
	}
	if c.DepthMax <= c.DepthMin {
		errors = append(errors, fmt.Sprintf("depth window [%g, %g] nm is empty", c.DepthMin, c.DepthMax))
	}
	if c.BeamEnergy <= 0 {
		errors = append(errors, fmt.Sprintf("beam energy must be positive, got %g keV", c.BeamEnergy))
	}
	if c.ResistThickness <= 0 {
		errors = append(errors, fmt.Sprintf("resist thickness must be positive, got %g nm", c.ResistThickness))
	}
	if c.Events < 1 {
		errors = append(errors, fmt.Sprintf("event count must be at least 1, got %d", c.Events))
	}
	if c.Workers < 1 {
		errors = append(errors, fmt.Sprintf("worker count must be at least 1, got %d", c.Workers))
	}
	if !validateLoggingLevel(c.LoggingLevel) {
		errors = append(errors, fmt.Sprintf("invalid logging level %q, one of: %s", c.LoggingLevel, availableLoggingLevelsString))
	}

	return errors
}

var availableLoggingLevels = []string{"panic", "fatal", "error", "warn", "info", "debug"}
var availableLoggingLevelsString = strings.Join(availableLoggingLevels, ", ")

func validateLoggingLevel(loggingLevel string) bool {
	for _, l := range availableLoggingLevels {
		if l == loggingLevel {
			return true
		}
	}
	return false
}
