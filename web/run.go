package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	conf "github.com/dreece2304/EBeamSim-sub000/config"
	"github.com/dreece2304/EBeamSim-sub000/pkg/export"
	"github.com/dreece2304/EBeamSim-sub000/pkg/scoring"
	"github.com/dreece2304/EBeamSim-sub000/runner"
	"github.com/dreece2304/EBeamSim-sub000/simulation"
)

// RunRequest is the POST /api/runs payload. Zero-valued fields fall back
// to the server's configuration.
type RunRequest struct {
	Engine          string  `json:"engine,omitempty"`
	Events          int     `json:"events,omitempty"`
	BeamEnergy      float64 `json:"beamEnergy,omitempty"`
	ResistThickness float64 `json:"resistThickness,omitempty"`
	Workers         int     `json:"workers,omitempty"`
	Seed            int64   `json:"seed,omitempty"`
}

type startRunHandler struct{ *Server }

func (h *startRunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONResponse(w, http.StatusBadRequest, map[string]string{"error": "malformed run request"})
		return
	}

	cfg := h.cfg
	if req.Engine != "" {
		cfg.Engine = req.Engine
	}
	if req.Events > 0 {
		cfg.Events = req.Events
	}
	if req.BeamEnergy > 0 {
		cfg.BeamEnergy = req.BeamEnergy
	}
	if req.ResistThickness > 0 {
		cfg.ResistThickness = req.ResistThickness
	}
	if req.Workers > 0 {
		cfg.Workers = req.Workers
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}

	engine, err := simulation.Lookup(cfg.Engine)
	if err != nil {
		writeJSONResponse(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	if !h.hub.RunStarted() {
		writeJSONResponse(w, http.StatusConflict, map[string]string{"error": "a run is already in progress"})
		return
	}

	go h.executePSFRun(engine, cfg)
	writeJSONResponse(w, http.StatusAccepted, map[string]string{"status": "started", "engine": engine.Name()})
}

// executePSFRun drives a full run on the server's hub: progress goes to
// the live websocket listeners, files to the output directory and the
// summary row to the archive.
func (s *Server) executePSFRun(engine simulation.Engine, cfg conf.Config) {
	defer s.hub.RunFinished()

	beam := simulation.Beam{
		Energy:          cfg.BeamEnergy,
		ResistThickness: cfg.ResistThickness,
	}
	r := &runner.PSFRunner{
		Engine:   engine,
		Beam:     beam,
		Radial:   scoring.NewRadialBinner(cfg.NumRadialBins, cfg.MinRadius, cfg.MaxRadius, cfg.LogBinning),
		Depth:    scoring.NewDepthBinner(cfg.NumDepthBins, cfg.DepthMin, cfg.DepthMax),
		Events:   cfg.Events,
		Workers:  cfg.Workers,
		Seed:     cfg.Seed,
		Progress: s.hub.Publish,
	}

	started := time.Now()
	acc, err := r.Run(context.Background())
	if err != nil {
		log.Errorf("run failed [%s]", err.Error())
		return
	}
	ended := time.Now()

	meta := export.Meta{
		BeamEnergy:      cfg.BeamEnergy,
		ResistThickness: cfg.ResistThickness,
		ResistMaterial:  cfg.ResistMaterial,
	}
	if err := export.WritePSFFiles(cfg.OutputDir, acc, meta); err != nil {
		log.Errorf("exporting run results failed [%s]", err.Error())
		return
	}

	summary := runner.PSFSummary(acc, engine.Name(), beam, started, ended)
	if _, err := s.archive.SaveRun(context.Background(), summary); err != nil {
		log.Errorf("archiving run failed [%s]", err.Error())
	}
}
