// Package web implements the read-only HTTP API over the run archive and
// the in-flight run: status, archived run lookup and a websocket channel
// pushing live progress.
package web

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	conf "github.com/dreece2304/EBeamSim-sub000/config"
	"github.com/dreece2304/EBeamSim-sub000/db"
	"github.com/dreece2304/EBeamSim-sub000/errors"
	"github.com/dreece2304/EBeamSim-sub000/model"
	"github.com/dreece2304/EBeamSim-sub000/simulation"
)

var log = conf.NamedLogger("web")

// Status is the /api/status payload.
type Status struct {
	Engines  []string        `json:"engines"`
	Running  bool            `json:"running"`
	Progress *model.Progress `json:"progress,omitempty"`
}

// Server routes API requests. Construct with NewServer.
type Server struct {
	cfg     conf.Config
	archive *db.Archive
	hub     *Hub
	router  *mux.Router
}

// NewServer wires the routes. cfg supplies the run parameters a
// POST /api/runs request does not override. hub may be nil when no live
// channel is needed (CLI-only runs); run triggering needs the hub, so it
// is only routed alongside it.
func NewServer(cfg conf.Config, archive *db.Archive, hub *Hub) *Server {
	s := &Server{
		cfg:     cfg,
		archive: archive,
		hub:     hub,
		router:  mux.NewRouter(),
	}

	api := s.router.PathPrefix("/api").Subrouter()
	api.Handle("/status", &statusHandler{s}).Methods(http.MethodGet)
	api.Handle("/runs", &listRunsHandler{s}).Methods(http.MethodGet)
	api.Handle("/runs/{runId:[0-9]+}", &getRunHandler{s}).Methods(http.MethodGet)
	if hub != nil {
		api.Handle("/runs", &startRunHandler{s}).Methods(http.MethodPost)
		api.Handle("/live", hub)
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type statusHandler struct{ *Server }

func (h *statusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := Status{
		Engines: simulation.AvailableEngineNames(),
	}
	if h.hub != nil {
		if progress, running := h.hub.Current(); running {
			status.Running = true
			status.Progress = &progress
		}
	}
	writeJSONResponse(w, http.StatusOK, status)
}

type listRunsHandler struct{ *Server }

func (h *listRunsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := h.archive.ListRuns(r.Context(), limit)
	if err != nil {
		log.Errorf("list runs failed [%s]", err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, runs)
}

type getRunHandler struct{ *Server }

func (h *getRunHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["runId"], 10, 64)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	run, err := h.archive.GetRun(r.Context(), id)
	if err == errors.ErrNotFound {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get run %d failed [%s]", id, err.Error())
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	writeJSONResponse(w, http.StatusOK, run)
}
