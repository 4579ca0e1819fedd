// Package db implements the run archive: every finished run's summary is
// persisted in a SQLite database, queryable from the CLI and the web API.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	conf "github.com/dreece2304/EBeamSim-sub000/config"
	apperrors "github.com/dreece2304/EBeamSim-sub000/errors"
	"github.com/dreece2304/EBeamSim-sub000/model"
)

var log = conf.NamedLogger("db")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	kind TEXT NOT NULL,
	status INTEGER NOT NULL,
	engine TEXT NOT NULL,
	started_at TEXT NOT NULL,
	ended_at TEXT NOT NULL,
	events INTEGER NOT NULL,
	beam_energy REAL NOT NULL,
	resist_thickness REAL NOT NULL,
	total_energy REAL NOT NULL,
	resist_energy REAL NOT NULL,
	substrate_energy REAL NOT NULL,
	above_energy REAL NOT NULL,
	r50 REAL NOT NULL,
	r90 REAL NOT NULL,
	r99 REAL NOT NULL,
	alpha REAL NOT NULL,
	beta REAL NOT NULL,
	eta REAL NOT NULL,
	total_shots INTEGER NOT NULL
);
`

// Archive is the run archive handle. Safe for concurrent use.
type Archive struct {
	db *sql.DB
}

// Connect opens (creating if needed) the archive at path. The modernc
// driver is serialized through a single connection; the archive sees a
// handful of writes per run, so this costs nothing.
func Connect(path string) (*Archive, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec(schema); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("create archive schema: %w", err)
	}

	log.Infof("run archive at %s", path)
	return &Archive{db: sqlDB}, nil
}

// Close releases the underlying connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// SaveRun inserts a run summary and returns its assigned id.
func (a *Archive) SaveRun(ctx context.Context, s model.RunSummary) (int64, error) {
	result, err := a.db.ExecContext(ctx, `
		INSERT INTO runs (
			kind, status, engine, started_at, ended_at,
			events, beam_energy, resist_thickness,
			total_energy, resist_energy, substrate_energy, above_energy,
			r50, r90, r99, alpha, beta, eta, total_shots
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		string(s.Kind), int(s.Status), s.Engine,
		s.StartedAt.UTC().Format(time.RFC3339Nano),
		s.EndedAt.UTC().Format(time.RFC3339Nano),
		s.Events, s.BeamEnergy, s.ResistThickness,
		s.TotalEnergy, s.ResistEnergy, s.SubstrateEnergy, s.AboveEnergy,
		s.R50, s.R90, s.R99, s.Alpha, s.Beta, s.Eta, s.TotalShots,
	)
	if err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("save run: %w", err)
	}
	log.Infof("archived %s run %d", s.Kind, id)
	return id, nil
}

const selectColumns = `
	id, kind, status, engine, started_at, ended_at,
	events, beam_energy, resist_thickness,
	total_energy, resist_energy, substrate_energy, above_energy,
	r50, r90, r99, alpha, beta, eta, total_shots`

// GetRun fetches one archived run by id.
func (a *Archive) GetRun(ctx context.Context, id int64) (model.RunSummary, error) {
	row := a.db.QueryRowContext(ctx, `SELECT`+selectColumns+` FROM runs WHERE id = ?`, id)

	s, err := scanRun(row)
	if err == sql.ErrNoRows {
		return model.RunSummary{}, apperrors.ErrNotFound
	}
	if err != nil {
		return model.RunSummary{}, fmt.Errorf("get run %d: %w", id, err)
	}
	return s, nil
}

// ListRuns returns archived runs, newest first, at most limit of them.
func (a *Archive) ListRuns(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if limit < 1 {
		limit = 50
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT`+selectColumns+` FROM runs ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []model.RunSummary{}
	for rows.Next() {
		s, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, s)
	}
	return runs, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner) (model.RunSummary, error) {
	var s model.RunSummary
	var kind string
	var status int
	var startedAt, endedAt string

	err := row.Scan(
		&s.ID, &kind, &status, &s.Engine, &startedAt, &endedAt,
		&s.Events, &s.BeamEnergy, &s.ResistThickness,
		&s.TotalEnergy, &s.ResistEnergy, &s.SubstrateEnergy, &s.AboveEnergy,
		&s.R50, &s.R90, &s.R99, &s.Alpha, &s.Beta, &s.Eta, &s.TotalShots,
	)
	if err != nil {
		return model.RunSummary{}, err
	}

	s.Kind = model.RunKind(kind)
	s.Status = model.RunStatus(status)
	if s.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return model.RunSummary{}, err
	}
	if s.EndedAt, err = time.Parse(time.RFC3339Nano, endedAt); err != nil {
		return model.RunSummary{}, err
	}
	return s, nil
}
