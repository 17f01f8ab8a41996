package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore archives runs in a single sqlite database: one row per
// run, series payloads as json blobs.
type SQLiteStore struct {
	path string
	db   *sql.DB
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init() error {
	if s.path == "" {
		return errors.New("storage: sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS runs (
			id        TEXT PRIMARY KEY,
			network   TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			seed      INTEGER NOT NULL,
			dt        REAL NOT NULL,
			duration  REAL NOT NULL,
			steps     INTEGER NOT NULL,
			probes    BLOB NOT NULL
		)
	`)
	if err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	if s.db == nil {
		return nil, errors.New("storage: sqlite store not initialized")
	}
	return s.db, nil
}

func (s *SQLiteStore) Save(run *Run) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(run.Probes)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		INSERT INTO runs (id, network, timestamp, seed, dt, duration, steps, probes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			network   = excluded.network,
			timestamp = excluded.timestamp,
			seed      = excluded.seed,
			dt        = excluded.dt,
			duration  = excluded.duration,
			steps     = excluded.steps,
			probes    = excluded.probes
	`, run.ID, run.Network, run.Timestamp.Format(time.RFC3339Nano),
		run.Seed, run.Dt, run.Duration, run.Steps, payload)
	return err
}

func (s *SQLiteStore) List() ([]RunMetadata, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query(`
		SELECT id, network, timestamp, seed, dt, duration, steps
		FROM runs ORDER BY timestamp
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var ts string
		if err := rows.Scan(&meta.ID, &meta.Network, &ts, &meta.Seed,
			&meta.Dt, &meta.Duration, &meta.Steps); err != nil {
			return nil, err
		}
		meta.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		runs = append(runs, meta)
	}
	return runs, rows.Err()
}

func (s *SQLiteStore) Load(id string) (*Run, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	run := &Run{}
	var ts string
	var payload []byte
	err = db.QueryRow(`
		SELECT id, network, timestamp, seed, dt, duration, steps, probes
		FROM runs WHERE id = ?
	`, id).Scan(&run.ID, &run.Network, &ts, &run.Seed,
		&run.Dt, &run.Duration, &run.Steps, &payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("storage: run %s not found", id)
		}
		return nil, err
	}
	run.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
	if err := json.Unmarshal(payload, &run.Probes); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, nil
}
