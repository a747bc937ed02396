package storage

import (
	"database/sql"
	"fmt"
	"time"

	// Need to use SQLite connections.
	_ "github.com/mattn/go-sqlite3"
)

const indexFile = "runs.sqlite3"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	created     INTEGER NOT NULL,
	method      TEXT NOT NULL,
	backend     TEXT NOT NULL,
	hamiltonian TEXT NOT NULL,
	dim         INTEGER NOT NULL,
	steps       INTEGER NOT NULL,
	h           REAL NOT NULL,
	exact_error REAL,
	unitarity   REAL,
	norm_drift  REAL
)`

func openIndex(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index %s: %w", path, err)
	}
	return db, nil
}

func nullable(m map[string]float64, key string) sql.NullFloat64 {
	v, ok := m[key]
	return sql.NullFloat64{Float64: v, Valid: ok}
}

func (s *Store) index(meta RunMetadata) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, created, method, backend, hamiltonian, dim, steps, h, exact_error, unitarity, norm_drift)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID,
		meta.Timestamp.UnixNano(),
		meta.Method,
		meta.Backend,
		meta.Hamiltonian,
		meta.Dim,
		meta.Steps,
		meta.H,
		nullable(meta.Metrics, "exact_error"),
		nullable(meta.Metrics, "unitarity"),
		nullable(meta.Metrics, "norm_drift"),
	)
	return err
}

// RunSummary is one row of the run index.
type RunSummary struct {
	ID          string
	Created     time.Time
	Method      string
	Backend     string
	Hamiltonian string
	Dim         int
	Steps       int
	H           float64
	ExactError  sql.NullFloat64
	Unitarity   sql.NullFloat64
	NormDrift   sql.NullFloat64
}

// List returns indexed runs, newest first. An empty method matches all.
func (s *Store) List(method string) ([]RunSummary, error) {
	if s.db == nil {
		return nil, fmt.Errorf("storage: store not initialized")
	}

	query := `SELECT id, created, method, backend, hamiltonian, dim, steps, h, exact_error, unitarity, norm_drift FROM runs`
	var args []any
	if method != "" {
		query += ` WHERE method = ?`
		args = append(args, method)
	}
	query += ` ORDER BY created DESC, id DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := make([]RunSummary, 0)
	for rows.Next() {
		var r RunSummary
		var created int64
		if err := rows.Scan(&r.ID, &created, &r.Method, &r.Backend, &r.Hamiltonian, &r.Dim, &r.Steps, &r.H,
			&r.ExactError, &r.Unitarity, &r.NormDrift); err != nil {
			return nil, err
		}
		r.Created = time.Unix(0, created)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
