package report

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/prototype-diagnostics/internal/reachability"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS analysis_runs (
	run_id        TEXT PRIMARY KEY,
	tool          TEXT NOT NULL,
	catalog_hash  TEXT,
	config_json   TEXT,
	created_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS reachability_reports (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	prototype_id  TEXT NOT NULL,
	branch_id     TEXT NOT NULL,
	report_json   TEXT NOT NULL,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES analysis_runs(run_id)
);

CREATE TABLE IF NOT EXISTS overlap_edges (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	source_id     TEXT NOT NULL,
	target_id     TEXT NOT NULL,
	metric        TEXT NOT NULL,
	weight        REAL NOT NULL DEFAULT 0,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL,
	UNIQUE(source_id, target_id, metric)
);
CREATE INDEX IF NOT EXISTS idx_reports_run ON reachability_reports(run_id);
CREATE INDEX IF NOT EXISTS idx_edges_source ON overlap_edges(source_id);
`

// #endregion schema

// #region store-struct
// Store persists diagnostic runs and their findings in SQLite.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion constructor

// #region runs
// Run is one persisted diagnostic run with its provenance.
type Run struct {
	RunID       string
	Tool        string
	CatalogHash string
	ConfigJSON  string
	CreatedAt   time.Time
}

// BeginRun records provenance for a diagnostic run and returns its ID.
func (s *Store) BeginRun(tool, catalogHash string, config any) (string, error) {
	cfgJSON, err := json.Marshal(config)
	if err != nil {
		return "", fmt.Errorf("marshal config: %w", err)
	}
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err = s.db.Exec(
		`INSERT INTO analysis_runs (run_id, tool, catalog_hash, config_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		id, tool, nullIfEmpty(catalogHash), string(cfgJSON), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	rows, err := s.db.Query(
		`SELECT run_id, tool, catalog_hash, config_json, created_at
		 FROM analysis_runs ORDER BY created_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var hash, cfg sql.NullString
		var createdStr string
		if err := rows.Scan(&r.RunID, &r.Tool, &hash, &cfg, &createdStr); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if hash.Valid {
			r.CatalogHash = hash.String
		}
		if cfg.Valid {
			r.ConfigJSON = cfg.String
		}
		r.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// #endregion runs

// #region reports
// SaveReachability persists one branch reachability result under a run.
func (s *Store) SaveReachability(runID string, br reachability.BranchReachability) error {
	data, err := json.Marshal(br)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO reachability_reports (run_id, prototype_id, branch_id, report_json, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		runID, br.PrototypeID, br.BranchID, string(data),
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert report: %w", err)
	}
	return nil
}

// ListReachability loads the reports for a run. Derived fields come back
// recomputed from the primary ones, never trusted from the stored JSON.
func (s *Store) ListReachability(runID string) ([]reachability.BranchReachability, error) {
	rows, err := s.db.Query(
		`SELECT report_json FROM reachability_reports WHERE run_id = ? ORDER BY id ASC`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	var out []reachability.BranchReachability
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		var br reachability.BranchReachability
		if err := json.Unmarshal([]byte(raw), &br); err != nil {
			return nil, fmt.Errorf("unmarshal report: %w", err)
		}
		out = append(out, br)
	}
	return out, rows.Err()
}

// #endregion reports

// #region helpers
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
