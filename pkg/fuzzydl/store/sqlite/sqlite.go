package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/fuzzydl/pkg/fuzzydl/store"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// One connection serialises the writers of parallel queries
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{db: db}, nil
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS reports (
	id TEXT PRIMARY KEY,
	kb TEXT NOT NULL,
	query TEXT NOT NULL,
	consistent INTEGER NOT NULL,
	value REAL NOT NULL,
	instances TEXT,
	elapsed_ns INTEGER NOT NULL,
	created_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reports_kb ON reports(kb, id);

CREATE TABLE IF NOT EXISTS subsumptions (
	fingerprint TEXT NOT NULL,
	subsumed TEXT NOT NULL,
	subsumer TEXT NOT NULL,
	implication TEXT NOT NULL,
	min_degree REAL NOT NULL,
	max_degree REAL NOT NULL,
	PRIMARY KEY(fingerprint, subsumed, subsumer, implication)
);

CREATE TABLE IF NOT EXISTS classifications (
	fingerprint TEXT PRIMARY KEY,
	created_at TEXT NOT NULL
);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// UpsertReport inserts or updates a report
func (s *sqliteStore) UpsertReport(ctx context.Context, r store.Report) error {
	instancesJSON, err := json.Marshal(r.Instances)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO reports (id, kb, query, consistent, value, instances, elapsed_ns, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	kb=excluded.kb,
	query=excluded.query,
	consistent=excluded.consistent,
	value=excluded.value,
	instances=excluded.instances,
	elapsed_ns=excluded.elapsed_ns,
	created_at=excluded.created_at;
`, r.ID, r.KnowledgeBase, r.Query, boolToInt(r.Consistent), r.Value, string(instancesJSON),
		int64(r.Elapsed), r.CreatedAt.UTC().Format(time.RFC3339Nano))
	return err
}

// GetReport retrieves a report by ID
func (s *sqliteStore) GetReport(ctx context.Context, id string) (store.Report, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, kb, query, consistent, value, instances, elapsed_ns, created_at
FROM reports
WHERE id = ?;
`, id)
	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return store.Report{}, false, nil
	}
	if err != nil {
		return store.Report{}, false, err
	}
	return r, true, nil
}

// ReportsByKB retrieves the newest reports of a knowledge base
func (s *sqliteStore) ReportsByKB(ctx context.Context, kb string, limit int) ([]store.Report, error) {
	if limit <= 0 {
		limit = store.DefaultReportLimit
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, kb, query, consistent, value, instances, elapsed_ns, created_at
FROM reports
WHERE kb = ?
ORDER BY id DESC
LIMIT ?;
`, kb, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []store.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	return reports, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanReport(sc scanner) (store.Report, error) {
	var (
		r             store.Report
		consistent    int
		instancesJSON sql.NullString
		elapsed       int64
		createdAt     string
	)
	if err := sc.Scan(&r.ID, &r.KnowledgeBase, &r.Query, &consistent, &r.Value, &instancesJSON, &elapsed, &createdAt); err != nil {
		return store.Report{}, err
	}
	r.Consistent = consistent != 0
	r.Elapsed = time.Duration(elapsed)
	if instancesJSON.Valid && instancesJSON.String != "" && instancesJSON.String != "null" {
		if err := json.Unmarshal([]byte(instancesJSON.String), &r.Instances); err != nil {
			return store.Report{}, fmt.Errorf("report %s instances: %w", r.ID, err)
		}
	}
	t, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return store.Report{}, fmt.Errorf("report %s created_at: %w", r.ID, err)
	}
	r.CreatedAt = t
	return r, nil
}

// UpsertSubsumptions replaces the hierarchy stored under fingerprint
func (s *sqliteStore) UpsertSubsumptions(ctx context.Context, fingerprint string, rows []store.Subsumption) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM subsumptions WHERE fingerprint = ?`, fingerprint); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
INSERT INTO subsumptions (fingerprint, subsumed, subsumer, implication, min_degree, max_degree)
VALUES (?, ?, ?, ?, ?, ?);
`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, fingerprint, r.Subsumed, r.Subsumer, r.Implication, r.Min, r.Max); err != nil {
			return fmt.Errorf("subsumption %s %s %s: %w", r.Subsumed, r.Subsumer, r.Implication, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
INSERT INTO classifications (fingerprint, created_at) VALUES (?, ?)
ON CONFLICT(fingerprint) DO UPDATE SET created_at=excluded.created_at;
`, fingerprint, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return err
	}
	return tx.Commit()
}

// Subsumptions returns the hierarchy stored under fingerprint. The bool is
// false when the fingerprint was never classified.
func (s *sqliteStore) Subsumptions(ctx context.Context, fingerprint string) ([]store.Subsumption, bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM classifications WHERE fingerprint = ?`, fingerprint).Scan(&n); err != nil {
		return nil, false, err
	}
	if n == 0 {
		return nil, false, nil
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT subsumed, subsumer, implication, min_degree, max_degree
FROM subsumptions
WHERE fingerprint = ?
ORDER BY subsumed, subsumer, implication;
`, fingerprint)
	if err != nil {
		return nil, false, err
	}
	defer rows.Close()

	var out []store.Subsumption
	for rows.Next() {
		var r store.Subsumption
		if err := rows.Scan(&r.Subsumed, &r.Subsumer, &r.Implication, &r.Min, &r.Max); err != nil {
			return nil, false, err
		}
		out = append(out, r)
	}
	return out, true, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
