// Package journal persists per-batch load outcomes to a local SQLite file.
//
// A load tolerates per-batch dispatch failures, so its terminal state can
// be "completed with errors". The journal gives operators a durable record
// to inspect afterwards: one row per load and one row per dispatched batch,
// including a content hash of the insert statement so a re-run of the same
// input can be recognized.
//
// SQLite via database/sql keeps this dependency-light; transactions are not
// needed because the driver appends rows strictly sequentially.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	_ "modernc.org/sqlite"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS loads (
  id           TEXT PRIMARY KEY,
  target_table TEXT NOT NULL,
  source       TEXT NOT NULL,
  started_at   TIMESTAMP NOT NULL,
  finished_at  TIMESTAMP,
  batches      INTEGER NOT NULL DEFAULT 0,
  failed       INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS batches (
  load_id    TEXT NOT NULL REFERENCES loads(id),
  seq        INTEGER NOT NULL,
  lines      INTEGER NOT NULL,
  stmt_hash  TEXT NOT NULL,
  status     TEXT NOT NULL,
  error      TEXT,
  created_at TIMESTAMP NOT NULL,
  PRIMARY KEY (load_id, seq)
);`

// Journal records one load's batch outcomes. A Journal is bound to a single
// load after Begin and is not safe for concurrent use; the driver writes to
// it from one goroutine.
type Journal struct {
	db     *sql.DB
	loadID string
}

// Open opens (or creates) the journal database at path and ensures the
// schema exists. The returned close function must be called at shutdown.
func Open(ctx context.Context, path string) (*Journal, func(), error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil, fmt.Errorf("journal: path must not be empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("journal: open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("journal: ping: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("journal: enable foreign keys: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("journal: create schema: %w", err)
	}

	closeFn := func() { db.Close() }
	return &Journal{db: db}, closeFn, nil
}

// Begin registers a new load against target table and source and assigns it
// a fresh load id, returned for log correlation.
func (j *Journal) Begin(ctx context.Context, table, source string) (string, error) {
	id := uuid.NewString()
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO loads (id, target_table, source, started_at) VALUES (?, ?, ?, ?)",
		id, table, source, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("journal: begin load: %w", err)
	}
	j.loadID = id
	return id, nil
}

// RecordBatch appends the outcome of one dispatched batch. dispatchErr nil
// means acknowledged. The statement text itself is not stored, only its
// 128-bit xxh3 hash.
func (j *Journal) RecordBatch(ctx context.Context, seq int64, lineCount int, stmt string, dispatchErr error) error {
	if j.loadID == "" {
		return fmt.Errorf("journal: RecordBatch before Begin")
	}

	status := "acknowledged"
	var errText any
	if dispatchErr != nil {
		status = "failed"
		errText = dispatchErr.Error()
	}

	h := xxh3.Hash128([]byte(stmt))
	_, err := j.db.ExecContext(ctx,
		"INSERT INTO batches (load_id, seq, lines, stmt_hash, status, error, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		j.loadID, seq, lineCount, fmt.Sprintf("%016x%016x", h.Hi, h.Lo), status, errText, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("journal: record batch %d: %w", seq, err)
	}
	return nil
}

// Finish stamps the load row with its terminal counters.
func (j *Journal) Finish(ctx context.Context, batches, failed int64) error {
	if j.loadID == "" {
		return fmt.Errorf("journal: Finish before Begin")
	}
	_, err := j.db.ExecContext(ctx,
		"UPDATE loads SET finished_at = ?, batches = ?, failed = ? WHERE id = ?",
		time.Now().UTC(), batches, failed, j.loadID,
	)
	if err != nil {
		return fmt.Errorf("journal: finish load: %w", err)
	}
	return nil
}

// LoadID returns the id assigned by Begin, or empty before it.
func (j *Journal) LoadID() string { return j.loadID }

// Entry is one persisted batch outcome row.
type Entry struct {
	Seq       int64
	Lines     int
	StmtHash  string
	Status    string
	Error     string
	CreatedAt time.Time
}

// Batches returns the recorded outcomes for loadID in dispatch order.
func (j *Journal) Batches(ctx context.Context, loadID string) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		"SELECT seq, lines, stmt_hash, status, error, created_at FROM batches WHERE load_id = ? ORDER BY seq",
		loadID,
	)
	if err != nil {
		return nil, fmt.Errorf("journal: query batches: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e       Entry
			errText sql.NullString
		)
		if err := rows.Scan(&e.Seq, &e.Lines, &e.StmtHash, &e.Status, &errText, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("journal: scan batch row: %w", err)
		}
		e.Error = errText.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("journal: iterate batches: %w", err)
	}
	return entries, nil
}
