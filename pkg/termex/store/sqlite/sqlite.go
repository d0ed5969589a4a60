package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/termex/pkg/termex/internalerr"
	"github.com/cognicore/termex/pkg/termex/store"
	"github.com/cognicore/termex/pkg/termex/term"
)

// timeLayout has fixed width so created_at sorts as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db *sql.DB
}

// OpenSQLite opens a SQLite database with WAL mode enabled and creates the
// run schema when missing.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Pragmas are per connection; a single connection keeps them in force.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys=ON"); err != nil {
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

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	source TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	max_chunk_size INTEGER NOT NULL,
	min_frequency INTEGER NOT NULL,
	chunks INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS terms (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	term TEXT NOT NULL,
	frequency INTEGER NOT NULL,
	omitted INTEGER NOT NULL DEFAULT 0,
	selected INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY(run_id, position),
	UNIQUE(run_id, term),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS term_contexts (
	run_id TEXT NOT NULL,
	term_position INTEGER NOT NULL,
	position INTEGER NOT NULL,
	text TEXT NOT NULL,
	PRIMARY KEY(run_id, term_position, position),
	FOREIGN KEY(run_id, term_position) REFERENCES terms(run_id, position) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun replaces any stored run with the same ID in one transaction.
func (s *sqliteStore) SaveRun(ctx context.Context, r store.Run) error {
	if r.ID == "" {
		return fmt.Errorf("%w: run id is empty", internalerr.ErrInvalidInput)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id=?`, r.ID); err != nil {
		return err
	}

	const stmt = `
INSERT INTO runs (id, source, created_at, max_chunk_size, min_frequency, chunks)
VALUES (?, ?, ?, ?, ?, ?)`
	if _, err := tx.ExecContext(
		ctx,
		stmt,
		r.ID,
		r.Source,
		r.CreatedAt.UTC().Format(timeLayout),
		r.MaxChunkSize,
		r.MinFrequency,
		r.Chunks,
	); err != nil {
		return err
	}

	if err := insertTerms(ctx, tx, r.ID, r.Terms); err != nil {
		return err
	}
	return tx.Commit()
}

func insertTerms(ctx context.Context, tx *sql.Tx, runID string, records []*term.Record) error {
	if len(records) == 0 {
		return nil
	}
	termStmt, err := tx.PrepareContext(ctx, `INSERT INTO terms (run_id, position, term, frequency, omitted, selected) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer termStmt.Close()

	ctxStmt, err := tx.PrepareContext(ctx, `INSERT INTO term_contexts (run_id, term_position, position, text) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer ctxStmt.Close()

	for pos, rec := range records {
		if _, err := termStmt.ExecContext(ctx, runID, pos, rec.Term, rec.Frequency, rec.Omitted, boolToInt(rec.Selected)); err != nil {
			return fmt.Errorf("insert term %q: %w", rec.Term, err)
		}
		for i, text := range rec.Contexts {
			if _, err := ctxStmt.ExecContext(ctx, runID, pos, i, text); err != nil {
				return err
			}
		}
	}
	return nil
}

// GetRun loads a run with terms in discovery order and contexts in
// recorded order.
func (s *sqliteStore) GetRun(ctx context.Context, id string) (store.Run, error) {
	var (
		r       store.Run
		created string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, source, created_at, max_chunk_size, min_frequency, chunks
FROM runs WHERE id = ?`, id).Scan(&r.ID, &r.Source, &created, &r.MaxChunkSize, &r.MinFrequency, &r.Chunks)
	if errors.Is(err, sql.ErrNoRows) {
		return store.Run{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return store.Run{}, err
	}
	if r.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
		return store.Run{}, fmt.Errorf("run %s: bad created_at %q: %w", id, created, err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT term, frequency, omitted, selected FROM terms
WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return store.Run{}, err
	}
	defer rows.Close()

	for rows.Next() {
		rec := &term.Record{}
		var selected int
		if err := rows.Scan(&rec.Term, &rec.Frequency, &rec.Omitted, &selected); err != nil {
			return store.Run{}, err
		}
		rec.Selected = selected != 0
		r.Terms = append(r.Terms, rec)
	}
	if err := rows.Err(); err != nil {
		return store.Run{}, err
	}
	rows.Close()

	ctxRows, err := s.db.QueryContext(ctx, `
SELECT term_position, text FROM term_contexts
WHERE run_id = ? ORDER BY term_position, position`, id)
	if err != nil {
		return store.Run{}, err
	}
	defer ctxRows.Close()

	for ctxRows.Next() {
		var (
			pos  int
			text string
		)
		if err := ctxRows.Scan(&pos, &text); err != nil {
			return store.Run{}, err
		}
		if pos < 0 || pos >= len(r.Terms) {
			continue
		}
		r.Terms[pos].Contexts = append(r.Terms[pos].Contexts, text)
	}
	return r, ctxRows.Err()
}

// ListRuns returns run summaries, newest first.
func (s *sqliteStore) ListRuns(ctx context.Context) ([]store.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT r.id, r.source, r.created_at, r.max_chunk_size, r.min_frequency, r.chunks,
	COUNT(t.term), COALESCE(SUM(t.selected), 0)
FROM runs r
LEFT JOIN terms t ON t.run_id = r.id
GROUP BY r.id
ORDER BY r.created_at DESC, r.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.Summary
	for rows.Next() {
		var (
			sum     store.Summary
			created string
		)
		if err := rows.Scan(&sum.ID, &sum.Source, &created, &sum.MaxChunkSize, &sum.MinFrequency, &sum.Chunks, &sum.Terms, &sum.Selected); err != nil {
			return nil, err
		}
		if sum.CreatedAt, err = time.Parse(timeLayout, created); err != nil {
			return nil, fmt.Errorf("run %s: bad created_at %q: %w", sum.ID, created, err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// SetSelected updates one term's review flag.
func (s *sqliteStore) SetSelected(ctx context.Context, id, normalized string, selected bool) error {
	res, err := s.db.ExecContext(ctx, `UPDATE terms SET selected=? WHERE run_id=? AND term=?`, boolToInt(selected), id, normalized)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}

	var exists int
	err = s.db.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	if err != nil {
		return err
	}
	return fmt.Errorf("term %q: %w", normalized, internalerr.ErrNotFound)
}

// DeleteRun removes a run; terms and contexts go with it.
func (s *sqliteStore) DeleteRun(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id=?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
