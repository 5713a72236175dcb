// Package stage implements the reconciliation engine's scratch relational
// store: two tables of canonical rows (records_a, records_b), bulk-insert
// in transactional batches, indexes built after load, and the SQL
// candidate/anti-join/aggregate queries the matcher, classifier, and
// summary aggregator run against it.
package stage

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/cdr-reconcile/internal/model"
	"github.com/sells-group/cdr-reconcile/internal/resilience"
)

// BatchSize is the number of rows committed per insert transaction
// (spec.md §4.4: "Inserts occur in transactions of 10 000 rows").
const BatchSize = 10_000

// Store is the job-scoped scratch database backing one reconciliation
// run. The caller owns its lifecycle: Open it inside the job's scratch
// directory and Close it on every exit path; the underlying file is
// removed with the scratch directory, not by Close.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE records_a (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	a_number        TEXT NOT NULL,
	b_number        TEXT NOT NULL,
	seize_time      INTEGER,
	answer_time     INTEGER,
	end_time        INTEGER,
	billed_duration INTEGER NOT NULL,
	rate            TEXT NOT NULL,
	lrn             TEXT NOT NULL,
	raw_index       INTEGER NOT NULL
);

CREATE TABLE records_b (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	a_number        TEXT NOT NULL,
	b_number        TEXT NOT NULL,
	seize_time      INTEGER,
	answer_time     INTEGER,
	end_time        INTEGER,
	billed_duration INTEGER NOT NULL,
	rate            TEXT NOT NULL,
	lrn             TEXT NOT NULL,
	raw_index       INTEGER NOT NULL
);
`

// indexDDL is applied after bulk load, per spec.md §4.4: "secondary
// indexes created after bulk load".
const indexDDL = `
CREATE INDEX idx_records_a_numbers ON records_a(a_number, b_number);
CREATE INDEX idx_records_b_numbers ON records_b(a_number, b_number);
CREATE INDEX idx_records_a_seize ON records_a(seize_time);
CREATE INDEX idx_records_b_seize ON records_b(seize_time);
`

// matchStateDDL uses ordinary tables, not CREATE TEMP TABLE: TEMP tables
// are connection-local, and the pool backing db hands out more than one
// connection once ingestSides' two InsertBatch loops run concurrently, so
// a TEMP table created on one connection would be invisible to queries
// that land on another. Ordinary tables are visible pool-wide and are
// dropped anyway when the scratch file is removed at job cleanup.
const matchStateDDL = `
CREATE TABLE matched_a_ids (id INTEGER PRIMARY KEY);
CREATE TABLE matched_b_ids (id INTEGER PRIMARY KEY);
`

// Open creates a fresh scratch database at dsn (a job-scoped file path)
// with write-ahead logging and synchronous commit relaxed, per spec.md
// §4.4, and creates the two record tables.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "stage: open scratch database")
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "stage: exec %s", pragma)
		}
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "stage: create schema")
	}

	if _, err := db.ExecContext(ctx, matchStateDDL); err != nil {
		db.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "stage: create match state tables")
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database handle. The scratch file itself
// is removed by the caller's scratch-directory cleanup, not here.
func (s *Store) Close() error {
	return eris.Wrap(s.db.Close(), "stage: close")
}

func tableFor(side model.Side) string {
	if side == model.SideA {
		return "records_a"
	}
	return "records_b"
}

// CreateIndexes builds the secondary indexes described in spec.md §4.4.
// Called once after both sides have finished bulk loading.
func (s *Store) CreateIndexes(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, indexDDL)
	return eris.Wrap(err, "stage: create indexes")
}

// InsertBatch inserts rows into the side's table inside a single
// transaction. Callers are expected to chunk their input into groups of
// at most BatchSize rows. The commit is retried on SQLITE_BUSY/locked
// conditions, since busy_timeout alone does not cover contention from the
// other side's InsertBatch loop, which ingestSides runs concurrently.
func (s *Store) InsertBatch(ctx context.Context, side model.Side, rows []model.CanonicalRow) error {
	if len(rows) == 0 {
		return nil
	}

	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("stage", "insert_batch")

	return resilience.Do(ctx, cfg, func(ctx context.Context) error {
		return s.insertBatchOnce(ctx, side, rows)
	})
}

func (s *Store) insertBatchOnce(ctx context.Context, side model.Side, rows []model.CanonicalRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "stage: begin insert transaction")
	}

	query := `INSERT INTO ` + tableFor(side) + ` (a_number, b_number, seize_time, answer_time, end_time, billed_duration, rate, lrn, raw_index)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback() //nolint:errcheck
		return eris.Wrap(err, "stage: prepare insert statement")
	}
	defer stmt.Close() //nolint:errcheck

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.ANumber, row.BNumber, row.SeizeTime, row.AnswerTime, row.EndTime,
			row.BilledDuration, row.Rate.String(), row.LRN, row.RawIndex,
		)
		if err != nil {
			tx.Rollback() //nolint:errcheck
			if resilience.IsTransient(err) {
				return resilience.NewTransientError(err)
			}
			return eris.Wrap(err, "stage: insert row")
		}
	}

	if err := tx.Commit(); err != nil {
		if resilience.IsTransient(err) {
			return resilience.NewTransientError(err)
		}
		return eris.Wrap(err, "stage: commit insert batch")
	}
	return nil
}

// CountRows returns the total row count for side, used by the summary
// aggregator's total_records_a / total_records_b.
func (s *Store) CountRows(ctx context.Context, side model.Side) (int64, error) {
	var n int64
	row := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+tableFor(side))
	err := row.Scan(&n)
	return n, eris.Wrap(err, "stage: count rows")
}
