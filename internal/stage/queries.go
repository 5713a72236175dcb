package stage

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"

	"github.com/sells-group/cdr-reconcile/internal/model"
)

// Candidate is one row of the matcher's candidate cursor: a same-number
// pair within the time tolerance, already carrying every field a
// model.MatchPair needs so the matcher never has to re-query per pair.
type Candidate struct {
	AID, BID             int64
	ANumber, BNumber     string
	SeizeA, SeizeB       sql.NullInt64
	DurationA, DurationB int64
	RateA, RateB         string
	LRNA, LRNB           string
	IndexA, IndexB       int64
}

// CandidateCursor opens the matcher's candidate stream: every (a, b) pair
// sharing a_number/b_number whose seize times lie within toleranceSeconds,
// ordered (|Δtime| asc, |Δduration| asc, a.id asc, b.id asc) per spec.md
// §4.5 and the deterministic tie-break documented in SPEC_FULL.md. The
// returned rows MUST be consumed with Next/Scan — never fully buffered —
// since the cross product under equal numbers can dwarf either input.
func (s *Store) CandidateCursor(ctx context.Context, toleranceSeconds int64) (*sql.Rows, error) {
	const query = `
SELECT
	a.id, b.id, a.a_number, a.b_number,
	a.seize_time, b.seize_time, a.billed_duration, b.billed_duration,
	a.rate, b.rate, a.lrn, b.lrn, a.raw_index, b.raw_index
FROM records_a a
JOIN records_b b
	ON a.a_number = b.a_number AND a.b_number = b.b_number
	AND ABS(COALESCE(a.seize_time, 0) - COALESCE(b.seize_time, 0)) <= ?
ORDER BY
	ABS(COALESCE(a.seize_time, 0) - COALESCE(b.seize_time, 0)) ASC,
	ABS(a.billed_duration - b.billed_duration) ASC,
	a.id ASC, b.id ASC
`
	rows, err := s.db.QueryContext(ctx, query, toleranceSeconds)
	return rows, eris.Wrap(err, "stage: open candidate cursor")
}

// ScanCandidate scans one row of a CandidateCursor result set.
func ScanCandidate(rows *sql.Rows) (Candidate, error) {
	var c Candidate
	err := rows.Scan(
		&c.AID, &c.BID, &c.ANumber, &c.BNumber,
		&c.SeizeA, &c.SeizeB, &c.DurationA, &c.DurationB,
		&c.RateA, &c.RateB, &c.LRNA, &c.LRNB, &c.IndexA, &c.IndexB,
	)
	return c, eris.Wrap(err, "stage: scan candidate")
}

// RecordMatches bulk-inserts the accepted ids from one greedy-selection
// pass into the matched_a_ids/matched_b_ids tables that drive every
// downstream anti-join.
func (s *Store) RecordMatches(ctx context.Context, aIDs, bIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "stage: begin record-matches transaction")
	}

	if err := bulkInsertIDs(ctx, tx, "matched_a_ids", aIDs); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}
	if err := bulkInsertIDs(ctx, tx, "matched_b_ids", bIDs); err != nil {
		tx.Rollback() //nolint:errcheck
		return err
	}

	return eris.Wrap(tx.Commit(), "stage: commit record-matches")
}

func bulkInsertIDs(ctx context.Context, tx *sql.Tx, table string, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO `+table+` (id) VALUES (?)`)
	if err != nil {
		return eris.Wrapf(err, "stage: prepare insert into %s", table)
	}
	defer stmt.Close() //nolint:errcheck

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return eris.Wrapf(err, "stage: insert into %s", table)
		}
	}
	return nil
}

// UnmatchedCursor streams every row on side that was not selected by the
// matcher, via anti-join against the matched id table, per spec.md §4.4's
// "unmatched records are streamed back via anti-join".
func (s *Store) UnmatchedCursor(ctx context.Context, side model.Side) (*sql.Rows, error) {
	table := tableFor(side)
	matchedTable := "matched_a_ids"
	if side == model.SideB {
		matchedTable = "matched_b_ids"
	}

	query := `
SELECT r.id, r.a_number, r.b_number, r.seize_time, r.answer_time, r.end_time,
	r.billed_duration, r.rate, r.lrn, r.raw_index
FROM ` + table + ` r
LEFT JOIN ` + matchedTable + ` m ON r.id = m.id
WHERE m.id IS NULL
`
	rows, err := s.db.QueryContext(ctx, query)
	return rows, eris.Wrap(err, "stage: open unmatched cursor")
}

// ScanUnmatchedRow scans one row of an UnmatchedCursor result set into a
// CanonicalRow; rate is parsed from its staged decimal-string form by the
// caller (the stage package does not depend on shopspring/decimal parsing
// rules beyond storing/retrieving the string).
func ScanUnmatchedRow(rows *sql.Rows) (id int64, aNumber, bNumber string, seize, answer, end sql.NullInt64, duration int64, rate, lrn string, rawIndex int64, err error) {
	err = rows.Scan(&id, &aNumber, &bNumber, &seize, &answer, &end, &duration, &rate, &lrn, &rawIndex)
	err = eris.Wrap(err, "stage: scan unmatched row")
	return
}

// CountUnmatched returns the anti-join row count for side, zero-duration
// and billed rows together. The summary aggregator does not call it; it
// adds up the two CountUnmatchedByZeroDuration counts instead.
func (s *Store) CountUnmatched(ctx context.Context, side model.Side) (int64, error) {
	table := tableFor(side)
	matchedTable := "matched_a_ids"
	if side == model.SideB {
		matchedTable = "matched_b_ids"
	}
	var n int64
	row := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM `+table+` r
LEFT JOIN `+matchedTable+` m ON r.id = m.id
WHERE m.id IS NULL
`)
	return n, eris.Wrap(row.Scan(&n), "stage: count unmatched")
}

// CountUnmatchedByZeroDuration splits an unmatched-row count by whether
// billed_duration is zero, for the summary aggregator's
// zero_duration_in_* / billed_missing_in_* breakdown.
func (s *Store) CountUnmatchedByZeroDuration(ctx context.Context, side model.Side, zero bool) (int64, error) {
	table := tableFor(side)
	matchedTable := "matched_a_ids"
	if side == model.SideB {
		matchedTable = "matched_b_ids"
	}
	cmp := "r.billed_duration > 0"
	if zero {
		cmp = "r.billed_duration = 0"
	}
	var n int64
	row := s.db.QueryRowContext(ctx, `
SELECT COUNT(*) FROM `+table+` r
LEFT JOIN `+matchedTable+` m ON r.id = m.id
WHERE m.id IS NULL AND `+cmp)
	return n, eris.Wrap(row.Scan(&n), "stage: count unmatched by duration")
}

// BilledTotals computes SUM(call_cost(duration, rate)) and SUM(duration)
// for side using the SQL-equivalent billing expression of spec.md §4.3:
// ((d + 5) / 6) * r / 10.0, integer division on (d + 5).
func (s *Store) BilledTotals(ctx context.Context, side model.Side) (totalCost, totalSeconds float64, err error) {
	table := tableFor(side)
	row := s.db.QueryRowContext(ctx, `
SELECT
	COALESCE(SUM(CASE WHEN billed_duration > 0 THEN ((billed_duration + 5) / 6) * CAST(rate AS REAL) / 10.0 ELSE 0 END), 0),
	COALESCE(SUM(billed_duration), 0)
FROM `+table)
	err = eris.Wrap(row.Scan(&totalCost, &totalSeconds), "stage: billed totals")
	return
}

// HungCallGroup is one duration value held by three or more unmatched
// rows with duration > 30s, per spec.md §4.7.
type HungCallGroup struct {
	Duration int64
	Count    int64
}

// HungCallGroups returns the duration values on side's unmatched set that
// qualify as hung-call groups.
func (s *Store) HungCallGroups(ctx context.Context, side model.Side) ([]HungCallGroup, error) {
	table := tableFor(side)
	matchedTable := "matched_a_ids"
	if side == model.SideB {
		matchedTable = "matched_b_ids"
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT r.billed_duration, COUNT(*) AS cnt
FROM `+table+` r
LEFT JOIN `+matchedTable+` m ON r.id = m.id
WHERE m.id IS NULL AND r.billed_duration > 30
GROUP BY r.billed_duration
HAVING COUNT(*) >= 3
`)
	if err != nil {
		return nil, eris.Wrap(err, "stage: hung call groups")
	}
	defer rows.Close() //nolint:errcheck

	var groups []HungCallGroup
	for rows.Next() {
		var g HungCallGroup
		if err := rows.Scan(&g.Duration, &g.Count); err != nil {
			return nil, eris.Wrap(err, "stage: scan hung call group")
		}
		groups = append(groups, g)
	}
	return groups, eris.Wrap(rows.Err(), "stage: iterate hung call groups")
}

// HungCallExemplars streams the unmatched rows on side whose duration is
// one of the given hung-call durations, ordered by rate*duration
// descending so the caller can take the top 200 exemplars (spec.md §4.7).
func (s *Store) HungCallExemplars(ctx context.Context, side model.Side, durations []int64) (*sql.Rows, error) {
	if len(durations) == 0 {
		return nil, nil
	}
	table := tableFor(side)
	matchedTable := "matched_a_ids"
	if side == model.SideB {
		matchedTable = "matched_b_ids"
	}

	placeholders := make([]any, len(durations))
	query := `
SELECT r.id, r.a_number, r.b_number, r.seize_time, r.answer_time, r.end_time,
	r.billed_duration, r.rate, r.lrn, r.raw_index
FROM ` + table + ` r
LEFT JOIN ` + matchedTable + ` m ON r.id = m.id
WHERE m.id IS NULL AND r.billed_duration IN (`
	for i, d := range durations {
		if i > 0 {
			query += ","
		}
		query += "?"
		placeholders[i] = d
	}
	query += `)
ORDER BY CAST(r.rate AS REAL) * r.billed_duration DESC
`
	rows, err := s.db.QueryContext(ctx, query, placeholders...)
	return rows, eris.Wrap(err, "stage: hung call exemplars")
}
