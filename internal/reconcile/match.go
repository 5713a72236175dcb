package reconcile

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/cdr-reconcile/internal/model"
	"github.com/sells-group/cdr-reconcile/internal/stage"
)

// match runs the Matcher's greedy 1-to-1 selection (spec.md §4.5) over
// store's candidate cursor, which the staging store orders by (|Δtime|
// asc, |Δduration| asc, a.id asc, b.id asc). The cursor is consumed
// lazily; greedy acceptance is inherently order-dependent and MUST NOT
// be parallelized (spec.md §5).
//
// A candidate whose a_number and b_number both normalized to "" is not
// special-cased: it is accepted or skipped exactly like any other
// candidate (spec.md §9 Open Questions #1).
func match(ctx context.Context, store *stage.Store, toleranceSeconds int64) ([]model.MatchPair, error) {
	rows, err := store.CandidateCursor(ctx, toleranceSeconds)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: open candidate cursor")
	}
	defer rows.Close() //nolint:errcheck

	usedA := make(map[int64]bool)
	usedB := make(map[int64]bool)
	var pairs []model.MatchPair
	var aIDs, bIDs []int64

	for rows.Next() {
		c, err := stage.ScanCandidate(rows)
		if err != nil {
			return nil, eris.Wrap(err, "reconcile: scan candidate")
		}
		if usedA[c.AID] || usedB[c.BID] {
			continue
		}

		rateA, err := decimal.NewFromString(c.RateA)
		if err != nil {
			return nil, eris.Wrap(err, "reconcile: parse staged rate a")
		}
		rateB, err := decimal.NewFromString(c.RateB)
		if err != nil {
			return nil, eris.Wrap(err, "reconcile: parse staged rate b")
		}

		usedA[c.AID] = true
		usedB[c.BID] = true
		aIDs = append(aIDs, c.AID)
		bIDs = append(bIDs, c.BID)

		pairs = append(pairs, model.MatchPair{
			AID: c.AID, BID: c.BID,
			ANumber: c.ANumber, BNumber: c.BNumber,
			SeizeA: nullInt64Ptr(c.SeizeA), SeizeB: nullInt64Ptr(c.SeizeB),
			DurationA: c.DurationA, DurationB: c.DurationB,
			RateA: rateA, RateB: rateB,
			LRNA: c.LRNA, LRNB: c.LRNB,
			IndexA: c.IndexA, IndexB: c.IndexB,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "reconcile: iterate candidates")
	}

	if err := store.RecordMatches(ctx, aIDs, bIDs); err != nil {
		return nil, eris.Wrap(err, "reconcile: record matches")
	}

	return pairs, nil
}
