package reconcile

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/cdr-reconcile/internal/model"
	"github.com/sells-group/cdr-reconcile/internal/stage"
)

// hungCallExemplarCap bounds the number of hung-call discrepancies
// surfaced per side, per spec.md §4.7.
const hungCallExemplarCap = 200

// hungCallSummary is the §4.7 per-side aggregate: total unmatched rows
// held in qualifying clusters, and the number of distinct durations that
// qualify.
type hungCallSummary struct {
	Calls  int64
	Groups int64
}

// detectHungCalls groups side's unmatched rows by billed_duration (SQL
// GROUP BY ... HAVING COUNT(*) >= 3 on duration > 30s, per spec.md §4.7),
// then emits up to hungCallExemplarCap exemplar discrepancies, already
// ordered by the store's rate*duration descending query.
func detectHungCalls(ctx context.Context, store *stage.Store, side model.Side) (hungCallSummary, []model.Discrepancy, error) {
	groups, err := store.HungCallGroups(ctx, side)
	if err != nil {
		return hungCallSummary{}, nil, eris.Wrap(err, "reconcile: hung call groups")
	}
	if len(groups) == 0 {
		return hungCallSummary{}, nil, nil
	}

	summary := hungCallSummary{Groups: int64(len(groups))}
	groupSize := make(map[int64]int64, len(groups))
	durations := make([]int64, 0, len(groups))
	for _, g := range groups {
		summary.Calls += g.Count
		groupSize[g.Duration] = g.Count
		durations = append(durations, g.Duration)
	}

	rows, err := store.HungCallExemplars(ctx, side, durations)
	if err != nil {
		return hungCallSummary{}, nil, eris.Wrap(err, "reconcile: hung call exemplars")
	}
	defer rows.Close() //nolint:errcheck

	discrepancyType := model.HungCallYours
	if side == model.SideB {
		discrepancyType = model.HungCallProvider
	}

	var exemplars []model.Discrepancy
	for rows.Next() && len(exemplars) < hungCallExemplarCap {
		_, aNumber, bNumber, seize, _, _, duration, rateStr, lrn, rawIndex, err := stage.ScanUnmatchedRow(rows)
		if err != nil {
			return hungCallSummary{}, nil, eris.Wrap(err, "reconcile: scan hung call exemplar")
		}
		rate, err := decimal.NewFromString(rateStr)
		if err != nil {
			return hungCallSummary{}, nil, eris.Wrap(err, "reconcile: parse staged rate")
		}
		count := int(groupSize[duration])
		rawCost := callCost(duration, rate)
		cost := round2(rawCost)

		d := model.Discrepancy{
			Type:          discrepancyType,
			ANumber:       aNumber,
			BNumber:       bNumber,
			SeizeTime:     nullInt64Ptr(seize),
			SourceIndex:   ptrInt64(rawIndex),
			HungCallCount: &count,
		}

		var lrnPtr *string
		if lrn != "" {
			l := lrn
			lrnPtr = &l
		}

		if side == model.SideA {
			d.YourDuration, d.YourRate, d.YourCost, d.YourLRN = ptrInt64(duration), ptrDecimal(rate), ptrDecimal(cost), lrnPtr
			d.CostDifference = round4(rawCost)
		} else {
			d.ProviderDuration, d.ProviderRate, d.ProviderCost, d.ProviderLRN = ptrInt64(duration), ptrDecimal(rate), ptrDecimal(cost), lrnPtr
			d.CostDifference = round4(rawCost.Neg())
		}
		exemplars = append(exemplars, d)
	}
	if err := rows.Err(); err != nil {
		return hungCallSummary{}, nil, eris.Wrap(err, "reconcile: iterate hung call exemplars")
	}

	return summary, exemplars, nil
}
