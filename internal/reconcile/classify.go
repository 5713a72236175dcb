package reconcile

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/cdr-reconcile/internal/model"
	"github.com/sells-group/cdr-reconcile/internal/stage"
)

// costThreshold and durationEpsilonSeconds are the classifier's
// equality tolerances for "matched but differs" (spec.md §4.6).
var costThreshold = decimal.RequireFromString("0.0001")

const durationEpsilonSeconds = 1

// classifyMatched emits one discrepancy per matched pair that differs,
// per spec.md §4.6. A pair with no LRN mismatch and a cost delta within
// threshold emits nothing — a perfect match produces zero discrepancies.
//
// An LRN mismatch on both sides non-empty and differing supersedes any
// cost-based classification, even when the cost delta also exceeds
// threshold: the pair is reported once, as lrn_mismatch, never also as a
// cost variant.
func classifyMatched(pairs []model.MatchPair) []model.Discrepancy {
	out := make([]model.Discrepancy, 0, len(pairs))
	for _, p := range pairs {
		yourCost := callCost(p.DurationA, p.RateA)
		providerCost := callCost(p.DurationB, p.RateB)
		costDiff := yourCost.Sub(providerCost)

		d := model.Discrepancy{
			ANumber:          p.ANumber,
			BNumber:          p.BNumber,
			SeizeTime:        p.SeizeA,
			YourDuration:     ptrInt64(p.DurationA),
			ProviderDuration: ptrInt64(p.DurationB),
			YourRate:         ptrDecimal(p.RateA),
			ProviderRate:     ptrDecimal(p.RateB),
			YourCost:         ptrDecimal(round2(yourCost)),
			ProviderCost:     ptrDecimal(round2(providerCost)),
			CostDifference:   round4(costDiff),
			SourceIndexA:     ptrInt64(p.IndexA),
			SourceIndexB:     ptrInt64(p.IndexB),
		}
		if d.SeizeTime == nil {
			d.SeizeTime = p.SeizeB
		}

		if p.LRNA != "" && p.LRNB != "" && p.LRNA != p.LRNB {
			d.Type = model.LRNMismatch
			lrnA, lrnB := p.LRNA, p.LRNB
			d.YourLRN, d.ProviderLRN = &lrnA, &lrnB
			out = append(out, d)
			continue
		}

		if costDiff.Abs().LessThanOrEqual(costThreshold) {
			continue
		}

		durDiff := absInt64(p.DurationA - p.DurationB)
		rateDiff := p.RateA.Sub(p.RateB).Abs()
		switch {
		case durDiff > durationEpsilonSeconds && rateDiff.LessThanOrEqual(costThreshold):
			d.Type = model.DurationMismatch
		case rateDiff.GreaterThan(costThreshold) && durDiff <= durationEpsilonSeconds:
			d.Type = model.RateMismatch
		default:
			d.Type = model.CostMismatch
		}
		out = append(out, d)
	}
	return out
}

// classifyUnmatched streams side's unmatched rows via anti-join and
// emits one discrepancy per row: missing_in_b/zero_duration_in_b for an
// unmatched A row, missing_in_a/zero_duration_in_a for an unmatched B
// row, oriented per spec.md §4.6.
func classifyUnmatched(ctx context.Context, store *stage.Store, side model.Side) ([]model.Discrepancy, error) {
	rows, err := store.UnmatchedCursor(ctx, side)
	if err != nil {
		return nil, eris.Wrap(err, "reconcile: open unmatched cursor")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Discrepancy
	for rows.Next() {
		_, aNumber, bNumber, seize, _, _, duration, rateStr, lrn, rawIndex, err := stage.ScanUnmatchedRow(rows)
		if err != nil {
			return nil, eris.Wrap(err, "reconcile: scan unmatched row")
		}
		rate, err := decimal.NewFromString(rateStr)
		if err != nil {
			return nil, eris.Wrap(err, "reconcile: parse staged rate")
		}
		rawCost := callCost(duration, rate)
		cost := round2(rawCost)

		var lrnPtr *string
		if lrn != "" {
			l := lrn
			lrnPtr = &l
		}

		d := model.Discrepancy{
			ANumber:     aNumber,
			BNumber:     bNumber,
			SeizeTime:   nullInt64Ptr(seize),
			SourceIndex: ptrInt64(rawIndex),
		}

		if side == model.SideA {
			d.YourDuration, d.YourRate, d.YourCost, d.YourLRN = ptrInt64(duration), ptrDecimal(rate), ptrDecimal(cost), lrnPtr
			d.CostDifference = round4(rawCost)
			if duration == 0 {
				d.Type = model.ZeroDurationInB
			} else {
				d.Type = model.MissingInB
			}
		} else {
			d.ProviderDuration, d.ProviderRate, d.ProviderCost, d.ProviderLRN = ptrInt64(duration), ptrDecimal(rate), ptrDecimal(cost), lrnPtr
			d.CostDifference = round4(rawCost.Neg())
			if duration == 0 {
				d.Type = model.ZeroDurationInA
			} else {
				d.Type = model.MissingInA
			}
		}
		out = append(out, d)
	}
	return out, eris.Wrap(rows.Err(), "reconcile: iterate unmatched rows")
}
