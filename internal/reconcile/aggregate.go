package reconcile

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"

	"github.com/sells-group/cdr-reconcile/internal/model"
	"github.com/sells-group/cdr-reconcile/internal/stage"
)

var sixty = decimal.NewFromInt(60)

// buildSummary computes spec.md §4.8's aggregate totals entirely from
// the staging store's SQL aggregates plus the bounded collector's
// running counts — never by re-summing the collector's retained sample.
func buildSummary(ctx context.Context, store *stage.Store, matchedRecords int64, hungA, hungB hungCallSummary, c *collector) (model.Summary, error) {
	var s model.Summary
	s.MatchedRecords = matchedRecords

	var err error
	if s.TotalRecordsA, err = store.CountRows(ctx, model.SideA); err != nil {
		return s, eris.Wrap(err, "reconcile: total records a")
	}
	if s.TotalRecordsB, err = store.CountRows(ctx, model.SideB); err != nil {
		return s, eris.Wrap(err, "reconcile: total records b")
	}

	yourCostF, yourSecondsF, err := store.BilledTotals(ctx, model.SideA)
	if err != nil {
		return s, eris.Wrap(err, "reconcile: billed totals a")
	}
	providerCostF, providerSecondsF, err := store.BilledTotals(ctx, model.SideB)
	if err != nil {
		return s, eris.Wrap(err, "reconcile: billed totals b")
	}

	s.YourTotalBilled = round2(decimal.NewFromFloat(yourCostF))
	s.ProviderTotalBilled = round2(decimal.NewFromFloat(providerCostF))
	s.YourTotalMinutes = round2(decimal.NewFromFloat(yourSecondsF).Div(sixty))
	s.ProviderTotalMinutes = round2(decimal.NewFromFloat(providerSecondsF).Div(sixty))
	s.BillingDifference = round2(s.YourTotalBilled.Sub(s.ProviderTotalBilled))
	s.MinutesDifference = round2(s.YourTotalMinutes.Sub(s.ProviderTotalMinutes))

	if s.ZeroDurationInYours, err = store.CountUnmatchedByZeroDuration(ctx, model.SideA, true); err != nil {
		return s, eris.Wrap(err, "reconcile: zero duration in yours")
	}
	if s.BilledMissingInYours, err = store.CountUnmatchedByZeroDuration(ctx, model.SideA, false); err != nil {
		return s, eris.Wrap(err, "reconcile: billed missing in yours")
	}
	if s.ZeroDurationInProvider, err = store.CountUnmatchedByZeroDuration(ctx, model.SideB, true); err != nil {
		return s, eris.Wrap(err, "reconcile: zero duration in provider")
	}
	if s.BilledMissingInProvider, err = store.CountUnmatchedByZeroDuration(ctx, model.SideB, false); err != nil {
		return s, eris.Wrap(err, "reconcile: billed missing in provider")
	}
	s.MissingInYours = s.ZeroDurationInYours + s.BilledMissingInYours
	s.MissingInProvider = s.ZeroDurationInProvider + s.BilledMissingInProvider

	s.DurationMismatches = c.count(model.DurationMismatch)
	s.RateMismatches = c.count(model.RateMismatch)
	s.CostMismatches = c.count(model.CostMismatch)
	s.LRNMismatches = c.count(model.LRNMismatch)
	s.TotalDiscrepancies = c.totalCount()

	s.ImpactBreakdown = make(map[model.DiscrepancyType]decimal.Decimal)
	rawTotal := decimal.Zero
	for t := model.MissingInA; t <= model.HungCallProvider; t++ {
		raw := c.sum(t)
		s.ImpactBreakdown[t] = round2(raw)
		rawTotal = rawTotal.Add(raw)
	}
	s.MonetaryImpact = round2(rawTotal)

	s.HungCallsYours, s.HungCallGroupsYours = hungA.Calls, hungA.Groups
	s.HungCallsProvider, s.HungCallGroupsProvider = hungB.Calls, hungB.Groups

	return s, nil
}
