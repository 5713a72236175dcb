package model

import "github.com/shopspring/decimal"

// Summary is the aggregate totals described in spec.md §4.8, computed by
// the staging store's SQL aggregates plus the bounded collector's running
// counts. One value per job.
type Summary struct {
	TotalRecordsA  int64 `json:"total_records_a"`
	TotalRecordsB  int64 `json:"total_records_b"`
	MatchedRecords int64 `json:"matched_records"`

	YourTotalBilled     decimal.Decimal `json:"your_total_billed"`
	ProviderTotalBilled decimal.Decimal `json:"provider_total_billed"`
	YourTotalMinutes    decimal.Decimal `json:"your_total_minutes"`
	ProviderTotalMinutes decimal.Decimal `json:"provider_total_minutes"`
	BillingDifference   decimal.Decimal `json:"billing_difference"`
	MinutesDifference   decimal.Decimal `json:"minutes_difference"`

	MissingInYours    int64 `json:"missing_in_yours"`
	MissingInProvider int64 `json:"missing_in_provider"`

	ZeroDurationInYours      int64 `json:"zero_duration_in_yours"`
	BilledMissingInYours     int64 `json:"billed_missing_in_yours"`
	ZeroDurationInProvider   int64 `json:"zero_duration_in_provider"`
	BilledMissingInProvider  int64 `json:"billed_missing_in_provider"`

	DurationMismatches  int64 `json:"duration_mismatches"`
	RateMismatches      int64 `json:"rate_mismatches"`
	CostMismatches      int64 `json:"cost_mismatches"`
	LRNMismatches       int64 `json:"lrn_mismatches"`
	TotalDiscrepancies  int64 `json:"total_discrepancies"`

	MonetaryImpact  decimal.Decimal                    `json:"monetary_impact"`
	ImpactBreakdown map[DiscrepancyType]decimal.Decimal `json:"impact_breakdown"`

	HungCallsYours        int64 `json:"hung_calls_yours"`
	HungCallGroupsYours   int64 `json:"hung_call_groups_yours"`
	HungCallsProvider     int64 `json:"hung_calls_provider"`
	HungCallGroupsProvider int64 `json:"hung_call_groups_provider"`
}
