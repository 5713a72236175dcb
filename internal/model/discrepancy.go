package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// DiscrepancyType enumerates the kinds of findings the classifier and
// hung-call detector emit. Order matches the collector's final sort order
// (spec.md §4.9), declared here so both packages share one source of
// truth for ranking.
type DiscrepancyType int

const (
	MissingInA DiscrepancyType = iota
	LRNMismatch
	DurationMismatch
	RateMismatch
	CostMismatch
	MissingInB
	ZeroDurationInA
	ZeroDurationInB
	HungCallYours
	HungCallProvider
)

var discrepancyTypeNames = [...]string{
	"missing_in_a",
	"lrn_mismatch",
	"duration_mismatch",
	"rate_mismatch",
	"cost_mismatch",
	"missing_in_b",
	"zero_duration_in_a",
	"zero_duration_in_b",
	"hung_call_yours",
	"hung_call_provider",
}

func (t DiscrepancyType) String() string {
	if int(t) < 0 || int(t) >= len(discrepancyTypeNames) {
		return "unknown"
	}
	return discrepancyTypeNames[t]
}

// MarshalJSON renders the type by its string name rather than its
// underlying int, so "type" reads as "lrn_mismatch" instead of "1".
func (t DiscrepancyType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// MarshalText renders the same name as MarshalJSON and lets
// DiscrepancyType serialize by name when used as a map key, as in
// Summary.ImpactBreakdown.
func (t DiscrepancyType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// SortRank is the discrepancy type's position in the collector's final
// type ordering; equal to the enum's own value today, kept distinct so a
// future reordering of the constants doesn't silently change output order.
func (t DiscrepancyType) SortRank() int {
	return int(t)
}

// Discrepancy is one finding surfaced by the classifier or hung-call
// detector, per spec.md §3. Optional fields use pointers; decimal fields
// use the zero value of decimal.Decimal to mean "not applicable" alongside
// a nil pointer for the ones that can be entirely absent.
type Discrepancy struct {
	Type DiscrepancyType `json:"type"`

	ANumber   string `json:"a_number"`
	BNumber   string `json:"b_number"`
	SeizeTime *int64 `json:"seize_time,omitempty"`

	YourDuration     *int64 `json:"your_duration,omitempty"`
	ProviderDuration *int64 `json:"provider_duration,omitempty"`
	YourRate         *decimal.Decimal `json:"your_rate,omitempty"`
	ProviderRate     *decimal.Decimal `json:"provider_rate,omitempty"`
	YourCost         *decimal.Decimal `json:"your_cost,omitempty"`
	ProviderCost     *decimal.Decimal `json:"provider_cost,omitempty"`

	CostDifference decimal.Decimal `json:"cost_difference"`

	YourLRN     *string `json:"your_lrn,omitempty"`
	ProviderLRN *string `json:"provider_lrn,omitempty"`

	SourceIndex  *int64 `json:"source_index,omitempty"`
	SourceIndexA *int64 `json:"source_index_a,omitempty"`
	SourceIndexB *int64 `json:"source_index_b,omitempty"`

	HungCallCount *int `json:"hung_call_count,omitempty"`
}
