// Package model holds the data types shared across the reconciliation
// engine: the canonical row schema staged per side, the discrepancy and
// summary shapes the engine returns, and the job input/output contract.
package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// CanonicalRow is one call record after normalization, as staged into
// either records_a or records_b. Optional fields use a pointer so "the
// source value was empty or unparseable" is distinguishable from a
// genuine zero.
type CanonicalRow struct {
	ID         int64  `json:"id"`
	ANumber    string `json:"a_number"`
	BNumber    string `json:"b_number"`
	SeizeTime  *int64 `json:"seize_time,omitempty"`
	AnswerTime *int64 `json:"answer_time,omitempty"`
	EndTime    *int64 `json:"end_time,omitempty"`
	// BilledDuration is clamped to 0 at ingest per the Canonical Row
	// invariant even though normalize_duration itself may return a
	// negative value.
	BilledDuration int64           `json:"billed_duration"`
	Rate           decimal.Decimal `json:"rate"`
	LRN            string          `json:"lrn"`
	RawIndex       int64           `json:"raw_index"`
}

// Side identifies which of the two independently produced CDR streams a
// row or discrepancy field belongs to.
type Side int

const (
	SideA Side = iota
	SideB
)

func (s Side) String() string {
	if s == SideA {
		return "a"
	}
	return "b"
}

// MarshalJSON renders the side as "a" or "b" rather than its underlying int.
func (s Side) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// MatchPair is the matcher's output shape: a surviving candidate with both
// sides' fields carried alongside, referenced until classification
// completes and then discarded.
type MatchPair struct {
	AID       int64  `json:"a_id"`
	BID       int64  `json:"b_id"`
	ANumber   string `json:"a_number"`
	BNumber   string `json:"b_number"`
	SeizeA    *int64 `json:"seize_a,omitempty"`
	SeizeB    *int64 `json:"seize_b,omitempty"`
	DurationA int64  `json:"duration_a"`
	DurationB int64  `json:"duration_b"`

	RateA, RateB decimal.Decimal `json:"-"`

	LRNA string `json:"lrn_a"`
	LRNB string `json:"lrn_b"`

	IndexA int64 `json:"index_a"`
	IndexB int64 `json:"index_b"`
}
