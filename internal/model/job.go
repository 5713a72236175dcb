package model

// CanonicalField names a field of CanonicalRow that a caller's column
// mapping may target. Only these names are legal keys in a Mapping.
type CanonicalField string

const (
	FieldANumber        CanonicalField = "a_number"
	FieldBNumber        CanonicalField = "b_number"
	FieldSeizeTime       CanonicalField = "seize_time"
	FieldAnswerTime      CanonicalField = "answer_time"
	FieldEndTime         CanonicalField = "end_time"
	FieldBilledDuration  CanonicalField = "billed_duration"
	FieldRate            CanonicalField = "rate"
	FieldLRN             CanonicalField = "lrn"
)

// RequiredFields are the canonical fields every mapping must supply a
// source column for; rate's absence is legal and means "treat as 0".
var RequiredFields = []CanonicalField{
	FieldANumber, FieldBNumber, FieldSeizeTime, FieldBilledDuration, FieldLRN,
}

// Mapping is a caller-supplied mapping from canonical field to the source
// column name that carries it.
type Mapping map[CanonicalField]string

// JobInput is the engine's single entry point's argument, per spec.md §6.1.
type JobInput struct {
	FileAPath         string  `json:"file_a_path"`
	FileADeclaredName string  `json:"file_a_declared_name"`
	FileBPath         string  `json:"file_b_path"`
	FileBDeclaredName string  `json:"file_b_declared_name"`
	MappingA          Mapping `json:"mapping_a"`
	MappingB          Mapping `json:"mapping_b"`
}

// JobOutput is the engine's successful result, per spec.md §6.1.
type JobOutput struct {
	JobID                 string        `json:"job_id"`
	Summary               Summary       `json:"summary"`
	Discrepancies         []Discrepancy `json:"discrepancies"`
	HasMore               bool          `json:"has_more"`
	TotalDiscrepancyCount int64         `json:"total_discrepancy_count"`
}
