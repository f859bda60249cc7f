package models

// ============================================================================
// Violation Enums
// ============================================================================

// Severity ranks how serious a data-quality violation is.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// QualityCheck identifies which data-quality rule produced a violation.
type QualityCheck string

const (
	CheckNotNull         QualityCheck = "not_null_violation"
	CheckPrimaryKey      QualityCheck = "primary_key_violation"
	CheckCheckConstraint QualityCheck = "check_constraint_violation"
)

// ValidQualityChecks contains all quality check identifiers.
var ValidQualityChecks = []QualityCheck{
	CheckNotNull,
	CheckPrimaryKey,
	CheckCheckConstraint,
}

// ============================================================================
// Violation Records
// ============================================================================

// TypeViolation records a column whose inferred file type is incompatible with
// the declared database type.
type TypeViolation struct {
	Column              string   `json:"column"`
	ExpectedDBType      string   `json:"expected_db_type"`
	FoundFileType       TypeTag  `json:"found_file_type"`
	SampleInvalidValues []string `json:"sample_invalid_values"`
}

// DataQualityViolation records a failed not-null, primary-key or CHECK rule.
// Only the fields relevant to Check are populated.
type DataQualityViolation struct {
	Column   string       `json:"column"`
	Check    QualityCheck `json:"check"`
	Severity Severity     `json:"severity"`

	// not_null_violation and check_constraint_violation
	Count                     int   `json:"count,omitempty"`
	AffectedRowsSampleIndices []int `json:"affected_rows_sample_indices,omitempty"`

	// primary_key_violation
	DistinctKeysDuplicated int      `json:"distinct_keys_duplicated,omitempty"`
	TotalDuplicateRecords  int      `json:"total_duplicate_records,omitempty"`
	SampleDuplicateValues  []string `json:"sample_duplicate_values,omitempty"`

	// check_constraint_violation
	ConstraintName        string   `json:"constraint_name,omitempty"`
	SQLText               string   `json:"sqltext,omitempty"`
	SampleViolatingValues []string `json:"sample_violating_values,omitempty"`

	Details string `json:"details"`
}

// AffectedCount returns the number of records a violation covers. Primary key
// violations count every record that shares a duplicated key.
func (v DataQualityViolation) AffectedCount() int {
	if v.Check == CheckPrimaryKey {
		return v.TotalDuplicateRecords
	}
	return v.Count
}
