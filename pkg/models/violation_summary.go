package models

// TypeMismatchEntry is the condensed form of a TypeViolation.
type TypeMismatchEntry struct {
	Column   string  `json:"column"`
	Expected string  `json:"expected"`
	Found    TypeTag `json:"found"`
}

// DataQualityIssueEntry is the condensed form of a DataQualityViolation.
type DataQualityIssueEntry struct {
	Column   string       `json:"column"`
	Check    QualityCheck `json:"check"`
	Count    int          `json:"count"`
	Severity Severity     `json:"severity"`
}

// ViolationSummary is the compact projection handed to the narrative service.
type ViolationSummary struct {
	TypeMismatchSummary     []TypeMismatchEntry     `json:"type_mismatch_summary"`
	DataQualityIssueSummary []DataQualityIssueEntry `json:"data_quality_issue_summary"`
}

// SeverityCounts tallies data-quality issues by severity. Type mismatches count
// as high severity since they block loading.
func (s ViolationSummary) SeverityCounts() (high, medium, low int) {
	high = len(s.TypeMismatchSummary)
	for _, e := range s.DataQualityIssueSummary {
		switch e.Severity {
		case SeverityHigh:
			high++
		case SeverityMedium:
			medium++
		case SeverityLow:
			low++
		}
	}
	return high, medium, low
}
