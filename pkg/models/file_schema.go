package models

// TypeTag is the engine's canonical type vocabulary for dataset columns,
// independent of any dataframe or database type names.
type TypeTag string

const (
	TypeInteger  TypeTag = "integer"
	TypeFloating TypeTag = "floating"
	TypeTextual  TypeTag = "textual"
	TypeTemporal TypeTag = "temporal"
	TypeBoolean  TypeTag = "boolean"
)

// ValidTypeTags contains all canonical type tags.
var ValidTypeTags = []TypeTag{
	TypeInteger,
	TypeFloating,
	TypeTextual,
	TypeTemporal,
	TypeBoolean,
}

// IsValidTypeTag checks if the given tag is one of the canonical tags.
func IsValidTypeTag(t TypeTag) bool {
	for _, v := range ValidTypeTags {
		if v == t {
			return true
		}
	}
	return false
}

// MaxSampleValues caps every sample list the engine produces.
const MaxSampleValues = 5

// CSVSheetPlaceholder is reported as the only "sheet" of a CSV file.
const CSVSheetPlaceholder = "csv_data"

// ColumnProfile describes one column of an extracted dataset.
type ColumnProfile struct {
	InferredType TypeTag `json:"inferred_type"`
	SampleValues []any   `json:"sample_values"` // ≤5 distinct non-null values, temporal rendered as ISO-8601
	NullCount    int     `json:"null_count"`
}

// ColumnProfiles maps column name to profile in file column order.
type ColumnProfiles = OrderedMap[ColumnProfile]

// Schema describes a tabular dataset or one spreadsheet sheet.
// Callers must check Error before trusting the other fields.
type Schema struct {
	SourceName   string         `json:"source_name"`
	SheetName    *string        `json:"sheet_name"`
	TotalRows    int            `json:"total_rows"`
	TotalColumns int            `json:"total_columns"`
	Columns      ColumnProfiles `json:"columns"`
	Error        string         `json:"error,omitempty"`
}

// Failed reports whether extraction failed.
func (s *Schema) Failed() bool {
	return s == nil || s.Error != ""
}

// Usable reports whether the schema can feed comparison and validation.
func (s *Schema) Usable() bool {
	return !s.Failed() && s.Columns.Len() > 0
}

// ColumnNames returns the column names in file order.
func (s *Schema) ColumnNames() []string {
	if s == nil {
		return nil
	}
	return s.Columns.Keys()
}
