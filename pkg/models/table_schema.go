package models

// ColumnDefinition is a target table column as reported by the schema provider.
type ColumnDefinition struct {
	Type       string `json:"type"` // SQL type, possibly parameterized ("VARCHAR(255)")
	Nullable   bool   `json:"nullable"`
	PrimaryKey bool   `json:"primary_key"`
}

// CheckConstraint is a named CHECK constraint with its raw predicate text.
type CheckConstraint struct {
	Name    string `json:"name"`
	SQLText string `json:"sqltext"`
}

// TableColumns maps column name to definition in ordinal order.
type TableColumns = OrderedMap[ColumnDefinition]

// TableSchema is the externally supplied description of a target table.
type TableSchema struct {
	TableName        string            `json:"table_name"`
	Columns          TableColumns      `json:"columns"`
	CheckConstraints []CheckConstraint `json:"check_constraints"`
}

// ColumnNames returns the table's column names in ordinal order.
func (t *TableSchema) ColumnNames() []string {
	if t == nil {
		return nil
	}
	return t.Columns.Keys()
}

// ComparisonResult is the exact-name difference between a file schema and a table.
// Both lists are sorted and disjoint by construction.
type ComparisonResult struct {
	MissingInFile []string `json:"missing_in_file"` // table columns absent from the file
	ExtraInFile   []string `json:"extra_in_file"`   // file columns absent from the table
}
