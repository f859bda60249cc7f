package services

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/dataset"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

// CompatibilityTable maps each canonical type tag to the SQL base types that
// accept it.
type CompatibilityTable map[models.TypeTag][]string

// DefaultCompatibilityTable returns the fixed mapping used by validation runs.
func DefaultCompatibilityTable() CompatibilityTable {
	return CompatibilityTable{
		models.TypeInteger:  {"INTEGER", "INT"},
		models.TypeFloating: {"REAL", "FLOAT", "NUMERIC", "DOUBLE"},
		models.TypeTextual:  {"TEXT", "VARCHAR", "CHAR", "DATE", "DATETIME", "TIMESTAMP", "STRING"},
		models.TypeTemporal: {"DATE", "DATETIME", "TIMESTAMP"},
		models.TypeBoolean:  {"BOOLEAN", "BOOL"},
	}
}

// ExtendedCompatibilityTable adds the spellings PostgreSQL, SQL Server and
// SQLite catalogs report for common types.
func ExtendedCompatibilityTable() CompatibilityTable {
	t := DefaultCompatibilityTable()
	t[models.TypeInteger] = append(t[models.TypeInteger], "BIGINT", "SMALLINT", "TINYINT", "INT2", "INT4", "INT8", "SERIAL", "BIGSERIAL")
	t[models.TypeFloating] = append(t[models.TypeFloating], "DECIMAL", "DOUBLE PRECISION", "FLOAT4", "FLOAT8", "MONEY")
	t[models.TypeTextual] = append(t[models.TypeTextual], "CHARACTER VARYING", "CHARACTER", "NVARCHAR", "NCHAR", "NTEXT", "UUID", "UNIQUEIDENTIFIER",
		"TIMESTAMP WITHOUT TIME ZONE", "TIMESTAMP WITH TIME ZONE", "TIMESTAMPTZ", "DATETIME2", "DATETIMEOFFSET", "SMALLDATETIME")
	t[models.TypeTemporal] = append(t[models.TypeTemporal], "TIMESTAMP WITHOUT TIME ZONE", "TIMESTAMP WITH TIME ZONE", "TIMESTAMPTZ", "DATETIME2", "DATETIMEOFFSET", "SMALLDATETIME")
	t[models.TypeBoolean] = append(t[models.TypeBoolean], "BIT")
	return t
}

// CompatibilityTableNamed returns the table registered under name. An empty
// name selects the default table.
func CompatibilityTableNamed(name string) (CompatibilityTable, error) {
	switch name {
	case "", "default":
		return DefaultCompatibilityTable(), nil
	case "extended":
		return ExtendedCompatibilityTable(), nil
	}
	return nil, fmt.Errorf("unknown compatibility table %q", name)
}

// BaseType strips type parameters and upper-cases: "varchar(255)" → "VARCHAR".
func BaseType(declared string) string {
	if i := strings.Index(declared, "("); i >= 0 {
		declared = declared[:i]
	}
	return strings.ToUpper(strings.TrimSpace(declared))
}

// ExpectedTag returns the category a SQL base type expects. When a base type
// appears under several tags the non-textual one wins.
func (c CompatibilityTable) ExpectedTag(base string) (models.TypeTag, bool) {
	var expected models.TypeTag
	found := false
	for _, tag := range models.ValidTypeTags {
		for _, sqlType := range c[tag] {
			if sqlType != base {
				continue
			}
			if !found || tag != models.TypeTextual {
				expected = tag
				found = true
			}
		}
	}
	return expected, found
}

// IsTemporalBase reports whether the SQL base type stores dates or times.
func (c CompatibilityTable) IsTemporalBase(base string) bool {
	for _, sqlType := range c[models.TypeTemporal] {
		if sqlType == base {
			return true
		}
	}
	return false
}

// TypeCheckResult holds type violations plus warnings about skipped columns.
type TypeCheckResult struct {
	Violations []models.TypeViolation
	Warnings   []string
}

// TypeCompatibilityService flags columns whose inferred type disagrees with
// the declared column type.
type TypeCompatibilityService interface {
	// Check compares every table column present in the renamed dataset.
	// schema must be the profile of ds.
	Check(ds *dataset.Dataset, schema *models.Schema, table *models.TableSchema) TypeCheckResult
}

type typeCompatibilityService struct {
	table  CompatibilityTable
	logger *zap.Logger
}

// NewTypeCompatibilityService creates a TypeCompatibilityService using table.
func NewTypeCompatibilityService(table CompatibilityTable, logger *zap.Logger) TypeCompatibilityService {
	if table == nil {
		table = DefaultCompatibilityTable()
	}
	return &typeCompatibilityService{
		table:  table,
		logger: logger.Named("type-compatibility"),
	}
}

var _ TypeCompatibilityService = (*typeCompatibilityService)(nil)

func (s *typeCompatibilityService) Check(ds *dataset.Dataset, schema *models.Schema, table *models.TableSchema) TypeCheckResult {
	result := TypeCheckResult{Violations: []models.TypeViolation{}}

	for _, column := range table.ColumnNames() {
		positions := ds.Indexes(column)
		if len(positions) == 0 {
			continue
		}
		if len(positions) > 1 {
			msg := fmt.Sprintf("Duplicate column name '%s' after mapping; skipping type validation for this column.", column)
			s.logger.Warn("Duplicate column after mapping, skipping type check", zap.String("column", column))
			result.Warnings = append(result.Warnings, msg)
			continue
		}

		def, _ := table.Columns.Get(column)
		base := BaseType(def.Type)
		expected, known := s.table.ExpectedTag(base)
		if !known {
			s.logger.Warn("DB type not in compatibility table, skipping strict type check",
				zap.String("column", column),
				zap.String("db_type", base))
			continue
		}

		values := ds.Column(positions[0])
		var found models.TypeTag
		if profile, ok := schema.Columns.Get(column); ok {
			found = profile.InferredType
		} else {
			found = InferTypeTag(values)
		}

		if found == expected {
			continue
		}
		if s.table.IsTemporalBase(base) && found == models.TypeTextual {
			continue
		}

		result.Violations = append(result.Violations, models.TypeViolation{
			Column:              column,
			ExpectedDBType:      base,
			FoundFileType:       found,
			SampleInvalidValues: sampleInvalidValues(values, expected, found),
		})
	}

	s.logger.Info("Data type validation complete", zap.Int("mismatches", len(result.Violations)))
	return result
}

// sampleInvalidValues picks up to five distinct offending values.
func sampleInvalidValues(values []any, expected, found models.TypeTag) []string {
	var accept func(v any) bool
	switch {
	case expected == models.TypeInteger && found == models.TypeTextual:
		accept = func(v any) bool {
			return !dataset.IsNumeric(v) || dataset.HasFraction(v)
		}
	case expected == models.TypeFloating && found == models.TypeTextual:
		accept = func(v any) bool {
			return !dataset.IsNumeric(v)
		}
	default:
		accept = func(any) bool { return true }
	}

	samples := make([]string, 0, models.MaxSampleValues)
	seen := make(map[string]struct{})
	for _, v := range values {
		if v == nil {
			continue
		}
		key := dataset.CellKey(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if !accept(v) {
			continue
		}
		samples = append(samples, dataset.FormatValue(v))
		if len(samples) >= models.MaxSampleValues {
			break
		}
	}
	return samples
}
