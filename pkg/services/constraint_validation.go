package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/dataset"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
	"github.com/ekaya-inc/ekaya-validator/pkg/sql"
)

// QualityCheckResult holds data-quality violations plus warnings about
// skipped columns.
type QualityCheckResult struct {
	Violations []models.DataQualityViolation
	Warnings   []string
}

// ConstraintValidationService evaluates nullability, primary-key uniqueness
// and simple CHECK constraints against a renamed dataset.
type ConstraintValidationService interface {
	// Validate checks every table column present exactly once in ds. Row
	// indices in the result are file positions (ds.SourceRow).
	Validate(ds *dataset.Dataset, table *models.TableSchema) QualityCheckResult
}

type constraintValidationService struct {
	logger *zap.Logger
}

// NewConstraintValidationService creates a new ConstraintValidationService.
func NewConstraintValidationService(logger *zap.Logger) ConstraintValidationService {
	return &constraintValidationService{
		logger: logger.Named("constraint-validation"),
	}
}

var _ ConstraintValidationService = (*constraintValidationService)(nil)

func (s *constraintValidationService) Validate(ds *dataset.Dataset, table *models.TableSchema) QualityCheckResult {
	result := QualityCheckResult{Violations: []models.DataQualityViolation{}}

	for _, column := range table.ColumnNames() {
		positions := ds.Indexes(column)
		if len(positions) == 0 {
			continue
		}
		if len(positions) > 1 {
			msg := fmt.Sprintf("Duplicate column name '%s' after mapping; skipping data quality checks for this column.", column)
			s.logger.Warn("Duplicate column after mapping, skipping data quality checks", zap.String("column", column))
			result.Warnings = append(result.Warnings, msg)
			continue
		}

		def, _ := table.Columns.Get(column)
		values := ds.Column(positions[0])

		if !def.Nullable {
			if v := checkNotNull(column, def.Type, values, ds.SourceRow); v != nil {
				result.Violations = append(result.Violations, *v)
			}
		}
		if def.PrimaryKey {
			if v := checkPrimaryKey(column, values); v != nil {
				result.Violations = append(result.Violations, *v)
			}
		}
		result.Violations = append(result.Violations, s.checkConstraints(column, values, table.CheckConstraints, ds.SourceRow)...)
	}

	s.logger.Info("Data quality checks complete", zap.Int("violations", len(result.Violations)))
	return result
}

// checkNotNull counts nulls, plus empty strings when the declared type is not
// a character type. sourceRow maps a value's position to its file row.
func checkNotNull(column, declaredType string, values []any, sourceRow func(int) int) *models.DataQualityViolation {
	upper := strings.ToUpper(declaredType)
	emptyIsNull := !strings.Contains(upper, "CHAR") && !strings.Contains(upper, "TEXT") && !strings.Contains(upper, "STRING")

	count := 0
	indices := make([]int, 0, models.MaxSampleValues)
	for i, v := range values {
		isNull := v == nil
		if !isNull && emptyIsNull {
			if str, ok := v.(string); ok && str == "" {
				isNull = true
			}
		}
		if !isNull {
			continue
		}
		count++
		if len(indices) < models.MaxSampleValues {
			indices = append(indices, sourceRow(i))
		}
	}
	if count == 0 {
		return nil
	}

	return &models.DataQualityViolation{
		Column:                    column,
		Check:                     models.CheckNotNull,
		Severity:                  models.SeverityHigh,
		Count:                     count,
		AffectedRowsSampleIndices: indices,
		Details:                   fmt.Sprintf("Column is non-nullable but contains %d nulls (or empty strings treated as nulls for non-string columns).", count),
	}
}

// checkPrimaryKey reports keys that occur more than once, ignoring null and
// empty keys.
func checkPrimaryKey(column string, values []any) *models.DataQualityViolation {
	type keyStats struct {
		value any
		count int
	}
	stats := make(map[string]*keyStats)
	var order []string
	for _, v := range values {
		if v == nil {
			continue
		}
		if str, ok := v.(string); ok && str == "" {
			continue
		}
		key := dataset.CellKey(v)
		if st, ok := stats[key]; ok {
			st.count++
			continue
		}
		stats[key] = &keyStats{value: v, count: 1}
		order = append(order, key)
	}

	distinct, total := 0, 0
	samples := make([]string, 0, models.MaxSampleValues)
	for _, key := range order {
		st := stats[key]
		if st.count < 2 {
			continue
		}
		distinct++
		total += st.count
		if len(samples) < models.MaxSampleValues {
			samples = append(samples, dataset.FormatValue(st.value))
		}
	}
	if distinct == 0 {
		return nil
	}

	return &models.DataQualityViolation{
		Column:                 column,
		Check:                  models.CheckPrimaryKey,
		Severity:               models.SeverityHigh,
		DistinctKeysDuplicated: distinct,
		TotalDuplicateRecords:  total,
		SampleDuplicateValues:  samples,
		Details:                fmt.Sprintf("Primary key column contains duplicates for %d unique key(s), affecting %d records total.", distinct, total),
	}
}

// checkConstraints evaluates the CHECK constraints that mention column.
func (s *constraintValidationService) checkConstraints(column string, values []any, constraints []models.CheckConstraint, sourceRow func(int) int) []models.DataQualityViolation {
	var applicable []models.CheckConstraint
	for _, c := range constraints {
		if strings.Contains(c.SQLText, column) {
			applicable = append(applicable, c)
		}
	}
	if len(applicable) == 0 {
		return nil
	}

	numeric := make([]*decimal.Decimal, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		d, ok := dataset.ParseDecimal(v)
		if !ok {
			s.logger.Info("Skipping CHECK constraints for column with non-numeric values",
				zap.String("column", column))
			return nil
		}
		numeric[i] = &d
	}

	var out []models.DataQualityViolation
	for _, c := range applicable {
		sqltext := strings.TrimSpace(c.SQLText)
		pred, err := sql.ParseCheckConstraint(column, sqltext)
		if err != nil {
			if !errors.Is(err, sql.ErrUnsupportedConstraint) {
				s.logger.Warn("Could not parse CHECK constraint", zap.String("column", column), zap.Error(err))
			}
			s.logger.Info("Skipping CHECK constraint that does not match a simple numeric comparison",
				zap.String("column", column),
				zap.String("constraint", c.Name),
				zap.String("sqltext", sqltext))
			continue
		}

		count := 0
		indices := make([]int, 0, models.MaxSampleValues)
		samples := make([]string, 0, models.MaxSampleValues)
		for i, d := range numeric {
			if d == nil || !pred.Violates(*d) {
				continue
			}
			count++
			if len(indices) < models.MaxSampleValues {
				indices = append(indices, sourceRow(i))
				samples = append(samples, dataset.FormatValue(values[i]))
			}
		}
		if count == 0 {
			continue
		}

		out = append(out, models.DataQualityViolation{
			Column:                    column,
			Check:                     models.CheckCheckConstraint,
			Severity:                  models.SeverityMedium,
			ConstraintName:            c.Name,
			SQLText:                   sqltext,
			Count:                     count,
			AffectedRowsSampleIndices: indices,
			SampleViolatingValues:     samples,
			Details:                   fmt.Sprintf("%d values violate CHECK constraint '%s'.", count, sqltext),
		})
	}
	return out
}
