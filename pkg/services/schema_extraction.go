package services

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-validator/pkg/dataset"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

// SchemaExtractionService profiles tabular data into a Schema.
// Both methods always return a Schema; failures are reported through Schema.Error.
type SchemaExtractionService interface {
	// Extract profiles an in-memory dataset. Entirely empty rows are ignored.
	Extract(ds *dataset.Dataset, sourceName string, sheetName *string) *models.Schema

	// ExtractFromFile loads path (one sheet for workbooks) and profiles it.
	ExtractFromFile(path, sheetName string) *models.Schema
}

type schemaExtractionService struct {
	logger *zap.Logger
}

// NewSchemaExtractionService creates a new SchemaExtractionService.
func NewSchemaExtractionService(logger *zap.Logger) SchemaExtractionService {
	return &schemaExtractionService{
		logger: logger.Named("schema-extraction"),
	}
}

var _ SchemaExtractionService = (*schemaExtractionService)(nil)

func (s *schemaExtractionService) ExtractFromFile(path, sheetName string) *models.Schema {
	sourceName := filepath.Base(path)
	sheet := sheetPointer(dataset.NormalizeSheet(sheetName))

	ds, err := dataset.Open(path, sheetName)
	if err != nil {
		s.logger.Error("Failed to load dataset",
			zap.String("file", sourceName),
			zap.Error(err))
		return errorSchema(sourceName, sheet, fmt.Errorf("%w: %v", apperrors.ErrExtraction, err))
	}
	return s.Extract(ds, sourceName, sheet)
}

func (s *schemaExtractionService) Extract(ds *dataset.Dataset, sourceName string, sheetName *string) (schema *models.Schema) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Schema extraction panicked",
				zap.String("file", sourceName),
				zap.Any("panic", r))
			schema = errorSchema(sourceName, sheetName, fmt.Errorf("%w: %v", apperrors.ErrExtraction, r))
		}
	}()

	if ds == nil {
		return errorSchema(sourceName, sheetName, fmt.Errorf("%w: no data", apperrors.ErrExtraction))
	}

	ds = ds.DropEmptyRows()
	schema = &models.Schema{
		SourceName: sourceName,
		SheetName:  sheetName,
		TotalRows:  ds.NumRows(),
		Columns:    *models.NewOrderedMap[models.ColumnProfile](ds.NumColumns()),
	}
	if ds.NumRows() == 0 {
		s.logger.Info("Dataset is empty", zap.String("file", sourceName))
		return schema
	}

	for i, name := range ds.Columns {
		schema.Columns.Set(name, ProfileColumn(ds.Column(i)))
	}
	schema.TotalColumns = schema.Columns.Len()

	s.logger.Debug("Extracted schema",
		zap.String("file", sourceName),
		zap.Int("rows", schema.TotalRows),
		zap.Int("columns", schema.TotalColumns))
	return schema
}

// ProfileColumn computes the type tag, samples and null count of one column.
func ProfileColumn(values []any) models.ColumnProfile {
	profile := models.ColumnProfile{
		InferredType: InferTypeTag(values),
		SampleValues: make([]any, 0, models.MaxSampleValues),
	}

	seen := make(map[string]struct{}, models.MaxSampleValues)
	for _, v := range values {
		if v == nil {
			profile.NullCount++
			continue
		}
		if len(profile.SampleValues) >= models.MaxSampleValues {
			continue
		}
		key := dataset.CellKey(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if t, ok := v.(time.Time); ok {
			profile.SampleValues = append(profile.SampleValues, dataset.FormatTemporal(t))
		} else {
			profile.SampleValues = append(profile.SampleValues, v)
		}
	}
	return profile
}

// InferTypeTag maps the runtime kinds of a column's non-null values to a
// canonical tag. Mixed kinds and all-null columns are textual.
func InferTypeTag(values []any) models.TypeTag {
	var ints, floats, bools, times, others, present int
	for _, v := range values {
		if v == nil {
			continue
		}
		present++
		switch v.(type) {
		case int64, int:
			ints++
		case float64:
			floats++
		case bool:
			bools++
		case time.Time:
			times++
		default:
			others++
		}
	}

	switch {
	case present == 0 || others > 0:
		return models.TypeTextual
	case ints == present:
		return models.TypeInteger
	case ints+floats == present:
		return models.TypeFloating
	case bools == present:
		return models.TypeBoolean
	case times == present:
		return models.TypeTemporal
	default:
		return models.TypeTextual
	}
}

func errorSchema(sourceName string, sheetName *string, err error) *models.Schema {
	return &models.Schema{
		SourceName: sourceName,
		SheetName:  sheetName,
		Columns:    *models.NewOrderedMap[models.ColumnProfile](0),
		Error:      err.Error(),
	}
}

func sheetPointer(sheet string) *string {
	if sheet == "" {
		return nil
	}
	return &sheet
}
