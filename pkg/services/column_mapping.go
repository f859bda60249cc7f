package services

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/dataset"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

// RenameResult is the outcome of applying a NamingMap. Inputs are never mutated.
type RenameResult struct {
	Dataset         *dataset.Dataset
	Schema          *models.Schema
	DuplicateLabels []string // sorted labels that occur more than once after renaming
	Warnings        []string
}

// ColumnMappingService renames file columns to target column names.
type ColumnMappingService interface {
	ApplyNamingMap(ds *dataset.Dataset, schema *models.Schema, naming models.NamingMap) RenameResult
}

type columnMappingService struct {
	logger *zap.Logger
}

// NewColumnMappingService creates a new ColumnMappingService.
func NewColumnMappingService(logger *zap.Logger) ColumnMappingService {
	return &columnMappingService{
		logger: logger.Named("column-mapping"),
	}
}

var _ ColumnMappingService = (*columnMappingService)(nil)

func (s *columnMappingService) ApplyNamingMap(ds *dataset.Dataset, schema *models.Schema, naming models.NamingMap) RenameResult {
	renamed, dups := ds.Rename(naming)

	result := RenameResult{
		Dataset:         renamed,
		DuplicateLabels: dups,
	}
	for _, label := range dups {
		msg := fmt.Sprintf("Multiple file columns map to '%s'; that column is excluded from type and data quality checks.", label)
		s.logger.Warn("Naming map produced duplicate column", zap.String("column", label))
		result.Warnings = append(result.Warnings, msg)
	}

	var renamedSchema models.Schema
	if schema != nil {
		renamedSchema = *schema
	} else {
		schema = &models.Schema{}
	}
	renamedSchema.Columns = *models.NewOrderedMap[models.ColumnProfile](schema.Columns.Len())
	for _, name := range schema.Columns.Keys() {
		profile, _ := schema.Columns.Get(name)
		if target, ok := naming[name]; ok && target != "" {
			name = target
		}
		if renamedSchema.Columns.Has(name) {
			continue
		}
		renamedSchema.Columns.Set(name, profile)
	}
	renamedSchema.TotalColumns = renamedSchema.Columns.Len()
	result.Schema = &renamedSchema

	if len(naming) > 0 {
		s.logger.Debug("Applied naming map",
			zap.Int("mappings", len(naming)),
			zap.Int("duplicates", len(dups)))
	}
	return result
}

// ApplicableNaming returns the pairs of naming whose file column exists in
// file and whose target exists in table, plus the sorted file columns of the
// pairs it left out.
func ApplicableNaming(naming models.NamingMap, file *models.Schema, table *models.TableSchema) (models.NamingMap, []string) {
	out := make(models.NamingMap, len(naming))
	var dropped []string
	for from, to := range naming {
		inFile := file != nil && file.Columns.Has(from)
		inTable := table != nil && table.Columns.Has(to)
		if !inFile || !inTable {
			dropped = append(dropped, from)
			continue
		}
		out[from] = to
	}
	sort.Strings(dropped)
	return out, dropped
}
