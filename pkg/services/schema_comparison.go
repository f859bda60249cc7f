package services

import (
	"sort"

	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

// SchemaComparisonService computes the exact-name difference between a file
// schema and a target table.
type SchemaComparisonService interface {
	Compare(file *models.Schema, table *models.TableSchema) *models.ComparisonResult
}

type schemaComparisonService struct{}

// NewSchemaComparisonService creates a new SchemaComparisonService.
func NewSchemaComparisonService() SchemaComparisonService {
	return &schemaComparisonService{}
}

var _ SchemaComparisonService = (*schemaComparisonService)(nil)

// Compare returns the table columns missing from the file and the file columns
// not in the table, both sorted. A failed or column-less file schema reports
// every table column as missing.
func (s *schemaComparisonService) Compare(file *models.Schema, table *models.TableSchema) *models.ComparisonResult {
	tableCols := table.ColumnNames()
	result := &models.ComparisonResult{
		MissingInFile: []string{},
		ExtraInFile:   []string{},
	}

	if !file.Usable() {
		result.MissingInFile = append(result.MissingInFile, tableCols...)
		sort.Strings(result.MissingInFile)
		return result
	}

	fileSet := make(map[string]struct{}, file.Columns.Len())
	for _, c := range file.ColumnNames() {
		fileSet[c] = struct{}{}
	}
	tableSet := make(map[string]struct{}, len(tableCols))
	for _, c := range tableCols {
		tableSet[c] = struct{}{}
		if _, ok := fileSet[c]; !ok {
			result.MissingInFile = append(result.MissingInFile, c)
		}
	}
	for c := range fileSet {
		if _, ok := tableSet[c]; !ok {
			result.ExtraInFile = append(result.ExtraInFile, c)
		}
	}

	sort.Strings(result.MissingInFile)
	sort.Strings(result.ExtraInFile)
	return result
}
