package services

import (
	"github.com/ekaya-inc/ekaya-validator/pkg/dataset"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

type testColumn struct {
	name string
	def  models.ColumnDefinition
}

func newTableSchema(name string, cols []testColumn, checks ...models.CheckConstraint) *models.TableSchema {
	t := &models.TableSchema{
		TableName:        name,
		Columns:          *models.NewOrderedMap[models.ColumnDefinition](len(cols)),
		CheckConstraints: checks,
	}
	for _, c := range cols {
		t.Columns.Set(c.name, c.def)
	}
	return t
}

// singleColumn builds a one-column dataset from values.
func singleColumn(name string, values ...any) *dataset.Dataset {
	rows := make([][]any, len(values))
	for i, v := range values {
		rows[i] = []any{v}
	}
	return dataset.New([]string{name}, rows)
}
