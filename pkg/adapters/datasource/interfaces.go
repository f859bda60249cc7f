package datasource

import (
	"context"

	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

// SchemaProvider describes target tables for validation runs.
// Each implementation owns its connection and must be closed when done.
type SchemaProvider interface {
	// GetSchema returns the table's columns in ordinal order. CheckConstraints
	// is left empty; use ListCheckConstraints. A missing table returns an
	// error wrapping apperrors.ErrSchemaNotFound.
	GetSchema(ctx context.Context, table string) (*models.TableSchema, error)

	// ListCheckConstraints returns the table's CHECK constraints with the
	// CHECK keyword and wrapping parentheses removed.
	ListCheckConstraints(ctx context.Context, table string) ([]models.CheckConstraint, error)

	// ListTables maps every user table to its column names.
	ListTables(ctx context.Context) (map[string][]string, error)

	// Close releases the database connection.
	Close() error
}

// LoadTableSchema fetches a table's columns and CHECK constraints in one call.
func LoadTableSchema(ctx context.Context, p SchemaProvider, table string) (*models.TableSchema, error) {
	schema, err := p.GetSchema(ctx, table)
	if err != nil {
		return nil, err
	}
	checks, err := p.ListCheckConstraints(ctx, table)
	if err != nil {
		return nil, err
	}
	if checks == nil {
		checks = []models.CheckConstraint{}
	}
	schema.CheckConstraints = checks
	return schema, nil
}
