package datasource

import (
	"context"
	"fmt"
	"sync"

	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

// MockSchemaProvider serves table schemas from memory. Set the Func fields
// to override behavior in tests.
type MockSchemaProvider struct {
	Tables map[string]*models.TableSchema

	GetSchemaFunc            func(ctx context.Context, table string) (*models.TableSchema, error)
	ListCheckConstraintsFunc func(ctx context.Context, table string) ([]models.CheckConstraint, error)
	ListTablesFunc           func(ctx context.Context) (map[string][]string, error)

	mu                        sync.Mutex
	GetSchemaCalls            int
	ListCheckConstraintsCalls int
	ListTablesCalls           int
	Closed                    bool
}

// NewMockSchemaProvider creates a mock serving the given tables by name.
func NewMockSchemaProvider(tables ...*models.TableSchema) *MockSchemaProvider {
	m := &MockSchemaProvider{Tables: make(map[string]*models.TableSchema)}
	for _, t := range tables {
		m.Tables[t.TableName] = t
	}
	return m
}

// GetSchema implements SchemaProvider. Returned schemas are copies without
// CHECK constraints.
func (m *MockSchemaProvider) GetSchema(ctx context.Context, table string) (*models.TableSchema, error) {
	m.mu.Lock()
	m.GetSchemaCalls++
	m.mu.Unlock()

	if m.GetSchemaFunc != nil {
		return m.GetSchemaFunc(ctx, table)
	}
	t, ok := m.Tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSchemaNotFound, table)
	}
	return &models.TableSchema{
		TableName: t.TableName,
		Columns:   *t.Columns.Clone(),
	}, nil
}

// ListCheckConstraints implements SchemaProvider.
func (m *MockSchemaProvider) ListCheckConstraints(ctx context.Context, table string) ([]models.CheckConstraint, error) {
	m.mu.Lock()
	m.ListCheckConstraintsCalls++
	m.mu.Unlock()

	if m.ListCheckConstraintsFunc != nil {
		return m.ListCheckConstraintsFunc(ctx, table)
	}
	t, ok := m.Tables[table]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSchemaNotFound, table)
	}
	return append([]models.CheckConstraint(nil), t.CheckConstraints...), nil
}

// ListTables implements SchemaProvider.
func (m *MockSchemaProvider) ListTables(ctx context.Context) (map[string][]string, error) {
	m.mu.Lock()
	m.ListTablesCalls++
	m.mu.Unlock()

	if m.ListTablesFunc != nil {
		return m.ListTablesFunc(ctx)
	}
	out := make(map[string][]string, len(m.Tables))
	for name, t := range m.Tables {
		out[name] = t.ColumnNames()
	}
	return out, nil
}

// Close implements SchemaProvider.
func (m *MockSchemaProvider) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}

var _ SchemaProvider = (*MockSchemaProvider)(nil)
