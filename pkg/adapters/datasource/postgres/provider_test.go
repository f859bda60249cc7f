//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-validator/pkg/testhelpers"
)

func setupProvider(t *testing.T) *Provider {
	t.Helper()

	testDB := testhelpers.GetTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	provider, err := NewProvider(ctx, &Config{
		Host:     testDB.Host,
		Port:     testDB.Port,
		User:     testDB.User,
		Password: testDB.Password,
		Database: testDB.Database,
		SSLMode:  "disable",
	}, zap.NewNop())
	require.NoError(t, err)

	t.Cleanup(func() {
		provider.Close()
	})
	return provider
}

func TestProvider_GetSchema(t *testing.T) {
	p := setupProvider(t)

	schema, err := p.GetSchema(context.Background(), "orders")
	require.NoError(t, err)

	assert.Equal(t, "orders", schema.TableName)
	assert.Equal(t, []string{"order_id", "customer_id", "quantity", "unit_price", "status", "ordered_at"}, schema.ColumnNames())

	orderID, _ := schema.Columns.Get("order_id")
	assert.Equal(t, "INTEGER", orderID.Type)
	assert.True(t, orderID.PrimaryKey)
	assert.False(t, orderID.Nullable)

	price, _ := schema.Columns.Get("unit_price")
	assert.Equal(t, "NUMERIC(10,2)", price.Type)
	assert.True(t, price.Nullable)
	assert.False(t, price.PrimaryKey)

	status, _ := schema.Columns.Get("status")
	assert.Equal(t, "CHARACTER VARYING(20)", status.Type)
}

func TestProvider_GetSchema_NotFound(t *testing.T) {
	p := setupProvider(t)

	_, err := p.GetSchema(context.Background(), "no_such_table")
	assert.ErrorIs(t, err, apperrors.ErrSchemaNotFound)
}

func TestProvider_GetSchema_RejectsUnsafeName(t *testing.T) {
	p := setupProvider(t)

	_, err := p.GetSchema(context.Background(), "orders; DROP TABLE orders")
	assert.ErrorIs(t, err, apperrors.ErrUnsafeIdentifier)
}

func TestProvider_ListCheckConstraints(t *testing.T) {
	p := setupProvider(t)

	checks, err := p.ListCheckConstraints(context.Background(), "public.orders")
	require.NoError(t, err)
	require.Len(t, checks, 2)

	assert.Equal(t, "orders_price_range", checks[0].Name)
	assert.Equal(t, "orders_quantity_positive", checks[1].Name)
	assert.Equal(t, "quantity > 0", checks[1].SQLText)
}

func TestProvider_LoadTableSchema(t *testing.T) {
	p := setupProvider(t)

	schema, err := datasource.LoadTableSchema(context.Background(), p, "customers")
	require.NoError(t, err)

	assert.Equal(t, 4, schema.Columns.Len())
	assert.NotNil(t, schema.CheckConstraints)
	assert.Empty(t, schema.CheckConstraints)
}

func TestProvider_ListTables(t *testing.T) {
	p := setupProvider(t)

	tables, err := p.ListTables(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"customer_id", "customer_name", "email", "created_at"}, tables["customers"])
	assert.Contains(t, tables, "orders")
}
