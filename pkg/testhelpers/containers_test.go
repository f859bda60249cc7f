//go:build integration

package testhelpers

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestTestDB_FixtureTables(t *testing.T) {
	testDB := GetTestDB(t)
	ctx := context.Background()

	var tableCount int
	err := testDB.Pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = 'public' AND table_name IN ('customers', 'orders')").
		Scan(&tableCount)
	require.NoError(t, err)
	assert.Equal(t, 2, tableCount)
}

func TestRunMigrations_Idempotent(t *testing.T) {
	testDB := GetTestDB(t)

	sqlDB, err := sql.Open("pgx", testDB.ConnStr)
	require.NoError(t, err)
	defer sqlDB.Close()

	assert.NoError(t, RunMigrations(sqlDB, FixtureMigrations(), "migrations", zap.NewNop()))
}
