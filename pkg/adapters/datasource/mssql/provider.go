package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb"         // SQL Server driver
	_ "github.com/microsoft/go-mssqldb/azuread" // Azure AD driver "azuresql"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
	"github.com/ekaya-inc/ekaya-validator/pkg/retry"
	sqlutil "github.com/ekaya-inc/ekaya-validator/pkg/sql"
)

// Provider reads table definitions from SQL Server catalog views.
type Provider struct {
	config *Config
	db     *sql.DB
	logger *zap.Logger
}

var _ datasource.SchemaProvider = (*Provider)(nil)

// NewProvider opens a connection and verifies it with a ping. Transient
// connect failures are retried.
func NewProvider(ctx context.Context, cfg *Config, logger *zap.Logger) (*Provider, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	driver, dsn, err := driverFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s connection: %w", cfg.AuthMethod, err)
	}

	logger = logger.Named("mssql")

	err = retry.Do(ctx, retry.DefaultConnectConfig(), func() error {
		return db.PingContext(ctx)
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("connection test failed: %w", err)
	}

	logger.Debug("Connected",
		zap.String("host", cfg.Host),
		zap.String("database", cfg.Database),
		zap.String("auth_method", cfg.AuthMethod))

	return NewProviderWithDB(cfg, db, logger), nil
}

// NewProviderWithDB wraps an open database handle. Close closes it.
func NewProviderWithDB(cfg *Config, db *sql.DB, logger *zap.Logger) *Provider {
	if cfg.Schema == "" {
		cfg.Schema = DefaultSchema()
	}
	return &Provider{config: cfg, db: db, logger: logger}
}

func (p *Provider) objectName(table string) (string, error) {
	schema, name := datasource.SplitQualifiedName(table, p.config.Schema)
	if err := sqlutil.ValidateIdentifier("schema", schema); err != nil {
		return "", err
	}
	if err := sqlutil.ValidateIdentifier("table", name); err != nil {
		return "", err
	}
	return buildFullyQualifiedName(schema, name), nil
}

const columnsQuery = `
SELECT c.name,
       t.name,
       c.max_length,
       c.precision,
       c.scale,
       c.is_nullable,
       CAST(CASE WHEN EXISTS (
           SELECT 1
           FROM sys.index_columns ic
           JOIN sys.indexes i ON i.object_id = ic.object_id AND i.index_id = ic.index_id
           WHERE i.is_primary_key = 1
             AND ic.object_id = c.object_id
             AND ic.column_id = c.column_id
       ) THEN 1 ELSE 0 END AS bit)
FROM sys.columns c
JOIN sys.types t ON t.user_type_id = c.user_type_id
WHERE c.object_id = OBJECT_ID(@p1, N'U')
ORDER BY c.column_id`

// GetSchema returns the table's columns in ordinal order.
func (p *Provider) GetSchema(ctx context.Context, table string) (*models.TableSchema, error) {
	object, err := p.objectName(table)
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, columnsQuery, object)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s: %w", table, err)
	}
	defer rows.Close()

	schema := &models.TableSchema{TableName: table}
	for rows.Next() {
		var (
			name, typeName         string
			maxLength              int16
			precision, scale       uint8
			nullable, isPrimaryKey bool
		)
		if err := rows.Scan(&name, &typeName, &maxLength, &precision, &scale, &nullable, &isPrimaryKey); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		schema.Columns.Set(name, models.ColumnDefinition{
			Type:       renderType(typeName, int(maxLength), int(precision), int(scale)),
			Nullable:   nullable,
			PrimaryKey: isPrimaryKey,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	if schema.Columns.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSchemaNotFound, table)
	}
	return schema, nil
}

const checkConstraintsQuery = `
SELECT cc.name, cc.definition
FROM sys.check_constraints cc
WHERE cc.parent_object_id = OBJECT_ID(@p1, N'U')
ORDER BY cc.name`

// ListCheckConstraints returns CHECK definitions with the parentheses SQL
// Server adds removed: "([quantity]>(0))" becomes "[quantity]>0".
func (p *Provider) ListCheckConstraints(ctx context.Context, table string) ([]models.CheckConstraint, error) {
	object, err := p.objectName(table)
	if err != nil {
		return nil, err
	}

	rows, err := p.db.QueryContext(ctx, checkConstraintsQuery, object)
	if err != nil {
		return nil, fmt.Errorf("query check constraints for %s: %w", table, err)
	}
	defer rows.Close()

	checks := []models.CheckConstraint{}
	for rows.Next() {
		var c models.CheckConstraint
		if err := rows.Scan(&c.Name, &c.SQLText); err != nil {
			return nil, fmt.Errorf("scan check constraint: %w", err)
		}
		c.SQLText = sqlutil.NormalizeCheckText(c.SQLText)
		checks = append(checks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check constraints: %w", err)
	}
	return checks, nil
}

const listTablesQuery = `
SELECT t.name, c.name
FROM sys.tables t
JOIN sys.schemas s ON s.schema_id = t.schema_id
JOIN sys.columns c ON c.object_id = t.object_id
WHERE s.name = @p1
  AND t.is_ms_shipped = 0
ORDER BY t.name, c.column_id`

// ListTables returns every user table in the configured schema with its
// column names in ordinal order.
func (p *Provider) ListTables(ctx context.Context) (map[string][]string, error) {
	rows, err := p.db.QueryContext(ctx, listTablesQuery, p.config.Schema)
	if err != nil {
		return nil, fmt.Errorf("list tables: %w", err)
	}
	defer rows.Close()

	tables := make(map[string][]string)
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("scan table column: %w", err)
		}
		tables[table] = append(tables[table], column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}
	return tables, nil
}

// Close closes the database handle.
func (p *Provider) Close() error {
	if p.db == nil {
		return nil
	}
	return p.db.Close()
}
