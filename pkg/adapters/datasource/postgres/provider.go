package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
	"github.com/ekaya-inc/ekaya-validator/pkg/retry"
	"github.com/ekaya-inc/ekaya-validator/pkg/sql"
)

// Provider reads table definitions from a PostgreSQL catalog.
type Provider struct {
	config *Config
	pool   *pgxpool.Pool
	logger *zap.Logger
}

var _ datasource.SchemaProvider = (*Provider)(nil)

// NewProvider opens a pool and verifies it with a ping. Transient connect
// failures are retried.
func NewProvider(ctx context.Context, cfg *Config, logger *zap.Logger) (*Provider, error) {
	poolCfg, err := pgxpool.ParseConfig(buildConnectionString(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse postgres config: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(cfg.MaxConns)
	}

	logger = logger.Named("postgres")

	pool, err := retry.DoWithResult(ctx, retry.DefaultConnectConfig(), func() (*pgxpool.Pool, error) {
		p, err := pgxpool.NewWithConfig(ctx, poolCfg)
		if err != nil {
			return nil, err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			logger.Debug("Ping failed, retrying", zap.String("host", cfg.Host), zap.Error(err))
			return nil, err
		}
		return p, nil
	})
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return NewProviderWithPool(cfg, pool, logger), nil
}

// NewProviderWithPool wraps an existing pool. Close closes the pool.
func NewProviderWithPool(cfg *Config, pool *pgxpool.Pool, logger *zap.Logger) *Provider {
	if cfg.Schema == "" {
		cfg.Schema = DefaultSchema()
	}
	return &Provider{config: cfg, pool: pool, logger: logger}
}

// regclassName renders table as a quoted, schema-qualified name for to_regclass.
func (p *Provider) regclassName(table string) (string, error) {
	schema, name := datasource.SplitQualifiedName(table, p.config.Schema)
	if err := sql.ValidateIdentifier("schema", schema); err != nil {
		return "", err
	}
	if err := sql.ValidateIdentifier("table", name); err != nil {
		return "", err
	}
	return sql.QuoteIdentifier(schema) + "." + sql.QuoteIdentifier(name), nil
}

const columnsQuery = `
SELECT a.attname,
       upper(format_type(a.atttypid, a.atttypmod)),
       NOT a.attnotnull,
       COALESCE(i.indisprimary, false)
FROM pg_attribute a
LEFT JOIN pg_index i
       ON i.indrelid = a.attrelid
      AND i.indisprimary
      AND a.attnum = ANY(i.indkey)
WHERE a.attrelid = to_regclass($1::text)
  AND a.attnum > 0
  AND NOT a.attisdropped
ORDER BY a.attnum`

// GetSchema returns the table's columns in ordinal order. Types keep their
// length and precision parameters ("CHARACTER VARYING(255)").
func (p *Provider) GetSchema(ctx context.Context, table string) (*models.TableSchema, error) {
	regclass, err := p.regclassName(table)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, columnsQuery, regclass)
	if err != nil {
		return nil, fmt.Errorf("query columns for %s: %w", table, err)
	}
	defer rows.Close()

	schema := &models.TableSchema{TableName: table}
	for rows.Next() {
		var (
			name string
			def  models.ColumnDefinition
		)
		if err := rows.Scan(&name, &def.Type, &def.Nullable, &def.PrimaryKey); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		schema.Columns.Set(name, def)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	if schema.Columns.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSchemaNotFound, table)
	}

	p.logger.Debug("Loaded table schema",
		zap.String("table", table),
		zap.Int("columns", schema.Columns.Len()))
	return schema, nil
}

const checkConstraintsQuery = `
SELECT c.conname, pg_get_constraintdef(c.oid)
FROM pg_constraint c
WHERE c.conrelid = to_regclass($1::text)
  AND c.contype = 'c'
ORDER BY c.conname`

// ListCheckConstraints returns CHECK predicates without the CHECK keyword
// and outer parentheses, as the constraint matcher expects.
func (p *Provider) ListCheckConstraints(ctx context.Context, table string) ([]models.CheckConstraint, error) {
	regclass, err := p.regclassName(table)
	if err != nil {
		return nil, err
	}

	rows, err := p.pool.Query(ctx, checkConstraintsQuery, regclass)
	if err != nil {
		return nil, fmt.Errorf("query check constraints for %s: %w", table, err)
	}
	defer rows.Close()

	checks := []models.CheckConstraint{}
	for rows.Next() {
		var name, def string
		if err := rows.Scan(&name, &def); err != nil {
			return nil, fmt.Errorf("scan check constraint: %w", err)
		}
		checks = append(checks, models.CheckConstraint{
			Name:    name,
			SQLText: sql.StripCheckKeyword(def),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check constraints: %w", err)
	}
	return checks, nil
}

const listTablesQuery = `
SELECT c.table_name, c.column_name
FROM information_schema.columns c
JOIN information_schema.tables t
  ON t.table_schema = c.table_schema
 AND t.table_name = c.table_name
WHERE c.table_schema = $1
  AND t.table_type = 'BASE TABLE'
ORDER BY c.table_name, c.ordinal_position`

// ListTables returns every base table in the configured schema with its
// column names in ordinal order.
func (p *Provider) ListTables(ctx context.Context) (map[string][]string, error) {
	rows, err := p.pool.Query(ctx, listTablesQuery, p.config.Schema)
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

	p.logger.Debug("Listed tables", zap.String("schema", p.config.Schema), zap.Int("tables", len(tables)))
	return tables, nil
}

// Close releases the connection pool.
func (p *Provider) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}
