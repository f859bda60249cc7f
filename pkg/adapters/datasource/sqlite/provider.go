// Package sqlite implements a SchemaProvider over a SQLite database file
// using the pure-Go modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // driver "sqlite"

	"github.com/ekaya-inc/ekaya-validator/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
	sqlutil "github.com/ekaya-inc/ekaya-validator/pkg/sql"
)

// Provider reads table definitions through PRAGMA table_info and the DDL
// stored in sqlite_master.
type Provider struct {
	db     *sql.DB
	logger *zap.Logger
}

var _ datasource.SchemaProvider = (*Provider)(nil)

// NewProvider opens the database file and pings it.
func NewProvider(ctx context.Context, cfg *Config, logger *zap.Logger) (*Provider, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite: path must not be empty")
	}

	db, err := sql.Open("sqlite", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}

	return NewProviderWithDB(db, logger), nil
}

// NewProviderWithDB wraps an open database handle. Close closes it.
func NewProviderWithDB(db *sql.DB, logger *zap.Logger) *Provider {
	return &Provider{db: db, logger: logger.Named("sqlite")}
}

// tableName validates a table name for use in PRAGMA statements, which
// cannot take bind parameters.
func tableName(table string) (string, error) {
	_, name := datasource.SplitQualifiedName(table, "main")
	if err := sqlutil.ValidateIdentifier("table", name); err != nil {
		return "", err
	}
	return name, nil
}

// GetSchema returns the table's columns in ordinal order. Declared types
// are upper-cased; SQLite keeps their parameters verbatim.
func (p *Provider) GetSchema(ctx context.Context, table string) (*models.TableSchema, error) {
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}

	columns, err := p.tableInfo(ctx, name)
	if err != nil {
		return nil, err
	}
	if columns.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSchemaNotFound, table)
	}

	return &models.TableSchema{TableName: table, Columns: *columns}, nil
}

func (p *Provider) tableInfo(ctx context.Context, name string) (*models.TableColumns, error) {
	rows, err := p.db.QueryContext(ctx, "PRAGMA table_info("+sqlutil.QuoteIdentifier(name)+")")
	if err != nil {
		return nil, fmt.Errorf("sqlite: table_info %s: %w", name, err)
	}
	defer rows.Close()

	columns := models.NewOrderedMap[models.ColumnDefinition](8)
	for rows.Next() {
		var (
			cid      int
			colName  string
			colType  string
			notNull  int
			dfltVal  sql.NullString
			pkOrdNum int
		)
		if err := rows.Scan(&cid, &colName, &colType, &notNull, &dfltVal, &pkOrdNum); err != nil {
			return nil, fmt.Errorf("sqlite: scan table_info: %w", err)
		}
		columns.Set(colName, models.ColumnDefinition{
			Type:       strings.ToUpper(strings.TrimSpace(colType)),
			Nullable:   notNull == 0 && pkOrdNum == 0,
			PrimaryKey: pkOrdNum > 0,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate table_info: %w", err)
	}
	return columns, nil
}

// ListCheckConstraints parses CHECK clauses out of the table's CREATE TABLE
// statement. Anonymous checks are named <table>_check_<n>.
func (p *Provider) ListCheckConstraints(ctx context.Context, table string) ([]models.CheckConstraint, error) {
	name, err := tableName(table)
	if err != nil {
		return nil, err
	}

	var ddl sql.NullString
	err = p.db.QueryRowContext(ctx,
		"SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", name).Scan(&ddl)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrSchemaNotFound, table)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite: read DDL for %s: %w", name, err)
	}

	checks := []models.CheckConstraint{}
	for i, c := range sqlutil.ExtractCheckClauses(ddl.String) {
		checkName := c.Name
		if checkName == "" {
			checkName = fmt.Sprintf("%s_check_%d", name, i+1)
		}
		checks = append(checks, models.CheckConstraint{Name: checkName, SQLText: c.Text})
	}

	p.logger.Debug("Parsed check constraints", zap.String("table", name), zap.Int("count", len(checks)))
	return checks, nil
}

// ListTables returns every user table with its column names.
func (p *Provider) ListTables(ctx context.Context) (map[string][]string, error) {
	rows, err := p.db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("sqlite: list tables: %w", err)
	}

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("sqlite: scan table name: %w", err)
		}
		names = append(names, name)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate tables: %w", err)
	}

	tables := make(map[string][]string, len(names))
	for _, name := range names {
		if sqlutil.ValidateIdentifier("table", name) != nil {
			p.logger.Warn("Skipping table with unsafe name", zap.String("table", name))
			continue
		}
		columns, err := p.tableInfo(ctx, name)
		if err != nil {
			return nil, err
		}
		tables[name] = columns.Keys()
	}
	return tables, nil
}

// Close closes the database handle.
func (p *Provider) Close() error {
	return p.db.Close()
}
