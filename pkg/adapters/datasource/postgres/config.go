package postgres

import (
	"fmt"
	"net/url"

	"github.com/ekaya-inc/ekaya-validator/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-validator/pkg/config"
)

// Config contains PostgreSQL-specific connection options.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // "disable", "require", "verify-ca", "verify-full"
	Schema   string // schema used for unqualified table names
	MaxConns int
}

// DefaultPort returns the default PostgreSQL port.
func DefaultPort() int {
	return 5432
}

// DefaultSSLMode returns the default SSL mode.
func DefaultSSLMode() string {
	return "require"
}

// DefaultSchema returns the schema unqualified table names resolve in.
func DefaultSchema() string {
	return "public"
}

// FromMap creates a Config from a generic config map.
func FromMap(m map[string]any) (*Config, error) {
	cfg := &Config{
		Port:    DefaultPort(),
		SSLMode: DefaultSSLMode(),
		Schema:  DefaultSchema(),
	}

	var ok bool
	if cfg.Host, ok = datasource.StringValue(m, "host"); !ok {
		return nil, fmt.Errorf("host is required")
	}
	if cfg.User, ok = datasource.StringValue(m, "user"); !ok {
		return nil, fmt.Errorf("user is required")
	}
	// "name" is accepted for connection files written by older tooling
	if cfg.Database, ok = datasource.StringValue(m, "database", "name"); !ok {
		return nil, fmt.Errorf("database is required")
	}

	cfg.Password, _ = datasource.StringValue(m, "password")
	if sslMode, ok := datasource.StringValue(m, "ssl_mode"); ok {
		cfg.SSLMode = sslMode
	}
	if schema, ok := datasource.StringValue(m, "schema"); ok {
		cfg.Schema = schema
	}

	port, ok, err := datasource.IntValue(m, "port")
	if err != nil {
		return nil, err
	}
	if ok {
		cfg.Port = port
	}

	maxConns, ok, err := datasource.IntValue(m, "max_conns")
	if err != nil {
		return nil, err
	}
	if ok {
		cfg.MaxConns = maxConns
	}

	return cfg, nil
}

// buildConnectionString builds a PostgreSQL URL. User-provided fields are
// escaped so passwords containing @, /, # or ? survive URL parsing.
// localhost resolves to host.docker.internal when running in Docker.
func buildConnectionString(cfg *Config) string {
	sslMode := cfg.SSLMode
	if sslMode == "" {
		sslMode = DefaultSSLMode()
	}

	host := config.ResolveHostForDocker(cfg.Host)

	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		host,
		cfg.Port,
		url.QueryEscape(cfg.Database),
		sslMode,
	)
}
