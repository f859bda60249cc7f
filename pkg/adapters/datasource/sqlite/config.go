package sqlite

import (
	"fmt"

	"github.com/ekaya-inc/ekaya-validator/pkg/adapters/datasource"
)

// Config locates a SQLite database file.
type Config struct {
	Path     string
	ReadOnly bool
}

// FromMap creates a Config from a generic config map. "path" and "database"
// are both accepted. Databases open read-only unless read_only is false.
func FromMap(m map[string]any) (*Config, error) {
	path, ok := datasource.StringValue(m, "path", "database")
	if !ok {
		return nil, fmt.Errorf("path is required")
	}
	cfg := &Config{Path: path, ReadOnly: true}
	if ro, ok := datasource.BoolValue(m, "read_only"); ok {
		cfg.ReadOnly = ro
	}
	return cfg, nil
}

// dsn renders the modernc.org/sqlite connection string.
func (c *Config) dsn() string {
	if c.Path == ":memory:" {
		return c.Path
	}
	if c.ReadOnly {
		return "file:" + c.Path + "?mode=ro"
	}
	return "file:" + c.Path
}
