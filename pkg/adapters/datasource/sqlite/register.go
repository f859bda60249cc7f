package sqlite

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/adapters/datasource"
)

// SQLite is pure Go, so it is always compiled in.
func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Type:        "sqlite",
			DisplayName: "SQLite",
			Description: "SQLite 3 database file",
		},
		Factory: func(ctx context.Context, config map[string]any, logger *zap.Logger) (datasource.SchemaProvider, error) {
			cfg, err := FromMap(config)
			if err != nil {
				return nil, err
			}
			return NewProvider(ctx, cfg, logger)
		},
	})
}
