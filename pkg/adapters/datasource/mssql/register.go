//go:build mssql || all_adapters

package mssql

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/adapters/datasource"
)

func init() {
	datasource.Register(datasource.AdapterRegistration{
		Info: datasource.AdapterInfo{
			Type:        "mssql",
			DisplayName: "Microsoft SQL Server",
			Description: "SQL Server 2016+, Azure SQL Database (SQL or Azure AD auth)",
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
