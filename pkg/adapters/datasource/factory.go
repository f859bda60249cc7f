package datasource

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// NewSchemaProvider opens a provider of the given registered type.
func NewSchemaProvider(ctx context.Context, dsType string, config map[string]any, logger *zap.Logger) (SchemaProvider, error) {
	factory := GetFactory(dsType)
	if factory == nil {
		available := make([]string, 0)
		for _, info := range RegisteredAdapters() {
			available = append(available, info.Type)
		}
		return nil, fmt.Errorf("unsupported datasource type: %s (compiled in: %s)", dsType, strings.Join(available, ", "))
	}
	return factory(ctx, config, logger.Named("datasource").With(zap.String("type", dsType)))
}
