package tools

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/adapters/datasource"
	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-validator/pkg/audit"
	"github.com/ekaya-inc/ekaya-validator/pkg/services"
)

// Deps are the collaborators the validator tools call into.
type Deps struct {
	Provider       datasource.SchemaProvider
	DatasourceType string
	Extractor      services.SchemaExtractionService
	Recommender    services.TableRecommender
	Pipeline       services.ValidationPipelineService

	// FileRoot confines file_path arguments to one directory. Empty allows
	// any path the process can read.
	FileRoot string

	// Auditor receives rejected paths and identifiers. May be nil.
	Auditor *audit.SecurityAuditor

	Version string
	Logger  *zap.Logger
}

// RegisterAll adds every validator tool to s.
func RegisterAll(s *server.MCPServer, deps *Deps) {
	RegisterHealthTool(s, deps.Version, deps.DatasourceType)
	RegisterSheetTools(s, deps)
	RegisterTableTools(s, deps)
	RegisterValidateTool(s, deps)
}

// resolveFilePath resolves a file_path argument, auditing attempts to leave
// the file root.
func (d *Deps) resolveFilePath(ctx context.Context, tool, raw string) (string, error) {
	path, err := resolvePath(d.FileRoot, raw)
	if errors.Is(err, apperrors.ErrPathNotAllowed) {
		d.Auditor.LogPathRejected(ctx, tool, raw)
	}
	return path, err
}
