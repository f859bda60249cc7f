package tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/audit"
	"github.com/ekaya-inc/ekaya-validator/pkg/dataset"
	"github.com/ekaya-inc/ekaya-validator/pkg/report"
	"github.com/ekaya-inc/ekaya-validator/pkg/services"
	"github.com/ekaya-inc/ekaya-validator/pkg/sql"
)

const (
	formatJSON     = "json"
	formatMarkdown = "markdown"
)

// RegisterValidateTool adds validate_sheet.
func RegisterValidateTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"validate_sheet",
		mcp.WithDescription(
			"Validate one sheet of a file against a database table. "+
				"Reports missing and extra columns, type mismatches, NOT NULL, UNIQUE, PRIMARY KEY and CHECK violations, "+
				"inferred rules, a quality score and a triage plan. "+
				"A run that fails part way still returns a report whose status is 'Error' and whose 'error' field says why. "+
				"Example: validate_sheet(file_path='orders.csv', table_name='orders', format='markdown').",
		),
		mcp.WithString(
			"file_path",
			mcp.Required(),
			mcp.Description("Path of a .csv or .xlsx file on the server"),
		),
		mcp.WithString(
			"sheet_name",
			mcp.Description("Sheet to validate. Omit for CSV files or the first sheet of a workbook"),
		),
		mcp.WithString(
			"table_name",
			mcp.Required(),
			mcp.Description("Target table, optionally schema qualified (e.g. 'sales.orders')"),
		),
		mcp.WithString(
			"format",
			mcp.Description("Output format: 'json' (default) or 'markdown'"),
			mcp.Enum(formatJSON, formatMarkdown),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(false),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("file_path")
		if err != nil {
			return nil, err
		}
		table, err := req.RequireString("table_name")
		if err != nil {
			return nil, err
		}
		table = trimString(table)
		if table == "" {
			return NewErrorResult("invalid_parameters", "parameter 'table_name' cannot be empty"), nil
		}
		if err := sql.ValidateIdentifier("table", table); err != nil {
			details := audit.IdentifierDetails{Kind: "table", Value: table}
			if res := sql.CheckIdentifierForInjection("table", table); res != nil {
				details.Fingerprint = res.Fingerprint
			}
			deps.Auditor.LogUnsafeIdentifier(ctx, "validate_sheet", details)
			return NewErrorResultFromError(err), nil
		}

		format := trimString(req.GetString("format", formatJSON))
		if format != formatJSON && format != formatMarkdown {
			return NewErrorResult("invalid_parameters",
				fmt.Sprintf("format must be %q or %q, got %q", formatJSON, formatMarkdown, format)), nil
		}

		path, err := deps.resolveFilePath(ctx, "validate_sheet", raw)
		if err != nil {
			return NewErrorResultFromError(err), nil
		}
		if _, err := dataset.DetectFormat(path); err != nil {
			return NewErrorResultFromError(err), nil
		}

		r := deps.Pipeline.Run(ctx, services.ValidationRequest{
			FilePath:  path,
			SheetName: trimString(req.GetString("sheet_name", "")),
			TableName: table,
		})

		deps.Logger.Info("validate_sheet finished",
			zap.String("run_id", r.RunID),
			zap.String("table", table),
			zap.String("status", string(r.ValidationSummary.Status)))

		if format == formatMarkdown {
			return mcp.NewToolResultText(report.RenderMarkdown(r)), nil
		}
		return jsonResult(r)
	})
}
