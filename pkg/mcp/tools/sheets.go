package tools

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/dataset"
)

type listSheetsResponse struct {
	FilePath string   `json:"file_path"`
	Sheets   []string `json:"sheets"`
}

// RegisterSheetTools adds list_sheets.
func RegisterSheetTools(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"list_sheets",
		mcp.WithDescription(
			"List the sheets of a spreadsheet file. "+
				"CSV files report a single sheet named 'csv_data'. "+
				"Use the returned names as sheet_name for recommend_tables and validate_sheet.",
		),
		mcp.WithString(
			"file_path",
			mcp.Required(),
			mcp.Description("Path of a .csv or .xlsx file on the server"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("file_path")
		if err != nil {
			return nil, err
		}
		path, err := deps.resolveFilePath(ctx, "list_sheets", raw)
		if err != nil {
			return NewErrorResultFromError(err), nil
		}

		sheets, err := dataset.SheetNames(path)
		if err != nil {
			deps.Logger.Debug("list_sheets failed", zap.String("file_path", path), zap.Error(err))
			return NewErrorResultFromError(err), nil
		}
		return jsonResult(listSheetsResponse{FilePath: path, Sheets: sheets})
	})
}
