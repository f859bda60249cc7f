package tools

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/dataset"
)

type tableInfo struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

type listTablesResponse struct {
	Tables []tableInfo `json:"tables"`
}

// RegisterTableTools adds list_tables and recommend_tables.
func RegisterTableTools(s *server.MCPServer, deps *Deps) {
	registerListTablesTool(s, deps)
	registerRecommendTablesTool(s, deps)
}

func registerListTablesTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"list_tables",
		mcp.WithDescription("List the tables of the configured database with their column names, sorted by table name"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(false),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		tables, err := deps.Provider.ListTables(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list tables: %w", err)
		}

		resp := listTablesResponse{Tables: make([]tableInfo, 0, len(tables))}
		for name, cols := range tables {
			resp.Tables = append(resp.Tables, tableInfo{Name: name, Columns: cols})
		}
		sort.Slice(resp.Tables, func(i, j int) bool {
			return resp.Tables[i].Name < resp.Tables[j].Name
		})
		return jsonResult(resp)
	})
}

func registerRecommendTablesTool(s *server.MCPServer, deps *Deps) {
	tool := mcp.NewTool(
		"recommend_tables",
		mcp.WithDescription(
			"Rank up to three database tables that a sheet most likely belongs to, with a 0-100 score and reasoning. "+
				"Call list_sheets first for workbooks. "+
				"Example: recommend_tables(file_path='orders.xlsx', sheet_name='March').",
		),
		mcp.WithString(
			"file_path",
			mcp.Required(),
			mcp.Description("Path of a .csv or .xlsx file on the server"),
		),
		mcp.WithString(
			"sheet_name",
			mcp.Description("Sheet to read. Omit for CSV files or the first sheet of a workbook"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithDestructiveHintAnnotation(false),
		mcp.WithIdempotentHintAnnotation(true),
		mcp.WithOpenWorldHintAnnotation(true),
	)

	s.AddTool(tool, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		raw, err := req.RequireString("file_path")
		if err != nil {
			return nil, err
		}
		path, err := deps.resolveFilePath(ctx, "recommend_tables", raw)
		if err != nil {
			return NewErrorResultFromError(err), nil
		}
		if _, err := dataset.DetectFormat(path); err != nil {
			return NewErrorResultFromError(err), nil
		}
		if _, err := os.Stat(path); err != nil {
			return NewErrorResultFromError(err), nil
		}
		sheet := trimString(req.GetString("sheet_name", ""))

		schema := deps.Extractor.ExtractFromFile(path, sheet)
		if !schema.Usable() {
			deps.Logger.Debug("recommend_tables could not read the sheet",
				zap.String("file_path", path),
				zap.String("sheet", sheet),
				zap.String("error", schema.Error))
			msg := schema.Error
			if msg == "" {
				msg = "no columns found in the sheet"
			}
			return NewErrorResult("extraction_failed", msg), nil
		}

		return jsonResult(deps.Recommender.Recommend(ctx, schema))
	})
}
