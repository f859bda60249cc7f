package mcp

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/auth"
	"github.com/ekaya-inc/ekaya-validator/pkg/metrics"
)

// Tool call outcomes, used as the status label.
const (
	ToolStatusSuccess   = "success"
	ToolStatusToolError = "tool_error"
	ToolStatusFailure   = "failure"
)

// AuditLogger logs every tool call and records its outcome and duration.
type AuditLogger struct {
	metrics metrics.Backend
	logger  *zap.Logger
	now     func() time.Time

	// startTimes tracks when tool calls begin, keyed by request ID.
	startTimes sync.Map
}

// NewAuditLogger creates an AuditLogger. A nil backend discards metrics.
func NewAuditLogger(backend metrics.Backend, logger *zap.Logger) *AuditLogger {
	if backend == nil {
		backend = metrics.Nop()
	}
	return &AuditLogger{
		metrics: backend,
		logger:  logger.Named("mcp-audit"),
		now:     time.Now,
	}
}

// Hooks returns mcp-go Hooks configured to capture tool call events.
func (a *AuditLogger) Hooks() *server.Hooks {
	hooks := &server.Hooks{}
	hooks.AddBeforeCallTool(a.beforeCallTool)
	hooks.AddAfterCallTool(a.afterCallTool)
	hooks.AddOnError(a.onError)
	return hooks
}

func (a *AuditLogger) beforeCallTool(_ context.Context, id any, _ *mcplib.CallToolRequest) {
	a.startTimes.Store(id, a.now())
}

func (a *AuditLogger) afterCallTool(ctx context.Context, id any, req *mcplib.CallToolRequest, result *mcplib.CallToolResult) {
	status := ToolStatusSuccess
	if result != nil && result.IsError {
		status = ToolStatusToolError
	}
	a.record(ctx, id, req, status, nil)
}

func (a *AuditLogger) onError(ctx context.Context, id any, method mcplib.MCPMethod, message any, err error) {
	if method != mcplib.MethodToolsCall {
		return
	}
	req, ok := message.(*mcplib.CallToolRequest)
	if !ok {
		return
	}
	a.record(ctx, id, req, ToolStatusFailure, err)
}

func (a *AuditLogger) record(ctx context.Context, id any, req *mcplib.CallToolRequest, status string, err error) {
	var elapsed time.Duration
	if v, ok := a.startTimes.LoadAndDelete(id); ok {
		elapsed = a.now().Sub(v.(time.Time))
	}

	tool := req.Params.Name
	lbls := metrics.Labels{"tool": tool, "status": status}
	a.metrics.IncCounter(metrics.ToolCallsTotal, 1, lbls)
	a.metrics.ObserveHistogram(metrics.ToolCallDurationSeconds, elapsed.Seconds(), lbls)

	fields := []zap.Field{
		zap.String("tool", tool),
		zap.String("status", status),
		zap.Duration("duration", elapsed),
	}
	fields = append(fields, paramFields(req.GetArguments())...)
	if claims, ok := auth.GetClaims(ctx); ok {
		fields = append(fields, zap.String("subject", claims.Subject))
	}

	if err != nil {
		a.logger.Warn("MCP tool call failed", append(fields, zap.Error(err))...)
		return
	}
	a.logger.Info("MCP tool call", fields...)
}

// paramFields logs the arguments that identify a validation unit. File paths
// are reduced to their base name.
func paramFields(args map[string]any) []zap.Field {
	var fields []zap.Field
	for _, key := range []string{"file_path", "sheet_name", "table_name", "format"} {
		v, ok := args[key].(string)
		if !ok || v == "" {
			continue
		}
		if key == "file_path" {
			v = filepath.Base(v)
		}
		fields = append(fields, zap.String(key, v))
	}
	return fields
}
