// Package audit logs security-relevant events raised by the MCP tools in a
// structured form suitable for SIEM ingestion.
package audit

import (
	"context"
	"encoding/json"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-validator/pkg/auth"
)

// SecurityEventType categorizes security-relevant events for filtering and alerting.
type SecurityEventType string

const (
	// EventPathRejected is logged when a file_path argument escapes the
	// configured file root.
	EventPathRejected SecurityEventType = "path_outside_root"
	// EventUnsafeIdentifier is logged when a table name would be unsafe to
	// interpolate into a catalog query.
	EventUnsafeIdentifier SecurityEventType = "unsafe_identifier"
)

// Severities attached to events.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// SecurityEvent is one auditable event.
type SecurityEvent struct {
	Timestamp time.Time         `json:"timestamp"`
	EventType SecurityEventType `json:"event_type"`
	Tool      string            `json:"tool"`
	Subject   string            `json:"subject,omitempty"`
	Details   any               `json:"details"`
	Severity  string            `json:"severity"`
}

// PathDetails describes a rejected file path. Only the base name is kept.
type PathDetails struct {
	FileName string `json:"file_name"`
}

// IdentifierDetails describes a rejected identifier.
type IdentifierDetails struct {
	Kind        string `json:"kind"`
	Value       string `json:"value"`
	Fingerprint string `json:"fingerprint,omitempty"` // libinjection fingerprint
}

// SecurityAuditor logs security events. A nil *SecurityAuditor discards
// everything.
type SecurityAuditor struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewSecurityAuditor creates an auditor logging under the "security_audit"
// name so SIEM pipelines can filter on it.
func NewSecurityAuditor(logger *zap.Logger) *SecurityAuditor {
	return &SecurityAuditor{
		logger: logger.Named("security_audit"),
		now:    time.Now,
	}
}

// LogPathRejected records a file_path argument outside the file root.
func (a *SecurityAuditor) LogPathRejected(ctx context.Context, tool, path string) {
	if a == nil {
		return
	}
	event := a.event(ctx, EventPathRejected, tool, SeverityWarning, PathDetails{FileName: filepath.Base(path)})
	a.logger.Warn("File path outside allowed root",
		append(a.fields(event), zap.String("file_name", filepath.Base(path)))...)
}

// LogUnsafeIdentifier records a rejected identifier. Fingerprint is empty
// when the identifier was rejected for a separator or comment marker rather
// than by libinjection.
func (a *SecurityAuditor) LogUnsafeIdentifier(ctx context.Context, tool string, details IdentifierDetails) {
	if a == nil {
		return
	}
	event := a.event(ctx, EventUnsafeIdentifier, tool, SeverityCritical, details)
	a.logger.Error("Unsafe identifier rejected",
		append(a.fields(event),
			zap.String("kind", details.Kind),
			zap.String("fingerprint", details.Fingerprint))...)
}

func (a *SecurityAuditor) event(ctx context.Context, eventType SecurityEventType, tool, severity string, details any) SecurityEvent {
	var subject string
	if claims, ok := auth.GetClaims(ctx); ok {
		subject = claims.Subject
	}
	return SecurityEvent{
		Timestamp: a.now().UTC(),
		EventType: eventType,
		Tool:      tool,
		Subject:   subject,
		Details:   details,
		Severity:  severity,
	}
}

func (a *SecurityAuditor) fields(event SecurityEvent) []zap.Field {
	// Known types never fail to marshal.
	eventJSON, _ := json.Marshal(event)
	return []zap.Field{
		zap.String("event_json", string(eventJSON)),
		zap.String("event_type", string(event.EventType)),
		zap.String("tool", event.Tool),
		zap.String("subject", event.Subject),
		zap.String("severity", event.Severity),
	}
}
