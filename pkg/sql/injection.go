package sql

import (
	"fmt"
	"strings"

	libinjection "github.com/corazawaf/libinjection-go"

	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
)

// InjectionCheckResult contains the result of an injection check on an identifier.
type InjectionCheckResult struct {
	IsSQLi      bool   // True if SQL injection pattern detected
	Fingerprint string // libinjection fingerprint of the detected pattern
	Kind        string // What the identifier names (table, column)
	Value       string // The identifier that was checked
}

// CheckIdentifierForInjection uses libinjection to detect SQL injection
// patterns in an identifier that will be interpolated into a catalog query.
//
// Returns nil if no injection is detected.
//
// Example:
//
//	result := CheckIdentifierForInjection("table", "orders")
//	// result == nil
//
//	result := CheckIdentifierForInjection("table", "orders'); DROP TABLE users--")
//	// result.IsSQLi == true
func CheckIdentifierForInjection(kind, value string) *InjectionCheckResult {
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if isSQLi {
		return &InjectionCheckResult{
			IsSQLi:      true,
			Fingerprint: string(fingerprint),
			Kind:        kind,
			Value:       value,
		}
	}
	return nil
}

// ValidateIdentifier rejects empty identifiers, identifiers containing
// statement separators or comment markers, and anything libinjection flags.
func ValidateIdentifier(kind, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("empty %s name: %w", kind, apperrors.ErrUnsafeIdentifier)
	}
	if strings.ContainsAny(value, ";\x00") || strings.Contains(value, "--") || strings.Contains(value, "/*") {
		return fmt.Errorf("%s name %q: %w", kind, value, apperrors.ErrUnsafeIdentifier)
	}
	if result := CheckIdentifierForInjection(kind, value); result != nil {
		return fmt.Errorf("%s name %q (fingerprint %s): %w", kind, value, result.Fingerprint, apperrors.ErrUnsafeIdentifier)
	}
	return nil
}

// QuoteIdentifier wraps an identifier in double quotes, doubling embedded quotes.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
