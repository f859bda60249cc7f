package tools

import (
	"encoding/json"
	"errors"
	"io/fs"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
)

// ErrorResponse is the body of a structured tool error. Errors are returned
// as tool results so the calling model sees them and can correct its input.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// NewErrorResult creates a tool result containing a structured error.
func NewErrorResult(code, message string) *mcp.CallToolResult {
	return NewErrorResultWithDetails(code, message, nil)
}

// NewErrorResultWithDetails creates an error result with additional context.
func NewErrorResultWithDetails(code, message string, details any) *mcp.CallToolResult {
	resp := ErrorResponse{
		Error:   true,
		Code:    code,
		Message: message,
		Details: details,
	}
	jsonBytes, _ := json.Marshal(resp)
	result := mcp.NewToolResultText(string(jsonBytes))
	result.IsError = true
	return result
}

// errInvalidParameters marks malformed tool arguments.
var errInvalidParameters = errors.New("invalid parameters")

// errorCodes maps error sentinels to tool error codes, most specific first.
var errorCodes = []struct {
	target error
	code   string
}{
	{errInvalidParameters, "invalid_parameters"},
	{fs.ErrNotExist, "file_not_found"},
	{apperrors.ErrPathNotAllowed, "path_not_allowed"},
	{apperrors.ErrUnsupportedFile, "unsupported_file"},
	{apperrors.ErrSheetNotFound, "sheet_not_found"},
	{apperrors.ErrSchemaNotFound, "table_not_found"},
	{apperrors.ErrUnsafeIdentifier, "invalid_identifier"},
	{apperrors.ErrExtraction, "extraction_failed"},
}

// ErrorCode classifies err for a tool error result.
func ErrorCode(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.target) {
			return c.code
		}
	}
	return "internal_error"
}

// IsInputError reports whether err was caused by the caller's arguments
// rather than a server failure. Input errors are logged at debug level.
func IsInputError(err error) bool {
	return err != nil && ErrorCode(err) != "internal_error"
}

// NewErrorResultFromError classifies err and wraps it as a tool result.
func NewErrorResultFromError(err error) *mcp.CallToolResult {
	return NewErrorResult(ErrorCode(err), err.Error())
}
