package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
)

// trimString removes leading and trailing whitespace from a string.
func trimString(s string) string {
	return strings.TrimSpace(s)
}

// resolvePath cleans p and, when root is set, requires it to stay inside
// root both as written and after following symlinks. Relative paths are taken
// relative to root.
func resolvePath(root, p string) (string, error) {
	p = trimString(p)
	if p == "" {
		return "", fmt.Errorf("%w: parameter 'file_path' cannot be empty", errInvalidParameters)
	}
	if root == "" {
		return filepath.Clean(p), nil
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	if !filepath.IsAbs(p) {
		p = filepath.Join(absRoot, p)
	}
	p = filepath.Clean(p)

	if !within(absRoot, p) {
		return "", fmt.Errorf("%s: %w", p, apperrors.ErrPathNotAllowed)
	}

	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return "", fmt.Errorf("resolve root: %w", err)
	}
	if resolved, ok := evalExisting(p); ok && !within(realRoot, resolved) {
		return "", fmt.Errorf("%s: %w", p, apperrors.ErrPathNotAllowed)
	}
	return p, nil
}

// evalExisting follows symlinks in p, or in its directory when p itself does
// not exist yet.
func evalExisting(p string) (string, bool) {
	resolved, err := filepath.EvalSymlinks(p)
	if err == nil {
		return resolved, true
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return "", false
	}
	dir, err := filepath.EvalSymlinks(filepath.Dir(p))
	if err != nil {
		return "", false
	}
	return filepath.Join(dir, filepath.Base(p)), true
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// jsonResult marshals v as the text content of a tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
