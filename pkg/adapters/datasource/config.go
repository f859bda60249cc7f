package datasource

import (
	"fmt"
	"strconv"
	"strings"
)

// StringValue returns the first non-empty string stored under one of keys.
func StringValue(config map[string]any, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := config[k].(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}

// IntValue reads an integer that may arrive as int, float64 (JSON) or a
// numeric string (environment).
func IntValue(config map[string]any, key string) (int, bool, error) {
	switch v := config[key].(type) {
	case nil:
		return 0, false, nil
	case int:
		return v, true, nil
	case int64:
		return int(v), true, nil
	case float64:
		return int(v), true, nil
	case string:
		if v == "" {
			return 0, false, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, false, fmt.Errorf("%s must be an integer: %w", key, err)
		}
		return n, true, nil
	default:
		return 0, false, fmt.Errorf("%s has unsupported type %T", key, v)
	}
}

// BoolValue reads a boolean that may arrive as bool or string.
func BoolValue(config map[string]any, key string) (bool, bool) {
	switch v := config[key].(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return false, false
		}
		return b, true
	}
	return false, false
}

// SplitQualifiedName splits "schema.table" and strips identifier quoting.
// Names without a schema get defaultSchema.
func SplitQualifiedName(name, defaultSchema string) (schema, table string) {
	unquote := func(s string) string {
		s = strings.TrimSpace(s)
		if len(s) >= 2 {
			switch {
			case s[0] == '"' && s[len(s)-1] == '"',
				s[0] == '[' && s[len(s)-1] == ']',
				s[0] == '`' && s[len(s)-1] == '`':
				return s[1 : len(s)-1]
			}
		}
		return s
	}

	if i := strings.Index(name, "."); i >= 0 {
		return unquote(name[:i]), unquote(name[i+1:])
	}
	return defaultSchema, unquote(name)
}
