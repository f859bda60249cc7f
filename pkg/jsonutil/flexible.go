package jsonutil

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FlexibleStringValue converts a json.RawMessage to a string, handling cases where
// LLMs return numbers or booleans instead of strings. Returns empty string for null/empty.
func FlexibleStringValue(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}

	var strVal string
	if err := json.Unmarshal(raw, &strVal); err == nil {
		return strVal
	}

	var numVal float64
	if err := json.Unmarshal(raw, &numVal); err == nil {
		if numVal == float64(int64(numVal)) {
			return fmt.Sprintf("%d", int64(numVal))
		}
		return fmt.Sprintf("%g", numVal)
	}

	var boolVal bool
	if err := json.Unmarshal(raw, &boolVal); err == nil {
		return fmt.Sprintf("%t", boolVal)
	}

	return string(raw)
}

// FlexibleString decodes any JSON scalar into a string.
type FlexibleString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexibleString) UnmarshalJSON(data []byte) error {
	*s = FlexibleString(FlexibleStringValue(data))
	return nil
}

// FlexibleInt decodes numbers, numeric strings ("85", "85/100") and floats
// into an int. Unparseable values decode to zero.
type FlexibleInt int

// UnmarshalJSON implements json.Unmarshaler.
func (n *FlexibleInt) UnmarshalJSON(data []byte) error {
	str := strings.TrimSpace(FlexibleStringValue(data))
	if str == "" {
		*n = 0
		return nil
	}
	if i := strings.IndexByte(str, '/'); i > 0 {
		str = strings.TrimSpace(str[:i])
	}
	f, err := strconv.ParseFloat(str, 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = FlexibleInt(int(math.Round(f)))
	return nil
}

// FlexibleBool decodes booleans, "true"/"yes"/"1" style strings and numbers.
type FlexibleBool bool

// UnmarshalJSON implements json.Unmarshaler.
func (b *FlexibleBool) UnmarshalJSON(data []byte) error {
	switch strings.ToLower(strings.TrimSpace(FlexibleStringValue(data))) {
	case "true", "yes", "y", "1", "t":
		*b = true
	default:
		*b = false
	}
	return nil
}

// FlexibleStringList decodes either a JSON array of scalars or a single
// scalar into a string slice. A single empty string decodes to an empty list.
type FlexibleStringList []string

// UnmarshalJSON implements json.Unmarshaler.
func (l *FlexibleStringList) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*l = nil
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, FlexibleStringValue(item))
		}
		*l = out
		return nil
	}

	single := FlexibleStringValue(data)
	if single == "" {
		*l = []string{}
		return nil
	}
	*l = []string{single}
	return nil
}
