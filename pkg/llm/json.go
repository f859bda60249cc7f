package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when a response carries no parseable JSON value.
var ErrNoJSON = errors.New("no valid JSON found in response")

var (
	thinkBlockPattern = regexp.MustCompile(`(?s)<think>.*?</think>`)
	codeFencePattern  = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*\n(.*?)```")
)

// ExtractJSON returns the first valid JSON object or array in an LLM
// response. Reasoning blocks are removed and fenced code blocks are preferred
// over surrounding prose.
func ExtractJSON(response string) (string, error) {
	cleaned := thinkBlockPattern.ReplaceAllString(response, "")

	for _, m := range codeFencePattern.FindAllStringSubmatch(cleaned, -1) {
		if s, ok := firstJSONValue(m[1]); ok {
			return s, nil
		}
	}

	if s, ok := firstJSONValue(cleaned); ok {
		return s, nil
	}

	return "", ErrNoJSON
}

// firstJSONValue scans for an opening brace or bracket and returns the first
// balanced value that is valid JSON.
func firstJSONValue(s string) (string, bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed != "" && json.Valid([]byte(trimmed)) && (trimmed[0] == '{' || trimmed[0] == '[') {
		return trimmed, true
	}

	for i := 0; i < len(s); i++ {
		if s[i] != '{' && s[i] != '[' {
			continue
		}
		end, ok := balancedEnd(s, i)
		if !ok {
			continue
		}
		candidate := s[i : end+1]
		if json.Valid([]byte(candidate)) {
			return candidate, true
		}
	}
	return "", false
}

// balancedEnd returns the index of the bracket closing the one at start,
// ignoring brackets inside string literals.
func balancedEnd(s string, start int) (int, bool) {
	var stack []byte
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			stack = append(stack, '}')
		case '[':
			stack = append(stack, ']')
		case '}', ']':
			if len(stack) == 0 || stack[len(stack)-1] != c {
				return 0, false
			}
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// ParseJSONResponse extracts JSON from a response and unmarshals it into T.
func ParseJSONResponse[T any](response string) (T, error) {
	var result T

	jsonStr, err := ExtractJSON(response)
	if err != nil {
		return result, err
	}

	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return result, fmt.Errorf("unmarshal JSON: %w", err)
	}

	return result, nil
}
