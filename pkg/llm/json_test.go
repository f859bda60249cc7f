package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain object",
			input:    `{"target_table": "orders"}`,
			expected: `{"target_table": "orders"}`,
		},
		{
			name:     "plain array",
			input:    `[{"column": "sku"}]`,
			expected: `[{"column": "sku"}]`,
		},
		{
			name:     "fenced block with prose",
			input:    "Here is the analysis:\n```json\n{\"status\": \"Passed\"}\n```\nLet me know.",
			expected: `{"status": "Passed"}`,
		},
		{
			name:     "think block stripped",
			input:    "<think>maybe {not json}</think>\n{\"score\": 90}",
			expected: `{"score": 90}`,
		},
		{
			name:     "braces inside strings",
			input:    `prefix {"sqltext": "price > 0 }", "n": [1, 2]} suffix`,
			expected: `{"sqltext": "price > 0 }", "n": [1, 2]}`,
		},
		{
			name:     "skips invalid candidate",
			input:    `{oops} then {"ok": true}`,
			expected: `{"ok": true}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractJSON(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestExtractJSON_NoJSON(t *testing.T) {
	_, err := ExtractJSON("I could not produce an answer.")
	assert.ErrorIs(t, err, ErrNoJSON)

	_, err = ExtractJSON(`{"unterminated": `)
	assert.ErrorIs(t, err, ErrNoJSON)
}

func TestParseJSONResponse(t *testing.T) {
	type payload struct {
		Table string `json:"table_name"`
		Score int    `json:"confidence_score"`
	}

	got, err := ParseJSONResponse[payload]("```\n{\"table_name\": \"orders\", \"confidence_score\": 80}\n```")
	require.NoError(t, err)
	assert.Equal(t, payload{Table: "orders", Score: 80}, got)

	_, err = ParseJSONResponse[payload](`["not", "an", "object"]`)
	assert.Error(t, err)
}
