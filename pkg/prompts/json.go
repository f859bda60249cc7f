// Package prompts builds the prompts sent to the LLM collaborators. Every
// prompt embeds its inputs as indented JSON and asks for a single JSON value
// back, which the caller extracts with llm.ParseJSONResponse.
package prompts

import (
	"encoding/json"
	"strings"
)

// SystemMessage is shared by every collaborator call.
const SystemMessage = "You are a meticulous data validation assistant. " +
	"You only reason about the data you are given and you always answer with a single JSON value and no other text."

// toJSON renders v as indented JSON. Inputs are engine value objects that
// always marshal, so a failure falls back to "null".
func toJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "null"
	}
	return string(b)
}

func section(b *strings.Builder, title, body string) {
	b.WriteString("**")
	b.WriteString(title)
	b.WriteString(":**\n")
	b.WriteString(body)
	b.WriteString("\n\n")
}
