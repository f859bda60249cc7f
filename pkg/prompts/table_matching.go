package prompts

import (
	"fmt"
	"strings"
)

// BuildTableMatchingPrompt asks which tables best match a file's column list.
// tables maps table name to its column names.
func BuildTableMatchingPrompt(fileColumns []string, tables map[string][]string, maxResults int) string {
	var b strings.Builder

	b.WriteString("# Table Matching\n\n")
	b.WriteString("Find the database tables that best match a source file by comparing column lists. ")
	b.WriteString("Look for semantic matches (e.g. 'CustID' -> 'CustomerID', 'qty' -> 'Quantity') and score each table 0-100 by how well its columns match.\n\n")

	b.WriteString("## Input\n\n")
	if fileColumns == nil {
		fileColumns = []string{}
	}
	section(&b, "File Column List", toJSON(fileColumns))
	if tables == nil {
		tables = map[string][]string{}
	}
	section(&b, "Database Table Columns", toJSON(tables))

	b.WriteString("## Response Format\n\n")
	fmt.Fprintf(&b, "Rank tables from highest to lowest confidence. Include at most %d recommendations and only tables from the input. Return ONLY one JSON object:\n\n", maxResults)
	b.WriteString(`{
  "recommendations": [
    {"table_name": "best_match_table", "confidence_score": 95, "reasoning": "Matched 6/6 columns including 'OrderID' and 'Quantity'"}
  ]
}
`)
	return b.String()
}
