package report

import (
	"sort"
	"strings"
	"unicode"
)

func section(b *strings.Builder, title string) {
	b.WriteString("\n---\n\n## ")
	b.WriteString(title)
	b.WriteString("\n\n")
}

func writeCodeList(b *strings.Builder, items []string, empty string) {
	if len(items) == 0 {
		b.WriteString("- " + empty + "\n")
		return
	}
	for _, item := range items {
		b.WriteString("- `" + item + "`\n")
	}
}

func writePlainList(b *strings.Builder, items []string, empty string) {
	if len(items) == 0 {
		b.WriteString("- " + empty + "\n")
		return
	}
	for _, item := range items {
		b.WriteString("- " + item + "\n")
	}
}

// codeJoin renders values as inline code, or "none".
func codeJoin(values []string) string {
	if len(values) == 0 {
		return "none"
	}
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = "`" + v + "`"
	}
	return strings.Join(parts, ", ")
}

// cell makes s safe inside a Markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\r\n", " ")
	return strings.ReplaceAll(s, "\n", " ")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}

func titleCase(s string) string {
	if s == "" {
		return notAvailable
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
