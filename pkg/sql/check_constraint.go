// Package sql holds the narrow SQL handling the validator needs: reading
// simple CHECK predicates and screening identifiers bound for catalog queries.
package sql

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
)

// ErrUnsupportedConstraint indicates CHECK text outside the supported
// "<column> <op> <number>" form.
var ErrUnsupportedConstraint = fmt.Errorf("unsupported check constraint: %w", apperrors.ErrConstraintParse)

// Operator is a comparison operator understood by the CHECK matcher.
type Operator string

const (
	OpGreater      Operator = ">"
	OpGreaterEqual Operator = ">="
	OpLess         Operator = "<"
	OpLessEqual    Operator = "<="
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
)

// Predicate is a parsed single-column numeric comparison.
type Predicate struct {
	Column   string
	Operator Operator
	Literal  decimal.Decimal
}

// Holds reports whether v satisfies the predicate.
func (p Predicate) Holds(v decimal.Decimal) bool {
	c := v.Cmp(p.Literal)
	switch p.Operator {
	case OpGreater:
		return c > 0
	case OpGreaterEqual:
		return c >= 0
	case OpLess:
		return c < 0
	case OpLessEqual:
		return c <= 0
	case OpEqual:
		return c == 0
	case OpNotEqual:
		return c != 0
	}
	return false
}

// Violates reports whether v fails the predicate.
func (p Predicate) Violates(v decimal.Decimal) bool {
	return !p.Holds(v)
}

func (p Predicate) String() string {
	return fmt.Sprintf("%s %s %s", p.Column, p.Operator, p.Literal.String())
}

var (
	// (0) or (0)::numeric as rendered by catalog definitions
	wrappedLiteral = regexp.MustCompile(`\(\s*(-?\d+(?:\.\d+)?)\s*\)(?:::[A-Za-z_]+)?`)
	castSuffix     = regexp.MustCompile(`::[A-Za-z_]+`)
)

// ParseCheckConstraint matches text against
//
//	^["`[]?column["`\]]?\s*(>=|<=|>|<|!=|<>|=)\s*(-?\d+(\.\d+)?)
//
// case-insensitively, after trimming and removing parentheses that wrap the
// whole expression. Only the leading comparison is read, so
// "price > 0 AND price < 100" yields price > 0.
func ParseCheckConstraint(column, text string) (Predicate, error) {
	normalized := NormalizeCheckText(text)

	pattern, err := regexp.Compile(`(?i)^["` + "`" + `\[]?` + regexp.QuoteMeta(column) +
		`["` + "`" + `\]]?\s*(>=|<=|>|<|!=|<>|=)\s*(-?\d+(\.\d+)?)`)
	if err != nil {
		return Predicate{}, fmt.Errorf("compile pattern for %q: %w", column, err)
	}

	m := pattern.FindStringSubmatch(normalized)
	if m == nil {
		return Predicate{}, fmt.Errorf("%q: %w", strings.TrimSpace(text), ErrUnsupportedConstraint)
	}

	literal, err := decimal.NewFromString(m[2])
	if err != nil {
		return Predicate{}, fmt.Errorf("literal %q: %w", m[2], ErrUnsupportedConstraint)
	}

	op := Operator(m[1])
	if op == "<>" {
		op = OpNotEqual
	}

	return Predicate{Column: column, Operator: op, Literal: literal}, nil
}

// NormalizeCheckText trims the text, removes wrapping parentheses and
// unwraps parenthesized or cast numeric literals.
func NormalizeCheckText(text string) string {
	text = StripCheckKeyword(text)
	text = wrappedLiteral.ReplaceAllString(text, "$1")
	text = castSuffix.ReplaceAllString(text, "")
	return stripWrappingParens(strings.TrimSpace(text))
}

// StripCheckKeyword removes a leading CHECK keyword and the parentheses that
// enclose its predicate, as found in catalog definitions.
func StripCheckKeyword(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasSuffix(strings.ToUpper(text), "NOT VALID") {
		text = strings.TrimSpace(text[:len(text)-len("NOT VALID")])
	}
	if isKeywordAt(text, "CHECK", 0) {
		text = stripWrappingParens(strings.TrimSpace(text[len("CHECK"):]))
	}
	return text
}

// stripWrappingParens removes parenthesis pairs that enclose the whole text.
func stripWrappingParens(text string) string {
	for len(text) >= 2 && text[0] == '(' && matchingParen(text, 0) == len(text)-1 {
		text = strings.TrimSpace(text[1 : len(text)-1])
	}
	return text
}

// matchingParen returns the index of the parenthesis closing the one at open,
// ignoring parentheses inside quoted text, or -1.
func matchingParen(text string, open int) int {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	depth := 0
	for i := open; i < len(text); i++ {
		char := text[i]
		switch state {
		case stateNormal:
			switch char {
			case '(':
				depth++
			case ')':
				depth--
				if depth == 0 {
					return i
				}
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			if char == '\'' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' {
				state = stateNormal
			}
		}
	}
	return -1
}

// ExtractCheckClauses returns the predicate text of every CHECK clause in a
// CREATE TABLE statement, with the constraint name when one is given via
// CONSTRAINT <name> CHECK (...). Quoted text is skipped.
func ExtractCheckClauses(createSQL string) []NamedCheck {
	var out []NamedCheck
	var quote byte

	for i := 0; i < len(createSQL); i++ {
		char := createSQL[i]
		if quote != 0 {
			if char == quote {
				quote = 0
			}
			continue
		}
		if char == '\'' || char == '"' {
			quote = char
			continue
		}
		if !isKeywordAt(createSQL, "CHECK", i) {
			continue
		}

		open := i + len("CHECK")
		for open < len(createSQL) && (createSQL[open] == ' ' || createSQL[open] == '\t' || createSQL[open] == '\n' || createSQL[open] == '\r') {
			open++
		}
		if open >= len(createSQL) || createSQL[open] != '(' {
			continue
		}
		closeIdx := matchingParen(createSQL, open)
		if closeIdx < 0 {
			break
		}

		out = append(out, NamedCheck{
			Name: constraintNameBefore(createSQL[:i]),
			Text: strings.TrimSpace(createSQL[open+1 : closeIdx]),
		})
		i = closeIdx
	}
	return out
}

// NamedCheck is a CHECK clause found in DDL. Name is empty for anonymous checks.
type NamedCheck struct {
	Name string
	Text string
}

var constraintNamePattern = regexp.MustCompile(`(?i)CONSTRAINT\s+["` + "`" + `\[]?([A-Za-z0-9_]+)["` + "`" + `\]]?\s*$`)

func constraintNameBefore(prefix string) string {
	if m := constraintNamePattern.FindStringSubmatch(prefix); m != nil {
		return m[1]
	}
	return ""
}

// isKeywordAt reports whether kw occurs at i as a whole word, ignoring case.
func isKeywordAt(text, kw string, i int) bool {
	if i+len(kw) > len(text) || !strings.EqualFold(text[i:i+len(kw)], kw) {
		return false
	}
	if i > 0 && isWordChar(text[i-1]) {
		return false
	}
	return i+len(kw) == len(text) || !isWordChar(text[i+len(kw)])
}

func isWordChar(c byte) bool {
	return c == '_' || (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9')
}
