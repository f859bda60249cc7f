package sql

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
)

func TestParseCheckConstraint(t *testing.T) {
	tests := []struct {
		name    string
		column  string
		text    string
		wantOp  Operator
		wantLit string
	}{
		{"plain", "price", "price > 0", OpGreater, "0"},
		{"wrapped", "price", "(price >= 10.5)", OpGreaterEqual, "10.5"},
		{"double wrapped", "price", "((price <= 100))", OpLessEqual, "100"},
		{"case insensitive", "Price", "PRICE < -3", OpLess, "-3"},
		{"double quoted", "qty", `"qty" = 1`, OpEqual, "1"},
		{"bracket quoted", "qty", "[qty]!=0", OpNotEqual, "0"},
		{"backtick quoted", "qty", "`qty` <> 7", OpNotEqual, "7"},
		{"postgres catalog form", "price", "CHECK ((price > (0)::numeric))", OpGreater, "0"},
		{"sql server catalog form", "price", "([price]>(0))", OpGreater, "0"},
		{"leading comparison only", "price", "price > 0 AND price < 100", OpGreater, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParseCheckConstraint(tt.column, tt.text)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOp, p.Operator)
			assert.Equal(t, tt.wantLit, p.Literal.String())
		})
	}
}

func TestParseCheckConstraint_Unsupported(t *testing.T) {
	tests := []struct {
		column string
		text   string
	}{
		{"price", "0 < price"},
		{"price", "price BETWEEN 1 AND 5"},
		{"status", "status IN ('a', 'b')"},
		{"price", "price > cost"},
		{"price", "length(price) > 2"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			_, err := ParseCheckConstraint(tt.column, tt.text)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrUnsupportedConstraint)
			assert.ErrorIs(t, err, apperrors.ErrConstraintParse)
		})
	}
}

func TestPredicate_HoldsAndViolates(t *testing.T) {
	p, err := ParseCheckConstraint("price", "price > 0")
	require.NoError(t, err)

	var violating []int64
	for _, v := range []int64{10, -5, 0, 20} {
		if p.Violates(decimal.NewFromInt(v)) {
			violating = append(violating, v)
		}
	}
	assert.Equal(t, []int64{-5, 0}, violating)

	ne, err := ParseCheckConstraint("qty", "qty <> 3")
	require.NoError(t, err)
	assert.True(t, ne.Holds(decimal.NewFromInt(2)))
	assert.False(t, ne.Holds(decimal.NewFromInt(3)))
	assert.Equal(t, "qty != 3", ne.String())
}

func TestStripCheckKeyword(t *testing.T) {
	assert.Equal(t, "price > 0", StripCheckKeyword("CHECK (price > 0)"))
	assert.Equal(t, "price > 0", StripCheckKeyword("check(price > 0) NOT VALID"))
	assert.Equal(t, "check_total > 0", StripCheckKeyword("check_total > 0"))
}

func TestExtractCheckClauses(t *testing.T) {
	ddl := `CREATE TABLE orders (
		id INTEGER PRIMARY KEY,
		price REAL CHECK (price > 0),
		qty INTEGER,
		note TEXT DEFAULT 'check (me)',
		CONSTRAINT qty_positive CHECK ((qty >= 1)),
		checked_at TEXT
	)`

	checks := ExtractCheckClauses(ddl)
	require.Len(t, checks, 2)
	assert.Equal(t, NamedCheck{Name: "", Text: "price > 0"}, checks[0])
	assert.Equal(t, NamedCheck{Name: "qty_positive", Text: "(qty >= 1)"}, checks[1])
}
