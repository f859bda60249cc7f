package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
)

func TestCheckIdentifierForInjection(t *testing.T) {
	tests := []struct {
		name            string
		value           string
		expectInjection bool
	}{
		{name: "simple table", value: "orders", expectInjection: false},
		{name: "snake case", value: "customer_orders_2024", expectInjection: false},
		{name: "classic tautology", value: "' OR '1'='1", expectInjection: true},
		{name: "union select", value: "1 UNION SELECT * FROM passwords", expectInjection: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckIdentifierForInjection("table", tt.value)
			if tt.expectInjection {
				if assert.NotNil(t, result) {
					assert.True(t, result.IsSQLi)
					assert.NotEmpty(t, result.Fingerprint)
					assert.Equal(t, "table", result.Kind)
				}
			} else {
				assert.Nil(t, result)
			}
		})
	}
}

func TestValidateIdentifier(t *testing.T) {
	assert.NoError(t, ValidateIdentifier("table", "orders"))
	assert.NoError(t, ValidateIdentifier("table", "Order Lines"))

	for _, bad := range []string{"", "  ", "orders; DROP TABLE x", "orders--", "a/*b*/"} {
		err := ValidateIdentifier("table", bad)
		assert.ErrorIs(t, err, apperrors.ErrUnsafeIdentifier, "value %q", bad)
	}
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"orders"`, QuoteIdentifier("orders"))
	assert.Equal(t, `"we""ird"`, QuoteIdentifier(`we"ird`))
}
