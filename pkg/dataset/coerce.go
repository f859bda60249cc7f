package dataset

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// naTokens are the text values a dataframe reader treats as missing.
var naTokens = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsNAToken reports whether a raw text field denotes a missing value.
func IsNAToken(s string) bool {
	_, ok := naTokens[s]
	return ok
}

// ParseInt parses s as a base-10 integer after trimming spaces.
func ParseInt(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n, err == nil
}

// ParseFloat parses s as a finite float after trimming spaces.
func ParseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// ParseBool accepts true/false in any case.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// ParseDecimal parses any numeric value or numeric text into an exact decimal.
func ParseDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case int64:
		return decimal.NewFromInt(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return decimal.Zero, false
		}
		return decimal.NewFromFloat(x), true
	case string:
		if _, ok := ParseFloat(x); !ok {
			return decimal.Zero, false
		}
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	}
	return decimal.Zero, false
}

// IsNumeric reports whether v is a number or text that parses as one.
// Booleans are not numeric.
func IsNumeric(v any) bool {
	_, ok := ParseDecimal(v)
	return ok
}

// HasFraction reports whether the decimal value of v has a non-zero
// fractional part. Non-numeric values report false.
func HasFraction(v any) bool {
	d, ok := ParseDecimal(v)
	if !ok {
		return false
	}
	return !d.Equal(d.Truncate(0))
}

// coerceColumn converts one column of raw text fields into a homogeneous
// runtime type: int64, then float64, then bool, else the original strings.
// NA tokens become nil in every case.
func coerceColumn(raw []string) []any {
	out := make([]any, len(raw))
	present := 0
	for i, s := range raw {
		if IsNAToken(s) {
			continue
		}
		out[i] = s
		present++
	}
	if present == 0 {
		return out
	}

	if converted, ok := convertAll(out, func(s string) (any, bool) {
		n, ok := ParseInt(s)
		return n, ok
	}); ok {
		return converted
	}
	if converted, ok := convertAll(out, func(s string) (any, bool) {
		f, ok := ParseFloat(s)
		return f, ok
	}); ok {
		return converted
	}
	if converted, ok := convertAll(out, func(s string) (any, bool) {
		b, ok := ParseBool(s)
		return b, ok
	}); ok {
		return converted
	}
	return out
}

func convertAll(values []any, parse func(string) (any, bool)) ([]any, bool) {
	out := make([]any, len(values))
	for i, v := range values {
		if v == nil {
			continue
		}
		parsed, ok := parse(v.(string))
		if !ok {
			return nil, false
		}
		out[i] = parsed
	}
	return out, true
}

// FormatTemporal renders t as ISO-8601. Times in UTC are written without an
// offset, matching how spreadsheet dates are read.
func FormatTemporal(t time.Time) string {
	if t.Location() != time.UTC {
		return t.Format(time.RFC3339Nano)
	}
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05")
	}
	return t.Format("2006-01-02T15:04:05.999999999")
}

// FormatValue renders a cell for reports. Nil renders as the empty string.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return FormatTemporal(x)
	default:
		return fmt.Sprint(x)
	}
}

// CellKey returns a comparable key that distinguishes cells by kind and value,
// so 1 and "1" are different keys.
func CellKey(v any) string {
	switch x := v.(type) {
	case nil:
		return "nil:"
	case string:
		return "s:" + x
	case int64:
		return "n:" + strconv.FormatInt(x, 10)
	case int:
		return "n:" + strconv.Itoa(x)
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return "n:" + strconv.FormatInt(int64(x), 10)
		}
		return "n:" + strconv.FormatFloat(x, 'g', -1, 64)
	case bool:
		return "b:" + strconv.FormatBool(x)
	case time.Time:
		return "t:" + x.UTC().Format(time.RFC3339Nano)
	default:
		return fmt.Sprintf("%T:%v", x, x)
	}
}
