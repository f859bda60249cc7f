// Package dataset loads tabular files (CSV, XLSX) into an in-memory grid of
// typed cells. Cells are nil, int64, float64, bool, time.Time or string.
package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Dataset is a rectangular table with an ordered header. Column labels may
// repeat after a rename; use Indexes to find every position of a label.
type Dataset struct {
	Columns []string
	Rows    [][]any

	// RowIndex holds the position each row had in the loaded file. Nil means
	// rows are still in file order with none removed.
	RowIndex []int
}

// New builds a dataset, padding short rows with nil.
func New(columns []string, rows [][]any) *Dataset {
	width := len(columns)
	out := make([][]any, len(rows))
	for i, row := range rows {
		padded := make([]any, width)
		copy(padded, row)
		out[i] = padded
	}
	cols := make([]string, width)
	copy(cols, columns)
	return &Dataset{Columns: cols, Rows: out}
}

// NumRows returns the number of data rows.
func (d *Dataset) NumRows() int {
	if d == nil {
		return 0
	}
	return len(d.Rows)
}

// NumColumns returns the number of columns.
func (d *Dataset) NumColumns() int {
	if d == nil {
		return 0
	}
	return len(d.Columns)
}

// IndexOf returns the first position of name, or -1.
func (d *Dataset) IndexOf(name string) int {
	for i, c := range d.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Indexes returns every position of name.
func (d *Dataset) Indexes(name string) []int {
	var out []int
	for i, c := range d.Columns {
		if c == name {
			out = append(out, i)
		}
	}
	return out
}

// Column returns the values of column i in row order.
func (d *Dataset) Column(i int) []any {
	out := make([]any, len(d.Rows))
	for r, row := range d.Rows {
		if i < len(row) {
			out[r] = row[i]
		}
	}
	return out
}

// SourceRow maps row i of d to its position in the loaded file.
func (d *Dataset) SourceRow(i int) int {
	if d == nil || d.RowIndex == nil || i < 0 || i >= len(d.RowIndex) {
		return i
	}
	return d.RowIndex[i]
}

// DropEmptyRows returns a dataset without rows whose every cell is missing.
// Surviving rows keep their file positions in RowIndex.
func (d *Dataset) DropEmptyRows() *Dataset {
	rows := make([][]any, 0, len(d.Rows))
	index := make([]int, 0, len(d.Rows))
	for i, row := range d.Rows {
		if isEmptyRow(row) {
			continue
		}
		rows = append(rows, row)
		index = append(index, d.SourceRow(i))
	}
	return &Dataset{Columns: append([]string(nil), d.Columns...), Rows: rows, RowIndex: index}
}

// isEmptyRow reports whether every cell is nil. Whitespace text is a value.
func isEmptyRow(row []any) bool {
	for _, v := range row {
		if v != nil {
			return false
		}
	}
	return true
}

// Rename returns a copy whose column labels are rewritten through mapping,
// plus the sorted labels that occur more than once afterwards. Rows are shared
// with the receiver and must be treated as read-only.
func (d *Dataset) Rename(mapping map[string]string) (*Dataset, []string) {
	cols := make([]string, len(d.Columns))
	seen := make(map[string]int, len(d.Columns))
	for i, c := range d.Columns {
		if target, ok := mapping[c]; ok && target != "" {
			c = target
		}
		cols[i] = c
		seen[c]++
	}

	var dups []string
	for label, n := range seen {
		if n > 1 {
			dups = append(dups, label)
		}
	}
	sort.Strings(dups)

	return &Dataset{Columns: cols, Rows: d.Rows, RowIndex: d.RowIndex}, dups
}

// String renders a short description for logs.
func (d *Dataset) String() string {
	return fmt.Sprintf("dataset(%d rows x %d columns)", d.NumRows(), d.NumColumns())
}

// uniqueHeaders fills blank labels with "Unnamed: i" and suffixes repeats
// with ".n" so every loaded column has a distinct label.
func uniqueHeaders(header []string) []string {
	out := make([]string, len(header))
	counts := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Unnamed: %d", i)
		}
		if n := counts[h]; n > 0 {
			counts[h] = n + 1
			h = fmt.Sprintf("%s.%d", h, n)
		} else {
			counts[h] = 1
		}
		out[i] = h
	}
	return out
}
