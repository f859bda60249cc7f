package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// utf8BOM is stripped from the first header cell if present.
const utf8BOM = "\uFEFF"

// LoadCSV reads a header row plus records and coerces each column to a
// single runtime type. Ragged rows are padded with nil.
func LoadCSV(r io.Reader) (*Dataset, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return &Dataset{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], utf8BOM)
	}

	var records [][]string
	width := len(header)
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv record %d: %w", len(records)+1, err)
		}
		if len(rec) > width {
			width = len(rec)
		}
		records = append(records, rec)
	}

	for len(header) < width {
		header = append(header, "")
	}
	columns := uniqueHeaders(header)

	rows := make([][]any, len(records))
	for i := range rows {
		rows[i] = make([]any, width)
	}
	raw := make([]string, len(records))
	for c := 0; c < width; c++ {
		for r, rec := range records {
			if c < len(rec) {
				raw[r] = rec[c]
			} else {
				raw[r] = ""
			}
		}
		for r, v := range coerceColumn(raw) {
			rows[r][c] = v
		}
	}

	return &Dataset{Columns: columns, Rows: rows}, nil
}
