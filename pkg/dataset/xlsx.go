package dataset

import (
	"fmt"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
)

// ListXLSXSheets returns the workbook's sheet names in tab order.
func ListXLSXSheets(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// LoadXLSX reads one sheet of a workbook. An empty sheet name selects the
// first sheet.
func LoadXLSX(r io.Reader, sheet string) (*Dataset, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets: %w", apperrors.ErrSheetNotFound)
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, fmt.Errorf("sheet %q: %w", sheet, apperrors.ErrSheetNotFound)
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &Dataset{}, nil
	}

	reader := &sheetReader{file: f, sheet: sheet, dateStyles: make(map[int]bool)}

	width := len(rows[0])
	for _, row := range rows[1:] {
		if len(row) > width {
			width = len(row)
		}
	}
	header := make([]string, width)
	copy(header, rows[0])
	columns := uniqueHeaders(header)

	data := make([][]any, 0, len(rows)-1)
	for r, row := range rows[1:] {
		cells := make([]any, width)
		for c, raw := range row {
			v, err := reader.cellValue(c+1, r+2, raw)
			if err != nil {
				return nil, err
			}
			cells[c] = v
		}
		data = append(data, cells)
	}

	unifyNumericColumns(data, width)
	return &Dataset{Columns: columns, Rows: data}, nil
}

type sheetReader struct {
	file       *excelize.File
	sheet      string
	dateStyles map[int]bool
}

// cellValue types one cell. Text matching an NA token reads as missing, the
// same as in CSV files.
func (s *sheetReader) cellValue(col, row int, raw string) (any, error) {
	if IsNAToken(raw) {
		return nil, nil
	}
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, fmt.Errorf("cell name: %w", err)
	}
	cellType, err := s.file.GetCellType(s.sheet, cell)
	if err != nil {
		return nil, fmt.Errorf("cell %s type: %w", cell, err)
	}

	switch cellType {
	case excelize.CellTypeBool:
		switch strings.ToUpper(raw) {
		case "1", "TRUE":
			return true, nil
		case "0", "FALSE":
			return false, nil
		}
		return raw, nil
	case excelize.CellTypeDate:
		for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, raw); err == nil {
				return t, nil
			}
		}
		return raw, nil
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return raw, nil
		}
		isDate, err := s.isDateStyled(cell)
		if err != nil {
			return nil, err
		}
		if isDate {
			t, err := excelize.ExcelDateToTime(f, false)
			if err == nil {
				return t, nil
			}
		}
		if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
			return int64(f), nil
		}
		return f, nil
	default:
		return raw, nil
	}
}

func (s *sheetReader) isDateStyled(cell string) (bool, error) {
	styleID, err := s.file.GetCellStyle(s.sheet, cell)
	if err != nil {
		return false, fmt.Errorf("cell %s style: %w", cell, err)
	}
	if styleID == 0 {
		return false, nil
	}
	if isDate, ok := s.dateStyles[styleID]; ok {
		return isDate, nil
	}
	style, err := s.file.GetStyle(styleID)
	if err != nil {
		return false, fmt.Errorf("style %d: %w", styleID, err)
	}
	isDate := isDateNumFmt(style.NumFmt)
	if !isDate && style.CustomNumFmt != nil {
		isDate = isDateFormatCode(*style.CustomNumFmt)
	}
	s.dateStyles[styleID] = isDate
	return isDate, nil
}

// isDateNumFmt reports whether a built-in number format ID renders a date or time.
func isDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	}
	return false
}

var (
	quotedText   = regexp.MustCompile(`"[^"]*"`)
	bracketed    = regexp.MustCompile(`\[[^\]]*\]`)
	dateFmtToken = regexp.MustCompile(`(?i)[ymdhs]`)
)

// isDateFormatCode reports whether a custom format code contains date or time
// tokens outside literal text and color/locale sections.
func isDateFormatCode(code string) bool {
	code = quotedText.ReplaceAllString(code, "")
	code = bracketed.ReplaceAllString(code, "")
	code = strings.ReplaceAll(code, `\`, "")
	if strings.EqualFold(code, "general") {
		return false
	}
	return dateFmtToken.MatchString(code)
}

// unifyNumericColumns widens a purely numeric column to float64 when it mixes
// integral and fractional cells, so each column keeps one numeric kind.
func unifyNumericColumns(rows [][]any, width int) {
	for c := 0; c < width; c++ {
		hasFloat, numericOnly := false, true
		for _, row := range rows {
			switch row[c].(type) {
			case nil, int64:
			case float64:
				hasFloat = true
			default:
				numericOnly = false
			}
		}
		if !hasFloat || !numericOnly {
			continue
		}
		for _, row := range rows {
			if n, ok := row[c].(int64); ok {
				row[c] = float64(n)
			}
		}
	}
}
