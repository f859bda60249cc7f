package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ekaya-inc/ekaya-validator/pkg/apperrors"
	"github.com/ekaya-inc/ekaya-validator/pkg/models"
)

// Format identifies a supported file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat maps a file extension to a Format.
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%s: %w", filepath.Base(path), apperrors.ErrUnsupportedFile)
	}
}

// NormalizeSheet maps the CSV placeholder and blanks to "no sheet".
func NormalizeSheet(sheet string) string {
	sheet = strings.TrimSpace(sheet)
	if sheet == models.CSVSheetPlaceholder {
		return ""
	}
	return sheet
}

// Open loads path as a dataset. The sheet is ignored for CSV files.
func Open(path, sheet string) (*Dataset, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	switch format {
	case FormatXLSX:
		return LoadXLSX(f, NormalizeSheet(sheet))
	default:
		return LoadCSV(f)
	}
}

// SheetNames lists the sheets of a workbook. CSV files report the single
// placeholder sheet.
func SheetNames(path string) ([]string, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}
	if format == FormatCSV {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("stat %s: %w", filepath.Base(path), err)
		}
		return []string{models.CSVSheetPlaceholder}, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	return ListXLSXSheets(f)
}
