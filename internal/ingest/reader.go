package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/lherron/tosum/internal/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Format identifies a tabular input encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the input format from a file name. Unknown extensions
// are read as CSV.
func DetectFormat(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// ReadCSV reads comma-separated records, header row first. Quoted fields may
// contain commas, quotes and newlines. Rows may differ in width; the
// normalizer rejects them individually.
func ReadCSV(r io.Reader) ([][]string, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = false

	records, err := cr.ReadAll()
	if err != nil {
		return nil, &domain.MalformedInputError{Reason: fmt.Sprintf("unparsable CSV: %v", err)}
	}
	return records, nil
}

// ReadXLSX reads the rows of one worksheet, header row first. An empty sheet
// name selects the first sheet. Short rows are padded to the header width
// because spreadsheets drop trailing empty cells.
func ReadXLSX(r io.Reader, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &domain.MalformedInputError{Reason: fmt.Sprintf("unparsable workbook: %v", err)}
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, &domain.MalformedInputError{Reason: "workbook has no sheets"}
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &domain.MalformedInputError{Reason: fmt.Sprintf("cannot read sheet %q: %v", sheet, err)}
	}

	// Trailing blank rows are formatting residue.
	for len(rows) > 0 && blankRecord(rows[len(rows)-1]) {
		rows = rows[:len(rows)-1]
	}
	if len(rows) == 0 {
		return rows, nil
	}

	width := len(rows[0])
	for i, row := range rows {
		if len(row) < width {
			padded := make([]string, width)
			copy(padded, row)
			rows[i] = padded
		}
	}
	return rows, nil
}

// Read dispatches to ReadCSV or ReadXLSX.
func Read(r io.Reader, format Format, sheet string) ([][]string, error) {
	switch format {
	case FormatXLSX:
		return ReadXLSX(r, sheet)
	case FormatCSV, "":
		return ReadCSV(r)
	default:
		return nil, fmt.Errorf("unsupported input format: %s", format)
	}
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
