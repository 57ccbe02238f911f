package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Frame is a raw tabular view of one statement file: a header row plus data
// rows, all as strings. Column mapping and type coercion happen later in
// Normalize.
type Frame struct {
	Columns []string
	Rows    [][]string
}

// ReadFrame parses the raw bytes of one uploaded file into a Frame. CSV and
// XLSX/XLS are supported, selected by file extension. Korean bank XLSX
// exports with metadata rows above the real header are handled by scanning
// for the header row (see extractHeaderFrame).
func ReadFrame(filename string, data []byte) (*Frame, error) {
	if len(data) == 0 {
		return nil, invalidf("file is empty")
	}

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return readCSV(data)
	case ".xlsx", ".xls":
		return readExcel(data)
	default:
		return nil, invalidf("unsupported file type %q", filepath.Ext(filename))
	}
}

func readCSV(data []byte) (*Frame, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, invalidf("malformed CSV: %v", err)
	}
	if len(records) == 0 {
		return nil, invalidf("file has no rows")
	}

	return &Frame{Columns: records[0], Rows: records[1:]}, nil
}

func readExcel(data []byte) (*Frame, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, invalidf("unreadable spreadsheet: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, invalidf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("readExcel: reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, invalidf("file has no rows")
	}

	if needsHeaderExtract(rows[0]) {
		return extractHeaderFrame(rows)
	}
	return &Frame{Columns: rows[0], Rows: rows[1:]}, nil
}

// needsHeaderExtract reports whether the first row of a sheet is not the real
// header: bank export templates put metadata (account number, export period)
// above the column row, which shows up as blank/placeholder header cells or
// an account-number marker.
func needsHeaderExtract(header []string) bool {
	for _, cell := range header {
		trimmed := strings.TrimSpace(cell)
		if trimmed == "" || strings.Contains(strings.ToLower(trimmed), "unnamed") {
			return true
		}
		if strings.Contains(trimmed, "계좌번호") {
			return true
		}
	}
	return false
}

// extractHeaderFrame scans the sheet for the row containing the three Korean
// header markers (거래일시, 출금액, 입금액); that row becomes the header and
// everything above it is discarded. If no such row exists the sheet is used
// as-is.
func extractHeaderFrame(rows [][]string) (*Frame, error) {
	for i, row := range rows {
		text := strings.Join(row, " ")
		if strings.Contains(text, "거래일시") &&
			strings.Contains(text, "출금액") &&
			strings.Contains(text, "입금액") {
			return &Frame{Columns: row, Rows: rows[i+1:]}, nil
		}
	}
	return &Frame{Columns: rows[0], Rows: rows[1:]}, nil
}
