// Package template renders normalized transactions into the ledger
// spreadsheet layout, letting any supported statement be converted into a
// file the manual-tracking template understands.
package template

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/catefolio/backend/internal/domain"
)

const sheetName = "거래내역"

var headers = []string{"거래일자", "내용", "금액", "분류", "구분", "적요", "내 통장 표시", "메모"}

// Build renders the transactions as an xlsx workbook in the ledger layout
// and returns the serialized bytes.
func Build(transactions []domain.Transaction) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName(f.GetSheetName(0), sheetName)

	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, fmt.Errorf("Build: header cell: %w", err)
		}
		if err := f.SetCellValue(sheetName, cell, header); err != nil {
			return nil, fmt.Errorf("Build: writing header %q: %w", header, err)
		}
	}

	for i, t := range transactions {
		row := i + 2
		values := []interface{}{
			t.Date.String(),
			t.Description,
			t.Amount,
			t.Category,
			t.Entity,
			t.Raw.Note,
			t.Raw.Display,
			t.Raw.Memo,
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return nil, fmt.Errorf("Build: row %d cell: %w", row, err)
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return nil, fmt.Errorf("Build: writing row %d: %w", row, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("Build: serializing workbook: %w", err)
	}
	return buf.Bytes(), nil
}
