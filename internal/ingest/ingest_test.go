package ingest

import (
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestMapColumns(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Date", ColDate},
		{"Transaction Date", ColDate},
		{"Description", ColDescription},
		{"Memo", ColDescription},
		{"Amount", ColAmount},
		{"Category", ColCategory},
		{"Business/Personal", ColEntity},
		{"거래일시", ColDate},
		{"거래일자", ColDate},
		{"보낸분/받는분", ColDescription},
		{"거래처", ColDescription},
		{"출금액(원)", ColDebit},
		{"입금액(원)", ColCredit},
		{"구분", ColEntity},
		{"적요", ColNote},
		{"내 통장 표시", ColDisplay},
		{"메모", ColMemo},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			got := MapColumns([]string{tt.header})
			assert.Equal(t, tt.want, got[tt.header])
		})
	}
}

func TestMapColumnsIgnoresUnknown(t *testing.T) {
	got := MapColumns([]string{"Balance", "Reference"})
	assert.Empty(t, got)
}

func TestReadFrameCSV(t *testing.T) {
	frame, err := ReadFrame("statement.csv", []byte("date,description,amount\n2024-03-01,coffee,-4.50\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "description", "amount"}, frame.Columns)
	require.Len(t, frame.Rows, 1)
	assert.Equal(t, "coffee", frame.Rows[0][1])
}

func TestReadFrameRejectsUnknownExtension(t *testing.T) {
	_, err := ReadFrame("statement.pdf", []byte("x"))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestReadFrameRejectsEmptyFile(t *testing.T) {
	_, err := ReadFrame("statement.csv", nil)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func buildXLSX(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestReadFrameXLSX(t *testing.T) {
	data := buildXLSX(t, [][]interface{}{
		{"date", "description", "amount"},
		{"2024-03-01", "coffee", "-4.50"},
	})

	frame, err := ReadFrame("statement.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, []string{"date", "description", "amount"}, frame.Columns)
	require.Len(t, frame.Rows, 1)
}

func TestReadFrameKoreanHeaderExtraction(t *testing.T) {
	// bank export: metadata rows above the real header
	data := buildXLSX(t, [][]interface{}{
		{"계좌번호: 123-456-789", "", ""},
		{"조회기간: 2024.03.01 ~ 2024.03.31", "", ""},
		{"거래일시", "보낸분/받는분", "출금액(원)", "입금액(원)", "메모"},
		{"2024.03.02", "스타벅스", "6500", "0", "커피"},
	})

	frame, err := ReadFrame("bank.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, "거래일시", frame.Columns[0])
	require.Len(t, frame.Rows, 1)
	assert.Equal(t, "스타벅스", frame.Rows[0][1])
}

func TestReadFrameHeaderExtractionFallback(t *testing.T) {
	// blank header cell triggers extraction but no marker row exists
	data := buildXLSX(t, [][]interface{}{
		{"date", "", "amount"},
		{"2024-03-01", "coffee", "-4.50"},
	})

	frame, err := ReadFrame("odd.xlsx", data)
	require.NoError(t, err)
	assert.Equal(t, "date", frame.Columns[0])
	require.Len(t, frame.Rows, 1)
}

func TestNormalize(t *testing.T) {
	frame := &Frame{
		Columns: []string{"Date", "Description", "Amount", "Category"},
		Rows: [][]string{
			{"2024-03-01", "salary", "2,500.00", ""},
			{"03/02/2024", "coffee", "-4.50", "Dining"},
		},
	}

	transactions, skipped, err := Normalize(frame)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	require.Len(t, transactions, 2)

	assert.Equal(t, civil.Date{Year: 2024, Month: 3, Day: 1}, transactions[0].Date)
	assert.Equal(t, 2500.0, transactions[0].Amount)
	assert.Equal(t, "income", transactions[0].Type)
	assert.Equal(t, "Uncategorized", transactions[0].Category)
	assert.Equal(t, "Unassigned", transactions[0].Entity)

	assert.Equal(t, civil.Date{Year: 2024, Month: 3, Day: 2}, transactions[1].Date)
	assert.Equal(t, "Dining", transactions[1].Category)
	assert.Equal(t, "expense", transactions[1].Type)
}

func TestNormalizeDebitCredit(t *testing.T) {
	tests := []struct {
		name   string
		debit  string
		credit string
		want   float64
		skip   bool
	}{
		{"debit only", "6500", "0", -6500, false},
		{"credit only", "0", "10000", 10000, false},
		{"credit wins when both set", "100", "500", 500, false},
		{"blank debit", "", "300", 300, false},
		{"blank credit", "800", "", -800, false},
		{"both zero", "0", "0", 0, false},
		{"both blank", "", "", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := &Frame{
				Columns: []string{"거래일시", "보낸분/받는분", "출금액(원)", "입금액(원)"},
				Rows:    [][]string{{"2024.03.02", "테스트", tt.debit, tt.credit}},
			}
			transactions, skipped, err := Normalize(frame)
			require.NoError(t, err)
			if tt.skip {
				assert.Equal(t, 1, skipped)
				assert.Empty(t, transactions)
				return
			}
			require.Len(t, transactions, 1)
			assert.Equal(t, tt.want, transactions[0].Amount)
		})
	}
}

func TestNormalizeKoreanColumns(t *testing.T) {
	frame := &Frame{
		Columns: []string{"거래일시", "보낸분/받는분", "출금액(원)", "입금액(원)", "구분", "적요", "내 통장 표시", "메모"},
		Rows: [][]string{
			{"2024.03.02", "스타벅스", "6500", "0", "개인", "카드", "표시", "커피"},
		},
	}

	transactions, _, err := Normalize(frame)
	require.NoError(t, err)
	require.Len(t, transactions, 1)

	tx := transactions[0]
	assert.Equal(t, "스타벅스", tx.Description)
	assert.Equal(t, -6500.0, tx.Amount)
	assert.Equal(t, "개인", tx.Entity)
	assert.Equal(t, "카드", tx.Raw.Note)
	assert.Equal(t, "표시", tx.Raw.Display)
	assert.Equal(t, "커피", tx.Raw.Memo)
}

func TestNormalizeMissingRequiredColumns(t *testing.T) {
	frame := &Frame{
		Columns: []string{"date", "description"},
		Rows:    [][]string{{"2024-03-01", "coffee"}},
	}

	_, _, err := Normalize(frame)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Reason, "missing required columns")
}

func TestNormalizeRowLimit(t *testing.T) {
	rows := make([][]string, MaxRowsPerFile)
	for i := range rows {
		rows[i] = []string{"2024-03-01", "row", "-1.00"}
	}
	frame := &Frame{Columns: []string{"date", "description", "amount"}, Rows: rows}

	transactions, skipped, err := Normalize(frame)
	require.NoError(t, err)
	assert.Zero(t, skipped)
	assert.Len(t, transactions, MaxRowsPerFile)

	frame.Rows = append(frame.Rows, []string{"2024-03-01", "one too many", "-1.00"})
	_, _, err = Normalize(frame)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestNormalizeSkipsBadDates(t *testing.T) {
	frame := &Frame{
		Columns: []string{"date", "description", "amount"},
		Rows: [][]string{
			{"not a date", "bad", "-1.00"},
			{"2024-03-01", "good", "-2.00"},
		},
	}

	transactions, skipped, err := Normalize(frame)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, transactions, 1)
	assert.Equal(t, "good", transactions[0].Description)
}

func TestNormalizeAmountFormats(t *testing.T) {
	tests := []struct {
		raw  string
		want float64
	}{
		{"1,234.56", 1234.56},
		{"-1,234.56", -1234.56},
		{"$25.00", 25},
		{"₩6,500", 6500},
		{" 42 ", 42},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			frame := &Frame{
				Columns: []string{"date", "description", "amount"},
				Rows:    [][]string{{"2024-03-01", "x", tt.raw}},
			}
			transactions, _, err := Normalize(frame)
			require.NoError(t, err)
			require.Len(t, transactions, 1)
			assert.Equal(t, tt.want, transactions[0].Amount)
		})
	}
}

func TestNormalizeDateFormats(t *testing.T) {
	tests := []struct {
		raw  string
		want civil.Date
	}{
		{"2024-03-05", civil.Date{Year: 2024, Month: 3, Day: 5}},
		{"2024.03.05", civil.Date{Year: 2024, Month: 3, Day: 5}},
		{"03/05/2024", civil.Date{Year: 2024, Month: 3, Day: 5}},
		{"2024-03-05 14:30:00", civil.Date{Year: 2024, Month: 3, Day: 5}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			frame := &Frame{
				Columns: []string{"date", "description", "amount"},
				Rows:    [][]string{{tt.raw, "x", "-1.00"}},
			}
			transactions, _, err := Normalize(frame)
			require.NoError(t, err)
			require.Len(t, transactions, 1)
			assert.Equal(t, tt.want, transactions[0].Date)
		})
	}
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{File: "bad.csv", Reason: "file has no rows"}
	assert.Equal(t, "bad.csv: file has no rows", err.Error())

	bare := &ValidationError{Reason: "no files uploaded"}
	assert.Equal(t, "no files uploaded", bare.Error())
}
