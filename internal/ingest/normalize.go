package ingest

import (
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/catefolio/backend/internal/domain"
)

// dateLayouts are tried in order by parseDate. Timestamps are truncated to
// their calendar date. The dotted layouts cover Korean bank exports.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006.01.02",
	"2006.01.02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"02 Jan 2006",
	time.RFC3339,
}

// Normalize converts a mapped frame into canonical transactions. Rows with an
// unparseable date or amount are dropped, not errored; the skip count is
// returned for diagnostics. A frame over the row limit or without a usable
// amount column is a fatal validation error.
func Normalize(frame *Frame) ([]domain.Transaction, int, error) {
	if len(frame.Rows) > MaxRowsPerFile {
		return nil, 0, invalidf("file exceeds %d rows", MaxRowsPerFile)
	}

	index := columnIndex(frame.Columns)

	_, hasAmount := index[ColAmount]
	_, hasDebit := index[ColDebit]
	_, hasCredit := index[ColCredit]
	if !hasAmount && !(hasDebit && hasCredit) {
		return nil, 0, invalidf("missing required columns: amount or debit/credit")
	}

	transactions := make([]domain.Transaction, 0, len(frame.Rows))
	skipped := 0

	for _, row := range frame.Rows {
		amount, ok := rowAmount(row, index, hasAmount)
		if !ok {
			skipped++
			continue
		}

		date, ok := parseDate(cell(row, index, ColDate))
		if !ok {
			skipped++
			continue
		}

		category := cell(row, index, ColCategory)
		if category == "" {
			category = domain.DefaultCategory
		}
		entity := cell(row, index, ColEntity)
		if entity == "" {
			entity = domain.DefaultEntity
		}

		transactions = append(transactions, domain.Transaction{
			Date:        date,
			Description: cell(row, index, ColDescription),
			Amount:      amount,
			Category:    category,
			Type:        domain.TypeForAmount(amount),
			Entity:      entity,
			Raw: domain.RawFields{
				Note:    cell(row, index, ColNote),
				Display: cell(row, index, ColDisplay),
				Memo:    cell(row, index, ColMemo),
			},
		})
	}

	return transactions, skipped, nil
}

// columnIndex resolves the frame's headers through the column vocabulary into
// canonical-name -> column-position. The first header claiming a canonical
// name wins.
func columnIndex(headers []string) map[string]int {
	mapping := MapColumns(headers)
	index := make(map[string]int, len(mapping))
	for i, header := range headers {
		canonical, ok := mapping[header]
		if !ok {
			continue
		}
		if _, taken := index[canonical]; !taken {
			index[canonical] = i
		}
	}
	return index
}

// rowAmount resolves the signed amount for one row: either a single amount
// column, or the debit/credit pair where credit wins when positive and the
// debit is negated otherwise. Missing debit/credit cells count as zero.
func rowAmount(row []string, index map[string]int, hasAmount bool) (float64, bool) {
	if hasAmount {
		return parseAmount(cell(row, index, ColAmount))
	}

	debit, okDebit := parseAmountOrZero(cell(row, index, ColDebit))
	credit, okCredit := parseAmountOrZero(cell(row, index, ColCredit))
	if !okDebit || !okCredit {
		return 0, false
	}
	if credit > 0 {
		return credit, true
	}
	return -debit, true
}

func cell(row []string, index map[string]int, canonical string) string {
	i, ok := index[canonical]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseAmount(raw string) (float64, bool) {
	cleaned := strings.TrimSpace(raw)
	if cleaned == "" {
		return 0, false
	}
	cleaned = strings.NewReplacer(",", "", "₩", "", "$", "", "€", "", "£", "", " ", "").Replace(cleaned)
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func parseAmountOrZero(raw string) (float64, bool) {
	if strings.TrimSpace(raw) == "" {
		return 0, true
	}
	return parseAmount(raw)
}

func parseDate(raw string) (civil.Date, bool) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return civil.Date{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return civil.DateOf(t), true
		}
	}
	return civil.Date{}, false
}
