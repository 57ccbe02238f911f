package ingest

import (
	"strings"
)

// Canonical column names every supported statement format is mapped onto.
const (
	ColDate        = "date"
	ColDescription = "description"
	ColAmount      = "amount"
	ColCategory    = "category"
	ColEntity      = "entity"
	ColDebit       = "debit"
	ColCredit      = "credit"
	ColNote        = "note"
	ColDisplay     = "display"
	ColMemo        = "memo"
)

// columnVocabulary maps lowercased header strings to canonical column names.
// It covers common English statement exports plus the Korean bank export
// vocabulary; anything not listed here is ignored.
var columnVocabulary = map[string]string{
	"date":             ColDate,
	"transaction date": ColDate,
	"posted date":      ColDate,

	"description": ColDescription,
	"memo":        ColDescription,
	"details":     ColDescription,
	"merchant":    ColDescription,
	"payee":       ColDescription,

	"amount": ColAmount,
	"amt":    ColAmount,
	"value":  ColAmount,

	"category":   ColCategory,
	"categories": ColCategory,

	"entity":               ColEntity,
	"business/personal":    ColEntity,
	"business or personal": ColEntity,
	"tag":                  ColEntity,

	"거래일시": ColDate,
	"거래일자": ColDate,

	"보낸분/받는분": ColDescription,
	"거래처":     ColDescription,

	"출금액(원)": ColDebit,
	"출금액":    ColDebit,

	"입금액(원)": ColCredit,
	"입금액":    ColCredit,

	"구분":      ColEntity,
	"적요":      ColNote,
	"내 통장 표시": ColDisplay,
	"메모":      ColMemo,
}

// MapColumns maps raw header strings to canonical column names. Headers not
// in the vocabulary are left out of the result. Korean headers take
// precedence over the English "memo" alias because the lookup is exact, so a
// literal "메모" maps to memo while an English "Memo" maps to description.
func MapColumns(headers []string) map[string]string {
	mapping := make(map[string]string, len(headers))
	for _, header := range headers {
		key := strings.ToLower(strings.TrimSpace(header))
		if canonical, ok := columnVocabulary[key]; ok {
			mapping[header] = canonical
		}
	}
	return mapping
}
