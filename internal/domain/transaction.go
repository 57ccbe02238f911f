package domain

import (
	"cloud.google.com/go/civil"
)

// Transaction types derived from the sign of the amount.
const (
	TypeIncome  = "income"
	TypeExpense = "expense"
)

// Defaults applied during normalization when a source column is absent or blank.
const (
	DefaultCategory = "Uncategorized"
	DefaultEntity   = "Unassigned"
)

// RawFields carries auxiliary text columns preserved from the source file.
// They are not shown in summaries but serve as extra matching surface for
// keyword and rule categorization.
type RawFields struct {
	Note    string `json:"note" firestore:"note"`
	Display string `json:"display" firestore:"display"`
	Memo    string `json:"memo" firestore:"memo"`
}

// Transaction is the canonical record every supported statement format is
// normalized into. Amount is signed: positive = income/credit, negative =
// expense/debit.
type Transaction struct {
	Date        civil.Date `json:"date" firestore:"date"`
	Description string     `json:"description" firestore:"description"`
	Amount      float64    `json:"amount" firestore:"amount"`
	Category    string     `json:"category" firestore:"category"`
	Type        string     `json:"transaction_type" firestore:"transaction_type"`
	Entity      string     `json:"entity" firestore:"entity"`

	// SecondaryCategories holds keyword matches beyond the first one.
	SecondaryCategories []string `json:"secondary_categories,omitempty" firestore:"secondary_categories,omitempty"`

	Raw RawFields `json:"raw" firestore:"raw"`
}

// TypeForAmount returns the transaction type implied by a signed amount.
func TypeForAmount(amount float64) string {
	if amount > 0 {
		return TypeIncome
	}
	return TypeExpense
}
