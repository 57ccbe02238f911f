package domain

import (
	"time"
)

// Category is a named bucket plus the case-insensitive substring triggers
// that assign transactions to it without an LLM call.
type Category struct {
	Name     string   `json:"name" firestore:"name"`
	Keywords []string `json:"keywords" firestore:"keywords"`
}

// CategoryNames returns the names of the given categories in list order.
func CategoryNames(categories []Category) []string {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}
	return names
}

// Rule is a literal-substring pattern that assigns an entity and/or category
// when it occurs in the designated field of a transaction.
type Rule struct {
	Pattern    string `json:"pattern" firestore:"pattern"`
	MatchField string `json:"match_field" firestore:"match_field"`
	Entity     string `json:"entity" firestore:"entity"`
	Category   string `json:"category" firestore:"category"`
}

// Fields a Rule may match against.
const (
	MatchDescription = "description"
	MatchNote        = "note"
	MatchDisplay     = "display"
	MatchMemo        = "memo"
)

// Entity is a user-defined organization or counterparty. Entities exist to
// seed rules: one rule per name and per alias.
type Entity struct {
	ID          string    `json:"id" firestore:"-"`
	Name        string    `json:"name" firestore:"name"`
	Aliases     []string  `json:"aliases" firestore:"aliases"`
	Description string    `json:"description,omitempty" firestore:"description"`
	CreatedAt   time.Time `json:"created_at" firestore:"created_at"`
}
