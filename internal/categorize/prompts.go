package categorize

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/catefolio/backend/internal/domain"
)

// batchItem is one transaction as presented to the model. Index is the
// position within the batch; the adapter remaps it back to the full
// transaction list when applying results.
type batchItem struct {
	Index       int     `json:"index"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Note        string  `json:"note"`
	Display     string  `json:"display"`
	Memo        string  `json:"memo"`
}

const categoryPromptHeader = `You are assigning up to three categories to each transaction.
Choose from the provided categories list only.
Use the keyword hints to match transactions more accurately.
If a transaction description contains any of the keywords for a category,
that category should be strongly considered.
Return JSON only as an array of objects: {"index", "categories"}.
The categories field must be a list with 1 to 3 items.
If no category fits, return categories as ["Uncategorized"].
`

// buildCategoryPrompt renders one batch of transactions plus the valid
// category names (with keyword hints) into the categorization prompt.
func buildCategoryPrompt(batch []batchItem, categories []domain.Category) (string, error) {
	payload, err := json.Marshal(batch)
	if err != nil {
		return "", fmt.Errorf("buildCategoryPrompt: marshal transactions: %w", err)
	}
	names, err := json.Marshal(domain.CategoryNames(categories))
	if err != nil {
		return "", fmt.Errorf("buildCategoryPrompt: marshal category names: %w", err)
	}

	var hints strings.Builder
	for _, c := range categories {
		if len(c.Keywords) > 0 {
			fmt.Fprintf(&hints, "- %s: Look for keywords like [%s]\n", c.Name, strings.Join(c.Keywords, ", "))
		} else {
			fmt.Fprintf(&hints, "- %s\n", c.Name)
		}
	}

	var b strings.Builder
	b.WriteString(categoryPromptHeader)
	b.WriteString("\nCategories with keyword hints:\n")
	b.WriteString(hints.String())
	b.WriteString("\nValid category names:\n")
	b.Write(names)
	b.WriteString("\n\nTransactions:\n")
	b.Write(payload)
	return b.String(), nil
}
