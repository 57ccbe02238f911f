package rules

import (
	"encoding/json"
	"fmt"

	"github.com/catefolio/backend/internal/domain"
)

const rulesPromptHeader = `You are a finance assistant. Given a sample of bank transactions, infer a small set of categorization rules.

Each rule is a JSON object with these keys:
- "pattern": a literal substring to look for (never a regex)
- "match_field": one of "description", "note", "display", "memo"
- "entity": the entity to assign when the rule matches, or "" to leave it
- "category": the category to assign when the rule matches, or "" to leave it

Prefer short, distinctive patterns such as merchant names. Do not invent rules for transactions you are unsure about.

Respond with ONLY a JSON array of rule objects and nothing else.

Transactions:
`

type sampleItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	Note        string  `json:"note,omitempty"`
	Display     string  `json:"display,omitempty"`
	Memo        string  `json:"memo,omitempty"`
}

func buildRulesPrompt(transactions []domain.Transaction) (string, error) {
	items := make([]sampleItem, 0, len(transactions))
	for _, t := range transactions {
		items = append(items, sampleItem{
			Description: t.Description,
			Amount:      t.Amount,
			Note:        t.Raw.Note,
			Display:     t.Raw.Display,
			Memo:        t.Raw.Memo,
		})
	}

	encoded, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("buildRulesPrompt: encoding sample: %w", err)
	}
	return rulesPromptHeader + string(encoded), nil
}
