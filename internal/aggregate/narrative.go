package aggregate

import (
	"sort"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/catefolio/backend/internal/domain"
)

// Narrative renders a short prose summary of the job with locale-aware
// thousands separators.
func Narrative(summary domain.Summary, charts domain.Charts, transactionCount int) string {
	p := message.NewPrinter(language.English)

	if transactionCount == 0 {
		return "No transactions were found in the uploaded statements."
	}

	text := p.Sprintf(
		"Across %d transactions you earned %.2f and spent %.2f, leaving net savings of %.2f.",
		transactionCount, summary.TotalIncome, summary.TotalExpenses, summary.NetSavings,
	)

	if len(charts.ExpenseBreakdown.Labels) > 0 {
		text += p.Sprintf(
			" Your largest expense category was %s at %.2f.",
			charts.ExpenseBreakdown.Labels[0], charts.ExpenseBreakdown.Values[0],
		)
	}

	if len(summary.EntityCounts) > 0 {
		entities := make([]string, 0, len(summary.EntityCounts))
		for entity := range summary.EntityCounts {
			entities = append(entities, entity)
		}
		sort.Slice(entities, func(i, j int) bool {
			if summary.EntityCounts[entities[i]] != summary.EntityCounts[entities[j]] {
				return summary.EntityCounts[entities[i]] > summary.EntityCounts[entities[j]]
			}
			return entities[i] < entities[j]
		})
		text += p.Sprintf(
			" Most activity involved %s with %d transactions.",
			entities[0], summary.EntityCounts[entities[0]],
		)
	}

	return text
}
