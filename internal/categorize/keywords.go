// Package categorize assigns categories to transactions: a free, deterministic
// keyword pass first, then a batched LLM top-up for whatever the keywords
// missed.
package categorize

import (
	"strings"

	"github.com/catefolio/backend/internal/domain"
)

// ApplyKeywords matches each transaction's text against the category keyword
// sets and assigns the first matching category in list order; further matches
// are recorded as secondary categories. Transactions are updated in place.
// The returned set holds the indices that matched; their complement is what
// the LLM pass still has to cover.
func ApplyKeywords(transactions []domain.Transaction, categories []domain.Category) map[int]struct{} {
	matched := make(map[int]struct{})

	for i := range transactions {
		haystack := searchText(&transactions[i])

		var hits []string
		for _, category := range categories {
			for _, keyword := range category.Keywords {
				keyword = strings.TrimSpace(keyword)
				if keyword == "" {
					continue
				}
				if strings.Contains(haystack, strings.ToLower(keyword)) {
					hits = append(hits, category.Name)
					break
				}
			}
		}

		if len(hits) == 0 {
			continue
		}
		transactions[i].Category = hits[0]
		transactions[i].SecondaryCategories = hits[1:]
		matched[i] = struct{}{}
	}

	return matched
}

// Unmatched returns the indices absent from the matched set, in order.
func Unmatched(total int, matched map[int]struct{}) []int {
	missing := make([]int, 0, total-len(matched))
	for i := 0; i < total; i++ {
		if _, ok := matched[i]; !ok {
			missing = append(missing, i)
		}
	}
	return missing
}

func searchText(t *domain.Transaction) string {
	parts := []string{t.Description, t.Raw.Note, t.Raw.Display, t.Raw.Memo}
	return strings.ToLower(strings.Join(parts, " "))
}
