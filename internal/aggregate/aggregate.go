// Package aggregate derives the reporting views of a processed job: the
// income/expense summary, chart-ready series, and a short narrative.
package aggregate

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/catefolio/backend/internal/domain"
)

// ExpenseBreakdownLimit caps how many categories the expense chart shows.
const ExpenseBreakdownLimit = 6

// Summarize computes the job summary. Income is the sum of positive amounts,
// expenses the absolute sum of negative amounts, both rounded to cents.
// Blank or "nan" entities count under the unassigned bucket.
func Summarize(transactions []domain.Transaction) domain.Summary {
	summary := domain.Summary{EntityCounts: map[string]int{}}
	for _, t := range transactions {
		if t.Amount > 0 {
			summary.TotalIncome += t.Amount
		} else {
			summary.TotalExpenses += -t.Amount
		}
		summary.EntityCounts[normalizeEntity(t.Entity)]++
	}

	summary.TotalIncome = round2(summary.TotalIncome)
	summary.TotalExpenses = round2(summary.TotalExpenses)
	summary.NetSavings = round2(summary.TotalIncome - summary.TotalExpenses)
	return summary
}

// BuildCharts produces the three chart series. Empty input yields empty,
// non-nil arrays so the JSON shape stays stable.
func BuildCharts(transactions []domain.Transaction) domain.Charts {
	charts := domain.Charts{
		DailyTrend: domain.DailyTrend{
			Labels:   []string{},
			Income:   []float64{},
			Expenses: []float64{},
		},
		ExpenseBreakdown: domain.ExpenseBreakdown{
			Labels: []string{},
			Values: []float64{},
		},
		EntityBreakdown: domain.EntityBreakdown{
			Labels: []string{},
			Values: []int{},
		},
	}
	if len(transactions) == 0 {
		return charts
	}

	type daily struct{ income, expenses float64 }
	byDay := map[string]*daily{}
	expenseByCategory := map[string]float64{}
	byEntity := map[string]int{}

	for _, t := range transactions {
		day := fmt.Sprintf("%02d/%02d", int(t.Date.Month), t.Date.Day)
		d, ok := byDay[day]
		if !ok {
			d = &daily{}
			byDay[day] = d
		}
		if t.Amount > 0 {
			d.income += t.Amount
		} else {
			d.expenses += -t.Amount
			category := t.Category
			if category == "" {
				category = domain.DefaultCategory
			}
			expenseByCategory[category] += -t.Amount
		}
		byEntity[normalizeEntity(t.Entity)]++
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)
	for _, day := range days {
		charts.DailyTrend.Labels = append(charts.DailyTrend.Labels, day)
		charts.DailyTrend.Income = append(charts.DailyTrend.Income, round2(byDay[day].income))
		charts.DailyTrend.Expenses = append(charts.DailyTrend.Expenses, round2(byDay[day].expenses))
	}

	categories := make([]string, 0, len(expenseByCategory))
	for category := range expenseByCategory {
		categories = append(categories, category)
	}
	sort.Slice(categories, func(i, j int) bool {
		a, b := expenseByCategory[categories[i]], expenseByCategory[categories[j]]
		if a != b {
			return a > b
		}
		return categories[i] < categories[j]
	})
	if len(categories) > ExpenseBreakdownLimit {
		categories = categories[:ExpenseBreakdownLimit]
	}
	for _, category := range categories {
		charts.ExpenseBreakdown.Labels = append(charts.ExpenseBreakdown.Labels, category)
		charts.ExpenseBreakdown.Values = append(charts.ExpenseBreakdown.Values, round2(expenseByCategory[category]))
	}

	entities := make([]string, 0, len(byEntity))
	for entity := range byEntity {
		entities = append(entities, entity)
	}
	sort.Slice(entities, func(i, j int) bool {
		if byEntity[entities[i]] != byEntity[entities[j]] {
			return byEntity[entities[i]] > byEntity[entities[j]]
		}
		return entities[i] < entities[j]
	})
	for _, entity := range entities {
		charts.EntityBreakdown.Labels = append(charts.EntityBreakdown.Labels, entity)
		charts.EntityBreakdown.Values = append(charts.EntityBreakdown.Values, byEntity[entity])
	}

	return charts
}

func normalizeEntity(entity string) string {
	entity = strings.TrimSpace(entity)
	if entity == "" || strings.EqualFold(entity, "nan") {
		return domain.DefaultEntity
	}
	return entity
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
