package aggregate

import (
	"strings"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catefolio/backend/internal/domain"
)

func tx(day int, desc string, amount float64, category, entity string) domain.Transaction {
	return domain.Transaction{
		Date:        civil.Date{Year: 2024, Month: 3, Day: day},
		Description: desc,
		Amount:      amount,
		Category:    category,
		Entity:      entity,
	}
}

func TestSummarize(t *testing.T) {
	transactions := []domain.Transaction{
		tx(1, "salary", 100, "Income", "Employer"),
		tx(2, "groceries", -40, "Food", "Me"),
		tx(3, "coffee", -10, "Dining", ""),
	}

	summary := Summarize(transactions)

	assert.Equal(t, 100.0, summary.TotalIncome)
	assert.Equal(t, 50.0, summary.TotalExpenses)
	assert.Equal(t, 50.0, summary.NetSavings)
	assert.Equal(t, map[string]int{
		"Employer":           1,
		"Me":                 1,
		domain.DefaultEntity: 1,
	}, summary.EntityCounts)
}

func TestSummarizeNanEntity(t *testing.T) {
	summary := Summarize([]domain.Transaction{
		tx(1, "a", -5, "", "nan"),
		tx(1, "b", -5, "", "NaN"),
	})

	assert.Equal(t, map[string]int{domain.DefaultEntity: 2}, summary.EntityCounts)
}

func TestSummarizeRounding(t *testing.T) {
	summary := Summarize([]domain.Transaction{
		tx(1, "a", 0.104, "", "x"),
		tx(2, "b", -0.116, "", "x"),
	})

	assert.InDelta(t, 0.10, summary.TotalIncome, 1e-9)
	assert.InDelta(t, 0.12, summary.TotalExpenses, 1e-9)
}

func TestBuildChartsEmpty(t *testing.T) {
	charts := BuildCharts(nil)

	assert.NotNil(t, charts.DailyTrend.Labels)
	assert.Empty(t, charts.DailyTrend.Labels)
	assert.Empty(t, charts.ExpenseBreakdown.Labels)
	assert.Empty(t, charts.EntityBreakdown.Labels)
}

func TestBuildChartsDailyTrend(t *testing.T) {
	charts := BuildCharts([]domain.Transaction{
		tx(2, "late", -20, "Food", "x"),
		tx(1, "early income", 100, "Income", "x"),
		tx(1, "early spend", -30, "Food", "x"),
	})

	require.Equal(t, []string{"03/01", "03/02"}, charts.DailyTrend.Labels)
	assert.Equal(t, []float64{100, 0}, charts.DailyTrend.Income)
	assert.Equal(t, []float64{30, 20}, charts.DailyTrend.Expenses)
}

func TestBuildChartsExpenseBreakdownTopSix(t *testing.T) {
	var transactions []domain.Transaction
	categories := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	for i, category := range categories {
		transactions = append(transactions, tx(1, "spend", -float64(10*(i+1)), category, "x"))
	}
	// income never contributes to the expense breakdown
	transactions = append(transactions, tx(1, "pay", 500, "A", "x"))

	charts := BuildCharts(transactions)

	require.Len(t, charts.ExpenseBreakdown.Labels, ExpenseBreakdownLimit)
	assert.Equal(t, []string{"H", "G", "F", "E", "D", "C"}, charts.ExpenseBreakdown.Labels)
	assert.Equal(t, 80.0, charts.ExpenseBreakdown.Values[0])
}

func TestBuildChartsEntityBreakdownOrder(t *testing.T) {
	charts := BuildCharts([]domain.Transaction{
		tx(1, "a", -1, "", "Beta"),
		tx(1, "b", -1, "", "Alpha"),
		tx(1, "c", -1, "", "Beta"),
		tx(1, "d", -1, "", "Gamma"),
	})

	assert.Equal(t, []string{"Beta", "Alpha", "Gamma"}, charts.EntityBreakdown.Labels)
	assert.Equal(t, []int{2, 1, 1}, charts.EntityBreakdown.Values)
}

func TestNarrative(t *testing.T) {
	transactions := []domain.Transaction{
		tx(1, "salary", 12500, "Income", "Employer"),
		tx(2, "rent", -1400, "Housing", "Landlord"),
	}
	summary := Summarize(transactions)
	charts := BuildCharts(transactions)

	text := Narrative(summary, charts, len(transactions))

	assert.Contains(t, text, "2 transactions")
	assert.Contains(t, text, "12,500.00")
	assert.Contains(t, text, "Housing")
}

func TestNarrativeEmpty(t *testing.T) {
	text := Narrative(domain.Summary{}, BuildCharts(nil), 0)
	assert.True(t, strings.Contains(text, "No transactions"))
}
