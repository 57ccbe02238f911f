package categorize

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/catefolio/backend/internal/domain"
)

var testCategories = []domain.Category{
	{Name: "Insurance", Keywords: []string{"bupa", "insurance"}},
	{Name: "Dining", Keywords: []string{"starbucks", "coffee"}},
	{Name: "Shopping", Keywords: []string{"amazon"}},
}

func tx(desc string) domain.Transaction {
	return domain.Transaction{Description: desc, Amount: -10, Category: domain.DefaultCategory}
}

func TestApplyKeywords(t *testing.T) {
	transactions := []domain.Transaction{
		tx("BUPA health cover"),
		tx("weekly shop"),
	}

	matched := ApplyKeywords(transactions, testCategories)

	assert.Equal(t, "Insurance", transactions[0].Category)
	assert.Equal(t, domain.DefaultCategory, transactions[1].Category)
	_, ok := matched[0]
	assert.True(t, ok)
	_, ok = matched[1]
	assert.False(t, ok)
}

func TestApplyKeywordsFirstCategoryWinsWithSecondaries(t *testing.T) {
	transactions := []domain.Transaction{tx("amazon coffee beans")}

	ApplyKeywords(transactions, testCategories)

	assert.Equal(t, "Dining", transactions[0].Category)
	assert.Equal(t, []string{"Shopping"}, transactions[0].SecondaryCategories)
}

func TestApplyKeywordsSearchesRawFields(t *testing.T) {
	transactions := []domain.Transaction{tx("card payment")}
	transactions[0].Raw.Memo = "Starbucks latte"

	matched := ApplyKeywords(transactions, testCategories)

	assert.Len(t, matched, 1)
	assert.Equal(t, "Dining", transactions[0].Category)
}

func TestUnmatched(t *testing.T) {
	matched := map[int]struct{}{0: {}, 2: {}}
	assert.Equal(t, []int{1, 3}, Unmatched(4, matched))
	assert.Empty(t, Unmatched(2, map[int]struct{}{0: {}, 1: {}}))
}

type recordingGenerator struct {
	mu      sync.Mutex
	prompts []string
	respond func(prompt string) (string, error)
}

func (g *recordingGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()
	return g.respond(prompt)
}

func TestCategorizeSkipsGeneratorWhenNothingUnmatched(t *testing.T) {
	gen := &recordingGenerator{respond: func(string) (string, error) {
		t.Fatal("generator must not be invoked")
		return "", nil
	}}
	adapter := NewAdapter(gen, 0, 0, zerolog.Nop())

	applied := adapter.Categorize(context.Background(), []domain.Transaction{tx("a")}, nil, testCategories)
	assert.Zero(t, applied)
	assert.Empty(t, gen.prompts)
}

func TestCategorizeAppliesValidatedResults(t *testing.T) {
	transactions := []domain.Transaction{tx("matched already"), tx("mystery"), tx("another mystery")}

	gen := &recordingGenerator{respond: func(string) (string, error) {
		return `[{"index":0,"categories":["Dining"]},{"index":1,"categories":["Shopping","Dining"]}]`, nil
	}}
	adapter := NewAdapter(gen, 0, 0, zerolog.Nop())

	applied := adapter.Categorize(context.Background(), transactions, []int{1, 2}, testCategories)

	assert.Equal(t, 2, applied)
	// batch-local indices remap onto the unmatched positions
	assert.Equal(t, "Dining", transactions[1].Category)
	assert.Equal(t, "Shopping", transactions[2].Category)
	assert.Equal(t, domain.DefaultCategory, transactions[0].Category)
}

func TestCategorizeRejectsUnknownCategory(t *testing.T) {
	transactions := []domain.Transaction{tx("mystery")}

	gen := &recordingGenerator{respond: func(string) (string, error) {
		return `[{"index":0,"categories":["Cryptocurrency"]}]`, nil
	}}
	adapter := NewAdapter(gen, 0, 0, zerolog.Nop())

	applied := adapter.Categorize(context.Background(), transactions, []int{0}, testCategories)

	assert.Zero(t, applied)
	assert.Equal(t, domain.DefaultCategory, transactions[0].Category)
}

func TestCategorizeCoercesBareString(t *testing.T) {
	transactions := []domain.Transaction{tx("mystery")}

	gen := &recordingGenerator{respond: func(string) (string, error) {
		return `[{"index":0,"categories":"Dining"}]`, nil
	}}
	adapter := NewAdapter(gen, 0, 0, zerolog.Nop())

	applied := adapter.Categorize(context.Background(), transactions, []int{0}, testCategories)

	assert.Equal(t, 1, applied)
	assert.Equal(t, "Dining", transactions[0].Category)
}

func TestCategorizeStripsCodeFences(t *testing.T) {
	transactions := []domain.Transaction{tx("mystery")}

	gen := &recordingGenerator{respond: func(string) (string, error) {
		return "```json\n[{\"index\":0,\"categories\":[\"Dining\"]}]\n```", nil
	}}
	adapter := NewAdapter(gen, 0, 0, zerolog.Nop())

	applied := adapter.Categorize(context.Background(), transactions, []int{0}, testCategories)
	assert.Equal(t, 1, applied)
}

func TestCategorizeFailedBatchDoesNotAbortOthers(t *testing.T) {
	transactions := []domain.Transaction{tx("first"), tx("second")}

	// batch size 1 forces two calls; make the first-item batch fail
	gen := &recordingGenerator{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "first") {
			return "", errors.New("rate limited")
		}
		return `[{"index":0,"categories":["Dining"]}]`, nil
	}}
	adapter := NewAdapter(gen, 1, 2, zerolog.Nop())

	applied := adapter.Categorize(context.Background(), transactions, []int{0, 1}, testCategories)

	assert.Equal(t, 1, applied)
	assert.Equal(t, domain.DefaultCategory, transactions[0].Category)
	assert.Equal(t, "Dining", transactions[1].Category)
	assert.Len(t, gen.prompts, 2)
}

func TestCategorizeMalformedResponseIsPartial(t *testing.T) {
	transactions := []domain.Transaction{tx("first"), tx("second")}

	gen := &recordingGenerator{respond: func(prompt string) (string, error) {
		if strings.Contains(prompt, "first") {
			return "sorry, I cannot help with that", nil
		}
		return `[{"index":0,"categories":["Shopping"]}]`, nil
	}}
	adapter := NewAdapter(gen, 1, 2, zerolog.Nop())

	applied := adapter.Categorize(context.Background(), transactions, []int{0, 1}, testCategories)

	assert.Equal(t, 1, applied)
	assert.Equal(t, "Shopping", transactions[1].Category)
}

func TestCategorizeIgnoresOutOfRangeIndices(t *testing.T) {
	transactions := []domain.Transaction{tx("mystery")}

	gen := &recordingGenerator{respond: func(string) (string, error) {
		return `[{"index":5,"categories":["Dining"]},{"index":-1,"categories":["Dining"]}]`, nil
	}}
	adapter := NewAdapter(gen, 0, 0, zerolog.Nop())

	applied := adapter.Categorize(context.Background(), transactions, []int{0}, testCategories)
	assert.Zero(t, applied)
}

func TestBuildCategoryPromptContents(t *testing.T) {
	prompt, err := buildCategoryPrompt([]batchItem{
		{Index: 0, Description: "mystery", Amount: -10},
	}, testCategories)
	require.NoError(t, err)

	assert.Contains(t, prompt, `"Insurance"`)
	assert.Contains(t, prompt, "bupa")
	assert.Contains(t, prompt, `"description":"mystery"`)

	// transaction payload is valid JSON embedded in the prompt
	start := strings.Index(prompt, "[{")
	require.GreaterOrEqual(t, start, 0)
	var items []map[string]interface{}
	decoder := json.NewDecoder(strings.NewReader(prompt[start:]))
	require.NoError(t, decoder.Decode(&items))
}
