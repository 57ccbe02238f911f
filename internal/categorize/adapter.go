package categorize

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/catefolio/backend/internal/domain"
	"github.com/catefolio/backend/internal/llm"
)

// Defaults for batching unmatched transactions to the model.
const (
	DefaultBatchSize = 100
	DefaultWorkers   = 4
)

// TextGenerator is the inference capability the adapter needs: a prompt in,
// raw text or a typed error out.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// Adapter drives LLM categorization of keyword-missed transactions in bounded
// batches. Batch failures, whether transport or parse, are partial: the failing
// batch contributes no results and the remaining batches proceed.
type Adapter struct {
	gen       TextGenerator
	batchSize int
	workers   int
	log       zerolog.Logger
}

// NewAdapter creates an adapter around the given generator. batchSize and
// workers fall back to the package defaults when non-positive.
func NewAdapter(gen TextGenerator, batchSize, workers int, log zerolog.Logger) *Adapter {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Adapter{gen: gen, batchSize: batchSize, workers: workers, log: log}
}

// result is one validated model assignment, remapped to an index into the
// full transaction list.
type result struct {
	index    int
	category string
}

// Categorize sends the unmatched transactions to the model and applies
// validated results in place. Only the first returned category per
// transaction is applied, and only when it belongs to the valid category set;
// anything else leaves the transaction untouched. Returns the number of
// transactions that received a category. The generator is never invoked when
// unmatched is empty.
func (a *Adapter) Categorize(ctx context.Context, transactions []domain.Transaction, unmatched []int, categories []domain.Category) int {
	if len(unmatched) == 0 {
		return 0
	}

	batches := a.splitBatches(unmatched)
	results := a.runBatches(ctx, transactions, unmatched, batches, categories)

	valid := make(map[string]struct{}, len(categories))
	for _, c := range categories {
		valid[c.Name] = struct{}{}
	}

	applied := 0
	for _, r := range results {
		if r.index < 0 || r.index >= len(transactions) {
			continue
		}
		if _, ok := valid[r.category]; !ok {
			a.log.Debug().Str("category", r.category).Msg("Rejected category outside the allowed set")
			continue
		}
		transactions[r.index].Category = r.category
		applied++
	}
	return applied
}

// splitBatches partitions positions 0..len(unmatched)-1 into batchSize ranges.
func (a *Adapter) splitBatches(unmatched []int) [][2]int {
	var batches [][2]int
	for start := 0; start < len(unmatched); start += a.batchSize {
		end := start + a.batchSize
		if end > len(unmatched) {
			end = len(unmatched)
		}
		batches = append(batches, [2]int{start, end})
	}
	return batches
}

// runBatches dispatches batches to the model concurrently. Each batch's
// results are remapped from batch-local indices to indices into the full
// transaction list before being collected.
func (a *Adapter) runBatches(ctx context.Context, transactions []domain.Transaction, unmatched []int, batches [][2]int, categories []domain.Category) []result {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []result
	)

	sem := make(chan struct{}, a.workers)
	for _, span := range batches {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			batchResults := a.runOne(ctx, transactions, unmatched, start, end, categories)

			mu.Lock()
			results = append(results, batchResults...)
			mu.Unlock()
		}(span[0], span[1])
	}
	wg.Wait()

	return results
}

func (a *Adapter) runOne(ctx context.Context, transactions []domain.Transaction, unmatched []int, start, end int, categories []domain.Category) []result {
	items := make([]batchItem, 0, end-start)
	for local, pos := 0, start; pos < end; local, pos = local+1, pos+1 {
		t := transactions[unmatched[pos]]
		items = append(items, batchItem{
			Index:       local,
			Description: t.Description,
			Amount:      t.Amount,
			Note:        t.Raw.Note,
			Display:     t.Raw.Display,
			Memo:        t.Raw.Memo,
		})
	}

	prompt, err := buildCategoryPrompt(items, categories)
	if err != nil {
		a.log.Error().Err(err).Int("batch_start", start).Msg("Failed to build categorization prompt")
		return nil
	}

	raw, err := a.gen.GenerateText(ctx, prompt)
	if err != nil {
		a.log.Warn().Err(err).Int("batch_start", start).Int("batch_size", end-start).
			Msg("Categorization batch failed, continuing without it")
		return nil
	}

	parsed, err := parseCategoryResults(raw)
	if err != nil {
		// Keep the raw text around for diagnostics; the batch contributes
		// zero results but must not abort the others.
		a.log.Warn().Err(err).Str("raw_response", truncate(raw, 500)).
			Int("batch_start", start).Msg("Failed to parse categorization response")
		return nil
	}

	out := make([]result, 0, len(parsed))
	for _, p := range parsed {
		if p.Index < 0 || p.Index >= end-start {
			continue
		}
		if len(p.Categories) == 0 {
			continue
		}
		out = append(out, result{
			index:    unmatched[start+p.Index],
			category: p.Categories[0],
		})
	}
	return out
}

// categoryResult mirrors one element of the model's response array.
type categoryResult struct {
	Index      int        `json:"index"`
	Categories stringList `json:"categories"`
}

// stringList coerces a bare string into a one-element list, matching the
// prompt's tolerance for models that return "categories": "Food".
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*s = trimAll(many)
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*s = trimAll([]string{one})
	return nil
}

func parseCategoryResults(raw string) ([]categoryResult, error) {
	cleaned := llm.CleanJSON(raw)
	var results []categoryResult
	if err := json.Unmarshal([]byte(cleaned), &results); err != nil {
		return nil, err
	}
	return results, nil
}

func trimAll(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
