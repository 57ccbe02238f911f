// Package rules implements the pattern-rule categorization engine: literal
// substring rules derived from user-defined entities and/or inferred by the
// model over a transaction sample. It predates keyword categorization and
// remains available for the CLI's legacy mode.
package rules

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/catefolio/backend/internal/domain"
	"github.com/catefolio/backend/internal/llm"
)

// SampleSize bounds how many transactions are shown to the model when
// inferring rules.
const SampleSize = 60

// Default entities assigned when no rule matches and the transaction has no
// entity yet.
const (
	DefaultCreditEntity = "Credit"
	DefaultDebitEntity  = "Debit"
)

// TextGenerator is the inference capability rule building needs.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

// ParseError reports an unusable model response; the raw text is retained for
// diagnostics.
type ParseError struct {
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("rules: parsing model response: %v", e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// BuildRules infers rules from a bounded sample of the transactions and
// merges them with the caller-supplied user rules. User rules come first;
// exact duplicates (same pattern, field, entity and category) are dropped,
// first occurrence winning. Model failures are fatal to rule building and
// propagate to the caller.
func BuildRules(ctx context.Context, gen TextGenerator, transactions []domain.Transaction, userRules []domain.Rule) ([]domain.Rule, error) {
	prompt, err := buildRulesPrompt(sample(transactions))
	if err != nil {
		return nil, err
	}

	raw, err := gen.GenerateText(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("BuildRules: %w", err)
	}

	inferred, err := parseRules(raw)
	if err != nil {
		return nil, &ParseError{Raw: raw, Err: err}
	}

	return Dedupe(append(append([]domain.Rule{}, userRules...), inferred...)), nil
}

// FromEntities derives one description rule per entity name and per alias.
func FromEntities(entities []domain.Entity) []domain.Rule {
	var out []domain.Rule
	for _, entity := range entities {
		name := strings.TrimSpace(entity.Name)
		terms := append([]string{name}, entity.Aliases...)
		for _, term := range terms {
			term = strings.TrimSpace(term)
			if term == "" {
				continue
			}
			out = append(out, domain.Rule{
				Pattern:    term,
				MatchField: domain.MatchDescription,
				Entity:     name,
			})
		}
	}
	return out
}

// Dedupe removes exact duplicate rules, keeping order and first occurrence.
func Dedupe(in []domain.Rule) []domain.Rule {
	type key struct{ pattern, field, entity, category string }
	seen := make(map[key]struct{}, len(in))
	out := make([]domain.Rule, 0, len(in))
	for _, r := range in {
		k := key{r.Pattern, r.MatchField, r.Entity, r.Category}
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

// Apply evaluates the rules against each transaction in rule-list order. The
// first rule whose pattern occurs in its match field wins: non-empty rule
// fields overwrite the transaction's category/entity and evaluation stops.
// A rule with an empty pattern never matches. Transactions left without an
// entity default to Credit or Debit by amount sign.
func Apply(transactions []domain.Transaction, ruleList []domain.Rule) {
	for i := range transactions {
		t := &transactions[i]
		fields := map[string]string{
			domain.MatchDescription: t.Description,
			domain.MatchNote:        t.Raw.Note,
			domain.MatchDisplay:     t.Raw.Display,
			domain.MatchMemo:        t.Raw.Memo,
		}

		for _, r := range ruleList {
			if r.Pattern == "" {
				continue
			}
			haystack, ok := fields[r.MatchField]
			if !ok {
				continue
			}
			if !strings.Contains(haystack, r.Pattern) {
				continue
			}
			if r.Category != "" {
				t.Category = r.Category
			}
			if r.Entity != "" {
				t.Entity = r.Entity
			}
			break
		}

		if t.Entity == "" {
			if t.Amount > 0 {
				t.Entity = DefaultCreditEntity
			} else {
				t.Entity = DefaultDebitEntity
			}
		}
	}
}

func sample(transactions []domain.Transaction) []domain.Transaction {
	if len(transactions) <= SampleSize {
		return transactions
	}
	return transactions[:SampleSize]
}

// ruleJSON mirrors one element of the model's rule array.
type ruleJSON struct {
	Pattern    string `json:"pattern"`
	MatchField string `json:"match_field"`
	Entity     string `json:"entity"`
	Category   string `json:"category"`
}

func parseRules(raw string) ([]domain.Rule, error) {
	var parsed []ruleJSON
	if err := json.Unmarshal([]byte(llm.CleanJSON(raw)), &parsed); err != nil {
		return nil, err
	}

	out := make([]domain.Rule, 0, len(parsed))
	for _, r := range parsed {
		field := strings.TrimSpace(r.MatchField)
		if field == "" {
			field = domain.MatchDescription
		}
		out = append(out, domain.Rule{
			Pattern:    strings.TrimSpace(r.Pattern),
			MatchField: field,
			Entity:     strings.TrimSpace(r.Entity),
			Category:   strings.TrimSpace(r.Category),
		})
	}
	return out, nil
}
