package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/catefolio/backend/internal/categorize"
	"github.com/catefolio/backend/internal/config"
	"github.com/catefolio/backend/internal/domain"
	"github.com/catefolio/backend/internal/llm"
	"github.com/catefolio/backend/internal/pipeline"
	"github.com/catefolio/backend/internal/repository"
	"github.com/catefolio/backend/internal/rules"
	"github.com/catefolio/backend/internal/storage"
)

func newProcessCmd(log zerolog.Logger) *cobra.Command {
	var (
		useLLM       bool
		rulesFile    string
		entitiesFile string
		inferRules   bool
		outFile      string
	)

	cmd := &cobra.Command{
		Use:   "process <statement>...",
		Short: "Normalize, deduplicate and categorize statement files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := cmd.Context()

			var categorizer pipeline.Categorizer
			var gen *llm.Client
			if useLLM || inferRules {
				gen, err = llm.NewClient(ctx, cfg.GeminiModel, log)
				if err != nil {
					return fmt.Errorf("LLM required for --categorize/--infer-rules: %w", err)
				}
			}
			if useLLM {
				categorizer = categorize.NewAdapter(gen, cfg.LLMBatchSize, cfg.LLMConcurrency, log)
			}

			files, err := readFiles(args)
			if err != nil {
				return err
			}

			store := repository.NewMemory(cfg.DefaultCategories)
			orchestrator := pipeline.New(store, storage.Noop{}, categorizer, log)

			res, err := orchestrator.ProcessUpload(ctx, repository.DefaultTenant, files, pipeline.Options{Categorize: useLLM})
			if err != nil {
				return err
			}

			if rulesFile != "" || entitiesFile != "" || inferRules {
				if err := applyRules(ctx, gen, res.Job, rulesFile, entitiesFile, inferRules); err != nil {
					return err
				}
			}

			return writeResult(res.Job, outFile)
		},
	}

	cmd.Flags().BoolVar(&useLLM, "categorize", false, "categorize keyword misses with the LLM")
	cmd.Flags().StringVar(&rulesFile, "rules-file", "", "JSON file of pattern rules to apply after processing")
	cmd.Flags().StringVar(&entitiesFile, "entities-file", "", "JSON file of entities; each name and alias seeds a description rule")
	cmd.Flags().BoolVar(&inferRules, "infer-rules", false, "infer additional rules from the transactions with the LLM")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "write the result JSON to a file instead of stdout")
	return cmd
}

func readFiles(paths []string) ([]pipeline.File, error) {
	files := make([]pipeline.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", p, err)
		}
		files = append(files, pipeline.File{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

// applyRules runs the legacy pattern-rule engine over the already processed
// transactions: entity-seeded rules first, then user rules from the file,
// plus, optionally, rules inferred by the model.
func applyRules(ctx context.Context, gen rules.TextGenerator, job *domain.JobPayload, rulesFile, entitiesFile string, infer bool) error {
	var userRules []domain.Rule
	if entitiesFile != "" {
		data, err := os.ReadFile(entitiesFile)
		if err != nil {
			return fmt.Errorf("reading entities file: %w", err)
		}
		var entities []domain.Entity
		if err := json.Unmarshal(data, &entities); err != nil {
			return fmt.Errorf("parsing entities file: %w", err)
		}
		userRules = append(userRules, rules.FromEntities(entities)...)
	}
	if rulesFile != "" {
		data, err := os.ReadFile(rulesFile)
		if err != nil {
			return fmt.Errorf("reading rules file: %w", err)
		}
		var fileRules []domain.Rule
		if err := json.Unmarshal(data, &fileRules); err != nil {
			return fmt.Errorf("parsing rules file: %w", err)
		}
		userRules = append(userRules, fileRules...)
	}

	ruleList := rules.Dedupe(userRules)
	if infer {
		var err error
		ruleList, err = rules.BuildRules(ctx, gen, job.Transactions, userRules)
		if err != nil {
			return err
		}
	}

	rules.Apply(job.Transactions, ruleList)
	return nil
}

func writeResult(job *domain.JobPayload, outFile string) error {
	encoded, err := json.MarshalIndent(job, "", "  ")
	if err != nil {
		return err
	}

	if outFile == "" {
		fmt.Println(string(encoded))
		return nil
	}
	return os.WriteFile(outFile, append(encoded, '\n'), 0o644)
}
