// Package pipeline orchestrates upload processing end to end: file reading
// and normalization, upload fingerprinting, cross-upload deduplication,
// categorization, aggregation, and persistence.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/catefolio/backend/internal/domain"
	"github.com/catefolio/backend/internal/repository"
	"github.com/catefolio/backend/internal/storage"
)

// Categorizer is the LLM top-up pass, applied to the transactions the
// keyword pass left uncategorized.
type Categorizer interface {
	Categorize(ctx context.Context, transactions []domain.Transaction, unmatched []int, categories []domain.Category) int
}

// File is one uploaded statement.
type File struct {
	Name string
	Data []byte
}

// Options control a single upload run.
type Options struct {
	// Categorize enables the LLM pass for keyword misses.
	Categorize bool
	// Force reprocesses an upload whose content was already seen, replacing
	// the earlier job.
	Force bool
}

// Result is the outcome of processing one upload.
type Result struct {
	Job *domain.JobPayload
	// IsDuplicate is set when the upload's content matched an existing job
	// and Force was off; Job then carries the existing job.
	IsDuplicate bool
}

// Step is one stage of upload processing operating on the shared State.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State is the shared state threaded through the steps of one upload run.
type State struct {
	Tenant  string
	Files   []File
	Options Options

	Transactions []domain.Transaction
	RowsSkipped  int

	ContentSignature string
	ExistingJobID    string

	Categories        []domain.Category
	Categorized       bool
	DuplicatesSkipped int

	Job *domain.JobPayload
}

// Orchestrator runs uploads through the processing steps with injected
// persistence, blob storage and an optional LLM categorizer.
type Orchestrator struct {
	store repository.Store
	blobs storage.BlobStore
	llm   Categorizer
	log   zerolog.Logger
}

// New creates an orchestrator. llm may be nil; uploads then get the keyword
// pass only, regardless of the Categorize option.
func New(store repository.Store, blobs storage.BlobStore, llm Categorizer, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		store: store,
		blobs: blobs,
		llm:   llm,
		log:   log.With().Str("component", "pipeline").Logger(),
	}
}

// ProcessUpload runs one upload batch through every step and returns the
// persisted (or previously existing) job.
func (o *Orchestrator) ProcessUpload(ctx context.Context, tenant string, files []File, opts Options) (*Result, error) {
	state := &State{Tenant: tenant, Files: files, Options: opts}

	steps := []Step{
		&readFilesStep{},
		&fingerprintStep{},
		&duplicateCheckStep{store: o.store, log: o.log},
		&dedupStep{store: o.store, log: o.log},
		&categorizeStep{store: o.store, llm: o.llm, log: o.log},
		&aggregateStep{},
		&persistStep{store: o.store, blobs: o.blobs, log: o.log},
	}

	for _, step := range steps {
		if err := step.Execute(ctx, state); err != nil {
			return nil, err
		}
		if state.ExistingJobID != "" {
			return o.existingJob(ctx, state)
		}
	}

	o.log.Info().
		Str("tenant", tenant).
		Str("job_id", state.Job.JobID).
		Int("transactions", len(state.Job.Transactions)).
		Int("duplicates_skipped", state.DuplicatesSkipped).
		Int("rows_skipped", state.RowsSkipped).
		Msg("upload processed")

	return &Result{Job: state.Job}, nil
}

func (o *Orchestrator) existingJob(ctx context.Context, state *State) (*Result, error) {
	job, err := o.store.LoadJob(ctx, state.Tenant, state.ExistingJobID)
	if err != nil {
		return nil, fmt.Errorf("ProcessUpload: loading existing job %s: %w", state.ExistingJobID, err)
	}

	o.log.Info().
		Str("tenant", state.Tenant).
		Str("job_id", job.JobID).
		Msg("duplicate upload resolved to existing job")

	return &Result{Job: job, IsDuplicate: true}, nil
}

func newJobID() string {
	return uuid.New().String()
}

func now() time.Time {
	return time.Now().UTC()
}
