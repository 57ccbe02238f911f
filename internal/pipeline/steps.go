package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/catefolio/backend/internal/aggregate"
	"github.com/catefolio/backend/internal/categorize"
	"github.com/catefolio/backend/internal/dedup"
	"github.com/catefolio/backend/internal/domain"
	"github.com/catefolio/backend/internal/ingest"
	"github.com/catefolio/backend/internal/repository"
	"github.com/catefolio/backend/internal/storage"
)

// readFilesStep validates the batch, reads every file into a frame and
// normalizes the rows into transactions.
type readFilesStep struct{}

func (s *readFilesStep) Execute(_ context.Context, state *State) error {
	if len(state.Files) == 0 {
		return &ingest.ValidationError{Reason: "no files uploaded"}
	}
	if len(state.Files) > ingest.MaxFilesPerUpload {
		return &ingest.ValidationError{
			Reason: fmt.Sprintf("too many files: %d exceeds the limit of %d", len(state.Files), ingest.MaxFilesPerUpload),
		}
	}

	for _, file := range state.Files {
		frame, err := ingest.ReadFrame(file.Name, file.Data)
		if err != nil {
			return annotate(err, file.Name)
		}

		transactions, skipped, err := ingest.Normalize(frame)
		if err != nil {
			return annotate(err, file.Name)
		}

		state.Transactions = append(state.Transactions, transactions...)
		state.RowsSkipped += skipped
	}
	return nil
}

// annotate stamps the offending filename onto a validation error.
func annotate(err error, filename string) error {
	var verr *ingest.ValidationError
	if errors.As(err, &verr) && verr.File == "" {
		verr.File = filename
	}
	return err
}

// fingerprintStep computes the upload's content signature over the raw
// (pre-dedup) transaction set.
type fingerprintStep struct{}

func (s *fingerprintStep) Execute(_ context.Context, state *State) error {
	state.ContentSignature = dedup.ContentSignature(state.Transactions)
	return nil
}

// duplicateCheckStep resolves re-uploads: the same content signature maps to
// the existing job unless Force is set, in which case the old job is removed
// and processing continues.
type duplicateCheckStep struct {
	store repository.Store
	log   zerolog.Logger
}

func (s *duplicateCheckStep) Execute(ctx context.Context, state *State) error {
	jobID, err := s.store.FindJobBySignature(ctx, state.Tenant, state.ContentSignature)
	if errors.Is(err, repository.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("duplicate check: %w", err)
	}

	if !state.Options.Force {
		state.ExistingJobID = jobID
		return nil
	}

	s.log.Info().Str("job_id", jobID).Msg("force reprocess, deleting previous job")
	if err := s.store.DeleteJob(ctx, state.Tenant, jobID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("duplicate check: deleting job %s: %w", jobID, err)
	}
	return nil
}

// dedupStep drops transactions whose row signature was already stored by any
// of the tenant's earlier jobs, or repeats within this upload.
type dedupStep struct {
	store repository.Store
	log   zerolog.Logger
}

func (s *dedupStep) Execute(ctx context.Context, state *State) error {
	existing, err := s.store.ListAllTransactions(ctx, state.Tenant)
	if err != nil {
		return fmt.Errorf("dedup: %w", err)
	}

	seen := make(dedup.SignatureSet, len(existing))
	for _, t := range existing {
		seen[dedup.Signature(t)] = struct{}{}
	}

	state.Transactions, state.DuplicatesSkipped = dedup.Filter(state.Transactions, seen)
	if state.DuplicatesSkipped > 0 {
		s.log.Debug().Int("skipped", state.DuplicatesSkipped).Msg("duplicate transactions dropped")
	}
	return nil
}

// categorizeStep runs the keyword pass and, when enabled and available, the
// LLM pass over the keyword misses.
type categorizeStep struct {
	store repository.Store
	llm   Categorizer
	log   zerolog.Logger
}

func (s *categorizeStep) Execute(ctx context.Context, state *State) error {
	categories, err := s.store.GetCategories(ctx, state.Tenant)
	if err != nil {
		return fmt.Errorf("categorize: loading categories: %w", err)
	}
	state.Categories = categories

	matched := categorize.ApplyKeywords(state.Transactions, categories)

	if !state.Options.Categorize || s.llm == nil {
		return nil
	}
	state.Categorized = true

	unmatched := categorize.Unmatched(len(state.Transactions), matched)
	assigned := s.llm.Categorize(ctx, state.Transactions, unmatched, categories)
	s.log.Debug().
		Int("keyword_matched", len(matched)).
		Int("llm_assigned", assigned).
		Msg("categorization finished")
	return nil
}

// aggregateStep derives the summary, charts and narrative.
type aggregateStep struct{}

func (s *aggregateStep) Execute(_ context.Context, state *State) error {
	summary := aggregate.Summarize(state.Transactions)
	charts := aggregate.BuildCharts(state.Transactions)

	files := make([]string, 0, len(state.Files))
	for _, f := range state.Files {
		files = append(files, f.Name)
	}

	state.Job = &domain.JobPayload{
		JobID:             newJobID(),
		Status:            domain.JobStatusProcessed,
		Files:             files,
		CreatedAt:         now(),
		Summary:           summary,
		Transactions:      state.Transactions,
		Charts:            charts,
		Categories:        domain.CategoryNames(state.Categories),
		Categorized:       state.Categorized,
		Narrative:         aggregate.Narrative(summary, charts, len(state.Transactions)),
		ContentSignature:  state.ContentSignature,
		DuplicatesSkipped: state.DuplicatesSkipped,
		RowsSkipped:       state.RowsSkipped,
		TransactionCount:  len(state.Transactions),
	}
	return nil
}

// persistStep archives the raw files and writes the job. Blob failures are
// logged but do not fail the upload.
type persistStep struct {
	store repository.Store
	blobs storage.BlobStore
	log   zerolog.Logger
}

func (s *persistStep) Execute(ctx context.Context, state *State) error {
	for _, file := range state.Files {
		if _, err := s.blobs.SaveUpload(ctx, state.Tenant, file.Name, file.Data); err != nil {
			s.log.Warn().Err(err).Str("file", file.Name).Msg("archiving upload failed")
		}
	}

	if err := s.store.SaveJob(ctx, state.Tenant, state.Job); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	return nil
}
