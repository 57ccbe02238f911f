package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/catefolio/backend/internal/aggregate"
	"github.com/catefolio/backend/internal/api/middleware"
	"github.com/catefolio/backend/internal/dedup"
	"github.com/catefolio/backend/internal/domain"
	"github.com/catefolio/backend/internal/ingest"
	"github.com/catefolio/backend/internal/pipeline"
	"github.com/catefolio/backend/internal/repository"
)

const maxUploadMemory = 32 << 20

// respondError maps domain errors onto HTTP statuses.
func respondError(w http.ResponseWriter, log zerolog.Logger, err error, msg string) {
	var verr *ingest.ValidationError
	switch {
	case errors.As(err, &verr):
		middleware.WriteError(w, http.StatusBadRequest, verr.Error())
	case errors.Is(err, repository.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	default:
		log.Error().Err(err).Msg(msg)
		middleware.WriteError(w, http.StatusInternalServerError, msg)
	}
}

// readUploadedFiles pulls every file part out of a multipart form.
func readUploadedFiles(r *http.Request) ([]pipeline.File, error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return nil, &ingest.ValidationError{Reason: "invalid multipart form"}
	}

	var files []pipeline.File
	for _, headers := range r.MultipartForm.File {
		for _, header := range headers {
			f, err := header.Open()
			if err != nil {
				return nil, fmt.Errorf("opening %s: %w", header.Filename, err)
			}
			data, err := io.ReadAll(f)
			f.Close()
			if err != nil {
				return nil, fmt.Errorf("reading %s: %w", header.Filename, err)
			}
			files = append(files, pipeline.File{Name: header.Filename, Data: data})
		}
	}
	return files, nil
}

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func boolParam(r *http.Request, name string) bool {
	v := r.URL.Query().Get(name)
	if v == "" {
		v = r.FormValue(name)
	}
	return v == "true" || v == "1"
}

// UploadHandler handles statement uploads.
type UploadHandler struct {
	orchestrator *pipeline.Orchestrator
	log          zerolog.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(orchestrator *pipeline.Orchestrator, log zerolog.Logger) *UploadHandler {
	return &UploadHandler{orchestrator: orchestrator, log: log}
}

// Upload handles POST /api/upload
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenant := middleware.TenantFromContext(ctx)

	files, err := readUploadedFiles(r)
	if err != nil {
		respondError(w, h.log, err, "Failed to read upload")
		return
	}

	opts := pipeline.Options{
		Categorize: boolParam(r, "categorize"),
		Force:      boolParam(r, "force"),
	}

	res, err := h.orchestrator.ProcessUpload(ctx, tenant, files, opts)
	if err != nil {
		respondError(w, h.log, err, "Failed to process upload")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":    res.Job.JobID,
		"status":    res.Job.Status,
		"duplicate": res.IsDuplicate,
		"summary":   res.Job.Summary,

		"transaction_count":  res.Job.TransactionCount,
		"duplicates_skipped": res.Job.DuplicatesSkipped,
		"rows_skipped":       res.Job.RowsSkipped,
	})
}

// JobsHandler serves processed jobs and their derived views.
type JobsHandler struct {
	repo repository.Store
	log  zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(repo repository.Store, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{repo: repo, log: log}
}

// GetResult handles GET /api/result/{id}
func (h *JobsHandler) GetResult(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.repo.LoadJob(r.Context(), middleware.TenantFromContext(r.Context()), jobID)
	if err != nil {
		respondError(w, h.log, err, "Failed to load job")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job)
}

// GetReport handles GET /api/report/{id}
func (h *JobsHandler) GetReport(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.repo.LoadJob(r.Context(), middleware.TenantFromContext(r.Context()), jobID)
	if err != nil {
		respondError(w, h.log, err, "Failed to load job")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"job_id":     job.JobID,
		"created_at": job.CreatedAt.Format(time.RFC3339),
		"files":      job.Files,
		"summary":    job.Summary,
		"narrative":  job.Narrative,

		"transaction_count":  job.TransactionCount,
		"duplicates_skipped": job.DuplicatesSkipped,
		"rows_skipped":       job.RowsSkipped,
		"links": map[string]string{
			"result":    "/api/result/" + job.JobID,
			"visualize": "/api/visualize/" + job.JobID,
		},
	})
}

// GetVisualization handles GET /api/visualize/{id}
func (h *JobsHandler) GetVisualization(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.repo.LoadJob(r.Context(), middleware.TenantFromContext(r.Context()), jobID)
	if err != nil {
		respondError(w, h.log, err, "Failed to load job")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, job.Charts)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	metas, err := h.repo.ListJobs(r.Context(), middleware.TenantFromContext(r.Context()))
	if err != nil {
		respondError(w, h.log, err, "Failed to list jobs")
		return
	}
	if metas == nil {
		metas = []domain.JobMeta{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  metas,
		"count": len(metas),
	})
}

// DeleteJob handles DELETE /api/jobs/{id}
func (h *JobsHandler) DeleteJob(w http.ResponseWriter, r *http.Request, jobID string) {
	if err := h.repo.DeleteJob(r.Context(), middleware.TenantFromContext(r.Context()), jobID); err != nil {
		respondError(w, h.log, err, "Failed to delete job")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"deleted": jobID})
}

// DeleteAllJobs handles DELETE /api/jobs
func (h *JobsHandler) DeleteAllJobs(w http.ResponseWriter, r *http.Request) {
	n, err := h.repo.DeleteAllJobs(r.Context(), middleware.TenantFromContext(r.Context()))
	if err != nil {
		respondError(w, h.log, err, "Failed to delete jobs")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

// TransactionsHandler serves the cross-job transaction listing.
type TransactionsHandler struct {
	repo repository.Store
	log  zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(repo repository.Store, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{repo: repo, log: log}
}

// ListTransactions handles GET /api/transactions. Rows repeated across jobs
// (force reprocessing can leave overlaps) are collapsed before the combined
// summary is computed.
func (h *TransactionsHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	transactions, err := h.repo.ListAllTransactions(ctx, middleware.TenantFromContext(ctx))
	if err != nil {
		respondError(w, h.log, err, "Failed to list transactions")
		return
	}

	transactions, _ = dedup.Filter(transactions, dedup.SignatureSet{})
	if transactions == nil {
		transactions = []domain.Transaction{}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"transactions": transactions,
		"count":        len(transactions),
		"summary":      aggregate.Summarize(transactions),
	})
}

// CategoriesHandler manages the tenant's category set.
type CategoriesHandler struct {
	repo repository.Store
	log  zerolog.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(repo repository.Store, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{repo: repo, log: log}
}

// GetCategories handles GET /api/categories
func (h *CategoriesHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.repo.GetCategories(r.Context(), middleware.TenantFromContext(r.Context()))
	if err != nil {
		respondError(w, h.log, err, "Failed to load categories")
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// PutCategories handles PUT /api/categories
func (h *CategoriesHandler) PutCategories(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Categories []domain.Category `json:"categories"`
	}
	if err := decodeJSON(r, &req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	for _, c := range req.Categories {
		if c.Name == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Category name is required")
			return
		}
	}

	if err := h.repo.SaveCategories(r.Context(), middleware.TenantFromContext(r.Context()), req.Categories); err != nil {
		respondError(w, h.log, err, "Failed to save categories")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"categories": req.Categories})
}

// EntitiesHandler manages user-defined entities.
type EntitiesHandler struct {
	repo repository.Store
	log  zerolog.Logger
}

// NewEntitiesHandler creates a new entities handler.
func NewEntitiesHandler(repo repository.Store, log zerolog.Logger) *EntitiesHandler {
	return &EntitiesHandler{repo: repo, log: log}
}

// ListEntities handles GET /api/entities
func (h *EntitiesHandler) ListEntities(w http.ResponseWriter, r *http.Request) {
	entities, err := h.repo.ListEntities(r.Context(), middleware.TenantFromContext(r.Context()))
	if err != nil {
		respondError(w, h.log, err, "Failed to list entities")
		return
	}
	if entities == nil {
		entities = []domain.Entity{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{"entities": entities})
}

// CreateEntity handles POST /api/entities
func (h *EntitiesHandler) CreateEntity(w http.ResponseWriter, r *http.Request) {
	var entity domain.Entity
	if err := decodeJSON(r, &entity); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if entity.Name == "" {
		middleware.WriteError(w, http.StatusBadRequest, "Entity name is required")
		return
	}

	entity.ID = ""
	entity.CreatedAt = time.Now().UTC()
	if err := h.repo.SaveEntity(r.Context(), middleware.TenantFromContext(r.Context()), &entity); err != nil {
		respondError(w, h.log, err, "Failed to save entity")
		return
	}
	middleware.WriteJSON(w, http.StatusCreated, entity)
}
