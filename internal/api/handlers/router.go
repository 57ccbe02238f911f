package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/catefolio/backend/internal/api/middleware"
	"github.com/catefolio/backend/internal/pipeline"
	"github.com/catefolio/backend/internal/repository"
)

// NewRouter wires every endpoint and the middleware chain into a single
// http.Handler.
func NewRouter(orchestrator *pipeline.Orchestrator, repo repository.Store, log zerolog.Logger) http.Handler {
	uploadHandler := NewUploadHandler(orchestrator, log)
	jobsHandler := NewJobsHandler(repo, log)
	transactionsHandler := NewTransactionsHandler(repo, log)
	categoriesHandler := NewCategoriesHandler(repo, log)
	entitiesHandler := NewEntitiesHandler(repo, log)
	templateHandler := NewTemplateHandler(log)

	mux := http.NewServeMux()

	mux.HandleFunc("/api/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			uploadHandler.Upload(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/result/", func(w http.ResponseWriter, r *http.Request) {
		jobID := strings.TrimPrefix(r.URL.Path, "/api/result/")
		switch {
		case r.Method != http.MethodGet:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		case jobID == "":
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
		default:
			jobsHandler.GetResult(w, r, jobID)
		}
	})

	mux.HandleFunc("/api/report/", func(w http.ResponseWriter, r *http.Request) {
		jobID := strings.TrimPrefix(r.URL.Path, "/api/report/")
		switch {
		case r.Method != http.MethodGet:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		case jobID == "":
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
		default:
			jobsHandler.GetReport(w, r, jobID)
		}
	})

	mux.HandleFunc("/api/visualize/", func(w http.ResponseWriter, r *http.Request) {
		jobID := strings.TrimPrefix(r.URL.Path, "/api/visualize/")
		switch {
		case r.Method != http.MethodGet:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		case jobID == "":
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
		default:
			jobsHandler.GetVisualization(w, r, jobID)
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			jobsHandler.ListJobs(w, r)
		case http.MethodDelete:
			jobsHandler.DeleteAllJobs(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
		switch {
		case jobID == "":
			middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
		case r.Method == http.MethodGet:
			jobsHandler.GetResult(w, r, jobID)
		case r.Method == http.MethodDelete:
			jobsHandler.DeleteJob(w, r, jobID)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.ListTransactions(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			categoriesHandler.GetCategories(w, r)
		case http.MethodPut:
			categoriesHandler.PutCategories(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/entities", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			entitiesHandler.ListEntities(w, r)
		case http.MethodPost:
			entitiesHandler.CreateEntity(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/template/convert", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			templateHandler.Convert(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Tenant(mux),
				),
			),
		),
	)
}
