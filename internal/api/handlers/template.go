package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/catefolio/backend/internal/api/middleware"
	"github.com/catefolio/backend/internal/domain"
	"github.com/catefolio/backend/internal/ingest"
	"github.com/catefolio/backend/internal/pipeline"
	"github.com/catefolio/backend/internal/template"
)

// TemplateHandler converts uploaded statements into the ledger spreadsheet
// layout without persisting anything.
type TemplateHandler struct {
	log zerolog.Logger
}

// NewTemplateHandler creates a new template handler.
func NewTemplateHandler(log zerolog.Logger) *TemplateHandler {
	return &TemplateHandler{log: log}
}

// Convert handles POST /api/template/convert
func (h *TemplateHandler) Convert(w http.ResponseWriter, r *http.Request) {
	files, err := readUploadedFiles(r)
	if err != nil {
		respondError(w, h.log, err, "Failed to read upload")
		return
	}
	if len(files) == 0 {
		middleware.WriteError(w, http.StatusBadRequest, "No files uploaded")
		return
	}
	if len(files) > ingest.MaxFilesPerUpload {
		middleware.WriteError(w, http.StatusBadRequest,
			fmt.Sprintf("Too many files: limit is %d", ingest.MaxFilesPerUpload))
		return
	}

	transactions, err := normalizeFiles(files)
	if err != nil {
		respondError(w, h.log, err, "Failed to convert files")
		return
	}

	out, err := template.Build(transactions)
	if err != nil {
		respondError(w, h.log, err, "Failed to build workbook")
		return
	}

	h.log.Info().Int("rows", len(transactions)).Int("files", len(files)).Msg("template conversion finished")

	filename := fmt.Sprintf("ledger-%s.xlsx", time.Now().Format("20060102-150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func normalizeFiles(files []pipeline.File) ([]domain.Transaction, error) {
	var all []domain.Transaction
	for _, file := range files {
		frame, err := ingest.ReadFrame(file.Name, file.Data)
		if err != nil {
			return nil, err
		}
		transactions, _, err := ingest.Normalize(frame)
		if err != nil {
			return nil, err
		}
		all = append(all, transactions...)
	}
	return all, nil
}
