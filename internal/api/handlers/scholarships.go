package handlers

import (
	"net/http"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/finnut/finnut/internal/api/middleware"
	bq "github.com/finnut/finnut/internal/bigquery"
)

// ScholarshipsHandler serves the scholarship listing dataset. The listings
// are independent of the scoring pipeline; an external collector refreshes
// them and this handler only reads.
type ScholarshipsHandler struct {
	repo bq.ScholarshipRepository
	log  zerolog.Logger
}

// NewScholarshipsHandler creates a new scholarships handler.
func NewScholarshipsHandler(repo bq.ScholarshipRepository, log zerolog.Logger) *ScholarshipsHandler {
	return &ScholarshipsHandler{repo: repo, log: log}
}

// ListScholarships handles GET /api/scholarships
// Query parameters: q (name/type substring), status, limit, offset.
func (h *ScholarshipsHandler) ListScholarships(w http.ResponseWriter, r *http.Request) {
	filter := bq.ScholarshipFilter{
		Query:  r.URL.Query().Get("q"),
		Status: r.URL.Query().Get("status"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Offset = n
		}
	}

	rows, err := h.repo.ListScholarships(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list scholarships")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list scholarships")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"scholarships": rows,
		"count":        len(rows),
	})
}

// GetScholarship handles GET /api/scholarships/:id
func (h *ScholarshipsHandler) GetScholarship(w http.ResponseWriter, r *http.Request, scholarshipID string) {
	row, err := h.repo.GetScholarship(r.Context(), scholarshipID)
	if err != nil {
		h.log.Error().Err(err).Str("scholarship_id", scholarshipID).Msg("Failed to get scholarship")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to get scholarship")
		return
	}
	if row == nil {
		middleware.WriteError(w, http.StatusNotFound, "Scholarship not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, row)
}
