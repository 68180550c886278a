package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/finnut/finnut/internal/api/middleware"
	"github.com/finnut/finnut/internal/fhi"
	"github.com/finnut/finnut/internal/jobs"
	"github.com/finnut/finnut/internal/scoring"
)

// ScoresHandler handles push ingestion and FHI scoring endpoints.
type ScoresHandler struct {
	svc       *scoring.Service
	publisher jobs.Publisher
	log       zerolog.Logger
}

// NewScoresHandler creates a new scores handler.
func NewScoresHandler(svc *scoring.Service, publisher jobs.Publisher, log zerolog.Logger) *ScoresHandler {
	return &ScoresHandler{
		svc:       svc,
		publisher: publisher,
		log:       log,
	}
}

// Score handles POST /api/score, a synchronous parse-and-score of a push
// batch against the caller's session.
func (h *ScoresHandler) Score(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string   `json:"user_id"`
		Texts  []string `json:"texts"`
		Mode   string   `json:"mode"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id is required")
		return
	}

	mode := fhi.ModeRule
	if req.Mode != "" {
		mode = fhi.Mode(req.Mode)
	}
	if mode != fhi.ModeRule && mode != fhi.ModeML {
		middleware.WriteError(w, http.StatusBadRequest, "mode must be \"rule\" or \"ml\"")
		return
	}

	result, txs, err := h.svc.ScorePush(r.Context(), req.UserID, req.Texts, mode)
	if err != nil {
		if errors.Is(err, fhi.ErrNoPredictor) {
			middleware.WriteError(w, http.StatusServiceUnavailable, "ml scoring model is not loaded")
			return
		}
		h.log.Error().Err(err).Str("user_id", req.UserID).Msg("Scoring failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Scoring failed")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"result":       result,
		"transactions": txs,
	})
}

// EnqueuePush handles POST /api/push. It accepts one push text and queues it
// for asynchronous scoring.
func (h *ScoresHandler) EnqueuePush(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"user_id"`
		Text   string `json:"text"`
		Mode   string `json:"mode"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.UserID == "" || req.Text == "" {
		middleware.WriteError(w, http.StatusBadRequest, "user_id and text are required")
		return
	}

	job := &jobs.ScorePushJob{
		UserID:  req.UserID,
		RawText: req.Text,
		Mode:    req.Mode,
	}

	if err := h.publisher.PublishScorePush(r.Context(), job); err != nil {
		h.log.Error().Err(err).Msg("Failed to enqueue scoring job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue scoring job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("user_id", req.UserID).Msg("Scoring job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"user_id": req.UserID,
		"status":  string(job.Status),
	})
}
