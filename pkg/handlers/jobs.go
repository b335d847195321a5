package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/pitwall-labs/pitwall-engine/pkg/apperrors"
	"github.com/pitwall-labs/pitwall-engine/pkg/services"
)

// JobsHandler enqueues session loads and answers job-status polls.
type JobsHandler struct {
	ingest  services.IngestService
	tracker *services.JobTracker
	logger  *zap.Logger
}

// NewJobsHandler creates a JobsHandler.
func NewJobsHandler(ingest services.IngestService, tracker *services.JobTracker, logger *zap.Logger) *JobsHandler {
	return &JobsHandler{
		ingest:  ingest,
		tracker: tracker,
		logger:  logger.Named("jobs_handler"),
	}
}

// RegisterRoutes registers the jobs handler's routes on the given mux.
func (h *JobsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/load-session", h.LoadSession)
	mux.HandleFunc("GET /api/jobs/{id}", h.JobStatus)
}

type loadSessionRequest struct {
	Year    *int    `json:"year"`
	Round   *int    `json:"round"`
	Session *string `json:"session"`
}

// LoadSession handles POST /api/load-session: validates the request and
// enqueues a background ingest task, returning its job ID immediately.
func (h *JobsHandler) LoadSession(w http.ResponseWriter, r *http.Request) {
	var req loadSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "expected JSON {year:int, round:int, session:string}")
		return
	}
	if req.Year == nil || req.Round == nil || req.Session == nil || *req.Session == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid_body", "year, round and session are required")
		return
	}

	task := services.NewIngestTask(h.ingest, *req.Year, *req.Round, *req.Session)
	jobID := h.tracker.Enqueue(task)

	h.logger.Info("session load enqueued",
		zap.String("job_id", jobID),
		zap.Int("year", *req.Year),
		zap.Int("round", *req.Round),
		zap.String("session", *req.Session))

	if err := WriteJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID}); err != nil {
		h.logger.Error("Failed to encode load-session response", zap.Error(err))
	}
}

// JobStatus handles GET /api/jobs/{id}.
func (h *JobsHandler) JobStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	snap, err := h.tracker.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, apperrors.ErrJobNotFound) {
			_ = ErrorResponse(w, http.StatusNotFound, "job_not_found", "job not found")
			return
		}
		h.logger.Error("Failed to look up job", zap.String("job_id", id), zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "job_lookup_failed", "failed to look up job")
		return
	}

	resp := map[string]any{
		"job_id": snap.ID,
		"status": snap.Status,
	}
	if snap.Result != nil {
		resp["result"] = snap.Result
	}
	if snap.Error != "" {
		resp["error"] = snap.Error
	}

	if err := WriteJSON(w, http.StatusOK, resp); err != nil {
		h.logger.Error("Failed to encode job status response", zap.Error(err))
	}
}
