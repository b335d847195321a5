package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pitwall-labs/pitwall-engine/pkg/provider"
	"github.com/pitwall-labs/pitwall-engine/pkg/repositories"
)

// ResultsHandler serves the read side: seasons, calendars, and stored
// session results.
type ResultsHandler struct {
	results     repositories.ResultRepository
	provider    provider.Client
	source      string
	firstSeason int
	logger      *zap.Logger
}

// NewResultsHandler creates a ResultsHandler.
func NewResultsHandler(
	results repositories.ResultRepository,
	client provider.Client,
	source string,
	firstSeason int,
	logger *zap.Logger,
) *ResultsHandler {
	return &ResultsHandler{
		results:     results,
		provider:    client,
		source:      source,
		firstSeason: firstSeason,
		logger:      logger.Named("results_handler"),
	}
}

// RegisterRoutes registers the results handler's routes on the given mux.
func (h *ResultsHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/years", h.Years)
	mux.HandleFunc("GET /api/rounds", h.Rounds)
	mux.HandleFunc("GET /api/session", h.Session)
}

// Years handles GET /api/years: every season from the configured first one
// through the current year.
func (h *ResultsHandler) Years(w http.ResponseWriter, r *http.Request) {
	currentYear := time.Now().Year()
	years := make([]int, 0, currentYear-h.firstSeason+1)
	for y := h.firstSeason; y <= currentYear; y++ {
		years = append(years, y)
	}

	if err := WriteJSON(w, http.StatusOK, years); err != nil {
		h.logger.Error("Failed to encode years response", zap.Error(err))
	}
}

// Rounds handles GET /api/rounds?year=: the season calendar from the
// provider.
func (h *ResultsHandler) Rounds(w http.ResponseWriter, r *http.Request) {
	year, ok := ParseIntQuery(w, r, "year")
	if !ok {
		return
	}

	schedule, err := h.provider.FetchEventSchedule(r.Context(), year)
	if err != nil {
		h.logger.Error("Failed to fetch event schedule", zap.Int("year", year), zap.Error(err))
		_ = ErrorResponse(w, http.StatusBadGateway, "provider_error", "failed to fetch event schedule")
		return
	}

	if err := WriteJSON(w, http.StatusOK, schedule); err != nil {
		h.logger.Error("Failed to encode rounds response", zap.Error(err))
	}
}

// Session handles GET /api/session?year=&round=&session=: stored results for
// one session. Unknown sessions return an empty list.
func (h *ResultsHandler) Session(w http.ResponseWriter, r *http.Request) {
	year, ok := ParseIntQuery(w, r, "year")
	if !ok {
		return
	}
	round, ok := ParseIntQuery(w, r, "round")
	if !ok {
		return
	}
	sessionCode, ok := ParseStringQuery(w, r, "session")
	if !ok {
		return
	}

	views, err := h.results.GetSessionResults(r.Context(), year, round, sessionCode, h.source)
	if err != nil {
		h.logger.Error("Failed to get session results",
			zap.Int("year", year),
			zap.Int("round", round),
			zap.String("session", sessionCode),
			zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "storage_error", "failed to load session results")
		return
	}

	if err := WriteJSON(w, http.StatusOK, views); err != nil {
		h.logger.Error("Failed to encode session response", zap.Error(err))
	}
}
