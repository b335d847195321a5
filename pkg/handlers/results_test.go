package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pitwall-labs/pitwall-engine/pkg/models"
	"github.com/pitwall-labs/pitwall-engine/pkg/provider"
)

type stubResultRepository struct {
	views []models.SessionResultView
	err   error

	gotYear, gotRound  int
	gotCode, gotSource string
}

func (s *stubResultRepository) GetSessionResults(_ context.Context, year, round int, code, source string) ([]models.SessionResultView, error) {
	s.gotYear, s.gotRound, s.gotCode, s.gotSource = year, round, code, source
	return s.views, s.err
}

type stubProviderClient struct {
	schedule []models.ScheduleEntry
	err      error
}

func (s *stubProviderClient) FetchSession(context.Context, int, int, string) (*provider.RawSession, error) {
	return nil, errors.New("not used")
}

func (s *stubProviderClient) FetchEventSchedule(context.Context, int) ([]models.ScheduleEntry, error) {
	return s.schedule, s.err
}

func newResultsMux(repo *stubResultRepository, client *stubProviderClient) *http.ServeMux {
	mux := http.NewServeMux()
	h := NewResultsHandler(repo, client, "fastf1", 2002, zap.NewNop())
	h.RegisterRoutes(mux)
	return mux
}

func TestYears(t *testing.T) {
	mux := newResultsMux(&stubResultRepository{}, &stubProviderClient{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/years", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var years []int
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &years))
	require.NotEmpty(t, years)
	assert.Equal(t, 2002, years[0])
	assert.Equal(t, time.Now().Year(), years[len(years)-1])
}

func TestRounds(t *testing.T) {
	client := &stubProviderClient{schedule: []models.ScheduleEntry{
		{Round: 1, Name: "Bahrain Grand Prix"},
		{Round: 2, Name: "Saudi Arabian Grand Prix"},
	}}
	mux := newResultsMux(&stubResultRepository{}, client)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rounds?year=2023", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var entries []models.ScheduleEntry
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &entries))
	assert.Equal(t, client.schedule, entries)
}

func TestRoundsMissingYear(t *testing.T) {
	mux := newResultsMux(&stubResultRepository{}, &stubProviderClient{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rounds", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRoundsProviderFailure(t *testing.T) {
	mux := newResultsMux(&stubResultRepository{}, &stubProviderClient{err: errors.New("bridge down")})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/rounds?year=2023", nil))
	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestSession(t *testing.T) {
	position := int64(1)
	bestLap := 86.2
	repo := &stubResultRepository{views: []models.SessionResultView{
		{
			Position:       &position,
			Driver:         "VER",
			DriverName:     "Max Verstappen",
			Team:           "Red Bull Racing",
			BestLapSec:     &bestLap,
			BestLapDisplay: "1:26.200",
		},
	}}
	mux := newResultsMux(repo, &stubProviderClient{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session?year=2023&round=5&session=Q", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 2023, repo.gotYear)
	assert.Equal(t, 5, repo.gotRound)
	assert.Equal(t, "Q", repo.gotCode)
	assert.Equal(t, "fastf1", repo.gotSource)

	var views []models.SessionResultView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "VER", views[0].Driver)
	assert.Equal(t, "1:26.200", views[0].BestLapDisplay)
}

func TestSessionUnknownReturnsEmptyList(t *testing.T) {
	mux := newResultsMux(&stubResultRepository{views: []models.SessionResultView{}}, &stubProviderClient{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session?year=1999&round=1&session=R", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())
}

func TestSessionInvalidParams(t *testing.T) {
	mux := newResultsMux(&stubResultRepository{}, &stubProviderClient{})

	for _, target := range []string{
		"/api/session",
		"/api/session?year=abc&round=1&session=Q",
		"/api/session?year=2023&round=1",
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, "target=%s", target)
	}
}

func TestSessionStorageFailure(t *testing.T) {
	mux := newResultsMux(&stubResultRepository{err: errors.New("db gone")}, &stubProviderClient{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session?year=2023&round=5&session=Q", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
