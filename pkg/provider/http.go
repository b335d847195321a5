package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"go.uber.org/zap"

	"github.com/pitwall-labs/pitwall-engine/pkg/apperrors"
	"github.com/pitwall-labs/pitwall-engine/pkg/coerce"
	"github.com/pitwall-labs/pitwall-engine/pkg/models"
	"github.com/pitwall-labs/pitwall-engine/pkg/retry"
)

// Schedule table column names used by the provider.
const (
	scheduleRoundColumn        = "RoundNumber"
	scheduleEventNameColumn    = "EventName"
	scheduleOfficialNameColumn = "OfficialEventName"
)

// HTTPClient talks to the fastf1 bridge over HTTP. Session responses are
// cached on disk (historical sessions never change); schedules are cached in
// memory with a TTL because the current season's calendar does.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	retryCfg   *retry.Config
	schedules  *ttlcache.Cache[int, []models.ScheduleEntry]
	logger     *zap.Logger
}

// HTTPClientOption configures an HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(c *http.Client) HTTPClientOption {
	return func(h *HTTPClient) { h.httpClient = c }
}

// WithRetryConfig overrides the fetch retry policy.
func WithRetryConfig(cfg *retry.Config) HTTPClientOption {
	return func(h *HTTPClient) { h.retryCfg = cfg }
}

// WithScheduleTTL overrides how long season schedules are cached in memory.
func WithScheduleTTL(ttl time.Duration) HTTPClientOption {
	return func(h *HTTPClient) {
		h.schedules = ttlcache.New[int, []models.ScheduleEntry](
			ttlcache.WithTTL[int, []models.ScheduleEntry](ttl),
		)
	}
}

// NewHTTPClient creates a client for the bridge at baseURL.
func NewHTTPClient(baseURL string, logger *zap.Logger, opts ...HTTPClientOption) *HTTPClient {
	h := &HTTPClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 90 * time.Second},
		retryCfg:   retry.DefaultConfig(),
		schedules: ttlcache.New[int, []models.ScheduleEntry](
			ttlcache.WithTTL[int, []models.ScheduleEntry](15 * time.Minute),
		),
		logger: logger.Named("provider"),
	}
	for _, opt := range opts {
		opt(h)
	}
	go h.schedules.Start()
	return h
}

// FetchSession implements Client.
func (h *HTTPClient) FetchSession(ctx context.Context, year, round int, sessionCode string) (*RawSession, error) {
	endpoint := h.endpoint("/session", url.Values{
		"year":    {strconv.Itoa(year)},
		"round":   {strconv.Itoa(round)},
		"session": {sessionCode},
	})

	body, err := h.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var raw RawSession
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode session response: %w", err)
	}
	return &raw, nil
}

// FetchEventSchedule implements Client. The bridge returns the calendar as a
// loose table like everything else; columns are probed, not assumed.
func (h *HTTPClient) FetchEventSchedule(ctx context.Context, year int) ([]models.ScheduleEntry, error) {
	if item := h.schedules.Get(year); item != nil {
		return item.Value(), nil
	}

	endpoint := h.endpoint("/schedule", url.Values{"year": {strconv.Itoa(year)}})
	body, err := h.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Schedule *scheduleTable `json:"schedule"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode schedule response: %w", err)
	}

	entries := parseSchedule(raw.Schedule)
	h.schedules.Set(year, entries, ttlcache.DefaultTTL)
	return entries, nil
}

type scheduleTable struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

func parseSchedule(table *scheduleTable) []models.ScheduleEntry {
	if table == nil {
		return nil
	}
	entries := make([]models.ScheduleEntry, 0, len(table.Rows))
	for _, row := range table.Rows {
		round, ok := coerce.Int(row[scheduleRoundColumn])
		if !ok {
			continue
		}
		name, ok := coerce.String(row[scheduleEventNameColumn])
		if !ok {
			name, ok = coerce.String(row[scheduleOfficialNameColumn])
		}
		if !ok {
			name = fmt.Sprintf("Round %d", round)
		}
		entries = append(entries, models.ScheduleEntry{Round: int(round), Name: name})
	}
	return entries
}

// get fetches the endpoint, consulting the disk cache first and retrying
// transient failures.
func (h *HTTPClient) get(ctx context.Context, endpoint string) ([]byte, error) {
	if c := enabledCache(); c != nil {
		if body := c.Get(endpoint); body != nil {
			return body, nil
		}
	}

	body, err := retry.DoWithResult(ctx, h.retryCfg, func() ([]byte, error) {
		return h.getOnce(ctx, endpoint)
	})
	if err != nil {
		return nil, err
	}

	if c := enabledCache(); c != nil {
		c.Put(endpoint, body)
	}
	return body, nil
}

func (h *HTTPClient) getOnce(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build provider request: %w", err)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Include the status code so the retry layer can tell 502 from 404.
		return nil, fmt.Errorf("%w: provider returned %d", apperrors.ErrProviderUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}
	return body, nil
}

func (h *HTTPClient) endpoint(path string, query url.Values) string {
	return h.baseURL + path + "?" + query.Encode()
}

// Close stops the schedule cache janitor.
func (h *HTTPClient) Close() {
	h.schedules.Stop()
}

var _ Client = (*HTTPClient)(nil)
