// Package provider talks to the fastf1 bridge: an HTTP service that exposes
// FastF1 session data as loosely-typed JSON tables. Column availability
// varies by season and session type, so everything downstream probes columns
// instead of assuming a schema.
package provider

import (
	"context"

	"github.com/pitwall-labs/pitwall-engine/pkg/models"
	"github.com/pitwall-labs/pitwall-engine/pkg/tabular"
)

// RawSession is one session's worth of provider data.
type RawSession struct {
	// EventName is the best display name the provider had for the event.
	// Empty when unavailable.
	EventName string `json:"event_name"`

	// Results holds one row per classified driver. May be empty for
	// sessions that have not run yet.
	Results *tabular.Table `json:"results"`

	// Laps holds one row per completed lap. Nil when the provider could not
	// produce lap data; ingestion degrades to "no lap stats" in that case.
	Laps *tabular.Table `json:"laps"`
}

// Client is the data provider surface the ingestion pipeline depends on.
type Client interface {
	// FetchSession returns results and lap data for one session. Fetch
	// failures are fatal to the caller's ingestion pass; a missing lap table
	// (Laps == nil) is not.
	FetchSession(ctx context.Context, year, round int, sessionCode string) (*RawSession, error)

	// FetchEventSchedule returns the season calendar ordered by round.
	FetchEventSchedule(ctx context.Context, year int) ([]models.ScheduleEntry, error)
}
