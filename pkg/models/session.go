package models

// Event is a race weekend, uniquely identified by (year, round).
// Name starts empty and is refined when the provider exposes a display name.
type Event struct {
	ID    int64  `json:"id"`
	Year  int    `json:"year"`
	Round int    `json:"round"`
	Name  string `json:"name"`
}

// Session is one session of an event ("FP1", "Q", "R", ...), tagged with the
// provenance of its data. Unique per (event, code, source).
type Session struct {
	ID      int64  `json:"id"`
	EventID int64  `json:"event_id"`
	Code    string `json:"code"`
	Source  string `json:"source"`
}

// Driver is globally unique by short code ("VER"). Not season-scoped.
type Driver struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Team is globally unique by name. An unknown team is represented by the
// absence of a team reference on the result row, never by an empty-name Team.
type Team struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// SessionResult is the per-driver fact row for a session. All telemetry
// fields are optional; nil means the provider had no usable value.
// Unique per (session, driver) - the upsert key.
type SessionResult struct {
	ID        int64  `json:"id"`
	SessionID int64  `json:"session_id"`
	DriverID  int64  `json:"driver_id"`
	TeamID    *int64 `json:"team_id,omitempty"`

	Position *int64  `json:"position,omitempty"`
	Status   *string `json:"status,omitempty"`

	Q1Sec *float64 `json:"q1_sec,omitempty"`
	Q2Sec *float64 `json:"q2_sec,omitempty"`
	Q3Sec *float64 `json:"q3_sec,omitempty"`

	BestLapSec   *float64 `json:"best_lap_sec,omitempty"`
	Laps         *int64   `json:"laps,omitempty"`
	MainCompound *string  `json:"main_compound,omitempty"`
}

// LapStats is the per-driver aggregate derived from the raw lap table.
type LapStats struct {
	BestLapSec       *float64
	LapCount         int64
	DominantCompound *string
}

// ScheduleEntry is one round of a season calendar.
type ScheduleEntry struct {
	Round int    `json:"round"`
	Name  string `json:"name"`
}
