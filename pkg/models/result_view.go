package models

import "fmt"

// SessionResultView is the API-facing shape of one result row, joined with
// driver and team display fields. Lap-style durations carry a preformatted
// "m:ss.mmm" companion so clients do not reimplement the formatting.
type SessionResultView struct {
	Position       *int64   `json:"position"`
	Driver         string   `json:"driver"`
	DriverName     string   `json:"driver_name,omitempty"`
	Team           string   `json:"team"`
	Status         *string  `json:"status"`
	Q1Sec          *float64 `json:"q1"`
	Q2Sec          *float64 `json:"q2"`
	Q3Sec          *float64 `json:"q3"`
	BestLapSec     *float64 `json:"best_lap"`
	BestLapDisplay string   `json:"best_lap_display,omitempty"`
	Laps           *int64   `json:"laps"`
	MainCompound   *string  `json:"main_compound"`
}

// FormatLapSeconds renders seconds as "m:ss.mmm" for display.
func FormatLapSeconds(sec float64) string {
	minutes := int(sec) / 60
	rest := sec - float64(minutes*60)
	return fmt.Sprintf("%d:%06.3f", minutes, rest)
}
