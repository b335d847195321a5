package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall-labs/pitwall-engine/pkg/tabular"
)

func lapTable(rows []tabular.Row) *tabular.Table {
	return tabular.New([]string{"Driver", "LapTime", "Compound"}, rows)
}

func TestAggregateLaps(t *testing.T) {
	laps := lapTable([]tabular.Row{
		{"Driver": "A", "LapTime": 90.0, "Compound": "SOFT"},
		{"Driver": "A", "LapTime": 88.2, "Compound": "SOFT"},
		{"Driver": "B", "LapTime": 95.0, "Compound": "HARD"},
	})

	stats := AggregateLaps(laps)
	require.Len(t, stats, 2)

	a := stats["A"]
	require.NotNil(t, a.BestLapSec)
	assert.InDelta(t, 88.2, *a.BestLapSec, 1e-9)
	assert.Equal(t, int64(2), a.LapCount)
	require.NotNil(t, a.DominantCompound)
	assert.Equal(t, "SOFT", *a.DominantCompound)

	b := stats["B"]
	require.NotNil(t, b.BestLapSec)
	assert.InDelta(t, 95.0, *b.BestLapSec, 1e-9)
	assert.Equal(t, int64(1), b.LapCount)
	require.NotNil(t, b.DominantCompound)
	assert.Equal(t, "HARD", *b.DominantCompound)
}

func TestAggregateLapsCountsRowsWithMissingCells(t *testing.T) {
	// A lap with no usable time or compound still counts as a lap.
	laps := lapTable([]tabular.Row{
		{"Driver": "A", "LapTime": "NaT", "Compound": "SOFT"},
		{"Driver": "A", "LapTime": 88.2, "Compound": nil},
		{"Driver": "A", "LapTime": nil, "Compound": nil},
	})

	stats := AggregateLaps(laps)
	a := stats["A"]
	assert.Equal(t, int64(3), a.LapCount)
	require.NotNil(t, a.BestLapSec)
	assert.InDelta(t, 88.2, *a.BestLapSec, 1e-9)
	require.NotNil(t, a.DominantCompound)
	assert.Equal(t, "SOFT", *a.DominantCompound)
}

func TestAggregateLapsSkipsRowsWithoutDriver(t *testing.T) {
	laps := lapTable([]tabular.Row{
		{"Driver": nil, "LapTime": 80.0, "Compound": "SOFT"},
		{"Driver": "", "LapTime": 81.0, "Compound": "SOFT"},
		{"Driver": "A", "LapTime": 90.0, "Compound": "MEDIUM"},
	})

	stats := AggregateLaps(laps)
	require.Len(t, stats, 1)
	assert.Equal(t, int64(1), stats["A"].LapCount)
}

func TestAggregateLapsCompoundTieBreak(t *testing.T) {
	// SOFT and HARD both end on two laps; SOFT reached two first.
	laps := lapTable([]tabular.Row{
		{"Driver": "A", "LapTime": 90.0, "Compound": "SOFT"},
		{"Driver": "A", "LapTime": 91.0, "Compound": "SOFT"},
		{"Driver": "A", "LapTime": 92.0, "Compound": "HARD"},
		{"Driver": "A", "LapTime": 93.0, "Compound": "HARD"},
	})

	stats := AggregateLaps(laps)
	require.NotNil(t, stats["A"].DominantCompound)
	assert.Equal(t, "SOFT", *stats["A"].DominantCompound)
}

func TestAggregateLapsMissingColumns(t *testing.T) {
	// Older seasons lack lap time and compound columns entirely.
	laps := tabular.New([]string{"Driver"}, []tabular.Row{
		{"Driver": "A"},
		{"Driver": "A"},
	})

	stats := AggregateLaps(laps)
	a := stats["A"]
	assert.Nil(t, a.BestLapSec)
	assert.Equal(t, int64(2), a.LapCount)
	assert.Nil(t, a.DominantCompound)
}

func TestAggregateLapsNilTable(t *testing.T) {
	stats := AggregateLaps(nil)
	assert.Empty(t, stats)
}

func TestAggregateLapsDurationStrings(t *testing.T) {
	laps := lapTable([]tabular.Row{
		{"Driver": "A", "LapTime": "0 days 00:01:28.200000", "Compound": "SOFT"},
		{"Driver": "A", "LapTime": "1:27.900", "Compound": "SOFT"},
	})

	stats := AggregateLaps(laps)
	require.NotNil(t, stats["A"].BestLapSec)
	assert.InDelta(t, 87.9, *stats["A"].BestLapSec, 1e-9)
}
