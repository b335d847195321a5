package ingest

import (
	"github.com/pitwall-labs/pitwall-engine/pkg/coerce"
	"github.com/pitwall-labs/pitwall-engine/pkg/models"
	"github.com/pitwall-labs/pitwall-engine/pkg/tabular"
)

// Lap table column names used by the provider.
const (
	lapDriverColumn   = "Driver"
	lapTimeColumn     = "LapTime"
	lapCompoundColumn = "Compound"
)

// AggregateLaps reduces the raw per-lap table into per-driver statistics:
// fastest lap in seconds, lap count, and the dominant tire compound.
//
// Rows without a driver identifier are excluded entirely. Lap count includes
// rows whose time or compound is missing. The dominant compound is the most
// frequent label for the driver; when two labels tie, the one that reached
// the winning count first in row order wins.
//
// A nil or empty table yields an empty map, which downstream treats as "no
// lap data for anyone".
func AggregateLaps(laps *tabular.Table) map[string]models.LapStats {
	stats := make(map[string]models.LapStats)
	if laps.Empty() {
		return stats
	}

	hasTime := laps.HasColumn(lapTimeColumn)
	hasCompound := laps.HasColumn(lapCompoundColumn)

	type acc struct {
		best          *float64
		count         int64
		compoundCount map[string]int
		dominant      string
		dominantCount int
	}
	byDriver := make(map[string]*acc)
	order := make([]string, 0, 32)

	for _, row := range laps.Rows {
		driver, ok := coerce.String(row.Value(lapDriverColumn))
		if !ok {
			continue
		}

		a := byDriver[driver]
		if a == nil {
			a = &acc{compoundCount: make(map[string]int)}
			byDriver[driver] = a
			order = append(order, driver)
		}
		a.count++

		if hasTime {
			if sec, ok := coerce.Seconds(row.Value(lapTimeColumn)); ok {
				if a.best == nil || sec < *a.best {
					a.best = &sec
				}
			}
		}

		if hasCompound {
			if compound, ok := coerce.String(row.Value(lapCompoundColumn)); ok {
				a.compoundCount[compound]++
				if a.compoundCount[compound] > a.dominantCount {
					a.dominantCount = a.compoundCount[compound]
					a.dominant = compound
				}
			}
		}
	}

	for _, driver := range order {
		a := byDriver[driver]
		s := models.LapStats{
			BestLapSec: a.best,
			LapCount:   a.count,
		}
		if a.dominantCount > 0 {
			dominant := a.dominant
			s.DominantCompound = &dominant
		}
		stats[driver] = s
	}
	return stats
}
