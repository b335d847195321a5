package repositories

import (
	"context"
	"fmt"

	"github.com/pitwall-labs/pitwall-engine/pkg/database"
	"github.com/pitwall-labs/pitwall-engine/pkg/models"
)

// ResultRepository is the read path over ingested session data.
type ResultRepository interface {
	// GetSessionResults returns the stored results for one session joined
	// with driver and team, ordered by position with unclassified rows last.
	// An unknown (year, round, code) yields an empty slice, not an error.
	GetSessionResults(ctx context.Context, year, round int, code, source string) ([]models.SessionResultView, error)
}

// resultRepository implements ResultRepository using PostgreSQL.
type resultRepository struct {
	db *database.DB
}

// NewResultRepository creates a new result repository.
func NewResultRepository(db *database.DB) ResultRepository {
	return &resultRepository{db: db}
}

func (r *resultRepository) GetSessionResults(ctx context.Context, year, round int, code, source string) ([]models.SessionResultView, error) {
	query := `
		SELECT sr.position, d.code, d.name, COALESCE(t.name, ''), sr.status,
		       sr.q1_sec, sr.q2_sec, sr.q3_sec, sr.best_lap_sec, sr.laps, sr.main_compound
		FROM session_results sr
		JOIN sessions s ON s.id = sr.session_id
		JOIN events e ON e.id = s.event_id
		JOIN drivers d ON d.id = sr.driver_id
		LEFT JOIN teams t ON t.id = sr.team_id
		WHERE e.year = $1 AND e.round = $2 AND s.code = $3 AND s.source = $4
		ORDER BY sr.position IS NULL, sr.position ASC`

	rows, err := r.db.Query(ctx, query, year, round, code, source)
	if err != nil {
		return nil, fmt.Errorf("failed to get session results: %w", err)
	}
	defer rows.Close()

	views := make([]models.SessionResultView, 0, 24)
	for rows.Next() {
		var v models.SessionResultView
		err := rows.Scan(
			&v.Position,
			&v.Driver,
			&v.DriverName,
			&v.Team,
			&v.Status,
			&v.Q1Sec,
			&v.Q2Sec,
			&v.Q3Sec,
			&v.BestLapSec,
			&v.Laps,
			&v.MainCompound,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session result: %w", err)
		}
		if v.BestLapSec != nil {
			v.BestLapDisplay = models.FormatLapSeconds(*v.BestLapSec)
		}
		views = append(views, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating session results: %w", err)
	}

	return views, nil
}

// Ensure resultRepository implements ResultRepository at compile time.
var _ ResultRepository = (*resultRepository)(nil)
