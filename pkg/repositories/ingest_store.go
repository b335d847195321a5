package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pitwall-labs/pitwall-engine/pkg/apperrors"
	"github.com/pitwall-labs/pitwall-engine/pkg/ingest"
	"github.com/pitwall-labs/pitwall-engine/pkg/models"
)

// pgUniqueViolation is the PostgreSQL SQLSTATE for unique constraint errors.
const pgUniqueViolation = "23505"

// ingestStore implements ingest.Store over one open pgx transaction, so a
// whole ingestion pass commits or rolls back atomically.
type ingestStore struct {
	tx pgx.Tx
}

// NewIngestStore wraps an open transaction as an ingest.Store.
func NewIngestStore(tx pgx.Tx) ingest.Store {
	return &ingestStore{tx: tx}
}

// wrapConflict translates unique violations into apperrors.ErrConflict so
// the pipeline's row-level recovery can distinguish races from real errors.
func wrapConflict(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%s: %w", op, apperrors.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// insert runs fn inside a savepoint. A unique violation aborts only the
// savepoint, leaving the surrounding transaction usable so the caller can
// fall back to reading and updating the row it lost the race for.
func (s *ingestStore) insert(ctx context.Context, op string, fn func(pgx.Tx) error) error {
	sp, err := s.tx.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%s: begin savepoint: %w", op, err)
	}
	if err := fn(sp); err != nil {
		_ = sp.Rollback(ctx)
		return wrapConflict(err, op)
	}
	if err := sp.Commit(ctx); err != nil {
		return fmt.Errorf("%s: release savepoint: %w", op, err)
	}
	return nil
}

func (s *ingestStore) GetEvent(ctx context.Context, year, round int) (*models.Event, error) {
	query := `SELECT id, year, round, name FROM events WHERE year = $1 AND round = $2`

	var event models.Event
	err := s.tx.QueryRow(ctx, query, year, round).Scan(&event.ID, &event.Year, &event.Round, &event.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	return &event, nil
}

func (s *ingestStore) CreateEvent(ctx context.Context, event *models.Event) error {
	query := `INSERT INTO events (year, round, name) VALUES ($1, $2, $3) RETURNING id`

	return s.insert(ctx, "failed to create event", func(sp pgx.Tx) error {
		return sp.QueryRow(ctx, query, event.Year, event.Round, event.Name).Scan(&event.ID)
	})
}

func (s *ingestStore) UpdateEventName(ctx context.Context, eventID int64, name string) error {
	query := `UPDATE events SET name = $1 WHERE id = $2`

	if _, err := s.tx.Exec(ctx, query, name, eventID); err != nil {
		return fmt.Errorf("failed to update event name: %w", err)
	}
	return nil
}

func (s *ingestStore) GetSession(ctx context.Context, eventID int64, code, source string) (*models.Session, error) {
	query := `SELECT id, event_id, code, source FROM sessions WHERE event_id = $1 AND code = $2 AND source = $3`

	var session models.Session
	err := s.tx.QueryRow(ctx, query, eventID, code, source).
		Scan(&session.ID, &session.EventID, &session.Code, &session.Source)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &session, nil
}

func (s *ingestStore) CreateSession(ctx context.Context, session *models.Session) error {
	query := `INSERT INTO sessions (event_id, code, source) VALUES ($1, $2, $3) RETURNING id`

	return s.insert(ctx, "failed to create session", func(sp pgx.Tx) error {
		return sp.QueryRow(ctx, query, session.EventID, session.Code, session.Source).Scan(&session.ID)
	})
}

func (s *ingestStore) GetDriver(ctx context.Context, code string) (*models.Driver, error) {
	query := `SELECT id, code, name FROM drivers WHERE code = $1`

	var driver models.Driver
	err := s.tx.QueryRow(ctx, query, code).Scan(&driver.ID, &driver.Code, &driver.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get driver: %w", err)
	}
	return &driver, nil
}

func (s *ingestStore) CreateDriver(ctx context.Context, driver *models.Driver) error {
	query := `INSERT INTO drivers (code, name) VALUES ($1, $2) RETURNING id`

	return s.insert(ctx, "failed to create driver", func(sp pgx.Tx) error {
		return sp.QueryRow(ctx, query, driver.Code, driver.Name).Scan(&driver.ID)
	})
}

func (s *ingestStore) UpdateDriverName(ctx context.Context, driverID int64, name string) error {
	query := `UPDATE drivers SET name = $1 WHERE id = $2`

	if _, err := s.tx.Exec(ctx, query, name, driverID); err != nil {
		return fmt.Errorf("failed to update driver name: %w", err)
	}
	return nil
}

func (s *ingestStore) GetTeam(ctx context.Context, name string) (*models.Team, error) {
	query := `SELECT id, name FROM teams WHERE name = $1`

	var team models.Team
	err := s.tx.QueryRow(ctx, query, name).Scan(&team.ID, &team.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &team, nil
}

func (s *ingestStore) CreateTeam(ctx context.Context, team *models.Team) error {
	query := `INSERT INTO teams (name) VALUES ($1) RETURNING id`

	return s.insert(ctx, "failed to create team", func(sp pgx.Tx) error {
		return sp.QueryRow(ctx, query, team.Name).Scan(&team.ID)
	})
}

func (s *ingestStore) GetResult(ctx context.Context, sessionID, driverID int64) (*models.SessionResult, error) {
	query := `
		SELECT id, session_id, driver_id, team_id, position, status,
		       q1_sec, q2_sec, q3_sec, best_lap_sec, laps, main_compound
		FROM session_results
		WHERE session_id = $1 AND driver_id = $2`

	var result models.SessionResult
	err := s.tx.QueryRow(ctx, query, sessionID, driverID).Scan(
		&result.ID,
		&result.SessionID,
		&result.DriverID,
		&result.TeamID,
		&result.Position,
		&result.Status,
		&result.Q1Sec,
		&result.Q2Sec,
		&result.Q3Sec,
		&result.BestLapSec,
		&result.Laps,
		&result.MainCompound,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get session result: %w", err)
	}
	return &result, nil
}

func (s *ingestStore) InsertResult(ctx context.Context, result *models.SessionResult) error {
	query := `
		INSERT INTO session_results (
			session_id, driver_id, team_id, position, status,
			q1_sec, q2_sec, q3_sec, best_lap_sec, laps, main_compound
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`

	return s.insert(ctx, "failed to insert session result", func(sp pgx.Tx) error {
		return sp.QueryRow(ctx, query,
			result.SessionID,
			result.DriverID,
			result.TeamID,
			result.Position,
			result.Status,
			result.Q1Sec,
			result.Q2Sec,
			result.Q3Sec,
			result.BestLapSec,
			result.Laps,
			result.MainCompound,
		).Scan(&result.ID)
	})
}

func (s *ingestStore) UpdateResult(ctx context.Context, result *models.SessionResult) error {
	query := `
		UPDATE session_results
		SET team_id = $1, position = $2, status = $3,
		    q1_sec = $4, q2_sec = $5, q3_sec = $6,
		    best_lap_sec = $7, laps = $8, main_compound = $9
		WHERE id = $10`

	tag, err := s.tx.Exec(ctx, query,
		result.TeamID,
		result.Position,
		result.Status,
		result.Q1Sec,
		result.Q2Sec,
		result.Q3Sec,
		result.BestLapSec,
		result.Laps,
		result.MainCompound,
		result.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session result: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Ensure ingestStore implements ingest.Store at compile time.
var _ ingest.Store = (*ingestStore)(nil)
