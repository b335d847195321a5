package ingest

import (
	"context"

	"github.com/pitwall-labs/pitwall-engine/pkg/models"
)

// Store is the transactional storage surface the pipeline writes through.
// Implementations scope all operations to a single open transaction so that
// one ingestion call commits or rolls back as a unit.
//
// Lookups return apperrors.ErrNotFound when no row matches. Creates fill in
// the generated ID and surface uniqueness violations as apperrors.ErrConflict
// so the caller can fall back to updating the row a concurrent ingestion won
// the race with.
type Store interface {
	GetEvent(ctx context.Context, year, round int) (*models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event) error
	UpdateEventName(ctx context.Context, eventID int64, name string) error

	GetSession(ctx context.Context, eventID int64, code, source string) (*models.Session, error)
	CreateSession(ctx context.Context, session *models.Session) error

	GetDriver(ctx context.Context, code string) (*models.Driver, error)
	CreateDriver(ctx context.Context, driver *models.Driver) error
	UpdateDriverName(ctx context.Context, driverID int64, name string) error

	GetTeam(ctx context.Context, name string) (*models.Team, error)
	CreateTeam(ctx context.Context, team *models.Team) error

	GetResult(ctx context.Context, sessionID, driverID int64) (*models.SessionResult, error)
	InsertResult(ctx context.Context, result *models.SessionResult) error
	UpdateResult(ctx context.Context, result *models.SessionResult) error
}
