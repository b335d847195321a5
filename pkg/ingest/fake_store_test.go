package ingest

import (
	"context"
	"fmt"

	"github.com/pitwall-labs/pitwall-engine/pkg/apperrors"
	"github.com/pitwall-labs/pitwall-engine/pkg/models"
)

// fakeStore is an in-memory Store honoring the same uniqueness and error
// contract as the PostgreSQL implementation.
type fakeStore struct {
	nextID int64

	events  map[string]*models.Event // "year/round"
	session map[string]*models.Session
	drivers map[string]*models.Driver
	teams   map[string]*models.Team
	results map[string]*models.SessionResult // "sessionID/driverID"

	getDriverCalls int
	getTeamCalls   int

	// raceOnCreateDriver simulates losing a creation race: the row appears
	// as if a concurrent writer inserted it, and the create reports conflict.
	raceOnCreateDriver map[string]bool
	failUpdateResult   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:             make(map[string]*models.Event),
		session:            make(map[string]*models.Session),
		drivers:            make(map[string]*models.Driver),
		teams:              make(map[string]*models.Team),
		results:            make(map[string]*models.SessionResult),
		raceOnCreateDriver: make(map[string]bool),
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func eventKey(year, round int) string { return fmt.Sprintf("%d/%d", year, round) }

func sessionKey(eventID int64, code, source string) string {
	return fmt.Sprintf("%d/%s/%s", eventID, code, source)
}

func resultKey(sessionID, driverID int64) string {
	return fmt.Sprintf("%d/%d", sessionID, driverID)
}

func (f *fakeStore) GetEvent(_ context.Context, year, round int) (*models.Event, error) {
	if e, ok := f.events[eventKey(year, round)]; ok {
		dup := *e
		return &dup, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeStore) CreateEvent(_ context.Context, event *models.Event) error {
	key := eventKey(event.Year, event.Round)
	if _, ok := f.events[key]; ok {
		return apperrors.ErrConflict
	}
	event.ID = f.id()
	stored := *event
	f.events[key] = &stored
	return nil
}

func (f *fakeStore) UpdateEventName(_ context.Context, eventID int64, name string) error {
	for _, e := range f.events {
		if e.ID == eventID {
			e.Name = name
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (f *fakeStore) GetSession(_ context.Context, eventID int64, code, source string) (*models.Session, error) {
	if s, ok := f.session[sessionKey(eventID, code, source)]; ok {
		dup := *s
		return &dup, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeStore) CreateSession(_ context.Context, session *models.Session) error {
	key := sessionKey(session.EventID, session.Code, session.Source)
	if _, ok := f.session[key]; ok {
		return apperrors.ErrConflict
	}
	session.ID = f.id()
	stored := *session
	f.session[key] = &stored
	return nil
}

func (f *fakeStore) GetDriver(_ context.Context, code string) (*models.Driver, error) {
	f.getDriverCalls++
	if d, ok := f.drivers[code]; ok {
		dup := *d
		return &dup, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeStore) CreateDriver(_ context.Context, driver *models.Driver) error {
	if f.raceOnCreateDriver[driver.Code] {
		f.raceOnCreateDriver[driver.Code] = false
		f.drivers[driver.Code] = &models.Driver{ID: f.id(), Code: driver.Code, Name: "raced-in name"}
		return apperrors.ErrConflict
	}
	if _, ok := f.drivers[driver.Code]; ok {
		return apperrors.ErrConflict
	}
	driver.ID = f.id()
	stored := *driver
	f.drivers[driver.Code] = &stored
	return nil
}

func (f *fakeStore) UpdateDriverName(_ context.Context, driverID int64, name string) error {
	for _, d := range f.drivers {
		if d.ID == driverID {
			d.Name = name
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (f *fakeStore) GetTeam(_ context.Context, name string) (*models.Team, error) {
	f.getTeamCalls++
	if tm, ok := f.teams[name]; ok {
		dup := *tm
		return &dup, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeStore) CreateTeam(_ context.Context, team *models.Team) error {
	if _, ok := f.teams[team.Name]; ok {
		return apperrors.ErrConflict
	}
	team.ID = f.id()
	stored := *team
	f.teams[team.Name] = &stored
	return nil
}

func (f *fakeStore) GetResult(_ context.Context, sessionID, driverID int64) (*models.SessionResult, error) {
	if r, ok := f.results[resultKey(sessionID, driverID)]; ok {
		dup := *r
		return &dup, nil
	}
	return nil, apperrors.ErrNotFound
}

func (f *fakeStore) InsertResult(_ context.Context, result *models.SessionResult) error {
	key := resultKey(result.SessionID, result.DriverID)
	if _, ok := f.results[key]; ok {
		return apperrors.ErrConflict
	}
	result.ID = f.id()
	stored := *result
	f.results[key] = &stored
	return nil
}

func (f *fakeStore) UpdateResult(_ context.Context, result *models.SessionResult) error {
	if f.failUpdateResult != nil {
		return f.failUpdateResult
	}
	key := resultKey(result.SessionID, result.DriverID)
	if _, ok := f.results[key]; !ok {
		return apperrors.ErrNotFound
	}
	stored := *result
	f.results[key] = &stored
	return nil
}

var _ Store = (*fakeStore)(nil)
