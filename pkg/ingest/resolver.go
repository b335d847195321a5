package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/pitwall-labs/pitwall-engine/pkg/apperrors"
	"github.com/pitwall-labs/pitwall-engine/pkg/models"
)

// Resolver implements get-or-create-then-refine semantics over the four
// entity kinds. Entities already resolved in this pass are memoized so
// repeated sightings of the same driver or team hit the store once.
//
// Refinement policy, applied uniformly: a stored display name is overwritten
// only when the candidate is non-empty and differs. Names are never cleared.
type Resolver struct {
	store Store

	drivers map[string]*models.Driver
	teams   map[string]*models.Team
}

// NewResolver creates a Resolver bound to one ingestion pass's store.
func NewResolver(store Store) *Resolver {
	return &Resolver{
		store:   store,
		drivers: make(map[string]*models.Driver),
		teams:   make(map[string]*models.Team),
	}
}

// Event resolves the event for (year, round), creating it on first sight and
// refining its name on later sightings.
func (r *Resolver) Event(ctx context.Context, year, round int, candidateName string) (*models.Event, error) {
	event, err := r.store.GetEvent(ctx, year, round)
	if errors.Is(err, apperrors.ErrNotFound) {
		event = &models.Event{Year: year, Round: round, Name: candidateName}
		if createErr := r.store.CreateEvent(ctx, event); createErr != nil {
			if errors.Is(createErr, apperrors.ErrConflict) {
				// Lost a creation race; the row exists now.
				return r.refineEvent(ctx, year, round, candidateName)
			}
			return nil, fmt.Errorf("create event %d/%d: %w", year, round, createErr)
		}
		return event, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event %d/%d: %w", year, round, err)
	}

	if candidateName != "" && event.Name != candidateName {
		if err := r.store.UpdateEventName(ctx, event.ID, candidateName); err != nil {
			return nil, fmt.Errorf("refine event name: %w", err)
		}
		event.Name = candidateName
	}
	return event, nil
}

func (r *Resolver) refineEvent(ctx context.Context, year, round int, candidateName string) (*models.Event, error) {
	event, err := r.store.GetEvent(ctx, year, round)
	if err != nil {
		return nil, fmt.Errorf("get event %d/%d after conflict: %w", year, round, err)
	}
	if candidateName != "" && event.Name != candidateName {
		if err := r.store.UpdateEventName(ctx, event.ID, candidateName); err != nil {
			return nil, fmt.Errorf("refine event name: %w", err)
		}
		event.Name = candidateName
	}
	return event, nil
}

// Session resolves the session for (event, code, source), creating it if
// absent. Sessions carry no refinable fields.
func (r *Resolver) Session(ctx context.Context, eventID int64, code, source string) (*models.Session, error) {
	session, err := r.store.GetSession(ctx, eventID, code, source)
	if errors.Is(err, apperrors.ErrNotFound) {
		session = &models.Session{EventID: eventID, Code: code, Source: source}
		if createErr := r.store.CreateSession(ctx, session); createErr != nil {
			if errors.Is(createErr, apperrors.ErrConflict) {
				return r.store.GetSession(ctx, eventID, code, source)
			}
			return nil, fmt.Errorf("create session %q: %w", code, createErr)
		}
		return session, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session %q: %w", code, err)
	}
	return session, nil
}

// Driver resolves a driver by short code, creating it on first sight and
// refining the display name afterwards. Code must be non-empty; rows without
// a resolvable code are the caller's to skip.
func (r *Resolver) Driver(ctx context.Context, code, candidateName string) (*models.Driver, error) {
	if code == "" {
		return nil, fmt.Errorf("driver code must not be empty")
	}
	if driver, ok := r.drivers[code]; ok {
		return r.refineDriver(ctx, driver, candidateName)
	}

	driver, err := r.store.GetDriver(ctx, code)
	if errors.Is(err, apperrors.ErrNotFound) {
		driver = &models.Driver{Code: code, Name: candidateName}
		if createErr := r.store.CreateDriver(ctx, driver); createErr != nil {
			if errors.Is(createErr, apperrors.ErrConflict) {
				driver, err = r.store.GetDriver(ctx, code)
				if err != nil {
					return nil, fmt.Errorf("get driver %q after conflict: %w", code, err)
				}
				r.drivers[code] = driver
				return r.refineDriver(ctx, driver, candidateName)
			}
			return nil, fmt.Errorf("create driver %q: %w", code, createErr)
		}
		r.drivers[code] = driver
		return driver, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get driver %q: %w", code, err)
	}

	r.drivers[code] = driver
	return r.refineDriver(ctx, driver, candidateName)
}

func (r *Resolver) refineDriver(ctx context.Context, driver *models.Driver, candidateName string) (*models.Driver, error) {
	if candidateName != "" && driver.Name != candidateName {
		if err := r.store.UpdateDriverName(ctx, driver.ID, candidateName); err != nil {
			return nil, fmt.Errorf("refine driver name: %w", err)
		}
		driver.Name = candidateName
	}
	return driver, nil
}

// Team resolves a team by exact name. An empty name means "no team"; the
// pipeline represents that as a nil reference, never as an empty-name row.
func (r *Resolver) Team(ctx context.Context, name string) (*models.Team, error) {
	if name == "" {
		return nil, nil
	}
	if team, ok := r.teams[name]; ok {
		return team, nil
	}

	team, err := r.store.GetTeam(ctx, name)
	if errors.Is(err, apperrors.ErrNotFound) {
		team = &models.Team{Name: name}
		if createErr := r.store.CreateTeam(ctx, team); createErr != nil {
			if errors.Is(createErr, apperrors.ErrConflict) {
				team, err = r.store.GetTeam(ctx, name)
				if err != nil {
					return nil, fmt.Errorf("get team %q after conflict: %w", name, err)
				}
				r.teams[name] = team
				return team, nil
			}
			return nil, fmt.Errorf("create team %q: %w", name, createErr)
		}
		r.teams[name] = team
		return team, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get team %q: %w", name, err)
	}

	r.teams[name] = team
	return team, nil
}
