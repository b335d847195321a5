package repositories

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pitwall-labs/pitwall-engine/pkg/apperrors"
	"github.com/pitwall-labs/pitwall-engine/pkg/models"
	"github.com/pitwall-labs/pitwall-engine/pkg/testhelpers"
)

func ptrInt64(v int64) *int64     { return &v }
func ptrFloat(v float64) *float64 { return &v }
func ptrStr(v string) *string     { return &v }

func TestIngestStoreRoundTrip(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	t.Cleanup(func() { tdb.TruncateAll(t) })
	ctx := context.Background()

	tx, err := tdb.DB.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	store := NewIngestStore(tx)

	// Events
	_, err = store.GetEvent(ctx, 2023, 5)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	event := &models.Event{Year: 2023, Round: 5, Name: "Miami Grand Prix"}
	require.NoError(t, store.CreateEvent(ctx, event))
	require.NotZero(t, event.ID)

	dup := &models.Event{Year: 2023, Round: 5}
	require.ErrorIs(t, store.CreateEvent(ctx, dup), apperrors.ErrConflict)

	got, err := store.GetEvent(ctx, 2023, 5)
	require.NoError(t, err)
	assert.Equal(t, "Miami Grand Prix", got.Name)

	require.NoError(t, store.UpdateEventName(ctx, event.ID, "Miami GP"))
	got, err = store.GetEvent(ctx, 2023, 5)
	require.NoError(t, err)
	assert.Equal(t, "Miami GP", got.Name)

	// Sessions
	session := &models.Session{EventID: event.ID, Code: "Q", Source: "fastf1"}
	require.NoError(t, store.CreateSession(ctx, session))
	require.ErrorIs(t, store.CreateSession(ctx, &models.Session{EventID: event.ID, Code: "Q", Source: "fastf1"}), apperrors.ErrConflict)

	// Same code under a different source is allowed.
	require.NoError(t, store.CreateSession(ctx, &models.Session{EventID: event.ID, Code: "Q", Source: "manual"}))

	// Drivers and teams
	driver := &models.Driver{Code: "VER", Name: "Max Verstappen"}
	require.NoError(t, store.CreateDriver(ctx, driver))
	require.ErrorIs(t, store.CreateDriver(ctx, &models.Driver{Code: "VER"}), apperrors.ErrConflict)
	require.NoError(t, store.UpdateDriverName(ctx, driver.ID, "M. Verstappen"))

	gotDriver, err := store.GetDriver(ctx, "VER")
	require.NoError(t, err)
	assert.Equal(t, "M. Verstappen", gotDriver.Name)

	team := &models.Team{Name: "Red Bull Racing"}
	require.NoError(t, store.CreateTeam(ctx, team))
	require.ErrorIs(t, store.CreateTeam(ctx, &models.Team{Name: "Red Bull Racing"}), apperrors.ErrConflict)

	// Results
	result := &models.SessionResult{
		SessionID:    session.ID,
		DriverID:     driver.ID,
		TeamID:       &team.ID,
		Position:     ptrInt64(1),
		Status:       ptrStr("Finished"),
		Q3Sec:        ptrFloat(86.2),
		BestLapSec:   ptrFloat(86.2),
		Laps:         ptrInt64(18),
		MainCompound: ptrStr("SOFT"),
	}
	require.NoError(t, store.InsertResult(ctx, result))
	require.ErrorIs(t,
		store.InsertResult(ctx, &models.SessionResult{SessionID: session.ID, DriverID: driver.ID}),
		apperrors.ErrConflict)

	stored, err := store.GetResult(ctx, session.ID, driver.ID)
	require.NoError(t, err)
	assert.Equal(t, result.ID, stored.ID)
	require.NotNil(t, stored.Q3Sec)
	assert.InDelta(t, 86.2, *stored.Q3Sec, 1e-9)

	stored.Position = ptrInt64(2)
	stored.Q3Sec = nil
	require.NoError(t, store.UpdateResult(ctx, stored))

	updated, err := store.GetResult(ctx, session.ID, driver.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.Position)
	assert.Equal(t, int64(2), *updated.Position)
	assert.Nil(t, updated.Q3Sec, "updates overwrite with absence, not keep stale values")

	require.NoError(t, tx.Commit(ctx))
}

func TestResultRepositoryOrdersByPosition(t *testing.T) {
	tdb := testhelpers.GetTestDB(t)
	t.Cleanup(func() { tdb.TruncateAll(t) })
	ctx := context.Background()

	tx, err := tdb.DB.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback(ctx) }()

	store := NewIngestStore(tx)

	event := &models.Event{Year: 2023, Round: 5, Name: "Miami Grand Prix"}
	require.NoError(t, store.CreateEvent(ctx, event))
	session := &models.Session{EventID: event.ID, Code: "R", Source: "fastf1"}
	require.NoError(t, store.CreateSession(ctx, session))

	team := &models.Team{Name: "Red Bull Racing"}
	require.NoError(t, store.CreateTeam(ctx, team))

	type entry struct {
		code     string
		name     string
		position *int64
		team     *int64
		bestLap  *float64
	}
	entries := []entry{
		{"HAM", "Lewis Hamilton", ptrInt64(2), nil, ptrFloat(87.1)},
		{"SAR", "Logan Sargeant", nil, nil, nil}, // unclassified
		{"VER", "Max Verstappen", ptrInt64(1), &team.ID, ptrFloat(86.2)},
	}
	for _, e := range entries {
		driver := &models.Driver{Code: e.code, Name: e.name}
		require.NoError(t, store.CreateDriver(ctx, driver))
		require.NoError(t, store.InsertResult(ctx, &models.SessionResult{
			SessionID:  session.ID,
			DriverID:   driver.ID,
			TeamID:     e.team,
			Position:   e.position,
			BestLapSec: e.bestLap,
		}))
	}
	require.NoError(t, tx.Commit(ctx))

	repo := NewResultRepository(tdb.DB)
	views, err := repo.GetSessionResults(ctx, 2023, 5, "R", "fastf1")
	require.NoError(t, err)
	require.Len(t, views, 3)

	// Classified rows first by position, unclassified last.
	assert.Equal(t, "VER", views[0].Driver)
	assert.Equal(t, "Red Bull Racing", views[0].Team)
	assert.Equal(t, "1:26.200", views[0].BestLapDisplay)
	assert.Equal(t, "HAM", views[1].Driver)
	assert.Equal(t, "", views[1].Team, "no team joins to an empty display name")
	assert.Equal(t, "SAR", views[2].Driver)
	assert.Nil(t, views[2].Position)
	assert.Empty(t, views[2].BestLapDisplay)

	// Unknown sessions yield an empty slice, not an error.
	none, err := repo.GetSessionResults(ctx, 1999, 1, "R", "fastf1")
	require.NoError(t, err)
	assert.Empty(t, none)
}
