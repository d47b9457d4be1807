package sqlite_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/emissions"
	"github.com/YazeedAlwehaibi/skyzero-dashboard/offset"
	"github.com/YazeedAlwehaibi/skyzero-dashboard/store/sqlite"
)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

// =============================================================================
// STATE
// =============================================================================

func TestState_MissingKey(t *testing.T) {
	store := newStore(t)

	_, err := store.GetState(context.Background(), offset.StorageKey)

	assert.ErrorIs(t, err, offset.ErrNoSavedState)
}

func TestState_PutReplaces(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.PutState(ctx, "k", []byte(`[1]`)))
	require.NoError(t, store.PutState(ctx, "k", []byte(`[2]`)))

	got, err := store.GetState(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, `[2]`, string(got))
}

func TestState_PlannerRoundTrip(t *testing.T) {
	// GIVEN: A planner persisting through SQLite
	// WHEN: Mutating, then loading a new planner from the same database
	// THEN: The strategy list is identical
	ctx := context.Background()
	store := newStore(t)
	registry := offset.DefaultRegistry()

	first := offset.NewPlanner(ctx, registry, offset.NewStatePersister(store))
	first.Add(ctx, offset.TypeRECs, decimal.NewFromInt(40))
	first.Add(ctx, offset.TypeSAFUsage, decimal.RequireFromString("7.5"))

	second := offset.NewPlanner(ctx, registry, offset.NewStatePersister(store))

	want, got := first.Strategies(), second.Strategies()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Type, got[i].Type)
		assert.True(t, want[i].Value.Equal(got[i].Value))
	}
}

// =============================================================================
// ACTIVITY DATA
// =============================================================================

func TestActivities_SeedOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	seeded, err := store.SeedActivities(ctx, emissions.DefaultActivities())
	require.NoError(t, err)
	assert.True(t, seeded)

	require.NoError(t, store.SaveActivity(ctx, emissions.Activity{
		Source: emissions.SourceAircraft,
		Amount: decimal.NewFromInt(50),
	}))

	seeded, err = store.SeedActivities(ctx, emissions.DefaultActivities())
	require.NoError(t, err)
	assert.False(t, seeded)

	activities, err := store.ListActivities(ctx)
	require.NoError(t, err)
	assert.Len(t, activities, len(emissions.Sources))
	for _, a := range activities {
		if a.Source == emissions.SourceAircraft {
			assert.True(t, decimal.NewFromInt(50).Equal(a.Amount))
		}
		if a.Source == emissions.SourceWaste {
			assert.Equal(t, "52.6", a.Amount.String())
		}
	}
}

func TestActivities_FeedCalculation(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	_, err := store.SeedActivities(ctx, emissions.DefaultActivities())
	require.NoError(t, err)

	activities, err := store.ListActivities(ctx)
	require.NoError(t, err)
	snap := emissions.Calculate(emissions.DefaultFactors(), activities, time.Now())

	assert.Equal(t, "8328.87", snap.Total.String())
}

// =============================================================================
// EXPORT HISTORY
// =============================================================================

func TestExports_NewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.RecordExport(ctx, sqlite.ExportRecord{
		ID: "a", Filename: "offset-report.pdf", SizeBytes: 1200,
		Baseline: decimal.NewFromInt(1000), TotalOffset: decimal.NewFromInt(30), NetEmissions: decimal.NewFromInt(970),
		StrategyCount: 2, Status: sqlite.ExportSucceeded, CreatedAt: base,
	}))
	require.NoError(t, store.RecordExport(ctx, sqlite.ExportRecord{
		ID: "b", Filename: "offset-report.pdf",
		Baseline: decimal.NewFromInt(1000), TotalOffset: decimal.Zero, NetEmissions: decimal.NewFromInt(1000),
		Status: sqlite.ExportFailed, Error: "service unavailable", CreatedAt: base.Add(time.Minute),
	}))

	records, err := store.ListExports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "b", records[0].ID)
	assert.Equal(t, sqlite.ExportFailed, records[0].Status)
	assert.Equal(t, "service unavailable", records[0].Error)
	assert.Equal(t, "a", records[1].ID)
	assert.Equal(t, 1200, records[1].SizeBytes)
	assert.Equal(t, "970", records[1].NetEmissions.String())
	assert.True(t, base.Equal(records[1].CreatedAt))
}

// =============================================================================
// FAILURE PATHS (sqlmock)
// =============================================================================

func newMockStore(t *testing.T) (*sqlite.Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS app_state").
		WillReturnResult(sqlmock.NewResult(0, 0))
	store, err := sqlite.NewFromDB(db)
	require.NoError(t, err)
	return store, mock
}

func TestNewFromDB_MigrationFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("read-only file system"))

	_, err = sqlite.NewFromDB(db)

	assert.ErrorContains(t, err, "failed to migrate database")
}

func TestGetState_QueryError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT payload FROM app_state WHERE key = ?")).
		WithArgs(offset.StorageKey).
		WillReturnError(errors.New("database is locked"))

	_, err := store.GetState(context.Background(), offset.StorageKey)

	require.Error(t, err)
	assert.NotErrorIs(t, err, offset.ErrNoSavedState)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPutState_ExecError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO app_state")).
		WithArgs("k", []byte("[]"), sqlmock.AnyArg()).
		WillReturnError(errors.New("disk full"))

	err := store.PutState(context.Background(), "k", []byte("[]"))

	assert.ErrorContains(t, err, "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedActivities_RollsBackOnFailure(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM activity_data")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO activity_data")).
		WithArgs("GSE", "300", sqlmock.AnyArg()).
		WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	seeded, err := store.SeedActivities(context.Background(), emissions.DefaultActivities())

	assert.False(t, seeded)
	assert.ErrorContains(t, err, "seed GSE")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListActivities_BadAmount(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectQuery("SELECT source, amount, updated_at FROM activity_data").
		WillReturnRows(sqlmock.NewRows([]string{"source", "amount", "updated_at"}).
			AddRow("GSE", "lots", "2026-01-01T00:00:00Z"))

	_, err := store.ListActivities(context.Background())

	assert.ErrorContains(t, err, "bad amount")
}
