/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Durable state for the dashboard backend: the saved offset strategy list,
  activity data per emissions source, and the history of generated reports.

INTERFACES IMPLEMENTED:
  offset.StateStore:       Key/value payloads (strategy list)
  emissions.ActivityStore: Activity amounts per source

KEY TABLES:
  app_state:      One opaque payload per key, replaced on every save
  activity_data:  Latest activity amount per source
  report_exports: Append-only log of report export attempts

DECIMALS:
  Amounts are stored as TEXT so values round-trip exactly.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety on top of SQLite's own locking.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging): readers don't block the
  single writer.

USAGE:
  store, err := sqlite.New("./data/skyzero.db")
  if err != nil {
      return err
  }
  defer store.Close()

  planner := offset.NewPlanner(ctx, registry, offset.NewStatePersister(store))

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - offset/persist.go: StateStore contract
  - offset/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/YazeedAlwehaibi/skyzero-dashboard/emissions"
	"github.com/YazeedAlwehaibi/skyzero-dashboard/offset"
)

var (
	_ offset.StateStore       = (*Store)(nil)
	_ emissions.ActivityStore = (*Store)(nil)
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store, err := NewFromDB(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewFromDB wraps an open database handle and migrates it.
func NewFromDB(db *sql.DB) (*Store, error) {
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Saved UI/engine state, one payload per key
	CREATE TABLE IF NOT EXISTS app_state (
		key TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Latest activity amount per emissions source
	CREATE TABLE IF NOT EXISTS activity_data (
		source TEXT PRIMARY KEY,
		amount TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Report exports (append-only)
	CREATE TABLE IF NOT EXISTS report_exports (
		id TEXT PRIMARY KEY,
		filename TEXT NOT NULL,
		size_bytes INTEGER NOT NULL DEFAULT 0,
		baseline TEXT NOT NULL,
		total_offset TEXT NOT NULL,
		net_emissions TEXT NOT NULL,
		strategy_count INTEGER NOT NULL,
		status TEXT NOT NULL,
		error TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_report_exports_created_at
		ON report_exports(created_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// STATE STORE (offset.StateStore interface)
// =============================================================================

// GetState returns the payload saved under key, or offset.ErrNoSavedState.
func (s *Store) GetState(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var payload []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT payload FROM app_state WHERE key = ?", key,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, offset.ErrNoSavedState
	}
	if err != nil {
		return nil, fmt.Errorf("load state %q: %w", key, err)
	}
	return payload, nil
}

// PutState creates or replaces the payload saved under key.
func (s *Store) PutState(ctx context.Context, key string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO app_state (key, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := s.db.ExecContext(ctx, query, key, payload, now); err != nil {
		return fmt.Errorf("save state %q: %w", key, err)
	}
	return nil
}

// =============================================================================
// ACTIVITY STORE (emissions.ActivityStore interface)
// =============================================================================

// ListActivities returns every stored activity, ordered by source name.
func (s *Store) ListActivities(ctx context.Context) ([]emissions.Activity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT source, amount, updated_at FROM activity_data ORDER BY source",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []emissions.Activity
	for rows.Next() {
		var source, amount, updatedAt string
		if err := rows.Scan(&source, &amount, &updatedAt); err != nil {
			return nil, err
		}
		value, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("activity %s: bad amount %q: %w", source, amount, err)
		}
		a := emissions.Activity{Source: emissions.Source(source), Amount: value}
		a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

// SaveActivity creates or replaces the activity amount for a source.
func (s *Store) SaveActivity(ctx context.Context, a emissions.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.saveActivity(ctx, s.db, a)
}

func (s *Store) saveActivity(ctx context.Context, db interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}, a emissions.Activity) error {
	query := `
		INSERT INTO activity_data (source, amount, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			amount = excluded.amount,
			updated_at = excluded.updated_at
	`
	updatedAt := a.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}
	_, err := db.ExecContext(ctx, query, string(a.Source), a.Amount.String(), updatedAt.UTC().Format(time.RFC3339))
	return err
}

// SeedActivities inserts the given amounts only when activity_data is empty,
// atomically. It reports whether anything was written.
func (s *Store) SeedActivities(ctx context.Context, amounts map[emissions.Source]decimal.Decimal) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM activity_data").Scan(&count); err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}

	now := time.Now()
	for _, src := range emissions.Sources {
		amount, ok := amounts[src]
		if !ok {
			continue
		}
		if err := s.saveActivity(ctx, tx, emissions.Activity{Source: src, Amount: amount, UpdatedAt: now}); err != nil {
			return false, fmt.Errorf("seed %s: %w", src, err)
		}
	}
	return true, tx.Commit()
}

// =============================================================================
// REPORT EXPORT HISTORY
// =============================================================================

// exportTimeLayout keeps fixed-width timestamps so created_at sorts as text.
const exportTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// ExportStatus is the outcome of one export attempt.
type ExportStatus string

const (
	ExportSucceeded ExportStatus = "succeeded"
	ExportFailed    ExportStatus = "failed"
)

// ExportRecord is one row of report_exports.
type ExportRecord struct {
	ID            string
	Filename      string
	SizeBytes     int
	Baseline      decimal.Decimal
	TotalOffset   decimal.Decimal
	NetEmissions  decimal.Decimal
	StrategyCount int
	Status        ExportStatus
	Error         string
	CreatedAt     time.Time
}

// RecordExport appends an export attempt.
func (s *Store) RecordExport(ctx context.Context, rec ExportRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO report_exports
			(id, filename, size_bytes, baseline, total_offset, net_emissions,
			 strategy_count, status, error, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	var errText sql.NullString
	if rec.Error != "" {
		errText = sql.NullString{String: rec.Error, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.Filename, rec.SizeBytes,
		rec.Baseline.String(), rec.TotalOffset.String(), rec.NetEmissions.String(),
		rec.StrategyCount, string(rec.Status), errText,
		createdAt.UTC().Format(exportTimeLayout),
	)
	if err != nil {
		return fmt.Errorf("record export %s: %w", rec.ID, err)
	}
	return nil
}

// ListExports returns the most recent exports first, at most limit rows.
func (s *Store) ListExports(ctx context.Context, limit int) ([]ExportRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, filename, size_bytes, baseline, total_offset, net_emissions,
		       strategy_count, status, error, created_at
		FROM report_exports
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []ExportRecord
	for rows.Next() {
		var rec ExportRecord
		var baseline, total, net, status, createdAt string
		var errText sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.SizeBytes, &baseline, &total, &net,
			&rec.StrategyCount, &status, &errText, &createdAt); err != nil {
			return nil, err
		}
		rec.Baseline, _ = decimal.NewFromString(baseline)
		rec.TotalOffset, _ = decimal.NewFromString(total)
		rec.NetEmissions, _ = decimal.NewFromString(net)
		rec.Status = ExportStatus(status)
		rec.Error = errText.String
		rec.CreatedAt, _ = time.Parse(exportTimeLayout, createdAt)
		records = append(records, rec)
	}
	return records, rows.Err()
}
