package usage

import (
	"context"
	"embed"
	"errors"

	"github.com/jackc/pgx/v5"
)

// Migrations holds the goose migrations creating the usage_records table.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory of Migrations to pass to goose.
const MigrationsDir = "migrations"

// DB is the subset of pgx used by PostgresStore; *pgxpool.Pool and pgx.Tx satisfy it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const (
	getUsageQuery = `
SELECT used_count FROM usage_records
WHERE user_id = $1 AND limit_name = $2 AND period = $3`

	incrementUsageQuery = `
INSERT INTO usage_records (user_id, limit_name, period, used_count)
VALUES ($1, $2, $3, 1)
ON CONFLICT (user_id, limit_name, period) DO UPDATE
SET used_count = usage_records.used_count + 1, updated_at = now()
RETURNING used_count`

	// The WHERE clause makes the check part of the row-locking upsert:
	// concurrent callers serialize on the row and re-evaluate the condition.
	incrementUsageBelowQuery = `
INSERT INTO usage_records (user_id, limit_name, period, used_count)
VALUES ($1, $2, $3, 1)
ON CONFLICT (user_id, limit_name, period) DO UPDATE
SET used_count = usage_records.used_count + 1, updated_at = now()
WHERE usage_records.used_count < $4
RETURNING used_count`
)

// PostgresStore implements ConditionalStore on PostgreSQL.
// Apply Migrations (see internal/storage) before use.
type PostgresStore struct {
	db DB
}

// NewPostgresStore creates a store using db.
func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Get returns the counter; a missing row is not an error.
func (s *PostgresStore) Get(ctx context.Context, key Key) (int64, bool, error) {
	var count int64
	err := s.db.QueryRow(ctx, getUsageQuery, key.UserID, string(key.Limit), key.Period).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}

// Increment adds one to the counter, inserting the row on first use.
func (s *PostgresStore) Increment(ctx context.Context, key Key) (int64, error) {
	var count int64
	err := s.db.QueryRow(ctx, incrementUsageQuery, key.UserID, string(key.Limit), key.Period).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// IncrementIfBelow adds one to the counter while it is below max.
func (s *PostgresStore) IncrementIfBelow(ctx context.Context, key Key, max int64) (int64, bool, error) {
	if max <= 0 {
		// The insert path would create a row with count 1, so a zero cap never reaches it.
		count, _, err := s.Get(ctx, key)
		return count, false, err
	}

	var count int64
	err := s.db.QueryRow(ctx, incrementUsageBelowQuery, key.UserID, string(key.Limit), key.Period, max).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		// Conflict row exists and is at the cap.
		current, _, err := s.Get(ctx, key)
		return current, false, err
	}
	if err != nil {
		return 0, false, err
	}
	return count, true, nil
}
