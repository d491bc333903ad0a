package failed

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"loanconsole/internal/reconcile/models"
	"loanconsole/pkg/platform/sentinel"
)

// PostgresStore persists failed actions one row per record. Unlike the
// single-blob backends it relies on an upsert for the dedup invariant, so
// concurrent console instances sharing a database stay consistent.
type PostgresStore struct {
	db  *sql.DB
	cap int
	ttl time.Duration
}

// Schema is the table the store expects. Applied by migrations, kept here
// as the reference definition.
const Schema = `
CREATE TABLE IF NOT EXISTS failed_actions (
    id            TEXT PRIMARY KEY,
    action_type   TEXT NOT NULL,
    account_id    TEXT NOT NULL,
    account_label TEXT NOT NULL DEFAULT '',
    params        JSONB NOT NULL,
    error_message TEXT NOT NULL,
    recorded_at   TIMESTAMPTZ NOT NULL,
    retry_count   INTEGER NOT NULL DEFAULT 0,
    UNIQUE (action_type, account_id)
);`

// NewPostgres constructs a PostgreSQL-backed failed-action store.
func NewPostgres(db *sql.DB, capacity int, ttl time.Duration) *PostgresStore {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &PostgresStore{db: db, cap: capacity, ttl: ttl}
}

// Load prunes TTL-expired rows. Row data lives in the database, so there is
// no in-memory state to replace.
func (s *PostgresStore) Load(ctx context.Context) error {
	cutoff := time.Now().Add(-s.ttl)
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM failed_actions WHERE recorded_at < $1`, cutoff); err != nil {
		return fmt.Errorf("prune expired failed actions: %w", err)
	}
	return nil
}

func (s *PostgresStore) Add(ctx context.Context, actionType models.ActionKind, accountID string, params json.RawMessage, errorMessage, accountLabel string) (string, error) {
	id := "fa_" + uuid.NewString()[:12]
	var storedID string
	err := s.db.QueryRowContext(ctx, `
        INSERT INTO failed_actions (id, action_type, account_id, account_label, params, error_message, recorded_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        ON CONFLICT (action_type, account_id) DO UPDATE
            SET error_message = EXCLUDED.error_message,
                recorded_at   = EXCLUDED.recorded_at
        RETURNING id`,
		id, string(actionType), accountID, accountLabel, []byte(params), errorMessage, time.Now(),
	).Scan(&storedID)
	if err != nil {
		return "", fmt.Errorf("add failed action: %w", err)
	}
	if err := s.evictBeyondCap(ctx); err != nil {
		return "", err
	}
	return storedID, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (*models.FailedAction, error) {
	row := s.db.QueryRowContext(ctx, `
        SELECT id, action_type, account_id, account_label, params, error_message, recorded_at, retry_count
        FROM failed_actions WHERE id = $1`, id)
	rec, err := scanFailedAction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("failed action %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("get failed action: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM failed_actions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("remove failed action: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("failed action %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) IncrementRetry(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE failed_actions SET retry_count = retry_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment retry count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("failed action %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ClearAll(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM failed_actions`); err != nil {
		return fmt.Errorf("clear failed actions: %w", err)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]models.FailedAction, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, action_type, account_id, account_label, params, error_message, recorded_at, retry_count
        FROM failed_actions ORDER BY recorded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list failed actions: %w", err)
	}
	defer rows.Close()

	var out []models.FailedAction
	for rows.Next() {
		rec, err := scanFailedAction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan failed action: %w", err)
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ActiveCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM failed_actions`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count failed actions: %w", err)
	}
	return count, nil
}

// evictBeyondCap drops the oldest rows past the capacity cap.
func (s *PostgresStore) evictBeyondCap(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
        DELETE FROM failed_actions WHERE id IN (
            SELECT id FROM failed_actions ORDER BY recorded_at DESC OFFSET $1
        )`, s.cap)
	if err != nil {
		return fmt.Errorf("evict failed actions beyond cap: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFailedAction(row rowScanner) (*models.FailedAction, error) {
	var (
		rec        models.FailedAction
		actionType string
		params     []byte
	)
	if err := row.Scan(&rec.ID, &actionType, &rec.AccountID, &rec.AccountLabel,
		&params, &rec.ErrorMessage, &rec.Timestamp, &rec.RetryCount); err != nil {
		return nil, err
	}
	rec.Type = models.ActionKind(actionType)
	rec.Params = json.RawMessage(params)
	return &rec, nil
}
