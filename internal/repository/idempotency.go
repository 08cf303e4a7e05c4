package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// IdempotencyCacheEntry is a replayable write scoped to the authenticated
// subject that issued it. While the write is in flight the entry is Pending
// and carries no response.
type IdempotencyCacheEntry struct {
	Key          string
	Subject      string
	RequestHash  string
	Pending      bool
	StatusCode   int
	ResponseBody []byte
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

var ErrReservationLost = errors.New("idempotency reservation no longer held")

type IdempotencyRepository struct {
	db *sql.DB
}

func NewIdempotencyRepository(db *sql.DB) *IdempotencyRepository {
	return &IdempotencyRepository{db: db}
}

// Reserve claims (Key, Subject) for a new request until entry.ExpiresAt. It
// reports false when a live entry, pending or completed, already holds the
// key. Expired entries are taken over.
func (r *IdempotencyRepository) Reserve(ctx context.Context, entry *IdempotencyCacheEntry) (bool, error) {
	var key string
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO idempotency_cache (idempotency_key, subject, request_hash, status_code, response_body, created_at, expires_at)
		VALUES ($1, $2, $3, NULL, NULL, $4, $5)
		ON CONFLICT (idempotency_key, subject) DO UPDATE SET
			request_hash = EXCLUDED.request_hash,
			status_code = NULL,
			response_body = NULL,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at
		WHERE idempotency_cache.expires_at <= now()
		RETURNING idempotency_key`,
		entry.Key, entry.Subject, entry.RequestHash, entry.CreatedAt, entry.ExpiresAt,
	).Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("Reserve: %w", err)
	}
	return true, nil
}

// Complete stores the response of a reserved request and extends the entry
// to entry.ExpiresAt. It fails with ErrReservationLost when the reservation
// is gone, for example because its lease ran out and another request took it.
func (r *IdempotencyRepository) Complete(ctx context.Context, entry *IdempotencyCacheEntry) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE idempotency_cache
		SET status_code = $4, response_body = $5, expires_at = $6
		WHERE idempotency_key = $1 AND subject = $2 AND request_hash = $3 AND status_code IS NULL`,
		entry.Key, entry.Subject, entry.RequestHash, entry.StatusCode, entry.ResponseBody, entry.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("Complete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("Complete: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("Complete: %w", ErrReservationLost)
	}
	return nil
}

// Release drops a pending reservation so the request can be retried.
// Completed entries are left alone.
func (r *IdempotencyRepository) Release(ctx context.Context, key, subject string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_cache
		WHERE idempotency_key = $1 AND subject = $2 AND status_code IS NULL`,
		key, subject,
	)
	if err != nil {
		return fmt.Errorf("Release: %w", err)
	}
	return nil
}

// Get returns nil, nil when no live entry exists.
func (r *IdempotencyRepository) Get(ctx context.Context, key, subject string) (*IdempotencyCacheEntry, error) {
	var (
		e      IdempotencyCacheEntry
		status sql.NullInt32
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT idempotency_key, subject, request_hash, status_code, response_body, created_at, expires_at
		FROM idempotency_cache
		WHERE idempotency_key = $1 AND subject = $2 AND expires_at > now()`,
		key, subject,
	).Scan(&e.Key, &e.Subject, &e.RequestHash, &status, &e.ResponseBody, &e.CreatedAt, &e.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	e.Pending = !status.Valid
	e.StatusCode = int(status.Int32)
	return &e, nil
}

func (r *IdempotencyRepository) CleanExpired(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM idempotency_cache WHERE expires_at < now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("CleanExpired: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("CleanExpired: rows affected: %w", err)
	}
	return n, nil
}
