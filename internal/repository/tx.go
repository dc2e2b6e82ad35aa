package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/lib/pq"
)

// TxOptions controls transaction isolation and retry behaviour for the
// Postgres-backed store.
type TxOptions struct {
	IsolationLevel sql.IsolationLevel
	MaxRetries     int
}

// DefaultTxOptions uses serializable isolation with a small retry budget,
// which is what the idempotent webhook insert relies on under concurrent
// delivery.
func DefaultTxOptions() TxOptions {
	return TxOptions{
		IsolationLevel: sql.LevelSerializable,
		MaxRetries:     3,
	}
}

// retryable reports whether a Postgres error is worth retrying:
// serialization failures, deadlocks and lock timeouts.
func retryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
	}
	return false
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation, used to detect concurrent idempotent inserts.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// withRetry runs fn in a transaction, retrying with jittered exponential
// backoff on transient conflicts.
func withRetry(ctx context.Context, db *sql.DB, opts TxOptions, fn func(*sql.Tx) error) error {
	var lastErr error
	backoff := 50 * time.Millisecond

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: opts.IsolationLevel})
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}

		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("rollback failed: %v (original error: %w)", rbErr, err)
			}
			if !retryable(err) {
				return err
			}
			lastErr = err
		} else if err := tx.Commit(); err != nil {
			if !retryable(err) {
				return fmt.Errorf("commit transaction: %w", err)
			}
			lastErr = err
		} else {
			return nil
		}

		if attempt == opts.MaxRetries {
			return fmt.Errorf("max retries (%d) exceeded: %w", opts.MaxRetries, lastErr)
		}

		jitter := time.Duration(rand.Int63n(int64(backoff / 4)))
		select {
		case <-time.After(backoff + jitter):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff *= 2
	}

	return lastErr
}
