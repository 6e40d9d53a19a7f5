package db

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// TxRunner runs a function inside a serializable database transaction,
// retrying on serialization failures and deadlocks.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error
}

type SQLXTxRunner struct {
	db *sqlx.DB
}

func NewTxRunner(db *sqlx.DB) SQLXTxRunner {
	return SQLXTxRunner{db: db}
}

func Connect(databaseURL string) (*sqlx.DB, error) {
	database, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, err
	}
	database.SetConnMaxIdleTime(5 * time.Minute)
	database.SetMaxIdleConns(5)
	database.SetMaxOpenConns(30)
	database.SetConnMaxLifetime(30 * time.Minute)
	return database, nil
}

const maxTxAttempts = 5

func (r SQLXTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	for attempt := 1; ; attempt++ {
		err := r.runOnce(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryablePGError(err) || attempt == maxTxAttempts {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoffDelay(attempt)):
		}
	}
}

func (r SQLXTxRunner) runOnce(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func isRetryablePGError(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	// serialization_failure and deadlock_detected
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}

func backoffDelay(attempt int) time.Duration {
	base := 20 * time.Millisecond
	backoff := time.Duration(attempt*attempt) * base
	jitter := time.Duration(rand.Int63n(int64(10 * time.Millisecond)))
	return backoff + jitter
}
