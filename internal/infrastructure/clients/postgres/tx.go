package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	apperrors "github.com/labcita/scheduling/pkg/errors"
)

// txKey carries the active transaction through the context so that every
// repository call made inside WithinTx shares it.
type txKey struct{}

// Runner is the subset of database/sql shared by *sql.DB and *sql.Tx that the
// adapters execute against.
type Runner interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// RunnerFrom returns the transaction carried by ctx, or db when ctx holds
// none.
func RunnerFrom(ctx context.Context, db *sql.DB) Runner {
	if tx, ok := ctx.Value(txKey{}).(*sql.Tx); ok {
		return tx
	}
	return db
}

// WithinTx runs fn inside one serializable transaction with the configured
// execution timeout. The conditional-update reservation plus this isolation
// level is what keeps concurrent bookings of the last seat from both
// committing.
func (c *Client) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if c.txTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.txTimeout)
		defer cancel()
	}

	tx, err := c.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return mapTxError("failed to begin transaction", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return apperrors.NewInternalError("rollback failed", errors.Join(err, rbErr))
		}
		return mapTxError("transaction aborted", err)
	}

	if err := tx.Commit(); err != nil {
		return mapTxError("failed to commit transaction", err)
	}
	return nil
}

// mapTxError classifies database failures: serialization aborts and deadlocks
// become transient (retryable), deadline expiry becomes a timeout, AppErrors
// pass through untouched.
func mapTxError(message string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	if IsSerializationFailure(err) {
		return apperrors.NewTransientError(message, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.NewTimeoutError("transaction exceeded its execution timeout", err)
	}
	return apperrors.NewInternalError(message, err)
}

// Postgres error codes for retryable transaction aborts.
const (
	serializationFailureCode = "40001"
	deadlockDetectedCode     = "40P01"
)

// IsSerializationFailure reports whether err is a Postgres serialization
// failure or deadlock, both of which are safe to retry.
func IsSerializationFailure(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	code := string(pqErr.Code)
	return code == serializationFailureCode || code == deadlockDetectedCode
}
