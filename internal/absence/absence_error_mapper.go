package absence

import (
	"context"
	"database/sql"
	"errors"

	absenceerrors "go-hr-portal/internal/absence/errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres failure classes that mean two transactions collided:
// 40001 serialization_failure, 40P01 deadlock_detected, 55P03
// lock_not_available. All translate to the same retryable conflict so
// engine codes never reach callers.
func mapCreateTxError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return absenceerrors.ErrConcurrentConflict
		}
	}

	// The create transaction carries a hard deadline; hitting it is
	// treated like any other transactional collision.
	if errors.Is(err, context.DeadlineExceeded) {
		return absenceerrors.ErrConcurrentConflict
	}

	return err
}

func mapLookupError(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return absenceerrors.ErrAbsenceNotFound
	}
	return err
}
