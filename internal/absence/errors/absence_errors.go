package absenceerrors

import (
	"fmt"
	"net/http"
	"time"

	"go-hr-portal/internal/shared/apperror"
)

var (
	ErrInvalidID = apperror.New(
		apperror.CodeInvalidInput,
		"invalid absence request id",
		http.StatusBadRequest,
	)
	ErrInvalidDateFormat = apperror.New(
		apperror.CodeInvalidInput,
		"invalid date format, expected YYYY-MM-DD",
		http.StatusBadRequest,
	)
	ErrInvalidDateRange = apperror.New(
		apperror.CodeInvalidInput,
		"start_date must be before or equal end_date",
		http.StatusBadRequest,
	)
	ErrReasonTooShort = apperror.New(
		apperror.CodeInvalidInput,
		"reason must be at least 3 characters",
		http.StatusBadRequest,
	)
	ErrReasonTooLong = apperror.New(
		apperror.CodeInvalidInput,
		"reason must be at most 500 characters",
		http.StatusBadRequest,
	)
	ErrInvalidStatus = apperror.New(
		apperror.CodeInvalidInput,
		"status must be APPROVED or REJECTED",
		http.StatusBadRequest,
	)
	ErrInvalidCursor = apperror.New(
		apperror.CodeInvalidInput,
		"invalid pagination cursor",
		http.StatusBadRequest,
	)
	ErrAbsenceNotFound = apperror.New(
		apperror.CodeNotFound,
		"absence request not found",
		http.StatusNotFound,
	)
	ErrInvalidStatusTransition = apperror.New(
		apperror.CodeInvalidState,
		"absence request is already decided and cannot change status",
		http.StatusUnprocessableEntity,
	)
	ErrAlreadyDecided = apperror.New(
		apperror.CodeInvalidState,
		"absence request is already decided and cannot be deleted",
		http.StatusUnprocessableEntity,
	)
	ErrConcurrentConflict = apperror.New(
		apperror.CodeConflict,
		"a concurrent change touched overlapping absence requests, the request may be retried once",
		http.StatusConflict,
	)
)

// OverlapConflict names the conflicting period so the caller can render it.
func OverlapConflict(conflictStart, conflictEnd time.Time) *apperror.AppError {
	return apperror.New(
		apperror.CodeConflict,
		fmt.Sprintf(
			"requested period overlaps an existing absence from %s to %s",
			conflictStart.Format("2006-01-02"),
			conflictEnd.Format("2006-01-02"),
		),
		http.StatusConflict,
	)
}
