package absence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Stats struct {
	Total    int64
	Pending  int64
	Approved int64
	Rejected int64
}

// BulkDecision identifies a row changed by a bulk approval; the owner
// id rides along so callers can drop per-owner caches.
type BulkDecision struct {
	ID      uuid.UUID
	OwnerID uuid.UUID
}

// Repository is implemented over raw SQL so the create pipeline's
// statements genuinely run inside the caller's transaction. Every query
// carries the organization predicate; there is no unscoped path.
//
//go:generate mockgen -source=absence_repo.go -destination=mock/absence_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, a *AbsenceRequest) error
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*AbsenceRequest, error)
	FindActiveByOwner(ctx context.Context, orgID, ownerID uuid.UUID, excludeID *uuid.UUID) ([]AbsenceRequest, error)
	ListByOwner(ctx context.Context, orgID, ownerID uuid.UUID) ([]AbsenceRequest, error)
	ListPage(ctx context.Context, orgID uuid.UUID, afterID *uuid.UUID, limit int, status *Status) ([]AbsenceRequest, error)
	DecideIfPending(ctx context.Context, orgID, id uuid.UUID, to Status, decidedBy uuid.UUID, decidedAt time.Time) (int64, error)
	BulkApprovePending(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID, decidedBy uuid.UUID, decidedAt time.Time) ([]BulkDecision, error)
	SoftDeleteIfPending(ctx context.Context, orgID, id uuid.UUID) (int64, error)
	CountByStatus(ctx context.Context, orgID, ownerID uuid.UUID) (Stats, error)
}

type repository struct {
	db *sql.DB
	tx *sql.Tx
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

const absenceColumns = `
	id, organization_id, owner_id, start_date, end_date, reason, status,
	decided_by, decided_at, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAbsence(row rowScanner) (*AbsenceRequest, error) {
	var a AbsenceRequest
	var decidedBy uuid.NullUUID
	var decidedAt sql.NullTime

	if err := row.Scan(
		&a.ID,
		&a.OrganizationID,
		&a.OwnerID,
		&a.StartDate,
		&a.EndDate,
		&a.Reason,
		&a.Status,
		&decidedBy,
		&decidedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if decidedBy.Valid {
		a.DecidedBy = &decidedBy.UUID
	}
	if decidedAt.Valid {
		a.DecidedAt = &decidedAt.Time
	}
	return &a, nil
}

func (r *repository) Create(ctx context.Context, a *AbsenceRequest) error {
	query := `
        INSERT INTO absence_requests (
            id, organization_id, owner_id, start_date, end_date, reason, status, created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW(), NOW())
    `
	_, err := r.execer().ExecContext(
		ctx, query,
		a.ID, a.OrganizationID, a.OwnerID, a.StartDate, a.EndDate, a.Reason, a.Status,
	)
	return err
}

func (r *repository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*AbsenceRequest, error) {
	query := `
SELECT` + absenceColumns + `
FROM absence_requests
WHERE organization_id = $1
	AND id = $2
	AND deleted_at IS NULL
`
	return scanAbsence(r.querier().QueryRowContext(ctx, query, orgID, id))
}

func (r *repository) FindActiveByOwner(ctx context.Context, orgID, ownerID uuid.UUID, excludeID *uuid.UUID) ([]AbsenceRequest, error) {
	query := `
SELECT` + absenceColumns + `
FROM absence_requests
WHERE organization_id = $1
	AND owner_id = $2
	AND status IN ($3, $4)
	AND deleted_at IS NULL
`
	args := []any{orgID, ownerID, StatusPending, StatusApproved}
	if excludeID != nil {
		args = append(args, *excludeID)
		query += fmt.Sprintf("	AND id <> $%d\n", len(args))
	}
	query += "ORDER BY start_date ASC"

	return r.queryAbsences(ctx, query, args...)
}

func (r *repository) ListByOwner(ctx context.Context, orgID, ownerID uuid.UUID) ([]AbsenceRequest, error) {
	query := `
SELECT` + absenceColumns + `
FROM absence_requests
WHERE organization_id = $1
	AND owner_id = $2
	AND deleted_at IS NULL
ORDER BY start_date DESC
`
	return r.queryAbsences(ctx, query, orgID, ownerID)
}

func (r *repository) ListPage(ctx context.Context, orgID uuid.UUID, afterID *uuid.UUID, limit int, status *Status) ([]AbsenceRequest, error) {
	query := `
SELECT` + absenceColumns + `
FROM absence_requests
WHERE organization_id = $1
	AND deleted_at IS NULL
`
	args := []any{orgID}
	if status != nil {
		args = append(args, *status)
		query += fmt.Sprintf("	AND status = $%d\n", len(args))
	}
	if afterID != nil {
		args = append(args, *afterID)
		query += fmt.Sprintf("	AND id > $%d\n", len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf("ORDER BY id ASC\nLIMIT $%d", len(args))

	return r.queryAbsences(ctx, query, args...)
}

func (r *repository) DecideIfPending(ctx context.Context, orgID, id uuid.UUID, to Status, decidedBy uuid.UUID, decidedAt time.Time) (int64, error) {
	query := `
UPDATE absence_requests
SET status = $4, decided_by = $5, decided_at = $6, updated_at = NOW()
WHERE organization_id = $1
	AND id = $2
	AND status = $3
	AND deleted_at IS NULL
`
	res, err := r.execer().ExecContext(ctx, query, orgID, id, StatusPending, to, decidedBy, decidedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// BulkApprovePending approves whichever of the given ids are still
// PENDING; the predicate is re-evaluated per row at write time by the
// engine. Returns the rows actually changed.
func (r *repository) BulkApprovePending(ctx context.Context, orgID uuid.UUID, ids []uuid.UUID, decidedBy uuid.UUID, decidedAt time.Time) ([]BulkDecision, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	args := []any{orgID, StatusApproved, decidedBy, decidedAt, StatusPending}
	placeholders := make([]string, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
		placeholders = append(placeholders, fmt.Sprintf("$%d", len(args)))
	}

	query := fmt.Sprintf(`
UPDATE absence_requests
SET status = $2, decided_by = $3, decided_at = $4, updated_at = NOW()
WHERE organization_id = $1
	AND status = $5
	AND deleted_at IS NULL
	AND id IN (%s)
RETURNING id, owner_id
`, strings.Join(placeholders, ", "))

	rows, err := r.querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var changed []BulkDecision
	for rows.Next() {
		var d BulkDecision
		if err := rows.Scan(&d.ID, &d.OwnerID); err != nil {
			return nil, err
		}
		changed = append(changed, d)
	}
	return changed, rows.Err()
}

func (r *repository) SoftDeleteIfPending(ctx context.Context, orgID, id uuid.UUID) (int64, error) {
	query := `
UPDATE absence_requests
SET deleted_at = NOW(), updated_at = NOW()
WHERE organization_id = $1
	AND id = $2
	AND status = $3
	AND deleted_at IS NULL
`
	res, err := r.execer().ExecContext(ctx, query, orgID, id, StatusPending)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *repository) CountByStatus(ctx context.Context, orgID, ownerID uuid.UUID) (Stats, error) {
	query := `
SELECT
	COUNT(*),
	COUNT(*) FILTER (WHERE status = $3),
	COUNT(*) FILTER (WHERE status = $4),
	COUNT(*) FILTER (WHERE status = $5)
FROM absence_requests
WHERE organization_id = $1
	AND owner_id = $2
	AND deleted_at IS NULL
`
	var s Stats
	err := r.querier().QueryRowContext(
		ctx, query,
		orgID, ownerID, StatusPending, StatusApproved, StatusRejected,
	).Scan(&s.Total, &s.Pending, &s.Approved, &s.Rejected)
	return s, err
}

func (r *repository) queryAbsences(ctx context.Context, query string, args ...any) ([]AbsenceRequest, error) {
	rows, err := r.querier().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []AbsenceRequest
	for rows.Next() {
		a, err := scanAbsence(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	return result, rows.Err()
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}

func (r *repository) querier() interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
} {
	if r.tx != nil {
		return r.tx
	}
	return r.db
}
