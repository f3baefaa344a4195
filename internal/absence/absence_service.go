package absence

import (
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	absenceerrors "go-hr-portal/internal/absence/errors"
	"go-hr-portal/internal/audit"
	"go-hr-portal/internal/domain"
	"go-hr-portal/internal/shared/apperror"
	"go-hr-portal/internal/shared/sanitize"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// Bounds for the create transaction: how long a statement may wait
	// on a lock, and how long the whole unit of work may run.
	createLockWait   = 5 * time.Second
	createTxDeadline = 10 * time.Second

	defaultPageLimit = 20
	maxPageLimit     = 100

	minReasonLen = 3
	maxReasonLen = 500

	statsCacheTTL = time.Minute
)

//go:generate mockgen -source=absence_service.go -destination=mock/absence_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, p domain.Principal, req CreateAbsenceRequest) (AbsenceResponse, error)
	ListMine(ctx context.Context, p domain.Principal) ([]AbsenceResponse, error)
	ListAll(ctx context.Context, p domain.Principal, q ListAllQuery) (ListAllResponse, error)
	Decide(ctx context.Context, p domain.Principal, id string, req DecideAbsenceRequest) (AbsenceResponse, error)
	BulkApprove(ctx context.Context, p domain.Principal, ids []string) (BulkApproveResponse, error)
	Delete(ctx context.Context, p domain.Principal, id string) error
	GetStats(ctx context.Context, p domain.Principal, ownerID string) (StatsResponse, error)
}

type service struct {
	db      *sql.DB
	repo    Repository
	auditor audit.Recorder
	rdb     *redis.Client
	sf      *singleflight.Group
	logger  *zap.Logger
}

func NewService(db *sql.DB, repo Repository, auditor audit.Recorder, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("absence.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("absence.service")
	}
	if auditor == nil {
		auditor = audit.NewStdoutRecorder()
	}
	return &service{
		db:      db,
		repo:    repo,
		auditor: auditor,
		rdb:     rdb,
		sf:      &singleflight.Group{},
		logger:  l,
	}
}

// Create runs the overlap re-check and the insert inside one
// serializable transaction, closing the race where two concurrent
// submissions both observe "no overlap" before either commits. At most
// one of any set of mutually-overlapping concurrent creates succeeds.
func (s *service) Create(ctx context.Context, p domain.Principal, req CreateAbsenceRequest) (AbsenceResponse, error) {
	s.logger.Debug("create absence requested",
		zap.String("organization_id", p.OrganizationID.String()),
		zap.String("owner_id", p.ID.String()),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	startDate, endDate, reason, err := validateCreateRequest(req)
	if err != nil {
		s.logger.Warn("create absence validation failed", zap.Error(err))
		return AbsenceResponse{}, err
	}

	if !CanCreateFor(p, p.ID) {
		return AbsenceResponse{}, apperror.ErrForbidden
	}

	ctx, cancel := context.WithTimeout(ctx, createTxDeadline)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		s.logger.Error("create absence begin tx failed", zap.Error(err))
		return AbsenceResponse{}, mapCreateTxError(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", createLockWait.Milliseconds())); err != nil {
		s.logger.Error("create absence set lock timeout failed", zap.Error(err))
		return AbsenceResponse{}, mapCreateTxError(err)
	}

	qtx := s.repo.WithTx(tx)

	existing, err := qtx.FindActiveByOwner(ctx, p.OrganizationID, p.ID, nil)
	if err != nil {
		s.logger.Error("create absence overlap check failed", zap.Error(err))
		return AbsenceResponse{}, mapCreateTxError(err)
	}
	if res := DetectConflict(existing, startDate, endDate, nil); res.HasOverlap {
		s.logger.Warn("create absence overlap detected",
			zap.String("owner_id", p.ID.String()),
			zap.String("conflict_id", res.Conflict.ID.String()),
		)
		return AbsenceResponse{}, absenceerrors.OverlapConflict(res.Conflict.StartDate, res.Conflict.EndDate)
	}

	a := &AbsenceRequest{
		ID:             uuid.New(),
		OrganizationID: p.OrganizationID,
		OwnerID:        p.ID,
		StartDate:      startDate,
		EndDate:        endDate,
		Reason:         reason,
		Status:         StatusPending,
	}

	if err := qtx.Create(ctx, a); err != nil {
		s.logger.Error("create absence persist failed", zap.Error(err))
		return AbsenceResponse{}, mapCreateTxError(err)
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create absence commit failed", zap.Error(err))
		return AbsenceResponse{}, mapCreateTxError(err)
	}

	s.invalidateStats(ctx, p.OrganizationID, p.ID)
	s.auditor.Record(ctx, audit.Entry{
		Actor:      p.ID.String(),
		Action:     "absence.request.created",
		EntityType: "absence_request",
		EntityID:   a.ID.String(),
		Metadata: map[string]any{
			"new_status": string(StatusPending),
			"start_date": startDate.Format("2006-01-02"),
			"end_date":   endDate.Format("2006-01-02"),
		},
	})

	s.logger.Info("create absence success",
		zap.String("absence_id", a.ID.String()),
		zap.String("owner_id", p.ID.String()),
	)
	return mapToResponse(*a), nil
}

func (s *service) ListMine(ctx context.Context, p domain.Principal) ([]AbsenceResponse, error) {
	requests, err := s.repo.ListByOwner(ctx, p.OrganizationID, p.ID)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

func (s *service) ListAll(ctx context.Context, p domain.Principal, q ListAllQuery) (ListAllResponse, error) {
	if !CanViewAll(p) {
		return ListAllResponse{}, apperror.ErrForbidden
	}

	limit := q.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}
	if limit > maxPageLimit {
		limit = maxPageLimit
	}

	var afterID *uuid.UUID
	if q.Cursor != "" {
		id, err := decodeCursor(q.Cursor)
		if err != nil {
			return ListAllResponse{}, absenceerrors.ErrInvalidCursor
		}
		afterID = &id
	}

	var status *Status
	if q.Status != "" {
		st, err := ParseStatus(q.Status)
		if err != nil {
			return ListAllResponse{}, absenceerrors.ErrInvalidStatus
		}
		status = &st
	}

	// Fetch one extra row to know whether a next page exists.
	requests, err := s.repo.ListPage(ctx, p.OrganizationID, afterID, limit+1, status)
	if err != nil {
		return ListAllResponse{}, err
	}

	resp := ListAllResponse{}
	if len(requests) > limit {
		requests = requests[:limit]
		resp.NextCursor = encodeCursor(requests[limit-1].ID)
	}
	resp.Items = mapToListResponse(requests)
	return resp, nil
}

// Decide applies a single PENDING -> APPROVED|REJECTED transition as one
// conditional write. The state machine outcome is decided by the row's
// persisted status, never by what the caller believes it to be.
func (s *service) Decide(ctx context.Context, p domain.Principal, id string, req DecideAbsenceRequest) (AbsenceResponse, error) {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return AbsenceResponse{}, absenceerrors.ErrInvalidID
	}
	target, err := ParseStatus(req.Status)
	if err != nil || !target.Terminal() {
		return AbsenceResponse{}, absenceerrors.ErrInvalidStatus
	}

	rec, err := s.repo.FindByID(ctx, p.OrganizationID, requestID)
	if err != nil {
		return AbsenceResponse{}, mapLookupError(err)
	}

	if !CanDecide(p) {
		return AbsenceResponse{}, apperror.ErrForbidden
	}
	if !CanTransition(rec.Status, target) {
		s.logger.Warn("decide absence invalid transition",
			zap.String("absence_id", id),
			zap.String("from_status", string(rec.Status)),
			zap.String("to_status", string(target)),
		)
		return AbsenceResponse{}, absenceerrors.ErrInvalidStatusTransition
	}

	now := time.Now().UTC()
	n, err := s.repo.DecideIfPending(ctx, p.OrganizationID, requestID, target, p.ID, now)
	if err != nil {
		return AbsenceResponse{}, err
	}
	if n == 0 {
		// Another decision won the race between our read and the write.
		return AbsenceResponse{}, absenceerrors.ErrInvalidStatusTransition
	}

	previous := rec.Status
	rec.Status = target
	rec.DecidedBy = &p.ID
	rec.DecidedAt = &now

	s.invalidateStats(ctx, p.OrganizationID, rec.OwnerID)
	s.auditor.Record(ctx, audit.Entry{
		Actor:      p.ID.String(),
		Action:     "absence.request." + strings.ToLower(string(target)),
		EntityType: "absence_request",
		EntityID:   rec.ID.String(),
		Metadata: map[string]any{
			"previous_status": string(previous),
			"new_status":      string(target),
		},
	})

	s.logger.Info("decide absence success",
		zap.String("absence_id", id),
		zap.String("status", string(target)),
	)
	return mapToResponse(*rec), nil
}

// BulkApprove approves the subset of ids still PENDING and skips the
// rest. Best-effort by contract: the count reflects rows actually
// changed, and a second identical call changes nothing.
func (s *service) BulkApprove(ctx context.Context, p domain.Principal, ids []string) (BulkApproveResponse, error) {
	if !CanDecide(p) {
		return BulkApproveResponse{}, apperror.ErrForbidden
	}

	requestIDs := make([]uuid.UUID, 0, len(ids))
	for _, raw := range ids {
		id, err := uuid.Parse(raw)
		if err != nil {
			return BulkApproveResponse{}, absenceerrors.ErrInvalidID
		}
		requestIDs = append(requestIDs, id)
	}

	now := time.Now().UTC()
	changed, err := s.repo.BulkApprovePending(ctx, p.OrganizationID, requestIDs, p.ID, now)
	if err != nil {
		return BulkApproveResponse{}, err
	}

	owners := make(map[uuid.UUID]struct{}, len(changed))
	for _, d := range changed {
		owners[d.OwnerID] = struct{}{}
		s.auditor.Record(ctx, audit.Entry{
			Actor:      p.ID.String(),
			Action:     "absence.request.approved",
			EntityType: "absence_request",
			EntityID:   d.ID.String(),
			Metadata: map[string]any{
				"previous_status": string(StatusPending),
				"new_status":      string(StatusApproved),
				"bulk":            true,
			},
		})
	}
	for ownerID := range owners {
		s.invalidateStats(ctx, p.OrganizationID, ownerID)
	}

	s.logger.Info("bulk approve absences",
		zap.Int("requested", len(requestIDs)),
		zap.Int("changed", len(changed)),
	)
	return BulkApproveResponse{Count: len(changed)}, nil
}

func (s *service) Delete(ctx context.Context, p domain.Principal, id string) error {
	requestID, err := uuid.Parse(id)
	if err != nil {
		return absenceerrors.ErrInvalidID
	}

	rec, err := s.repo.FindByID(ctx, p.OrganizationID, requestID)
	if err != nil {
		return mapLookupError(err)
	}

	if !CanDelete(p, rec) {
		return apperror.ErrForbidden
	}
	if rec.Status.Terminal() {
		return absenceerrors.ErrAlreadyDecided
	}

	n, err := s.repo.SoftDeleteIfPending(ctx, p.OrganizationID, requestID)
	if err != nil {
		return err
	}
	if n == 0 {
		return absenceerrors.ErrAlreadyDecided
	}

	s.invalidateStats(ctx, p.OrganizationID, rec.OwnerID)
	s.auditor.Record(ctx, audit.Entry{
		Actor:      p.ID.String(),
		Action:     "absence.request.deleted",
		EntityType: "absence_request",
		EntityID:   rec.ID.String(),
		Metadata: map[string]any{
			"previous_status": string(rec.Status),
		},
	})

	s.logger.Info("delete absence success", zap.String("absence_id", id))
	return nil
}

func (s *service) GetStats(ctx context.Context, p domain.Principal, ownerID string) (StatsResponse, error) {
	owner, err := uuid.Parse(ownerID)
	if err != nil {
		return StatsResponse{}, absenceerrors.ErrInvalidID
	}
	if !CanViewStats(p, owner) {
		return StatsResponse{}, apperror.ErrForbidden
	}

	cacheKey := statsCacheKey(p.OrganizationID, owner)

	if s.rdb != nil {
		if cached, err := s.rdb.Get(ctx, cacheKey).Result(); err == nil {
			var resp StatsResponse
			if json.Unmarshal([]byte(cached), &resp) == nil {
				return resp, nil
			}
		}
	}

	v, err, _ := s.sf.Do(cacheKey, func() (interface{}, error) {
		stats, err := s.repo.CountByStatus(ctx, p.OrganizationID, owner)
		if err != nil {
			return nil, err
		}

		resp := StatsResponse{
			Total:    stats.Total,
			Pending:  stats.Pending,
			Approved: stats.Approved,
			Rejected: stats.Rejected,
		}

		if s.rdb != nil {
			if jsonData, err := json.Marshal(resp); err == nil {
				s.rdb.Set(ctx, cacheKey, jsonData, statsCacheTTL)
			}
		}
		return resp, nil
	})
	if err != nil {
		return StatsResponse{}, err
	}
	return v.(StatsResponse), nil
}

func (s *service) invalidateStats(ctx context.Context, orgID, ownerID uuid.UUID) {
	if s.rdb == nil {
		return
	}
	key := statsCacheKey(orgID, ownerID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.logger.Warn("invalidate stats cache failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

func statsCacheKey(orgID, ownerID uuid.UUID) string {
	return "absence:stats:" + orgID.String() + ":" + ownerID.String()
}

func validateCreateRequest(req CreateAbsenceRequest) (time.Time, time.Time, string, error) {
	startDate, err := parseDate(req.StartDate)
	if err != nil {
		return time.Time{}, time.Time{}, "", err
	}
	endDate, err := parseDate(req.EndDate)
	if err != nil {
		return time.Time{}, time.Time{}, "", err
	}
	if startDate.After(endDate) {
		return time.Time{}, time.Time{}, "", absenceerrors.ErrInvalidDateRange
	}

	reason := sanitize.Reason(req.Reason)
	if n := utf8.RuneCountInString(reason); n < minReasonLen {
		return time.Time{}, time.Time{}, "", absenceerrors.ErrReasonTooShort
	} else if n > maxReasonLen {
		return time.Time{}, time.Time{}, "", absenceerrors.ErrReasonTooLong
	}

	return startDate, endDate, reason, nil
}

// parseDate pins a calendar day to midnight UTC so ranges from every
// client compare in the same reference timezone.
func parseDate(v string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, absenceerrors.ErrInvalidDateFormat
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func encodeCursor(id uuid.UUID) string {
	return base64.StdEncoding.EncodeToString([]byte(id.String()))
}

func decodeCursor(s string) (uuid.UUID, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return uuid.Nil, err
	}
	return uuid.Parse(string(raw))
}

func mapToResponse(a AbsenceRequest) AbsenceResponse {
	totalDays := int(a.EndDate.Sub(a.StartDate).Hours()/24) + 1
	resp := AbsenceResponse{
		ID:             a.ID.String(),
		OrganizationID: a.OrganizationID.String(),
		OwnerID:        a.OwnerID.String(),
		StartDate:      a.StartDate.Format("2006-01-02"),
		EndDate:        a.EndDate.Format("2006-01-02"),
		TotalDays:      totalDays,
		Reason:         a.Reason,
		Status:         string(a.Status),
	}
	if !a.CreatedAt.IsZero() {
		resp.CreatedAt = a.CreatedAt.UTC().Format(time.RFC3339)
	}
	if a.DecidedBy != nil {
		v := a.DecidedBy.String()
		resp.DecidedBy = &v
	}
	if a.DecidedAt != nil {
		v := a.DecidedAt.UTC().Format(time.RFC3339)
		resp.DecidedAt = &v
	}
	return resp
}

func mapToListResponse(requests []AbsenceRequest) []AbsenceResponse {
	resp := make([]AbsenceResponse, len(requests))
	for i, a := range requests {
		resp[i] = mapToResponse(a)
	}
	return resp
}
