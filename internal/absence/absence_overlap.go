package absence

import (
	"time"

	"github.com/google/uuid"
)

// RangesOverlap reports whether two inclusive day ranges share at least
// one calendar day: s1 <= e2 AND s2 <= e1.
func RangesOverlap(s1, e1, s2, e2 time.Time) bool {
	return !s1.After(e2) && !s2.After(e1)
}

type ConflictInfo struct {
	ID        uuid.UUID
	StartDate time.Time
	EndDate   time.Time
	Status    Status
}

type OverlapResult struct {
	HasOverlap bool
	Conflict   *ConflictInfo
}

// DetectConflict scans existing requests for the first one whose active
// period overlaps the candidate range. Only PENDING and APPROVED rows
// count; excludeID skips the record being re-validated on update flows.
// Read-only: the caller supplies the candidate set.
func DetectConflict(existing []AbsenceRequest, start, end time.Time, excludeID *uuid.UUID) OverlapResult {
	for i := range existing {
		r := &existing[i]
		if excludeID != nil && r.ID == *excludeID {
			continue
		}
		if r.Status != StatusPending && r.Status != StatusApproved {
			continue
		}
		if RangesOverlap(r.StartDate, r.EndDate, start, end) {
			return OverlapResult{
				HasOverlap: true,
				Conflict: &ConflictInfo{
					ID:        r.ID,
					StartDate: r.StartDate,
					EndDate:   r.EndDate,
					Status:    r.Status,
				},
			}
		}
	}
	return OverlapResult{}
}
