package absence_test

import (
	"testing"
	"time"

	"go-hr-portal/internal/absence"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestRangesOverlap(t *testing.T) {
	d := func(day int) time.Time {
		return time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC)
	}

	cases := []struct {
		name           string
		s1, e1, s2, e2 time.Time
		want           bool
	}{
		{"identical ranges", d(1), d(3), d(1), d(3), true},
		{"partial overlap at end", d(1), d(3), d(3), d(5), true},
		{"partial overlap at start", d(3), d(5), d(1), d(3), true},
		{"fully contained", d(1), d(10), d(4), d(5), true},
		{"single shared day", d(5), d(5), d(5), d(5), true},
		{"adjacent days do not overlap", d(1), d(3), d(4), d(6), false},
		{"disjoint ranges", d(1), d(2), d(10), d(12), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, absence.RangesOverlap(tc.s1, tc.e1, tc.s2, tc.e2))
			// Overlap is symmetric.
			assert.Equal(t, tc.want, absence.RangesOverlap(tc.s2, tc.e2, tc.s1, tc.e1))
		})
	}
}

func TestDetectConflict(t *testing.T) {
	d := func(day int) time.Time {
		return time.Date(2026, 3, day, 0, 0, 0, 0, time.UTC)
	}
	owner := uuid.New()

	existing := []absence.AbsenceRequest{
		{ID: uuid.New(), OwnerID: owner, StartDate: d(1), EndDate: d(3), Status: absence.StatusRejected},
		{ID: uuid.New(), OwnerID: owner, StartDate: d(5), EndDate: d(7), Status: absence.StatusApproved},
		{ID: uuid.New(), OwnerID: owner, StartDate: d(10), EndDate: d(12), Status: absence.StatusPending},
	}

	t.Run("rejected rows never conflict", func(t *testing.T) {
		res := absence.DetectConflict(existing, d(1), d(3), nil)
		assert.False(t, res.HasOverlap)
		assert.Nil(t, res.Conflict)
	})

	t.Run("approved row conflicts", func(t *testing.T) {
		res := absence.DetectConflict(existing, d(7), d(8), nil)
		assert.True(t, res.HasOverlap)
		assert.Equal(t, existing[1].ID, res.Conflict.ID)
		assert.Equal(t, absence.StatusApproved, res.Conflict.Status)
	})

	t.Run("pending row conflicts", func(t *testing.T) {
		res := absence.DetectConflict(existing, d(12), d(14), nil)
		assert.True(t, res.HasOverlap)
		assert.Equal(t, existing[2].ID, res.Conflict.ID)
	})

	t.Run("excluded id is skipped", func(t *testing.T) {
		res := absence.DetectConflict(existing, d(5), d(7), &existing[1].ID)
		assert.False(t, res.HasOverlap)
	})

	t.Run("no candidates", func(t *testing.T) {
		res := absence.DetectConflict(nil, d(1), d(3), nil)
		assert.False(t, res.HasOverlap)
	})
}
