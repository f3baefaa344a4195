package absence

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AbsenceRequest is a single leave period owned by one user inside one
// organization. StartDate and EndDate are inclusive calendar days
// normalized to UTC; comparisons never use wall-clock time.
type AbsenceRequest struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrganizationID uuid.UUID `gorm:"type:uuid;not null;index:idx_absence_org_status"`
	OwnerID        uuid.UUID `gorm:"type:uuid;not null;index:idx_absence_owner_dates"`

	StartDate time.Time `gorm:"type:date;not null;index:idx_absence_owner_dates"`
	EndDate   time.Time `gorm:"type:date;not null;index:idx_absence_owner_dates"`
	Reason    string    `gorm:"type:text;not null"`

	Status    Status     `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_absence_org_status"`
	DecidedBy *uuid.UUID `gorm:"type:uuid"`
	DecidedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index:idx_absence_deleted_at"`
}

func (AbsenceRequest) TableName() string { return "absence_requests" }
