package tenant

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Scope restricts a gorm query to a single organization. Every
// tenant-owned table carries an organization_id column.
func Scope(organizationID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("organization_id = ?", organizationID)
	}
}
