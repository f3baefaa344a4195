package app

import (
	"go-hr-portal/internal/absence"
	"go-hr-portal/internal/auth"

	"gorm.io/gorm"
)

// Tables owned by raw-SQL repositories; gorm only migrates the entities
// it manages, so these are created explicitly.
const createOutboxTable = `
CREATE TABLE IF NOT EXISTS outbox_events (
	id UUID PRIMARY KEY,
	request_id VARCHAR(64),
	aggregate_type VARCHAR(100) NOT NULL,
	aggregate_id VARCHAR(100) NOT NULL,
	event_type VARCHAR(100) NOT NULL,
	topic VARCHAR(200) NOT NULL,
	payload JSONB NOT NULL,
	status VARCHAR(20) NOT NULL DEFAULT 'pending',
	retry_count INT NOT NULL DEFAULT 0,
	error_message VARCHAR(500),
	next_retry_at TIMESTAMPTZ,
	processed_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const createAuditLogTable = `
CREATE TABLE IF NOT EXISTS audit_logs (
	id UUID PRIMARY KEY,
	request_id VARCHAR(64),
	actor VARCHAR(100),
	action VARCHAR(100) NOT NULL,
	entity_type VARCHAR(100) NOT NULL,
	entity_id VARCHAR(100) NOT NULL,
	metadata JSONB,
	occurred_at TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	UNIQUE (request_id, action, entity_id)
)`

func migrate(gormDB *gorm.DB) error {
	if err := gormDB.AutoMigrate(
		&auth.User{},
		&absence.AbsenceRequest{},
	); err != nil {
		return err
	}
	if err := gormDB.Exec(createOutboxTable).Error; err != nil {
		return err
	}
	return gormDB.Exec(createAuditLogTable).Error
}
