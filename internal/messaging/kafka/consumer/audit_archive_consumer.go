package consumer

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"go-hr-portal/internal/events"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// ConsumeAuditEvents archives published audit events into the
// audit_logs table. Duplicate deliveries are skipped so the consumer
// stays idempotent under at-least-once semantics.
func ConsumeAuditEvents(
	ctx context.Context,
	reader *kafkago.Reader,
	db *sql.DB,
	logger *zap.Logger,
) {
	log := logger.Named("kafka.consumer.audit_archive")
	log.Info("audit archive consumer started")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("audit archive consumer stopped")
				return
			}
			log.Error("fetch audit message failed", zap.Error(err))
			continue
		}

		var event events.AuditEvent
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error("decode audit event failed", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		if err := archiveAuditEvent(ctx, db, event); err != nil {
			if isDuplicateAuditLog(err) {
				log.Warn("audit event already archived, skipping",
					zap.String("entity_id", event.EntityID),
					zap.String("action", event.Action),
				)
				_ = reader.CommitMessages(ctx, msg)
				continue
			}

			log.Error("archive audit event failed",
				zap.String("entity_id", event.EntityID),
				zap.String("action", event.Action),
				zap.Error(err),
			)
			continue
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error("commit audit message failed", zap.Error(err))
			continue
		}

		log.Info("audit event archived",
			zap.String("actor", event.Actor),
			zap.String("action", event.Action),
			zap.String("entity_id", event.EntityID),
		)
	}
}

func archiveAuditEvent(ctx context.Context, db *sql.DB, event events.AuditEvent) error {
	metadata, err := json.Marshal(event.Metadata)
	if err != nil {
		return err
	}

	query := `
        INSERT INTO audit_logs (
            id, request_id, actor, action, entity_type, entity_id, metadata, occurred_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `
	_, err = db.ExecContext(
		ctx, query,
		uuid.NewString(), event.RequestID, event.Actor, event.Action,
		event.EntityType, event.EntityID, metadata, event.OccurredAt,
	)
	return err
}

func isDuplicateAuditLog(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
