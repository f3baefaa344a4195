package audit

import (
	"context"
	"encoding/json"
	"time"

	"go-hr-portal/internal/events"
	"go-hr-portal/internal/messaging/kafka"
	"go-hr-portal/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OutboxRecorder persists audit entries as outbox events so the worker
// can publish them to Kafka. Failures are logged and swallowed: the
// audit trail must never fail or roll back the primary operation.
type OutboxRecorder struct {
	outbox kafka.OutboxRepository
	logger *zap.Logger
}

func NewOutboxRecorder(outbox kafka.OutboxRepository, logger ...*zap.Logger) *OutboxRecorder {
	l := zap.L().Named("audit.outbox")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit.outbox")
	}
	return &OutboxRecorder{outbox: outbox, logger: l}
}

func (r *OutboxRecorder) Record(ctx context.Context, e Entry) {
	rid := contextutil.GetRequestID(ctx)

	event := events.AuditEvent{
		EventType:  "audit_recorded",
		RequestID:  rid,
		Actor:      e.Actor,
		Action:     e.Action,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Metadata:   e.Metadata,
		OccurredAt: time.Now().UTC(),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		r.logger.Warn("marshal audit event failed",
			zap.String("action", e.Action),
			zap.String("entity_id", e.EntityID),
			zap.Error(err),
		)
		return
	}

	if err := r.outbox.Create(ctx, kafka.OutboxEvent{
		ID:            uuid.NewString(),
		RequestID:     rid,
		AggregateType: e.EntityType,
		AggregateID:   e.EntityID,
		EventType:     event.EventType,
		Topic:         events.AuditTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	}); err != nil {
		r.logger.Warn("persist audit event failed",
			zap.String("action", e.Action),
			zap.String("entity_id", e.EntityID),
			zap.Error(err),
		)
	}
}
