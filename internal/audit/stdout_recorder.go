package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// StdoutRecorder writes audit entries to the process log. Used as a
// fallback when the outbox pipeline is not wired (tests, local runs).
type StdoutRecorder struct{}

func NewStdoutRecorder() *StdoutRecorder {
	return &StdoutRecorder{}
}

func (r *StdoutRecorder) Record(ctx context.Context, e Entry) {
	zap.L().Named("audit").Info("audit event",
		zap.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
		zap.String("actor", e.Actor),
		zap.String("action", e.Action),
		zap.String("entity_type", e.EntityType),
		zap.String("entity_id", e.EntityID),
		zap.Any("metadata", e.Metadata),
	)
}
