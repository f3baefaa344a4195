package audit

import "context"

// Entry is the write contract for the audit trail. Every successful
// mutation in the portal records exactly one entry per affected record.
type Entry struct {
	Actor      string
	Action     string
	EntityType string
	EntityID   string
	Metadata   map[string]any
}

// Recorder is fire-and-forget: implementations must log their own
// failures and never surface them to the calling operation.
//
//go:generate mockgen -source=audit.go -destination=mock/audit_mock.go -package=mock
type Recorder interface {
	Record(ctx context.Context, e Entry)
}
