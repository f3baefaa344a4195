package absence

import "fmt"

// Status is the closed lifecycle of an absence request. PENDING is the
// only non-terminal state; APPROVED and REJECTED are immutable.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved, StatusRejected:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown status: %q", s)
	}
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// CanTransition reports whether a request may move between the two
// states. Terminal states never transition again, regardless of caller.
func CanTransition(from, to Status) bool {
	return from == StatusPending && to.Terminal()
}
