package absence

import (
	"go-hr-portal/internal/domain"

	"github.com/google/uuid"
)

// Policy functions are pure predicates over the principal and the
// record's persisted state. They never consult client-supplied state,
// and every role switch enumerates the full domain.Role set so an
// unknown role is always denied.

// CanCreateFor allows a principal to create requests only for itself.
func CanCreateFor(p domain.Principal, ownerID uuid.UUID) bool {
	return p.ID == ownerID
}

func CanViewOwn(p domain.Principal, ownerID uuid.UUID) bool {
	return p.ID == ownerID
}

// CanViewAll gates the tenant-wide listing.
func CanViewAll(p domain.Principal) bool {
	switch p.Role {
	case domain.RoleManager:
		return true
	case domain.RoleEmployee, domain.RoleCoworker:
		return false
	}
	return false
}

// CanDecide covers approve and reject. The PENDING requirement is
// enforced by the state machine separately, so callers can distinguish
// a forbidden actor from an illegal transition.
func CanDecide(p domain.Principal) bool {
	switch p.Role {
	case domain.RoleManager:
		return true
	case domain.RoleEmployee, domain.RoleCoworker:
		return false
	}
	return false
}

// CanDelete allows the owner or a manager to remove a request; the
// still-PENDING requirement is enforced by the state machine.
func CanDelete(p domain.Principal, rec *AbsenceRequest) bool {
	if p.ID == rec.OwnerID {
		return true
	}
	switch p.Role {
	case domain.RoleManager:
		return true
	case domain.RoleEmployee, domain.RoleCoworker:
		return false
	}
	return false
}

func CanViewStats(p domain.Principal, ownerID uuid.UUID) bool {
	if p.ID == ownerID {
		return true
	}
	return CanViewAll(p)
}
