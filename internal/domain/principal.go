package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// Role is the closed set of portal roles. Policy code switches over every
// constant; anything else is denied.
type Role string

const (
	RoleEmployee Role = "EMPLOYEE"
	RoleManager  Role = "MANAGER"
	RoleCoworker Role = "COWORKER"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleEmployee, RoleManager, RoleCoworker:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleCoworker:
		return true
	}
	return false
}

// Principal is the session projection used for every authorization
// decision. It is produced by the auth middleware and trusted as-is.
type Principal struct {
	ID             uuid.UUID
	Role           Role
	OrganizationID uuid.UUID
}
