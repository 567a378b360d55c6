package domain

import (
	"strings"

	apperrors "github.com/spec-kit/wallboard-service/pkg/util"
)

// Role enumerates wallboard operator roles.
type Role string

const (
	RoleAgent      Role = "Agent"
	RoleSupervisor Role = "Supervisor"
	RoleAdmin      Role = "Admin"
)

// Valid reports whether r is one of the canonical roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAgent, RoleSupervisor, RoleAdmin:
		return true
	}
	return false
}

// RequiresTeam reports whether accounts holding r must belong to a team.
func (r Role) RequiresTeam() bool {
	return r == RoleAgent || r == RoleSupervisor
}

// AccountStatus represents lifecycle states for an account.
type AccountStatus string

const (
	AccountStatusActive   AccountStatus = "Active"
	AccountStatusInactive AccountStatus = "Inactive"
)

// Valid reports whether s is a known status.
func (s AccountStatus) Valid() bool {
	return s == AccountStatusActive || s == AccountStatusInactive
}

// ParseRole accepts a role name in any letter case.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	for _, role := range []Role{RoleAgent, RoleSupervisor, RoleAdmin} {
		if strings.EqualFold(s, string(role)) {
			return role, nil
		}
	}
	return "", apperrors.NewInvalidFormat("invalid role, allowed: Agent, Supervisor, Admin",
		map[string]any{"role": s})
}

// ParseAccountStatus accepts a status name in any letter case.
func ParseAccountStatus(s string) (AccountStatus, error) {
	s = strings.TrimSpace(s)
	for _, status := range []AccountStatus{AccountStatusActive, AccountStatusInactive} {
		if strings.EqualFold(s, string(status)) {
			return status, nil
		}
	}
	return "", apperrors.NewInvalidFormat("invalid status, allowed: Active, Inactive",
		map[string]any{"status": s})
}
