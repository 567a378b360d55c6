package domain

import (
	apperrors "github.com/spec-kit/wallboard-service/pkg/util"
)

// CheckRoleTeam enforces team membership rules: agents and supervisors need a
// team, admins must not have one.
func CheckRoleTeam(role Role, teamID *int64) error {
	if !role.Valid() {
		return apperrors.NewConsistency("role required, allowed: Agent, Supervisor, Admin",
			map[string]any{"role": string(role)})
	}
	if role.RequiresTeam() && teamID == nil {
		return apperrors.NewConsistency("team required for Agent and Supervisor roles",
			map[string]any{"role": string(role)})
	}
	if role == RoleAdmin && teamID != nil {
		return apperrors.NewConsistency("team forbidden for Admin role",
			map[string]any{"role": string(role), "team_id": *teamID})
	}
	return nil
}

// CheckRolePrefix rejects a role that disagrees with the username prefix.
func CheckRolePrefix(role Role, username string) error {
	implied, err := RoleFromUsername(username)
	if err != nil {
		return err
	}
	if implied != role {
		return apperrors.NewConsistency("role does not match username prefix",
			map[string]any{"role": string(role), "username": username, "expected_role": string(implied)})
	}
	return nil
}
