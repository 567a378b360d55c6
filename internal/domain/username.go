package domain

import (
	"fmt"
	"regexp"
	"strconv"

	apperrors "github.com/spec-kit/wallboard-service/pkg/util"
)

var usernamePattern = regexp.MustCompile(`^(AG|SP|AD)(00[1-9]|0[1-9]\d|[1-9]\d{2})$`)

// Username prefixes.
const (
	PrefixAgent      = "AG"
	PrefixSupervisor = "SP"
	PrefixAdmin      = "AD"
)

// Username is a decoded login code such as AG001.
type Username struct {
	Prefix string
	Number int
}

func (u Username) String() string {
	return fmt.Sprintf("%s%03d", u.Prefix, u.Number)
}

// ParseUsername decodes a login code. Numbers run from 001 to 999.
func ParseUsername(s string) (Username, error) {
	m := usernamePattern.FindStringSubmatch(s)
	if m == nil {
		return Username{}, apperrors.NewInvalidFormat(
			"invalid username format, use AGxxx, SPxxx or ADxxx (001-999)",
			map[string]any{"username": s})
	}
	n, err := strconv.Atoi(m[2])
	if err != nil {
		return Username{}, apperrors.NewInvalidFormat("invalid username number", map[string]any{"username": s})
	}
	return Username{Prefix: m[1], Number: n}, nil
}

// RoleForPrefix maps a username prefix to the role it implies.
func RoleForPrefix(prefix string) (Role, error) {
	switch prefix {
	case PrefixAgent:
		return RoleAgent, nil
	case PrefixSupervisor:
		return RoleSupervisor, nil
	case PrefixAdmin:
		return RoleAdmin, nil
	}
	return "", apperrors.NewInvalidFormat("cannot infer role from username prefix", map[string]any{"prefix": prefix})
}

// PrefixForRole is the inverse of RoleForPrefix.
func PrefixForRole(role Role) (string, bool) {
	switch role {
	case RoleAgent:
		return PrefixAgent, true
	case RoleSupervisor:
		return PrefixSupervisor, true
	case RoleAdmin:
		return PrefixAdmin, true
	}
	return "", false
}

// RoleFromUsername parses s and returns the role implied by its prefix.
func RoleFromUsername(s string) (Role, error) {
	u, err := ParseUsername(s)
	if err != nil {
		return "", err
	}
	return RoleForPrefix(u.Prefix)
}
