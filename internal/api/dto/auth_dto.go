package dto

import (
	"strings"
	"time"
)

// LoginRequest accepts any one of the code aliases used by the clients.
type LoginRequest struct {
	AgentCode      string `json:"agentCode"`
	SupervisorCode string `json:"supervisorCode"`
	Username       string `json:"username"`
}

// Code returns the first non-blank alias.
func (r LoginRequest) Code() string {
	for _, v := range []string{r.AgentCode, r.SupervisorCode, r.Username} {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	ExpiresIn int64     `json:"expiresIn"`
}

// LoginResponse pairs the signed-in account with its token.
type LoginResponse struct {
	User AccountResponse `json:"user"`
	Auth AuthResponse    `json:"auth"`
}
