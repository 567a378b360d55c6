package domain

import (
	"strings"
	"time"

	apperrors "github.com/spec-kit/wallboard-service/pkg/util"
)

// AgentStatus is the presence state shown on the wallboard.
type AgentStatus string

const (
	AgentStatusAvailable AgentStatus = "Available"
	AgentStatusBusy      AgentStatus = "Busy"
	AgentStatusBreak     AgentStatus = "Break"
	AgentStatusOffline   AgentStatus = "Offline"
)

// Valid reports whether s is a known presence state.
func (s AgentStatus) Valid() bool {
	switch s {
	case AgentStatusAvailable, AgentStatusBusy, AgentStatusBreak, AgentStatusOffline:
		return true
	}
	return false
}

// ParseAgentStatus accepts a presence state in any letter case.
func ParseAgentStatus(s string) (AgentStatus, error) {
	s = strings.TrimSpace(s)
	for _, status := range []AgentStatus{AgentStatusAvailable, AgentStatusBusy, AgentStatusBreak, AgentStatusOffline} {
		if strings.EqualFold(s, string(status)) {
			return status, nil
		}
	}
	return "", apperrors.NewInvalidFormat("invalid status, allowed: Available, Busy, Break, Offline",
		map[string]any{"status": s})
}

// StatusLog is one entry of an agent's presence history. Duration is the number
// of seconds the agent spent in the previous status.
type StatusLog struct {
	ID        string
	AgentCode string
	Status    AgentStatus
	TeamID    *int64
	SessionID string
	Duration  *int64
	Timestamp time.Time
}

// Presence is the latest known status for an agent.
type Presence struct {
	AgentCode string
	Status    AgentStatus
	TeamID    *int64
	Since     time.Time
}
