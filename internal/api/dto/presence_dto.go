package dto

import (
	"time"

	"github.com/spec-kit/wallboard-service/internal/domain"
)

// StatusRequest payload for POST /api/status. AgentCode defaults to the
// caller.
type StatusRequest struct {
	AgentCode string `json:"agentCode"`
	Status    string `json:"status"`
	TeamID    *int64 `json:"teamId"`
	SessionID string `json:"sessionId"`
}

// StatusLogResponse payload.
type StatusLogResponse struct {
	ID        string    `json:"id"`
	AgentCode string    `json:"agentCode"`
	Status    string    `json:"status"`
	TeamID    *int64    `json:"teamId,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	Duration  *int64    `json:"duration,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewStatusLogResponse maps a log entry.
func NewStatusLogResponse(e *domain.StatusLog) StatusLogResponse {
	return StatusLogResponse{
		ID:        e.ID,
		AgentCode: e.AgentCode,
		Status:    string(e.Status),
		TeamID:    e.TeamID,
		SessionID: e.SessionID,
		Duration:  e.Duration,
		Timestamp: e.Timestamp,
	}
}

// NewStatusLogResponses maps a history listing.
func NewStatusLogResponses(entries []domain.StatusLog) []StatusLogResponse {
	out := make([]StatusLogResponse, 0, len(entries))
	for i := range entries {
		out = append(out, NewStatusLogResponse(&entries[i]))
	}
	return out
}

// PresenceResponse payload.
type PresenceResponse struct {
	AgentCode string     `json:"agentCode"`
	Status    string     `json:"status"`
	TeamID    *int64     `json:"teamId,omitempty"`
	Since     *time.Time `json:"since,omitempty"`
}

// NewPresenceResponse maps a presence snapshot.
func NewPresenceResponse(p *domain.Presence) PresenceResponse {
	resp := PresenceResponse{AgentCode: p.AgentCode, Status: string(p.Status), TeamID: p.TeamID}
	if !p.Since.IsZero() {
		since := p.Since
		resp.Since = &since
	}
	return resp
}

// MessageRequest payload for POST /api/messages.
type MessageRequest struct {
	ToCode   *string `json:"toCode"`
	ToTeamID *int64  `json:"toTeamId"`
	Content  string  `json:"content"`
	Type     string  `json:"type"`
	Priority string  `json:"priority"`
}

// MessageResponse payload.
type MessageResponse struct {
	ID        string     `json:"id"`
	FromCode  string     `json:"fromCode"`
	ToCode    *string    `json:"toCode,omitempty"`
	ToTeamID  *int64     `json:"toTeamId,omitempty"`
	Content   string     `json:"content"`
	Type      string     `json:"type"`
	Priority  string     `json:"priority"`
	IsRead    bool       `json:"isRead"`
	ReadAt    *time.Time `json:"readAt,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewMessageResponse maps a message.
func NewMessageResponse(m *domain.Message) MessageResponse {
	return MessageResponse{
		ID:        m.ID,
		FromCode:  m.FromCode,
		ToCode:    m.ToCode,
		ToTeamID:  m.ToTeamID,
		Content:   m.Content,
		Type:      string(m.Type),
		Priority:  string(m.Priority),
		IsRead:    m.IsRead,
		ReadAt:    m.ReadAt,
		Timestamp: m.Timestamp,
	}
}

// NewMessageResponses maps an inbox listing.
func NewMessageResponses(msgs []domain.Message) []MessageResponse {
	out := make([]MessageResponse, 0, len(msgs))
	for i := range msgs {
		out = append(out, NewMessageResponse(&msgs[i]))
	}
	return out
}
