package domain

import (
	"strings"
	"time"

	apperrors "github.com/spec-kit/wallboard-service/pkg/util"
)

// MessageType differentiates one-to-one and team-wide messages.
type MessageType string

const (
	MessageTypeDirect    MessageType = "direct"
	MessageTypeBroadcast MessageType = "broadcast"
)

// MessagePriority ranks messages on the wallboard.
type MessagePriority string

const (
	PriorityLow    MessagePriority = "low"
	PriorityNormal MessagePriority = "normal"
	PriorityHigh   MessagePriority = "high"
)

// Valid reports whether p is a known priority.
func (p MessagePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return true
	}
	return false
}

// ParseMessageType defaults to direct when s is blank.
func ParseMessageType(s string) (MessageType, error) {
	switch MessageType(strings.ToLower(strings.TrimSpace(s))) {
	case "", MessageTypeDirect:
		return MessageTypeDirect, nil
	case MessageTypeBroadcast:
		return MessageTypeBroadcast, nil
	}
	return "", apperrors.NewInvalidFormat("invalid message type, allowed: direct, broadcast",
		map[string]any{"type": s})
}

// ParsePriority defaults to normal when s is blank.
func ParsePriority(s string) (MessagePriority, error) {
	p := MessagePriority(strings.ToLower(strings.TrimSpace(s)))
	if p == "" {
		return PriorityNormal, nil
	}
	if !p.Valid() {
		return "", apperrors.NewInvalidFormat("invalid priority, allowed: low, normal, high",
			map[string]any{"priority": s})
	}
	return p, nil
}

// MaxMessageLength bounds message content in characters.
const MaxMessageLength = 500

// Message is a supervisor-to-agent note kept in the message log.
type Message struct {
	ID        string
	FromCode  string
	ToCode    *string
	ToTeamID  *int64
	Content   string
	Type      MessageType
	Priority  MessagePriority
	IsRead    bool
	ReadAt    *time.Time
	Timestamp time.Time
}
