package repository

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/spec-kit/wallboard-service/internal/domain"
)

// MemoryPresenceLog keeps presence history and messages in process memory.
type MemoryPresenceLog struct {
	mu       sync.RWMutex
	seq      int
	statuses []domain.StatusLog
	messages []domain.Message
}

var _ PresenceLogRepository = (*MemoryPresenceLog)(nil)

// NewMemoryPresenceLog returns an empty log.
func NewMemoryPresenceLog() *MemoryPresenceLog {
	return &MemoryPresenceLog{}
}

func (m *MemoryPresenceLog) InsertStatus(_ context.Context, entry *domain.StatusLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	entry.ID = strconv.Itoa(m.seq)
	m.statuses = append(m.statuses, *entry)
	return nil
}

func (m *MemoryPresenceLog) ListStatusByAgent(_ context.Context, agentCode string, limit int) ([]domain.StatusLog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []domain.StatusLog{}
	for i := len(m.statuses) - 1; i >= 0; i-- {
		if m.statuses[i].AgentCode == agentCode {
			result = append(result, m.statuses[i])
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Timestamp.After(result[j].Timestamp) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MemoryPresenceLog) InsertMessage(_ context.Context, msg *domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	msg.ID = strconv.Itoa(m.seq)
	m.messages = append(m.messages, *msg)
	return nil
}

func (m *MemoryPresenceLog) ListMessagesFor(_ context.Context, agentCode string, teamID *int64, limit int) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := []domain.Message{}
	for i := len(m.messages) - 1; i >= 0; i-- {
		msg := m.messages[i]
		switch msg.Type {
		case domain.MessageTypeDirect:
			if msg.ToCode == nil || *msg.ToCode != agentCode {
				continue
			}
		case domain.MessageTypeBroadcast:
			if teamID == nil || msg.ToTeamID == nil || *msg.ToTeamID != *teamID {
				continue
			}
		default:
			continue
		}
		result = append(result, msg)
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Timestamp.After(result[j].Timestamp) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
