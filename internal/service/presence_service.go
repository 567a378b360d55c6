package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/wallboard-service/internal/domain"
	"github.com/spec-kit/wallboard-service/internal/events"
	"github.com/spec-kit/wallboard-service/internal/repository"
	apperrors "github.com/spec-kit/wallboard-service/pkg/util"
)

// Listing bounds for history and inbox queries.
const (
	DefaultLogLimit = 50
	MaxLogLimit     = 200
)

// PresenceService records agent status changes and supervisor messages. The
// latest status lives in the presence cache; history goes to the log store.
type PresenceService struct {
	accounts   repository.AccountRepository
	teams      repository.TeamRepository
	cache      repository.PresenceCache
	logs       repository.PresenceLogRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// PresenceDependencies encapsulates collaborators of the presence service.
type PresenceDependencies struct {
	Accounts   repository.AccountRepository
	Teams      repository.TeamRepository
	Cache      repository.PresenceCache
	Logs       repository.PresenceLogRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Clock      func() time.Time
}

// StatusInput is a status change reported by an agent.
type StatusInput struct {
	AgentCode string
	Status    string
	TeamID    *int64
	SessionID string
}

// MessageInput is a message composed by a supervisor or admin.
type MessageInput struct {
	FromCode string
	ToCode   *string
	ToTeamID *int64
	Content  string
	Type     string
	Priority string
}

// NewPresenceService constructs the service.
func NewPresenceService(deps PresenceDependencies) *PresenceService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &PresenceService{
		accounts:   deps.Accounts,
		teams:      deps.Teams,
		cache:      deps.Cache,
		logs:       deps.Logs,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clock,
	}
}

// RecordStatus appends a status change and makes it the current presence. The
// entry's duration is the time spent in the previous cached status.
func (s *PresenceService) RecordStatus(ctx context.Context, in StatusInput) (*domain.StatusLog, error) {
	code, err := normalizeCode(in.AgentCode)
	if err != nil {
		return nil, err
	}
	status, err := domain.ParseAgentStatus(in.Status)
	if err != nil {
		return nil, err
	}

	teamID := in.TeamID
	if teamID == nil && s.accounts != nil {
		account, err := s.accounts.FindByUsername(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("resolve team for %s: %w", code, err)
		}
		if account != nil {
			teamID = account.TeamID
		}
	}

	now := s.now().UTC()
	previous, err := s.cache.Get(ctx, code)
	if err != nil {
		s.logger.Warn("presence cache read failed", zap.String("agent_code", code), zap.Error(err))
		previous = nil
	}

	entry := &domain.StatusLog{
		AgentCode: code,
		Status:    status,
		TeamID:    teamID,
		SessionID: strings.TrimSpace(in.SessionID),
		Timestamp: now,
	}
	var oldStatus domain.AgentStatus
	if previous != nil {
		oldStatus = previous.Status
		if !previous.Since.IsZero() {
			seconds := max(int64(now.Sub(previous.Since)/time.Second), 0)
			entry.Duration = &seconds
		}
	}

	if err := s.logs.InsertStatus(ctx, entry); err != nil {
		return nil, fmt.Errorf("log status for %s: %w", code, err)
	}
	if err := s.cache.Set(ctx, domain.Presence{AgentCode: code, Status: status, TeamID: teamID, Since: now}); err != nil {
		s.logger.Warn("presence cache write failed", zap.String("agent_code", code), zap.Error(err))
	}

	s.publish(ctx, events.EventStatusChanged, code, events.StatusChangedPayload{
		AgentCode: code,
		OldStatus: oldStatus,
		NewStatus: status,
		Duration:  entry.Duration,
	})
	return entry, nil
}

// CurrentStatus returns the cached presence, or Offline when none is cached.
func (s *PresenceService) CurrentStatus(ctx context.Context, agentCode string) (*domain.Presence, error) {
	code, err := normalizeCode(agentCode)
	if err != nil {
		return nil, err
	}
	presence, err := s.cache.Get(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("read presence for %s: %w", code, err)
	}
	if presence == nil {
		return &domain.Presence{AgentCode: code, Status: domain.AgentStatusOffline}, nil
	}
	return presence, nil
}

// StatusHistory returns the most recent status changes, newest first.
func (s *PresenceService) StatusHistory(ctx context.Context, agentCode string, limit int) ([]domain.StatusLog, error) {
	code, err := normalizeCode(agentCode)
	if err != nil {
		return nil, err
	}
	limit, err = normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	history, err := s.logs.ListStatusByAgent(ctx, code, limit)
	if err != nil {
		return nil, fmt.Errorf("status history for %s: %w", code, err)
	}
	return history, nil
}

// SendMessage stores a direct or team broadcast message.
func (s *PresenceService) SendMessage(ctx context.Context, in MessageInput) (*domain.Message, error) {
	from, err := normalizeCode(in.FromCode)
	if err != nil {
		return nil, err
	}
	msgType, err := domain.ParseMessageType(in.Type)
	if err != nil {
		return nil, err
	}
	priority, err := domain.ParsePriority(in.Priority)
	if err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if n := utf8.RuneCountInString(content); n == 0 || n > domain.MaxMessageLength {
		return nil, apperrors.NewInvalidFormat(
			fmt.Sprintf("content must be between 1 and %d characters", domain.MaxMessageLength), nil)
	}

	msg := &domain.Message{
		FromCode:  from,
		Content:   content,
		Type:      msgType,
		Priority:  priority,
		Timestamp: s.now().UTC(),
	}

	switch msgType {
	case domain.MessageTypeDirect:
		if in.ToCode == nil || strings.TrimSpace(*in.ToCode) == "" {
			return nil, apperrors.NewInvalidFormat("toCode is required for direct messages", nil)
		}
		to, err := normalizeCode(*in.ToCode)
		if err != nil {
			return nil, err
		}
		if err := s.requireRecipient(ctx, to); err != nil {
			return nil, err
		}
		msg.ToCode = &to
	case domain.MessageTypeBroadcast:
		if in.ToTeamID == nil {
			return nil, apperrors.NewInvalidFormat("toTeamId is required for broadcast messages", nil)
		}
		if err := s.requireTeam(ctx, *in.ToTeamID); err != nil {
			return nil, err
		}
		teamID := *in.ToTeamID
		msg.ToTeamID = &teamID
	}

	if err := s.logs.InsertMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("store message from %s: %w", from, err)
	}

	s.publish(ctx, events.EventMessageSent, from, events.MessageSentPayload{
		MessageID: msg.ID,
		Type:      msg.Type,
		Priority:  msg.Priority,
		ToCode:    msg.ToCode,
		ToTeamID:  msg.ToTeamID,
	})
	return msg, nil
}

// Inbox returns direct messages for the code plus broadcasts to its team.
func (s *PresenceService) Inbox(ctx context.Context, agentCode string, teamID *int64, limit int) ([]domain.Message, error) {
	code, err := normalizeCode(agentCode)
	if err != nil {
		return nil, err
	}
	limit, err = normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	msgs, err := s.logs.ListMessagesFor(ctx, code, teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("inbox for %s: %w", code, err)
	}
	return msgs, nil
}

func (s *PresenceService) requireRecipient(ctx context.Context, code string) error {
	if s.accounts == nil {
		return nil
	}
	account, err := s.accounts.FindByUsername(ctx, code)
	if err != nil {
		return fmt.Errorf("find recipient %s: %w", code, err)
	}
	if account == nil {
		return apperrors.NewNotFound("recipient", map[string]any{"to_code": code})
	}
	return nil
}

func (s *PresenceService) requireTeam(ctx context.Context, teamID int64) error {
	if teamID <= 0 {
		return apperrors.NewInvalidFormat("toTeamId must be a positive integer", map[string]any{"team_id": teamID})
	}
	if s.teams == nil {
		return nil
	}
	if _, err := s.teams.GetByID(ctx, teamID); err != nil {
		if errors.Is(err, repository.ErrTeamNotFound) {
			return apperrors.NewInvalidTeam(teamID, err)
		}
		return fmt.Errorf("load team %d: %w", teamID, err)
	}
	return nil
}

func (s *PresenceService) publish(ctx context.Context, eventType events.EventType, subject string, payload any) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, events.NewEvent(eventType, subject, actorFromContext(ctx), payload)); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func normalizeCode(raw string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if _, err := domain.ParseUsername(code); err != nil {
		return "", err
	}
	return code, nil
}

func normalizeLimit(limit int) (int, error) {
	if limit == 0 {
		return DefaultLogLimit, nil
	}
	if limit < 1 || limit > MaxLogLimit {
		return 0, apperrors.NewInvalidFormat(
			fmt.Sprintf("limit must be between 1 and %d", MaxLogLimit), map[string]any{"limit": limit})
	}
	return limit, nil
}
