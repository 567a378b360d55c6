package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/wallboard-service/internal/domain"
	"github.com/spec-kit/wallboard-service/internal/events"
	"github.com/spec-kit/wallboard-service/internal/repository"
	apperrors "github.com/spec-kit/wallboard-service/pkg/util"
)

type presenceFixture struct {
	svc      *PresenceService
	store    *repository.MemoryStore
	logs     *repository.MemoryPresenceLog
	mr       *miniredis.Miniredis
	now      time.Time
	recorded *recordedEvents
}

func newPresenceFixture(t *testing.T) *presenceFixture {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &presenceFixture{
		store:    repository.NewMemoryStore(domain.Team{ID: 1, Name: "Team Alpha"}, domain.Team{ID: 2, Name: "Team Beta"}),
		logs:     repository.NewMemoryPresenceLog(),
		mr:       mr,
		now:      time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC),
		recorded: &recordedEvents{},
	}
	dispatcher := events.NewInMemoryDispatcher()
	dispatcher.Subscribe(events.EventStatusChanged, f.recorded.handle)
	dispatcher.Subscribe(events.EventMessageSent, f.recorded.handle)

	f.svc = NewPresenceService(PresenceDependencies{
		Accounts:   f.store,
		Teams:      f.store,
		Cache:      repository.NewRedisPresenceCache(client, time.Hour),
		Logs:       f.logs,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
		Clock:      func() time.Time { return f.now },
	})

	ctx := context.Background()
	_, err = f.store.Insert(ctx, domain.AccountDraft{Username: "AG001", FullName: "Jo Lee", Role: domain.RoleAgent, TeamID: int64Ptr(1)})
	require.NoError(t, err)
	_, err = f.store.Insert(ctx, domain.AccountDraft{Username: "SP001", FullName: "Sup Er", Role: domain.RoleSupervisor, TeamID: int64Ptr(1)})
	require.NoError(t, err)
	return f
}

func TestRecordStatus_DurationAndCurrent(t *testing.T) {
	f := newPresenceFixture(t)
	ctx := context.Background()

	first, err := f.svc.RecordStatus(ctx, StatusInput{AgentCode: "ag001", Status: "available"})
	require.NoError(t, err)
	assert.Equal(t, "AG001", first.AgentCode)
	assert.Nil(t, first.Duration)
	require.NotNil(t, first.TeamID)
	assert.Equal(t, int64(1), *first.TeamID)

	f.now = f.now.Add(90 * time.Second)
	second, err := f.svc.RecordStatus(ctx, StatusInput{AgentCode: "AG001", Status: "Busy", SessionID: "s-1"})
	require.NoError(t, err)
	require.NotNil(t, second.Duration)
	assert.Equal(t, int64(90), *second.Duration)

	current, err := f.svc.CurrentStatus(ctx, "AG001")
	require.NoError(t, err)
	assert.Equal(t, domain.AgentStatusBusy, current.Status)
	assert.True(t, f.now.Equal(current.Since))

	history, err := f.svc.StatusHistory(ctx, "AG001", 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.AgentStatusBusy, history[0].Status)

	assert.Len(t, f.recorded.types(), 2)
}

func TestRecordStatus_Invalid(t *testing.T) {
	f := newPresenceFixture(t)
	ctx := context.Background()

	_, err := f.svc.RecordStatus(ctx, StatusInput{AgentCode: "ZZ001", Status: "Busy"})
	requireCode(t, err, apperrors.CodeInvalidFormat)

	_, err = f.svc.RecordStatus(ctx, StatusInput{AgentCode: "AG001", Status: "Napping"})
	requireCode(t, err, apperrors.CodeInvalidFormat)
}

func TestRecordStatus_CacheDownStillLogs(t *testing.T) {
	f := newPresenceFixture(t)
	f.mr.Close()

	entry, err := f.svc.RecordStatus(context.Background(), StatusInput{AgentCode: "AG001", Status: "Break"})
	require.NoError(t, err)
	assert.Nil(t, entry.Duration)

	history, err := f.logs.ListStatusByAgent(context.Background(), "AG001", 10)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestCurrentStatus_DefaultsOffline(t *testing.T) {
	f := newPresenceFixture(t)
	current, err := f.svc.CurrentStatus(context.Background(), "AG777")
	require.NoError(t, err)
	assert.Equal(t, domain.AgentStatusOffline, current.Status)
}

func TestStatusHistory_LimitBounds(t *testing.T) {
	f := newPresenceFixture(t)
	ctx := context.Background()

	_, err := f.svc.StatusHistory(ctx, "AG001", -1)
	requireCode(t, err, apperrors.CodeInvalidFormat)
	_, err = f.svc.StatusHistory(ctx, "AG001", MaxLogLimit+1)
	requireCode(t, err, apperrors.CodeInvalidFormat)
	_, err = f.svc.StatusHistory(ctx, "AG001", MaxLogLimit)
	assert.NoError(t, err)
}

func TestSendMessage_DirectAndBroadcast(t *testing.T) {
	f := newPresenceFixture(t)
	ctx := context.Background()

	direct, err := f.svc.SendMessage(ctx, MessageInput{FromCode: "SP001", ToCode: strPtr("ag001"), Content: "  please call back  "})
	require.NoError(t, err)
	assert.Equal(t, domain.MessageTypeDirect, direct.Type)
	assert.Equal(t, domain.PriorityNormal, direct.Priority)
	assert.Equal(t, "please call back", direct.Content)
	assert.Equal(t, "AG001", *direct.ToCode)

	f.now = f.now.Add(time.Minute)
	broadcast, err := f.svc.SendMessage(ctx, MessageInput{FromCode: "SP001", ToTeamID: int64Ptr(1), Type: "broadcast", Priority: "high", Content: "queue is long"})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityHigh, broadcast.Priority)

	inbox, err := f.svc.Inbox(ctx, "AG001", int64Ptr(1), 0)
	require.NoError(t, err)
	require.Len(t, inbox, 2)
	assert.Equal(t, broadcast.ID, inbox[0].ID)
	assert.Equal(t, direct.ID, inbox[1].ID)

	otherTeam, err := f.svc.Inbox(ctx, "AG001", int64Ptr(2), 0)
	require.NoError(t, err)
	assert.Len(t, otherTeam, 1)
}

func TestSendMessage_Invalid(t *testing.T) {
	f := newPresenceFixture(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   MessageInput
		code string
	}{
		{"direct without recipient", MessageInput{FromCode: "SP001", Content: "hi"}, apperrors.CodeInvalidFormat},
		{"bad recipient code", MessageInput{FromCode: "SP001", ToCode: strPtr("nobody"), Content: "hi"}, apperrors.CodeInvalidFormat},
		{"unknown recipient", MessageInput{FromCode: "SP001", ToCode: strPtr("AG404"), Content: "hi"}, apperrors.CodeNotFound},
		{"broadcast without team", MessageInput{FromCode: "SP001", Type: "broadcast", Content: "hi"}, apperrors.CodeInvalidFormat},
		{"broadcast to missing team", MessageInput{FromCode: "SP001", Type: "broadcast", ToTeamID: int64Ptr(9), Content: "hi"}, apperrors.CodeInvalidTeam},
		{"empty content", MessageInput{FromCode: "SP001", ToCode: strPtr("AG001"), Content: "   "}, apperrors.CodeInvalidFormat},
		{"long content", MessageInput{FromCode: "SP001", ToCode: strPtr("AG001"), Content: strings.Repeat("x", domain.MaxMessageLength+1)}, apperrors.CodeInvalidFormat},
		{"bad priority", MessageInput{FromCode: "SP001", ToCode: strPtr("AG001"), Content: "hi", Priority: "urgent"}, apperrors.CodeInvalidFormat},
		{"bad type", MessageInput{FromCode: "SP001", ToCode: strPtr("AG001"), Content: "hi", Type: "sms"}, apperrors.CodeInvalidFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SendMessage(ctx, tt.in)
			requireCode(t, err, tt.code)
		})
	}
}

func strPtr(s string) *string { return &s }
