package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/wallboard-service/internal/events"
)

// AuditService writes an audit line for every lifecycle and presence event.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, et := range events.AccountEventTypes {
		a.dispatcher.Subscribe(et, a.handleAccountEvent)
	}
	a.dispatcher.Subscribe(events.EventStatusChanged, a.handlePresenceEvent)
	a.dispatcher.Subscribe(events.EventMessageSent, a.handlePresenceEvent)
}

func (a *AuditService) handleAccountEvent(_ context.Context, event events.Event) error {
	a.logger.Info(string(event.Type), a.fields(event)...)
	return nil
}

func (a *AuditService) handlePresenceEvent(_ context.Context, event events.Event) error {
	a.logger.Debug(string(event.Type), a.fields(event)...)
	return nil
}

func (a *AuditService) fields(event events.Event) []zap.Field {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("subject", event.Subject),
		zap.Time("timestamp", event.Timestamp),
		zap.Any("payload", event.Payload),
	}
	if event.Actor.AccountID != nil {
		fields = append(fields,
			zap.Int64("actor_id", *event.Actor.AccountID),
			zap.String("actor", event.Actor.Username))
	}
	return fields
}
