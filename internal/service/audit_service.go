package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/events"
)

// AuditService logs account lifecycle events.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger) *AuditService {
	return &AuditService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventUserRegistered, a.logEvent)
	a.dispatcher.Subscribe(events.EventUserActivated, a.logEvent)
	a.dispatcher.Subscribe(events.EventUserDeleted, a.logEvent)
	a.dispatcher.Subscribe(events.EventPasswordChanged, a.logEvent)
}

func (a *AuditService) logEvent(_ context.Context, event events.Event) error {
	a.logger.Info("account event",
		zap.String("type", string(event.Type)),
		zap.String("user_id", event.UserID),
		zap.String("username", event.Username),
		zap.Any("payload", event.Payload))
	return nil
}
