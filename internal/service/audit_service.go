package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/devhub/devhub-api/internal/events"
	"github.com/devhub/devhub-api/internal/observability"
)

// AuditService records auth events to the log and to metrics.
type AuditService struct {
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewAuditService creates the service. metrics may be nil.
func NewAuditService(dispatcher events.Dispatcher, metrics *observability.Metrics, logger *zap.Logger) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		metrics:    metrics,
		logger:     logger.Named("audit"),
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.Subscribe(events.EventLoginSucceeded, a.handleLoginSucceeded)
	a.dispatcher.Subscribe(events.EventLoginFailed, a.handleLoginFailed)
	a.dispatcher.Subscribe(events.EventLoggedOut, a.count)
	a.dispatcher.Subscribe(events.EventLogoutFailed, a.count)
	a.dispatcher.Subscribe(events.EventCredentialsSwept, a.handleCredentialsSwept)
	a.dispatcher.Subscribe(events.EventProjectUserCreated, a.handleProjectUserCreated)
}

func (a *AuditService) handleLoginSucceeded(ctx context.Context, event events.Event) error {
	a.logger.Info("LoginSucceeded", zap.String("subject_id", event.SubjectID))
	return a.count(ctx, event)
}

func (a *AuditService) handleLoginFailed(ctx context.Context, event events.Event) error {
	fields := []zap.Field{zap.String("event_id", event.ID)}
	if payload, ok := event.Payload.(events.LoginFailedPayload); ok {
		fields = append(fields, zap.String("identifier", payload.Identifier), zap.String("reason", payload.Reason))
	}
	a.logger.Warn("LoginFailed", fields...)
	return a.count(ctx, event)
}

func (a *AuditService) handleCredentialsSwept(ctx context.Context, event events.Event) error {
	if payload, ok := event.Payload.(events.CredentialsSweptPayload); ok {
		a.logger.Info("CredentialsSwept", zap.Int64("count", payload.Count))
		a.metrics.RecordSwept(payload.Count)
	}
	return a.count(ctx, event)
}

func (a *AuditService) handleProjectUserCreated(ctx context.Context, event events.Event) error {
	a.logger.Info("ProjectUserCreated", zap.String("user_id", event.SubjectID), zap.Any("payload", event.Payload))
	return a.count(ctx, event)
}

func (a *AuditService) count(_ context.Context, event events.Event) error {
	a.metrics.RecordAuthEvent(string(event.Type))
	return nil
}
