package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/ticket-bot/internal/events"
	"github.com/spec-kit/ticket-bot/internal/observability"
)

// AuditService records lifecycle events for diagnosis: structured logs plus
// in-memory counters served by the ops endpoint.
type AuditService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// NewAuditService creates the service.
func NewAuditService(dispatcher events.Dispatcher, logger *zap.Logger, metrics *observability.Metrics) *AuditService {
	return &AuditService{
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    metrics,
	}
}

// RegisterHandlers subscribes to events.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	for _, eventType := range []events.EventType{
		events.EventTicketOpened,
		events.EventTicketClosed,
		events.EventTicketReopened,
		events.EventTicketDeleted,
		events.EventAdminRoleAdded,
		events.EventAdminRoleRemoved,
	} {
		a.dispatcher.Subscribe(eventType, a.handleLifecycleEvent)
	}
	a.dispatcher.Subscribe(events.EventTranscriptDeliveryDegraded, a.handleDeliveryDegraded)
}

func (a *AuditService) handleLifecycleEvent(ctx context.Context, event events.Event) error {
	a.logger.Info(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("guild_id", event.GuildID),
		zap.String("channel_id", event.ChannelID),
		zap.String("actor_id", event.ActorID),
		zap.Any("payload", event.Payload))
	a.metrics.RecordAction(string(event.Type))
	return nil
}

func (a *AuditService) handleDeliveryDegraded(ctx context.Context, event events.Event) error {
	a.logger.Warn(string(event.Type),
		zap.String("event_id", event.ID),
		zap.String("guild_id", event.GuildID),
		zap.String("channel_id", event.ChannelID),
		zap.Any("payload", event.Payload))
	if payload, ok := event.Payload.(events.TranscriptDeliveryDegradedPayload); ok {
		for _, target := range payload.Targets {
			a.metrics.RecordDeliveryDegraded(target)
		}
	}
	return nil
}
