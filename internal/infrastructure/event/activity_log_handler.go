package event

import (
	"context"

	"github.com/agency/backend/internal/domain/shared"
	"github.com/agency/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// ActivityLogHandler writes one structured log line per domain event.
// It subscribes to all event types.
type ActivityLogHandler struct {
	serializer *EventSerializer
	logger     *zap.Logger
}

// NewActivityLogHandler creates an activity log handler
func NewActivityLogHandler(serializer *EventSerializer, log *zap.Logger) *ActivityLogHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ActivityLogHandler{
		serializer: serializer,
		logger:     log.Named("activity"),
	}
}

// EventTypes returns nil so the handler receives every event
func (h *ActivityLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event with its masked payload
func (h *ActivityLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_type", event.EventType()),
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.String("tenant_id", event.TenantID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}
	if requestID := logger.GetRequestID(ctx); requestID != "" {
		fields = append(fields, zap.String("request_id", requestID))
	}
	if userID := logger.GetUserID(ctx); userID != "" {
		fields = append(fields, zap.String("user_id", userID))
	}

	payload, err := h.serializer.MaskedPayload(event)
	if err != nil {
		return err
	}
	fields = append(fields, zap.ByteString("payload", payload))

	logger.WithTraceContext(ctx, h.logger).Info("domain event", fields...)
	return nil
}

// Ensure ActivityLogHandler implements EventHandler
var _ shared.EventHandler = (*ActivityLogHandler)(nil)
