package configuration

import (
	"context"
	"fmt"

	"github.com/carconfig/backend/internal/domain/configuration"
	"github.com/carconfig/backend/internal/domain/shared"
	"github.com/carconfig/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// AuditHandler writes an audit log line for every committed configuration
// change
type AuditHandler struct {
	logger *zap.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(logger *zap.Logger) *AuditHandler {
	return &AuditHandler{logger: logger.Named("audit")}
}

// EventTypes returns the event types this handler is interested in
func (h *AuditHandler) EventTypes() []string {
	return []string{
		configuration.EventTypeConfigurationCreated,
		configuration.EventTypeConfigurationUpdated,
		configuration.EventTypeConfigurationDeleted,
	}
}

// Handle logs the event
func (h *AuditHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	l := logger.Enrich(ctx, h.logger).With(
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.Int64("user_id", event.AggregateID()),
		zap.Time("occurred_at", event.OccurredAt()),
	)

	switch e := event.(type) {
	case *configuration.ConfigurationCreatedEvent:
		l.Info("configuration created",
			zap.Int64("car_model_id", e.CarModelID),
			zap.Int64s("reserved", e.AccessoryIDs),
		)
	case *configuration.ConfigurationUpdatedEvent:
		l.Info("configuration updated",
			zap.Int64("car_model_id", e.CarModelID),
			zap.Int64s("reserved", e.Added),
			zap.Int64s("released", e.Removed),
		)
	case *configuration.ConfigurationDeletedEvent:
		l.Info("configuration deleted", zap.Int64s("released", e.Released))
	default:
		return fmt.Errorf("unexpected event type %T", event)
	}
	return nil
}

var _ shared.EventHandler = (*AuditHandler)(nil)
