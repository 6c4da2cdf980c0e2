package service

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/spec-kit/order-service/internal/domain"
	"github.com/spec-kit/order-service/internal/events"
	"github.com/spec-kit/order-service/internal/repository"
)

// AuditService turns admin-actor events into admin_logs rows. User-actor
// events are logged but not persisted.
type AuditService struct {
	adminLogs repository.AdminLogRepository
	logger    *zap.Logger
}

// NewAuditService constructs the service.
func NewAuditService(adminLogs repository.AdminLogRepository, logger *zap.Logger) *AuditService {
	return &AuditService{adminLogs: adminLogs, logger: logger}
}

// RegisterHandlers subscribes the audit handler to every auditable event type.
func (s *AuditService) RegisterHandlers(dispatcher events.Dispatcher) {
	for _, eventType := range []events.EventType{
		events.EventOrderCreated,
		events.EventOrderCancelled,
		events.EventOrderUpdated,
		events.EventOrderDeleted,
		events.EventUserUpdated,
		events.EventUserDeleted,
		events.EventCatalogChanged,
	} {
		dispatcher.Subscribe(eventType, s.handle)
	}
}

func (s *AuditService) handle(ctx context.Context, event events.Event) error {
	s.logger.Info("audit event",
		zap.String("event_id", event.ID),
		zap.String("type", string(event.Type)),
		zap.Int64("actor_id", event.Actor.UserID),
		zap.String("target_type", event.TargetType),
	)

	if event.Actor.Role != domain.RoleAdmin {
		return nil
	}

	details := ""
	if len(event.Details) > 0 {
		raw, err := json.Marshal(event.Details)
		if err != nil {
			s.logger.Warn("audit details marshal failed", zap.String("event_id", event.ID), zap.Error(err))
		} else {
			details = string(raw)
		}
	}

	entry := &domain.AdminLog{
		AdminID:    event.Actor.UserID,
		Action:     string(event.Type),
		TargetType: event.TargetType,
		TargetID:   event.TargetID,
		Details:    details,
	}
	if err := s.adminLogs.Create(ctx, entry); err != nil {
		s.logger.Error("audit entry write failed", zap.String("event_id", event.ID), zap.Error(err))
		return err
	}
	return nil
}
