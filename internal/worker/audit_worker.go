package worker

import (
	"github.com/spec-kit/order-service/internal/events"
	"github.com/spec-kit/order-service/internal/service"
)

// StartAuditWorker registers the audit trail handlers.
func StartAuditWorker(auditService *service.AuditService, dispatcher events.Dispatcher) {
	if auditService == nil || dispatcher == nil {
		return
	}
	auditService.RegisterHandlers(dispatcher)
}
