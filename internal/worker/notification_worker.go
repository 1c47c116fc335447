package worker

import (
	"github.com/spec-kit/query-service/internal/events"
	"github.com/spec-kit/query-service/internal/observability"
	"github.com/spec-kit/query-service/internal/service"
)

// StartNotificationWorker registers notification handlers and, when metrics
// are enabled, the lifecycle counters on the same dispatcher.
func StartNotificationWorker(dispatcher events.Dispatcher, notificationService *service.NotificationService, metrics *observability.Metrics) {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	if metrics != nil && dispatcher != nil {
		metrics.SubscribeLifecycle(dispatcher)
	}
}
