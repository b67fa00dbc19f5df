package worker

import (
	"context"

	"github.com/spec-kit/rescue-service/internal/events"
	"github.com/spec-kit/rescue-service/internal/service"
)

// StartNotificationWorker registers notification handlers.
func StartNotificationWorker(notificationService *service.NotificationService) {
	if notificationService == nil {
		return
	}
	notificationService.RegisterHandlers()
}

// StartEventRelay runs the cross-instance event listener until ctx ends, so
// a pending board on one instance follows lifecycle changes made on another.
func StartEventRelay(ctx context.Context, relay *events.RedisDispatcher) {
	if relay == nil {
		return
	}
	go relay.Listen(ctx)
}
