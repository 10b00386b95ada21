// Package notifications routes freshly created notifications to the handlers
// that know what to do with them (email, websocket push, ...). Handlers match
// on the notification's reason string rather than on Go types, so new reasons
// can be introduced without touching the dispatcher.
package notifications

import (
	"context"
	"sync"

	"github.com/hoyacom/apiman/domain/notifications"

	"go.uber.org/zap"
)

// Handler is a notification consumer. Wants filters by reason (or any other
// attribute of the DTO); Handle performs the side effect.
type Handler interface {
	Wants(notification notifications.NotificationDTO) bool
	Handle(ctx context.Context, notification notifications.NotificationDTO) error
}

// Dispatcher fans dispatched notifications out to all interested handlers.
type Dispatcher struct {
	handlers []Handler
	logger   *zap.Logger
	mu       sync.RWMutex
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher(logger *zap.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

// Register adds a handler. Registration order is delivery order.
func (d *Dispatcher) Register(handlers ...Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, handlers...)
}

// Dispatch delivers the notification to every handler whose Wants returns
// true. Handler errors are logged and never propagated: a broken email relay
// must not roll back the notification that was already persisted.
func (d *Dispatcher) Dispatch(ctx context.Context, notification notifications.NotificationDTO) {
	d.mu.RLock()
	handlers := make([]Handler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	for _, handler := range handlers {
		if !handler.Wants(notification) {
			continue
		}
		if err := handler.Handle(ctx, notification); err != nil {
			d.logger.Error("Notification handler failed",
				zap.String("notificationID", notification.ID),
				zap.String("reason", notification.Reason),
				zap.String("recipient", notification.Recipient.Username),
				zap.Error(err),
			)
		}
	}
}
