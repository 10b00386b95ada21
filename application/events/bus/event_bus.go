package bus

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"github.com/hoyacom/apiman/domain/events"

	"go.uber.org/zap"
)

// EventHandler consumes domain events of the type it subscribed for.
type EventHandler interface {
	Handle(ctx context.Context, event events.DomainEvent) error
}

// EventHandlerFunc is an adapter to allow functions to be used as handlers.
type EventHandlerFunc func(ctx context.Context, event events.DomainEvent) error

// Handle implements EventHandler.
func (f EventHandlerFunc) Handle(ctx context.Context, event events.DomainEvent) error {
	return f(ctx, event)
}

// EventBus is the in-process publish/subscribe fabric for domain events.
// Subscriptions are keyed by the concrete event type; publishing delivers to
// every subscriber of that type, in registration order, on the caller's
// goroutine. A subscriber error is logged and does not stop delivery to the
// remaining subscribers.
type EventBus struct {
	subscribers map[reflect.Type][]EventHandler
	logger      *zap.Logger
	mu          sync.RWMutex
}

// NewEventBus creates a new event bus.
func NewEventBus(logger *zap.Logger) *EventBus {
	return &EventBus{
		subscribers: make(map[reflect.Type][]EventHandler),
		logger:      logger,
	}
}

// Subscribe registers a handler for the concrete type of prototype.
func (b *EventBus) Subscribe(prototype events.DomainEvent, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t := reflect.TypeOf(prototype)
	b.subscribers[t] = append(b.subscribers[t], handler)
}

// Publish delivers the event to every subscriber of its type. The returned
// error reflects publication problems only; subscriber failures are logged
// and swallowed so one consumer can never break another.
func (b *EventBus) Publish(ctx context.Context, event events.DomainEvent) error {
	if event == nil {
		return fmt.Errorf("cannot publish a nil event")
	}

	b.mu.RLock()
	handlers := b.subscribers[reflect.TypeOf(event)]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("No subscribers for event",
			zap.String("subject", event.Subject()),
			zap.String("eventID", event.Headers().ID),
		)
		return nil
	}

	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			b.logger.Error("Event subscriber failed",
				zap.String("subject", event.Subject()),
				zap.String("eventID", event.Headers().ID),
				zap.Error(err),
			)
		}
	}

	return nil
}
