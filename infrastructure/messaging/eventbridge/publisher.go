// Package eventbridge relays domain events to AWS EventBridge so off-process
// integrations (webhooks, audit trails, the websocket fan-out) can react.
package eventbridge

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"go.uber.org/zap"

	"github.com/hoyacom/apiman/domain/events"
)

// Publisher sends events to an EventBridge bus.
type Publisher struct {
	client       *eventbridge.Client
	eventBusName string
	logger       *zap.Logger
}

// NewPublisher creates a new EventBridge publisher.
func NewPublisher(client *eventbridge.Client, eventBusName string, logger *zap.Logger) *Publisher {
	return &Publisher{
		client:       client,
		eventBusName: eventBusName,
		logger:       logger,
	}
}

// Publish implements ports.ExternalEventPublisher.
func (p *Publisher) Publish(ctx context.Context, detailType string, event interface{}) error {
	detail, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	input := &eventbridge.PutEventsInput{
		Entries: []types.PutEventsRequestEntry{
			{
				EventBusName: aws.String(p.eventBusName),
				Source:       aws.String("apiman"),
				DetailType:   aws.String(detailType),
				Detail:       aws.String(string(detail)),
			},
		},
	}

	result, err := p.client.PutEvents(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to publish event to EventBridge: %w", err)
	}

	if result.FailedEntryCount > 0 {
		for _, entry := range result.Entries {
			if entry.ErrorCode != nil {
				p.logger.Error("EventBridge rejected event",
					zap.String("detailType", detailType),
					zap.String("errorCode", aws.ToString(entry.ErrorCode)),
					zap.String("errorMessage", aws.ToString(entry.ErrorMessage)),
				)
			}
		}
		return fmt.Errorf("%d events failed to publish", result.FailedEntryCount)
	}

	p.logger.Debug("Event relayed to EventBridge",
		zap.String("detailType", detailType),
		zap.String("eventBus", p.eventBusName),
	)

	return nil
}

// Relay forwards every domain event it receives from the in-process bus to
// EventBridge. It satisfies bus.EventHandler, so it can be subscribed to any
// event type worth exporting.
type Relay struct {
	publisher *Publisher
}

// NewRelay creates a relay over the publisher.
func NewRelay(publisher *Publisher) *Relay {
	return &Relay{publisher: publisher}
}

// Handle implements bus.EventHandler.
func (r *Relay) Handle(ctx context.Context, event events.DomainEvent) error {
	return r.publisher.Publish(ctx, event.Subject(), event)
}
