// Package producers turns domain events into notifications. Each producer
// subscribes to one event type on the in-process bus, decides whether the
// event warrants a notification, and hands a creation request to the
// notification sender.
package producers

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/events/bus"
	"github.com/hoyacom/apiman/domain/events"
	notifdomain "github.com/hoyacom/apiman/domain/notifications"
	"github.com/hoyacom/apiman/domain/users"
)

// Sender is the slice of the notification service producers use.
type Sender interface {
	SendNotification(ctx context.Context, req notifdomain.CreateNotification) error
}

// Subscribe wires every producer onto the bus.
func Subscribe(eventBus *bus.EventBus, sender Sender, logger *zap.Logger) {
	eventBus.Subscribe(events.AccountSignupEvent{}, NewAccountSignupProducer(sender, logger))
	eventBus.Subscribe(events.AccountApprovalGrantedEvent{}, NewAccountApprovedProducer(sender, logger))
	eventBus.Subscribe(events.ApiSignupEvent{}, NewApiSignupProducer(sender, logger))
}

// AccountSignupProducer notifies the approver role when a signup needs a
// manual decision. Signups that do not require approval produce nothing.
type AccountSignupProducer struct {
	sender Sender
	logger *zap.Logger
}

// NewAccountSignupProducer creates the producer.
func NewAccountSignupProducer(sender Sender, logger *zap.Logger) *AccountSignupProducer {
	return &AccountSignupProducer{sender: sender, logger: logger}
}

// Handle implements bus.EventHandler.
func (p *AccountSignupProducer) Handle(ctx context.Context, event events.DomainEvent) error {
	signup, ok := event.(events.AccountSignupEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	if !signup.ApprovalRequired {
		p.logger.Debug("Signup does not require approval, no notification",
			zap.String("username", signup.Username),
		)
		return nil
	}

	return p.sender.SendNotification(ctx, notifdomain.CreateNotification{
		Recipients: []notifdomain.Recipient{
			{Recipient: users.RoleApprover, Type: notifdomain.RecipientRole},
		},
		Reason:        notifdomain.ReasonAccountApprovalRequest,
		ReasonMessage: fmt.Sprintf("User %s is awaiting account approval", signup.Username),
		Category:      notifdomain.CategoryUserAdministration,
		Source:        signup.Headers().Source,
		Payload:       signup,
	})
}

// AccountApprovedProducer tells a user their account was approved.
type AccountApprovedProducer struct {
	sender Sender
	logger *zap.Logger
}

// NewAccountApprovedProducer creates the producer.
func NewAccountApprovedProducer(sender Sender, logger *zap.Logger) *AccountApprovedProducer {
	return &AccountApprovedProducer{sender: sender, logger: logger}
}

// Handle implements bus.EventHandler.
func (p *AccountApprovedProducer) Handle(ctx context.Context, event events.DomainEvent) error {
	approved, ok := event.(events.AccountApprovalGrantedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	return p.sender.SendNotification(ctx, notifdomain.CreateNotification{
		Recipients: []notifdomain.Recipient{
			{Recipient: approved.Username, Type: notifdomain.RecipientIndividual},
		},
		Reason:        notifdomain.ReasonAccountApprovalGranted,
		ReasonMessage: "Your account has been approved",
		Category:      notifdomain.CategoryUserAdministration,
		Source:        approved.Headers().Source,
		Payload:       approved,
	})
}

// ApiSignupProducer notifies the api-approver role when a plan signup needs
// a manual decision.
type ApiSignupProducer struct {
	sender Sender
	logger *zap.Logger
}

// NewApiSignupProducer creates the producer.
func NewApiSignupProducer(sender Sender, logger *zap.Logger) *ApiSignupProducer {
	return &ApiSignupProducer{sender: sender, logger: logger}
}

// Handle implements bus.EventHandler.
func (p *ApiSignupProducer) Handle(ctx context.Context, event events.DomainEvent) error {
	signup, ok := event.(events.ApiSignupEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %T", event)
	}

	if !signup.ApprovalRequired {
		p.logger.Debug("Plan signup does not require approval, no notification",
			zap.String("username", signup.Username),
			zap.String("apiID", signup.ApiID),
		)
		return nil
	}

	return p.sender.SendNotification(ctx, notifdomain.CreateNotification{
		Recipients: []notifdomain.Recipient{
			{Recipient: users.RoleApiApprover, Type: notifdomain.RecipientRole},
		},
		Reason: notifdomain.ReasonApiSignupApprovalRequest,
		ReasonMessage: fmt.Sprintf("User %s requested access to %s/%s %s",
			signup.Username, signup.OrgID, signup.ApiID, signup.ApiVersion),
		Category: notifdomain.CategoryApiAdministration,
		Source:   signup.Headers().Source,
		Payload:  signup,
	})
}
