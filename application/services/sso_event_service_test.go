package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/events/bus"
	"github.com/hoyacom/apiman/domain/events"
	"github.com/hoyacom/apiman/domain/users"
	apperrors "github.com/hoyacom/apiman/pkg/errors"
)

func newTestSsoEventService(userRepo *fakeUserRepo) (*SsoEventService, *[]events.DomainEvent) {
	logger := zap.NewNop()
	eventBus := bus.NewEventBus(logger)

	var published []events.DomainEvent
	eventBus.Subscribe(events.AccountSignupEvent{}, bus.EventHandlerFunc(func(ctx context.Context, event events.DomainEvent) error {
		published = append(published, event)
		return nil
	}))

	return NewSsoEventService(userRepo, eventBus, logger), &published
}

func TestAccountSignupCreatesPendingAccount(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc, published := newTestSsoEventService(userRepo)

	err := svc.AccountSignup(context.Background(), NewAccountCreated{
		UserID:           "u-1",
		Username:         "bob",
		EmailAddress:     "bob@example.com",
		FirstName:        "Bob",
		Surname:          "Builder",
		ApprovalRequired: true,
		Time:             time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	user, _ := userRepo.GetByUsername(context.Background(), "bob")
	require.NotNil(t, user)
	assert.Equal(t, users.StatusPendingApproval, user.Status)
	assert.Equal(t, "Bob Builder", user.FullName)
	assert.Equal(t, "bob@example.com", user.Email)

	require.Len(t, *published, 1)
	event, ok := (*published)[0].(events.AccountSignupEvent)
	require.True(t, ok)
	assert.True(t, event.ApprovalRequired)
	assert.Equal(t, EventSourceSso, event.Headers().Source)
}

func TestAccountSignupWithoutApprovalIsApproved(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc, _ := newTestSsoEventService(userRepo)

	err := svc.AccountSignup(context.Background(), NewAccountCreated{
		UserID:       "u-2",
		Username:     "carol",
		EmailAddress: "carol@example.com",
	})
	require.NoError(t, err)

	user, _ := userRepo.GetByUsername(context.Background(), "carol")
	require.NotNil(t, user)
	assert.Equal(t, users.StatusApproved, user.Status)
}

func TestAccountSignupIsIdempotent(t *testing.T) {
	userRepo := newFakeUserRepo()
	userRepo.add(users.User{Username: "bob", Status: users.StatusPendingApproval})
	svc, published := newTestSsoEventService(userRepo)

	// A redelivered callback must not recreate the account but still
	// republishes the event for downstream deduplication.
	err := svc.AccountSignup(context.Background(), NewAccountCreated{
		UserID:           "u-1",
		Username:         "bob",
		EmailAddress:     "bob@example.com",
		ApprovalRequired: true,
	})
	require.NoError(t, err)
	assert.Empty(t, userRepo.created)
	assert.Len(t, *published, 1)
}

func TestAccountSignupValidation(t *testing.T) {
	svc, _ := newTestSsoEventService(newFakeUserRepo())

	err := svc.AccountSignup(context.Background(), NewAccountCreated{
		Username:     "bob",
		EmailAddress: "not-an-email",
	})
	assert.True(t, apperrors.IsValidation(err))
}
