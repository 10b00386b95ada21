package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/events/bus"
	"github.com/hoyacom/apiman/domain/events"
	"github.com/hoyacom/apiman/domain/users"
	apperrors "github.com/hoyacom/apiman/pkg/errors"
)

func newTestUserService(userRepo *fakeUserRepo) (*UserService, *[]events.DomainEvent) {
	logger := zap.NewNop()
	eventBus := bus.NewEventBus(logger)

	var published []events.DomainEvent
	eventBus.Subscribe(events.AccountApprovalGrantedEvent{}, bus.EventHandlerFunc(func(ctx context.Context, event events.DomainEvent) error {
		published = append(published, event)
		return nil
	}))

	return NewUserService(userRepo, eventBus, logger), &published
}

func TestGetUser(t *testing.T) {
	userRepo := newFakeUserRepo()
	userRepo.add(users.User{Username: "alice", Status: users.StatusApproved})
	svc, _ := newTestUserService(userRepo)

	t.Run("returns the user", func(t *testing.T) {
		user, err := svc.GetUser(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("unknown user is not found", func(t *testing.T) {
		_, err := svc.GetUser(context.Background(), "ghost")
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestApproveAccount(t *testing.T) {
	t.Run("approves a pending account and raises an event", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		userRepo.add(users.User{Username: "bob", Status: users.StatusPendingApproval})
		svc, published := newTestUserService(userRepo)

		err := svc.ApproveAccount(context.Background(), "bob", "admin")
		require.NoError(t, err)

		user, _ := userRepo.GetByUsername(context.Background(), "bob")
		assert.Equal(t, users.StatusApproved, user.Status)

		require.Len(t, *published, 1)
		event, ok := (*published)[0].(events.AccountApprovalGrantedEvent)
		require.True(t, ok)
		assert.Equal(t, "bob", event.Username)
		assert.Equal(t, "admin", event.Approver)
	})

	t.Run("already approved is a conflict", func(t *testing.T) {
		userRepo := newFakeUserRepo()
		userRepo.add(users.User{Username: "bob", Status: users.StatusApproved})
		svc, published := newTestUserService(userRepo)

		err := svc.ApproveAccount(context.Background(), "bob", "admin")
		assert.True(t, apperrors.IsConflict(err))
		assert.Empty(t, *published)
	})

	t.Run("unknown account is not found", func(t *testing.T) {
		svc, _ := newTestUserService(newFakeUserRepo())
		err := svc.ApproveAccount(context.Background(), "ghost", "admin")
		assert.True(t, apperrors.IsNotFound(err))
	})
}
