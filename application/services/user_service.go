package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/events/bus"
	"github.com/hoyacom/apiman/application/ports"
	"github.com/hoyacom/apiman/domain/events"
	"github.com/hoyacom/apiman/domain/users"
	apperrors "github.com/hoyacom/apiman/pkg/errors"
)

// EventSourceManager tags events raised by management operations.
const EventSourceManager = "manager"

// UserService manages user accounts and the account approval flow.
type UserService struct {
	userRepo ports.UserRepository
	eventBus *bus.EventBus
	logger   *zap.Logger
}

// NewUserService creates a new user service.
func NewUserService(userRepo ports.UserRepository, eventBus *bus.EventBus, logger *zap.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// GetUser returns the user account for a username.
func (s *UserService) GetUser(ctx context.Context, username string) (*users.User, error) {
	if username == "" {
		return nil, apperrors.NewValidationError("username is required")
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, apperrors.NewDatabaseError("get user", err)
	}
	if user == nil {
		return nil, apperrors.NewNotFoundError("user")
	}
	return user, nil
}

// ApproveAccount marks a pending account as approved and raises an
// AccountApprovalGrantedEvent so the new user hears about it. Approving an
// already approved account is a no-op conflict.
func (s *UserService) ApproveAccount(ctx context.Context, username, approver string) error {
	user, err := s.GetUser(ctx, username)
	if err != nil {
		return err
	}
	if user.Status == users.StatusApproved {
		return apperrors.NewConflictError("account is already approved")
	}

	if err := s.userRepo.SetStatus(ctx, username, users.StatusApproved); err != nil {
		return apperrors.NewDatabaseError("set user status", err)
	}

	event := events.NewAccountApprovalGrantedEvent(EventSourceManager, username, approver, time.Now())
	if err := s.eventBus.Publish(ctx, event); err != nil {
		return apperrors.NewInternalError("failed to publish approval event").WithCause(err)
	}

	s.logger.Info("Account approved",
		zap.String("username", username),
		zap.String("approver", approver),
	)

	return nil
}
