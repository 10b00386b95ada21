package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/events/bus"
	"github.com/hoyacom/apiman/application/ports"
	"github.com/hoyacom/apiman/domain/events"
	"github.com/hoyacom/apiman/domain/users"
	apperrors "github.com/hoyacom/apiman/pkg/errors"
	"github.com/hoyacom/apiman/pkg/utils"
)

// EventSourceSso tags events relayed from the identity provider.
const EventSourceSso = "sso"

// NewAccountCreated is the callback body the identity provider posts when a
// user registers.
type NewAccountCreated struct {
	UserID           string    `json:"user_id" validate:"required"`
	Username         string    `json:"username" validate:"required"`
	EmailAddress     string    `json:"email_address" validate:"required,email"`
	FirstName        string    `json:"first_name"`
	Surname          string    `json:"surname"`
	ApprovalRequired bool      `json:"approval_required"`
	Time             time.Time `json:"time"`
}

// SsoEventService translates identity provider callbacks into local accounts
// and domain events.
type SsoEventService struct {
	userRepo ports.UserRepository
	eventBus *bus.EventBus
	logger   *zap.Logger
}

// NewSsoEventService creates a new SSO event service.
func NewSsoEventService(userRepo ports.UserRepository, eventBus *bus.EventBus, logger *zap.Logger) *SsoEventService {
	return &SsoEventService{
		userRepo: userRepo,
		eventBus: eventBus,
		logger:   logger,
	}
}

// AccountSignup records the new account locally and raises an
// AccountSignupEvent. The provider retries deliveries, so an account that
// already exists is not recreated; the event is still published because
// downstream consumers deduplicate on the event ID.
func (s *SsoEventService) AccountSignup(ctx context.Context, req NewAccountCreated) error {
	if err := utils.ValidateStruct(req); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	at := req.Time
	if at.IsZero() {
		at = time.Now()
	}

	existing, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		return apperrors.NewDatabaseError("get user", err)
	}

	if existing == nil {
		status := users.StatusApproved
		if req.ApprovalRequired {
			status = users.StatusPendingApproval
		}

		user := users.User{
			Username:  req.Username,
			FullName:  strings.TrimSpace(req.FirstName + " " + req.Surname),
			Email:     req.EmailAddress,
			Status:    status,
			JoinedAt:  at,
			UpdatedAt: at,
		}
		if err := s.userRepo.Create(ctx, user); err != nil {
			return apperrors.NewDatabaseError("create user", err)
		}
	} else {
		s.logger.Info("Account already exists, skipping create",
			zap.String("username", req.Username),
		)
	}

	event := events.NewAccountSignupEvent(
		EventSourceSso,
		req.UserID,
		req.Username,
		req.EmailAddress,
		req.FirstName,
		req.Surname,
		req.ApprovalRequired,
		at,
	)
	if err := s.eventBus.Publish(ctx, event); err != nil {
		return apperrors.NewInternalError("failed to publish signup event").WithCause(err)
	}

	s.logger.Info("Account signup processed",
		zap.String("username", req.Username),
		zap.Bool("approvalRequired", req.ApprovalRequired),
	)

	return nil
}
