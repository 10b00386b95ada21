package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/ports"
	notifdomain "github.com/hoyacom/apiman/domain/notifications"
	"github.com/hoyacom/apiman/domain/users"
	"github.com/hoyacom/apiman/notifications"
	"github.com/hoyacom/apiman/pkg/common"
	apperrors "github.com/hoyacom/apiman/pkg/errors"
	"github.com/hoyacom/apiman/pkg/observability"
	"github.com/hoyacom/apiman/pkg/utils"
)

// NotificationService creates, stores and dispatches notifications.
//
// Sending is a three step pipeline: resolve the requested recipients to
// concrete users, persist one record per user, then hand the stored record to
// the dispatcher. Dispatch failures never undo a stored notification.
type NotificationService struct {
	notificationRepo ports.NotificationRepository
	userRepo         ports.UserRepository
	dispatcher       *notifications.Dispatcher
	metrics          *observability.Metrics
	tracer           *observability.Tracer
	logger           *zap.Logger
	enabled          bool
}

// NewNotificationService creates a new notification service. When enabled is
// false, SendNotification becomes a no-op and every other operation still
// works against already stored data.
func NewNotificationService(
	notificationRepo ports.NotificationRepository,
	userRepo ports.UserRepository,
	dispatcher *notifications.Dispatcher,
	metrics *observability.Metrics,
	tracer *observability.Tracer,
	logger *zap.Logger,
	enabled bool,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		dispatcher:       dispatcher,
		metrics:          metrics,
		tracer:           tracer,
		logger:           logger,
		enabled:          enabled,
	}
}

// SendNotification resolves the request's recipients, stores one notification
// per resolved user and dispatches each stored record. Unknown individual
// recipients resolve to nobody; a request that resolves to zero users is not
// an error.
func (s *NotificationService) SendNotification(ctx context.Context, req notifdomain.CreateNotification) error {
	if !s.enabled {
		s.logger.Debug("Notifications disabled, skipping send",
			zap.String("reason", req.Reason),
		)
		return nil
	}

	if s.tracer != nil {
		return s.tracer.TraceFunction(ctx, "notifications.send", func(ctx context.Context) error {
			return s.send(ctx, req)
		})
	}
	return s.send(ctx, req)
}

func (s *NotificationService) send(ctx context.Context, req notifdomain.CreateNotification) error {
	if err := utils.ValidateStruct(req); err != nil {
		return apperrors.NewValidationError(err.Error())
	}

	resolved, err := s.resolveRecipients(ctx, req.Recipients)
	if err != nil {
		return err
	}
	if len(resolved) == 0 {
		s.logger.Info("Notification resolved to zero recipients",
			zap.String("reason", req.Reason),
		)
		return nil
	}

	payload, err := notifdomain.MarshalPayload(req.Payload)
	if err != nil {
		return apperrors.NewInternalError("failed to encode notification payload").WithCause(err)
	}

	now := time.Now()
	for _, user := range resolved {
		record := notifdomain.Notification{
			ID:            uuid.New().String(),
			Category:      req.Category,
			Reason:        req.Reason,
			ReasonMessage: req.ReasonMessage,
			Status:        notifdomain.StatusOpen,
			Recipient:     user.Username,
			Source:        req.Source,
			Payload:       payload,
			CreatedAt:     now,
			ModifiedAt:    now,
		}

		if err := s.notificationRepo.Create(ctx, record); err != nil {
			return apperrors.NewDatabaseError("create notification", err)
		}

		dto := record.ToDTO(notifdomain.UserRef{
			Username: user.Username,
			FullName: user.FullName,
			Email:    user.Email,
			Locale:   user.Locale,
		})
		s.dispatcher.Dispatch(ctx, dto)
	}

	if s.metrics != nil {
		s.metrics.RecordNotificationSent(ctx, req.Reason, len(resolved))
	}

	s.logger.Info("Notification sent",
		zap.String("reason", req.Reason),
		zap.Int("recipients", len(resolved)),
	)

	return nil
}

// resolveRecipients expands the requested recipients into distinct users.
// An individual recipient that does not exist contributes nothing; a role
// recipient contributes every member of the role.
func (s *NotificationService) resolveRecipients(ctx context.Context, recipients []notifdomain.Recipient) ([]users.User, error) {
	seen := make(map[string]bool)
	var resolved []users.User

	for _, r := range recipients {
		switch r.Type {
		case notifdomain.RecipientIndividual:
			user, err := s.userRepo.GetByUsername(ctx, r.Recipient)
			if err != nil {
				return nil, apperrors.NewDatabaseError("get user", err)
			}
			if user == nil {
				s.logger.Warn("Notification recipient does not exist",
					zap.String("recipient", r.Recipient),
				)
				continue
			}
			if !seen[user.Username] {
				seen[user.Username] = true
				resolved = append(resolved, *user)
			}

		case notifdomain.RecipientRole:
			members, err := s.userRepo.ListByRole(ctx, r.Recipient)
			if err != nil {
				return nil, apperrors.NewDatabaseError("list users by role", err)
			}
			for _, member := range members {
				if !seen[member.Username] {
					seen[member.Username] = true
					resolved = append(resolved, member)
				}
			}

		default:
			return nil, apperrors.NewValidationError("unknown recipient type: " + string(r.Type))
		}
	}

	return resolved, nil
}

// LatestNotifications returns a page of the recipient's unread notifications,
// newest first.
func (s *NotificationService) LatestNotifications(ctx context.Context, recipient string, params common.PaginationParams) (*common.PaginatedResult, error) {
	if recipient == "" {
		return nil, apperrors.NewValidationError("recipient is required")
	}

	items, total, err := s.notificationRepo.ListUnreadByRecipient(ctx, recipient, params.PageSize, params.Offset())
	if err != nil {
		return nil, apperrors.NewDatabaseError("list notifications", err)
	}
	if items == nil {
		items = []notifdomain.Notification{}
	}

	return common.NewPaginatedResult(items, params, total), nil
}

// UnreadCount returns how many OPEN notifications the recipient has.
func (s *NotificationService) UnreadCount(ctx context.Context, recipient string) (int, error) {
	if recipient == "" {
		return 0, apperrors.NewValidationError("recipient is required")
	}

	count, err := s.notificationRepo.CountUnreadByRecipient(ctx, recipient)
	if err != nil {
		return 0, apperrors.NewDatabaseError("count notifications", err)
	}
	return count, nil
}

// MarkRead transitions the recipient's notifications to a dismissed status.
// OPEN is not a dismissal and is rejected. IDs that do not exist or belong to
// someone else are skipped silently; an empty ID list is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, recipient string, ids []string, status notifdomain.Status) error {
	if recipient == "" {
		return apperrors.NewValidationError("recipient is required")
	}
	if !status.Valid() {
		return apperrors.NewValidationError("unknown notification status: " + string(status))
	}
	if status == notifdomain.StatusOpen {
		return apperrors.NewValidationError("cannot mark a notification back to OPEN")
	}
	if len(ids) == 0 {
		return nil
	}

	if err := s.notificationRepo.MarkRead(ctx, recipient, ids, status); err != nil {
		return apperrors.NewDatabaseError("mark notifications read", err)
	}
	return nil
}

// GetPreference returns the user's preference for a notification channel.
// A channel with no stored preference is enabled.
func (s *NotificationService) GetPreference(ctx context.Context, username, notificationType string) (notifdomain.Preference, error) {
	if username == "" || notificationType == "" {
		return notifdomain.Preference{}, apperrors.NewValidationError("username and notification type are required")
	}

	pref, err := s.notificationRepo.GetPreference(ctx, username, notificationType)
	if err != nil {
		return notifdomain.Preference{}, apperrors.NewDatabaseError("get notification preference", err)
	}
	if pref == nil {
		return notifdomain.Preference{
			Username:         username,
			NotificationType: notificationType,
			Enabled:          true,
		}, nil
	}
	return *pref, nil
}

// SetPreference stores or replaces the user's preference for a channel.
func (s *NotificationService) SetPreference(ctx context.Context, pref notifdomain.Preference) error {
	if pref.Username == "" || pref.NotificationType == "" {
		return apperrors.NewValidationError("username and notification type are required")
	}

	if err := s.notificationRepo.SavePreference(ctx, pref); err != nil {
		return apperrors.NewDatabaseError("save notification preference", err)
	}
	return nil
}
