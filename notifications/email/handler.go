// Package email delivers notifications over email.
package email

import (
	"context"

	"go.uber.org/zap"

	"github.com/hoyacom/apiman/application/ports"
	notifdomain "github.com/hoyacom/apiman/domain/notifications"
	"github.com/hoyacom/apiman/pkg/observability"
)

// PreferenceReader is the slice of the notification service the handler uses
// to honor per-user opt-outs.
type PreferenceReader interface {
	GetPreference(ctx context.Context, username, notificationType string) (notifdomain.Preference, error)
}

// Handler emails notifications it has a template for. Recipients without an
// email address, and recipients who opted out of the email channel, are
// skipped without error.
type Handler struct {
	sender      ports.EmailSender
	preferences PreferenceReader
	metrics     *observability.Metrics
	logger      *zap.Logger
}

// NewHandler creates the email notification handler.
func NewHandler(sender ports.EmailSender, preferences PreferenceReader, metrics *observability.Metrics, logger *zap.Logger) *Handler {
	return &Handler{
		sender:      sender,
		preferences: preferences,
		metrics:     metrics,
		logger:      logger,
	}
}

// Wants accepts notifications that have an email template and a reachable
// recipient.
func (h *Handler) Wants(notification notifdomain.NotificationDTO) bool {
	if notification.Recipient.Email == "" {
		return false
	}
	_, ok := templates[notification.Reason]
	return ok
}

// Handle renders and sends the email.
func (h *Handler) Handle(ctx context.Context, notification notifdomain.NotificationDTO) error {
	pref, err := h.preferences.GetPreference(ctx, notification.Recipient.Username, notifdomain.ChannelEmail)
	if err != nil {
		return err
	}
	if !pref.Enabled {
		h.logger.Debug("Recipient opted out of email notifications",
			zap.String("recipient", notification.Recipient.Username),
		)
		return nil
	}

	subject, body, err := render(notification)
	if err != nil {
		return err
	}

	if err := h.sender.Send(ctx, notification.Recipient.Email, subject, body); err != nil {
		if h.metrics != nil {
			h.metrics.RecordHandlerResult(ctx, "email", err)
		}
		return err
	}

	if h.metrics != nil {
		h.metrics.RecordEmailSent(ctx, notification.Reason)
	}

	h.logger.Info("Notification email sent",
		zap.String("notificationID", notification.ID),
		zap.String("reason", notification.Reason),
		zap.String("recipient", notification.Recipient.Username),
	)

	return nil
}
