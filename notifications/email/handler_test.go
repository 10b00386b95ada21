package email

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	notifdomain "github.com/hoyacom/apiman/domain/notifications"
)

type fakeEmailSender struct {
	sent []sentEmail
	err  error
}

type sentEmail struct {
	to, subject, body string
}

func (f *fakeEmailSender) Send(ctx context.Context, to, subject, body string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentEmail{to: to, subject: subject, body: body})
	return nil
}

type fakePreferences struct {
	disabled map[string]bool
}

func (f *fakePreferences) GetPreference(ctx context.Context, username, notificationType string) (notifdomain.Preference, error) {
	return notifdomain.Preference{
		Username:         username,
		NotificationType: notificationType,
		Enabled:          !f.disabled[username],
	}, nil
}

func testDTO(reason string) notifdomain.NotificationDTO {
	return notifdomain.NotificationDTO{
		ID:            "n-1",
		Reason:        reason,
		ReasonMessage: "User bob is awaiting account approval",
		Recipient: notifdomain.UserRef{
			Username: "admin",
			FullName: "Ada Admin",
			Email:    "admin@example.com",
		},
	}
}

func TestWants(t *testing.T) {
	handler := NewHandler(&fakeEmailSender{}, &fakePreferences{}, nil, zap.NewNop())

	t.Run("accepts known reasons with an email address", func(t *testing.T) {
		assert.True(t, handler.Wants(testDTO(notifdomain.ReasonAccountApprovalRequest)))
	})

	t.Run("rejects recipients without an email address", func(t *testing.T) {
		dto := testDTO(notifdomain.ReasonAccountApprovalRequest)
		dto.Recipient.Email = ""
		assert.False(t, handler.Wants(dto))
	})

	t.Run("rejects reasons without a template", func(t *testing.T) {
		assert.False(t, handler.Wants(testDTO("some.unknown.reason")))
	})
}

func TestHandleSendsEmail(t *testing.T) {
	sender := &fakeEmailSender{}
	handler := NewHandler(sender, &fakePreferences{}, nil, zap.NewNop())

	err := handler.Handle(context.Background(), testDTO(notifdomain.ReasonAccountApprovalRequest))
	require.NoError(t, err)

	require.Len(t, sender.sent, 1)
	mail := sender.sent[0]
	assert.Equal(t, "admin@example.com", mail.to)
	assert.Equal(t, "A new user is awaiting approval", mail.subject)
	assert.Contains(t, mail.body, "Hello Ada Admin")
	assert.Contains(t, mail.body, "User bob is awaiting account approval")
}

func TestHandleHonorsOptOut(t *testing.T) {
	sender := &fakeEmailSender{}
	prefs := &fakePreferences{disabled: map[string]bool{"admin": true}}
	handler := NewHandler(sender, prefs, nil, zap.NewNop())

	err := handler.Handle(context.Background(), testDTO(notifdomain.ReasonAccountApprovalRequest))
	require.NoError(t, err)
	assert.Empty(t, sender.sent)
}

func TestHandlePropagatesSendFailure(t *testing.T) {
	sender := &fakeEmailSender{err: errors.New("ses throttled")}
	handler := NewHandler(sender, &fakePreferences{}, nil, zap.NewNop())

	err := handler.Handle(context.Background(), testDTO(notifdomain.ReasonAccountApprovalRequest))
	assert.Error(t, err)
}

func TestRenderFallsBackToUsername(t *testing.T) {
	dto := testDTO(notifdomain.ReasonAccountApprovalGranted)
	dto.Recipient.FullName = ""

	subject, body, err := render(dto)
	require.NoError(t, err)
	assert.Equal(t, "Your account has been approved", subject)
	assert.Contains(t, body, "Hello admin")
}

func TestRenderUnknownReason(t *testing.T) {
	_, _, err := render(testDTO("some.unknown.reason"))
	assert.Error(t, err)
}
