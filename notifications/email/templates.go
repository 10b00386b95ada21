package email

import (
	"bytes"
	"fmt"
	"text/template"

	notifdomain "github.com/hoyacom/apiman/domain/notifications"
)

// emailTemplate is a renderable subject and body pair for one reason tag.
type emailTemplate struct {
	subject *template.Template
	body    *template.Template
}

// templateData is what the templates render against.
type templateData struct {
	Notification notifdomain.NotificationDTO
	Recipient    notifdomain.UserRef
}

var templates = map[string]emailTemplate{
	notifdomain.ReasonAccountApprovalRequest: {
		subject: mustParse("subject", "A new user is awaiting approval"),
		body: mustParse("body",
			"Hello {{or .Recipient.FullName .Recipient.Username}},\n\n"+
				"{{.Notification.ReasonMessage}}.\n\n"+
				"Please review the pending account in the administration console.\n"),
	},
	notifdomain.ReasonAccountApprovalGranted: {
		subject: mustParse("subject", "Your account has been approved"),
		body: mustParse("body",
			"Hello {{or .Recipient.FullName .Recipient.Username}},\n\n"+
				"Your account has been approved. You can now log in and start using the portal.\n"),
	},
	notifdomain.ReasonApiSignupApprovalRequest: {
		subject: mustParse("subject", "An API signup is awaiting approval"),
		body: mustParse("body",
			"Hello {{or .Recipient.FullName .Recipient.Username}},\n\n"+
				"{{.Notification.ReasonMessage}}.\n\n"+
				"Please review the pending signup in the administration console.\n"),
	},
}

func mustParse(name, text string) *template.Template {
	return template.Must(template.New(name).Parse(text))
}

// render produces the subject and body for a notification.
func render(dto notifdomain.NotificationDTO) (subject, body string, err error) {
	tmpl, ok := templates[dto.Reason]
	if !ok {
		return "", "", fmt.Errorf("no email template for reason %q", dto.Reason)
	}

	data := templateData{Notification: dto, Recipient: dto.Recipient}

	var subjBuf, bodyBuf bytes.Buffer
	if err := tmpl.subject.Execute(&subjBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to render subject: %w", err)
	}
	if err := tmpl.body.Execute(&bodyBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to render body: %w", err)
	}

	return subjBuf.String(), bodyBuf.String(), nil
}
