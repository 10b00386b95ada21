package notifications

import (
	"encoding/json"
	"fmt"
	"time"
)

// Status tracks the read state of a notification.
type Status string

const (
	// StatusOpen is the state of every freshly created notification.
	StatusOpen Status = "OPEN"
	// StatusUserDismissed means the recipient marked the notification read.
	StatusUserDismissed Status = "USER_DISMISSED"
	// StatusSystemDismissed means the system retired the notification on the
	// recipient's behalf (e.g. the underlying request was resolved).
	StatusSystemDismissed Status = "SYSTEM_DISMISSED"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusOpen, StatusUserDismissed, StatusSystemDismissed:
		return true
	}
	return false
}

// Category groups notifications for filtering and preference purposes.
type Category string

const (
	CategoryUserAdministration Category = "USER_ADMINISTRATION"
	CategoryApiAdministration  Category = "API_ADMINISTRATION"
	CategoryApiLifecycle       Category = "API_LIFECYCLE"
	CategoryOther              Category = "OTHER"
)

// RecipientType distinguishes a single user from a role fan-out.
type RecipientType string

const (
	RecipientIndividual RecipientType = "INDIVIDUAL"
	RecipientRole       RecipientType = "ROLE"
)

// Recipient is an unresolved notification target: either a username or the
// name of a role whose members should each receive a copy.
type Recipient struct {
	Recipient string        `json:"recipient" validate:"required"`
	Type      RecipientType `json:"type" validate:"required,oneof=INDIVIDUAL ROLE"`
}

// Notification is the persisted per-recipient record.
type Notification struct {
	ID            string          `json:"id"`
	Category      Category        `json:"category"`
	Reason        string          `json:"reason"`
	ReasonMessage string          `json:"reason_message"`
	Status        Status          `json:"status"`
	Recipient     string          `json:"recipient"`
	Source        string          `json:"source"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	ModifiedAt    time.Time       `json:"modified_at"`
}

// CreateNotification is the request to create (and dispatch) notifications.
// Recipients may mix individuals and roles; the service resolves them to
// concrete users before anything is persisted.
type CreateNotification struct {
	Recipients    []Recipient `json:"recipients" validate:"required,min=1,dive"`
	Reason        string      `json:"reason" validate:"required"`
	ReasonMessage string      `json:"reason_message" validate:"required"`
	Category      Category    `json:"category" validate:"required"`
	Source        string      `json:"source"`
	Payload       interface{} `json:"payload,omitempty"`
}

// UserRef is the resolved recipient carried on a dispatched notification.
type UserRef struct {
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// NotificationDTO is the dispatch/wire form of a notification. Handlers
// receive exactly what was persisted, with the recipient resolved to a user.
type NotificationDTO struct {
	ID            string          `json:"id"`
	Category      Category        `json:"category"`
	Reason        string          `json:"reason"`
	ReasonMessage string          `json:"reason_message"`
	Status        Status          `json:"status"`
	Recipient     UserRef         `json:"recipient"`
	Source        string          `json:"source"`
	Payload       json.RawMessage `json:"payload,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// ToDTO maps a persisted notification to its dispatch form.
func (n Notification) ToDTO(recipient UserRef) NotificationDTO {
	return NotificationDTO{
		ID:            n.ID,
		Category:      n.Category,
		Reason:        n.Reason,
		ReasonMessage: n.ReasonMessage,
		Status:        n.Status,
		Recipient:     recipient,
		Source:        n.Source,
		Payload:       n.Payload,
		CreatedAt:     n.CreatedAt,
	}
}

// Preference is a per-user, per-channel opt-out. A missing preference means
// the channel is enabled.
type Preference struct {
	Username         string `json:"username"`
	NotificationType string `json:"notification_type"`
	Enabled          bool   `json:"enabled"`
}

// MarshalPayload serializes an arbitrary payload for persistence. A nil
// payload stays nil rather than becoming the JSON literal "null".
func MarshalPayload(payload interface{}) (json.RawMessage, error) {
	if payload == nil {
		return nil, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification payload: %w", err)
	}
	return raw, nil
}
