package events

import (
	"fmt"
	"time"
)

// DomainEvent is implemented by every event that travels on the in-process
// event bus. Events describe something that already happened.
type DomainEvent interface {
	Headers() EventHeaders
	Subject() string
}

// EventHeaders carries the envelope metadata shared by all events.
type EventHeaders struct {
	ID           string    `json:"id"`
	Source       string    `json:"source"`
	EventSubject string    `json:"subject"`
	Time         time.Time `json:"time"`
	EventVersion int       `json:"event_version"`
}

// NewEventHeaders builds headers for an event. The ID is derived from the
// entity the event is about plus its timestamp so replayed deliveries of the
// same upstream event map onto the same header ID.
func NewEventHeaders(entityID, source, subject string, at time.Time) EventHeaders {
	return EventHeaders{
		ID:           fmt.Sprintf("%s-%d", entityID, at.UnixNano()),
		Source:       source,
		EventSubject: subject,
		Time:         at,
		EventVersion: 1,
	}
}

// BaseEvent embeds the headers and satisfies the envelope half of DomainEvent.
type BaseEvent struct {
	EventHeaders EventHeaders `json:"headers"`
}

func (e BaseEvent) Headers() EventHeaders { return e.EventHeaders }
func (e BaseEvent) Subject() string       { return e.EventHeaders.EventSubject }

// Event subjects.
const (
	SubjectAccountSignup          = "account.signup"
	SubjectAccountApprovalGranted = "account.approval.granted"
	SubjectApiSignup              = "api.signup"
)

// AccountSignupEvent is raised when a new user account arrives, typically
// relayed from the SSO provider.
type AccountSignupEvent struct {
	BaseEvent
	UserID           string `json:"user_id"`
	Username         string `json:"username"`
	EmailAddress     string `json:"email_address"`
	FirstName        string `json:"first_name"`
	Surname          string `json:"surname"`
	ApprovalRequired bool   `json:"approval_required"`
}

// NewAccountSignupEvent creates an AccountSignupEvent.
func NewAccountSignupEvent(source, userID, username, email, firstName, surname string, approvalRequired bool, at time.Time) AccountSignupEvent {
	return AccountSignupEvent{
		BaseEvent:        BaseEvent{EventHeaders: NewEventHeaders(userID, source, SubjectAccountSignup, at)},
		UserID:           userID,
		Username:         username,
		EmailAddress:     email,
		FirstName:        firstName,
		Surname:          surname,
		ApprovalRequired: approvalRequired,
	}
}

// AccountApprovalGrantedEvent is raised when an approver accepts a pending
// account.
type AccountApprovalGrantedEvent struct {
	BaseEvent
	Username string `json:"username"`
	Approver string `json:"approver"`
}

// NewAccountApprovalGrantedEvent creates an AccountApprovalGrantedEvent.
func NewAccountApprovalGrantedEvent(source, username, approver string, at time.Time) AccountApprovalGrantedEvent {
	return AccountApprovalGrantedEvent{
		BaseEvent: BaseEvent{EventHeaders: NewEventHeaders(username, source, SubjectAccountApprovalGranted, at)},
		Username:  username,
		Approver:  approver,
	}
}

// ApiSignupEvent is raised when a developer requests access to an API plan
// through the portal.
type ApiSignupEvent struct {
	BaseEvent
	Username         string `json:"username"`
	OrgID            string `json:"org_id"`
	ApiID            string `json:"api_id"`
	ApiVersion       string `json:"api_version"`
	PlanID           string `json:"plan_id"`
	PlanVersion      string `json:"plan_version"`
	ApprovalRequired bool   `json:"approval_required"`
}

// NewApiSignupEvent creates an ApiSignupEvent.
func NewApiSignupEvent(source, username, orgID, apiID, apiVersion, planID, planVersion string, approvalRequired bool, at time.Time) ApiSignupEvent {
	return ApiSignupEvent{
		BaseEvent:        BaseEvent{EventHeaders: NewEventHeaders(fmt.Sprintf("%s-%s-%s", orgID, apiID, apiVersion), source, SubjectApiSignup, at)},
		Username:         username,
		OrgID:            orgID,
		ApiID:            apiID,
		ApiVersion:       apiVersion,
		PlanID:           planID,
		PlanVersion:      planVersion,
		ApprovalRequired: approvalRequired,
	}
}
