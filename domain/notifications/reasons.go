package notifications

// Reason tags. Handlers and clients match on these, so they are part of the
// wire contract and never change meaning.
const (
	ReasonAccountApprovalRequest   = "account.approval.request"
	ReasonAccountApprovalGranted   = "account.approval.granted"
	ReasonApiSignupApprovalRequest = "api.signup.approval.request"
)

// Notification channel types used for preferences.
const (
	ChannelEmail     = "email"
	ChannelWebsocket = "websocket"
)
