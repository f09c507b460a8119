package domain

// Channel is the outreach delivery channel for a lead.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelChat  Channel = "chat"
	ChannelVoice Channel = "voice"
)

// ParseChannel maps a string to a known channel. Unknown values are rejected
// so new channels cannot silently fall through to a default branch.
func ParseChannel(value string) (Channel, bool) {
	switch Channel(value) {
	case ChannelEmail, ChannelChat, ChannelVoice:
		return Channel(value), true
	}
	return "", false
}

// Classification is the four-way outcome of reply classification.
type Classification string

const (
	ClassificationPositive    Classification = "positive"
	ClassificationObjection   Classification = "objection"
	ClassificationNoResponse  Classification = "no_response"
	ClassificationUnsubscribe Classification = "unsubscribe"
)

// ParseClassification maps a string to a known classification.
func ParseClassification(value string) (Classification, bool) {
	switch Classification(value) {
	case ClassificationPositive, ClassificationObjection, ClassificationNoResponse, ClassificationUnsubscribe:
		return Classification(value), true
	}
	return "", false
}

// ApprovalState tracks the outcome of the approval gate.
type ApprovalState string

const (
	ApprovalPending  ApprovalState = "pending"
	ApprovalApproved ApprovalState = "approved"
	ApprovalAuto     ApprovalState = "auto"
	ApprovalRejected ApprovalState = "rejected"
)

// DraftKind distinguishes what the pending draft is for.
type DraftKind string

const (
	DraftInitial  DraftKind = "initial"
	DraftFollowUp DraftKind = "followup"
	DraftRebuttal DraftKind = "rebuttal"
)

// Status is the workflow status. Terminal statuses end the workflow;
// suspended statuses describe why a non-terminal workflow is parked.
type Status string

const (
	StatusActive           Status = "active"
	StatusPendingApproval  Status = "pending_approval"
	StatusAwaitingReply    Status = "awaiting_reply"
	StatusSendScheduled    Status = "send_scheduled"
	StatusDisqualified     Status = "disqualified"
	StatusApprovalRejected Status = "approval_rejected"
	StatusNoResponse       Status = "no_response"
	StatusObjectionLoopMax Status = "objection_loop_max"
	StatusUnsubscribed     Status = "unsubscribed"
	StatusBookingReady     Status = "booking_ready"
)

// terminalStatuses are statuses after which no further transitions occur.
var terminalStatuses = map[Status]bool{
	StatusDisqualified:     true,
	StatusApprovalRejected: true,
	StatusNoResponse:       true,
	StatusObjectionLoopMax: true,
	StatusUnsubscribed:     true,
	StatusBookingReady:     true,
}

// IsTerminalStatus returns true if the status alone ends the workflow.
func IsTerminalStatus(status Status) bool {
	return terminalStatuses[status]
}
