package domain

import "permitflow_backend/platform/events"

// Event names for the engagement module.
const (
	EventWorkflowStarted   = "engagement.workflow.started"
	EventApprovalRequested = "engagement.approval.requested"
	EventOutreachSent      = "engagement.outreach.sent"
	EventReplyClassified   = "engagement.reply.classified"
	EventMeetingBooked     = "engagement.meeting.booked"
	EventWorkflowCompleted = "engagement.workflow.completed"
)

// WorkflowStartedEvent fires when a lead enters the pipeline.
type WorkflowStartedEvent struct {
	events.BaseEvent
	LeadID string `json:"leadId"`
}

func (e WorkflowStartedEvent) EventName() string { return EventWorkflowStarted }

// ApprovalRequestedEvent fires when a draft needs a human decision.
type ApprovalRequestedEvent struct {
	events.BaseEvent
	LeadID             string  `json:"leadId"`
	QualificationScore float64 `json:"qualificationScore"`
	DraftSubject       string  `json:"draftSubject"`
}

func (e ApprovalRequestedEvent) EventName() string { return EventApprovalRequested }

// OutreachSentEvent fires after a successful send.
type OutreachSentEvent struct {
	events.BaseEvent
	LeadID  string  `json:"leadId"`
	Channel Channel `json:"channel"`
}

func (e OutreachSentEvent) EventName() string { return EventOutreachSent }

// ReplyClassifiedEvent fires after an inbound reply is classified.
type ReplyClassifiedEvent struct {
	events.BaseEvent
	LeadID         string         `json:"leadId"`
	Classification Classification `json:"classification"`
}

func (e ReplyClassifiedEvent) EventName() string { return EventReplyClassified }

// MeetingBookedEvent fires when a positive reply yields a booking payload.
type MeetingBookedEvent struct {
	events.BaseEvent
	LeadID      string `json:"leadId"`
	MeetingType string `json:"meetingType"`
}

func (e MeetingBookedEvent) EventName() string { return EventMeetingBooked }

// WorkflowCompletedEvent fires once the workflow reaches a terminal status.
type WorkflowCompletedEvent struct {
	events.BaseEvent
	LeadID string `json:"leadId"`
	Status Status `json:"status"`
}

func (e WorkflowCompletedEvent) EventName() string { return EventWorkflowCompleted }
