// Package domain provides core business rules for the engagement bounded context.
package domain

import (
	"fmt"
	"strings"
	"time"
)

// Policy holds the tunable limits of the engagement pipeline.
type Policy struct {
	QualifyThreshold     float64
	AutoApproveThreshold float64
	MaxFollowUpAttempts  int
	MaxObjectionCycles   int
	ReplyTimeout         time.Duration
}

// DefaultPolicy returns the policy defaults used when nothing is configured.
func DefaultPolicy() Policy {
	return Policy{
		QualifyThreshold:     0.5,
		AutoApproveThreshold: 0.6,
		MaxFollowUpAttempts:  2,
		MaxObjectionCycles:   3,
		ReplyTimeout:         72 * time.Hour,
	}
}

// PermitRecord is the permit snapshot a lead was derived from.
type PermitRecord struct {
	PermitID     string     `json:"permitId,omitempty"`
	Status       string     `json:"status,omitempty"`
	Type         string     `json:"type,omitempty"`
	Description  string     `json:"description,omitempty"`
	Jurisdiction string     `json:"jurisdiction,omitempty"`
	Address      string     `json:"address,omitempty"`
	OccupancyType string    `json:"occupancyType,omitempty"`
	SourceTag    string     `json:"sourceTag,omitempty"`
	IssuedAt     *time.Time `json:"issuedAt,omitempty"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

// BookingPayload captures meeting preferences extracted from a positive reply.
type BookingPayload struct {
	ContactEmail   string   `json:"contactEmail"`
	MeetingType    string   `json:"meetingType"`
	PreferredTimes []string `json:"preferredTimes"`
	PreferredDates []string `json:"preferredDates"`
	Notes          string   `json:"notes,omitempty"`
}

// OutreachRecord is one send attempt, append-only.
type OutreachRecord struct {
	ID                int64     `json:"id"`
	LeadID            string    `json:"leadId"`
	Channel           Channel   `json:"channel"`
	Subject           string    `json:"subject"`
	Body              string    `json:"body"`
	Recipient         string    `json:"recipient"`
	SentAt            time.Time `json:"sentAt"`
	ProviderMessageID string    `json:"providerMessageId,omitempty"`
	Failed            bool      `json:"failed"`
	FailureReason     string    `json:"failureReason,omitempty"`
}

// ResponseRecord is one inbound reply event, append-only.
type ResponseRecord struct {
	ID         int64     `json:"id"`
	LeadID     string    `json:"leadId"`
	Content    string    `json:"content"`
	Sender     string    `json:"sender"`
	ReceivedAt time.Time `json:"receivedAt"`
	Source     string    `json:"source"`
}

// WorkflowState is the persistent engagement state for one lead.
// It is the single record the router reads and mutates; append-only history
// lives in the outreach and response logs.
type WorkflowState struct {
	LeadID       string       `json:"leadId"`
	CompanyName  string       `json:"companyName,omitempty"`
	ContactName  string       `json:"contactName,omitempty"`
	ContactEmail string       `json:"contactEmail,omitempty"`
	ContactPhone string       `json:"contactPhone,omitempty"`
	Permit       PermitRecord `json:"permit"`

	QualificationScore     float64 `json:"qualificationScore"`
	ComplianceUrgencyScore float64 `json:"complianceUrgencyScore"`

	OutreachChannel Channel       `json:"outreachChannel"`
	ApprovalState   ApprovalState `json:"approvalState"`

	DraftSubject string    `json:"draftSubject,omitempty"`
	DraftBody    string    `json:"draftBody,omitempty"`
	DraftKind    DraftKind `json:"draftKind,omitempty"`

	OutreachSentAt     *time.Time `json:"outreachSentAt,omitempty"`
	AwaitingReply      bool       `json:"awaitingReply"`
	NextEligibleSendAt *time.Time `json:"nextEligibleSendAt,omitempty"`

	ResponseClassification *Classification `json:"responseClassification,omitempty"`
	Sentiment              string          `json:"sentiment,omitempty"`
	InterestLevel          string          `json:"interestLevel,omitempty"`
	Objections             []string        `json:"objections,omitempty"`
	LastResponseAt         *time.Time      `json:"lastResponseAt,omitempty"`

	// PendingResponse is the reply injected by the resumption gateway for the
	// current re-entry. It is transient and never persisted with the state;
	// the durable copy lives in the response log.
	PendingResponse *ResponseRecord `json:"-"`

	FollowUpCount          int `json:"followupCount"`
	ObjectionHandlingCount int `json:"objectionHandlingCount"`

	WorkflowComplete bool            `json:"workflowComplete"`
	WorkflowStatus   Status          `json:"workflowStatus"`
	BookingPayload   *BookingPayload `json:"bookingPayload,omitempty"`
	CRMExportedAt    *time.Time      `json:"crmExportedAt,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewWorkflowState creates the initial state for a lead.
func NewWorkflowState(leadID string, now time.Time) *WorkflowState {
	return &WorkflowState{
		LeadID:          leadID,
		OutreachChannel: ChannelEmail,
		ApprovalState:   ApprovalPending,
		WorkflowStatus:  StatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// MarkTerminal ends the workflow with the given status.
// A terminal workflow accepts no further transitions and no further outreach.
func (st *WorkflowState) MarkTerminal(status Status) {
	st.WorkflowComplete = true
	st.WorkflowStatus = status
	st.AwaitingReply = false
	st.NextEligibleSendAt = nil
}

// Suspend parks the workflow with a non-terminal status. The state looks
// terminal to the caller but can be resumed by an external trigger.
func (st *WorkflowState) Suspend(status Status) {
	st.WorkflowStatus = status
}

// IsTerminal returns true once the workflow has completed.
func (st *WorkflowState) IsTerminal() bool {
	return st.WorkflowComplete
}

// CanSendOutreach reports whether any further outreach is permitted.
func (st *WorkflowState) CanSendOutreach() bool {
	return !st.WorkflowComplete
}

// IsNewResponse reports whether a reply received at the given time counts as
// new. A reply is only new when its timestamp is strictly after both the last
// send and the last reply already handled, so out-of-order events cannot
// replace a newer response. When no outreach timestamp exists the reply is
// accepted; there is no basis to order it against a send.
func (st *WorkflowState) IsNewResponse(receivedAt time.Time) bool {
	if st.LastResponseAt != nil && !receivedAt.After(*st.LastResponseAt) {
		return false
	}
	if st.OutreachSentAt == nil {
		return true
	}
	return receivedAt.After(*st.OutreachSentAt)
}

// ReplyTimedOut reports whether the reply window elapsed since the last send.
func (st *WorkflowState) ReplyTimedOut(now time.Time, timeout time.Duration) bool {
	if st.OutreachSentAt == nil || timeout <= 0 {
		return false
	}
	return now.Sub(*st.OutreachSentAt) >= timeout
}

// Validate asserts the state invariants. It is called on every mutation
// before the state is persisted.
func (st *WorkflowState) Validate(p Policy) error {
	if strings.TrimSpace(st.LeadID) == "" {
		return fmt.Errorf("workflow state missing lead id")
	}
	if st.QualificationScore < 0 || st.QualificationScore > 1 {
		return fmt.Errorf("qualification score %v out of range [0,1]", st.QualificationScore)
	}
	if st.ComplianceUrgencyScore < 0 || st.ComplianceUrgencyScore > 1 {
		return fmt.Errorf("compliance urgency score %v out of range [0,1]", st.ComplianceUrgencyScore)
	}
	if st.OutreachChannel != "" {
		if _, ok := ParseChannel(string(st.OutreachChannel)); !ok {
			return fmt.Errorf("unknown outreach channel %q", st.OutreachChannel)
		}
	}
	if st.ResponseClassification != nil {
		if _, ok := ParseClassification(string(*st.ResponseClassification)); !ok {
			return fmt.Errorf("unknown response classification %q", *st.ResponseClassification)
		}
	}
	if st.FollowUpCount < 0 || st.FollowUpCount > p.MaxFollowUpAttempts {
		return fmt.Errorf("followup count %d exceeds maximum %d", st.FollowUpCount, p.MaxFollowUpAttempts)
	}
	if st.ObjectionHandlingCount < 0 || st.ObjectionHandlingCount > p.MaxObjectionCycles {
		return fmt.Errorf("objection handling count %d exceeds maximum %d", st.ObjectionHandlingCount, p.MaxObjectionCycles)
	}
	if st.WorkflowComplete && !IsTerminalStatus(st.WorkflowStatus) {
		return fmt.Errorf("completed workflow has non-terminal status %q", st.WorkflowStatus)
	}
	return nil
}
