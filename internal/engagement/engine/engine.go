// Package engine interprets the engagement state machine: it runs each step's
// side effect, persists the state, and consults the transition table for the
// next step until the workflow suspends or ends.
package engine

import (
	"context"
	"fmt"
	"time"

	"permitflow_backend/internal/engagement/agent"
	"permitflow_backend/internal/engagement/domain"
	"permitflow_backend/internal/engagement/scoring"
	"permitflow_backend/platform/apperr"
	"permitflow_backend/platform/events"
	"permitflow_backend/platform/logger"
)

// maxStepsPerRun bounds a single dispatch run. The transition table has no
// unbounded cycles, so hitting this means a bug, not a busy lead.
const maxStepsPerRun = 50

// Store is the persistence surface the engine needs.
type Store interface {
	CreateWorkflow(ctx context.Context, st *domain.WorkflowState) error
	GetWorkflow(ctx context.Context, leadID string) (*domain.WorkflowState, error)
	SaveWorkflow(ctx context.Context, st *domain.WorkflowState) error
	AppendOutreach(ctx context.Context, rec *domain.OutreachRecord) error
}

// ContentGenerator drafts messages and classifies replies.
type ContentGenerator interface {
	DraftInitialOutreach(ctx context.Context, st *domain.WorkflowState) agent.Draft
	DraftFollowUp(ctx context.Context, st *domain.WorkflowState, attempt int) agent.Draft
	DraftRebuttal(ctx context.Context, st *domain.WorkflowState, objections []string) agent.Draft
	ClassifyReply(ctx context.Context, st *domain.WorkflowState, reply domain.ResponseRecord) agent.ReplyAnalysis
}

// Sender delivers the pending draft over the lead's channel. It returns the
// attempt record with channel, recipient, and payload populated; a non-nil
// error means delivery failed and the engine logs the attempt as failed.
type Sender interface {
	Send(ctx context.Context, st *domain.WorkflowState) (domain.OutreachRecord, error)
}

// Scheduler enqueues deferred re-entries into the state machine.
type Scheduler interface {
	ScheduleFollowUp(ctx context.Context, leadID string, at time.Time) error
	ScheduleResponseTimeout(ctx context.Context, leadID string, at time.Time) error
}

// CRMExporter pushes a finished workflow into the CRM export table.
type CRMExporter interface {
	ExportWorkflow(ctx context.Context, st *domain.WorkflowState) error
}

// Engine drives workflows through the transition table.
type Engine struct {
	store     Store
	content   ContentGenerator
	sender    Sender
	scheduler Scheduler
	exporter  CRMExporter
	bus       events.Bus
	log       *logger.Logger
	policy    domain.Policy
	now       func() time.Time
}

// Config wires the engine's collaborators. Scheduler and Exporter are
// optional: without a scheduler deferred sends happen immediately, and
// without an exporter the CRM step only stamps the state.
type Config struct {
	Store     Store
	Content   ContentGenerator
	Sender    Sender
	Scheduler Scheduler
	Exporter  CRMExporter
	Bus       events.Bus
	Logger    *logger.Logger
	Policy    domain.Policy

	// Now overrides the clock in tests.
	Now func() time.Time
}

func New(cfg Config) *Engine {
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Engine{
		store:     cfg.Store,
		content:   cfg.Content,
		sender:    cfg.Sender,
		scheduler: cfg.Scheduler,
		exporter:  cfg.Exporter,
		bus:       cfg.Bus,
		log:       cfg.Logger,
		policy:    cfg.Policy,
		now:       now,
	}
}

// Start persists a new workflow and runs it from the top of the pipeline.
func (e *Engine) Start(ctx context.Context, st *domain.WorkflowState) (*domain.WorkflowState, error) {
	if err := e.store.CreateWorkflow(ctx, st); err != nil {
		return nil, err
	}
	e.publish(ctx, domain.WorkflowStartedEvent{BaseEvent: events.NewBaseEvent(), LeadID: st.LeadID})

	if err := e.run(ctx, st, domain.StepIngest); err != nil {
		return st, err
	}
	return st, nil
}

// ResumeFrom reloads a lead's state and re-enters the machine at the given
// step. Completed workflows are returned untouched.
func (e *Engine) ResumeFrom(ctx context.Context, leadID string, entry domain.Step) (*domain.WorkflowState, error) {
	st, err := e.store.GetWorkflow(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if st.WorkflowComplete {
		return st, nil
	}
	if err := e.run(ctx, st, entry); err != nil {
		return st, err
	}
	return st, nil
}

// ResumeWithResponse injects an inbound reply and re-enters at AwaitResponse,
// which routes fresh replies to HandleResponse and leaves the workflow
// suspended for stale ones. The returned bool reports whether the machine
// actually advanced.
func (e *Engine) ResumeWithResponse(ctx context.Context, leadID string, reply *domain.ResponseRecord) (*domain.WorkflowState, bool, error) {
	st, err := e.store.GetWorkflow(ctx, leadID)
	if err != nil {
		return nil, false, err
	}
	if st.WorkflowComplete {
		return st, false, nil
	}
	if !st.IsNewResponse(reply.ReceivedAt) {
		e.log.WithLeadID(leadID).Info("ignoring stale reply",
			"received_at", reply.ReceivedAt, "outreach_sent_at", st.OutreachSentAt)
		return st, false, nil
	}

	st.PendingResponse = reply
	if err := e.run(ctx, st, domain.StepAwaitResponse); err != nil {
		return st, false, err
	}
	return st, true, nil
}

// run is the dispatch loop: effect, persist, transition, repeat.
func (e *Engine) run(ctx context.Context, st *domain.WorkflowState, entry domain.Step) error {
	step := entry
	for i := 0; i < maxStepsPerRun; i++ {
		suspended, err := e.applyStep(ctx, step, st)
		if err != nil {
			return err
		}
		if err := e.persist(ctx, st); err != nil {
			return err
		}

		next := domain.Transition(step, st, e.policy, e.now())
		e.log.WorkflowStep(st.LeadID, step.String(), next.String())

		if next == domain.StepEnd {
			e.publish(ctx, domain.WorkflowCompletedEvent{
				BaseEvent: events.NewBaseEvent(),
				LeadID:    st.LeadID,
				Status:    st.WorkflowStatus,
			})
			return nil
		}
		if suspended || next == domain.StepSuspend {
			return nil
		}
		step = next
	}
	return apperr.Internal(fmt.Sprintf("step budget exhausted for lead %s at step %s", st.LeadID, step))
}

// applyStep executes the side effect of entering a step. The returned bool
// asks the loop to stop even if the table would continue, used when the
// effect parked the workflow itself (deferred send).
func (e *Engine) applyStep(ctx context.Context, step domain.Step, st *domain.WorkflowState) (bool, error) {
	now := e.now()

	switch step {
	case domain.StepIngest:
		if st.OutreachChannel == "" {
			st.OutreachChannel = domain.ChannelEmail
		}
		st.WorkflowStatus = domain.StatusActive
		return false, nil

	case domain.StepResearch:
		st.ComplianceUrgencyScore = scoring.ComplianceUrgency(st.Permit, now)
		return false, nil

	case domain.StepQualificationGate:
		st.QualificationScore = scoring.Qualification(*st, now)
		if st.QualificationScore < e.policy.QualifyThreshold {
			st.MarkTerminal(domain.StatusDisqualified)
		}
		return false, nil

	case domain.StepDraftOutreach:
		// A pending rebuttal from the objection controller is kept as-is.
		if st.DraftKind != domain.DraftRebuttal {
			draft := e.content.DraftInitialOutreach(ctx, st)
			st.DraftSubject = draft.Subject
			st.DraftBody = draft.Body
			st.DraftKind = domain.DraftInitial
		}
		return false, nil

	case domain.StepApprovalGate:
		return false, e.applyApprovalGate(ctx, st)

	case domain.StepSendOutreach:
		return e.applySendOutreach(ctx, st, now)

	case domain.StepAwaitResponse:
		fresh := st.PendingResponse != nil && st.IsNewResponse(st.PendingResponse.ReceivedAt)
		if !fresh && !st.ReplyTimedOut(now, e.policy.ReplyTimeout) {
			st.Suspend(domain.StatusAwaitingReply)
		}
		return false, nil

	case domain.StepHandleResponse:
		return false, e.applyHandleResponse(ctx, st)

	case domain.StepFollowUp:
		e.applyFollowUp(ctx, st, now)
		return false, nil

	case domain.StepObjectionHandling:
		e.applyObjectionHandling(ctx, st)
		return false, nil

	case domain.StepBookMeeting:
		e.applyBookMeeting(ctx, st)
		return false, nil

	case domain.StepUpdateCRM:
		e.applyUpdateCRM(ctx, st, now)
		return false, nil
	}

	return false, nil
}

func (e *Engine) applyApprovalGate(ctx context.Context, st *domain.WorkflowState) error {
	switch st.ApprovalState {
	case domain.ApprovalApproved, domain.ApprovalAuto:
		return nil
	case domain.ApprovalRejected:
		st.MarkTerminal(domain.StatusApprovalRejected)
		return nil
	}

	if st.QualificationScore >= e.policy.AutoApproveThreshold {
		st.ApprovalState = domain.ApprovalAuto
		return nil
	}

	st.ApprovalState = domain.ApprovalPending
	st.Suspend(domain.StatusPendingApproval)
	e.publish(ctx, domain.ApprovalRequestedEvent{
		BaseEvent:          events.NewBaseEvent(),
		LeadID:             st.LeadID,
		QualificationScore: st.QualificationScore,
		DraftSubject:       st.DraftSubject,
	})
	return nil
}

func (e *Engine) applySendOutreach(ctx context.Context, st *domain.WorkflowState, now time.Time) (bool, error) {
	// Deferred sends park the workflow until the scheduler fires.
	if st.NextEligibleSendAt != nil && st.NextEligibleSendAt.After(now) && e.scheduler != nil {
		if err := e.scheduler.ScheduleFollowUp(ctx, st.LeadID, *st.NextEligibleSendAt); err != nil {
			return false, fmt.Errorf("schedule deferred send: %w", err)
		}
		st.Suspend(domain.StatusSendScheduled)
		return true, nil
	}

	rec, sendErr := e.sender.Send(ctx, st)
	rec.LeadID = st.LeadID
	if rec.SentAt.IsZero() {
		rec.SentAt = now
	}
	if sendErr != nil {
		rec.Failed = true
		rec.FailureReason = sendErr.Error()
		e.log.WithLeadID(st.LeadID).Warn("outreach delivery failed", "channel", st.OutreachChannel, "error", sendErr)
	}
	if err := e.store.AppendOutreach(ctx, &rec); err != nil {
		return false, err
	}

	if sendErr == nil {
		sentAt := rec.SentAt
		st.OutreachSentAt = &sentAt
		st.AwaitingReply = true
		st.NextEligibleSendAt = nil
		st.DraftKind = ""
		e.publish(ctx, domain.OutreachSentEvent{
			BaseEvent: events.NewBaseEvent(),
			LeadID:    st.LeadID,
			Channel:   st.OutreachChannel,
		})
		if e.scheduler != nil && e.policy.ReplyTimeout > 0 {
			if err := e.scheduler.ScheduleResponseTimeout(ctx, st.LeadID, sentAt.Add(e.policy.ReplyTimeout)); err != nil {
				e.log.WithLeadID(st.LeadID).Warn("failed to schedule reply timeout", "error", err)
			}
		}
	}
	// A failed send leaves outreach_sent_at untouched and lets AwaitResponse
	// decide between waiting and following up.
	return false, nil
}

func (e *Engine) applyHandleResponse(ctx context.Context, st *domain.WorkflowState) error {
	if st.PendingResponse == nil {
		return nil
	}

	analysis := e.content.ClassifyReply(ctx, st, *st.PendingResponse)
	classification := analysis.Classification
	st.ResponseClassification = &classification
	st.Sentiment = analysis.Sentiment
	st.InterestLevel = analysis.InterestLevel
	st.Objections = analysis.Objections
	st.AwaitingReply = false

	// The reply is consumed: the durable copy lives in the response log, and
	// recording its timestamp keeps older out-of-order replies from ever
	// displacing it. Leaving it pending would re-classify the same reply on
	// every pass through AwaitResponse, e.g. after a failed send.
	receivedAt := st.PendingResponse.ReceivedAt
	st.LastResponseAt = &receivedAt
	st.PendingResponse = nil

	e.publish(ctx, domain.ReplyClassifiedEvent{
		BaseEvent:      events.NewBaseEvent(),
		LeadID:         st.LeadID,
		Classification: classification,
	})

	switch classification {
	case domain.ClassificationPositive:
		st.BookingPayload = analysis.Booking
	case domain.ClassificationUnsubscribe:
		st.MarkTerminal(domain.StatusUnsubscribed)
	case domain.ClassificationObjection:
		if st.ObjectionHandlingCount >= e.policy.MaxObjectionCycles {
			st.MarkTerminal(domain.StatusObjectionLoopMax)
		}
	}
	return nil
}

func (e *Engine) applyBookMeeting(ctx context.Context, st *domain.WorkflowState) {
	if st.BookingPayload == nil {
		// Positive reply without extractable preferences still books a call.
		st.BookingPayload = &domain.BookingPayload{
			ContactEmail: st.ContactEmail,
			MeetingType:  "call",
		}
	}
	st.Suspend(domain.StatusBookingReady)
	e.publish(ctx, domain.MeetingBookedEvent{
		BaseEvent:   events.NewBaseEvent(),
		LeadID:      st.LeadID,
		MeetingType: st.BookingPayload.MeetingType,
	})
}

func (e *Engine) applyUpdateCRM(ctx context.Context, st *domain.WorkflowState, now time.Time) {
	if e.exporter != nil {
		if err := e.exporter.ExportWorkflow(ctx, st); err != nil {
			// The booking stays on the workflow state and the export upsert is
			// idempotent, so a failed push is retryable and must not wedge the
			// workflow.
			e.log.WithLeadID(st.LeadID).Warn("crm export failed", "error", err)
		} else {
			exportedAt := now
			st.CRMExportedAt = &exportedAt
		}
	}
	st.MarkTerminal(domain.StatusBookingReady)
}

func (e *Engine) persist(ctx context.Context, st *domain.WorkflowState) error {
	if err := st.Validate(e.policy); err != nil {
		return apperr.Wrap(apperr.KindInternal, "workflow state invariant violated", err)
	}
	return e.store.SaveWorkflow(ctx, st)
}

func (e *Engine) publish(ctx context.Context, ev events.Event) {
	if e.bus != nil {
		e.bus.Publish(ctx, ev)
	}
}
