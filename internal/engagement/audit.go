package engagement

import (
	"context"

	"permitflow_backend/internal/engagement/domain"
	"permitflow_backend/platform/events"
	"permitflow_backend/platform/logger"
)

// RegisterEventLogging subscribes an audit handler for every engagement
// lifecycle event so operators can follow a lead through the pipeline from
// the logs alone.
func RegisterEventLogging(bus events.Bus, log *logger.Logger) {
	bus.Subscribe(domain.EventWorkflowStarted, events.HandlerFunc(func(_ context.Context, event events.Event) error {
		if e, ok := event.(domain.WorkflowStartedEvent); ok {
			log.WithLeadID(e.LeadID).Info("workflow started")
		}
		return nil
	}))

	bus.Subscribe(domain.EventApprovalRequested, events.HandlerFunc(func(_ context.Context, event events.Event) error {
		if e, ok := event.(domain.ApprovalRequestedEvent); ok {
			log.WithLeadID(e.LeadID).Info("approval requested",
				"score", e.QualificationScore,
				"subject", e.DraftSubject,
			)
		}
		return nil
	}))

	bus.Subscribe(domain.EventOutreachSent, events.HandlerFunc(func(_ context.Context, event events.Event) error {
		if e, ok := event.(domain.OutreachSentEvent); ok {
			log.WithLeadID(e.LeadID).Info("outreach sent", "channel", string(e.Channel))
		}
		return nil
	}))

	bus.Subscribe(domain.EventReplyClassified, events.HandlerFunc(func(_ context.Context, event events.Event) error {
		if e, ok := event.(domain.ReplyClassifiedEvent); ok {
			log.WithLeadID(e.LeadID).Info("reply classified", "classification", string(e.Classification))
		}
		return nil
	}))

	bus.Subscribe(domain.EventMeetingBooked, events.HandlerFunc(func(_ context.Context, event events.Event) error {
		if e, ok := event.(domain.MeetingBookedEvent); ok {
			log.WithLeadID(e.LeadID).Info("meeting booked", "meeting_type", e.MeetingType)
		}
		return nil
	}))

	bus.Subscribe(domain.EventWorkflowCompleted, events.HandlerFunc(func(_ context.Context, event events.Event) error {
		if e, ok := event.(domain.WorkflowCompletedEvent); ok {
			log.WithLeadID(e.LeadID).Info("workflow completed", "status", string(e.Status))
		}
		return nil
	}))
}
