package scheduler

import (
	"context"
	"time"

	"permitflow_backend/internal/engagement/domain"
	"permitflow_backend/platform/apperr"
	"permitflow_backend/platform/logger"
)

const sweepBatchSize = 200

// WorkflowLister loads the open workflows the sweeper inspects.
type WorkflowLister interface {
	ListWorkflows(ctx context.Context, includeComplete bool, limit int) ([]*domain.WorkflowState, error)
}

// Resumer re-enters the state machine at a given step.
type Resumer interface {
	ResumeFrom(ctx context.Context, leadID string, entry domain.Step) (*domain.WorkflowState, error)
}

// Sweeper is the safety net behind the task queue. Queue tasks can be lost
// across Redis restarts, so the sweeper periodically scans open workflows and
// resumes any whose deferred send or reply window has already passed. Both
// re-entry points re-check eligibility, so sweeping a lead the queue already
// handled is a no-op.
type Sweeper struct {
	store        WorkflowLister
	resumer      Resumer
	log          *logger.Logger
	interval     time.Duration
	replyTimeout time.Duration
	now          func() time.Time
}

func NewSweeper(store WorkflowLister, resumer Resumer, replyTimeout, interval time.Duration, log *logger.Logger) *Sweeper {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Sweeper{
		store:        store,
		resumer:      resumer,
		log:          log,
		interval:     interval,
		replyTimeout: replyTimeout,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Run sweeps on a fixed interval until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	workflows, err := s.store.ListWorkflows(ctx, false, sweepBatchSize)
	if err != nil {
		s.log.Error("sweep failed to list workflows", "error", err)
		return
	}

	now := s.now()
	for _, st := range workflows {
		entry, due := s.dueStep(st, now)
		if !due {
			continue
		}

		if _, err := s.resumer.ResumeFrom(ctx, st.LeadID, entry); err != nil {
			// Conflicts mean a queue handler got there first.
			if apperr.Is(err, apperr.KindConflict) || apperr.Is(err, apperr.KindNotFound) {
				continue
			}
			s.log.WithLeadID(st.LeadID).Error("sweep resume failed", "step", entry.String(), "error", err)
		}
	}
}

func (s *Sweeper) dueStep(st *domain.WorkflowState, now time.Time) (domain.Step, bool) {
	switch st.WorkflowStatus {
	case domain.StatusSendScheduled:
		if st.NextEligibleSendAt != nil && !now.Before(*st.NextEligibleSendAt) {
			return domain.StepSendOutreach, true
		}
	case domain.StatusAwaitingReply:
		if st.ReplyTimedOut(now, s.replyTimeout) {
			return domain.StepAwaitResponse, true
		}
	}
	return domain.StepEnd, false
}
