package scheduler

import (
	"context"
	"testing"
	"time"

	"permitflow_backend/internal/engagement/domain"
	"permitflow_backend/platform/apperr"
	"permitflow_backend/platform/logger"
)

type fakeLister struct {
	workflows []*domain.WorkflowState
	err       error
}

func (f *fakeLister) ListWorkflows(_ context.Context, _ bool, _ int) ([]*domain.WorkflowState, error) {
	return f.workflows, f.err
}

type fakeResumer struct {
	resumed map[string]domain.Step
	err     error
}

func (f *fakeResumer) ResumeFrom(_ context.Context, leadID string, entry domain.Step) (*domain.WorkflowState, error) {
	if f.resumed == nil {
		f.resumed = make(map[string]domain.Step)
	}
	f.resumed[leadID] = entry
	if f.err != nil {
		return nil, f.err
	}
	return &domain.WorkflowState{LeadID: leadID}, nil
}

func newTestSweeper(store *fakeLister, resumer *fakeResumer, now time.Time) *Sweeper {
	s := NewSweeper(store, resumer, 72*time.Hour, time.Minute, logger.New("test"))
	s.now = func() time.Time { return now }
	return s
}

func TestSweep_ResumesDueWorkflows(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	duePast := now.Add(-time.Hour)
	dueFuture := now.Add(time.Hour)
	sentLongAgo := now.Add(-80 * time.Hour)
	sentRecently := now.Add(-time.Hour)

	store := &fakeLister{workflows: []*domain.WorkflowState{
		{LeadID: "due-send", WorkflowStatus: domain.StatusSendScheduled, NextEligibleSendAt: &duePast},
		{LeadID: "future-send", WorkflowStatus: domain.StatusSendScheduled, NextEligibleSendAt: &dueFuture},
		{LeadID: "timed-out", WorkflowStatus: domain.StatusAwaitingReply, OutreachSentAt: &sentLongAgo},
		{LeadID: "still-waiting", WorkflowStatus: domain.StatusAwaitingReply, OutreachSentAt: &sentRecently},
		{LeadID: "pending", WorkflowStatus: domain.StatusPendingApproval},
	}}
	resumer := &fakeResumer{}

	newTestSweeper(store, resumer, now).sweep(context.Background())

	if len(resumer.resumed) != 2 {
		t.Fatalf("expected 2 resumes, got %v", resumer.resumed)
	}
	if resumer.resumed["due-send"] != domain.StepSendOutreach {
		t.Fatalf("expected due-send resumed at send_outreach, got %v", resumer.resumed["due-send"])
	}
	if resumer.resumed["timed-out"] != domain.StepAwaitResponse {
		t.Fatalf("expected timed-out resumed at await_response, got %v", resumer.resumed["timed-out"])
	}
}

func TestSweep_BoundaryIsInclusive(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	exactlyDue := now

	store := &fakeLister{workflows: []*domain.WorkflowState{
		{LeadID: "on-the-dot", WorkflowStatus: domain.StatusSendScheduled, NextEligibleSendAt: &exactlyDue},
	}}
	resumer := &fakeResumer{}

	newTestSweeper(store, resumer, now).sweep(context.Background())

	if resumer.resumed["on-the-dot"] != domain.StepSendOutreach {
		t.Fatalf("expected resume at the exact eligibility time, got %v", resumer.resumed)
	}
}

func TestSweep_ToleratesConflicts(t *testing.T) {
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	duePast := now.Add(-time.Minute)

	store := &fakeLister{workflows: []*domain.WorkflowState{
		{LeadID: "contested", WorkflowStatus: domain.StatusSendScheduled, NextEligibleSendAt: &duePast},
	}}
	resumer := &fakeResumer{err: apperr.Conflict("stale version")}

	// A conflict means a queue handler won the race; the sweep moves on.
	newTestSweeper(store, resumer, now).sweep(context.Background())

	if _, ok := resumer.resumed["contested"]; !ok {
		t.Fatal("expected resume attempt despite conflict")
	}
}
