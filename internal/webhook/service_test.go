package webhook

import (
	"context"
	"testing"
	"time"

	"permitflow_backend/internal/engagement/domain"
	"permitflow_backend/platform/apperr"
	"permitflow_backend/platform/logger"
)

type fakeProcessor struct {
	lastReply *domain.ResponseRecord
	resumed   bool
	err       error
}

func (f *fakeProcessor) ProcessReply(_ context.Context, rec *domain.ResponseRecord) (*domain.WorkflowState, bool, error) {
	f.lastReply = rec
	if f.err != nil {
		return nil, false, f.err
	}
	st := &domain.WorkflowState{LeadID: rec.LeadID, WorkflowStatus: domain.StatusAwaitingReply}
	return st, f.resumed, nil
}

func newTestService(p *fakeProcessor) *Service {
	return NewService(p, NewSubjectExtractor("PF"), logger.New("test"))
}

func TestHandleReply_ResolvesLeadFromSubjectTag(t *testing.T) {
	p := &fakeProcessor{resumed: true}
	svc := newTestService(p)

	result, err := svc.HandleReply(context.Background(), InboundReply{
		From:    "alex@example.com",
		Subject: "Re: [PF-lead-9] Fire system inspections",
		Content: "sounds good",
	})
	if err != nil {
		t.Fatalf("handle reply: %v", err)
	}
	if result.LeadID != "lead-9" || !result.Resumed || !result.Recorded {
		t.Fatalf("unexpected result %+v", result)
	}
	if p.lastReply == nil || p.lastReply.LeadID != "lead-9" {
		t.Fatalf("expected reply forwarded for lead-9, got %+v", p.lastReply)
	}
	if p.lastReply.Source != "webhook" {
		t.Fatalf("expected default source, got %q", p.lastReply.Source)
	}
}

func TestHandleReply_UnresolvableLead_IsTypedRejection(t *testing.T) {
	svc := newTestService(&fakeProcessor{})

	_, err := svc.HandleReply(context.Background(), InboundReply{
		From:    "alex@example.com",
		Subject: "no tag here",
		Content: "hello",
	})
	if err == nil {
		t.Fatal("expected rejection for unresolvable lead")
	}
	if !apperr.Is(err, apperr.KindBadRequest) {
		t.Fatalf("expected bad_request kind, got %v", err)
	}
}

func TestHandleReply_ExplicitTimestampPreserved(t *testing.T) {
	p := &fakeProcessor{}
	svc := newTestService(p)

	receivedAt := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	_, err := svc.HandleReply(context.Background(), InboundReply{
		LeadID:     "lead-1",
		From:       "alex@example.com",
		Content:    "hi",
		ReceivedAt: &receivedAt,
		Source:     "sendgrid",
	})
	if err != nil {
		t.Fatalf("handle reply: %v", err)
	}
	if !p.lastReply.ReceivedAt.Equal(receivedAt) {
		t.Fatalf("expected provider timestamp preserved, got %v", p.lastReply.ReceivedAt)
	}
	if p.lastReply.Source != "sendgrid" {
		t.Fatalf("expected source preserved, got %q", p.lastReply.Source)
	}
}
