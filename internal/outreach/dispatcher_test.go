package outreach

import (
	"context"
	"strings"
	"testing"

	"permitflow_backend/internal/engagement/domain"
	"permitflow_backend/platform/logger"
)

type fakeEmail struct {
	to      string
	subject string
}

func (f *fakeEmail) Send(_ context.Context, to, subject, _ string) (string, error) {
	f.to = to
	f.subject = subject
	return "<msg-1@test>", nil
}

type fakeChat struct{ phone string }

func (f *fakeChat) Send(_ context.Context, phoneNumber, _ string) (string, error) {
	f.phone = phoneNumber
	return "chat-1", nil
}

type fakeVoice struct{ objective string }

func (f *fakeVoice) StartCall(_ context.Context, _, objective, _ string) (string, error) {
	f.objective = objective
	return "call-1", nil
}

func draftedState(channel domain.Channel) *domain.WorkflowState {
	return &domain.WorkflowState{
		LeadID:          "lead-1",
		ContactEmail:    "alex@example.com",
		ContactPhone:    "+15125550100",
		OutreachChannel: channel,
		DraftSubject:    "Fire system inspections",
		DraftBody:       "Hi Alex, quick note.",
	}
}

func TestDispatcher_EmailTagsSubjectWithLeadID(t *testing.T) {
	email := &fakeEmail{}
	d := NewDispatcher(email, nil, nil, "PF", logger.New("test"))

	rec, err := d.Send(context.Background(), draftedState(domain.ChannelEmail))
	if err != nil {
		t.Fatalf("send: %v", err)
	}

	if !strings.HasPrefix(email.subject, "[PF-lead-1] ") {
		t.Fatalf("expected tagged subject, got %q", email.subject)
	}
	if rec.Recipient != "alex@example.com" {
		t.Fatalf("expected email recipient, got %q", rec.Recipient)
	}
	if rec.ProviderMessageID != "<msg-1@test>" {
		t.Fatalf("expected provider message id, got %q", rec.ProviderMessageID)
	}
}

func TestDispatcher_ChatUsesPhone(t *testing.T) {
	chat := &fakeChat{}
	d := NewDispatcher(nil, chat, nil, "PF", logger.New("test"))

	rec, err := d.Send(context.Background(), draftedState(domain.ChannelChat))
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if rec.Recipient != "+15125550100" {
		t.Fatalf("expected phone recipient, got %q", rec.Recipient)
	}
	if chat.phone == "" {
		t.Fatal("expected chat sender to receive the phone number")
	}
}

func TestDispatcher_VoicePassesObjective(t *testing.T) {
	voice := &fakeVoice{}
	d := NewDispatcher(nil, nil, voice, "PF", logger.New("test"))

	if _, err := d.Send(context.Background(), draftedState(domain.ChannelVoice)); err != nil {
		t.Fatalf("send: %v", err)
	}
	if voice.objective != "Fire system inspections" {
		t.Fatalf("expected draft subject as call objective, got %q", voice.objective)
	}
}

func TestDispatcher_MissingContactFails(t *testing.T) {
	d := NewDispatcher(&fakeEmail{}, &fakeChat{}, nil, "PF", logger.New("test"))

	noEmail := draftedState(domain.ChannelEmail)
	noEmail.ContactEmail = ""
	if _, err := d.Send(context.Background(), noEmail); err == nil {
		t.Fatal("expected error for missing contact email")
	}

	noPhone := draftedState(domain.ChannelChat)
	noPhone.ContactPhone = ""
	if _, err := d.Send(context.Background(), noPhone); err == nil {
		t.Fatal("expected error for missing contact phone")
	}
}

func TestDispatcher_UnconfiguredChannelFails(t *testing.T) {
	d := NewDispatcher(nil, nil, nil, "PF", logger.New("test"))

	if _, err := d.Send(context.Background(), draftedState(domain.ChannelEmail)); err == nil {
		t.Fatal("expected error for unconfigured email channel")
	}
}

func TestDispatcher_EmptyDraftFails(t *testing.T) {
	d := NewDispatcher(&fakeEmail{}, nil, nil, "PF", logger.New("test"))

	st := draftedState(domain.ChannelEmail)
	st.DraftBody = "  "
	if _, err := d.Send(context.Background(), st); err == nil {
		t.Fatal("expected error for empty draft")
	}
}
