package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"permitflow_backend/internal/engagement/domain"
	"permitflow_backend/platform/ai/kimi"
	"permitflow_backend/platform/logger"
)

type fakeModel struct {
	reply string
	err   error
	calls int
}

func (f *fakeModel) Complete(_ context.Context, _ []kimi.Message) (string, error) {
	f.calls++
	return f.reply, f.err
}

func (f *fakeModel) Name() string { return "fake-model" }

func testState() *domain.WorkflowState {
	return &domain.WorkflowState{
		LeadID:          "lead-1",
		ContactName:     "Alex Moran",
		ContactEmail:    "alex@example.com",
		OutreachChannel: domain.ChannelEmail,
		Permit: domain.PermitRecord{
			Type:         "Fire Alarm",
			Status:       "Issued",
			Jurisdiction: "City of Austin",
		},
	}
}

func TestClassifyReply_EmptyContent_SkipsModelCall(t *testing.T) {
	model := &fakeModel{}
	gen := NewContentGenerator(model, logger.New("test"))

	analysis := gen.ClassifyReply(context.Background(), testState(), domain.ResponseRecord{
		Content: "   \n\t ",
		Sender:  "alex@example.com",
	})

	if model.calls != 0 {
		t.Fatalf("expected zero model calls for empty reply, got %d", model.calls)
	}
	if analysis.Classification != domain.ClassificationNoResponse {
		t.Fatalf("expected no_response for empty reply, got %q", analysis.Classification)
	}
	if analysis.Sentiment != "neutral" {
		t.Fatalf("expected neutral sentiment, got %q", analysis.Sentiment)
	}
}

func TestClassifyReply_ModelError_FallsBackToNoResponse(t *testing.T) {
	model := &fakeModel{err: errors.New("upstream timeout")}
	gen := NewContentGenerator(model, logger.New("test"))

	analysis := gen.ClassifyReply(context.Background(), testState(), domain.ResponseRecord{
		Content: "Sounds interesting, tell me more",
		Sender:  "alex@example.com",
	})

	if model.calls != 1 {
		t.Fatalf("expected one model call, got %d", model.calls)
	}
	if analysis.Classification != domain.ClassificationNoResponse {
		t.Fatalf("expected no_response fallback, got %q", analysis.Classification)
	}
	if !analysis.Fallback {
		t.Fatal("expected analysis to be marked as fallback")
	}
}

func TestClassifyReply_UnknownLabel_FallsBackToNoResponse(t *testing.T) {
	model := &fakeModel{reply: `{"classification": "maybe", "sentiment": "positive"}`}
	gen := NewContentGenerator(model, logger.New("test"))

	analysis := gen.ClassifyReply(context.Background(), testState(), domain.ResponseRecord{Content: "hello"})

	if analysis.Classification != domain.ClassificationNoResponse {
		t.Fatalf("expected no_response for unknown label, got %q", analysis.Classification)
	}
	if !analysis.Fallback {
		t.Fatal("expected analysis to be marked as fallback")
	}
}

func TestClassifyReply_PositiveWithBookingPreferences(t *testing.T) {
	model := &fakeModel{reply: "```json\n" + `{
		"classification": "positive",
		"sentiment": "positive",
		"interest_level": "high",
		"objections": [],
		"meeting_type": "site_visit",
		"preferred_times": ["morning"],
		"preferred_dates": ["Tuesday"],
		"notes": "ask for the facility manager at the gate"
	}` + "\n```"}
	gen := NewContentGenerator(model, logger.New("test"))

	analysis := gen.ClassifyReply(context.Background(), testState(), domain.ResponseRecord{
		Content: "Tuesday morning works, come by the site",
		Sender:  "alex@example.com",
	})

	if analysis.Classification != domain.ClassificationPositive {
		t.Fatalf("expected positive, got %q", analysis.Classification)
	}
	if analysis.Booking == nil {
		t.Fatal("expected booking payload for positive reply")
	}
	if analysis.Booking.MeetingType != "site_visit" {
		t.Fatalf("expected site_visit meeting type, got %q", analysis.Booking.MeetingType)
	}
	if analysis.Booking.ContactEmail != "alex@example.com" {
		t.Fatalf("expected contact email carried into booking, got %q", analysis.Booking.ContactEmail)
	}
	if len(analysis.Booking.PreferredDates) != 1 || analysis.Booking.PreferredDates[0] != "Tuesday" {
		t.Fatalf("expected preferred date Tuesday, got %v", analysis.Booking.PreferredDates)
	}
}

func TestClassifyReply_ObjectionKeepsObjectionList(t *testing.T) {
	model := &fakeModel{reply: `{"classification": "objection", "sentiment": "negative", "interest_level": "low", "objections": ["already have a vendor", "too expensive"]}`}
	gen := NewContentGenerator(model, logger.New("test"))

	analysis := gen.ClassifyReply(context.Background(), testState(), domain.ResponseRecord{Content: "we already have a vendor and you are pricey"})

	if analysis.Classification != domain.ClassificationObjection {
		t.Fatalf("expected objection, got %q", analysis.Classification)
	}
	if len(analysis.Objections) != 2 {
		t.Fatalf("expected 2 objections, got %v", analysis.Objections)
	}
	if analysis.Booking != nil {
		t.Fatal("expected no booking payload for objection reply")
	}
}

func TestDraftInitialOutreach_ModelFailure_UsesTemplate(t *testing.T) {
	model := &fakeModel{err: errors.New("api down")}
	gen := NewContentGenerator(model, logger.New("test"))

	draft := gen.DraftInitialOutreach(context.Background(), testState())

	if !draft.Fallback {
		t.Fatal("expected fallback draft on model failure")
	}
	if draft.Kind != domain.DraftInitial {
		t.Fatalf("expected initial draft kind, got %q", draft.Kind)
	}
	if draft.Subject == "" || draft.Body == "" {
		t.Fatalf("expected non-empty template draft, got subject=%q body-empty=%v", draft.Subject, draft.Body == "")
	}
}

func TestDraftInitialOutreach_ParsesModelJSON(t *testing.T) {
	model := &fakeModel{reply: `{"subject": "Your fire alarm permit in Austin", "body": "Hi Alex, quick note about your recent permit."}`}
	gen := NewContentGenerator(model, logger.New("test"))

	draft := gen.DraftInitialOutreach(context.Background(), testState())

	if draft.Fallback {
		t.Fatal("expected model draft, got fallback")
	}
	if draft.Subject != "Your fire alarm permit in Austin" {
		t.Fatalf("unexpected subject %q", draft.Subject)
	}
	if draft.Kind != domain.DraftInitial {
		t.Fatalf("expected initial draft kind, got %q", draft.Kind)
	}
}

func TestDraftFollowUp_GarbageModelOutput_UsesTemplate(t *testing.T) {
	model := &fakeModel{reply: "I cannot help with that."}
	gen := NewContentGenerator(model, logger.New("test"))

	draft := gen.DraftFollowUp(context.Background(), testState(), 2)

	if !draft.Fallback {
		t.Fatal("expected fallback draft for unparseable output")
	}
	if draft.Kind != domain.DraftFollowUp {
		t.Fatalf("expected follow-up draft kind, got %q", draft.Kind)
	}
}

func TestFallbackFollowUp_ToneChangesPerAttempt(t *testing.T) {
	st := testState()
	first := fallbackFollowUpDraft(st, 1)
	final := fallbackFollowUpDraft(st, 2)
	soft := fallbackFollowUpDraft(st, 3)

	if first.Body == final.Body || first.Subject == final.Subject {
		t.Fatal("expected the direct follow-up to differ from the first")
	}
	if final.Body == soft.Body || final.Subject == soft.Subject {
		t.Fatal("expected the soft follow-up to differ from the direct one")
	}
	if strings.Contains(soft.Body, "last") {
		t.Fatalf("soft follow-up must not repeat final-attempt language: %q", soft.Body)
	}
	if fallbackFollowUpDraft(st, 4).Body != soft.Body {
		t.Fatal("attempts past 3 should keep the soft tone")
	}
}

func TestFollowUpPrompt_ThreeTones(t *testing.T) {
	first := followUpSystemPrompt(1)
	final := followUpSystemPrompt(2)
	soft := followUpSystemPrompt(3)

	if first == final || final == soft || first == soft {
		t.Fatal("expected three distinct follow-up tones")
	}
	if !strings.Contains(soft, "low-pressure") {
		t.Fatalf("expected soft tone for attempt 3, got %q", soft)
	}
	if followUpSystemPrompt(5) != soft {
		t.Fatal("attempts past 3 should keep the soft tone")
	}
}

func TestDraftRebuttal_ModelFailure_UsesObjectionInTemplate(t *testing.T) {
	model := &fakeModel{err: errors.New("api down")}
	gen := NewContentGenerator(model, logger.New("test"))

	draft := gen.DraftRebuttal(context.Background(), testState(), []string{"Too expensive"})

	if !draft.Fallback {
		t.Fatal("expected fallback rebuttal on model failure")
	}
	if draft.Kind != domain.DraftRebuttal {
		t.Fatalf("expected rebuttal draft kind, got %q", draft.Kind)
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{`{"a": 1}`, `{"a": 1}`},
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"Here you go:\n{\"a\": 1}\nHope that helps!", `{"a": 1}`},
		{"no json here", ""},
	}
	for _, tc := range cases {
		if got := extractJSONObject(tc.in); got != tc.want {
			t.Fatalf("extractJSONObject(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
