package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"permitflow_backend/internal/engagement/domain"
	"permitflow_backend/platform/ai/kimi"
	"permitflow_backend/platform/logger"
)

// ContentGenerator drafts outreach and classifies replies via the chat model.
type ContentGenerator struct {
	model Completer
	log   *logger.Logger
}

// NewContentGenerator wires the generator to a model client.
func NewContentGenerator(model Completer, log *logger.Logger) *ContentGenerator {
	return &ContentGenerator{model: model, log: log}
}

type draftPayload struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type classifyPayload struct {
	Classification string   `json:"classification"`
	Sentiment      string   `json:"sentiment"`
	InterestLevel  string   `json:"interest_level"`
	Objections     []string `json:"objections"`
	MeetingType    string   `json:"meeting_type"`
	PreferredTimes []string `json:"preferred_times"`
	PreferredDates []string `json:"preferred_dates"`
	Notes          string   `json:"notes"`
}

// DraftInitialOutreach drafts the first-touch message for the lead's channel.
// Model failures fall back to the built-in template, never to an error.
func (g *ContentGenerator) DraftInitialOutreach(ctx context.Context, st *domain.WorkflowState) Draft {
	draft, err := g.completeDraft(ctx, "draft_initial", outreachSystemPrompt(st.OutreachChannel), leadContext(st))
	if err != nil {
		g.log.WithLeadID(st.LeadID).Warn("falling back to template outreach", "error", err)
		return fallbackInitialDraft(st)
	}
	draft.Kind = domain.DraftInitial
	return draft
}

// DraftFollowUp drafts follow-up number attempt (1-based), escalating tone.
func (g *ContentGenerator) DraftFollowUp(ctx context.Context, st *domain.WorkflowState, attempt int) Draft {
	prompt := followUpSystemPrompt(attempt)
	user := leadContext(st) + previousMessageContext(st)

	draft, err := g.completeDraft(ctx, "draft_followup", prompt, user)
	if err != nil {
		g.log.WithLeadID(st.LeadID).Warn("falling back to template follow-up", "error", err)
		return fallbackFollowUpDraft(st, attempt)
	}
	draft.Kind = domain.DraftFollowUp
	return draft
}

// DraftRebuttal drafts a response to the objections raised in the last reply.
func (g *ContentGenerator) DraftRebuttal(ctx context.Context, st *domain.WorkflowState, objections []string) Draft {
	var sb strings.Builder
	sb.WriteString(leadContext(st))
	sb.WriteString(previousMessageContext(st))
	if len(objections) > 0 {
		sb.WriteString("\n## Objections Raised\n")
		for _, o := range objections {
			sb.WriteString("- ")
			sb.WriteString(sanitizeUserInput(o, 200))
			sb.WriteString("\n")
		}
	}

	draft, err := g.completeDraft(ctx, "draft_rebuttal", rebuttalSystemPrompt(), sb.String())
	if err != nil {
		g.log.WithLeadID(st.LeadID).Warn("falling back to template rebuttal", "error", err)
		return fallbackRebuttalDraft(st, objections)
	}
	draft.Kind = domain.DraftRebuttal
	return draft
}

// ClassifyReply analyzes an inbound reply. Replies with no usable content
// short-circuit to no_response without calling the model, and any model or
// parse failure degrades to the neutral no_response analysis.
func (g *ContentGenerator) ClassifyReply(ctx context.Context, st *domain.WorkflowState, reply domain.ResponseRecord) ReplyAnalysis {
	content := sanitizeUserInput(reply.Content, maxReplyLength)
	if content == "" {
		return neutralAnalysis(false)
	}

	user := fmt.Sprintf("Reply received on channel %q from %q:\n%s",
		st.OutreachChannel, sanitizeUserInput(reply.Sender, 200), wrapUserData(content))

	raw, err := g.complete(ctx, "classify_reply", classifySystemPrompt(), user)
	if err != nil {
		g.log.WithLeadID(st.LeadID).Warn("reply classification failed, treating as no_response", "error", err)
		return neutralAnalysis(true)
	}

	var payload classifyPayload
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		g.log.WithLeadID(st.LeadID).Warn("unparseable classification payload, treating as no_response", "error", err)
		return neutralAnalysis(true)
	}

	classification, ok := domain.ParseClassification(payload.Classification)
	if !ok {
		g.log.WithLeadID(st.LeadID).Warn("unknown classification label, treating as no_response", "label", payload.Classification)
		return neutralAnalysis(true)
	}

	analysis := ReplyAnalysis{
		Classification: classification,
		Sentiment:      defaultString(payload.Sentiment, "neutral"),
		InterestLevel:  defaultString(payload.InterestLevel, "none"),
		Objections:     payload.Objections,
	}

	if classification == domain.ClassificationPositive {
		analysis.Booking = &domain.BookingPayload{
			ContactEmail:   bookingEmail(st, reply),
			MeetingType:    defaultString(payload.MeetingType, "call"),
			PreferredTimes: payload.PreferredTimes,
			PreferredDates: payload.PreferredDates,
			Notes:          sanitizeUserInput(payload.Notes, 500),
		}
	}

	return analysis
}

func (g *ContentGenerator) completeDraft(ctx context.Context, operation, system, user string) (Draft, error) {
	raw, err := g.complete(ctx, operation, system, user)
	if err != nil {
		return Draft{}, err
	}

	var payload draftPayload
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &payload); err != nil {
		return Draft{}, fmt.Errorf("unparseable draft payload: %w", err)
	}
	if strings.TrimSpace(payload.Body) == "" {
		return Draft{}, fmt.Errorf("draft payload has empty body")
	}

	return Draft{
		Subject: strings.TrimSpace(payload.Subject),
		Body:    strings.TrimSpace(payload.Body),
	}, nil
}

func (g *ContentGenerator) complete(ctx context.Context, operation, system, user string) (string, error) {
	start := time.Now()
	raw, err := g.model.Complete(ctx, []kimi.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	})
	g.log.ModelCall(operation, float64(time.Since(start).Milliseconds()), err)
	return raw, err
}

func neutralAnalysis(fallback bool) ReplyAnalysis {
	return ReplyAnalysis{
		Classification: domain.ClassificationNoResponse,
		Sentiment:      "neutral",
		InterestLevel:  "none",
		Fallback:       fallback,
	}
}

func previousMessageContext(st *domain.WorkflowState) string {
	if strings.TrimSpace(st.DraftBody) == "" {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("\n## Previous Message\n")
	if st.DraftSubject != "" {
		sb.WriteString("Subject: ")
		sb.WriteString(sanitizeUserInput(st.DraftSubject, 200))
		sb.WriteString("\n")
	}
	sb.WriteString(sanitizeUserInput(st.DraftBody, 2000))
	sb.WriteString("\n")
	return sb.String()
}

func bookingEmail(st *domain.WorkflowState, reply domain.ResponseRecord) string {
	if st.ContactEmail != "" {
		return st.ContactEmail
	}
	return strings.TrimSpace(reply.Sender)
}

func defaultString(value, fallback string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	return value
}
