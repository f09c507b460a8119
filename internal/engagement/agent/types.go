// Package agent generates outreach content and classifies inbound replies
// using the Kimi chat model. Every operation degrades gracefully: a failed or
// malformed model call falls back to deterministic templates or to the
// neutral no_response classification, so the engagement pipeline never stalls
// on the model.
package agent

import (
	"context"

	"permitflow_backend/internal/engagement/domain"
	"permitflow_backend/platform/ai/kimi"
)

// Completer is the slice of the model client the agent needs.
type Completer interface {
	Complete(ctx context.Context, messages []kimi.Message) (string, error)
	Name() string
}

// Draft is a generated outreach message ready for the approval gate.
type Draft struct {
	Subject string          `json:"subject"`
	Body    string          `json:"body"`
	Kind    domain.DraftKind `json:"kind"`

	// Fallback marks drafts produced from the built-in templates after a
	// model failure.
	Fallback bool `json:"fallback"`
}

// ReplyAnalysis is the structured outcome of classifying an inbound reply.
type ReplyAnalysis struct {
	Classification domain.Classification `json:"classification"`
	Sentiment      string                `json:"sentiment"`
	InterestLevel  string                `json:"interestLevel"`
	Objections     []string              `json:"objections,omitempty"`

	// Booking is only populated for positive replies.
	Booking *domain.BookingPayload `json:"booking,omitempty"`

	// Fallback marks analyses produced without a successful model call.
	Fallback bool `json:"fallback"`
}
