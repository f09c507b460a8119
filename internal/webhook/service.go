package webhook

import (
	"context"
	"strings"
	"time"

	"permitflow_backend/internal/engagement/domain"
	"permitflow_backend/platform/apperr"
	"permitflow_backend/platform/logger"
)

// ReplyProcessor is the engagement-side resumption gateway.
type ReplyProcessor interface {
	ProcessReply(ctx context.Context, rec *domain.ResponseRecord) (*domain.WorkflowState, bool, error)
}

// InboundReply is the normalized webhook payload.
type InboundReply struct {
	LeadID     string     `json:"lead_id"`
	From       string     `json:"from" validate:"required"`
	To         string     `json:"to"`
	Subject    string     `json:"subject"`
	Content    string     `json:"content"`
	ReceivedAt *time.Time `json:"received_at"`
	Source     string     `json:"source"`
}

// ReplyResult reports what the gateway did with the reply.
type ReplyResult struct {
	LeadID   string `json:"lead_id"`
	Resumed  bool   `json:"resumed"`
	Status   string `json:"status,omitempty"`
	Recorded bool   `json:"recorded"`
}

type Service struct {
	processor ReplyProcessor
	extractor *SubjectExtractor
	log       *logger.Logger
	now       func() time.Time
}

func NewService(processor ReplyProcessor, extractor *SubjectExtractor, log *logger.Logger) *Service {
	return &Service{
		processor: processor,
		extractor: extractor,
		log:       log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// HandleReply resolves the lead, records the reply, and resumes the workflow.
// An unresolvable lead id is a typed rejection so the sender can fix its
// payload; everything downstream of a recorded reply degrades gracefully.
func (s *Service) HandleReply(ctx context.Context, in InboundReply) (ReplyResult, error) {
	leadID, err := s.extractor.ResolveLeadID(in.LeadID, in.Subject)
	if err != nil {
		return ReplyResult{}, apperr.Wrap(apperr.KindBadRequest, "cannot determine lead for reply", err)
	}

	receivedAt := s.now()
	if in.ReceivedAt != nil && !in.ReceivedAt.IsZero() {
		receivedAt = in.ReceivedAt.UTC()
	}

	source := strings.TrimSpace(in.Source)
	if source == "" {
		source = "webhook"
	}

	rec := &domain.ResponseRecord{
		LeadID:     leadID,
		Content:    in.Content,
		Sender:     strings.TrimSpace(in.From),
		ReceivedAt: receivedAt,
		Source:     source,
	}

	st, resumed, err := s.processor.ProcessReply(ctx, rec)
	if err != nil {
		return ReplyResult{}, err
	}

	result := ReplyResult{LeadID: leadID, Resumed: resumed, Recorded: true}
	if st != nil {
		result.Status = string(st.WorkflowStatus)
	}
	s.log.WithLeadID(leadID).Info("inbound reply processed", "resumed", resumed, "source", source)
	return result, nil
}
