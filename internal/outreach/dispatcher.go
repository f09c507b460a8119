package outreach

import (
	"context"
	"fmt"
	"strings"
	"time"

	"permitflow_backend/internal/engagement/domain"
	"permitflow_backend/platform/logger"
)

// EmailSender is the email side of the dispatcher.
type EmailSender interface {
	Send(ctx context.Context, to, subject, body string) (string, error)
}

// ChatSender is the chat/SMS side of the dispatcher.
type ChatSender interface {
	Send(ctx context.Context, phoneNumber, message string) (string, error)
}

// VoiceSender is the voice-call side of the dispatcher.
type VoiceSender interface {
	StartCall(ctx context.Context, phoneNumber, objective, script string) (string, error)
}

// Dispatcher routes the pending draft to the lead's channel. Email subjects
// get the correlation tag so inbound replies can be matched back to the lead
// even when the webhook payload carries no lead id.
type Dispatcher struct {
	email     EmailSender
	chat      ChatSender
	voice     VoiceSender
	tagPrefix string
	log       *logger.Logger
}

func NewDispatcher(email EmailSender, chat ChatSender, voice VoiceSender, tagPrefix string, log *logger.Logger) *Dispatcher {
	return &Dispatcher{
		email:     email,
		chat:      chat,
		voice:     voice,
		tagPrefix: tagPrefix,
		log:       log,
	}
}

// TagSubject prepends the reply-correlation tag for a lead.
func (d *Dispatcher) TagSubject(leadID, subject string) string {
	return fmt.Sprintf("[%s-%s] %s", d.tagPrefix, leadID, subject)
}

// Send delivers the state's pending draft. The returned record describes the
// attempt; the caller decides how to log delivery failures.
func (d *Dispatcher) Send(ctx context.Context, st *domain.WorkflowState) (domain.OutreachRecord, error) {
	rec := domain.OutreachRecord{
		LeadID:  st.LeadID,
		Channel: st.OutreachChannel,
		Subject: st.DraftSubject,
		Body:    st.DraftBody,
		SentAt:  time.Now().UTC(),
	}

	if strings.TrimSpace(st.DraftBody) == "" {
		return rec, fmt.Errorf("no draft to send for lead %s", st.LeadID)
	}

	switch st.OutreachChannel {
	case domain.ChannelEmail:
		if d.email == nil {
			return rec, fmt.Errorf("email channel not configured")
		}
		if strings.TrimSpace(st.ContactEmail) == "" {
			return rec, fmt.Errorf("lead %s has no contact email", st.LeadID)
		}
		rec.Recipient = st.ContactEmail
		rec.Subject = d.TagSubject(st.LeadID, st.DraftSubject)
		id, err := d.email.Send(ctx, st.ContactEmail, rec.Subject, st.DraftBody)
		rec.ProviderMessageID = id
		return rec, err

	case domain.ChannelChat:
		if d.chat == nil {
			return rec, fmt.Errorf("chat channel not configured")
		}
		if strings.TrimSpace(st.ContactPhone) == "" {
			return rec, fmt.Errorf("lead %s has no contact phone", st.LeadID)
		}
		rec.Recipient = st.ContactPhone
		id, err := d.chat.Send(ctx, st.ContactPhone, st.DraftBody)
		rec.ProviderMessageID = id
		return rec, err

	case domain.ChannelVoice:
		if d.voice == nil {
			return rec, fmt.Errorf("voice channel not configured")
		}
		if strings.TrimSpace(st.ContactPhone) == "" {
			return rec, fmt.Errorf("lead %s has no contact phone", st.LeadID)
		}
		rec.Recipient = st.ContactPhone
		id, err := d.voice.StartCall(ctx, st.ContactPhone, st.DraftSubject, st.DraftBody)
		rec.ProviderMessageID = id
		return rec, err
	}

	return rec, fmt.Errorf("unknown outreach channel %q", st.OutreachChannel)
}
