// Package outreach delivers drafted messages over the lead's channel: SMTP
// for email, HTTP providers for chat and voice.
package outreach

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/google/uuid"
	gomail "github.com/wneessen/go-mail"

	"permitflow_backend/platform/config"
)

// SMTPSender delivers outreach email via a direct SMTP connection.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
}

func NewSMTPSender(cfg config.EmailConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
	}
}

// Send delivers one plain-text message and returns the Message-ID assigned to
// it, so the outreach log can correlate provider-side events later.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) (string, error) {
	messageID := fmt.Sprintf("<%s@permitflow>", uuid.NewString())

	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return "", fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(to); err != nil {
		return "", fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetMessageIDWithValue(messageID)
	msg.SetBodyString(gomail.TypeTextPlain, body)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return "", fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}

	return messageID, nil
}
