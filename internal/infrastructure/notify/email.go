package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"MacroAgent/internal/config"
	"MacroAgent/internal/domain"
	"MacroAgent/internal/ports"
)

// sendMailFunc matches smtp.SendMail, injectable for tests.
type sendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier delivers the plain-text rendering over SMTP.
type EmailNotifier struct {
	cfg      config.EmailConfig
	sendMail sendMailFunc
}

var _ ports.Notifier = (*EmailNotifier)(nil)

// NewEmailNotifier builds an SMTP-backed notifier from config.
func NewEmailNotifier(cfg config.EmailConfig) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, sendMail: smtp.SendMail}
}

func (n *EmailNotifier) ChannelName() string {
	return "email"
}

// Send delivers the briefing as a plain-text message. SMTP has no
// context support; cancellation is checked before dialing.
func (n *EmailNotifier) Send(ctx context.Context, briefing domain.Briefing) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	from := n.cfg.From
	if from == "" {
		from = n.cfg.Username
	}

	msg := buildMessage(from, n.cfg.To, briefing.Title, FormatBriefing(briefing))

	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}

	addr := fmt.Sprintf("%s:%d", n.cfg.Host, n.cfg.Port)
	if err := n.sendMail(addr, auth, from, []string{n.cfg.To}, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

func (n *EmailNotifier) Close() error {
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}
