package mailer

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/marisolvega/funnelmail-backend/pkg/config"
)

// Message is one outbound email, already fully rendered.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender dispatches a message to the email provider and returns the provider
// response string recorded in the delivery log.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// SMTPSender delivers mail over SMTP via gomail.
type SMTPSender struct {
	dialer   *gomail.Dialer
	from     string
	fromName string
}

func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	return &SMTPSender{
		dialer:   gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:     cfg.From,
		fromName: cfg.FromName,
	}
}

func (s *SMTPSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.from, s.fromName)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/html", msg.HTML)

	if err := s.dialer.DialAndSend(m); err != nil {
		return "", fmt.Errorf("smtp send: %w", err)
	}
	return "accepted", nil
}
