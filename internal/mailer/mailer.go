package mailer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"
)

// Attachment is one file carried by an outbound message.
type Attachment struct {
	Name    string
	Content []byte
}

// OutboundMessage is a fully composed delivery email.
type OutboundMessage struct {
	To          string
	ToName      string
	Subject     string
	Body        string
	Attachments []Attachment
}

// Sender delivers composed messages. The SMTP client below is the production
// implementation; the correlator is tested against a fake.
type Sender interface {
	Send(ctx context.Context, msg OutboundMessage) error
}

// SMTPConfig carries the relay settings for outbound mail.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPSender sends mail through an authenticated SMTP relay.
type SMTPSender struct {
	cfg SMTPConfig
}

// NewSMTPSender builds a sender for the given relay.
func NewSMTPSender(cfg SMTPConfig) *SMTPSender {
	return &SMTPSender{cfg: cfg}
}

// Send composes and delivers one message. A fresh connection is dialed per
// message; delivery volume here is a handful of mails a day, not a queue.
func (s *SMTPSender) Send(ctx context.Context, msg OutboundMessage) error {
	m, err := buildMessage(s.cfg, msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.cfg.Host,
		mail.WithPort(s.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.cfg.Username),
		mail.WithPassword(s.cfg.Password),
	)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}
	return nil
}

// buildMessage composes the MIME message for one delivery.
func buildMessage(cfg SMTPConfig, msg OutboundMessage) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.FromFormat(cfg.FromName, cfg.From); err != nil {
		return nil, fmt.Errorf("invalid sender address %q: %w", cfg.From, err)
	}
	if err := m.AddToFormat(msg.ToName, msg.To); err != nil {
		return nil, fmt.Errorf("invalid recipient address %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)

	for _, att := range msg.Attachments {
		if err := m.AttachReader(att.Name, bytes.NewReader(att.Content)); err != nil {
			return nil, fmt.Errorf("failed to attach %s: %w", att.Name, err)
		}
	}
	return m, nil
}
