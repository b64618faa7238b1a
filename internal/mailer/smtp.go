package mailer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"solidum/internal/platform/config"
)

// SMTPMailer delivers mail through a plain-auth SMTP relay.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTP(cfg config.SMTPConfig) (*SMTPMailer, error) {
	if cfg.Host == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, fmt.Errorf("smtp host, username and password are required")
	}
	return &SMTPMailer{cfg: cfg}, nil
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) (string, error) {
	mm := mail.NewMsg()
	fromName := msg.FromName
	if fromName == "" {
		fromName = m.cfg.FromName
	}
	if err := mm.FromFormat(fromName, m.cfg.From); err != nil {
		return "", fmt.Errorf("setting sender: %w", err)
	}
	if err := mm.To(msg.To); err != nil {
		return "", fmt.Errorf("setting recipient: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := mm.ReplyTo(msg.ReplyTo); err != nil {
			return "", fmt.Errorf("setting reply-to: %w", err)
		}
	}
	mm.Subject(msg.Subject)
	mm.SetBodyString(mail.TypeTextHTML, msg.HTML)
	mm.SetMessageID()

	for _, att := range msg.Attachments {
		opts := []mail.FileOption{}
		if att.ContentType != "" {
			opts = append(opts, mail.WithFileContentType(mail.ContentType(att.ContentType)))
		}
		if err := mm.AttachReader(att.Filename, bytes.NewReader(att.Content), opts...); err != nil {
			return "", fmt.Errorf("attaching %s: %w", att.Filename, err)
		}
	}

	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
	)
	if err != nil {
		return "", fmt.Errorf("building smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, mm); err != nil {
		return "", fmt.Errorf("sending mail to %s: %w", msg.To, err)
	}
	return mm.GetMessageID(), nil
}
