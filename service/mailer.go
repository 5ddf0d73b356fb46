package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/OlogyCrew/ologywoodv3/config"
	"github.com/OlogyCrew/ologywoodv3/pkg/logger"
	"github.com/OlogyCrew/ologywoodv3/pkg/sendgrid"
)

// Email is a rendered message ready for delivery.
type Email struct {
	To          string
	ToName      string
	Subject     string
	HTML        string
	Text        string
	Attachments []EmailAttachment
}

type EmailAttachment struct {
	Filename string
	MIMEType string
	Content  []byte
}

// Mailer delivers email.
type Mailer interface {
	Send(ctx context.Context, msg Email) error
}

// NewMailer returns a SendGrid mailer when an API key is configured and a
// logging mailer otherwise.
func NewMailer(cfg *config.SendGridConfig) (Mailer, error) {
	if cfg.APIKey == "" {
		slog.Warn("sendgrid api key not configured, emails will only be logged")
		return LogMailer{}, nil
	}
	client, err := sendgrid.New(sendgrid.Config{
		APIKey:           cfg.APIKey,
		BaseURL:          cfg.BaseURL,
		DefaultFromEmail: cfg.FromEmail,
		DefaultFromName:  cfg.FromName,
		Timeout:          time.Duration(cfg.TimeoutSeconds) * time.Second,
		MaxRetries:       cfg.MaxRetries,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create sendgrid client: %w", err)
	}
	return &SendGridMailer{client: client}, nil
}

type SendGridMailer struct {
	client sendgrid.Client
}

func (m *SendGridMailer) Send(ctx context.Context, msg Email) error {
	req := sendgrid.SendEmailRequest{
		To:      []sendgrid.EmailAddress{{Email: msg.To, Name: msg.ToName}},
		Subject: msg.Subject,
		HTML:    msg.HTML,
		Text:    msg.Text,
	}
	for _, a := range msg.Attachments {
		req.Attachments = append(req.Attachments, sendgrid.Attachment{
			Filename: a.Filename,
			MIMEType: a.MIMEType,
			Content:  a.Content,
		})
	}

	res, err := m.client.Send(ctx, req)
	if err != nil {
		return err
	}
	logger.Info(ctx, "email sent", "to", msg.To, "subject", msg.Subject, "message_id", res.MessageID)
	return nil
}

// LogMailer only logs outgoing mail. Used when sending is disabled.
type LogMailer struct{}

func (LogMailer) Send(ctx context.Context, msg Email) error {
	logger.Info(ctx, "email sending disabled, message logged",
		"to", msg.To,
		"subject", msg.Subject,
		"attachments", len(msg.Attachments),
	)
	return nil
}
