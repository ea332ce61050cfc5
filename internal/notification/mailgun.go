package notification

import (
	"context"
	"fmt"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const (
	defaultMailTimeout = 10 * time.Second
	mailTag            = "auth-service"
)

// Mailer sends a single email.
type Mailer interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Mailgun sends email through one Mailgun domain.
type Mailgun struct {
	client  *mg.MailgunImpl
	sender  string
	timeout time.Duration
}

// NewMailgun builds the API client once; apiBase overrides the default US endpoint when set.
func NewMailgun(domain, apiKey, apiBase, sender string) *Mailgun {
	client := mg.NewMailgun(domain, apiKey)
	if apiBase != "" {
		client.SetAPIBase(apiBase)
	}
	return &Mailgun{client: client, sender: sender, timeout: defaultMailTimeout}
}

func (m *Mailgun) message(to, subject, text, html string) *mg.Message {
	msg := mg.NewMessage(m.sender, subject, text, to)
	_ = msg.AddTag(mailTag)
	if html != "" {
		msg.SetHtml(html)
	}
	return msg
}

// Send delivers one message. html is optional.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.message(to, subject, text, html)
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	if _, _, err := m.client.Send(ctx, msg); err != nil {
		return fmt.Errorf("mailgun send to %s: %w", m.client.Domain(), err)
	}
	return nil
}

// EmailNotifier delivers reset links as plain-text email.
type EmailNotifier struct {
	mailer Mailer
}

// NewEmailNotifier builds an EmailNotifier on top of mailer.
func NewEmailNotifier(mailer Mailer) *EmailNotifier {
	return &EmailNotifier{mailer: mailer}
}

func (n *EmailNotifier) SendPasswordReset(ctx context.Context, msg PasswordReset) error {
	if err := n.mailer.Send(ctx, msg.To, resetSubject, resetText(msg), ""); err != nil {
		return fmt.Errorf("send reset email: %w", err)
	}
	return nil
}
