// Package notification delivers password reset links to users over a
// configurable channel: the log, Mailgun, a RabbitMQ email queue or a
// Redis pub/sub channel.
package notification

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

const resetSubject = "Reset your password"

// PasswordReset is the message a user receives after requesting a reset.
type PasswordReset struct {
	To        string    `json:"to"`
	Token     string    `json:"token"`
	Link      string    `json:"link"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Notifier sends password reset links out of band.
type Notifier interface {
	SendPasswordReset(ctx context.Context, msg PasswordReset) error
}

// BuildResetLink appends the token as a query parameter to base.
func BuildResetLink(base, token string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse reset url: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func resetText(msg PasswordReset) string {
	return fmt.Sprintf(
		"We received a request to reset your password.\n\nOpen %s to choose a new one. The link expires at %s.\n\nIf you did not ask for this, ignore this email.",
		msg.Link, msg.ExpiresAt.UTC().Format(time.RFC1123),
	)
}
