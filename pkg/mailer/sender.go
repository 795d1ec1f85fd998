// Package mailer renders and sends the engine's notification emails.
//
// Templates are markdown files with YAML front matter (Subject lives
// there), rendered through goldmark into an HTML layout; the processed
// markdown doubles as the plain-text part. Delivery goes through the
// Sender interface; the resend subpackage provides the production
// adapter, and tests substitute a recording fake.
package mailer

import (
	"context"
	"fmt"
)

// Sender is the minimal delivery interface a mail provider implements.
type Sender interface {
	// Send delivers a fully-prepared email.
	Send(ctx context.Context, email *Email) error
}

// Email is a prepared message. Notification fan-out puts the whole
// recipient set in BCC and addresses To at the sender itself, so
// subscribers never see each other.
type Email struct {
	Headers map[string]string
	Subject string
	HTML    string
	Text    string
	From    string
	ReplyTo string
	To      []string
	BCC     []string
}

// Recipient formats a display name and address as "Name <email>".
func Recipient(name, email string) string {
	if name == "" {
		return email
	}
	return fmt.Sprintf("%s <%s>", name, email)
}
