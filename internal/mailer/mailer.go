// Package mailer sends the transactional email produced by the intake flows:
// the back-office notification with the applicant's documents attached, the
// applicant confirmation, and the document upload link of the split flow.
package mailer

import "context"

// Attachment is a document included in an outbound message.
type Attachment struct {
	Filename    string
	Content     []byte
	ContentType string
}

// Message is a fully prepared outbound email.
type Message struct {
	FromName    string
	To          string
	ReplyTo     string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Mailer delivers messages and returns the provider message id.
type Mailer interface {
	Send(ctx context.Context, msg Message) (string, error)
}
