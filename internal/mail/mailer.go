package mail

import (
	"context"
)

// Attachment is a file attached to an outgoing message.
type Attachment struct {
	Filename    string
	Data        []byte
	ContentType string
}

// Message is one outgoing email.
type Message struct {
	FromName    string
	FromEmail   string
	To          string
	CC          []string
	BCC         []string
	ReplyTo     string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Result reports a send attempt. Transports never return Go errors for
// delivery failures; a failed send is a Result with Sent=false so callers can
// treat transport failure as recoverable and retryable.
type Result struct {
	Sent      bool   `json:"sent"`
	MessageID string `json:"message_id,omitempty"`
	Err       string `json:"error,omitempty"`
}

// Transport delivers messages. Implementations must honor ctx cancellation
// and deadlines; callers bound every send with a timeout.
type Transport interface {
	Send(ctx context.Context, msg *Message) *Result
}
