package mail

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"go.uber.org/zap"
)

// sesAPI is the slice of the SES v2 client this transport uses.
type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESTransport sends mail through Amazon SES v2 as a raw MIME message so PDF
// attachments survive intact.
type SESTransport struct {
	client sesAPI
	logger *zap.Logger
}

// NewSESTransport creates an SES-backed transport.
func NewSESTransport(client sesAPI, logger *zap.Logger) *SESTransport {
	return &SESTransport{client: client, logger: logger}
}

func (t *SESTransport) Send(ctx context.Context, msg *Message) *Result {
	raw, err := BuildMIME(msg)
	if err != nil {
		return &Result{Sent: false, Err: fmt.Sprintf("build message: %v", err)}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(formatFrom(msg)),
		Destination: &types.Destination{
			ToAddresses:  []string{msg.To},
			CcAddresses:  msg.CC,
			BccAddresses: msg.BCC,
		},
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}

	out, err := t.client.SendEmail(ctx, input)
	if err != nil {
		t.logger.Warn("SES send failed",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject),
			zap.Error(err))
		return &Result{Sent: false, Err: err.Error()}
	}

	t.logger.Info("Email sent",
		zap.String("to", msg.To),
		zap.String("message_id", aws.ToString(out.MessageId)))

	return &Result{Sent: true, MessageID: aws.ToString(out.MessageId)}
}

func formatFrom(msg *Message) string {
	if msg.FromName != "" {
		return fmt.Sprintf("%s <%s>", msg.FromName, msg.FromEmail)
	}
	return msg.FromEmail
}
