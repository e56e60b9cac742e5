package mail

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSESClient struct {
	input *sesv2.SendEmailInput
	out   *sesv2.SendEmailOutput
	err   error
}

func (f *fakeSESClient) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.input = params
	return f.out, f.err
}

func TestSESTransportSend(t *testing.T) {
	client := &fakeSESClient{
		out: &sesv2.SendEmailOutput{MessageId: aws.String("msg-42")},
	}
	transport := NewSESTransport(client, zap.NewNop())

	res := transport.Send(context.Background(), &Message{
		FromName:  "Feedback Portal",
		FromEmail: "no-reply@example.com",
		To:        "jane@example.com",
		ReplyTo:   "support@example.com",
		Subject:   "Your Certificate",
		HTML:      "<p>Hi</p>",
		Attachments: []Attachment{
			{Filename: "certificate.pdf", Data: []byte("%PDF-fake"), ContentType: "application/pdf"},
		},
	})

	assert.True(t, res.Sent)
	assert.Equal(t, "msg-42", res.MessageID)

	require.NotNil(t, client.input)
	assert.Equal(t, []string{"jane@example.com"}, client.input.Destination.ToAddresses)
	assert.Equal(t, []string{"support@example.com"}, client.input.ReplyToAddresses)
	require.NotNil(t, client.input.Content.Raw)
	assert.Contains(t, string(client.input.Content.Raw.Data), "Subject: Your Certificate")
}

func TestSESTransportFailureIsNotAnError(t *testing.T) {
	client := &fakeSESClient{err: errors.New("throttling: rate exceeded")}
	transport := NewSESTransport(client, zap.NewNop())

	res := transport.Send(context.Background(), &Message{
		FromEmail: "no-reply@example.com",
		To:        "jane@example.com",
	})

	assert.False(t, res.Sent)
	assert.Contains(t, res.Err, "rate exceeded")
}

func TestSESTransportRejectsEmptyRecipient(t *testing.T) {
	client := &fakeSESClient{}
	transport := NewSESTransport(client, zap.NewNop())

	res := transport.Send(context.Background(), &Message{FromEmail: "no-reply@example.com"})
	assert.False(t, res.Sent)
	assert.Nil(t, client.input)
}
