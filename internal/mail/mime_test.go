package mail

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMIMERequiresRecipient(t *testing.T) {
	_, err := BuildMIME(&Message{Subject: "hi"})
	assert.Error(t, err)
}

func TestBuildMIMEWithoutAttachments(t *testing.T) {
	raw, err := BuildMIME(&Message{
		FromName:  "Feedback Portal",
		FromEmail: "no-reply@example.com",
		To:        "jane@example.com",
		Subject:   "Your Certificate",
		HTML:      "<p>Hello</p>",
	})
	require.NoError(t, err)

	s := string(raw)
	assert.Contains(t, s, "From: Feedback Portal <no-reply@example.com>\r\n")
	assert.Contains(t, s, "To: jane@example.com\r\n")
	assert.Contains(t, s, "Subject: Your Certificate\r\n")
	assert.Contains(t, s, "Content-Type: text/html; charset=utf-8\r\n\r\n<p>Hello</p>")
	assert.NotContains(t, s, "multipart/mixed")
}

func TestBuildMIMEWithAttachment(t *testing.T) {
	pdfData := bytes.Repeat([]byte("certificate bytes "), 20)

	raw, err := BuildMIME(&Message{
		FromEmail: "no-reply@example.com",
		To:        "jane@example.com",
		CC:        []string{"organizer@example.com"},
		ReplyTo:   "support@example.com",
		Subject:   "Your Certificate",
		HTML:      "<p>Attached</p>",
		Attachments: []Attachment{
			{Filename: "certificate.pdf", Data: pdfData, ContentType: "application/pdf"},
		},
	})
	require.NoError(t, err)

	s := string(raw)
	assert.Contains(t, s, "Cc: organizer@example.com\r\n")
	assert.Contains(t, s, "Reply-To: support@example.com\r\n")
	assert.Contains(t, s, "multipart/mixed")
	assert.Contains(t, s, `Content-Type: application/pdf; name="certificate.pdf"`)
	assert.Contains(t, s, "Content-Transfer-Encoding: base64")
	assert.True(t, strings.HasSuffix(s, "--\r\n"))

	// The attachment must round-trip through its base64 body.
	start := strings.Index(s, "Content-Disposition: attachment")
	require.Greater(t, start, 0)
	body := s[start:]
	body = body[strings.Index(body, "\r\n\r\n")+4:]
	body = body[:strings.Index(body, "--")]

	var encoded strings.Builder
	for _, line := range strings.Split(body, "\r\n") {
		assert.LessOrEqual(t, len(line), 76)
		encoded.WriteString(line)
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded.String())
	require.NoError(t, err)
	assert.Equal(t, pdfData, decoded)
}

func extractBoundary(t *testing.T, raw []byte) string {
	t.Helper()
	s := string(raw)
	start := strings.Index(s, `boundary="`)
	require.Greater(t, start, 0)
	s = s[start+len(`boundary="`):]
	return s[:strings.Index(s, `"`)]
}

func TestBuildMIMEBoundaryIsPerMessage(t *testing.T) {
	msg := &Message{
		FromEmail:   "no-reply@example.com",
		To:          "jane@example.com",
		HTML:        "<p>Hi</p>",
		Attachments: []Attachment{{Filename: "certificate.pdf", Data: []byte("%PDF-fake")}},
	}

	first, err := BuildMIME(msg)
	require.NoError(t, err)
	second, err := BuildMIME(msg)
	require.NoError(t, err)

	b1 := extractBoundary(t, first)
	b2 := extractBoundary(t, second)
	assert.NotEqual(t, b1, b2)

	// Each boundary delimits its own message body.
	assert.Contains(t, string(first), "--"+b1+"\r\n")
	assert.Contains(t, string(first), "--"+b1+"--\r\n")
	assert.NotContains(t, msg.HTML, b1)
}

func TestFormatFromWithoutName(t *testing.T) {
	raw, err := BuildMIME(&Message{
		FromEmail: "no-reply@example.com",
		To:        "jane@example.com",
	})
	require.NoError(t, err)
	assert.Contains(t, string(raw), "From: no-reply@example.com\r\n")
}
