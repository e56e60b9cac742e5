package certificates

import (
	"time"
)

type PageSize string

const (
	PageA3     PageSize = "A3"
	PageA4     PageSize = "A4"
	PageA5     PageSize = "A5"
	PageLetter PageSize = "LETTER"
	PageLegal  PageSize = "LEGAL"
)

type PageOrientation string

const (
	OrientationPortrait  PageOrientation = "portrait"
	OrientationLandscape PageOrientation = "landscape"
)

type FieldType string

const (
	FieldText      FieldType = "text"
	FieldImage     FieldType = "image"
	FieldDate      FieldType = "date"
	FieldSignature FieldType = "signature"
)

type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// Reserved formField keys resolved from the respondent's identity rather than
// from form answers.
const (
	IdentityFieldName  = "name"
	IdentityFieldEmail = "email"
)

// Position places a field on a template page. X and Y are PDF points with the
// origin at the top-left of the page, as authored in the template editor.
type Position struct {
	X    float64 `bson:"x" json:"x"`
	Y    float64 `bson:"y" json:"y"`
	Page int     `bson:"page" json:"page"`
}

// FieldStyle controls how a mapped value is drawn.
type FieldStyle struct {
	Font      string    `bson:"font" json:"font"`
	Size      float64   `bson:"size" json:"size"`
	Color     string    `bson:"color" json:"color"`
	Bold      bool      `bson:"bold" json:"bold"`
	Italic    bool      `bson:"italic" json:"italic"`
	Alignment Alignment `bson:"alignment" json:"alignment"`
	MaxWidth  float64   `bson:"max_width,omitempty" json:"max_width,omitempty"`
	MaxHeight float64   `bson:"max_height,omitempty" json:"max_height,omitempty"`
}

// FieldMapping binds one response answer (or identity field) to a position and
// style on the template. PDFField is a descriptive label only; placement is
// purely coordinate based.
type FieldMapping struct {
	FormField string     `bson:"form_field" json:"form_field"`
	PDFField  string     `bson:"pdf_field" json:"pdf_field"`
	FieldType FieldType  `bson:"field_type" json:"field_type"`
	Position  Position   `bson:"position" json:"position"`
	Style     FieldStyle `bson:"style" json:"style"`
}

// EmailTemplate describes the certificate email envelope and body.
type EmailTemplate struct {
	Subject   string   `bson:"subject" json:"subject"`
	Body      string   `bson:"body" json:"body"`
	FromName  string   `bson:"from_name,omitempty" json:"from_name,omitempty"`
	FromEmail string   `bson:"from_email,omitempty" json:"from_email,omitempty"`
	ReplyTo   string   `bson:"reply_to,omitempty" json:"reply_to,omitempty"`
	CC        []string `bson:"cc,omitempty" json:"cc,omitempty"`
	BCC       []string `bson:"bcc,omitempty" json:"bcc,omitempty"`
}

// CertificateTemplate is the persisted certificate definition for one form.
// TemplateBytes is the source PDF; it is treated as immutable once referenced
// by field mappings — replacing it is a new version, not a mutation of
// in-flight renders.
type CertificateTemplate struct {
	ID            string          `bson:"_id" json:"id"`
	FormID        string          `bson:"form_id" json:"form_id"`
	Name          string          `bson:"name" json:"name"`
	Description   string          `bson:"description,omitempty" json:"description,omitempty"`
	TemplateBytes []byte          `bson:"template_bytes" json:"-"`
	PageSize      PageSize        `bson:"page_size" json:"page_size"`
	Orientation   PageOrientation `bson:"page_orientation" json:"page_orientation"`
	FieldMappings []FieldMapping  `bson:"field_mappings" json:"field_mappings"`
	EmailTemplate EmailTemplate   `bson:"email_template" json:"email_template"`
	AutoSend      bool            `bson:"auto_send" json:"auto_send"`
	AutoSendDelay int             `bson:"auto_send_delay_minutes" json:"auto_send_delay_minutes"`
	IsActive      bool            `bson:"is_active" json:"is_active"`
	CreatedBy     string          `bson:"created_by,omitempty" json:"created_by,omitempty"`
	UpdatedBy     string          `bson:"updated_by,omitempty" json:"updated_by,omitempty"`
	CreatedAt     time.Time       `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `bson:"updated_at" json:"updated_at"`
}

// SentCertificate is one ledger entry: certificate X went to email Y for
// response Z. Entries are append-only and unique per
// (certificate_id, recipient_email).
type SentCertificate struct {
	ID             string    `bson:"_id" json:"id"`
	CertificateID  string    `bson:"certificate_id" json:"certificate_id"`
	ResponseID     string    `bson:"response_id" json:"response_id"`
	RecipientEmail string    `bson:"recipient_email" json:"recipient_email"`
	SentAt         time.Time `bson:"sent_at" json:"sent_at"`
}

// SendResult reports the outcome of a single send attempt.
type SendResult struct {
	Sent      bool   `json:"sent"`
	MessageID string `json:"message_id,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// BatchResult is the per-response outcome of a batch generation.
type BatchResult struct {
	ResponseID string `json:"response_id"`
	Success    bool   `json:"success"`
	PDFBytes   []byte `json:"pdf_bytes,omitempty"`
	Error      string `json:"error,omitempty"`
}

// SweepResult aggregates one auto-send sweep over a template's responses.
type SweepResult struct {
	Processed int `json:"processed"`
	Sent      int `json:"sent"`
	Errors    int `json:"errors"`
}

// Stats summarizes a template's delivery ledger.
type Stats struct {
	TotalSent  int            `json:"total_sent"`
	SentByDate map[string]int `json:"sent_by_date"`
}

// DefaultStyle fills unset style values with the rendering defaults.
func (s FieldStyle) withDefaults() FieldStyle {
	if s.Size <= 0 {
		s.Size = 12
	}
	if s.Color == "" {
		s.Color = "#000000"
	}
	if s.Alignment == "" {
		s.Alignment = AlignLeft
	}
	if s.MaxWidth <= 0 {
		s.MaxWidth = 200
	}
	return s
}
