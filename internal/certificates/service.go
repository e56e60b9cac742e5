package certificates

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"event-system/feedback-portal/feedback-portal-backend/internal/events"
	"event-system/feedback-portal/feedback-portal-backend/internal/forms"
	"event-system/feedback-portal/feedback-portal-backend/internal/mail"
)

// Options tunes the dispatch service.
type Options struct {
	// MaxConcurrentSends bounds in-flight mail sends during a batch or
	// sweep. The transport is an external rate-limited dependency; firing
	// everything at once just trades partial failures for throttling.
	MaxConcurrentSends int

	// SendTimeout bounds each individual transport call. A timed-out send is
	// a failure, not a hang.
	SendTimeout time.Duration

	DefaultFromName  string
	DefaultFromEmail string
}

func (o Options) withDefaults() Options {
	if o.MaxConcurrentSends <= 0 {
		o.MaxConcurrentSends = 4
	}
	if o.SendTimeout <= 0 {
		o.SendTimeout = 15 * time.Second
	}
	if o.DefaultFromName == "" {
		o.DefaultFromName = "Event Feedback System"
	}
	return o
}

// Service orchestrates template storage, field resolution, PDF composition,
// the delivery ledger and the mail transport.
type Service struct {
	repo       Repository
	forms      forms.Repository
	compositor *Compositor
	transport  mail.Transport
	renderer   *mail.TemplateRenderer
	events     events.Publisher
	logger     *zap.Logger
	opts       Options
}

// NewService creates the dispatch service.
func NewService(
	repo Repository,
	formsRepo forms.Repository,
	compositor *Compositor,
	transport mail.Transport,
	publisher events.Publisher,
	logger *zap.Logger,
	opts Options,
) *Service {
	return &Service{
		repo:       repo,
		forms:      formsRepo,
		compositor: compositor,
		transport:  transport,
		renderer:   mail.NewTemplateRenderer(),
		events:     publisher,
		logger:     logger,
		opts:       opts.withDefaults(),
	}
}

// ---------------------------------------------------------------------------
// Template management
// ---------------------------------------------------------------------------

// CreateTemplate validates the PDF bytes and persists a new template.
func (s *Service) CreateTemplate(ctx context.Context, tpl *CertificateTemplate) error {
	if err := s.compositor.Validate(tpl.TemplateBytes); err != nil {
		return err
	}
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	if err := s.repo.CreateTemplate(ctx, tpl); err != nil {
		return err
	}
	s.events.Publish(events.Event{Type: events.TypeTemplateUpdated, FormID: tpl.FormID})
	return nil
}

func (s *Service) GetTemplate(ctx context.Context, id string) (*CertificateTemplate, error) {
	return s.repo.GetTemplate(ctx, id)
}

func (s *Service) GetTemplateByForm(ctx context.Context, formID string) (*CertificateTemplate, error) {
	return s.repo.GetTemplateByForm(ctx, formID)
}

// UpdateTemplate replaces a template. New template bytes are validated before
// they can replace the old ones.
func (s *Service) UpdateTemplate(ctx context.Context, tpl *CertificateTemplate) error {
	if err := s.compositor.Validate(tpl.TemplateBytes); err != nil {
		return err
	}

	// Updates never touch the creation audit fields; the handler binds a
	// fresh struct with zero values there.
	existing, err := s.repo.GetTemplate(ctx, tpl.ID)
	if err != nil {
		return err
	}
	tpl.CreatedAt = existing.CreatedAt
	tpl.CreatedBy = existing.CreatedBy

	if err := s.repo.UpdateTemplate(ctx, tpl); err != nil {
		return err
	}
	s.events.Publish(events.Event{Type: events.TypeTemplateUpdated, FormID: tpl.FormID})
	return nil
}

func (s *Service) DeleteTemplate(ctx context.Context, id string) error {
	return s.repo.DeleteTemplate(ctx, id)
}

// ListAutoSendTemplates returns active templates with auto-send enabled, for
// the sweep scheduler.
func (s *Service) ListAutoSendTemplates(ctx context.Context) ([]CertificateTemplate, error) {
	return s.repo.ListAutoSendTemplates(ctx)
}

// ValidateTemplate reports whether the bytes are a usable certificate
// template.
func (s *Service) ValidateTemplate(templateBytes []byte) error {
	return s.compositor.Validate(templateBytes)
}

// ---------------------------------------------------------------------------
// Generation
// ---------------------------------------------------------------------------

// GenerateOne renders the certificate for a single response and returns the
// PDF bytes. It never touches the ledger — generation and sending are
// decoupled so an operator can preview or download without sending.
func (s *Service) GenerateOne(ctx context.Context, templateID, responseID string) ([]byte, error) {
	tpl, err := s.getActiveTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	resp, err := s.getResponse(ctx, responseID)
	if err != nil {
		return nil, err
	}
	return s.renderFor(tpl, resp)
}

// GeneratePreview renders the template with sample values for every mapping.
func (s *Service) GeneratePreview(ctx context.Context, templateID string) ([]byte, error) {
	tpl, err := s.getActiveTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	fields := make([]RenderField, 0, len(tpl.FieldMappings))
	for _, m := range tpl.FieldMappings {
		sample := m.PDFField
		if sample == "" {
			sample = m.FormField
		}
		if sample == "" {
			sample = "Sample Text"
		}
		fields = append(fields, RenderField{Mapping: m, Value: sample})
	}
	return s.compositor.Render(tpl.TemplateBytes, fields)
}

// GenerateBatch renders each response independently. One response's failure
// never aborts the batch; every input id yields exactly one result.
func (s *Service) GenerateBatch(ctx context.Context, templateID string, responseIDs []string) ([]BatchResult, error) {
	tpl, err := s.getActiveTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}

	results := make([]BatchResult, len(responseIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxConcurrentSends)
	for i, responseID := range responseIDs {
		g.Go(func() error {
			results[i] = BatchResult{ResponseID: responseID}

			if err := gctx.Err(); err != nil {
				results[i].Error = err.Error()
				return nil
			}

			resp, err := s.getResponse(gctx, responseID)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			pdfBytes, err := s.renderFor(tpl, resp)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}

			results[i].Success = true
			results[i].PDFBytes = pdfBytes
			return nil
		})
	}
	g.Wait()

	return results, nil
}

// renderFor resolves every mapping against the response and composites the
// mapped values. Unmapped fields are skipped silently so a template can
// over-specify mappings for optional form fields.
func (s *Service) renderFor(tpl *CertificateTemplate, resp *forms.Response) ([]byte, error) {
	fields := make([]RenderField, 0, len(tpl.FieldMappings))
	for _, m := range tpl.FieldMappings {
		if m.FieldType != "" && m.FieldType != FieldText && m.FieldType != FieldDate {
			continue
		}
		v := ResolveFieldValue(m, resp.Answers, resp.Respondent)
		if !v.Mapped {
			continue
		}
		fields = append(fields, RenderField{Mapping: m, Value: v.Text})
	}
	return s.compositor.Render(tpl.TemplateBytes, fields)
}

// ---------------------------------------------------------------------------
// Sending
// ---------------------------------------------------------------------------

// SendOne emails previously rendered PDF bytes to a recipient and records the
// delivery. A recipient that already holds this certificate is skipped with
// "already sent". Transport failure leaves no ledger record, so a retry is
// safe.
func (s *Service) SendOne(ctx context.Context, templateID, responseID, recipientEmail string, pdfBytes []byte) (*SendResult, error) {
	tpl, err := s.getActiveTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	return s.sendRendered(ctx, tpl, responseID, recipientEmail, pdfBytes)
}

func (s *Service) sendRendered(ctx context.Context, tpl *CertificateTemplate, responseID, recipientEmail string, pdfBytes []byte) (*SendResult, error) {
	already, err := s.repo.HasSent(ctx, tpl.ID, recipientEmail)
	if err != nil {
		return nil, err
	}
	if already {
		return &SendResult{Sent: false, Reason: "already sent"}, nil
	}

	msg, err := s.composeEmail(ctx, tpl, recipientEmail, pdfBytes)
	if err != nil {
		return nil, err
	}

	sendCtx, cancel := context.WithTimeout(ctx, s.opts.SendTimeout)
	defer cancel()
	res := s.transport.Send(sendCtx, msg)
	if !res.Sent {
		return &SendResult{Sent: false, Reason: res.Err}, nil
	}

	inserted, err := s.repo.RecordSent(ctx, &SentCertificate{
		ID:             uuid.NewString(),
		CertificateID:  tpl.ID,
		ResponseID:     responseID,
		RecipientEmail: recipientEmail,
		SentAt:         time.Now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("record sent certificate: %w", err)
	}
	if !inserted {
		// Lost a race with a concurrent sweep; the ledger still holds
		// exactly one record for this recipient.
		return &SendResult{Sent: false, Reason: "already sent"}, nil
	}

	s.events.Publish(events.Event{
		Type:   events.TypeCertificateSent,
		FormID: tpl.FormID,
		Data: map[string]any{
			"certificate_id": tpl.ID,
			"response_id":    responseID,
		},
	})

	return &SendResult{Sent: true, MessageID: res.MessageID}, nil
}

// composeEmail builds the certificate email from the template's email
// settings, falling back to a default subject that references the form title.
func (s *Service) composeEmail(ctx context.Context, tpl *CertificateTemplate, recipientEmail string, pdfBytes []byte) (*mail.Message, error) {
	formTitle := tpl.Name
	if form, err := s.forms.GetForm(ctx, tpl.FormID); err == nil {
		formTitle = form.Title
	}

	subject := tpl.EmailTemplate.Subject
	if subject == "" {
		subject = fmt.Sprintf("Your Certificate for %s", formTitle)
	}

	html, err := s.renderer.Render(tpl.ID, tpl.EmailTemplate.Body, mail.BodyData{
		Name:      recipientEmail,
		FormTitle: formTitle,
	})
	if err != nil {
		return nil, err
	}

	fromEmail := tpl.EmailTemplate.FromEmail
	if fromEmail == "" {
		fromEmail = s.opts.DefaultFromEmail
	}
	fromName := tpl.EmailTemplate.FromName
	if fromName == "" {
		fromName = s.opts.DefaultFromName
	}

	return &mail.Message{
		FromName:  fromName,
		FromEmail: fromEmail,
		To:        recipientEmail,
		CC:        tpl.EmailTemplate.CC,
		BCC:       tpl.EmailTemplate.BCC,
		ReplyTo:   tpl.EmailTemplate.ReplyTo,
		Subject:   subject,
		HTML:      html,
		Attachments: []mail.Attachment{{
			Filename:    "certificate.pdf",
			Data:        pdfBytes,
			ContentType: "application/pdf",
		}},
	}, nil
}

// ---------------------------------------------------------------------------
// Auto-send
// ---------------------------------------------------------------------------

// ProcessAutoSend sweeps a template's eligible responses: everything created
// at or before now minus the configured delay that has not been sent yet.
// Per-response failures increment Errors and the sweep continues — fail-open,
// never fail-stop.
func (s *Service) ProcessAutoSend(ctx context.Context, templateID string) (*SweepResult, error) {
	tpl, err := s.repo.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !tpl.AutoSend || !tpl.IsActive {
		return &SweepResult{}, nil
	}

	cutoff := time.Now().Add(-time.Duration(tpl.AutoSendDelay) * time.Minute)
	responses, err := s.forms.ListResponsesBefore(ctx, tpl.FormID, cutoff)
	if err != nil {
		return nil, err
	}

	result := &SweepResult{Processed: len(responses)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.MaxConcurrentSends)
	for i := range responses {
		resp := responses[i]
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}

			outcome := s.autoSendOne(gctx, tpl, &resp)
			mu.Lock()
			switch outcome {
			case outcomeSent:
				result.Sent++
			case outcomeFailed:
				result.Errors++
			}
			mu.Unlock()
			return nil
		})
	}
	g.Wait()

	s.events.Publish(events.Event{
		Type:   events.TypeSweepCompleted,
		FormID: tpl.FormID,
		Data: map[string]any{
			"certificate_id": tpl.ID,
			"processed":      result.Processed,
			"sent":           result.Sent,
			"errors":         result.Errors,
		},
	})

	return result, nil
}

type sendOutcome int

const (
	outcomeSkipped sendOutcome = iota
	outcomeSent
	outcomeFailed
)

func (s *Service) autoSendOne(ctx context.Context, tpl *CertificateTemplate, resp *forms.Response) sendOutcome {
	recipient := recipientFor(resp)
	if recipient == "" {
		s.logger.Warn("Response has no recipient email, skipping auto-send",
			zap.String("certificate_id", tpl.ID),
			zap.String("response_id", resp.ID))
		return outcomeFailed
	}

	already, err := s.repo.HasSent(ctx, tpl.ID, recipient)
	if err != nil {
		s.logger.Error("Ledger lookup failed during sweep",
			zap.String("certificate_id", tpl.ID),
			zap.Error(err))
		return outcomeFailed
	}
	if already {
		return outcomeSkipped
	}

	pdfBytes, err := s.renderFor(tpl, resp)
	if err != nil {
		s.logger.Error("Certificate render failed during sweep",
			zap.String("certificate_id", tpl.ID),
			zap.String("response_id", resp.ID),
			zap.Error(err))
		return outcomeFailed
	}

	res, err := s.sendRendered(ctx, tpl, resp.ID, recipient, pdfBytes)
	if err != nil {
		s.logger.Error("Certificate send failed during sweep",
			zap.String("certificate_id", tpl.ID),
			zap.String("response_id", resp.ID),
			zap.Error(err))
		return outcomeFailed
	}
	if !res.Sent {
		if res.Reason == "already sent" {
			return outcomeSkipped
		}
		return outcomeFailed
	}
	return outcomeSent
}

// HandleSubmission is invoked by the forms collaborator right after a
// response is persisted. The recipient is derived strictly from the
// response's own email answer — never from the session identity — and a
// mismatch with the authenticated email skips silently. Certificate failures
// never surface to the submitter; the response is already saved.
func (s *Service) HandleSubmission(ctx context.Context, responseID string, identity *forms.RespondentIdentity) {
	resp, err := s.getResponse(ctx, responseID)
	if err != nil {
		s.logger.Warn("Submission hook could not load response",
			zap.String("response_id", responseID),
			zap.Error(err))
		return
	}

	tpl, err := s.repo.GetTemplateByForm(ctx, resp.FormID)
	if err != nil {
		if !errors.Is(err, ErrTemplateNotFound) {
			s.logger.Error("Submission hook template lookup failed",
				zap.String("form_id", resp.FormID),
				zap.Error(err))
		}
		return
	}
	if !tpl.AutoSend || !tpl.IsActive {
		return
	}
	if tpl.AutoSendDelay > 0 {
		// The delayed sweep owns this response.
		return
	}

	recipient := answeredEmail(resp)
	if recipient == "" {
		return
	}
	if identity != nil && identity.Email != "" && !strings.EqualFold(identity.Email, recipient) {
		s.logger.Info("Answered email differs from account email, skipping auto-send",
			zap.String("response_id", resp.ID))
		return
	}

	pdfBytes, err := s.renderFor(tpl, resp)
	if err != nil {
		s.logger.Error("Submission-triggered render failed",
			zap.String("response_id", resp.ID),
			zap.Error(err))
		return
	}
	if _, err := s.sendRendered(ctx, tpl, resp.ID, recipient, pdfBytes); err != nil {
		s.logger.Error("Submission-triggered send failed",
			zap.String("response_id", resp.ID),
			zap.Error(err))
	}
}

// ---------------------------------------------------------------------------
// Ledger queries
// ---------------------------------------------------------------------------

// Stats summarizes the template's delivery ledger.
func (s *Service) Stats(ctx context.Context, templateID string) (*Stats, error) {
	records, err := s.repo.ListSent(ctx, templateID)
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		TotalSent:  len(records),
		SentByDate: make(map[string]int),
	}
	for _, rec := range records {
		stats.SentByDate[rec.SentAt.Format("2006-01-02")]++
	}
	return stats, nil
}

// ListSent returns the template's ledger entries in send order.
func (s *Service) ListSent(ctx context.Context, templateID string) ([]SentCertificate, error) {
	return s.repo.ListSent(ctx, templateID)
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// getActiveTemplate loads a template and rejects deactivated ones. Manual
// generation and sending honor the soft-disable flag just like the sweep does.
func (s *Service) getActiveTemplate(ctx context.Context, templateID string) (*CertificateTemplate, error) {
	tpl, err := s.repo.GetTemplate(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if !tpl.IsActive {
		return nil, ErrTemplateInactive
	}
	return tpl, nil
}

func (s *Service) getResponse(ctx context.Context, responseID string) (*forms.Response, error) {
	resp, err := s.forms.GetResponse(ctx, responseID)
	if errors.Is(err, forms.ErrNotFound) {
		return nil, ErrResponseNotFound
	}
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// answeredEmail returns the email the respondent typed into the form, if any.
func answeredEmail(resp *forms.Response) string {
	if a := resp.Answer(IdentityFieldEmail); a != nil {
		if a.Text != "" {
			return a.Text
		}
		if s, ok := a.Value.(string); ok {
			return s
		}
	}
	return ""
}

// recipientFor picks the sweep recipient: the answered email wins, the
// collaborator-supplied identity is the fallback.
func recipientFor(resp *forms.Response) string {
	if email := answeredEmail(resp); email != "" {
		return email
	}
	if resp.Respondent != nil {
		return resp.Respondent.Email
	}
	return ""
}
