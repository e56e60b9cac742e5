package certificates

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"event-system/feedback-portal/feedback-portal-backend/internal/certificates/export"
	"event-system/feedback-portal/feedback-portal-backend/internal/forms"
)

// Handler exposes the dispatch operations over HTTP. It is a thin wrapper:
// all semantics live in the Service.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new certificates handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterRoutes registers certificate routes.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	certs := router.Group("/certificates")
	{
		certs.POST("", h.createTemplate)
		certs.GET("/:id", h.getTemplate)
		certs.PUT("/:id", h.updateTemplate)
		certs.DELETE("/:id", h.deleteTemplate)
		certs.GET("/form/:formId", h.getTemplateByForm)

		certs.POST("/:id/generate/:responseId", h.generateOne)
		certs.POST("/:id/preview", h.generatePreview)
		certs.POST("/:id/send", h.sendOne)
		certs.POST("/:id/batch", h.generateBatch)
		certs.POST("/:id/auto-send", h.processAutoSend)

		certs.GET("/:id/stats", h.getStats)
		certs.GET("/:id/export", h.exportLedger)
	}

	// Submission hook: the forms frontend notifies us after a response is
	// stored so zero-delay auto-send templates can fire immediately.
	router.POST("/responses/:responseId/submitted", h.handleSubmission)
}

func (h *Handler) createTemplate(c *gin.Context) {
	var tpl CertificateTemplate
	if err := c.ShouldBindJSON(&tpl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.service.CreateTemplate(c.Request.Context(), &tpl); err != nil {
		h.respondError(c, err, "Failed to create certificate template")
		return
	}
	c.JSON(http.StatusCreated, tpl)
}

func (h *Handler) getTemplate(c *gin.Context) {
	tpl, err := h.service.GetTemplate(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get certificate template")
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (h *Handler) getTemplateByForm(c *gin.Context) {
	tpl, err := h.service.GetTemplateByForm(c.Request.Context(), c.Param("formId"))
	if err != nil {
		h.respondError(c, err, "Failed to get certificate template by form")
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (h *Handler) updateTemplate(c *gin.Context) {
	var tpl CertificateTemplate
	if err := c.ShouldBindJSON(&tpl); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	tpl.ID = c.Param("id")

	if err := h.service.UpdateTemplate(c.Request.Context(), &tpl); err != nil {
		h.respondError(c, err, "Failed to update certificate template")
		return
	}
	c.JSON(http.StatusOK, tpl)
}

func (h *Handler) deleteTemplate(c *gin.Context) {
	if err := h.service.DeleteTemplate(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err, "Failed to delete certificate template")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) generateOne(c *gin.Context) {
	pdfBytes, err := h.service.GenerateOne(c.Request.Context(), c.Param("id"), c.Param("responseId"))
	if err != nil {
		h.respondError(c, err, "Failed to generate certificate")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="certificate.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

func (h *Handler) generatePreview(c *gin.Context) {
	pdfBytes, err := h.service.GeneratePreview(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to generate certificate preview")
		return
	}
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}

type sendRequest struct {
	ResponseID     string `json:"response_id" binding:"required"`
	RecipientEmail string `json:"recipient_email" binding:"required,email"`
}

func (h *Handler) sendOne(c *gin.Context) {
	var req sendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	templateID := c.Param("id")

	pdfBytes, err := h.service.GenerateOne(ctx, templateID, req.ResponseID)
	if err != nil {
		h.respondError(c, err, "Failed to generate certificate for send")
		return
	}

	result, err := h.service.SendOne(ctx, templateID, req.ResponseID, req.RecipientEmail, pdfBytes)
	if err != nil {
		h.respondError(c, err, "Failed to send certificate")
		return
	}
	c.JSON(http.StatusOK, result)
}

type batchRequest struct {
	ResponseIDs []string `json:"response_ids" binding:"required,min=1"`
}

func (h *Handler) generateBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results, err := h.service.GenerateBatch(c.Request.Context(), c.Param("id"), req.ResponseIDs)
	if err != nil {
		h.respondError(c, err, "Failed to generate certificate batch")
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

func (h *Handler) processAutoSend(c *gin.Context) {
	result, err := h.service.ProcessAutoSend(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to process auto-send")
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) getStats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err, "Failed to get certificate stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) exportLedger(c *gin.Context) {
	ctx := c.Request.Context()
	templateID := c.Param("id")

	records, err := h.service.ListSent(ctx, templateID)
	if err != nil {
		h.respondError(c, err, "Failed to list sent certificates")
		return
	}

	rows := make([]export.LedgerRow, len(records))
	for i, rec := range records {
		rows[i] = export.LedgerRow{
			CertificateID:  rec.CertificateID,
			ResponseID:     rec.ResponseID,
			RecipientEmail: rec.RecipientEmail,
			SentAt:         rec.SentAt,
		}
	}

	var buf bytes.Buffer
	if err := export.WriteLedgerWorkbook(&buf, rows); err != nil {
		h.respondError(c, err, "Failed to export ledger")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="sent-certificates.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

type submissionRequest struct {
	RespondentName  string `json:"respondent_name"`
	RespondentEmail string `json:"respondent_email"`
}

func (h *Handler) handleSubmission(c *gin.Context) {
	var req submissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var identity *forms.RespondentIdentity
	if req.RespondentName != "" || req.RespondentEmail != "" {
		identity = &forms.RespondentIdentity{Name: req.RespondentName, Email: req.RespondentEmail}
	}

	// The submission itself already succeeded, so always acknowledge.
	h.service.HandleSubmission(c.Request.Context(), c.Param("responseId"), identity)
	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}

func (h *Handler) respondError(c *gin.Context, err error, logMsg string) {
	var tplErr *TemplateError

	switch {
	case errors.Is(err, ErrTemplateNotFound), errors.Is(err, ErrResponseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, ErrTemplateInactive):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.As(err, &tplErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		h.logger.Error(logMsg, zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
