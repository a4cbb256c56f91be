package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fairchancejobs/jobboard-be/internal/api/domain"
	"github.com/fairchancejobs/jobboard-be/internal/api/dto"
	"github.com/fairchancejobs/jobboard-be/internal/api/model"
	"github.com/fairchancejobs/jobboard-be/internal/token"
)

// jobSMSPrefix marks an inbound text as a posting. Everything else is kept
// for admin triage only.
const jobSMSPrefix = "job:"

// WebhookHandler receives SMS-provider callbacks.
type WebhookHandler struct {
	deps *Dependencies
}

// NewWebhookHandler creates a webhook handler.
func NewWebhookHandler(deps *Dependencies) *WebhookHandler {
	return &WebhookHandler{deps: deps}
}

// InboundSMS handles POST /webhooks/sms. Every message is recorded; texts
// in the posting format additionally become a pending job submission, and
// the reply carries the employer's magic setup link.
func (h *WebhookHandler) InboundSMS(c *gin.Context) {
	var req dto.InboundMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	now := time.Now().UTC()

	status := req.Status
	if status == "" {
		status = "received"
	}

	msg := &model.InboundMessage{
		ID:                uuid.NewString(),
		Phone:             req.Phone,
		Body:              req.Body,
		ProviderMessageID: req.ProviderMessageID,
		Sender:            req.Sender,
		Status:            status,
		ReceivedAt:        now,
	}

	if err := h.deps.Storage().InsertInboundMessage(ctx, msg); err != nil {
		errorResponse(c, err)
		return
	}

	title, company, description, ok := parseJobSMS(req.Body)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"message_id": msg.ID})
		return
	}

	employer, err := h.deps.Storage().UpsertEmployerByPhone(ctx, &model.Employer{
		ID:        uuid.NewString(),
		Phone:     req.Phone,
		Company:   company,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		errorResponse(c, err)
		return
	}

	sub := &model.JobSubmission{
		ID:          uuid.NewString(),
		EmployerID:  &employer.ID,
		Channel:     domain.ChannelSMS,
		Company:     company,
		Title:       title,
		Description: description,
		Status:      domain.SubmissionPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.deps.Storage().CreateSubmission(ctx, sub); err != nil {
		errorResponse(c, err)
		return
	}

	resp := gin.H{
		"message_id":    msg.ID,
		"submission_id": sub.ID,
	}

	if linkToken, err := h.deps.MagicLink.Create(sub.ID, employer.ID); err == nil {
		resp["setup_url"] = token.SetupURL(h.deps.Config.Auth.AppBaseURL, linkToken)
	}

	c.JSON(http.StatusCreated, resp)
}

// ListInboundMessages handles GET /api/v1/admin/inbound-messages.
func (h *WebhookHandler) ListInboundMessages(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit <= 0 || limit > 200 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
		return
	}

	msgs, err := h.deps.Storage().ListInboundMessages(c.Request.Context(), limit)
	if err != nil {
		errorResponse(c, err)
		return
	}

	out := make([]dto.InboundMessageDTO, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, dto.InboundMessageDTO{
			ID:                m.ID,
			Phone:             m.Phone,
			Body:              m.Body,
			ProviderMessageID: m.ProviderMessageID,
			Sender:            m.Sender,
			Status:            m.Status,
			ReceivedAt:        m.ReceivedAt.Format(time.RFC3339),
		})
	}

	c.JSON(http.StatusOK, gin.H{"messages": out, "count": len(out)})
}

// parseJobSMS recognizes the posting format:
//
//	JOB: <title> | <company> | <description>
//
// Description is optional. Anything else is not a posting.
func parseJobSMS(body string) (title, company, description string, ok bool) {
	trimmed := strings.TrimSpace(body)
	if len(trimmed) < len(jobSMSPrefix) || !strings.EqualFold(trimmed[:len(jobSMSPrefix)], jobSMSPrefix) {
		return "", "", "", false
	}

	parts := strings.Split(trimmed[len(jobSMSPrefix):], "|")
	if len(parts) < 2 {
		return "", "", "", false
	}

	title = strings.TrimSpace(parts[0])
	company = strings.TrimSpace(parts[1])
	if title == "" || company == "" {
		return "", "", "", false
	}

	if len(parts) > 2 {
		description = strings.TrimSpace(strings.Join(parts[2:], "|"))
	}

	return title, company, description, true
}
