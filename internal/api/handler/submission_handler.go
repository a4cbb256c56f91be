package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fairchancejobs/jobboard-be/internal/api/domain"
	"github.com/fairchancejobs/jobboard-be/internal/api/dto"
	"github.com/fairchancejobs/jobboard-be/internal/api/model"
	"github.com/fairchancejobs/jobboard-be/internal/search"
	"github.com/fairchancejobs/jobboard-be/internal/token"
)

// SubmissionHandler serves the job-board submission endpoints.
type SubmissionHandler struct {
	deps *Dependencies
}

// NewSubmissionHandler creates a submission handler.
func NewSubmissionHandler(deps *Dependencies) *SubmissionHandler {
	return &SubmissionHandler{deps: deps}
}

// ListJobs handles GET /api/v1/jobs: the public board of approved postings.
func (h *SubmissionHandler) ListJobs(c *gin.Context) {
	subs, err := h.deps.Storage().ListSubmissions(c.Request.Context(), domain.SubmissionApproved, maxPageSize)
	if err != nil {
		errorResponse(c, err)
		return
	}

	out := make([]dto.SubmissionDTO, 0, len(subs))
	for i := range subs {
		out = append(out, toSubmissionDTO(&subs[i]))
	}

	c.JSON(http.StatusOK, gin.H{"jobs": out})
}

// seekerStringKeys are the filterable string fields exposed to seekers.
// Admins additionally get "source".
var seekerStringKeys = []string{"city", "state", "second_chance_tier", "pay_type"}

// SearchJobs handles GET /api/v1/jobs/search against the scraped-job index.
func (h *SubmissionHandler) SearchJobs(c *gin.Context) {
	params, err := filterParamsFromQuery(c, seekerStringKeys)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.deps.SearchClient.Search(c.Request.Context(), search.SearchRequest{
		Q:       c.Query("q"),
		Filter:  search.BuildFilter(params),
		PerPage: defaultPageSize,
	})
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CreateSubmission handles POST /api/v1/submissions: an employer posting
// over the web, always entering review as pending.
func (h *SubmissionHandler) CreateSubmission(c *gin.Context) {
	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	now := time.Now().UTC()

	employer, err := h.deps.Storage().UpsertEmployerByPhone(ctx, &model.Employer{
		ID:        uuid.NewString(),
		Phone:     req.Phone,
		Company:   req.Company,
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
		Channel:     domain.ChannelWeb,
		Company:     req.Company,
		Title:       req.Title,
		Description: req.Description,
		City:        req.City,
		State:       req.State,
		PayMin:      req.PayMin,
		PayMax:      req.PayMax,
		PayType:     req.PayType,
		Status:      domain.SubmissionPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.deps.Storage().CreateSubmission(ctx, sub); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, toSubmissionDTO(sub))
}

// ListSubmissions handles GET /api/v1/admin/submissions. Defaults to the
// review queue.
func (h *SubmissionHandler) ListSubmissions(c *gin.Context) {
	status := c.DefaultQuery("status", domain.SubmissionPending)

	subs, err := h.deps.Storage().ListSubmissions(c.Request.Context(), status, maxPageSize)
	if err != nil {
		errorResponse(c, err)
		return
	}

	out := make([]dto.SubmissionDTO, 0, len(subs))
	for i := range subs {
		out = append(out, toSubmissionDTO(&subs[i]))
	}

	c.JSON(http.StatusOK, gin.H{"submissions": out})
}

// ApproveSubmission handles POST /api/v1/admin/submissions/:id/approve.
// Approval mints the employer's magic link for candidate triage; re-approval
// just mints a fresh link.
func (h *SubmissionHandler) ApproveSubmission(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	sub, err := h.deps.Storage().GetSubmissionByID(ctx, id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	if err := h.deps.Storage().ReviewSubmission(ctx, id, domain.SubmissionApproved, time.Now().UTC()); err != nil {
		errorResponse(c, err)
		return
	}

	resp := gin.H{"id": id, "status": domain.SubmissionApproved}

	if sub.EmployerID != nil {
		linkToken, err := h.deps.MagicLink.Create(id, *sub.EmployerID)
		if err != nil {
			errorResponse(c, err)
			return
		}
		resp["candidates_url"] = token.CandidatesURL(h.deps.Config.Auth.AppBaseURL, linkToken)
	}

	c.JSON(http.StatusOK, resp)
}

// RejectSubmission handles POST /api/v1/admin/submissions/:id/reject.
func (h *SubmissionHandler) RejectSubmission(c *gin.Context) {
	id := c.Param("id")

	if err := h.deps.Storage().ReviewSubmission(c.Request.Context(), id, domain.SubmissionRejected, time.Now().UTC()); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": domain.SubmissionRejected})
}

func toSubmissionDTO(sub *model.JobSubmission) dto.SubmissionDTO {
	return dto.SubmissionDTO{
		ID:          sub.ID,
		Company:     sub.Company,
		Title:       sub.Title,
		Description: sub.Description,
		City:        sub.City,
		State:       sub.State,
		PayMin:      sub.PayMin,
		PayMax:      sub.PayMax,
		PayType:     sub.PayType,
		Channel:     sub.Channel,
		Status:      sub.Status,
		CreatedAt:   sub.CreatedAt.Format(time.RFC3339),
	}
}
