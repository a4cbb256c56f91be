package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fairchancejobs/jobboard-be/internal/api/domain"
	"github.com/fairchancejobs/jobboard-be/internal/api/dto"
	"github.com/fairchancejobs/jobboard-be/internal/api/model"
)

// ApplicationHandler serves seeker applications and employer triage.
type ApplicationHandler struct {
	deps *Dependencies
}

// NewApplicationHandler creates an application handler.
func NewApplicationHandler(deps *Dependencies) *ApplicationHandler {
	return &ApplicationHandler{deps: deps}
}

// Apply handles POST /api/v1/jobs/:id/apply. Only approved submissions
// accept applications, applying twice is a conflict, and the very first
// applicant is flagged so the employer can be nudged immediately.
func (h *ApplicationHandler) Apply(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetString(ContextUserID)

	sub, err := h.deps.Storage().GetSubmissionByID(ctx, c.Param("id"))
	if err != nil {
		errorResponse(c, err)
		return
	}
	if sub.Status != domain.SubmissionApproved {
		errorResponse(c, domain.ErrSubmissionNotApproved)
		return
	}

	// Applying requires a profile; the employer sees it during triage.
	if _, err := h.deps.Storage().GetProfileByUserID(ctx, userID); err != nil {
		errorResponse(c, err)
		return
	}

	app := &model.Application{
		ID:           uuid.NewString(),
		SubmissionID: sub.ID,
		SeekerID:     userID,
		Status:       domain.ApplicationPending,
		CreatedAt:    time.Now().UTC(),
	}

	first, err := h.deps.Storage().CreateApplication(ctx, app)
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ApplyResponse{
		ApplicationID:    app.ID,
		IsFirstApplicant: first,
	})
}

// Candidates handles GET /api/v1/employer/candidates. The magic-link
// middleware already resolved the token to a submission.
func (h *ApplicationHandler) Candidates(c *gin.Context) {
	ctx := c.Request.Context()
	submissionID := c.GetString(ContextSubmissionID)

	apps, err := h.deps.Storage().ListApplicationsBySubmission(ctx, submissionID)
	if err != nil {
		errorResponse(c, err)
		return
	}

	out := make([]dto.ApplicantDTO, 0, len(apps))
	for _, app := range apps {
		applicant := dto.ApplicantDTO{
			ApplicationID: app.ID,
			SeekerID:      app.SeekerID,
			Status:        app.Status,
			AppliedAt:     app.CreatedAt.Format(time.RFC3339),
		}

		profile, err := h.deps.Storage().GetProfileByUserID(ctx, app.SeekerID)
		if err == nil {
			applicant.FullName = profile.FullName
			applicant.Phone = profile.Phone
			applicant.City = profile.City
			applicant.State = profile.State
			applicant.Bio = profile.Bio
		}

		out = append(out, applicant)
	}

	c.JSON(http.StatusOK, gin.H{"candidates": out})
}

// Connect handles POST /api/v1/employer/applications/:id/connect.
func (h *ApplicationHandler) Connect(c *gin.Context) {
	h.review(c, domain.ApplicationConnected)
}

// Pass handles POST /api/v1/employer/applications/:id/pass.
func (h *ApplicationHandler) Pass(c *gin.Context) {
	h.review(c, domain.ApplicationPassed)
}

func (h *ApplicationHandler) review(c *gin.Context, verdict string) {
	ctx := c.Request.Context()
	submissionID := c.GetString(ContextSubmissionID)
	id := c.Param("id")

	app, err := h.deps.Storage().GetApplicationByID(ctx, id)
	if err != nil {
		errorResponse(c, err)
		return
	}

	// The token only grants triage over its own submission.
	if app.SubmissionID != submissionID {
		c.JSON(http.StatusForbidden, gin.H{"error": "application does not belong to this posting"})
		return
	}

	now := time.Now().UTC()
	if verdict == domain.ApplicationConnected {
		err = h.deps.Storage().MarkApplicationConnected(ctx, id, now)
	} else {
		err = h.deps.Storage().MarkApplicationPassed(ctx, id, now)
	}
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": verdict})
}
