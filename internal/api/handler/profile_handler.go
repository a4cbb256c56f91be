package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fairchancejobs/jobboard-be/internal/api/domain"
	"github.com/fairchancejobs/jobboard-be/internal/api/dto"
	"github.com/fairchancejobs/jobboard-be/internal/api/model"
)

// ProfileHandler serves the seeker profile endpoints.
type ProfileHandler struct {
	deps *Dependencies
}

// NewProfileHandler creates a profile handler.
func NewProfileHandler(deps *Dependencies) *ProfileHandler {
	return &ProfileHandler{deps: deps}
}

// GetProfile handles GET /api/v1/profile.
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	profile, err := h.deps.Storage().GetProfileByUserID(c.Request.Context(), c.GetString(ContextUserID))
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, profileBody(profile))
}

// UpsertProfile handles PUT /api/v1/profile. One profile per user: the
// first call creates it, later calls replace the mutable fields.
func (h *ProfileHandler) UpsertProfile(c *gin.Context) {
	var req dto.UpsertProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString(ContextUserID)
	now := time.Now().UTC()

	profile := &model.Profile{
		ID:        uuid.NewString(),
		UserID:    userID,
		FullName:  req.FullName,
		Phone:     req.Phone,
		Email:     req.Email,
		City:      req.City,
		State:     req.State,
		Bio:       req.Bio,
		CreatedAt: now,
		UpdatedAt: now,
	}

	created := true
	if existing, err := h.deps.Storage().GetProfileByUserID(ctx, userID); err == nil {
		profile.ID = existing.ID
		profile.CreatedAt = existing.CreatedAt
		created = false
	} else if !errors.Is(err, domain.ErrProfileNotFound) {
		errorResponse(c, err)
		return
	}

	if err := h.deps.Storage().UpsertProfile(ctx, profile); err != nil {
		errorResponse(c, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, profileBody(profile))
}

func profileBody(p *model.Profile) gin.H {
	return gin.H{
		"id":        p.ID,
		"user_id":   p.UserID,
		"full_name": p.FullName,
		"phone":     p.Phone,
		"email":     p.Email,
		"city":      p.City,
		"state":     p.State,
		"bio":       p.Bio,
	}
}
