// Package handler implements the HTTP handlers for the API service.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fairchancejobs/jobboard-be/internal/agent"
	"github.com/fairchancejobs/jobboard-be/internal/api/domain"
	"github.com/fairchancejobs/jobboard-be/internal/api/storage"
	"github.com/fairchancejobs/jobboard-be/internal/cleanup"
	"github.com/fairchancejobs/jobboard-be/internal/config"
	"github.com/fairchancejobs/jobboard-be/internal/pipelineclient"
	"github.com/fairchancejobs/jobboard-be/internal/search"
	"github.com/fairchancejobs/jobboard-be/internal/token"
	"github.com/fairchancejobs/jobboard-be/shared/postgresql"
	"github.com/fairchancejobs/jobboard-be/shared/rabbitmq"
	sharedredis "github.com/fairchancejobs/jobboard-be/shared/redis"
)

// Context keys set by the auth middleware.
const (
	ContextUserID       = "user_id"
	ContextUserEmail    = "user_email"
	ContextSubmissionID = "submission_id"
	ContextSenderID     = "sender_id"
)

// Dependencies holds everything the handlers need.
type Dependencies struct {
	Logger       *slog.Logger
	Config       *config.Config
	DBClient     *postgresql.Client
	RabbitClient *rabbitmq.Client
	RedisClient  *sharedredis.Client
	SearchClient *search.Client
	Pipeline     *pipelineclient.Client
	Cleanup      *cleanup.Orchestrator
	MagicLink    *token.MagicLink
	Agent        *agent.Agent

	storage *storage.Storage
}

// Storage lazily builds the shared storage instance.
func (d *Dependencies) Storage() *storage.Storage {
	if d.storage == nil {
		d.storage = storage.NewStorage(d.DBClient)
	}
	return d.storage
}

// errorResponse maps domain errors onto HTTP statuses and writes the JSON
// error body.
func errorResponse(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrScrapedJobNotFound),
		errors.Is(err, domain.ErrSubmissionNotFound),
		errors.Is(err, domain.ErrApplicationNotFound),
		errors.Is(err, domain.ErrProfileNotFound),
		errors.Is(err, domain.ErrEmployerNotFound):
		return http.StatusNotFound

	case errors.Is(err, domain.ErrDuplicateScrapedJob),
		errors.Is(err, domain.ErrAlreadyApplied),
		errors.Is(err, domain.ErrSubmissionNotApproved):
		return http.StatusConflict

	case errors.Is(err, token.ErrInvalidToken),
		errors.Is(err, token.ErrExpiredToken):
		return http.StatusUnauthorized
	}

	return http.StatusInternalServerError
}
