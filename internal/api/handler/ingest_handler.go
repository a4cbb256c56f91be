package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/fairchancejobs/jobboard-be/internal/api/domain"
	"github.com/fairchancejobs/jobboard-be/internal/api/dto"
	"github.com/fairchancejobs/jobboard-be/internal/api/model"
	workerdomain "github.com/fairchancejobs/jobboard-be/internal/worker/domain"
)

// IngestHandler receives scraped listings from the external pipeline.
type IngestHandler struct {
	deps *Dependencies
}

// NewIngestHandler creates an ingest handler.
func NewIngestHandler(deps *Dependencies) *IngestHandler {
	return &IngestHandler{deps: deps}
}

// IngestJob handles POST /api/v1/ingest/jobs. Dedup goes cache first, store
// second: the Redis SETNX is the fast path, and the database lookup (backed
// by the unique constraint) catches everything the cache misses.
func (h *IngestHandler) IngestJob(c *gin.Context) {
	var req dto.IngestJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	if existing := h.checkDedupCache(c, &req); existing != nil {
		c.JSON(http.StatusOK, existing)
		return
	}

	job := &model.ScrapedJob{
		ID:          uuid.NewString(),
		ExternalID:  req.ExternalID,
		Source:      req.Source,
		Company:     req.Company,
		Title:       req.Title,
		Description: req.Description,
		URL:         req.URL,
		City:        req.City,
		State:       req.State,
		Lat:         req.Lat,
		Lng:         req.Lng,
		PayMin:      req.PayMin,
		PayMax:      req.PayMax,
		PayType:     req.PayType,
		Urgent:      req.Urgent,
		EasyApply:   req.EasyApply,
		ONETCode:    req.ONETCode,
		PostedAt:    req.PostedAt,
		Status:      string(domain.StatusScraped),
		ScrapedAt:   time.Now().UTC(),
	}

	if err := h.deps.Storage().InsertScrapedJob(ctx, job); err != nil {
		if errors.Is(err, domain.ErrDuplicateScrapedJob) {
			// Cache missed but the row exists; report the stored record.
			existing, lookupErr := h.deps.Storage().GetScrapedJobByExternalID(ctx, req.ExternalID, req.Source)
			if lookupErr != nil {
				errorResponse(c, lookupErr)
				return
			}
			c.JSON(http.StatusOK, dto.IngestJobResponse{
				ID:        existing.ID,
				Status:    existing.Status,
				Duplicate: true,
			})
			return
		}
		errorResponse(c, err)
		return
	}

	if err := h.deps.RabbitClient.PublishJSON(ctx, workerdomain.JobMessage{JobID: job.ID}); err != nil {
		// The record is stored; the resync schedule will pick it up even if
		// the publish never lands.
		h.deps.Logger.Error("Failed to publish pipeline message",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
	}

	c.JSON(http.StatusCreated, dto.IngestJobResponse{
		ID:     job.ID,
		Status: job.Status,
	})
}

// checkDedupCache claims the dedup key. Returns the duplicate response when
// the listing was already ingested, nil when the caller should insert. Cache
// outages fall through to the database path.
func (h *IngestHandler) checkDedupCache(c *gin.Context, req *dto.IngestJobRequest) *dto.IngestJobResponse {
	if h.deps.RedisClient == nil {
		return nil
	}

	ctx := c.Request.Context()
	key := domain.DedupKey(req.Source, req.ExternalID)

	set, err := h.deps.RedisClient.GetRDB().SetNX(ctx, key, 1, h.deps.Config.Redis.DedupTTL).Result()
	if err != nil {
		h.deps.Logger.Warn("Dedup cache unavailable, falling back to store lookup",
			slog.String("error", err.Error()),
		)
		return nil
	}
	if set {
		return nil
	}

	existing, err := h.deps.Storage().GetScrapedJobByExternalID(ctx, req.ExternalID, req.Source)
	if err != nil {
		if errors.Is(err, domain.ErrScrapedJobNotFound) {
			// Stale cache key with no row behind it; let the insert proceed.
			return nil
		}
		h.deps.Logger.Warn("Dedup store lookup failed",
			slog.String("error", err.Error()),
		)
		return nil
	}

	return &dto.IngestJobResponse{
		ID:        existing.ID,
		Status:    existing.Status,
		Duplicate: true,
	}
}
