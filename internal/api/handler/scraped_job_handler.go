package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fairchancejobs/jobboard-be/internal/api/domain"
	"github.com/fairchancejobs/jobboard-be/internal/api/dto"
	"github.com/fairchancejobs/jobboard-be/internal/api/model"
	"github.com/fairchancejobs/jobboard-be/internal/api/storage"
	"github.com/fairchancejobs/jobboard-be/internal/pipelineclient"
	"github.com/fairchancejobs/jobboard-be/internal/search"
)

const (
	defaultPageSize = 25
	maxPageSize     = 100

	// nukeConfirmation must be typed verbatim into the nuke request.
	nukeConfirmation = "delete all scraped jobs"
)

// ScrapedJobHandler serves the admin scraped-job endpoints.
type ScrapedJobHandler struct {
	deps *Dependencies
}

// NewScrapedJobHandler creates a scraped job handler.
func NewScrapedJobHandler(deps *Dependencies) *ScrapedJobHandler {
	return &ScrapedJobHandler{deps: deps}
}

// ListScrapedJobs handles GET /api/v1/admin/scraped-jobs
func (h *ScrapedJobHandler) ListScrapedJobs(c *gin.Context) {
	var req dto.ListScrapedJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Status != "" {
		if _, err := domain.ParseStatus(req.Status); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	filter := storage.ScrapedJobFilter{
		Status:   req.Status,
		Source:   req.Source,
		PageSize: pageSize,
	}
	if req.Cursor != "" {
		cursor, err := decodeCursor(req.Cursor)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		filter.Cursor = cursor
	}

	jobs, err := h.deps.Storage().ListScrapedJobs(c.Request.Context(), filter)
	if err != nil {
		errorResponse(c, err)
		return
	}

	resp := dto.ListScrapedJobsResponse{Jobs: make([]dto.ScrapedJobDTO, 0, len(jobs))}
	if len(jobs) > pageSize {
		jobs = jobs[:pageSize]
		last := jobs[len(jobs)-1]
		resp.NextCursor = encodeCursor(last.ScrapedAt, last.ID)
	}
	for i := range jobs {
		resp.Jobs = append(resp.Jobs, toScrapedJobDTO(&jobs[i]))
	}

	c.JSON(http.StatusOK, resp)
}

// GetRecentFailed handles GET /api/v1/admin/scraped-jobs/failed
func (h *ScrapedJobHandler) GetRecentFailed(c *gin.Context) {
	hours := 24
	if raw := c.Query("hours"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "hours must be a positive integer"})
			return
		}
		hours = parsed
	}

	since := time.Now().Add(-time.Duration(hours) * time.Hour)
	jobs, err := h.deps.Storage().GetRecentFailedScrapedJobs(c.Request.Context(), since, maxPageSize)
	if err != nil {
		errorResponse(c, err)
		return
	}

	out := make([]dto.ScrapedJobDTO, 0, len(jobs))
	for i := range jobs {
		out = append(out, toScrapedJobDTO(&jobs[i]))
	}

	c.JSON(http.StatusOK, gin.H{"jobs": out})
}

// SearchScrapedJobs handles GET /api/v1/admin/scraped-jobs/search, running
// the query against the search index with the full admin filter key set.
func (h *ScrapedJobHandler) SearchScrapedJobs(c *gin.Context) {
	params, err := filterParamsFromQuery(c, adminStringKeys)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	page, perPage := 1, defaultPageSize
	if raw := c.Query("page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			page = parsed
		}
	}
	if raw := c.Query("per_page"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= maxPageSize {
			perPage = parsed
		}
	}

	result, err := h.deps.SearchClient.Search(c.Request.Context(), search.SearchRequest{
		Q:       c.Query("q"),
		Filter:  search.BuildFilter(params),
		FacetBy: c.Query("facet_by"),
		Page:    page,
		PerPage: perPage,
	})
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// DeleteScrapedJob handles DELETE /api/v1/admin/scraped-jobs/:id. The id
// may be the internal record id or the search document id.
func (h *ScrapedJobHandler) DeleteScrapedJob(c *gin.Context) {
	if err := h.deps.Cleanup.DeleteOne(c.Request.Context(), c.Param("id")); err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// BulkDeleteScrapedJobs handles POST /api/v1/admin/scraped-jobs/bulk-delete
func (h *ScrapedJobHandler) BulkDeleteScrapedJobs(c *gin.Context) {
	var req dto.BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.IDs) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids must not be empty"})
		return
	}

	results := h.deps.Cleanup.DeleteBulk(c.Request.Context(), req.IDs)

	deleted := 0
	for _, r := range results {
		if r.Deleted {
			deleted++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"deleted": deleted,
		"failed":  len(results) - deleted,
	})
}

// NukeScrapedJobs handles POST /api/v1/admin/scraped-jobs/nuke. The typed
// confirmation string is the only thing standing between an admin and an
// empty table, so it is matched exactly.
func (h *ScrapedJobHandler) NukeScrapedJobs(c *gin.Context) {
	var req dto.NukeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Confirm != nukeConfirmation {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "confirmation text does not match, expected: " + nukeConfirmation,
		})
		return
	}

	total, err := h.deps.Cleanup.NukeAll(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": total})
}

// CacheStats handles GET /api/v1/admin/cache/stats (pipeline proxy).
func (h *ScrapedJobHandler) CacheStats(c *gin.Context) {
	stats, err := h.deps.Pipeline.GetCacheStats(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ClearCache handles POST /api/v1/admin/cache/clear (pipeline proxy).
func (h *ScrapedJobHandler) ClearCache(c *gin.Context) {
	var req pipelineclient.ClearCacheRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.ClearAll && (req.StartDate == "" || req.EndDate == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "either clear_all or a start_date/end_date range is required"})
		return
	}

	if err := h.deps.Pipeline.ClearCache(c.Request.Context(), req); err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cleared": true})
}

// FairChanceStats handles GET /api/v1/admin/fair-chance/stats (pipeline proxy).
func (h *ScrapedJobHandler) FairChanceStats(c *gin.Context) {
	stats, err := h.deps.Pipeline.GetFairChanceStats(c.Request.Context())
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// adminStringKeys is the full filterable string key set.
var adminStringKeys = []string{"source", "city", "state", "second_chance_tier", "pay_type"}

// filterParamsFromQuery collects search filters from query parameters. The
// filter builder drops unknown keys anyway; parsing errors on the known
// ones are reported.
func filterParamsFromQuery(c *gin.Context, stringKeys []string) (search.FilterParams, error) {
	params := search.FilterParams{Filters: map[string]any{}}

	for _, key := range stringKeys {
		if v := c.Query(key); v != "" {
			params.Filters[key] = v
		}
	}

	for _, key := range []string{"urgent", "easy_apply", "transit_bus", "transit_rail"} {
		if v := c.Query(key); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return params, err
			}
			params.Filters[key] = parsed
		}
	}

	params.ShiftPrefs = c.QueryArray("shift")

	if latRaw, lngRaw := c.Query("lat"), c.Query("lng"); latRaw != "" && lngRaw != "" {
		lat, err := strconv.ParseFloat(latRaw, 64)
		if err != nil {
			return params, err
		}
		lng, err := strconv.ParseFloat(lngRaw, 64)
		if err != nil {
			return params, err
		}
		radius := 10.0
		if radiusRaw := c.Query("radius_km"); radiusRaw != "" {
			radius, err = strconv.ParseFloat(radiusRaw, 64)
			if err != nil {
				return params, err
			}
		}
		params.Geo = &search.GeoFilter{Lat: lat, Lng: lng, RadiusKm: radius}
	}

	return params, nil
}

func toScrapedJobDTO(job *model.ScrapedJob) dto.ScrapedJobDTO {
	out := dto.ScrapedJobDTO{
		ID:            job.ID,
		ExternalID:    job.ExternalID,
		Source:        job.Source,
		TypesenseID:   job.TypesenseID,
		Company:       job.Company,
		Title:         job.Title,
		City:          job.City,
		State:         job.State,
		Status:        job.Status,
		ScrapedAt:     job.ScrapedAt.Format(time.RFC3339),
		FailureReason: job.FailureReason,
		FailureStage:  job.FailureStage,
		Tier:          job.SecondChanceTier,
		Score:         job.SecondChanceScore,
	}
	if job.EnrichedAt != nil {
		s := job.EnrichedAt.Format(time.RFC3339)
		out.EnrichedAt = &s
	}
	if job.IndexedAt != nil {
		s := job.IndexedAt.Format(time.RFC3339)
		out.IndexedAt = &s
	}
	return out
}
