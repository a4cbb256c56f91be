package dto

import "time"

// IngestJobRequest is the payload the external scraper posts for one listing.
type IngestJobRequest struct {
	ExternalID  string     `json:"external_id" binding:"required"`
	Source      string     `json:"source" binding:"required"`
	Company     string     `json:"company" binding:"required"`
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	City        *string    `json:"city"`
	State       *string    `json:"state"`
	Lat         *float64   `json:"lat"`
	Lng         *float64   `json:"lng"`
	PayMin      *float64   `json:"pay_min"`
	PayMax      *float64   `json:"pay_max"`
	PayType     *string    `json:"pay_type"`
	Urgent      bool       `json:"urgent"`
	EasyApply   bool       `json:"easy_apply"`
	ONETCode    *string    `json:"onet_code"`
	PostedAt    *time.Time `json:"posted_at"`
}

// IngestJobResponse reports the outcome of one ingest call.
type IngestJobResponse struct {
	ID        string `json:"id,omitempty"`
	Status    string `json:"status,omitempty"`
	Duplicate bool   `json:"duplicate"`
}

// ListScrapedJobsRequest filters the admin scraped-jobs listing.
type ListScrapedJobsRequest struct {
	Status   string `form:"status"`
	Source   string `form:"source"`
	PageSize int    `form:"page_size"`
	Cursor   string `form:"cursor"`
}

// ScrapedJobDTO is the admin-facing view of a scraped job record.
type ScrapedJobDTO struct {
	ID            string   `json:"id"`
	ExternalID    string   `json:"external_id"`
	Source        string   `json:"source"`
	TypesenseID   *string  `json:"typesense_id,omitempty"`
	Company       string   `json:"company"`
	Title         string   `json:"title"`
	City          *string  `json:"city,omitempty"`
	State         *string  `json:"state,omitempty"`
	Status        string   `json:"status"`
	ScrapedAt     string   `json:"scraped_at"`
	EnrichedAt    *string  `json:"enriched_at,omitempty"`
	IndexedAt     *string  `json:"indexed_at,omitempty"`
	FailureReason *string  `json:"failure_reason,omitempty"`
	FailureStage  *string  `json:"failure_stage,omitempty"`
	Tier          *string  `json:"second_chance_tier,omitempty"`
	Score         *float64 `json:"second_chance_score,omitempty"`
}

// ListScrapedJobsResponse pages the admin listing.
type ListScrapedJobsResponse struct {
	Jobs       []ScrapedJobDTO `json:"jobs"`
	NextCursor string          `json:"next_cursor,omitempty"`
}

// BulkDeleteRequest asks for deletion of a batch of scraped jobs.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required"`
}

// NukeRequest must carry the typed confirmation string.
type NukeRequest struct {
	Confirm string `json:"confirm" binding:"required"`
}
