// Package domain holds the status taxonomies and sentinel errors shared by the
// API handlers, storage layer, and pipeline worker.
//
// Scraped-job status graph:
//
//	scraped ──► enriched ──► indexed
//	    │           │
//	    └───────────┴──► failed
//
// "enriching" is part of the taxonomy but no code path currently produces it.
package domain

import (
	"errors"
	"fmt"
)

// Status tracks a scraped job through the enrich/index pipeline.
type Status string

const (
	StatusScraped   Status = "scraped"
	StatusEnriching Status = "enriching"
	StatusEnriched  Status = "enriched"
	StatusIndexed   Status = "indexed"
	StatusFailed    Status = "failed"
)

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusScraped, StatusEnriching, StatusEnriched, StatusIndexed, StatusFailed:
		return st, nil
	}
	return "", fmt.Errorf("unknown scraped job status %q", s)
}

// Pipeline stages, recorded on failure so triage knows where a record stalled.
const (
	StageEnrich = "enrich"
	StageIndex  = "index"
)

// Second-chance tiers classify how likely an employer is to consider
// candidates with criminal records.
const (
	TierHigh     = "high"
	TierMedium   = "medium"
	TierLow      = "low"
	TierUnlikely = "unlikely"
	TierUnknown  = "unknown"
)

// DedupKey is the cache key marking an already ingested listing.
func DedupKey(source, externalID string) string {
	return fmt.Sprintf("scraped:%s:%s", source, externalID)
}

var (
	// ErrScrapedJobNotFound is returned when a scraped job record is absent.
	ErrScrapedJobNotFound = errors.New("scraped job not found")

	// ErrDuplicateScrapedJob is returned when (external_id, source) already exists.
	ErrDuplicateScrapedJob = errors.New("scraped job already exists for external id and source")
)
