package worker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairchancejobs/jobboard-be/internal/api/model"
	"github.com/fairchancejobs/jobboard-be/internal/enrich"
	"github.com/fairchancejobs/jobboard-be/internal/worker/domain"
)

func ptr[T any](v T) *T { return &v }

func TestBuildDocument(t *testing.T) {
	postedAt := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	job := &model.ScrapedJob{
		ID:           "sj-1",
		ExternalID:   "ext-100",
		Source:       "snagajob",
		Company:      "Acme Logistics",
		Title:        "Warehouse Associate",
		Description:  "Night shift loading",
		URL:          "https://example.com/j/1",
		City:         ptr("Portland"),
		State:        ptr("OR"),
		Lat:          ptr(45.52),
		Lng:          ptr(-122.68),
		PayMin:       ptr(18.0),
		PayType:      ptr("hourly"),
		Urgent:       true,
		PostedAt:     &postedAt,
		ScrapedAt:    postedAt,
		TransitScore: ptr(80),
		TransitBus:   ptr(true),

		ShiftOvernight:    ptr(true),
		SecondChanceTier:  ptr("high"),
		SecondChanceScore: ptr(0.9),
	}

	doc := buildDocument("ts-abc", job)

	assert.Equal(t, "ts-abc", doc["id"])
	assert.Equal(t, "sj-1", doc["job_id"])
	assert.Equal(t, []float64{45.52, -122.68}, doc["location"])
	assert.Equal(t, postedAt.Unix(), doc["posted_at"])
	assert.Equal(t, 80, doc["transit_score"])
	assert.Equal(t, true, doc["transit_bus"])
	assert.Equal(t, false, doc["transit_rail"])
	assert.Equal(t, true, doc["shift_overnight"])
	assert.Equal(t, false, doc["shift_morning"])
	assert.Equal(t, "high", doc["second_chance_tier"])

	// Absent optionals stay out of the document entirely.
	_, hasPayMax := doc["pay_max"]
	assert.False(t, hasPayMax)
}

func TestBuildDocumentNoCoordinates(t *testing.T) {
	job := &model.ScrapedJob{
		ID:         "sj-2",
		ExternalID: "ext-101",
		Source:     "craigslist",
		Company:    "Acme",
		Title:      "Dishwasher",
		ScrapedAt:  time.Now(),
	}

	doc := buildDocument("ts-def", job)

	_, hasLocation := doc["location"]
	assert.False(t, hasLocation)
}

func TestEnrichJobComputesAllSignals(t *testing.T) {
	w := &Worker{
		transitStops: []enrich.TransitStop{
			{Name: "Central Station", Lat: 45.52, Lng: -122.68, Rail: true},
		},
	}

	job := &model.ScrapedJob{
		ID:          "sj-1",
		Company:     "Acme Logistics",
		Title:       "Overnight Warehouse Associate",
		Description: "Weekend availability required. Background-friendly employer.",
		Lat:         ptr(45.521),
		Lng:         ptr(-122.681),
	}

	e := w.enrichJob(job)

	assert.True(t, e.ShiftOvernight)
	assert.True(t, e.ShiftWeekend)
	assert.NotEmpty(t, e.SecondChanceTier)
	require.NotNil(t, e.TransitScore)
	assert.Greater(t, *e.TransitScore, 0)
	require.NotNil(t, e.TransitRail)
	assert.True(t, *e.TransitRail)
}

func TestEnrichJobWithoutCoordinatesSkipsTransit(t *testing.T) {
	w := &Worker{
		transitStops: []enrich.TransitStop{
			{Name: "Central Station", Lat: 45.52, Lng: -122.68},
		},
	}

	e := w.enrichJob(&model.ScrapedJob{ID: "sj-1", Company: "Acme", Title: "Cook"})

	assert.Nil(t, e.TransitScore)
	assert.Nil(t, e.TransitBus)
}

func TestShouldRequeue(t *testing.T) {
	assert.False(t, shouldRequeue(domain.ErrJobGone))
	assert.False(t, shouldRequeue(errors.New("index stage failed")))
	assert.True(t, shouldRequeue(domain.NewRetryableError(errors.New("db timeout"))))
}
