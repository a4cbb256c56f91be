package worker

import (
	"github.com/fairchancejobs/jobboard-be/internal/api/model"
)

// buildDocument flattens a fully enriched record into the search document
// shape. Optional columns are omitted rather than sent as nulls; the
// filterable booleans always carry a value so filter expressions match.
func buildDocument(docID string, job *model.ScrapedJob) map[string]any {
	doc := map[string]any{
		"id":          docID,
		"job_id":      job.ID,
		"external_id": job.ExternalID,
		"source":      job.Source,
		"company":     job.Company,
		"title":       job.Title,
		"description": job.Description,
		"url":         job.URL,
		"urgent":      job.Urgent,
		"easy_apply":  job.EasyApply,
		"scraped_at":  job.ScrapedAt.Unix(),

		"shift_morning":   boolValue(job.ShiftMorning),
		"shift_afternoon": boolValue(job.ShiftAfternoon),
		"shift_evening":   boolValue(job.ShiftEvening),
		"shift_overnight": boolValue(job.ShiftOvernight),
		"shift_weekend":   boolValue(job.ShiftWeekend),
		"transit_bus":     boolValue(job.TransitBus),
		"transit_rail":    boolValue(job.TransitRail),
	}

	if job.City != nil {
		doc["city"] = *job.City
	}
	if job.State != nil {
		doc["state"] = *job.State
	}
	if job.Lat != nil && job.Lng != nil {
		doc["location"] = []float64{*job.Lat, *job.Lng}
	}
	if job.PayMin != nil {
		doc["pay_min"] = *job.PayMin
	}
	if job.PayMax != nil {
		doc["pay_max"] = *job.PayMax
	}
	if job.PayType != nil {
		doc["pay_type"] = *job.PayType
	}
	if job.PostedAt != nil {
		doc["posted_at"] = job.PostedAt.Unix()
	}
	if job.TransitScore != nil {
		doc["transit_score"] = *job.TransitScore
	}
	if job.SecondChanceTier != nil {
		doc["second_chance_tier"] = *job.SecondChanceTier
	}
	if job.SecondChanceScore != nil {
		doc["second_chance_score"] = *job.SecondChanceScore
	}

	return doc
}

func boolValue(b *bool) bool {
	return b != nil && *b
}
