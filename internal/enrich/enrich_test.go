package enrich

import (
	"testing"

	"github.com/fairchancejobs/jobboard-be/internal/api/domain"
	"github.com/stretchr/testify/assert"
)

func TestInferShifts(t *testing.T) {
	tests := []struct {
		name       string
		title      string
		desc       string
		want       ShiftSignals
		wantSource string
	}{
		{
			name:       "morning in title",
			title:      "Barista - Morning Shift",
			desc:       "Serve coffee.",
			want:       ShiftSignals{Morning: true},
			wantSource: "keyword:title",
		},
		{
			name:       "evening and weekend in description",
			title:      "Line Cook",
			desc:       "Night shift role, weekend availability required.",
			want:       ShiftSignals{Evening: true, Weekend: true},
			wantSource: "keyword:description",
		},
		{
			name:       "overnight",
			title:      "Warehouse Associate (3rd shift)",
			desc:       "",
			want:       ShiftSignals{Overnight: true},
			wantSource: "keyword:title",
		},
		{
			name:  "no signal",
			title: "Accountant",
			desc:  "Prepare ledgers.",
			want:  ShiftSignals{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InferShifts(tt.title, tt.desc)
			assert.Equal(t, tt.want.Morning, got.Morning)
			assert.Equal(t, tt.want.Afternoon, got.Afternoon)
			assert.Equal(t, tt.want.Evening, got.Evening)
			assert.Equal(t, tt.want.Overnight, got.Overnight)
			assert.Equal(t, tt.want.Weekend, got.Weekend)
			assert.Equal(t, tt.wantSource, got.Source)
		})
	}
}

func TestScoreSecondChance_KnownEmployer(t *testing.T) {
	got := ScoreSecondChance("Dave's Killer Bread", "Production Associate", "Bake bread.", "")

	assert.Equal(t, domain.TierHigh, got.Tier)
	assert.Contains(t, got.Signals, "known_fair_chance_employer")
	assert.Greater(t, got.Score, 0.75)
	assert.Greater(t, got.Confidence, 0.0)
}

func TestScoreSecondChance_PositivePhrase(t *testing.T) {
	got := ScoreSecondChance("Acme Logistics", "Warehouse Worker",
		"We are a fair chance employer and welcome all applicants.", "53-7062")

	assert.Equal(t, domain.TierHigh, got.Tier)
	assert.Contains(t, got.Signals, "onet_prefix:53")
	assert.Contains(t, got.Signals, "positive_phrase:fair chance")
}

func TestScoreSecondChance_NegativePhrase(t *testing.T) {
	got := ScoreSecondChance("Acme Security", "Guard",
		"Must pass background check. Security clearance preferred.", "33-9032")

	assert.Equal(t, domain.TierUnlikely, got.Tier)
}

func TestScoreSecondChance_NoSignals(t *testing.T) {
	got := ScoreSecondChance("Some Company", "Widget Handler", "Handle widgets.", "")

	assert.Equal(t, domain.TierUnknown, got.Tier)
	assert.Empty(t, got.Signals)
	assert.Equal(t, 0.0, got.Confidence)
	assert.Equal(t, "no fair-chance signals found", got.Reasoning)
}

func TestScoreTransit(t *testing.T) {
	stops := []TransitStop{
		{Name: "12th St Station", Lat: 37.8037, Lng: -122.2715, Rail: true},
		{Name: "Broadway & 14th", Lat: 37.8049, Lng: -122.2708, Rail: false},
	}

	// Job right next to the rail station
	got, ok := ScoreTransit(37.8038, -122.2716, stops)
	assert.True(t, ok)
	assert.Equal(t, 100, got.Score)
	assert.True(t, got.Rail)
	assert.False(t, got.Bus)
	assert.Less(t, got.DistanceM, 100.0)

	// Job far from everything
	got, ok = ScoreTransit(38.5, -121.5, stops)
	assert.True(t, ok)
	assert.Equal(t, 0, got.Score)

	// No stops configured
	_, ok = ScoreTransit(37.8, -122.27, nil)
	assert.False(t, ok)
}
