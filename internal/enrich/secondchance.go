package enrich

import (
	"fmt"
	"strings"

	"github.com/fairchancejobs/jobboard-be/internal/api/domain"
)

// SecondChanceSignals classifies how likely an employer is to consider
// candidates with criminal records.
type SecondChanceSignals struct {
	Tier       string
	Score      float64
	Confidence float64
	Signals    []string
	Reasoning  string
}

// knownFairChanceEmployers have publicly committed to fair-chance hiring.
// Matching is case-insensitive on a normalized employer name.
var knownFairChanceEmployers = map[string]bool{
	"dave's killer bread":  true,
	"greyston bakery":      true,
	"checkr":               true,
	"total wine":           true,
	"hot chicken takeover": true,
	"televerde":            true,
	"the body shop":        true,
	"ben & jerry's":        true,
	"homeboy industries":   true,
}

// onetPrefixScores maps O*NET major-group prefixes to a base likelihood that
// the occupation hires fair-chance candidates. High-clearance and licensed
// occupations score low.
var onetPrefixScores = map[string]float64{
	"35": 0.7, // food preparation and serving
	"37": 0.7, // building and grounds cleaning
	"47": 0.75, // construction
	"49": 0.6, // installation and repair
	"51": 0.7, // production
	"53": 0.65, // transportation and material moving
	"33": 0.1, // protective service
	"25": 0.15, // education
	"29": 0.15, // healthcare practitioners
	"23": 0.05, // legal
	"13": 0.25, // business and financial
}

var positivePhrases = []string{
	"fair chance",
	"second chance",
	"felony friendly",
	"felons welcome",
	"background check not required",
	"no background check",
	"we believe in second chances",
	"ban the box",
	"justice-involved",
	"all backgrounds welcome",
}

var negativePhrases = []string{
	"clean background check",
	"must pass background check",
	"no felonies",
	"no criminal record",
	"security clearance",
	"clean criminal history",
	"background check required",
}

// ScoreSecondChance combines employer-name matching, occupation
// classification, and posting-text analysis into a tier. onetCode may be
// empty when the occupation is unclassified.
func ScoreSecondChance(company, title, description, onetCode string) SecondChanceSignals {
	var (
		signals []string
		score   = 0.5
		weight  = 0.0
	)

	companyNorm := strings.ToLower(strings.TrimSpace(company))
	if knownFairChanceEmployers[companyNorm] {
		signals = append(signals, "known_fair_chance_employer")
		score = 0.95
		weight += 0.6
	}

	if len(onetCode) >= 2 {
		if base, ok := onetPrefixScores[onetCode[:2]]; ok {
			signals = append(signals, fmt.Sprintf("onet_prefix:%s", onetCode[:2]))
			score = blend(score, weight, base, 0.2)
			weight += 0.2
		}
	}

	text := strings.ToLower(title + " " + description)
	for _, phrase := range positivePhrases {
		if strings.Contains(text, phrase) {
			signals = append(signals, "positive_phrase:"+phrase)
			score = blend(score, weight, 0.9, 0.3)
			weight += 0.3
			break
		}
	}
	for _, phrase := range negativePhrases {
		if strings.Contains(text, phrase) {
			signals = append(signals, "negative_phrase:"+phrase)
			score = blend(score, weight, 0.05, 0.4)
			weight += 0.4
			break
		}
	}

	tier := tierFor(score, weight)

	confidence := weight
	if confidence > 1 {
		confidence = 1
	}

	return SecondChanceSignals{
		Tier:       tier,
		Score:      score,
		Confidence: confidence,
		Signals:    signals,
		Reasoning:  reasoningFor(tier, signals),
	}
}

// blend folds a new signal into the running score, weighted against what has
// accumulated so far.
func blend(current, currentWeight, value, valueWeight float64) float64 {
	if currentWeight == 0 {
		return value
	}
	return (current*currentWeight + value*valueWeight) / (currentWeight + valueWeight)
}

func tierFor(score, weight float64) string {
	if weight == 0 {
		return domain.TierUnknown
	}
	switch {
	case score >= 0.75:
		return domain.TierHigh
	case score >= 0.5:
		return domain.TierMedium
	case score >= 0.25:
		return domain.TierLow
	default:
		return domain.TierUnlikely
	}
}

func reasoningFor(tier string, signals []string) string {
	if len(signals) == 0 {
		return "no fair-chance signals found"
	}
	return fmt.Sprintf("tier %s from signals: %s", tier, strings.Join(signals, ", "))
}
