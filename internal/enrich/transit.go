package enrich

import "math"

// TransitStop is one known stop checked for proximity.
type TransitStop struct {
	Name string
	Lat  float64
	Lng  float64
	Rail bool
}

// TransitSignals describe how reachable a job site is without a car.
type TransitSignals struct {
	Score     int // 0-100
	DistanceM float64
	Bus       bool
	Rail      bool
}

const earthRadiusM = 6371000.0

// Distance bands for the transit score.
const (
	walkableM  = 400.0
	nearM      = 800.0
	reachableM = 1600.0
)

// ScoreTransit finds the nearest configured stop and derives a score from
// walking distance. Returns ok=false when no stops are configured, leaving
// the record's transit fields unset.
func ScoreTransit(lat, lng float64, stops []TransitStop) (TransitSignals, bool) {
	if len(stops) == 0 {
		return TransitSignals{}, false
	}

	var (
		nearest     TransitStop
		nearestDist = math.MaxFloat64
	)
	for _, stop := range stops {
		d := haversineM(lat, lng, stop.Lat, stop.Lng)
		if d < nearestDist {
			nearestDist = d
			nearest = stop
		}
	}

	var score int
	switch {
	case nearestDist <= walkableM:
		score = 100
	case nearestDist <= nearM:
		score = 75
	case nearestDist <= reachableM:
		score = 50
	case nearestDist <= 2*reachableM:
		score = 25
	default:
		score = 0
	}

	return TransitSignals{
		Score:     score,
		DistanceM: nearestDist,
		Bus:       !nearest.Rail,
		Rail:      nearest.Rail,
	}, true
}

// haversineM returns the great-circle distance between two points in meters.
func haversineM(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)

	return 2 * earthRadiusM * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}
