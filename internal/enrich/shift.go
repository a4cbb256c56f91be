// Package enrich derives the transit, shift, and second-chance signals
// attached to scraped jobs before they are indexed.
package enrich

import "strings"

// ShiftSignals are the inferred shift windows for a posting.
type ShiftSignals struct {
	Morning   bool
	Afternoon bool
	Evening   bool
	Overnight bool
	Weekend   bool

	// Source records how the inference was made, e.g. "keyword:title".
	Source string
}

var shiftKeywords = map[string][]string{
	"morning":   {"morning shift", "early shift", "am shift", "opener", "opening shift", "breakfast shift", "first shift", "day shift"},
	"afternoon": {"afternoon shift", "mid shift", "second shift", "swing shift", "lunch shift"},
	"evening":   {"evening shift", "night shift", "closer", "closing shift", "pm shift", "dinner shift"},
	"overnight": {"overnight", "graveyard", "third shift", "3rd shift", "late night"},
	"weekend":   {"weekend", "saturday", "sunday", "weekends required", "weekend availability"},
}

// InferShifts scans the title and description for shift-window keywords.
// When nothing matches, all windows stay false and Source is empty.
func InferShifts(title, description string) ShiftSignals {
	titleLower := strings.ToLower(title)
	descLower := strings.ToLower(description)

	var s ShiftSignals
	var sources []string

	match := func(window string) bool {
		for _, kw := range shiftKeywords[window] {
			if strings.Contains(titleLower, kw) {
				sources = append(sources, "keyword:title")
				return true
			}
			if strings.Contains(descLower, kw) {
				sources = append(sources, "keyword:description")
				return true
			}
		}
		return false
	}

	s.Morning = match("morning")
	s.Afternoon = match("afternoon")
	s.Evening = match("evening")
	s.Overnight = match("overnight")
	s.Weekend = match("weekend")

	if len(sources) > 0 {
		// Title matches outrank description matches in the provenance string.
		s.Source = sources[0]
		for _, src := range sources {
			if src == "keyword:title" {
				s.Source = src
				break
			}
		}
	}

	return s
}
