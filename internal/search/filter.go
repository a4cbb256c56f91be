package search

import (
	"fmt"
	"sort"
	"strings"
)

// Filter-expression keys accepted from callers. Anything else is silently
// dropped, which keeps less-trusted callers from smuggling operators into the
// filter string.
var allowedStringKeys = map[string]bool{
	"source":             true,
	"city":               true,
	"state":              true,
	"second_chance_tier": true,
	"pay_type":           true,
}

var allowedBoolKeys = map[string]bool{
	"urgent":          true,
	"easy_apply":      true,
	"transit_bus":     true,
	"transit_rail":    true,
	"shift_morning":   true,
	"shift_afternoon": true,
	"shift_evening":   true,
	"shift_overnight": true,
	"shift_weekend":   true,
}

// shiftFields maps seeker-facing shift preference names to index fields.
var shiftFields = map[string]string{
	"morning":   "shift_morning",
	"afternoon": "shift_afternoon",
	"evening":   "shift_evening",
	"overnight": "shift_overnight",
	"weekend":   "shift_weekend",
}

// sanitizeCutset is the set of characters with syntactic meaning in the
// filter language, stripped from string values before embedding.
const sanitizeCutset = "`\\:=<>|&()[]"

// GeoFilter restricts results to a radius around a point and switches the
// sort order to distance ascending.
type GeoFilter struct {
	Lat      float64
	Lng      float64
	RadiusKm float64
}

// FilterParams is the structured filter input for a search call.
type FilterParams struct {
	// Filters holds allow-listed key/value pairs. String values are
	// sanitized; bool values render as key:=true / key:=false.
	Filters map[string]any

	// ShiftPrefs are OR-ed within their own group: a seeker who accepts
	// morning OR evening shifts wants the union of matches.
	ShiftPrefs []string

	Geo *GeoFilter
}

// FilterQuery is the rendered filter expression plus sort clause. An empty
// FilterString means "no filtering" rather than an always-false expression.
type FilterQuery struct {
	FilterString string
	SortClause   string
}

// defaultSort ranks by text relevance when no geo filter is active.
const defaultSort = "_text_match:desc"

// BuildFilter translates structured filter input into the search engine's
// filter-expression string.
func BuildFilter(p FilterParams) FilterQuery {
	var clauses []string

	keys := make([]string, 0, len(p.Filters))
	for k := range p.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		v := p.Filters[k]
		switch {
		case allowedBoolKeys[k]:
			if b, ok := v.(bool); ok {
				clauses = append(clauses, fmt.Sprintf("%s:=%t", k, b))
			}
		case allowedStringKeys[k]:
			s, ok := v.(string)
			if !ok {
				continue
			}
			s = sanitizeValue(s)
			if s == "" {
				// Sanitization emptied the value; dropping the clause beats
				// emitting a malformed one.
				continue
			}
			clauses = append(clauses, fmt.Sprintf("%s:=%s", k, s))
		}
	}

	if group := buildShiftGroup(p.ShiftPrefs); group != "" {
		clauses = append(clauses, group)
	}

	sortClause := defaultSort
	if p.Geo != nil {
		clauses = append(clauses, fmt.Sprintf("location:(%f, %f, %.1f km)", p.Geo.Lat, p.Geo.Lng, p.Geo.RadiusKm))
		sortClause = fmt.Sprintf("location(%f, %f):asc", p.Geo.Lat, p.Geo.Lng)
	}

	return FilterQuery{
		FilterString: strings.Join(clauses, " && "),
		SortClause:   sortClause,
	}
}

// buildShiftGroup renders shift preferences as an OR group, AND-ed against
// everything else by the caller.
func buildShiftGroup(prefs []string) string {
	var parts []string
	for _, pref := range prefs {
		field, ok := shiftFields[strings.ToLower(strings.TrimSpace(pref))]
		if !ok {
			continue
		}
		parts = append(parts, field+":=true")
	}

	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	default:
		return "(" + strings.Join(parts, " || ") + ")"
	}
}

// sanitizeValue strips filter-language metacharacters and trims whitespace.
func sanitizeValue(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if strings.ContainsRune(sanitizeCutset, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
