package temporal

import (
	"time"

	"github.com/univ-dsi/accessplan-api/internal/models"
)

// CurrentRate returns the rate entry applying at the instant, or nil. A
// well-formed timeline has at most one match; with overlapping entries the
// first match in slice order wins.
func CurrentRate(entries []models.RateEntry, at time.Time) *models.RateEntry {
	for i := range entries {
		if RateActiveAt(entries[i], at) {
			return &entries[i]
		}
	}
	return nil
}

// CurrentParameterValue returns the parameter value applying at the date, or
// nil. First match wins on malformed timelines, as with rates.
func CurrentParameterValue(values []models.ParameterValue, at time.Time) *models.ParameterValue {
	for i := range values {
		if ParameterValueCurrentAt(values[i], at) {
			return &values[i]
		}
	}
	return nil
}

// CurrentParameterValues returns every parameter value applying at the date.
// Some parameters deliberately hold several simultaneous values.
func CurrentParameterValues(values []models.ParameterValue, at time.Time) []models.ParameterValue {
	var out []models.ParameterValue
	for _, v := range values {
		if ParameterValueCurrentAt(v, at) {
			out = append(out, v)
		}
	}
	return out
}
