package temporal

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univ-dsi/accessplan-api/internal/models"
)

func TestCurrentRateWellFormedTimeline(t *testing.T) {
	entries := []models.RateEntry{
		{ID: "old", Amount: decimal.NewFromFloat(11.50), StartDate: date(2023, 1, 1), EndDate: datePtr(date(2024, 1, 1))},
		{ID: "current", Amount: decimal.NewFromFloat(12.20), StartDate: date(2024, 1, 1)},
	}

	got := CurrentRate(entries, date(2024, 3, 1))
	require.NotNil(t, got)
	assert.Equal(t, "current", got.ID)

	// On the slice boundary the older entry is already closed (end
	// exclusive) and the newer one applies (start inclusive).
	got = CurrentRate(entries, date(2024, 1, 1))
	require.NotNil(t, got)
	assert.Equal(t, "current", got.ID)

	assert.Nil(t, CurrentRate(entries, date(2022, 6, 1)))
}

// Overlapping timelines are a data fault the resolver does not repair:
// the first matching entry in slice order wins. This test documents the
// behaviour rather than endorsing it.
func TestCurrentRateOverlappingTimelineFirstMatchWins(t *testing.T) {
	entries := []models.RateEntry{
		{ID: "a", StartDate: date(2024, 1, 1)},
		{ID: "b", StartDate: date(2024, 1, 1)},
	}

	got := CurrentRate(entries, date(2024, 6, 1))
	require.NotNil(t, got)
	assert.Equal(t, "a", got.ID)
}

func TestCurrentParameterValueSkipsStartDate(t *testing.T) {
	values := []models.ParameterValue{
		{ID: "v1", Value: "30", StartDate: date(2024, 1, 1), EndDate: datePtr(date(2024, 7, 1))},
		{ID: "v2", Value: "45", StartDate: date(2024, 7, 1)},
	}

	// Start is exclusive for parameter values: on v2's start date neither
	// slice applies (v1 closed, v2 not yet open).
	assert.Nil(t, CurrentParameterValue(values, date(2024, 7, 1)))

	got := CurrentParameterValue(values, date(2024, 7, 2))
	require.NotNil(t, got)
	assert.Equal(t, "v2", got.ID)
}

func TestCurrentParameterValuesReturnsAllMatches(t *testing.T) {
	values := []models.ParameterValue{
		{ID: "a", StartDate: date(2024, 1, 1)},
		{ID: "b", StartDate: date(2024, 2, 1)},
		{ID: "c", StartDate: date(2024, 1, 1), EndDate: datePtr(date(2024, 2, 1))},
	}

	matches := CurrentParameterValues(values, date(2024, 3, 1))
	require.Len(t, matches, 2)
	assert.Equal(t, "a", matches[0].ID)
	assert.Equal(t, "b", matches[1].ID)
}
