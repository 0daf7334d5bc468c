package temporal

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/univ-dsi/accessplan-api/internal/models"
)

func TestGrantActiveAtBothBoundsInclusive(t *testing.T) {
	g := models.AccommodationGrant{StartDate: date(2024, 9, 1), EndDate: datePtr(date(2025, 6, 30))}

	assert.False(t, GrantActiveAt(g, date(2024, 8, 31)))
	assert.True(t, GrantActiveAt(g, date(2024, 9, 1)))
	assert.True(t, GrantActiveAt(g, date(2025, 6, 30)), "grant end date is inclusive")
	assert.False(t, GrantActiveAt(g, date(2025, 7, 1)))
}

func TestGrantActiveAtOpenEnded(t *testing.T) {
	g := models.AccommodationGrant{StartDate: date(2024, 9, 1)}
	assert.True(t, GrantActiveAt(g, date(2030, 1, 1)))
}

func TestPeriodActiveAtEndExclusive(t *testing.T) {
	p := models.BeneficiaryPeriod{StartDate: date(2024, 9, 1), EndDate: datePtr(date(2025, 6, 30))}

	assert.True(t, PeriodActiveAt(p, date(2024, 9, 1)))
	assert.True(t, PeriodActiveAt(p, date(2025, 6, 29)))
	assert.False(t, PeriodActiveAt(p, date(2025, 6, 30)), "period end date is exclusive")
}

// The grant and period rules genuinely diverge on the boundary instant; an
// accidental unification of the two predicates would flip one of these.
func TestGrantAndPeriodDivergeOnSharedEndDate(t *testing.T) {
	end := date(2025, 6, 30)
	g := models.AccommodationGrant{StartDate: date(2024, 9, 1), EndDate: &end}
	p := models.BeneficiaryPeriod{StartDate: date(2024, 9, 1), EndDate: &end}

	assert.True(t, GrantActiveAt(g, end))
	assert.False(t, PeriodActiveAt(p, end))
}

func TestRateActiveAtEndExclusive(t *testing.T) {
	r := models.RateEntry{StartDate: date(2024, 1, 1), EndDate: datePtr(date(2024, 7, 1))}

	assert.True(t, RateActiveAt(r, date(2024, 1, 1)))
	assert.False(t, RateActiveAt(r, date(2024, 7, 1)))
	assert.False(t, RateActiveAt(r, date(2023, 12, 31)))
}

func TestCampaignOpenAtBothBoundsInclusive(t *testing.T) {
	c := models.Campaign{StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 31)}

	assert.True(t, CampaignOpenAt(c, date(2024, 1, 1)))
	assert.True(t, CampaignOpenAt(c, time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)))
	assert.False(t, CampaignOpenAt(c, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestOpinionInForceAtEndInclusive(t *testing.T) {
	o := models.EseOpinion{StartDate: date(2024, 9, 1), EndDate: datePtr(date(2025, 6, 30))}

	assert.True(t, OpinionInForceAt(o, date(2025, 6, 30)))
	assert.False(t, OpinionInForceAt(o, date(2025, 7, 1)))
	assert.False(t, OpinionInForceAt(o, date(2024, 8, 31)))
}

func TestParameterValueCurrentAtBothBoundsExclusive(t *testing.T) {
	v := models.ParameterValue{StartDate: date(2024, 1, 1), EndDate: datePtr(date(2024, 7, 1))}

	assert.False(t, ParameterValueCurrentAt(v, date(2024, 1, 1)), "start date is exclusive")
	assert.True(t, ParameterValueCurrentAt(v, date(2024, 1, 2)))
	assert.False(t, ParameterValueCurrentAt(v, date(2024, 7, 1)))
}

func TestCanAttachGrantIgnoresGrantDates(t *testing.T) {
	now := date(2024, 6, 1)

	running := models.BeneficiaryPeriod{StartDate: date(2023, 9, 1)}
	assert.True(t, CanAttachGrant(running, now))

	ended := models.BeneficiaryPeriod{StartDate: date(2022, 9, 1), EndDate: datePtr(date(2023, 6, 30))}
	assert.False(t, CanAttachGrant(ended, now))

	endingToday := models.BeneficiaryPeriod{StartDate: date(2023, 9, 1), EndDate: datePtr(now)}
	assert.True(t, CanAttachGrant(endingToday, now), "period ending exactly now is not in the past")
}

// Scenario: period 2024-09-01..2025-06-30, open-ended grant, evaluated on
// the period's end date. The grant is active, the period is not, and the
// attachment is still allowed because the period did not end strictly
// before the evaluation instant.
func TestAttachmentOnPeriodEndDate(t *testing.T) {
	at := date(2025, 6, 30)
	p := models.BeneficiaryPeriod{StartDate: date(2024, 9, 1), EndDate: datePtr(at)}
	g := models.AccommodationGrant{StartDate: date(2024, 9, 1)}

	assert.True(t, GrantActiveAt(g, at))
	assert.False(t, PeriodActiveAt(p, at))
	assert.True(t, CanAttachGrant(p, at))
}

func TestEventCompatibleWithPeriod(t *testing.T) {
	p := models.BeneficiaryPeriod{StartDate: date(2024, 9, 1), EndDate: datePtr(date(2025, 6, 30))}

	covered := models.SupportEvent{StartDate: date(2024, 10, 1), EndDate: date(2024, 10, 1)}
	assert.True(t, EventCompatibleWithPeriod(covered, p))

	startsBefore := models.SupportEvent{StartDate: date(2024, 8, 15), EndDate: date(2024, 8, 15)}
	assert.False(t, EventCompatibleWithPeriod(startsBefore, p))

	endsAfter := models.SupportEvent{StartDate: date(2025, 6, 1), EndDate: date(2025, 7, 15)}
	assert.False(t, EventCompatibleWithPeriod(endsAfter, p))

	openPeriod := models.BeneficiaryPeriod{StartDate: date(2024, 9, 1)}
	assert.True(t, EventCompatibleWithPeriod(endsAfter, openPeriod))
}

func TestForfaitCanServePeriod(t *testing.T) {
	forfait := models.ForfaitPeriod{StartDate: date(2024, 9, 1), EndDate: datePtr(date(2025, 1, 1))}

	// Period starts inside the forfait window.
	inside := models.BeneficiaryPeriod{StartDate: date(2024, 10, 1), EndDate: datePtr(date(2025, 6, 30))}
	assert.True(t, ForfaitCanServePeriod(forfait, inside))

	// Forfait starts inside the period.
	early := models.BeneficiaryPeriod{StartDate: date(2024, 1, 1), EndDate: datePtr(date(2024, 10, 1))}
	assert.True(t, ForfaitCanServePeriod(forfait, early))

	// Disjoint: the period ended before the forfait started.
	past := models.BeneficiaryPeriod{StartDate: date(2023, 9, 1), EndDate: datePtr(date(2024, 6, 30))}
	assert.False(t, ForfaitCanServePeriod(forfait, past))

	// Period starting exactly on the forfait end: end is exclusive.
	boundary := models.BeneficiaryPeriod{StartDate: date(2025, 1, 1), EndDate: datePtr(date(2025, 6, 30))}
	assert.False(t, ForfaitCanServePeriod(forfait, boundary))
}

func TestSelectPeriodsFiltersSupport(t *testing.T) {
	window := Interval{Start: date(2024, 9, 1), End: datePtr(date(2025, 6, 30))}
	periods := []models.BeneficiaryPeriod{
		{ID: "with", StartDate: date(2024, 1, 1), WithSupport: true},
		{ID: "without", StartDate: date(2024, 1, 1), WithSupport: false},
		{ID: "ended", StartDate: date(2023, 1, 1), EndDate: datePtr(date(2024, 6, 30)), WithSupport: true},
	}

	selected := SelectPeriods(periods, window, true)
	assert.Len(t, selected, 1)
	assert.Equal(t, "with", selected[0].ID)

	all := SelectPeriods(periods, window, false)
	assert.Len(t, all, 2)
}

func TestSelectGrantsIsLazyAndRestartable(t *testing.T) {
	grants := []models.AccommodationGrant{
		{ID: "before", StartDate: date(2023, 1, 1), EndDate: datePtr(date(2024, 6, 30))},
		{ID: "spanning", StartDate: date(2024, 1, 1)},
		{ID: "inside", StartDate: date(2024, 10, 1), EndDate: datePtr(date(2024, 12, 1))},
		{ID: "after", StartDate: date(2025, 9, 1)},
	}

	seq := SelectGrants(grants, date(2024, 9, 1), date(2025, 6, 30))

	var ids []string
	for g := range seq {
		ids = append(ids, g.ID)
	}
	assert.Equal(t, []string{"spanning", "inside"}, ids)

	// Restartable: a second pass over the same sequence yields again.
	var count int
	for range seq {
		count++
		break // early termination must not poison later iterations
	}
	assert.Equal(t, 1, count)

	count = 0
	for range seq {
		count++
	}
	assert.Equal(t, 2, count)
}
