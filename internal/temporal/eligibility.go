package temporal

import (
	"iter"
	"time"

	"github.com/univ-dsi/accessplan-api/internal/models"
)

// Activity predicates. Each entity family carries its own boundary policy,
// inherited per entity from the legacy data model. Do not unify them: the
// asymmetries decide what appears active on boundary dates.

// GrantActiveAt reports whether an accommodation grant is active at the
// instant. Both boundaries are inclusive.
func GrantActiveAt(g models.AccommodationGrant, now time.Time) bool {
	if now.Before(g.StartDate) {
		return false
	}
	return g.EndDate == nil || !now.After(*g.EndDate)
}

// PeriodActiveAt reports whether a beneficiary period is active at the
// instant. The end date is exclusive: a period ending today is already over.
func PeriodActiveAt(p models.BeneficiaryPeriod, now time.Time) bool {
	if now.Before(p.StartDate) {
		return false
	}
	return p.EndDate == nil || now.Before(*p.EndDate)
}

// RateActiveAt reports whether a rate entry applies at the instant.
// Start inclusive, end exclusive.
func RateActiveAt(r models.RateEntry, now time.Time) bool {
	if now.Before(r.StartDate) {
		return false
	}
	return r.EndDate == nil || now.Before(*r.EndDate)
}

// CampaignOpenAt reports whether a campaign accepts submissions at the
// instant. Both boundary dates are open days.
func CampaignOpenAt(c models.Campaign, now time.Time) bool {
	return !now.Before(c.StartDate) && !now.After(c.EndDate)
}

// OpinionInForceAt reports whether a health-service opinion covers the date.
// The end date is inclusive, unlike the beneficiary period it belongs to.
func OpinionInForceAt(o models.EseOpinion, at time.Time) bool {
	if at.Before(o.StartDate) {
		return false
	}
	return o.EndDate == nil || !at.After(*o.EndDate)
}

// ParameterValueCurrentAt reports whether a parameter value slice applies at
// the date. Both boundaries are exclusive; in particular a value never
// applies on its own start date.
func ParameterValueCurrentAt(v models.ParameterValue, at time.Time) bool {
	if !v.StartDate.Before(at) {
		return false
	}
	return v.EndDate == nil || at.Before(*v.EndDate)
}

// CanAttachGrant reports whether a grant may be attached to the beneficiary
// period as of now. The only refusal is a period that ended strictly before
// now: the past is not edited. The grant's own dates do not participate.
func CanAttachGrant(p models.BeneficiaryPeriod, now time.Time) bool {
	return p.EndDate == nil || !p.EndDate.Before(now)
}

// EventCompatibleWithPeriod reports whether a support event can be attributed
// to the beneficiary period. The period must fully cover the event.
func EventCompatibleWithPeriod(e models.SupportEvent, p models.BeneficiaryPeriod) bool {
	if p.StartDate.After(e.StartDate) {
		return false
	}
	if p.EndDate != nil && p.EndDate.Before(e.EndDate) {
		return false
	}
	return true
}

// ForfaitCanServePeriod reports whether a forfait window can serve the
// beneficiary period. Two asymmetric containment checks, either suffices:
// the period starts inside the forfait window, or the forfait starts inside
// the period.
func ForfaitCanServePeriod(f models.ForfaitPeriod, p models.BeneficiaryPeriod) bool {
	if !p.StartDate.Before(f.StartDate) && (f.EndDate == nil || p.StartDate.Before(*f.EndDate)) {
		return true
	}
	return !f.StartDate.Before(p.StartDate) && (p.EndDate == nil || f.StartDate.Before(*p.EndDate))
}

// SelectPeriods returns the beneficiary periods overlapping the reporting
// window, optionally restricted to periods with support.
func SelectPeriods(periods []models.BeneficiaryPeriod, ref Interval, requireSupport bool) []models.BeneficiaryPeriod {
	var out []models.BeneficiaryPeriod
	for _, p := range periods {
		if requireSupport && !p.WithSupport {
			continue
		}
		if (Interval{Start: p.StartDate, End: p.EndDate}).Overlaps(ref) {
			out = append(out, p)
		}
	}
	return out
}

// SelectGrants yields, lazily and restartably, the grants overlapping
// [from, to). The containment rule differs from Interval.Overlaps: a grant
// starting after the window opens must start before the window closes.
func SelectGrants(grants []models.AccommodationGrant, from, to time.Time) iter.Seq[models.AccommodationGrant] {
	return func(yield func(models.AccommodationGrant) bool) {
		for _, g := range grants {
			if !grantOverlaps(g, from, to) {
				continue
			}
			if !yield(g) {
				return
			}
		}
	}
}

func grantOverlaps(g models.AccommodationGrant, from, to time.Time) bool {
	if !g.StartDate.After(from) {
		return g.EndDate == nil || g.EndDate.After(from)
	}
	return !from.After(g.StartDate) && to.After(g.StartDate)
}
