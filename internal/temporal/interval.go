// Package temporal holds the pure date-interval rules shared by the domain:
// which records are active at an instant, which records overlap a reporting
// window, and which timeline entry is current. Every function takes its
// reference instant explicitly; nothing in this package reads the clock.
package temporal

import (
	"time"

	appErrors "github.com/univ-dsi/accessplan-api/pkg/errors"
)

// Interval is a date interval with an optional open end. A nil End means the
// interval extends into the unbounded future.
type Interval struct {
	Start time.Time
	End   *time.Time
}

// New builds an interval, rejecting an end that precedes the start. Inverted
// intervals have no defined semantics anywhere in the domain.
func New(start time.Time, end *time.Time) (Interval, error) {
	if end != nil && end.Before(start) {
		return Interval{}, appErrors.Clone(appErrors.ErrInvalidInterval, "")
	}
	return Interval{Start: start, End: end}, nil
}

// Contains implements the default half-open convention: the start instant
// belongs to the interval, the end instant does not. Entity-specific
// predicates in this package override this rule where the legacy data model
// deviates from it.
func (i Interval) Contains(at time.Time) bool {
	if at.Before(i.Start) {
		return false
	}
	return i.End == nil || at.Before(*i.End)
}

// Overlaps reports the symmetric overlap used to match records against a
// reporting window. The rule is reproduced from the legacy system verbatim:
// the window's end bound does not participate when the record starts after
// the window does, and a nil record end counts as unbounded.
func (i Interval) Overlaps(ref Interval) bool {
	if !i.Start.After(ref.Start) {
		return i.End == nil || i.End.After(ref.Start)
	}
	return i.End == nil || ref.Start.Before(*i.End)
}
