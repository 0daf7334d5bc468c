// Package workflow records accommodation-request lifecycle transitions.
// It is a recorder, not a validator: which transitions are legal from which
// state is decided by the staff actions that invoke it, so every operation
// here is total.
package workflow

import (
	"time"

	"github.com/univ-dsi/accessplan-api/internal/models"
	"github.com/univ-dsi/accessplan-api/internal/temporal"
)

// ApplyTransition moves the request to newState and appends the immutable
// audit entry describing the move. The previous state is captured before the
// mutation; the assigned profile is only stamped when one is provided. The
// returned StateChange has no ID yet, persistence assigns it.
func ApplyTransition(req *models.Request, newState models.RequestState, actorID string, comment, profileID *string, at time.Time) models.StateChange {
	change := models.StateChange{
		RequestID:         req.ID,
		NewState:          newState,
		ActorID:           actorID,
		Comment:           comment,
		AssignedProfileID: profileID,
		CreatedAt:         at,
	}
	if req.State != "" {
		prev := req.State
		change.PreviousState = &prev
	}

	req.State = newState
	if profileID != nil {
		req.AssignedProfileID = profileID
	}
	req.History = append(req.History, change)

	return change
}

// IsOpenForRequester reports whether the campaign accepts a new request from
// the requester right now: the campaign must be open and the requester must
// not already hold a request in it.
func IsOpenForRequester(c models.Campaign, requests []models.Request, requesterID string, now time.Time) bool {
	if !temporal.CampaignOpenAt(c, now) {
		return false
	}
	return CurrentRequest(requests, requesterID) == nil
}

// CurrentRequest returns the requester's request among the campaign's
// requests, or nil. Requesters are matched by identity.
func CurrentRequest(requests []models.Request, requesterID string) *models.Request {
	for i := range requests {
		if requests[i].RequesterID == requesterID {
			return &requests[i]
		}
	}
	return nil
}

// IsCommitteeUpcoming reports whether the campaign's committee has not met
// yet. A campaign without a committee date has no upcoming committee.
func IsCommitteeUpcoming(c models.Campaign, now time.Time) bool {
	if c.CommitteeDate == nil {
		return false
	}
	return !now.After(*c.CommitteeDate)
}
