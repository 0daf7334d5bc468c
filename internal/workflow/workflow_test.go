package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univ-dsi/accessplan-api/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func strPtr(s string) *string {
	return &s
}

func TestApplyTransitionRecordsPreviousState(t *testing.T) {
	req := &models.Request{ID: "r1", State: models.RequestStateEnCours}
	at := date(2024, 2, 10)

	change := ApplyTransition(req, models.RequestStateReceptionnee, "staff-1", nil, nil, at)

	assert.Equal(t, models.RequestStateReceptionnee, req.State)
	assert.Equal(t, models.RequestStateReceptionnee, change.NewState)
	require.NotNil(t, change.PreviousState)
	assert.Equal(t, models.RequestStateEnCours, *change.PreviousState)
	assert.Equal(t, "staff-1", change.ActorID)
	assert.Equal(t, at, change.CreatedAt)
	require.Len(t, req.History, 1)
}

func TestApplyTransitionInitialStateHasNoPrevious(t *testing.T) {
	req := &models.Request{ID: "r1"}

	change := ApplyTransition(req, models.RequestStateEnCours, "student-1", nil, nil, date(2024, 1, 5))

	assert.Nil(t, change.PreviousState)
	assert.Equal(t, models.RequestStateEnCours, req.State)
}

func TestApplyTransitionStampsProfile(t *testing.T) {
	req := &models.Request{ID: "r1", State: models.RequestStateValidee}
	profile := strPtr("profile-PAEH")

	change := ApplyTransition(req, models.RequestStateProfilValide, "staff-1", strPtr("committee ok"), profile, date(2024, 3, 1))

	require.NotNil(t, req.AssignedProfileID)
	assert.Equal(t, "profile-PAEH", *req.AssignedProfileID)
	assert.Equal(t, profile, change.AssignedProfileID)
	require.NotNil(t, change.Comment)
}

func TestApplyTransitionDoesNotClearProfile(t *testing.T) {
	profile := strPtr("profile-PAEH")
	req := &models.Request{ID: "r1", State: models.RequestStateProfilValide, AssignedProfileID: profile}

	ApplyTransition(req, models.RequestStateRefusee, "staff-1", nil, nil, date(2024, 3, 2))

	assert.Equal(t, profile, req.AssignedProfileID)
}

// The recorder never refuses a transition, sensible or not: one history
// entry per call, previous state always the state just before the call.
func TestApplyTransitionAppendsExactlyOncePerCall(t *testing.T) {
	req := &models.Request{ID: "r1"}
	states := []models.RequestState{
		models.RequestStateEnCours,
		models.RequestStateRefusee,
		models.RequestStateEnCours, // going backwards is recorded too
		models.RequestStateValidee,
	}

	for i, s := range states {
		before := req.State
		change := ApplyTransition(req, s, "actor", nil, nil, date(2024, 1, 1+i))
		if i == 0 {
			assert.Nil(t, change.PreviousState)
		} else {
			require.NotNil(t, change.PreviousState)
			assert.Equal(t, before, *change.PreviousState)
		}
	}
	assert.Len(t, req.History, len(states))
}

func TestIsOpenForRequester(t *testing.T) {
	campaign := models.Campaign{ID: "c1", StartDate: date(2024, 1, 1), EndDate: date(2024, 1, 31)}
	requests := []models.Request{{ID: "r1", CampaignID: "c1", RequesterID: "u1"}}

	// Inclusive end bound: the last day of the campaign is still open.
	lastDay := time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC)
	assert.True(t, IsOpenForRequester(campaign, requests, "u2", lastDay))
	assert.False(t, IsOpenForRequester(campaign, requests, "u2", time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)))

	// An existing request blocks a second submission.
	assert.False(t, IsOpenForRequester(campaign, requests, "u1", lastDay))
}

func TestCurrentRequest(t *testing.T) {
	requests := []models.Request{
		{ID: "r1", RequesterID: "u1"},
		{ID: "r2", RequesterID: "u2"},
	}

	got := CurrentRequest(requests, "u2")
	require.NotNil(t, got)
	assert.Equal(t, "r2", got.ID)

	assert.Nil(t, CurrentRequest(requests, "u3"))
	assert.Nil(t, CurrentRequest(nil, "u1"))
}

func TestIsCommitteeUpcoming(t *testing.T) {
	noCommittee := models.Campaign{}
	assert.False(t, IsCommitteeUpcoming(noCommittee, date(2024, 1, 1)))

	committee := date(2024, 3, 15)
	campaign := models.Campaign{CommitteeDate: &committee}

	assert.True(t, IsCommitteeUpcoming(campaign, date(2024, 3, 1)))
	assert.True(t, IsCommitteeUpcoming(campaign, committee), "committee day itself counts as upcoming")
	assert.False(t, IsCommitteeUpcoming(campaign, date(2024, 3, 16)))
}
