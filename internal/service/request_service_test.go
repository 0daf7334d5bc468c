package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univ-dsi/accessplan-api/internal/models"
	appErrors "github.com/univ-dsi/accessplan-api/pkg/errors"
)

type requestRepoStub struct {
	requests     map[string]*models.Request
	byCampaign   map[string]*models.Request
	changes      []models.StateChange
	createdCount int
}

func (s *requestRepoStub) List(ctx context.Context, filter models.RequestFilter) ([]models.Request, int, error) {
	var out []models.Request
	for _, r := range s.requests {
		out = append(out, *r)
	}
	return out, len(out), nil
}

func (s *requestRepoStub) FindByID(ctx context.Context, id string) (*models.Request, error) {
	if r, ok := s.requests[id]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *requestRepoStub) FindByCampaignAndRequester(ctx context.Context, campaignID, requesterID string) (*models.Request, error) {
	if r, ok := s.byCampaign[campaignID+"/"+requesterID]; ok {
		copied := *r
		return &copied, nil
	}
	return nil, nil
}

func (s *requestRepoStub) Create(ctx context.Context, request *models.Request) error {
	if request.ID == "" {
		request.ID = "req-1"
	}
	if s.requests == nil {
		s.requests = make(map[string]*models.Request)
	}
	copied := *request
	s.requests[request.ID] = &copied
	s.createdCount++
	return nil
}

func (s *requestRepoStub) UpdateState(ctx context.Context, request *models.Request, change *models.StateChange) error {
	copied := *request
	s.requests[request.ID] = &copied
	if change.ID == "" {
		change.ID = "sc-1"
	}
	s.changes = append(s.changes, *change)
	return nil
}

func (s *requestRepoStub) CreateStateChange(ctx context.Context, change *models.StateChange) error {
	if change.ID == "" {
		change.ID = "sc-0"
	}
	s.changes = append(s.changes, *change)
	return nil
}

func (s *requestRepoStub) ListStateChanges(ctx context.Context, requestID string) ([]models.StateChange, error) {
	var out []models.StateChange
	for _, c := range s.changes {
		if c.RequestID == requestID {
			out = append(out, c)
		}
	}
	return out, nil
}

type campaignRepoStub struct {
	campaigns map[string]*models.Campaign
}

func (s *campaignRepoStub) FindByID(ctx context.Context, id string) (*models.Campaign, error) {
	if c, ok := s.campaigns[id]; ok {
		copied := *c
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

type periodCreatorStub struct {
	created []*models.BeneficiaryPeriod
}

func (s *periodCreatorStub) Create(ctx context.Context, period *models.BeneficiaryPeriod) error {
	if period.ID == "" {
		period.ID = "period-1"
	}
	s.created = append(s.created, period)
	return nil
}

type auditStub struct {
	logs []*models.AuditLog
}

func (s *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func campaign(start, end time.Time) *models.Campaign {
	return &models.Campaign{ID: "camp-1", RequestType: "AMENAGEMENT", StartDate: start, EndDate: end}
}

func newRequestService(requests *requestRepoStub, campaigns *campaignRepoStub, periods *periodCreatorStub, now time.Time) *RequestService {
	return NewRequestService(requests, campaigns, periods, &auditStub{}, validator.New(), nil).WithClock(fixedClock(now))
}

// Campaign closing 2024-10-15: a submission on the closing day itself goes
// through, one on the 16th is refused.
func TestSubmitOnCampaignEndDate(t *testing.T) {
	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC)
	campaigns := &campaignRepoStub{campaigns: map[string]*models.Campaign{"camp-1": campaign(start, end)}}

	svc := newRequestService(&requestRepoStub{}, campaigns, &periodCreatorStub{}, end)
	request, err := svc.Submit(context.Background(), "user-1", models.SubmitRequestRequest{CampaignID: "camp-1"})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStateEnCours, request.State)

	svc = newRequestService(&requestRepoStub{}, campaigns, &periodCreatorStub{}, end.AddDate(0, 0, 1))
	_, err = svc.Submit(context.Background(), "user-1", models.SubmitRequestRequest{CampaignID: "camp-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrClosedCampaign.Code, appErrors.FromError(err).Code)
}

func TestSubmitRefusedWhenRequestAlreadyHeld(t *testing.T) {
	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 9, 20, 0, 0, 0, 0, time.UTC)

	campaigns := &campaignRepoStub{campaigns: map[string]*models.Campaign{"camp-1": campaign(start, end)}}
	existing := &models.Request{ID: "req-0", CampaignID: "camp-1", RequesterID: "user-1", State: models.RequestStateEnCours}
	requests := &requestRepoStub{
		requests:   map[string]*models.Request{"req-0": existing},
		byCampaign: map[string]*models.Request{"camp-1/user-1": existing},
	}

	svc := newRequestService(requests, campaigns, &periodCreatorStub{}, now)
	_, err := svc.Submit(context.Background(), "user-1", models.SubmitRequestRequest{CampaignID: "camp-1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateRequest.Code, appErrors.FromError(err).Code)
	assert.Equal(t, 0, requests.createdCount)
}

func TestSubmitRecordsInitialHistoryEntry(t *testing.T) {
	start := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 9, 20, 0, 0, 0, 0, time.UTC)

	campaigns := &campaignRepoStub{campaigns: map[string]*models.Campaign{"camp-1": campaign(start, end)}}
	requests := &requestRepoStub{}

	svc := newRequestService(requests, campaigns, &periodCreatorStub{}, now)
	request, err := svc.Submit(context.Background(), "user-1", models.SubmitRequestRequest{CampaignID: "camp-1"})
	require.NoError(t, err)

	require.Len(t, requests.changes, 1)
	change := requests.changes[0]
	assert.Equal(t, request.ID, change.RequestID)
	assert.Equal(t, models.RequestStateEnCours, change.NewState)
	assert.Nil(t, change.PreviousState)
	assert.Equal(t, now, change.CreatedAt)
}

func TestTransitionAppendsHistoryWithPreviousState(t *testing.T) {
	now := time.Date(2024, 9, 20, 0, 0, 0, 0, time.UTC)
	existing := &models.Request{ID: "req-1", CampaignID: "camp-1", RequesterID: "user-1", State: models.RequestStateEnCours}
	requests := &requestRepoStub{requests: map[string]*models.Request{"req-1": existing}}

	svc := newRequestService(requests, &campaignRepoStub{}, &periodCreatorStub{}, now)
	updated, err := svc.Transition(context.Background(), "req-1", "staff-1", models.TransitionRequestRequest{
		NewState: models.RequestStateReceptionnee,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStateReceptionnee, updated.State)

	require.Len(t, requests.changes, 1)
	require.NotNil(t, requests.changes[0].PreviousState)
	assert.Equal(t, models.RequestStateEnCours, *requests.changes[0].PreviousState)
}

func TestTransitionToProfilValideOpensBeneficiaryPeriod(t *testing.T) {
	now := time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC)
	existing := &models.Request{ID: "req-1", CampaignID: "camp-1", RequesterID: "user-1", State: models.RequestStateAttenteCommission}
	requests := &requestRepoStub{requests: map[string]*models.Request{"req-1": existing}}
	periods := &periodCreatorStub{}
	profileID := "profile-paeh"

	svc := newRequestService(requests, &campaignRepoStub{}, periods, now)
	_, err := svc.Transition(context.Background(), "req-1", "staff-1", models.TransitionRequestRequest{
		NewState:          models.RequestStateProfilValide,
		AssignedProfileID: &profileID,
	})
	require.NoError(t, err)

	require.Len(t, periods.created, 1)
	assert.Equal(t, "user-1", periods.created[0].StudentID)
	assert.Equal(t, profileID, periods.created[0].ProfileID)
	assert.Equal(t, now, periods.created[0].StartDate)
	assert.Nil(t, periods.created[0].EndDate)
}

func TestTransitionWithoutProfileDoesNotOpenPeriod(t *testing.T) {
	now := time.Date(2024, 11, 3, 0, 0, 0, 0, time.UTC)
	existing := &models.Request{ID: "req-1", CampaignID: "camp-1", RequesterID: "user-1", State: models.RequestStateConforme}
	requests := &requestRepoStub{requests: map[string]*models.Request{"req-1": existing}}
	periods := &periodCreatorStub{}

	svc := newRequestService(requests, &campaignRepoStub{}, periods, now)
	_, err := svc.Transition(context.Background(), "req-1", "staff-1", models.TransitionRequestRequest{
		NewState: models.RequestStateRefusee,
	})
	require.NoError(t, err)
	assert.Empty(t, periods.created)
}
