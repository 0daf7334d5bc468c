package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univ-dsi/accessplan-api/internal/models"
	appErrors "github.com/univ-dsi/accessplan-api/pkg/errors"
)

type campaignStoreStub struct {
	campaigns []models.Campaign
	created   []models.Campaign
	updated   []models.Campaign
}

func (s *campaignStoreStub) List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, int, error) {
	return s.campaigns, len(s.campaigns), nil
}

func (s *campaignStoreStub) FindByID(ctx context.Context, id string) (*models.Campaign, error) {
	for i := range s.campaigns {
		if s.campaigns[i].ID == id {
			return &s.campaigns[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *campaignStoreStub) Create(ctx context.Context, campaign *models.Campaign) error {
	s.created = append(s.created, *campaign)
	return nil
}

func (s *campaignStoreStub) Update(ctx context.Context, campaign *models.Campaign) error {
	s.updated = append(s.updated, *campaign)
	return nil
}

func TestCampaignOpenOnBothBoundDates(t *testing.T) {
	repo := &campaignStoreStub{campaigns: []models.Campaign{{
		ID:        "c1",
		StartDate: ivDate(2025, time.March, 1),
		EndDate:   ivDate(2025, time.March, 31),
	}}}
	svc := NewCampaignService(repo, nil, nil)

	cases := []struct {
		at   time.Time
		open bool
	}{
		{ivDate(2025, time.February, 28), false},
		{ivDate(2025, time.March, 1), true},
		{ivDate(2025, time.March, 31), true},
		{ivDate(2025, time.April, 1), false},
	}
	for _, tc := range cases {
		svc.WithClock(func() time.Time { return tc.at })
		status, err := svc.Get(context.Background(), "c1")
		require.NoError(t, err)
		assert.Equal(t, tc.open, status.Open, "at %s", tc.at.Format("2006-01-02"))
	}
}

func TestCampaignCreateRejectsInvertedWindow(t *testing.T) {
	repo := &campaignStoreStub{}
	svc := NewCampaignService(repo, nil, nil)

	_, err := svc.Create(context.Background(), models.CreateCampaignRequest{
		RequestType: "AMENAGEMENT",
		StartDate:   ivDate(2025, time.March, 31),
		EndDate:     ivDate(2025, time.March, 1),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidInterval.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.created)
}

func TestCampaignUpdateRevalidatesWindow(t *testing.T) {
	repo := &campaignStoreStub{campaigns: []models.Campaign{{
		ID:        "c1",
		StartDate: ivDate(2025, time.March, 1),
		EndDate:   ivDate(2025, time.March, 31),
	}}}
	svc := NewCampaignService(repo, nil, nil)

	badStart := ivDate(2025, time.April, 15)
	_, err := svc.Update(context.Background(), "c1", models.UpdateCampaignRequest{StartDate: &badStart})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidInterval.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.updated)
}
