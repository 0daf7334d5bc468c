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

type beneficiaryRepoStub struct {
	periods  map[string]*models.BeneficiaryPeriod
	grants   map[string][]models.AccommodationGrant
	opinions map[string][]models.EseOpinion
	attached [][2]string
}

func (s *beneficiaryRepoStub) List(ctx context.Context, filter models.BeneficiaryFilter) ([]models.BeneficiaryPeriodDetail, int, error) {
	var out []models.BeneficiaryPeriodDetail
	for _, p := range s.periods {
		out = append(out, models.BeneficiaryPeriodDetail{BeneficiaryPeriod: *p})
	}
	return out, len(out), nil
}

func (s *beneficiaryRepoStub) FindByID(ctx context.Context, id string) (*models.BeneficiaryPeriod, error) {
	if p, ok := s.periods[id]; ok {
		copied := *p
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func (s *beneficiaryRepoStub) ListByStudent(ctx context.Context, studentID string) ([]models.BeneficiaryPeriod, error) {
	var out []models.BeneficiaryPeriod
	for _, p := range s.periods {
		if p.StudentID == studentID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (s *beneficiaryRepoStub) Create(ctx context.Context, period *models.BeneficiaryPeriod) error {
	if period.ID == "" {
		period.ID = "period-new"
	}
	if s.periods == nil {
		s.periods = make(map[string]*models.BeneficiaryPeriod)
	}
	copied := *period
	s.periods[period.ID] = &copied
	return nil
}

func (s *beneficiaryRepoStub) Update(ctx context.Context, period *models.BeneficiaryPeriod) error {
	copied := *period
	s.periods[period.ID] = &copied
	return nil
}

func (s *beneficiaryRepoStub) ListGrants(ctx context.Context, periodID string) ([]models.AccommodationGrant, error) {
	return s.grants[periodID], nil
}

func (s *beneficiaryRepoStub) AttachGrant(ctx context.Context, periodID, grantID string) error {
	s.attached = append(s.attached, [2]string{periodID, grantID})
	return nil
}

func (s *beneficiaryRepoStub) DetachGrant(ctx context.Context, periodID, grantID string) error {
	return nil
}

func (s *beneficiaryRepoStub) ListOpinions(ctx context.Context, periodID string) ([]models.EseOpinion, error) {
	return s.opinions[periodID], nil
}

func (s *beneficiaryRepoStub) CreateOpinion(ctx context.Context, opinion *models.EseOpinion) error {
	if opinion.ID == "" {
		opinion.ID = "opinion-new"
	}
	if s.opinions == nil {
		s.opinions = make(map[string][]models.EseOpinion)
	}
	s.opinions[opinion.BeneficiaryPeriodID] = append(s.opinions[opinion.BeneficiaryPeriodID], *opinion)
	return nil
}

func (s *beneficiaryRepoStub) FindProfile(ctx context.Context, id string) (*models.Profile, error) {
	return &models.Profile{ID: id, Code: "PAEH", Label: "PAEH"}, nil
}

type grantFinderStub struct {
	grants map[string]*models.AccommodationGrant
}

func (s *grantFinderStub) FindByID(ctx context.Context, id string) (*models.AccommodationGrant, error) {
	if g, ok := s.grants[id]; ok {
		copied := *g
		return &copied, nil
	}
	return nil, sql.ErrNoRows
}

func newBeneficiaryService(repo *beneficiaryRepoStub, grants *grantFinderStub, now time.Time) *BeneficiaryService {
	return NewBeneficiaryService(repo, grants, &auditStub{}, validator.New(), nil).WithClock(fixedClock(now))
}

func mkDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Period ending 2024-06-30, grant attachment attempted on the end date: the
// attach goes through, while the same period already reads as inactive.
func TestAttachGrantOnPeriodEndDate(t *testing.T) {
	end := mkDate(2024, 6, 30)
	period := &models.BeneficiaryPeriod{
		ID:        "period-1",
		StudentID: "student-1",
		ProfileID: "profile-1",
		StartDate: mkDate(2023, 9, 1),
		EndDate:   &end,
	}
	repo := &beneficiaryRepoStub{periods: map[string]*models.BeneficiaryPeriod{"period-1": period}}
	grants := &grantFinderStub{grants: map[string]*models.AccommodationGrant{"grant-1": {ID: "grant-1", TypeID: "type-1", StartDate: mkDate(2023, 9, 1)}}}

	svc := newBeneficiaryService(repo, grants, end)
	require.NoError(t, svc.AttachGrant(context.Background(), "period-1", "grant-1", "staff-1"))
	require.Len(t, repo.attached, 1)

	detail, err := svc.Get(context.Background(), "period-1")
	require.NoError(t, err)
	assert.False(t, detail.Active)
}

func TestAttachGrantRefusedAfterPeriodEnd(t *testing.T) {
	end := mkDate(2024, 6, 30)
	period := &models.BeneficiaryPeriod{
		ID:        "period-1",
		StudentID: "student-1",
		ProfileID: "profile-1",
		StartDate: mkDate(2023, 9, 1),
		EndDate:   &end,
	}
	repo := &beneficiaryRepoStub{periods: map[string]*models.BeneficiaryPeriod{"period-1": period}}
	grants := &grantFinderStub{grants: map[string]*models.AccommodationGrant{"grant-1": {ID: "grant-1", TypeID: "type-1", StartDate: mkDate(2023, 9, 1)}}}

	svc := newBeneficiaryService(repo, grants, end.AddDate(0, 0, 1))
	err := svc.AttachGrant(context.Background(), "period-1", "grant-1", "staff-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPeriodEnded.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.attached)
}

// Grant and period share the end date 2024-06-30: on that day the grant is
// still active while the period is already over.
func TestGrantAndPeriodDivergeOnSharedEndDate(t *testing.T) {
	end := mkDate(2024, 6, 30)
	period := &models.BeneficiaryPeriod{
		ID:        "period-1",
		StudentID: "student-1",
		ProfileID: "profile-1",
		StartDate: mkDate(2023, 9, 1),
		EndDate:   &end,
	}
	repo := &beneficiaryRepoStub{
		periods: map[string]*models.BeneficiaryPeriod{"period-1": period},
		grants: map[string][]models.AccommodationGrant{
			"period-1": {{ID: "grant-1", TypeID: "type-1", StartDate: mkDate(2023, 9, 1), EndDate: &end}},
		},
	}

	svc := newBeneficiaryService(repo, &grantFinderStub{}, end)
	detail, err := svc.Get(context.Background(), "period-1")
	require.NoError(t, err)
	assert.False(t, detail.Active)
	require.Len(t, detail.Grants, 1)
	assert.True(t, detail.Grants[0].Active)
}

func TestOpinionInForceOnItsEndDate(t *testing.T) {
	periodEnd := mkDate(2024, 6, 30)
	opinionEnd := mkDate(2024, 6, 30)
	period := &models.BeneficiaryPeriod{
		ID:        "period-1",
		StudentID: "student-1",
		ProfileID: "profile-1",
		StartDate: mkDate(2023, 9, 1),
		EndDate:   &periodEnd,
	}
	repo := &beneficiaryRepoStub{
		periods: map[string]*models.BeneficiaryPeriod{"period-1": period},
		opinions: map[string][]models.EseOpinion{
			"period-1": {{ID: "opinion-1", BeneficiaryPeriodID: "period-1", StartDate: mkDate(2023, 9, 1), EndDate: &opinionEnd}},
		},
	}

	svc := newBeneficiaryService(repo, &grantFinderStub{}, opinionEnd)
	detail, err := svc.Get(context.Background(), "period-1")
	require.NoError(t, err)
	require.Len(t, detail.Opinions, 1)
	assert.True(t, detail.Opinions[0].InForce)
}

func TestCreateRejectsInvertedInterval(t *testing.T) {
	repo := &beneficiaryRepoStub{}
	svc := newBeneficiaryService(repo, &grantFinderStub{}, mkDate(2024, 6, 1))

	end := mkDate(2024, 1, 1)
	_, err := svc.Create(context.Background(), models.CreateBeneficiaryPeriodRequest{
		StudentID: "student-1",
		ProfileID: "profile-1",
		StartDate: mkDate(2024, 6, 1),
		EndDate:   &end,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidInterval.Code, appErrors.FromError(err).Code)
}

func TestPeriodsInWindowFiltersSupport(t *testing.T) {
	repo := &beneficiaryRepoStub{periods: map[string]*models.BeneficiaryPeriod{
		"p1": {ID: "p1", StudentID: "student-1", ProfileID: "profile-1", StartDate: mkDate(2023, 9, 1), WithSupport: true},
		"p2": {ID: "p2", StudentID: "student-1", ProfileID: "profile-1", StartDate: mkDate(2023, 9, 1)},
	}}
	svc := newBeneficiaryService(repo, &grantFinderStub{}, mkDate(2024, 6, 1))

	all, err := svc.PeriodsInWindow(context.Background(), "student-1", mkDate(2024, 1, 1), nil, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	supported, err := svc.PeriodsInWindow(context.Background(), "student-1", mkDate(2024, 1, 1), nil, true)
	require.NoError(t, err)
	require.Len(t, supported, 1)
	assert.Equal(t, "p1", supported[0].ID)
}
