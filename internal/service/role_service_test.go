package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univ-dsi/accessplan-api/internal/models"
)

type roleUserRepoStub struct {
	user        *models.User
	stored      []models.UserRole
	enrollments []models.Enrollment
	commissions int
	composantes int
	services    int
	factQueries int
	replaced    [][]models.UserRole
	logs        []*models.AuditLog
}

func (s *roleUserRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if s.user == nil {
		return nil, sql.ErrNoRows
	}
	copied := *s.user
	return &copied, nil
}

func (s *roleUserRepoStub) FindRoleOverride(ctx context.Context, userID string) ([]models.UserRole, error) {
	return s.stored, nil
}

func (s *roleUserRepoStub) ReplaceRoleOverride(ctx context.Context, userID string, newRoles []models.UserRole) error {
	s.replaced = append(s.replaced, newRoles)
	s.stored = newRoles
	return nil
}

func (s *roleUserRepoStub) ListEnrollments(ctx context.Context, studentID string) ([]models.Enrollment, error) {
	s.factQueries++
	return s.enrollments, nil
}

func (s *roleUserRepoStub) CountCommissionMemberships(ctx context.Context, userID string) (int, error) {
	s.factQueries++
	return s.commissions, nil
}

func (s *roleUserRepoStub) CountComposanteReferents(ctx context.Context, userID string) (int, error) {
	s.factQueries++
	return s.composantes, nil
}

func (s *roleUserRepoStub) CountServiceMemberships(ctx context.Context, userID string) (int, error) {
	s.factQueries++
	return s.services, nil
}

func (s *roleUserRepoStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	s.logs = append(s.logs, log)
	return nil
}

type roleBeneficiaryRepoStub struct {
	count int
}

func (s *roleBeneficiaryRepoStub) CountByStudent(ctx context.Context, studentID string) (int, error) {
	return s.count, nil
}

type roleIntervenantRepoStub struct {
	intervenant *models.Intervenant
	eventTypes  []models.EventType
}

func (s *roleIntervenantRepoStub) FindByUser(ctx context.Context, userID string) (*models.Intervenant, error) {
	if s.intervenant == nil {
		return nil, sql.ErrNoRows
	}
	copied := *s.intervenant
	return &copied, nil
}

func (s *roleIntervenantRepoStub) ListEventTypes(ctx context.Context, intervenantID string) ([]models.EventType, error) {
	return s.eventTypes, nil
}

type roleRequestRepoStub struct {
	requests []models.Request
}

func (s *roleRequestRepoStub) ListByRequester(ctx context.Context, requesterID string) ([]models.Request, error) {
	return s.requests, nil
}

func newRoleService(users *roleUserRepoStub, beneficiaries *roleBeneficiaryRepoStub, intervenants *roleIntervenantRepoStub, requests *roleRequestRepoStub, now time.Time) *RoleService {
	return NewRoleService(users, beneficiaries, intervenants, requests, nil).WithClock(fixedClock(now))
}

func TestEffectiveRolesStoredOverrideSkipsFactQueries(t *testing.T) {
	users := &roleUserRepoStub{stored: []models.UserRole{models.RoleGestionnaire}}
	svc := newRoleService(users, &roleBeneficiaryRepoStub{count: 4}, &roleIntervenantRepoStub{}, &roleRequestRepoStub{}, mkDate(2024, 6, 1))

	got, err := svc.EffectiveRoles(context.Background(), &models.User{ID: "user-1", IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, []models.UserRole{models.RoleGestionnaire}, got)
	assert.Equal(t, 0, users.factQueries, "override must short-circuit fact loading")
}

// Student 123 with one enrollment that ended 2024-01-01, no requests: on a
// mid-2024 evaluation DEMANDEUR has lapsed without any write.
func TestEffectiveRolesDemandeurLapsesWithEnrollment(t *testing.T) {
	num := "21900123"
	endedJan := mkDate(2024, 1, 1)
	users := &roleUserRepoStub{enrollments: []models.Enrollment{{StudentID: "user-1", EndDate: &endedJan}}}
	user := &models.User{ID: "user-1", StudentNumber: &num}

	svc := newRoleService(users, &roleBeneficiaryRepoStub{}, &roleIntervenantRepoStub{}, &roleRequestRepoStub{}, mkDate(2023, 11, 1))
	got, err := svc.EffectiveRoles(context.Background(), user)
	require.NoError(t, err)
	assert.Contains(t, got, models.RoleDemandeur)

	svc = newRoleService(users, &roleBeneficiaryRepoStub{}, &roleIntervenantRepoStub{}, &roleRequestRepoStub{}, mkDate(2024, 6, 1))
	got, err = svc.EffectiveRoles(context.Background(), user)
	require.NoError(t, err)
	assert.NotContains(t, got, models.RoleDemandeur)
}

func TestEffectiveRolesWithoutIntervenantRecord(t *testing.T) {
	users := &roleUserRepoStub{}
	svc := newRoleService(users, &roleBeneficiaryRepoStub{count: 1}, &roleIntervenantRepoStub{}, &roleRequestRepoStub{}, mkDate(2024, 6, 1))

	got, err := svc.EffectiveRoles(context.Background(), &models.User{ID: "user-1"})
	require.NoError(t, err)
	assert.Contains(t, got, models.RoleBeneficiaire)
	assert.NotContains(t, got, models.RoleIntervenant)
}

func TestOverrideClearsWithEmptySlice(t *testing.T) {
	users := &roleUserRepoStub{user: &models.User{ID: "user-1"}, stored: []models.UserRole{models.RoleAdmin}}
	svc := newRoleService(users, &roleBeneficiaryRepoStub{}, &roleIntervenantRepoStub{}, &roleRequestRepoStub{}, mkDate(2024, 6, 1))

	require.NoError(t, svc.Override(context.Background(), "user-1", nil, "admin-1"))
	require.Len(t, users.replaced, 1)
	assert.Empty(t, users.replaced[0])

	got, err := svc.EffectiveRoles(context.Background(), &models.User{ID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, []models.UserRole{models.RoleUser}, got)
}

func TestOverrideWritesAuditLog(t *testing.T) {
	users := &roleUserRepoStub{user: &models.User{ID: "user-1"}}
	svc := newRoleService(users, &roleBeneficiaryRepoStub{}, &roleIntervenantRepoStub{}, &roleRequestRepoStub{}, mkDate(2024, 6, 1))

	require.NoError(t, svc.Override(context.Background(), "user-1", []models.UserRole{models.RolePlanificateur}, "admin-1"))
	require.Len(t, users.logs, 1)
	assert.Equal(t, models.AuditActionRoleOverride, users.logs[0].Action)
}
