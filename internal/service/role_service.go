package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/univ-dsi/accessplan-api/internal/models"
	"github.com/univ-dsi/accessplan-api/internal/roles"
	appErrors "github.com/univ-dsi/accessplan-api/pkg/errors"
)

type roleUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindRoleOverride(ctx context.Context, userID string) ([]models.UserRole, error)
	ReplaceRoleOverride(ctx context.Context, userID string, newRoles []models.UserRole) error
	ListEnrollments(ctx context.Context, studentID string) ([]models.Enrollment, error)
	CountCommissionMemberships(ctx context.Context, userID string) (int, error)
	CountComposanteReferents(ctx context.Context, userID string) (int, error)
	CountServiceMemberships(ctx context.Context, userID string) (int, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type roleBeneficiaryRepository interface {
	CountByStudent(ctx context.Context, studentID string) (int, error)
}

type roleIntervenantRepository interface {
	FindByUser(ctx context.Context, userID string) (*models.Intervenant, error)
	ListEventTypes(ctx context.Context, intervenantID string) ([]models.EventType, error)
}

type roleRequestRepository interface {
	ListByRequester(ctx context.Context, requesterID string) ([]models.Request, error)
}

// RoleService assembles the fact snapshot a user's effective roles derive
// from, and manages the stored override that can replace the derivation.
type RoleService struct {
	users         roleUserRepository
	beneficiaries roleBeneficiaryRepository
	intervenants  roleIntervenantRepository
	requests      roleRequestRepository
	logger        *zap.Logger
	now           func() time.Time
}

// NewRoleService constructs a RoleService instance.
func NewRoleService(users roleUserRepository, beneficiaries roleBeneficiaryRepository, intervenants roleIntervenantRepository, requests roleRequestRepository, logger *zap.Logger) *RoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleService{
		users:         users,
		beneficiaries: beneficiaries,
		intervenants:  intervenants,
		requests:      requests,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock, for tests.
func (s *RoleService) WithClock(now func() time.Time) *RoleService {
	s.now = now
	return s
}

// EffectiveRoles returns the user's effective role set at the current instant.
func (s *RoleService) EffectiveRoles(ctx context.Context, user *models.User) ([]models.UserRole, error) {
	facts, err := s.loadFacts(ctx, user)
	if err != nil {
		return nil, err
	}
	return roles.Compute(facts, s.now()), nil
}

// Override replaces the user's stored role override. An empty slice clears
// the override and re-enables derivation.
func (s *RoleService) Override(ctx context.Context, userID string, newRoles []models.UserRole, actorID string) error {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := s.users.ReplaceRoleOverride(ctx, userID, newRoles); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store role override")
	}

	payload, _ := json.Marshal(newRoles)
	if err := s.users.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionRoleOverride,
		Resource:   "user",
		ResourceID: &userID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record role override audit log", zap.Error(err))
	}
	return nil
}

func (s *RoleService) loadFacts(ctx context.Context, user *models.User) (roles.Facts, error) {
	facts := roles.Facts{
		StudentNumber:        user.StudentNumber,
		IsAdmin:              user.IsAdmin,
		IsTechnicalRecipient: user.IsTechnicalRecipient,
		IsManager:            user.IsManager,
	}

	stored, err := s.users.FindRoleOverride(ctx, user.ID)
	if err != nil {
		return facts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load role override")
	}
	facts.StoredRoles = stored
	if len(stored) > 0 {
		// Override short-circuits the computation; skip the fact queries.
		return facts, nil
	}

	if facts.Requests, err = s.requests.ListByRequester(ctx, user.ID); err != nil {
		return facts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load requests")
	}
	if facts.Enrollments, err = s.users.ListEnrollments(ctx, user.ID); err != nil {
		return facts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	if facts.BeneficiaryPeriods, err = s.beneficiaries.CountByStudent(ctx, user.ID); err != nil {
		return facts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count beneficiary periods")
	}
	if facts.CommissionCount, err = s.users.CountCommissionMemberships(ctx, user.ID); err != nil {
		return facts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count commission memberships")
	}
	if facts.ComposanteCount, err = s.users.CountComposanteReferents(ctx, user.ID); err != nil {
		return facts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count composante referents")
	}
	if facts.ServiceCount, err = s.users.CountServiceMemberships(ctx, user.ID); err != nil {
		return facts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count service memberships")
	}

	intervenant, err := s.intervenants.FindByUser(ctx, user.ID)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			return facts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intervenant")
		}
	} else {
		facts.Intervenant = intervenant
		if facts.EventTypes, err = s.intervenants.ListEventTypes(ctx, intervenant.ID); err != nil {
			return facts, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load event types")
		}
	}

	return facts, nil
}
