package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/univ-dsi/accessplan-api/internal/models"
	"github.com/univ-dsi/accessplan-api/internal/temporal"
	appErrors "github.com/univ-dsi/accessplan-api/pkg/errors"
)

type beneficiaryRepository interface {
	List(ctx context.Context, filter models.BeneficiaryFilter) ([]models.BeneficiaryPeriodDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.BeneficiaryPeriod, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.BeneficiaryPeriod, error)
	Create(ctx context.Context, period *models.BeneficiaryPeriod) error
	Update(ctx context.Context, period *models.BeneficiaryPeriod) error
	ListGrants(ctx context.Context, periodID string) ([]models.AccommodationGrant, error)
	AttachGrant(ctx context.Context, periodID, grantID string) error
	DetachGrant(ctx context.Context, periodID, grantID string) error
	ListOpinions(ctx context.Context, periodID string) ([]models.EseOpinion, error)
	CreateOpinion(ctx context.Context, opinion *models.EseOpinion) error
	FindProfile(ctx context.Context, id string) (*models.Profile, error)
}

type beneficiaryGrantRepository interface {
	FindByID(ctx context.Context, id string) (*models.AccommodationGrant, error)
}

type beneficiaryAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// PeriodDetail is a period with its attached grants and opinions, each
// carrying its derived activity flag.
type PeriodDetail struct {
	models.BeneficiaryPeriod
	Active   bool                              `json:"active"`
	Grants   []models.AccommodationGrantDetail `json:"grants"`
	Opinions []OpinionDetail                   `json:"opinions"`
}

// OpinionDetail is an opinion with its derived in-force flag.
type OpinionDetail struct {
	models.EseOpinion
	InForce bool `json:"in_force"`
}

// BeneficiaryService manages beneficiary periods, their grant attachments and
// their ESE opinions.
type BeneficiaryService struct {
	repo      beneficiaryRepository
	grants    beneficiaryGrantRepository
	audit     beneficiaryAuditRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewBeneficiaryService constructs a BeneficiaryService instance.
func NewBeneficiaryService(repo beneficiaryRepository, grants beneficiaryGrantRepository, audit beneficiaryAuditRepository, validate *validator.Validate, logger *zap.Logger) *BeneficiaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &BeneficiaryService{
		repo:      repo,
		grants:    grants,
		audit:     audit,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock, for tests.
func (s *BeneficiaryService) WithClock(now func() time.Time) *BeneficiaryService {
	s.now = now
	return s
}

// List returns periods with the derived activity flag set.
func (s *BeneficiaryService) List(ctx context.Context, filter models.BeneficiaryFilter) ([]models.BeneficiaryPeriodDetail, *models.Pagination, error) {
	periods, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}
	now := s.now()
	for i := range periods {
		periods[i].Active = temporal.PeriodActiveAt(periods[i].BeneficiaryPeriod, now)
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return periods, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a period with grants and opinions, all flags derived at the
// current instant.
func (s *BeneficiaryService) Get(ctx context.Context, id string) (*PeriodDetail, error) {
	period, err := s.findPeriod(ctx, id)
	if err != nil {
		return nil, err
	}

	grants, err := s.repo.ListGrants(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grants")
	}
	opinions, err := s.repo.ListOpinions(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list opinions")
	}

	now := s.now()
	detail := &PeriodDetail{
		BeneficiaryPeriod: *period,
		Active:            temporal.PeriodActiveAt(*period, now),
	}
	for _, g := range grants {
		detail.Grants = append(detail.Grants, models.AccommodationGrantDetail{
			AccommodationGrant: g,
			Active:             temporal.GrantActiveAt(g, now),
		})
	}
	for _, o := range opinions {
		detail.Opinions = append(detail.Opinions, OpinionDetail{
			EseOpinion: o,
			InForce:    temporal.OpinionInForceAt(o, now),
		})
	}
	return detail, nil
}

// PeriodsInWindow returns a student's periods overlapping the reporting
// window, optionally restricted to periods with support.
func (s *BeneficiaryService) PeriodsInWindow(ctx context.Context, studentID string, from time.Time, to *time.Time, requireSupport bool) ([]models.BeneficiaryPeriod, error) {
	ref, err := temporal.New(from, to)
	if err != nil {
		return nil, appErrors.FromError(err)
	}
	periods, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student periods")
	}
	return temporal.SelectPeriods(periods, ref, requireSupport), nil
}

// Create enrolls a student in a support profile.
func (s *BeneficiaryService) Create(ctx context.Context, req models.CreateBeneficiaryPeriodRequest) (*models.BeneficiaryPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	if _, err := temporal.New(req.StartDate, req.EndDate); err != nil {
		return nil, appErrors.FromError(err)
	}
	if _, err := s.repo.FindProfile(ctx, req.ProfileID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	period := &models.BeneficiaryPeriod{
		StudentID:   req.StudentID,
		ProfileID:   req.ProfileID,
		ManagerID:   req.ManagerID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		WithSupport: req.WithSupport,
	}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create period")
	}

	s.logger.Info("beneficiary period created",
		zap.String("periodId", period.ID),
		zap.String("studentId", period.StudentID),
		zap.String("profileId", period.ProfileID))
	return period, nil
}

// Update patches mutable period fields, revalidating the interval.
func (s *BeneficiaryService) Update(ctx context.Context, id string, req models.UpdateBeneficiaryPeriodRequest) (*models.BeneficiaryPeriod, error) {
	period, err := s.findPeriod(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.ProfileID != nil {
		period.ProfileID = *req.ProfileID
	}
	if req.ManagerID != nil {
		period.ManagerID = req.ManagerID
	}
	if req.StartDate != nil {
		period.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		period.EndDate = req.EndDate
	}
	if req.WithSupport != nil {
		period.WithSupport = *req.WithSupport
	}

	if _, err := temporal.New(period.StartDate, period.EndDate); err != nil {
		return nil, appErrors.FromError(err)
	}
	if err := s.repo.Update(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update period")
	}
	return period, nil
}

// AttachGrant links a grant to a period. The only refusal is a period that
// ended strictly before now; the grant's own dates do not matter here.
func (s *BeneficiaryService) AttachGrant(ctx context.Context, periodID, grantID, actorID string) error {
	period, err := s.findPeriod(ctx, periodID)
	if err != nil {
		return err
	}
	if _, err := s.grants.FindByID(ctx, grantID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "grant not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grant")
	}

	if !temporal.CanAttachGrant(*period, s.now()) {
		return appErrors.Clone(appErrors.ErrPeriodEnded, "")
	}

	if err := s.repo.AttachGrant(ctx, periodID, grantID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to attach grant")
	}

	payload, _ := json.Marshal(map[string]string{"grant_id": grantID})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionGrantAttach,
		Resource:   "beneficiary_period",
		ResourceID: &periodID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record grant attach audit log", zap.Error(err))
	}
	return nil
}

// DetachGrant removes a grant link from a period.
func (s *BeneficiaryService) DetachGrant(ctx context.Context, periodID, grantID, actorID string) error {
	if _, err := s.findPeriod(ctx, periodID); err != nil {
		return err
	}
	if err := s.repo.DetachGrant(ctx, periodID, grantID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to detach grant")
	}

	payload, _ := json.Marshal(map[string]string{"grant_id": grantID})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionGrantDetach,
		Resource:   "beneficiary_period",
		ResourceID: &periodID,
		OldValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record grant detach audit log", zap.Error(err))
	}
	return nil
}

// AddOpinion appends an ESE opinion to a period.
func (s *BeneficiaryService) AddOpinion(ctx context.Context, periodID string, req models.CreateOpinionRequest) (*models.EseOpinion, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid opinion payload")
	}
	if _, err := temporal.New(req.StartDate, req.EndDate); err != nil {
		return nil, appErrors.FromError(err)
	}
	if _, err := s.findPeriod(ctx, periodID); err != nil {
		return nil, err
	}

	opinion := &models.EseOpinion{
		BeneficiaryPeriodID: periodID,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
		Notes:               req.Notes,
	}
	if err := s.repo.CreateOpinion(ctx, opinion); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create opinion")
	}
	return opinion, nil
}

func (s *BeneficiaryService) findPeriod(ctx context.Context, id string) (*models.BeneficiaryPeriod, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "beneficiary period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	return period, nil
}
