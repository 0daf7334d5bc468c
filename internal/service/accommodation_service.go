package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/univ-dsi/accessplan-api/internal/models"
	"github.com/univ-dsi/accessplan-api/internal/temporal"
	appErrors "github.com/univ-dsi/accessplan-api/pkg/errors"
)

type accommodationRepository interface {
	List(ctx context.Context, filter models.AccommodationFilter) ([]models.AccommodationGrantDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.AccommodationGrant, error)
	Create(ctx context.Context, grant *models.AccommodationGrant) error
	Update(ctx context.Context, grant *models.AccommodationGrant) error
	Delete(ctx context.Context, id string) error
	CountAttachments(ctx context.Context, id string) (int, error)
	ListTypes(ctx context.Context) ([]models.AccommodationType, error)
}

// AccommodationService manages the accommodation grant catalogue. Activity is
// always derived at read time, never stored.
type AccommodationService struct {
	repo      accommodationRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewAccommodationService constructs an AccommodationService instance.
func NewAccommodationService(repo accommodationRepository, validate *validator.Validate, logger *zap.Logger) *AccommodationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AccommodationService{repo: repo, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the clock, for tests.
func (s *AccommodationService) WithClock(now func() time.Time) *AccommodationService {
	s.now = now
	return s
}

// List returns grants with the derived activity flag set.
func (s *AccommodationService) List(ctx context.Context, filter models.AccommodationFilter) ([]models.AccommodationGrantDetail, *models.Pagination, error) {
	grants, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grants")
	}
	now := s.now()
	for i := range grants {
		grants[i].Active = temporal.GrantActiveAt(grants[i].AccommodationGrant, now)
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return grants, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a grant with its derived activity flag.
func (s *AccommodationService) Get(ctx context.Context, id string) (*models.AccommodationGrantDetail, error) {
	grant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grant")
	}
	return &models.AccommodationGrantDetail{
		AccommodationGrant: *grant,
		Active:             temporal.GrantActiveAt(*grant, s.now()),
	}, nil
}

// Create registers a new grant.
func (s *AccommodationService) Create(ctx context.Context, req models.CreateGrantRequest) (*models.AccommodationGrant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grant payload")
	}
	if _, err := temporal.New(req.StartDate, req.EndDate); err != nil {
		return nil, appErrors.FromError(err)
	}

	grant := &models.AccommodationGrant{
		TypeID:       req.TypeID,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
		Semester1:    req.Semester1,
		Semester2:    req.Semester2,
		Comment:      req.Comment,
		FollowUpType: req.FollowUpType,
	}
	if err := s.repo.Create(ctx, grant); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grant")
	}
	return grant, nil
}

// Update patches mutable grant fields, revalidating the interval.
func (s *AccommodationService) Update(ctx context.Context, id string, req models.UpdateGrantRequest) (*models.AccommodationGrant, error) {
	grant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "grant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load grant")
	}

	if req.TypeID != nil {
		grant.TypeID = *req.TypeID
	}
	if req.StartDate != nil {
		grant.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		grant.EndDate = req.EndDate
	}
	if req.Semester1 != nil {
		grant.Semester1 = *req.Semester1
	}
	if req.Semester2 != nil {
		grant.Semester2 = *req.Semester2
	}
	if req.Comment != nil {
		grant.Comment = *req.Comment
	}
	if req.FollowUpType != nil {
		grant.FollowUpType = req.FollowUpType
	}

	if _, err := temporal.New(grant.StartDate, grant.EndDate); err != nil {
		return nil, appErrors.FromError(err)
	}
	if err := s.repo.Update(ctx, grant); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update grant")
	}
	return grant, nil
}

// Delete removes a grant with no remaining period attachments.
func (s *AccommodationService) Delete(ctx context.Context, id string) error {
	attachments, err := s.repo.CountAttachments(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attachments")
	}
	if attachments > 0 {
		return appErrors.Clone(appErrors.ErrConflict, "grant is still attached to beneficiary periods")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grant")
	}
	return nil
}

// ListTypes returns the accommodation type catalogue.
func (s *AccommodationService) ListTypes(ctx context.Context) ([]models.AccommodationType, error) {
	types, err := s.repo.ListTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list accommodation types")
	}
	return types, nil
}
