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
	"github.com/univ-dsi/accessplan-api/internal/workflow"
	appErrors "github.com/univ-dsi/accessplan-api/pkg/errors"
)

type campaignRepository interface {
	List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, int, error)
	FindByID(ctx context.Context, id string) (*models.Campaign, error)
	Create(ctx context.Context, campaign *models.Campaign) error
	Update(ctx context.Context, campaign *models.Campaign) error
}

// CampaignStatus pairs a campaign with its derived temporal flags.
type CampaignStatus struct {
	models.Campaign
	Open              bool `json:"open"`
	CommitteeUpcoming bool `json:"committee_upcoming"`
}

// CampaignService provides campaign administration use cases.
type CampaignService struct {
	repo      campaignRepository
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewCampaignService constructs a CampaignService instance.
func NewCampaignService(repo campaignRepository, validate *validator.Validate, logger *zap.Logger) *CampaignService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CampaignService{repo: repo, validator: validate, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// WithClock overrides the clock, for tests.
func (s *CampaignService) WithClock(now func() time.Time) *CampaignService {
	s.now = now
	return s
}

// List returns campaigns with derived status flags.
func (s *CampaignService) List(ctx context.Context, filter models.CampaignFilter) ([]CampaignStatus, *models.Pagination, error) {
	campaigns, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campaigns")
	}

	now := s.now()
	out := make([]CampaignStatus, 0, len(campaigns))
	for _, c := range campaigns {
		out = append(out, CampaignStatus{
			Campaign:          c,
			Open:              temporal.CampaignOpenAt(c, now),
			CommitteeUpcoming: workflow.IsCommitteeUpcoming(c, now),
		})
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return out, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a campaign with derived status flags.
func (s *CampaignService) Get(ctx context.Context, id string) (*CampaignStatus, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign")
	}
	now := s.now()
	return &CampaignStatus{
		Campaign:          *campaign,
		Open:              temporal.CampaignOpenAt(*campaign, now),
		CommitteeUpcoming: workflow.IsCommitteeUpcoming(*campaign, now),
	}, nil
}

// Create opens a new campaign. The submission window must be well formed.
func (s *CampaignService) Create(ctx context.Context, req models.CreateCampaignRequest) (*models.Campaign, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campaign payload")
	}
	end := req.EndDate
	if _, err := temporal.New(req.StartDate, &end); err != nil {
		return nil, appErrors.FromError(err)
	}

	campaign := &models.Campaign{
		RequestType:   req.RequestType,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		CommitteeID:   req.CommitteeID,
		CommitteeDate: req.CommitteeDate,
		ArchiveDate:   req.ArchiveDate,
	}
	if err := s.repo.Create(ctx, campaign); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create campaign")
	}

	s.logger.Info("campaign created", zap.String("campaignId", campaign.ID), zap.String("requestType", campaign.RequestType))
	return campaign, nil
}

// Update patches mutable campaign fields, revalidating the window.
func (s *CampaignService) Update(ctx context.Context, id string, req models.UpdateCampaignRequest) (*models.Campaign, error) {
	campaign, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign")
	}

	if req.StartDate != nil {
		campaign.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		campaign.EndDate = *req.EndDate
	}
	if req.CommitteeID != nil {
		campaign.CommitteeID = req.CommitteeID
	}
	if req.CommitteeDate != nil {
		campaign.CommitteeDate = req.CommitteeDate
	}
	if req.ArchiveDate != nil {
		campaign.ArchiveDate = req.ArchiveDate
	}

	end := campaign.EndDate
	if _, err := temporal.New(campaign.StartDate, &end); err != nil {
		return nil, appErrors.FromError(err)
	}

	if err := s.repo.Update(ctx, campaign); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update campaign")
	}
	return campaign, nil
}
