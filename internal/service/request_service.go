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
	"github.com/univ-dsi/accessplan-api/internal/workflow"
	appErrors "github.com/univ-dsi/accessplan-api/pkg/errors"
)

type requestRepository interface {
	List(ctx context.Context, filter models.RequestFilter) ([]models.Request, int, error)
	FindByID(ctx context.Context, id string) (*models.Request, error)
	FindByCampaignAndRequester(ctx context.Context, campaignID, requesterID string) (*models.Request, error)
	Create(ctx context.Context, request *models.Request) error
	UpdateState(ctx context.Context, request *models.Request, change *models.StateChange) error
	CreateStateChange(ctx context.Context, change *models.StateChange) error
	ListStateChanges(ctx context.Context, requestID string) ([]models.StateChange, error)
}

type requestCampaignRepository interface {
	FindByID(ctx context.Context, id string) (*models.Campaign, error)
}

type requestBeneficiaryRepository interface {
	Create(ctx context.Context, period *models.BeneficiaryPeriod) error
}

type requestAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// RequestService drives the accommodation-request lifecycle: submission into
// an open campaign, staff transitions, and the profile-validation side effect
// that enrolls the requester as a beneficiary.
type RequestService struct {
	requests      requestRepository
	campaigns     requestCampaignRepository
	beneficiaries requestBeneficiaryRepository
	audit         requestAuditRepository
	validator     *validator.Validate
	logger        *zap.Logger
	now           func() time.Time
}

// NewRequestService constructs a RequestService instance.
func NewRequestService(requests requestRepository, campaigns requestCampaignRepository, beneficiaries requestBeneficiaryRepository, audit requestAuditRepository, validate *validator.Validate, logger *zap.Logger) *RequestService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RequestService{
		requests:      requests,
		campaigns:     campaigns,
		beneficiaries: beneficiaries,
		audit:         audit,
		validator:     validate,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the clock, for tests.
func (s *RequestService) WithClock(now func() time.Time) *RequestService {
	s.now = now
	return s
}

// List returns requests matching the filter.
func (s *RequestService) List(ctx context.Context, filter models.RequestFilter) ([]models.Request, *models.Pagination, error) {
	requests, total, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list requests")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return requests, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a request with its full state-change history.
func (s *RequestService) Get(ctx context.Context, id string) (*models.Request, error) {
	request, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}

	history, err := s.requests.ListStateChanges(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request history")
	}
	request.History = history
	return request, nil
}

// Submit creates the requester's request in a campaign. The campaign must be
// open right now and the requester must not already hold a request in it.
func (s *RequestService) Submit(ctx context.Context, requesterID string, req models.SubmitRequestRequest) (*models.Request, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}

	campaign, err := s.campaigns.FindByID(ctx, req.CampaignID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "campaign not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign")
	}

	existing, err := s.requests.FindByCampaignAndRequester(ctx, req.CampaignID, requesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing request")
	}

	now := s.now()
	var held []models.Request
	if existing != nil {
		held = []models.Request{*existing}
	}
	if !workflow.IsOpenForRequester(*campaign, held, requesterID, now) {
		if existing != nil {
			return nil, appErrors.Clone(appErrors.ErrDuplicateRequest, "")
		}
		return nil, appErrors.Clone(appErrors.ErrClosedCampaign, "")
	}

	request := &models.Request{
		CampaignID:  req.CampaignID,
		RequesterID: requesterID,
		SubmittedAt: &now,
		Comment:     req.Comment,
	}
	change := workflow.ApplyTransition(request, models.RequestStateEnCours, requesterID, nil, nil, now)

	if err := s.requests.Create(ctx, request); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create request")
	}
	change.RequestID = request.ID
	if err := s.requests.CreateStateChange(ctx, &change); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record submission")
	}

	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &requesterID,
		Action:     models.AuditActionRequestSubmit,
		Resource:   "request",
		ResourceID: &request.ID,
		NewValues:  []byte(`{"state":"EN_COURS"}`),
	}); err != nil {
		s.logger.Warn("failed to record submission audit log", zap.Error(err))
	}

	s.logger.Info("request submitted",
		zap.String("requestId", request.ID),
		zap.String("campaignId", req.CampaignID),
		zap.String("requesterId", requesterID))
	return request, nil
}

// Transition moves a request to a new workflow state on behalf of a staff
// actor. Validating a profile additionally enrolls the requester as a
// beneficiary of that profile starting now.
func (s *RequestService) Transition(ctx context.Context, requestID, actorID string, req models.TransitionRequestRequest) (*models.Request, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transition payload")
	}

	request, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "request not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load request")
	}

	now := s.now()
	previousState := request.State
	change := workflow.ApplyTransition(request, req.NewState, actorID, req.Comment, req.AssignedProfileID, now)

	if err := s.requests.UpdateState(ctx, request, &change); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist transition")
	}

	if req.NewState == models.RequestStateProfilValide && request.AssignedProfileID != nil {
		period := &models.BeneficiaryPeriod{
			StudentID: request.RequesterID,
			ProfileID: *request.AssignedProfileID,
			StartDate: now,
		}
		if err := s.beneficiaries.Create(ctx, period); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open beneficiary period")
		}
		s.logger.Info("beneficiary period opened from validated profile",
			zap.String("requestId", request.ID),
			zap.String("periodId", period.ID),
			zap.String("profileId", period.ProfileID))
	}

	payload, _ := json.Marshal(map[string]string{
		"from": string(previousState),
		"to":   string(req.NewState),
	})
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &actorID,
		Action:     models.AuditActionRequestTransition,
		Resource:   "request",
		ResourceID: &request.ID,
		NewValues:  payload,
	}); err != nil {
		s.logger.Warn("failed to record transition audit log", zap.Error(err))
	}

	return request, nil
}
