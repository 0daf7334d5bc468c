package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/univ-dsi/accessplan-api/internal/models"
	"github.com/univ-dsi/accessplan-api/internal/temporal"
	appErrors "github.com/univ-dsi/accessplan-api/pkg/errors"
)

type intervenantRepository interface {
	List(ctx context.Context, filter models.IntervenantFilter) ([]models.Intervenant, int, error)
	FindByID(ctx context.Context, id string) (*models.Intervenant, error)
	Create(ctx context.Context, intervenant *models.Intervenant) error
	Update(ctx context.Context, intervenant *models.Intervenant) error
	ListEventTypes(ctx context.Context, intervenantID string) ([]models.EventType, error)
	ReplaceEventTypes(ctx context.Context, intervenantID string, eventTypeIDs []string) error
	AllEventTypes(ctx context.Context) ([]models.EventType, error)
	ListForfaitPeriods(ctx context.Context, intervenantID string) ([]models.ForfaitPeriod, error)
	CreateForfaitPeriod(ctx context.Context, period *models.ForfaitPeriod) error
	ListEvents(ctx context.Context, intervenantID string) ([]models.SupportEvent, error)
	CreateEvent(ctx context.Context, event *models.SupportEvent) error
}

type intervenantPeriodRepository interface {
	FindByID(ctx context.Context, id string) (*models.BeneficiaryPeriod, error)
}

// IntervenantDetail is an intervenant with their event types and forfaits.
type IntervenantDetail struct {
	models.Intervenant
	EventTypes     []models.EventType     `json:"event_types"`
	ForfaitPeriods []models.ForfaitPeriod `json:"forfait_periods"`
}

// IntervenantService manages intervenants, their event-type assignments,
// forfait windows and support events.
type IntervenantService struct {
	repo      intervenantRepository
	periods   intervenantPeriodRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewIntervenantService constructs an IntervenantService instance.
func NewIntervenantService(repo intervenantRepository, periods intervenantPeriodRepository, validate *validator.Validate, logger *zap.Logger) *IntervenantService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &IntervenantService{repo: repo, periods: periods, validator: validate, logger: logger}
}

// List returns intervenants matching the filter.
func (s *IntervenantService) List(ctx context.Context, filter models.IntervenantFilter) ([]models.Intervenant, *models.Pagination, error) {
	intervenants, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list intervenants")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return intervenants, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns an intervenant with event types and forfait periods.
func (s *IntervenantService) Get(ctx context.Context, id string) (*IntervenantDetail, error) {
	intervenant, err := s.findIntervenant(ctx, id)
	if err != nil {
		return nil, err
	}

	eventTypes, err := s.repo.ListEventTypes(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list event types")
	}
	forfaits, err := s.repo.ListForfaitPeriods(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list forfait periods")
	}

	return &IntervenantDetail{
		Intervenant:    *intervenant,
		EventTypes:     eventTypes,
		ForfaitPeriods: forfaits,
	}, nil
}

// Create registers a new intervenant.
func (s *IntervenantService) Create(ctx context.Context, req models.CreateIntervenantRequest) (*models.Intervenant, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid intervenant payload")
	}
	if _, err := temporal.New(req.StartDate, req.EndDate); err != nil {
		return nil, appErrors.FromError(err)
	}

	intervenant := &models.Intervenant{
		UserID:    req.UserID,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
	}
	if err := s.repo.Create(ctx, intervenant); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create intervenant")
	}
	return intervenant, nil
}

// ReplaceEventTypes replaces the intervenant's event-type assignment.
func (s *IntervenantService) ReplaceEventTypes(ctx context.Context, id string, eventTypeIDs []string) error {
	if _, err := s.findIntervenant(ctx, id); err != nil {
		return err
	}
	if err := s.repo.ReplaceEventTypes(ctx, id, eventTypeIDs); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace event types")
	}
	return nil
}

// ListEventTypes returns the full event-type catalogue.
func (s *IntervenantService) ListEventTypes(ctx context.Context) ([]models.EventType, error) {
	types, err := s.repo.AllEventTypes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list event types")
	}
	return types, nil
}

// AddForfaitPeriod credits a forfait window to an intervenant.
func (s *IntervenantService) AddForfaitPeriod(ctx context.Context, intervenantID string, req models.CreateForfaitPeriodRequest) (*models.ForfaitPeriod, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid forfait payload")
	}
	if _, err := temporal.New(req.StartDate, req.EndDate); err != nil {
		return nil, appErrors.FromError(err)
	}
	if _, err := s.findIntervenant(ctx, intervenantID); err != nil {
		return nil, err
	}

	hours, err := decimal.NewFromString(req.Hours)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid hours value")
	}
	if hours.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "hours must not be negative")
	}

	period := &models.ForfaitPeriod{
		IntervenantID: intervenantID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		Hours:         hours,
	}
	if err := s.repo.CreateForfaitPeriod(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create forfait period")
	}
	return period, nil
}

// ScheduleEvent records a support event for a beneficiary period. The period
// must fully cover the event window.
func (s *IntervenantService) ScheduleEvent(ctx context.Context, intervenantID string, req models.ScheduleEventRequest) (*models.SupportEvent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid event payload")
	}
	end := req.EndDate
	if _, err := temporal.New(req.StartDate, &end); err != nil {
		return nil, appErrors.FromError(err)
	}
	if _, err := s.findIntervenant(ctx, intervenantID); err != nil {
		return nil, err
	}

	period, err := s.periods.FindByID(ctx, req.BeneficiaryPeriodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "beneficiary period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}

	event := &models.SupportEvent{
		EventTypeID:         req.EventTypeID,
		IntervenantID:       intervenantID,
		BeneficiaryPeriodID: req.BeneficiaryPeriodID,
		StartDate:           req.StartDate,
		EndDate:             req.EndDate,
	}
	if !temporal.EventCompatibleWithPeriod(*event, *period) {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "event is not covered by the beneficiary period")
	}

	if err := s.repo.CreateEvent(ctx, event); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create event")
	}
	return event, nil
}

// CompatibleForfaits returns the intervenant's forfait windows able to serve
// the beneficiary period.
func (s *IntervenantService) CompatibleForfaits(ctx context.Context, intervenantID, periodID string) ([]models.ForfaitPeriod, error) {
	if _, err := s.findIntervenant(ctx, intervenantID); err != nil {
		return nil, err
	}
	period, err := s.periods.FindByID(ctx, periodID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "beneficiary period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}

	forfaits, err := s.repo.ListForfaitPeriods(ctx, intervenantID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list forfait periods")
	}

	var out []models.ForfaitPeriod
	for _, f := range forfaits {
		if temporal.ForfaitCanServePeriod(f, *period) {
			out = append(out, f)
		}
	}
	return out, nil
}

// Archive ends the intervenant record as of the given date.
func (s *IntervenantService) Archive(ctx context.Context, id string, endDate time.Time) (*models.Intervenant, error) {
	intervenant, err := s.findIntervenant(ctx, id)
	if err != nil {
		return nil, err
	}
	if endDate.Before(intervenant.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrInvalidInterval, "")
	}
	intervenant.EndDate = &endDate
	if err := s.repo.Update(ctx, intervenant); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to archive intervenant")
	}
	return intervenant, nil
}

func (s *IntervenantService) findIntervenant(ctx context.Context, id string) (*models.Intervenant, error) {
	intervenant, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "intervenant not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load intervenant")
	}
	return intervenant, nil
}
