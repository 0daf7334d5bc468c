package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/univ-dsi/accessplan-api/internal/models"
	"github.com/univ-dsi/accessplan-api/internal/temporal"
	appErrors "github.com/univ-dsi/accessplan-api/pkg/errors"
)

type rateRepository interface {
	ListByEventType(ctx context.Context, eventTypeID string) ([]models.RateEntry, error)
	Create(ctx context.Context, entry *models.RateEntry) error
	CloseCurrent(ctx context.Context, eventTypeID string, endDate time.Time) error
}

// RateService resolves and maintains the hourly rate timeline per event type.
type RateService struct {
	repo      rateRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRateService constructs a RateService instance.
func NewRateService(repo rateRepository, validate *validator.Validate, logger *zap.Logger) *RateService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RateService{repo: repo, validator: validate, logger: logger}
}

// Timeline returns the event type's full rate timeline.
func (s *RateService) Timeline(ctx context.Context, eventTypeID string) ([]models.RateEntry, error) {
	entries, err := s.repo.ListByEventType(ctx, eventTypeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rates")
	}
	return entries, nil
}

// Current returns the rate applying at the given instant.
func (s *RateService) Current(ctx context.Context, eventTypeID string, at time.Time) (*models.RateEntry, error) {
	entries, err := s.repo.ListByEventType(ctx, eventTypeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rates")
	}
	entry := temporal.CurrentRate(entries, at)
	if entry == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no rate applies at this date")
	}
	return entry, nil
}

// Create appends a rate entry. An open-ended predecessor is closed at the new
// entry's start date so the timeline stays non-overlapping.
func (s *RateService) Create(ctx context.Context, req models.CreateRateRequest) (*models.RateEntry, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid rate payload")
	}
	if _, err := temporal.New(req.StartDate, req.EndDate); err != nil {
		return nil, appErrors.FromError(err)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid amount")
	}
	if amount.IsNegative() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "amount must not be negative")
	}

	if err := s.repo.CloseCurrent(ctx, req.EventTypeID, req.StartDate); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close current rate")
	}

	entry := &models.RateEntry{
		EventTypeID: req.EventTypeID,
		Amount:      amount,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create rate")
	}

	s.logger.Info("rate entry created",
		zap.String("eventTypeId", req.EventTypeID),
		zap.String("amount", amount.String()))
	return entry, nil
}
