package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/univ-dsi/accessplan-api/internal/models"
	"github.com/univ-dsi/accessplan-api/internal/temporal"
	appErrors "github.com/univ-dsi/accessplan-api/pkg/errors"
)

type parameterRepository interface {
	ListByKey(ctx context.Context, key string) ([]models.ParameterValue, error)
	ListKeys(ctx context.Context) ([]string, error)
	Create(ctx context.Context, value *models.ParameterValue) error
}

type parameterMetrics interface {
	RecordCacheOperation(hit bool, duration time.Duration)
	ObserveCacheWrite(duration time.Duration)
}

// ParameterService resolves system parameter timelines, with an optional
// Redis cache in front of the timeline reads.
type ParameterService struct {
	repo      parameterRepository
	cache     *redis.Client
	metrics   parameterMetrics
	validator *validator.Validate
	logger    *zap.Logger
	cacheTTL  time.Duration
}

// NewParameterService constructs a ParameterService instance. A nil cache
// client disables caching.
func NewParameterService(repo parameterRepository, cache *redis.Client, metrics parameterMetrics, validate *validator.Validate, logger *zap.Logger, cacheTTL time.Duration) *ParameterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &ParameterService{repo: repo, cache: cache, metrics: metrics, validator: validate, logger: logger, cacheTTL: cacheTTL}
}

// Keys returns every known parameter key.
func (s *ParameterService) Keys(ctx context.Context) ([]string, error) {
	keys, err := s.repo.ListKeys(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parameter keys")
	}
	return keys, nil
}

// Timeline returns a parameter's full value timeline.
func (s *ParameterService) Timeline(ctx context.Context, key string) ([]models.ParameterValue, error) {
	values, err := s.timeline(ctx, key)
	if err != nil {
		return nil, err
	}
	return values, nil
}

// Current returns the single value applying at the date, first match wins on
// malformed timelines.
func (s *ParameterService) Current(ctx context.Context, key string, at time.Time) (*models.ParameterValue, error) {
	values, err := s.timeline(ctx, key)
	if err != nil {
		return nil, err
	}
	value := temporal.CurrentParameterValue(values, at)
	if value == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no value applies at this date")
	}
	return value, nil
}

// CurrentAll returns every value applying at the date, for parameters that
// deliberately hold several simultaneous values.
func (s *ParameterService) CurrentAll(ctx context.Context, key string, at time.Time) ([]models.ParameterValue, error) {
	values, err := s.timeline(ctx, key)
	if err != nil {
		return nil, err
	}
	return temporal.CurrentParameterValues(values, at), nil
}

// Create appends a value to a parameter's timeline and invalidates the cache.
func (s *ParameterService) Create(ctx context.Context, req models.CreateParameterValueRequest) (*models.ParameterValue, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid parameter payload")
	}
	if _, err := temporal.New(req.StartDate, req.EndDate); err != nil {
		return nil, appErrors.FromError(err)
	}

	value := &models.ParameterValue{
		ParameterKey: req.Key,
		Value:        req.Value,
		StartDate:    req.StartDate,
		EndDate:      req.EndDate,
	}
	if err := s.repo.Create(ctx, value); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create parameter value")
	}

	if s.cache != nil {
		if err := s.cache.Del(ctx, s.cacheKey(req.Key)).Err(); err != nil {
			s.logger.Warn("failed to invalidate parameter cache", zap.String("key", req.Key), zap.Error(err))
		}
	}
	return value, nil
}

func (s *ParameterService) timeline(ctx context.Context, key string) ([]models.ParameterValue, error) {
	if s.cache != nil {
		start := time.Now()
		raw, err := s.cache.Get(ctx, s.cacheKey(key)).Bytes()
		if s.metrics != nil {
			s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		}
		if err == nil {
			var values []models.ParameterValue
			if err := json.Unmarshal(raw, &values); err == nil {
				return values, nil
			}
			s.logger.Warn("corrupt parameter cache entry", zap.String("key", key))
		} else if err != redis.Nil {
			s.logger.Warn("parameter cache read failed", zap.Error(err))
		}
	}

	values, err := s.repo.ListByKey(ctx, key)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parameter values")
	}

	if s.cache != nil {
		if raw, err := json.Marshal(values); err == nil {
			start := time.Now()
			if err := s.cache.Set(ctx, s.cacheKey(key), raw, s.cacheTTL).Err(); err != nil {
				s.logger.Warn("parameter cache write failed", zap.Error(err))
			}
			if s.metrics != nil {
				s.metrics.ObserveCacheWrite(time.Since(start))
			}
		}
	}
	return values, nil
}

func (s *ParameterService) cacheKey(key string) string {
	return fmt.Sprintf("parameters:%s", key)
}
