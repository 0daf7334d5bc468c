package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/univ-dsi/accessplan-api/internal/models"
)

// ParameterRepository handles persistence of system parameter timelines.
type ParameterRepository struct {
	db *sqlx.DB
}

// NewParameterRepository constructs the repository.
func NewParameterRepository(db *sqlx.DB) *ParameterRepository {
	return &ParameterRepository{db: db}
}

// ListByKey returns a parameter's value timeline in insertion order.
func (r *ParameterRepository) ListByKey(ctx context.Context, key string) ([]models.ParameterValue, error) {
	const query = `SELECT id, parameter_key, value, start_date, end_date, created_at FROM parameter_values WHERE parameter_key = $1 ORDER BY created_at`
	var values []models.ParameterValue
	if err := r.db.SelectContext(ctx, &values, query, key); err != nil {
		return nil, fmt.Errorf("list parameter values: %w", err)
	}
	return values, nil
}

// ListKeys returns every distinct parameter key.
func (r *ParameterRepository) ListKeys(ctx context.Context) ([]string, error) {
	const query = `SELECT DISTINCT parameter_key FROM parameter_values ORDER BY parameter_key`
	var keys []string
	if err := r.db.SelectContext(ctx, &keys, query); err != nil {
		return nil, fmt.Errorf("list parameter keys: %w", err)
	}
	return keys, nil
}

// Create persists a new parameter value.
func (r *ParameterRepository) Create(ctx context.Context, value *models.ParameterValue) error {
	if value.ID == "" {
		value.ID = uuid.NewString()
	}
	if value.CreatedAt.IsZero() {
		value.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO parameter_values (id, parameter_key, value, start_date, end_date, created_at)
        VALUES (:id, :parameter_key, :value, :start_date, :end_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, value); err != nil {
		return fmt.Errorf("create parameter value: %w", err)
	}
	return nil
}
