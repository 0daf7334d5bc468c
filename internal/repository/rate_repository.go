package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/univ-dsi/accessplan-api/internal/models"
)

// RateRepository handles persistence of hourly rate timelines.
type RateRepository struct {
	db *sqlx.DB
}

// NewRateRepository constructs the repository.
func NewRateRepository(db *sqlx.DB) *RateRepository {
	return &RateRepository{db: db}
}

// ListByEventType returns the rate timeline of an event type in insertion
// order, which the resolver relies on for first-match lookups.
func (r *RateRepository) ListByEventType(ctx context.Context, eventTypeID string) ([]models.RateEntry, error) {
	const query = `SELECT id, event_type_id, amount, start_date, end_date, created_at FROM rate_entries WHERE event_type_id = $1 ORDER BY created_at`
	var entries []models.RateEntry
	if err := r.db.SelectContext(ctx, &entries, query, eventTypeID); err != nil {
		return nil, fmt.Errorf("list rates: %w", err)
	}
	return entries, nil
}

// Create persists a new rate entry.
func (r *RateRepository) Create(ctx context.Context, entry *models.RateEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO rate_entries (id, event_type_id, amount, start_date, end_date, created_at)
        VALUES (:id, :event_type_id, :amount, :start_date, :end_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create rate: %w", err)
	}
	return nil
}

// CloseCurrent sets the end date of the open-ended entry of an event type, if
// any. Called before inserting a successor entry.
func (r *RateRepository) CloseCurrent(ctx context.Context, eventTypeID string, endDate time.Time) error {
	const query = `UPDATE rate_entries SET end_date = $2 WHERE event_type_id = $1 AND end_date IS NULL`
	if _, err := r.db.ExecContext(ctx, query, eventTypeID, endDate); err != nil {
		return fmt.Errorf("close rate: %w", err)
	}
	return nil
}
