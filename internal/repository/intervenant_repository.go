package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/univ-dsi/accessplan-api/internal/models"
)

// IntervenantRepository handles persistence of intervenants, their event types
// and forfait periods.
type IntervenantRepository struct {
	db *sqlx.DB
}

// NewIntervenantRepository constructs the repository.
func NewIntervenantRepository(db *sqlx.DB) *IntervenantRepository {
	return &IntervenantRepository{db: db}
}

// List returns intervenants matching the filter. Archived means the end date
// has passed at query time.
func (r *IntervenantRepository) List(ctx context.Context, filter models.IntervenantFilter) ([]models.Intervenant, int, error) {
	base := "FROM intervenants WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Archived != nil {
		if *filter.Archived {
			conditions = append(conditions, "end_date IS NOT NULL AND end_date < NOW()")
		} else {
			conditions = append(conditions, "(end_date IS NULL OR end_date >= NOW())")
		}
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"start_date": true, "end_date": true, "created_at": true}
	if !allowedSorts[sortBy] {
		sortBy = "start_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, user_id, start_date, end_date, created_at, updated_at %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		base, sortBy, order, size, offset)

	var intervenants []models.Intervenant
	if err := r.db.SelectContext(ctx, &intervenants, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list intervenants: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count intervenants: %w", err)
	}
	return intervenants, total, nil
}

// FindByID returns an intervenant.
func (r *IntervenantRepository) FindByID(ctx context.Context, id string) (*models.Intervenant, error) {
	const query = `SELECT id, user_id, start_date, end_date, created_at, updated_at FROM intervenants WHERE id = $1`
	var intervenant models.Intervenant
	if err := r.db.GetContext(ctx, &intervenant, query, id); err != nil {
		return nil, err
	}
	return &intervenant, nil
}

// FindByUser returns a user's intervenant record, nil when they have none.
func (r *IntervenantRepository) FindByUser(ctx context.Context, userID string) (*models.Intervenant, error) {
	const query = `SELECT id, user_id, start_date, end_date, created_at, updated_at FROM intervenants WHERE user_id = $1 LIMIT 1`
	var intervenant models.Intervenant
	if err := r.db.GetContext(ctx, &intervenant, query, userID); err != nil {
		return nil, err
	}
	return &intervenant, nil
}

// Create persists a new intervenant.
func (r *IntervenantRepository) Create(ctx context.Context, intervenant *models.Intervenant) error {
	if intervenant.ID == "" {
		intervenant.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	intervenant.CreatedAt = now
	intervenant.UpdatedAt = now
	const query = `INSERT INTO intervenants (id, user_id, start_date, end_date, created_at, updated_at)
        VALUES (:id, :user_id, :start_date, :end_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, intervenant); err != nil {
		return fmt.Errorf("create intervenant: %w", err)
	}
	return nil
}

// Update persists mutable intervenant fields.
func (r *IntervenantRepository) Update(ctx context.Context, intervenant *models.Intervenant) error {
	intervenant.UpdatedAt = time.Now().UTC()
	const query = `UPDATE intervenants SET start_date = :start_date, end_date = :end_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, intervenant); err != nil {
		return fmt.Errorf("update intervenant: %w", err)
	}
	return nil
}

// ListEventTypes returns the event types assigned to an intervenant.
func (r *IntervenantRepository) ListEventTypes(ctx context.Context, intervenantID string) ([]models.EventType, error) {
	const query = `SELECT t.id, t.code, t.label FROM event_types t
        JOIN intervenant_event_types it ON it.event_type_id = t.id
        WHERE it.intervenant_id = $1 ORDER BY t.code`
	var types []models.EventType
	if err := r.db.SelectContext(ctx, &types, query, intervenantID); err != nil {
		return nil, fmt.Errorf("list intervenant event types: %w", err)
	}
	return types, nil
}

// ReplaceEventTypes replaces the event-type assignment atomically.
func (r *IntervenantRepository) ReplaceEventTypes(ctx context.Context, intervenantID string, eventTypeIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin event type update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM intervenant_event_types WHERE intervenant_id = $1`, intervenantID); err != nil {
		return fmt.Errorf("clear event types: %w", err)
	}
	for _, typeID := range eventTypeIDs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO intervenant_event_types (intervenant_id, event_type_id) VALUES ($1, $2)`, intervenantID, typeID); err != nil {
			return fmt.Errorf("insert event type: %w", err)
		}
	}
	return tx.Commit()
}

// AllEventTypes returns every event type.
func (r *IntervenantRepository) AllEventTypes(ctx context.Context) ([]models.EventType, error) {
	const query = `SELECT id, code, label FROM event_types ORDER BY code`
	var types []models.EventType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list event types: %w", err)
	}
	return types, nil
}

// ListForfaitPeriods returns an intervenant's forfait periods.
func (r *IntervenantRepository) ListForfaitPeriods(ctx context.Context, intervenantID string) ([]models.ForfaitPeriod, error) {
	const query = `SELECT id, intervenant_id, start_date, end_date, hours FROM forfait_periods WHERE intervenant_id = $1 ORDER BY start_date`
	var periods []models.ForfaitPeriod
	if err := r.db.SelectContext(ctx, &periods, query, intervenantID); err != nil {
		return nil, fmt.Errorf("list forfait periods: %w", err)
	}
	return periods, nil
}

// CreateForfaitPeriod persists a new forfait period.
func (r *IntervenantRepository) CreateForfaitPeriod(ctx context.Context, period *models.ForfaitPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	const query = `INSERT INTO forfait_periods (id, intervenant_id, start_date, end_date, hours)
        VALUES (:id, :intervenant_id, :start_date, :end_date, :hours)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create forfait period: %w", err)
	}
	return nil
}

// ListEvents returns an intervenant's support events.
func (r *IntervenantRepository) ListEvents(ctx context.Context, intervenantID string) ([]models.SupportEvent, error) {
	const query = `SELECT id, event_type_id, intervenant_id, beneficiary_period_id, start_date, end_date
        FROM support_events WHERE intervenant_id = $1 ORDER BY start_date`
	var events []models.SupportEvent
	if err := r.db.SelectContext(ctx, &events, query, intervenantID); err != nil {
		return nil, fmt.Errorf("list support events: %w", err)
	}
	return events, nil
}

// CreateEvent persists a new support event.
func (r *IntervenantRepository) CreateEvent(ctx context.Context, event *models.SupportEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	const query = `INSERT INTO support_events (id, event_type_id, intervenant_id, beneficiary_period_id, start_date, end_date)
        VALUES (:id, :event_type_id, :intervenant_id, :beneficiary_period_id, :start_date, :end_date)`
	if _, err := r.db.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create support event: %w", err)
	}
	return nil
}
