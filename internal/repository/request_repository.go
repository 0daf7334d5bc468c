package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/univ-dsi/accessplan-api/internal/models"
)

const requestColumns = `id, campaign_id, requester_id, submitted_at, state, assigned_profile_id, comment, created_at, updated_at`

// RequestRepository handles persistence of requests and their state-change
// history.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// List returns requests matching the filter.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.Request, int, error) {
	base := "FROM requests WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.CampaignID != "" {
		conditions = append(conditions, fmt.Sprintf("campaign_id = $%d", len(args)+1))
		args = append(args, filter.CampaignID)
	}
	if filter.RequesterID != "" {
		conditions = append(conditions, fmt.Sprintf("requester_id = $%d", len(args)+1))
		args = append(args, filter.RequesterID)
	}
	if filter.State != "" {
		conditions = append(conditions, fmt.Sprintf("state = $%d", len(args)+1))
		args = append(args, filter.State)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"created_at": true, "submitted_at": true, "state": true}
	if !allowedSorts[sortBy] {
		sortBy = "created_at"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", requestColumns, base, sortBy, order, size, offset)

	var requests []models.Request
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list requests: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count requests: %w", err)
	}
	return requests, total, nil
}

// FindByID returns a request without its history.
func (r *RequestRepository) FindByID(ctx context.Context, id string) (*models.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE id = $1`, requestColumns)
	var request models.Request
	if err := r.db.GetContext(ctx, &request, query, id); err != nil {
		return nil, err
	}
	return &request, nil
}

// FindByCampaignAndRequester returns the requester's request in a campaign,
// nil when none exists. The unique index guarantees at most one row.
func (r *RequestRepository) FindByCampaignAndRequester(ctx context.Context, campaignID, requesterID string) (*models.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE campaign_id = $1 AND requester_id = $2 LIMIT 1`, requestColumns)
	var request models.Request
	if err := r.db.GetContext(ctx, &request, query, campaignID, requesterID); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find request: %w", err)
	}
	return &request, nil
}

// ListByRequester returns all of a requester's requests across campaigns.
func (r *RequestRepository) ListByRequester(ctx context.Context, requesterID string) ([]models.Request, error) {
	query := fmt.Sprintf(`SELECT %s FROM requests WHERE requester_id = $1 ORDER BY created_at DESC`, requestColumns)
	var requests []models.Request
	if err := r.db.SelectContext(ctx, &requests, query, requesterID); err != nil {
		return nil, fmt.Errorf("list requester requests: %w", err)
	}
	return requests, nil
}

// Create persists a new request.
func (r *RequestRepository) Create(ctx context.Context, request *models.Request) error {
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	request.CreatedAt = now
	request.UpdatedAt = now
	const query = `INSERT INTO requests (id, campaign_id, requester_id, submitted_at, state, assigned_profile_id, comment, created_at, updated_at)
        VALUES (:id, :campaign_id, :requester_id, :submitted_at, :state, :assigned_profile_id, :comment, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, request); err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return nil
}

// UpdateState persists the request's current state and assignment together
// with the state-change record, in one transaction.
func (r *RequestRepository) UpdateState(ctx context.Context, request *models.Request, change *models.StateChange) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin state update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	request.UpdatedAt = time.Now().UTC()
	const updateQuery = `UPDATE requests SET state = :state, assigned_profile_id = :assigned_profile_id,
        comment = :comment, updated_at = :updated_at WHERE id = :id`
	if _, err := tx.NamedExecContext(ctx, updateQuery, request); err != nil {
		return fmt.Errorf("update request state: %w", err)
	}

	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	const insertQuery = `INSERT INTO state_changes (id, request_id, new_state, previous_state, actor_id, comment, assigned_profile_id, created_at)
        VALUES (:id, :request_id, :new_state, :previous_state, :actor_id, :comment, :assigned_profile_id, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, change); err != nil {
		return fmt.Errorf("insert state change: %w", err)
	}
	return tx.Commit()
}

// CreateStateChange appends a history record outside of a state update,
// used for the initial submission entry.
func (r *RequestRepository) CreateStateChange(ctx context.Context, change *models.StateChange) error {
	if change.ID == "" {
		change.ID = uuid.NewString()
	}
	const query = `INSERT INTO state_changes (id, request_id, new_state, previous_state, actor_id, comment, assigned_profile_id, created_at)
        VALUES (:id, :request_id, :new_state, :previous_state, :actor_id, :comment, :assigned_profile_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, change); err != nil {
		return fmt.Errorf("create state change: %w", err)
	}
	return nil
}

// ListStateChanges returns a request's full history, oldest first.
func (r *RequestRepository) ListStateChanges(ctx context.Context, requestID string) ([]models.StateChange, error) {
	const query = `SELECT id, request_id, new_state, previous_state, actor_id, comment, assigned_profile_id, created_at
        FROM state_changes WHERE request_id = $1 ORDER BY created_at`
	var changes []models.StateChange
	if err := r.db.SelectContext(ctx, &changes, query, requestID); err != nil {
		return nil, fmt.Errorf("list state changes: %w", err)
	}
	return changes, nil
}
