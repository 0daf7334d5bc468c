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

const campaignColumns = `id, request_type, start_date, end_date, committee_id, committee_date, archive_date, created_at, updated_at`

// CampaignRepository handles persistence of request campaigns.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository constructs the repository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// List returns campaigns matching the filter.
func (r *CampaignRepository) List(ctx context.Context, filter models.CampaignFilter) ([]models.Campaign, int, error) {
	base := "FROM campaigns WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.RequestType != "" {
		conditions = append(conditions, fmt.Sprintf("request_type = $%d", len(args)+1))
		args = append(args, filter.RequestType)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	sortBy := filter.SortBy
	allowedSorts := map[string]bool{"start_date": true, "end_date": true, "request_type": true}
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", campaignColumns, base, sortBy, order, size, offset)

	var campaigns []models.Campaign
	if err := r.db.SelectContext(ctx, &campaigns, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list campaigns: %w", err)
	}

	countQuery := "SELECT COUNT(*) " + base
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count campaigns: %w", err)
	}
	return campaigns, total, nil
}

// FindByID returns a campaign.
func (r *CampaignRepository) FindByID(ctx context.Context, id string) (*models.Campaign, error) {
	query := fmt.Sprintf(`SELECT %s FROM campaigns WHERE id = $1`, campaignColumns)
	var campaign models.Campaign
	if err := r.db.GetContext(ctx, &campaign, query, id); err != nil {
		return nil, err
	}
	return &campaign, nil
}

// Create persists a new campaign.
func (r *CampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	if campaign.ID == "" {
		campaign.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now
	const query = `INSERT INTO campaigns (id, request_type, start_date, end_date, committee_id, committee_date, archive_date, created_at, updated_at)
        VALUES (:id, :request_type, :start_date, :end_date, :committee_id, :committee_date, :archive_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, campaign); err != nil {
		return fmt.Errorf("create campaign: %w", err)
	}
	return nil
}

// Update persists mutable campaign fields.
func (r *CampaignRepository) Update(ctx context.Context, campaign *models.Campaign) error {
	campaign.UpdatedAt = time.Now().UTC()
	const query = `UPDATE campaigns SET request_type = :request_type, start_date = :start_date, end_date = :end_date,
        committee_id = :committee_id, committee_date = :committee_date, archive_date = :archive_date,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, campaign); err != nil {
		return fmt.Errorf("update campaign: %w", err)
	}
	return nil
}
