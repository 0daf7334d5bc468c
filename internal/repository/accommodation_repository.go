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

// AccommodationRepository handles persistence of accommodation grants.
type AccommodationRepository struct {
	db *sqlx.DB
}

// NewAccommodationRepository constructs the repository.
func NewAccommodationRepository(db *sqlx.DB) *AccommodationRepository {
	return &AccommodationRepository{db: db}
}

// List returns grants with type info.
func (r *AccommodationRepository) List(ctx context.Context, filter models.AccommodationFilter) ([]models.AccommodationGrantDetail, int, error) {
	base := `FROM accommodation_grants g
LEFT JOIN accommodation_types t ON t.id = g.type_id`
	var conditions []string
	var args []interface{}

	if filter.TypeID != "" {
		conditions = append(conditions, fmt.Sprintf("g.type_id = $%d", len(args)+1))
		args = append(args, filter.TypeID)
	}
	if filter.Semester1 != nil {
		conditions = append(conditions, fmt.Sprintf("g.semester1 = $%d", len(args)+1))
		args = append(args, *filter.Semester1)
	}
	if filter.Semester2 != nil {
		conditions = append(conditions, fmt.Sprintf("g.semester2 = $%d", len(args)+1))
		args = append(args, *filter.Semester2)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"start_date": "g.start_date",
		"type_code":  "t.code",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "g.start_date"
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

	query := fmt.Sprintf(`SELECT g.id, g.type_id, g.start_date, g.end_date, g.semester1, g.semester2, g.comment, g.follow_up_type, g.created_at, g.updated_at,
        t.code AS type_code, t.label AS type_label
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var grants []models.AccommodationGrantDetail
	if err := r.db.SelectContext(ctx, &grants, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list grants: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count grants: %w", err)
	}
	return grants, total, nil
}

// FindByID returns a grant.
func (r *AccommodationRepository) FindByID(ctx context.Context, id string) (*models.AccommodationGrant, error) {
	const query = `SELECT id, type_id, start_date, end_date, semester1, semester2, comment, follow_up_type, created_at, updated_at FROM accommodation_grants WHERE id = $1`
	var grant models.AccommodationGrant
	if err := r.db.GetContext(ctx, &grant, query, id); err != nil {
		return nil, err
	}
	return &grant, nil
}

// Create persists a new grant.
func (r *AccommodationRepository) Create(ctx context.Context, grant *models.AccommodationGrant) error {
	if grant.ID == "" {
		grant.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	grant.CreatedAt = now
	grant.UpdatedAt = now
	const query = `INSERT INTO accommodation_grants (id, type_id, start_date, end_date, semester1, semester2, comment, follow_up_type, created_at, updated_at)
        VALUES (:id, :type_id, :start_date, :end_date, :semester1, :semester2, :comment, :follow_up_type, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grant); err != nil {
		return fmt.Errorf("create grant: %w", err)
	}
	return nil
}

// Update persists mutable grant fields.
func (r *AccommodationRepository) Update(ctx context.Context, grant *models.AccommodationGrant) error {
	grant.UpdatedAt = time.Now().UTC()
	const query = `UPDATE accommodation_grants SET type_id = :type_id, start_date = :start_date, end_date = :end_date,
        semester1 = :semester1, semester2 = :semester2, comment = :comment, follow_up_type = :follow_up_type,
        updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, grant); err != nil {
		return fmt.Errorf("update grant: %w", err)
	}
	return nil
}

// Delete removes a grant with no remaining attachments.
func (r *AccommodationRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM accommodation_grants WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete grant: %w", err)
	}
	return nil
}

// CountAttachments counts periods still referencing the grant.
func (r *AccommodationRepository) CountAttachments(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) FROM period_grants WHERE grant_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, id); err != nil {
		return 0, fmt.Errorf("count grant attachments: %w", err)
	}
	return count, nil
}

// ListTypes returns all accommodation types.
func (r *AccommodationRepository) ListTypes(ctx context.Context) ([]models.AccommodationType, error) {
	const query = `SELECT id, code, label FROM accommodation_types ORDER BY code`
	var types []models.AccommodationType
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, fmt.Errorf("list accommodation types: %w", err)
	}
	return types, nil
}
