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

// BeneficiaryRepository handles persistence of beneficiary periods, their
// grant attachments and ESE opinions.
type BeneficiaryRepository struct {
	db *sqlx.DB
}

// NewBeneficiaryRepository constructs the repository.
func NewBeneficiaryRepository(db *sqlx.DB) *BeneficiaryRepository {
	return &BeneficiaryRepository{db: db}
}

// List returns beneficiary periods with display info.
func (r *BeneficiaryRepository) List(ctx context.Context, filter models.BeneficiaryFilter) ([]models.BeneficiaryPeriodDetail, int, error) {
	base := `FROM beneficiary_periods b
LEFT JOIN users s ON s.id = b.student_id
LEFT JOIN profiles p ON p.id = b.profile_id
LEFT JOIN users m ON m.id = b.manager_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("b.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ProfileID != "" {
		conditions = append(conditions, fmt.Sprintf("b.profile_id = $%d", len(args)+1))
		args = append(args, filter.ProfileID)
	}
	if filter.ManagerID != "" {
		conditions = append(conditions, fmt.Sprintf("b.manager_id = $%d", len(args)+1))
		args = append(args, filter.ManagerID)
	}
	if filter.WithSupport != nil {
		conditions = append(conditions, fmt.Sprintf("b.with_support = $%d", len(args)+1))
		args = append(args, *filter.WithSupport)
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"start_date":   "b.start_date",
		"student_name": "s.full_name",
	}
	orderBy := allowedSorts[filter.SortBy]
	if orderBy == "" {
		orderBy = "b.start_date"
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

	query := fmt.Sprintf(`SELECT b.id, b.student_id, b.profile_id, b.manager_id, b.start_date, b.end_date, b.with_support, b.created_at, b.updated_at,
        s.full_name AS student_name, p.label AS profile_label, m.full_name AS manager_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var periods []models.BeneficiaryPeriodDetail
	if err := r.db.SelectContext(ctx, &periods, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list beneficiary periods: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count beneficiary periods: %w", err)
	}
	return periods, total, nil
}

// FindByID returns a beneficiary period.
func (r *BeneficiaryRepository) FindByID(ctx context.Context, id string) (*models.BeneficiaryPeriod, error) {
	const query = `SELECT id, student_id, profile_id, manager_id, start_date, end_date, with_support, created_at, updated_at FROM beneficiary_periods WHERE id = $1`
	var period models.BeneficiaryPeriod
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// ListByStudent returns all of a student's beneficiary periods.
func (r *BeneficiaryRepository) ListByStudent(ctx context.Context, studentID string) ([]models.BeneficiaryPeriod, error) {
	const query = `SELECT id, student_id, profile_id, manager_id, start_date, end_date, with_support, created_at, updated_at FROM beneficiary_periods WHERE student_id = $1 ORDER BY start_date`
	var periods []models.BeneficiaryPeriod
	if err := r.db.SelectContext(ctx, &periods, query, studentID); err != nil {
		return nil, fmt.Errorf("list student periods: %w", err)
	}
	return periods, nil
}

// CountByStudent counts a student's beneficiary periods.
func (r *BeneficiaryRepository) CountByStudent(ctx context.Context, studentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM beneficiary_periods WHERE student_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("count student periods: %w", err)
	}
	return count, nil
}

// Create persists a new beneficiary period.
func (r *BeneficiaryRepository) Create(ctx context.Context, period *models.BeneficiaryPeriod) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	period.CreatedAt = now
	period.UpdatedAt = now
	const query = `INSERT INTO beneficiary_periods (id, student_id, profile_id, manager_id, start_date, end_date, with_support, created_at, updated_at)
        VALUES (:id, :student_id, :profile_id, :manager_id, :start_date, :end_date, :with_support, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create beneficiary period: %w", err)
	}
	return nil
}

// Update persists mutable period fields.
func (r *BeneficiaryRepository) Update(ctx context.Context, period *models.BeneficiaryPeriod) error {
	period.UpdatedAt = time.Now().UTC()
	const query = `UPDATE beneficiary_periods SET profile_id = :profile_id, manager_id = :manager_id, start_date = :start_date,
        end_date = :end_date, with_support = :with_support, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("update beneficiary period: %w", err)
	}
	return nil
}

// ListGrants returns the grants attached to a period.
func (r *BeneficiaryRepository) ListGrants(ctx context.Context, periodID string) ([]models.AccommodationGrant, error) {
	const query = `SELECT g.id, g.type_id, g.start_date, g.end_date, g.semester1, g.semester2, g.comment, g.follow_up_type, g.created_at, g.updated_at
        FROM accommodation_grants g
        JOIN period_grants pg ON pg.grant_id = g.id
        WHERE pg.period_id = $1 ORDER BY g.start_date`
	var grants []models.AccommodationGrant
	if err := r.db.SelectContext(ctx, &grants, query, periodID); err != nil {
		return nil, fmt.Errorf("list period grants: %w", err)
	}
	return grants, nil
}

// AttachGrant links a grant to a period.
func (r *BeneficiaryRepository) AttachGrant(ctx context.Context, periodID, grantID string) error {
	const query = `INSERT INTO period_grants (period_id, grant_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, periodID, grantID); err != nil {
		return fmt.Errorf("attach grant: %w", err)
	}
	return nil
}

// DetachGrant removes a grant link from a period.
func (r *BeneficiaryRepository) DetachGrant(ctx context.Context, periodID, grantID string) error {
	const query = `DELETE FROM period_grants WHERE period_id = $1 AND grant_id = $2`
	if _, err := r.db.ExecContext(ctx, query, periodID, grantID); err != nil {
		return fmt.Errorf("detach grant: %w", err)
	}
	return nil
}

// ListOpinions returns the ESE opinions of a period.
func (r *BeneficiaryRepository) ListOpinions(ctx context.Context, periodID string) ([]models.EseOpinion, error) {
	const query = `SELECT id, beneficiary_period_id, start_date, end_date, notes, created_at FROM ese_opinions WHERE beneficiary_period_id = $1 ORDER BY start_date`
	var opinions []models.EseOpinion
	if err := r.db.SelectContext(ctx, &opinions, query, periodID); err != nil {
		return nil, fmt.Errorf("list opinions: %w", err)
	}
	return opinions, nil
}

// CreateOpinion appends an ESE opinion to a period.
func (r *BeneficiaryRepository) CreateOpinion(ctx context.Context, opinion *models.EseOpinion) error {
	if opinion.ID == "" {
		opinion.ID = uuid.NewString()
	}
	if opinion.CreatedAt.IsZero() {
		opinion.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO ese_opinions (id, beneficiary_period_id, start_date, end_date, notes, created_at)
        VALUES (:id, :beneficiary_period_id, :start_date, :end_date, :notes, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, opinion); err != nil {
		return fmt.Errorf("create opinion: %w", err)
	}
	return nil
}

// FindProfile returns a support profile.
func (r *BeneficiaryRepository) FindProfile(ctx context.Context, id string) (*models.Profile, error) {
	const query = `SELECT id, code, label FROM profiles WHERE id = $1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		return nil, err
	}
	return &profile, nil
}
