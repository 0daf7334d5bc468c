package models

import "time"

// Profile is a support profile a student can be enrolled into (PAEH, PAS...).
type Profile struct {
	ID    string `db:"id" json:"id"`
	Code  string `db:"code" json:"code"`
	Label string `db:"label" json:"label"`
}

// BeneficiaryPeriod records a student's enrollment in a support profile over
// a date range. A nil EndDate means the period is still running.
type BeneficiaryPeriod struct {
	ID          string     `db:"id" json:"id"`
	StudentID   string     `db:"student_id" json:"student_id"`
	ProfileID   string     `db:"profile_id" json:"profile_id"`
	ManagerID   *string    `db:"manager_id" json:"manager_id,omitempty"`
	StartDate   time.Time  `db:"start_date" json:"start_date"`
	EndDate     *time.Time `db:"end_date" json:"end_date,omitempty"`
	WithSupport bool       `db:"with_support" json:"with_support"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// BeneficiaryPeriodDetail enriches a period with display info.
type BeneficiaryPeriodDetail struct {
	BeneficiaryPeriod
	StudentName  string  `db:"student_name" json:"student_name"`
	ProfileLabel string  `db:"profile_label" json:"profile_label"`
	ManagerName  *string `db:"manager_name" json:"manager_name,omitempty"`
	Active       bool    `db:"-" json:"active"`
}

// BeneficiaryFilter provides filters for listing beneficiary periods.
type BeneficiaryFilter struct {
	StudentID   string
	ProfileID   string
	ManagerID   string
	WithSupport *bool
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// EseOpinion is the health-service opinion attached to a beneficiary period.
// Its validity window is end-inclusive, unlike the period itself.
type EseOpinion struct {
	ID                  string     `db:"id" json:"id"`
	BeneficiaryPeriodID string     `db:"beneficiary_period_id" json:"beneficiary_period_id"`
	StartDate           time.Time  `db:"start_date" json:"start_date"`
	EndDate             *time.Time `db:"end_date" json:"end_date,omitempty"`
	Notes               string     `db:"notes" json:"notes"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
}
