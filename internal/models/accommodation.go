package models

import "time"

// AccommodationType categorises grants (extra exam time, note taker...).
type AccommodationType struct {
	ID    string `db:"id" json:"id"`
	Code  string `db:"code" json:"code"`
	Label string `db:"label" json:"label"`
}

// AccommodationGrant is a specific accommodation attached to one or more
// beneficiary periods. Activity is a derived fact, never persisted: the grant
// is active on any instant between StartDate and EndDate, both inclusive.
type AccommodationGrant struct {
	ID           string     `db:"id" json:"id"`
	TypeID       string     `db:"type_id" json:"type_id"`
	StartDate    time.Time  `db:"start_date" json:"start_date"`
	EndDate      *time.Time `db:"end_date" json:"end_date,omitempty"`
	Semester1    bool       `db:"semester1" json:"semester1"`
	Semester2    bool       `db:"semester2" json:"semester2"`
	Comment      string     `db:"comment" json:"comment"`
	FollowUpType *string    `db:"follow_up_type" json:"follow_up_type,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// AccommodationGrantDetail adds type info and the derived activity flag.
type AccommodationGrantDetail struct {
	AccommodationGrant
	TypeCode  string `db:"type_code" json:"type_code"`
	TypeLabel string `db:"type_label" json:"type_label"`
	Active    bool   `db:"-" json:"active"`
}

// AccommodationFilter provides filters for listing grants.
type AccommodationFilter struct {
	TypeID    string
	Semester1 *bool
	Semester2 *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
