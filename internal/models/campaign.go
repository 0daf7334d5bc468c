package models

import "time"

// Campaign is a time-boxed application window for accommodation requests.
// Unlike every other interval in the domain, a campaign is open on both of
// its boundary dates.
type Campaign struct {
	ID            string     `db:"id" json:"id"`
	RequestType   string     `db:"request_type" json:"request_type"`
	StartDate     time.Time  `db:"start_date" json:"start_date"`
	EndDate       time.Time  `db:"end_date" json:"end_date"`
	CommitteeID   *string    `db:"committee_id" json:"committee_id,omitempty"`
	CommitteeDate *time.Time `db:"committee_date" json:"committee_date,omitempty"`
	ArchiveDate   *time.Time `db:"archive_date" json:"archive_date,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

// CampaignFilter provides filters for listing campaigns.
type CampaignFilter struct {
	RequestType string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
