package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventTypeRenfort is the sentinel event-type code marking reinforcement
// staff. An intervenant whose only event type is RENFORT is not counted as a
// support intervenant for role purposes.
const EventTypeRenfort = "RENFORT"

// EventType categorises support events (tutoring, note taking...).
type EventType struct {
	ID    string `db:"id" json:"id"`
	Code  string `db:"code" json:"code"`
	Label string `db:"label" json:"label"`
}

// Intervenant is a paid staff member delivering support events. The record is
// archived once EndDate has passed.
type Intervenant struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"user_id"`
	StartDate time.Time  `db:"start_date" json:"start_date"`
	EndDate   *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
}

// ForfaitPeriod is a fixed-allocation window crediting an intervenant a flat
// number of hours instead of per-event hours.
type ForfaitPeriod struct {
	ID            string          `db:"id" json:"id"`
	IntervenantID string          `db:"intervenant_id" json:"intervenant_id"`
	StartDate     time.Time       `db:"start_date" json:"start_date"`
	EndDate       *time.Time      `db:"end_date" json:"end_date,omitempty"`
	Hours         decimal.Decimal `db:"hours" json:"hours"`
}

// SupportEvent is a scheduled support intervention for a beneficiary period.
type SupportEvent struct {
	ID                  string    `db:"id" json:"id"`
	EventTypeID         string    `db:"event_type_id" json:"event_type_id"`
	IntervenantID       string    `db:"intervenant_id" json:"intervenant_id"`
	BeneficiaryPeriodID string    `db:"beneficiary_period_id" json:"beneficiary_period_id"`
	StartDate           time.Time `db:"start_date" json:"start_date"`
	EndDate             time.Time `db:"end_date" json:"end_date"`
}

// IntervenantFilter provides filters for listing intervenants.
type IntervenantFilter struct {
	UserID    string
	Archived  *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
