package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateEntry is one slice of the hourly pay rate timeline for an event type.
// Entries for the same event type are expected not to overlap; the resolver
// documents first-match behaviour when they do.
type RateEntry struct {
	ID          string          `db:"id" json:"id"`
	EventTypeID string          `db:"event_type_id" json:"event_type_id"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	StartDate   time.Time       `db:"start_date" json:"start_date"`
	EndDate     *time.Time      `db:"end_date" json:"end_date,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}
