package models

import "time"

// ParameterValue is one slice of a system parameter's value timeline. Its
// validity window excludes both boundary dates, a rule inherited from the
// legacy system and preserved as-is.
type ParameterValue struct {
	ID           string     `db:"id" json:"id"`
	ParameterKey string     `db:"parameter_key" json:"parameter_key"`
	Value        string     `db:"value" json:"value"`
	StartDate    time.Time  `db:"start_date" json:"start_date"`
	EndDate      *time.Time `db:"end_date" json:"end_date,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
}
