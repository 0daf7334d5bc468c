package models

import "time"

// Enrollment is a student's administrative registration for an academic year.
// It only matters to role computation: a student counts as a requester while
// an enrollment's end date lies in the future.
type Enrollment struct {
	ID           string     `db:"id" json:"id"`
	StudentID    string     `db:"student_id" json:"student_id"`
	AcademicYear string     `db:"academic_year" json:"academic_year"`
	StartDate    time.Time  `db:"start_date" json:"start_date"`
	EndDate      *time.Time `db:"end_date" json:"end_date,omitempty"`
}
