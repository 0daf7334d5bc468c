package models

import "time"

// UserRole identifies one of the fixed permission roles. The string values
// are wire-level identifiers shared with the front-end and must not change.
type UserRole string

const (
	RoleUser               UserRole = "USER"
	RoleDemandeur          UserRole = "DEMANDEUR"
	RoleMembreCommission   UserRole = "MEMBRE_COMMISSION"
	RoleReferentComposante UserRole = "REFERENT_COMPOSANTE"
	RoleBeneficiaire       UserRole = "BENEFICIAIRE"
	RoleIntervenant        UserRole = "INTERVENANT"
	RoleAdmin              UserRole = "ADMIN"
	RoleAdminTechnique     UserRole = "ADMIN_TECHNIQUE"
	RoleGestionnaire       UserRole = "GESTIONNAIRE"
	RolePlanificateur      UserRole = "PLANIFICATEUR"
	RoleRenfort            UserRole = "RENFORT"
)

// User represents an application user stored in the users table.
type User struct {
	ID                   string     `db:"id" json:"id"`
	Email                string     `db:"email" json:"email"`
	PasswordHash         string     `db:"password_hash" json:"-"`
	FullName             string     `db:"full_name" json:"full_name"`
	StudentNumber        *string    `db:"student_number" json:"student_number,omitempty"`
	IsAdmin              bool       `db:"is_admin" json:"is_admin"`
	IsTechnicalRecipient bool       `db:"is_technical_recipient" json:"is_technical_recipient"`
	IsManager            bool       `db:"is_manager" json:"is_manager"`
	Active               bool       `db:"active" json:"active"`
	LastLogin            *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
