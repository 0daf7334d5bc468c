package models

import "time"

// CreateUserRequest is the admin payload for creating a user.
type CreateUserRequest struct {
	Email                string  `json:"email" validate:"required,email"`
	Password             string  `json:"password" validate:"required,min=8"`
	FullName             string  `json:"full_name" validate:"required"`
	StudentNumber        *string `json:"student_number,omitempty"`
	IsAdmin              bool    `json:"is_admin"`
	IsTechnicalRecipient bool    `json:"is_technical_recipient"`
	IsManager            bool    `json:"is_manager"`
}

// UpdateUserRequest is the admin payload for updating a user.
type UpdateUserRequest struct {
	Email                *string `json:"email,omitempty" validate:"omitempty,email"`
	FullName             *string `json:"full_name,omitempty"`
	StudentNumber        *string `json:"student_number,omitempty"`
	IsAdmin              *bool   `json:"is_admin,omitempty"`
	IsTechnicalRecipient *bool   `json:"is_technical_recipient,omitempty"`
	IsManager            *bool   `json:"is_manager,omitempty"`
	Active               *bool   `json:"active,omitempty"`
}

// OverrideRolesRequest replaces a user's stored role override. An empty list
// clears the override.
type OverrideRolesRequest struct {
	Roles []UserRole `json:"roles"`
}

// CreateCampaignRequest is the payload for opening a campaign.
type CreateCampaignRequest struct {
	RequestType   string     `json:"request_type" validate:"required"`
	StartDate     time.Time  `json:"start_date" validate:"required"`
	EndDate       time.Time  `json:"end_date" validate:"required"`
	CommitteeID   *string    `json:"committee_id,omitempty"`
	CommitteeDate *time.Time `json:"committee_date,omitempty"`
	ArchiveDate   *time.Time `json:"archive_date,omitempty"`
}

// UpdateCampaignRequest is the payload for updating a campaign.
type UpdateCampaignRequest struct {
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	CommitteeID   *string    `json:"committee_id,omitempty"`
	CommitteeDate *time.Time `json:"committee_date,omitempty"`
	ArchiveDate   *time.Time `json:"archive_date,omitempty"`
}

// SubmitRequestRequest is the payload for submitting an accommodation
// request into a campaign.
type SubmitRequestRequest struct {
	CampaignID string `json:"campaign_id" validate:"required"`
	Comment    string `json:"comment"`
}

// TransitionRequestRequest is the staff payload for moving a request to a new
// workflow state.
type TransitionRequestRequest struct {
	NewState          RequestState `json:"new_state" validate:"required"`
	Comment           *string      `json:"comment,omitempty"`
	AssignedProfileID *string      `json:"assigned_profile_id,omitempty"`
}

// CreateBeneficiaryPeriodRequest is the payload for enrolling a student in a
// support profile.
type CreateBeneficiaryPeriodRequest struct {
	StudentID   string     `json:"student_id" validate:"required"`
	ProfileID   string     `json:"profile_id" validate:"required"`
	ManagerID   *string    `json:"manager_id,omitempty"`
	StartDate   time.Time  `json:"start_date" validate:"required"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	WithSupport bool       `json:"with_support"`
}

// UpdateBeneficiaryPeriodRequest is the payload for updating a period.
type UpdateBeneficiaryPeriodRequest struct {
	ProfileID   *string    `json:"profile_id,omitempty"`
	ManagerID   *string    `json:"manager_id,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	WithSupport *bool      `json:"with_support,omitempty"`
}

// CreateOpinionRequest is the payload for attaching an ESE opinion.
type CreateOpinionRequest struct {
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Notes     string     `json:"notes"`
}

// CreateGrantRequest is the payload for creating an accommodation grant.
type CreateGrantRequest struct {
	TypeID       string     `json:"type_id" validate:"required"`
	StartDate    time.Time  `json:"start_date" validate:"required"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Semester1    bool       `json:"semester1"`
	Semester2    bool       `json:"semester2"`
	Comment      string     `json:"comment"`
	FollowUpType *string    `json:"follow_up_type,omitempty"`
}

// UpdateGrantRequest is the payload for updating a grant.
type UpdateGrantRequest struct {
	TypeID       *string    `json:"type_id,omitempty"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	Semester1    *bool      `json:"semester1,omitempty"`
	Semester2    *bool      `json:"semester2,omitempty"`
	Comment      *string    `json:"comment,omitempty"`
	FollowUpType *string    `json:"follow_up_type,omitempty"`
}

// CreateIntervenantRequest is the payload for registering an intervenant.
type CreateIntervenantRequest struct {
	UserID    string     `json:"user_id" validate:"required"`
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}

// CreateForfaitPeriodRequest is the payload for crediting a forfait window.
type CreateForfaitPeriodRequest struct {
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date,omitempty"`
	Hours     string     `json:"hours" validate:"required"`
}

// ScheduleEventRequest is the payload for scheduling a support event.
type ScheduleEventRequest struct {
	EventTypeID         string    `json:"event_type_id" validate:"required"`
	BeneficiaryPeriodID string    `json:"beneficiary_period_id" validate:"required"`
	StartDate           time.Time `json:"start_date" validate:"required"`
	EndDate             time.Time `json:"end_date" validate:"required"`
}

// CreateRateRequest is the payload for appending a rate timeline entry.
type CreateRateRequest struct {
	EventTypeID string     `json:"event_type_id" validate:"required"`
	Amount      string     `json:"amount" validate:"required"`
	StartDate   time.Time  `json:"start_date" validate:"required"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

// CreateParameterValueRequest is the payload for appending a parameter value.
type CreateParameterValueRequest struct {
	Key       string     `json:"key" validate:"required"`
	Value     string     `json:"value" validate:"required"`
	StartDate time.Time  `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date,omitempty"`
}
