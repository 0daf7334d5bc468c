package models

import "time"

// RequestState is one of the fixed workflow states of a request. The set is
// closed; transitions between states are decided by staff actions, the
// workflow layer only records them.
type RequestState string

const (
	RequestStateEnCours                         RequestState = "EN_COURS"
	RequestStateReceptionnee                    RequestState = "RECEPTIONNEE"
	RequestStateConforme                        RequestState = "CONFORME"
	RequestStateValidee                         RequestState = "VALIDEE"
	RequestStateRefusee                         RequestState = "REFUSEE"
	RequestStateProfilValide                    RequestState = "PROFIL_VALIDE"
	RequestStateAttenteCommission               RequestState = "ATTENTE_COMMISSION"
	RequestStateNonConforme                     RequestState = "NON_CONFORME"
	RequestStateAttenteValidationCharte         RequestState = "ATTENTE_VALIDATION_CHARTE"
	RequestStateAttenteValidationAccompagnement RequestState = "ATTENTE_VALIDATION_ACCOMPAGNEMENT"
)

// Request is a student's accommodation request inside a campaign. At most one
// request exists per (requester, campaign) pair; the lookup enforces it.
type Request struct {
	ID                string        `db:"id" json:"id"`
	CampaignID        string        `db:"campaign_id" json:"campaign_id"`
	RequesterID       string        `db:"requester_id" json:"requester_id"`
	SubmittedAt       *time.Time    `db:"submitted_at" json:"submitted_at,omitempty"`
	State             RequestState  `db:"state" json:"state"`
	AssignedProfileID *string       `db:"assigned_profile_id" json:"assigned_profile_id,omitempty"`
	Comment           string        `db:"comment" json:"comment"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time     `db:"updated_at" json:"updated_at"`
	History           []StateChange `db:"-" json:"history,omitempty"`
}

// StateChange is an append-only audit record of one workflow transition.
// Created exactly once per transition, never mutated or deleted.
type StateChange struct {
	ID                string        `db:"id" json:"id"`
	RequestID         string        `db:"request_id" json:"request_id"`
	NewState          RequestState  `db:"new_state" json:"new_state"`
	PreviousState     *RequestState `db:"previous_state" json:"previous_state,omitempty"`
	ActorID           string        `db:"actor_id" json:"actor_id"`
	Comment           *string       `db:"comment" json:"comment,omitempty"`
	AssignedProfileID *string       `db:"assigned_profile_id" json:"assigned_profile_id,omitempty"`
	CreatedAt         time.Time     `db:"created_at" json:"created_at"`
}

// RequestFilter provides filters for listing requests.
type RequestFilter struct {
	CampaignID  string
	RequesterID string
	State       RequestState
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
