// Package roles derives a user's effective permission-role set from stored
// flags and computed temporal facts.
package roles

import (
	"time"

	"github.com/univ-dsi/accessplan-api/internal/models"
)

// Facts is the snapshot the role computation reads. The repository layer
// assembles it; the computation itself is pure and idempotent for a given
// snapshot and instant.
type Facts struct {
	StoredRoles          []models.UserRole
	StudentNumber        *string
	Requests             []models.Request
	Enrollments          []models.Enrollment
	BeneficiaryPeriods   int
	CommissionCount      int
	ComposanteCount      int
	ServiceCount         int
	Intervenant          *models.Intervenant
	EventTypes           []models.EventType
	IsAdmin              bool
	IsTechnicalRecipient bool
	IsManager            bool
}

// Compute returns the effective role set. A non-empty stored override wins
// outright and makes the computed branch unreachable. Otherwise roles are
// accumulated in a fixed check order and deduplicated, so the result is
// stable for a given snapshot.
func Compute(f Facts, now time.Time) []models.UserRole {
	if len(f.StoredRoles) > 0 {
		return append([]models.UserRole(nil), f.StoredRoles...)
	}

	var set []models.UserRole
	add := func(r models.UserRole) {
		for _, existing := range set {
			if existing == r {
				return
			}
		}
		set = append(set, r)
	}

	add(models.RoleUser)

	if f.StudentNumber != nil && (hasPendingRequest(f.Requests) || hasRunningEnrollment(f.Enrollments, now)) {
		add(models.RoleDemandeur)
	}
	if f.CommissionCount > 0 {
		add(models.RoleMembreCommission)
	}
	if f.ComposanteCount > 0 {
		add(models.RoleReferentComposante)
	}
	if f.BeneficiaryPeriods > 0 {
		// Existence, not temporal activity: a former beneficiary keeps
		// read access to their own records.
		add(models.RoleBeneficiaire)
	}
	if intervenantActive(f.Intervenant, now) && hasEventTypeOtherThan(f.EventTypes, models.EventTypeRenfort) {
		add(models.RoleIntervenant)
	}
	if f.IsAdmin {
		add(models.RoleAdmin)
		add(models.RoleGestionnaire)
		add(models.RolePlanificateur)
		if f.IsTechnicalRecipient {
			add(models.RoleAdminTechnique)
		}
	}
	if f.ServiceCount > 0 {
		if intervenantActive(f.Intervenant, now) && hasEventType(f.EventTypes, models.EventTypeRenfort) {
			add(models.RoleRenfort)
			add(models.RolePlanificateur)
		}
		if f.IsManager {
			add(models.RoleGestionnaire)
			add(models.RolePlanificateur)
		}
	}

	return set
}

func hasPendingRequest(requests []models.Request) bool {
	for _, r := range requests {
		if r.State == models.RequestStateEnCours || r.State == models.RequestStateNonConforme {
			return true
		}
	}
	return false
}

func hasRunningEnrollment(enrollments []models.Enrollment, now time.Time) bool {
	for _, e := range enrollments {
		if e.EndDate == nil || e.EndDate.After(now) {
			return true
		}
	}
	return false
}

func intervenantActive(i *models.Intervenant, now time.Time) bool {
	if i == nil {
		return false
	}
	return i.EndDate == nil || now.Before(*i.EndDate)
}

func hasEventType(types []models.EventType, code string) bool {
	for _, t := range types {
		if t.Code == code {
			return true
		}
	}
	return false
}

func hasEventTypeOtherThan(types []models.EventType, code string) bool {
	for _, t := range types {
		if t.Code != code {
			return true
		}
	}
	return false
}
