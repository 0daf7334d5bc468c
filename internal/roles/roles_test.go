package roles

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/univ-dsi/accessplan-api/internal/models"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(t time.Time) *time.Time {
	return &t
}

func strPtr(s string) *string {
	return &s
}

func TestStoredOverrideWinsOverComputedFacts(t *testing.T) {
	// Contradictory facts: the admin flag would normally grant ADMIN and
	// friends, but the stored override short-circuits everything.
	f := Facts{
		StoredRoles:        []models.UserRole{models.RoleUser},
		IsAdmin:            true,
		BeneficiaryPeriods: 3,
		CommissionCount:    1,
	}

	got := Compute(f, date(2024, 6, 1))
	assert.Equal(t, []models.UserRole{models.RoleUser}, got)
}

func TestEveryoneGetsUser(t *testing.T) {
	got := Compute(Facts{}, date(2024, 6, 1))
	assert.Equal(t, []models.UserRole{models.RoleUser}, got)
}

func TestDemandeurRequiresStudentNumber(t *testing.T) {
	f := Facts{
		Requests: []models.Request{{State: models.RequestStateEnCours}},
	}
	got := Compute(f, date(2024, 6, 1))
	assert.NotContains(t, got, models.RoleDemandeur)

	f.StudentNumber = strPtr("123")
	got = Compute(f, date(2024, 6, 1))
	assert.Contains(t, got, models.RoleDemandeur)
}

func TestDemandeurFromPendingRequestStates(t *testing.T) {
	now := date(2024, 6, 1)
	base := Facts{StudentNumber: strPtr("123")}

	for _, state := range []models.RequestState{models.RequestStateEnCours, models.RequestStateNonConforme} {
		f := base
		f.Requests = []models.Request{{State: state}}
		assert.Contains(t, Compute(f, now), models.RoleDemandeur, string(state))
	}

	f := base
	f.Requests = []models.Request{{State: models.RequestStateValidee}}
	assert.NotContains(t, Compute(f, now), models.RoleDemandeur)
}

// Student 123, no requests, one enrollment that ended 2024-01-01, evaluated
// mid-2024: no qualifying fact remains, DEMANDEUR is absent.
func TestDemandeurAbsentAfterEnrollmentEnds(t *testing.T) {
	f := Facts{
		StudentNumber: strPtr("123"),
		Enrollments:   []models.Enrollment{{EndDate: datePtr(date(2024, 1, 1))}},
	}

	got := Compute(f, date(2024, 6, 1))
	assert.NotContains(t, got, models.RoleDemandeur)
}

func TestDemandeurFromRunningEnrollment(t *testing.T) {
	f := Facts{
		StudentNumber: strPtr("123"),
		Enrollments:   []models.Enrollment{{EndDate: datePtr(date(2025, 8, 31))}},
	}

	got := Compute(f, date(2024, 6, 1))
	assert.Contains(t, got, models.RoleDemandeur)
}

func TestBeneficiaireByExistenceNotActivity(t *testing.T) {
	// A single long-ended period still grants the role.
	f := Facts{BeneficiaryPeriods: 1}
	got := Compute(f, date(2024, 6, 1))
	assert.Contains(t, got, models.RoleBeneficiaire)
}

func TestIntervenantExcludesRenfortOnly(t *testing.T) {
	now := date(2024, 6, 1)
	active := &models.Intervenant{EndDate: datePtr(date(2025, 1, 1))}

	renfortOnly := Facts{
		Intervenant: active,
		EventTypes:  []models.EventType{{Code: models.EventTypeRenfort}},
	}
	assert.NotContains(t, Compute(renfortOnly, now), models.RoleIntervenant)

	mixed := Facts{
		Intervenant: active,
		EventTypes: []models.EventType{
			{Code: models.EventTypeRenfort},
			{Code: "TUTORAT"},
		},
	}
	assert.Contains(t, Compute(mixed, now), models.RoleIntervenant)
}

func TestIntervenantArchivedRecordDoesNotCount(t *testing.T) {
	now := date(2024, 6, 1)
	archived := &models.Intervenant{EndDate: datePtr(date(2024, 1, 1))}

	f := Facts{
		Intervenant: archived,
		EventTypes:  []models.EventType{{Code: "TUTORAT"}},
	}
	assert.NotContains(t, Compute(f, now), models.RoleIntervenant)
}

func TestAdminExpandsToManagementRoles(t *testing.T) {
	got := Compute(Facts{IsAdmin: true}, date(2024, 6, 1))
	assert.Contains(t, got, models.RoleAdmin)
	assert.Contains(t, got, models.RoleGestionnaire)
	assert.Contains(t, got, models.RolePlanificateur)
	assert.NotContains(t, got, models.RoleAdminTechnique)

	got = Compute(Facts{IsAdmin: true, IsTechnicalRecipient: true}, date(2024, 6, 1))
	assert.Contains(t, got, models.RoleAdminTechnique)
}

func TestTechnicalRecipientWithoutAdminIsInert(t *testing.T) {
	got := Compute(Facts{IsTechnicalRecipient: true}, date(2024, 6, 1))
	assert.Equal(t, []models.UserRole{models.RoleUser}, got)
}

func TestServiceScopedRoles(t *testing.T) {
	now := date(2024, 6, 1)
	active := &models.Intervenant{EndDate: datePtr(date(2025, 1, 1))}
	renfort := []models.EventType{{Code: models.EventTypeRenfort}}

	// Renfort intervenant in a service gains RENFORT and PLANIFICATEUR.
	f := Facts{ServiceCount: 1, Intervenant: active, EventTypes: renfort}
	got := Compute(f, now)
	assert.Contains(t, got, models.RoleRenfort)
	assert.Contains(t, got, models.RolePlanificateur)

	// Without service membership, the renfort facts grant nothing.
	f.ServiceCount = 0
	got = Compute(f, now)
	assert.NotContains(t, got, models.RoleRenfort)
	assert.NotContains(t, got, models.RolePlanificateur)

	// Manager flag inside a service.
	got = Compute(Facts{ServiceCount: 1, IsManager: true}, now)
	assert.Contains(t, got, models.RoleGestionnaire)
	assert.Contains(t, got, models.RolePlanificateur)
}

func TestComputeIsIdempotentAndDeduplicated(t *testing.T) {
	f := Facts{
		StudentNumber:   strPtr("123"),
		Requests:        []models.Request{{State: models.RequestStateEnCours}},
		IsAdmin:         true,
		ServiceCount:    2,
		IsManager:       true,
		CommissionCount: 1,
	}
	now := date(2024, 6, 1)

	first := Compute(f, now)
	second := Compute(f, now)
	require.Equal(t, first, second)

	seen := make(map[models.UserRole]int)
	for _, r := range first {
		seen[r]++
	}
	for role, count := range seen {
		assert.Equal(t, 1, count, string(role))
	}
}
