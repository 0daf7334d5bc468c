package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/univ-dsi/accessplan-api/internal/models"
)

func TestBeneficiaryRepositoryCreateAndListByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBeneficiaryRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO beneficiary_periods")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	period := &models.BeneficiaryPeriod{
		StudentID: "student-1",
		ProfileID: "profile-1",
		StartDate: time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.Create(context.Background(), period))
	require.NotEmpty(t, period.ID)

	rows := sqlmock.NewRows([]string{"id", "student_id", "profile_id", "manager_id", "start_date", "end_date", "with_support", "created_at", "updated_at"}).
		AddRow(period.ID, "student-1", "profile-1", nil, period.StartDate, nil, false, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, profile_id")).
		WithArgs("student-1").
		WillReturnRows(rows)

	periods, err := repo.ListByStudent(context.Background(), "student-1")
	require.NoError(t, err)
	require.Len(t, periods, 1)
	require.Nil(t, periods[0].EndDate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBeneficiaryRepositoryAttachGrantIsIdempotent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBeneficiaryRepository(db)

	// ON CONFLICT DO NOTHING: re-attaching reports zero rows, no error.
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO period_grants")).
		WithArgs("period-1", "grant-1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO period_grants")).
		WithArgs("period-1", "grant-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.AttachGrant(context.Background(), "period-1", "grant-1"))
	require.NoError(t, repo.AttachGrant(context.Background(), "period-1", "grant-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBeneficiaryRepositoryListGrants(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBeneficiaryRepository(db)
	rows := sqlmock.NewRows([]string{"id", "type_id", "start_date", "end_date", "semester1", "semester2", "comment", "follow_up_type", "created_at", "updated_at"}).
		AddRow("grant-1", "type-1", time.Now(), nil, true, false, "tiers temps", nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT g.id, g.type_id")).
		WithArgs("period-1").
		WillReturnRows(rows)

	grants, err := repo.ListGrants(context.Background(), "period-1")
	require.NoError(t, err)
	require.Len(t, grants, 1)
	require.Equal(t, "grant-1", grants[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBeneficiaryRepositoryCreateOpinion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBeneficiaryRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ese_opinions")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	opinion := &models.EseOpinion{
		BeneficiaryPeriodID: "period-1",
		StartDate:           time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, repo.CreateOpinion(context.Background(), opinion))
	require.NotEmpty(t, opinion.ID)
	require.False(t, opinion.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
