package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/univ-dsi/accessplan-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func userRows(id, email string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "password_hash", "full_name", "student_number", "is_admin", "is_technical_recipient", "is_manager", "active", "last_login", "created_at", "updated_at"}).
		AddRow(id, email, "$2a$10$hash", "Marie Dupont", "21900042", false, false, false, true, nil, time.Now(), time.Now())
}

func TestUserRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO users")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{
		Email:    "marie.dupont@univ.fr",
		FullName: "Marie Dupont",
		Active:   true,
	}
	require.NoError(t, repo.Create(context.Background(), user))
	require.NotEmpty(t, user.ID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash")).
		WithArgs(user.ID).
		WillReturnRows(userRows(user.ID, user.Email))

	found, err := repo.FindByID(context.Background(), user.ID)
	require.NoError(t, err)
	require.Equal(t, user.Email, found.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, password_hash")).
		WithArgs("marie.dupont@univ.fr").
		WillReturnRows(userRows("user-1", "marie.dupont@univ.fr"))

	found, err := repo.FindByEmail(context.Background(), "marie.dupont@univ.fr")
	require.NoError(t, err)
	require.Equal(t, "user-1", found.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRoleOverrideRoundTrip(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_roles")).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_roles")).
		WithArgs("user-1", models.RoleGestionnaire, 0).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_roles")).
		WithArgs("user-1", models.RoleUser, 1).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	err := repo.ReplaceRoleOverride(context.Background(), "user-1", []models.UserRole{models.RoleGestionnaire, models.RoleUser})
	require.NoError(t, err)

	rows := sqlmock.NewRows([]string{"role"}).
		AddRow("GESTIONNAIRE").
		AddRow("USER")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM user_roles")).
		WithArgs("user-1").
		WillReturnRows(rows)

	roles, err := repo.FindRoleOverride(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, []models.UserRole{models.RoleGestionnaire, models.RoleUser}, roles)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryRoleOverrideRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM user_roles")).
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user_roles")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	err := repo.ReplaceRoleOverride(context.Background(), "user-1", []models.UserRole{models.RoleUser})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryMembershipCounts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewUserRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM commission_members")).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountCommissionMemberships(context.Background(), "user-1")
	require.NoError(t, err)
	require.Equal(t, 2, count)
	require.NoError(t, mock.ExpectationsWereMet())
}
