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

func requestRows(id, campaignID, requesterID string, state models.RequestState) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "campaign_id", "requester_id", "submitted_at", "state", "assigned_profile_id", "comment", "created_at", "updated_at"}).
		AddRow(id, campaignID, requesterID, time.Now(), state, nil, "", time.Now(), time.Now())
}

func TestRequestRepositoryCreateAndFind(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO requests")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	request := &models.Request{
		CampaignID:  "camp-1",
		RequesterID: "user-1",
		State:       models.RequestStateEnCours,
	}
	require.NoError(t, repo.Create(context.Background(), request))
	require.NotEmpty(t, request.ID)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, campaign_id, requester_id")).
		WithArgs(request.ID).
		WillReturnRows(requestRows(request.ID, "camp-1", "user-1", models.RequestStateEnCours))

	found, err := repo.FindByID(context.Background(), request.ID)
	require.NoError(t, err)
	require.Equal(t, models.RequestStateEnCours, found.State)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryFindByCampaignAndRequesterMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, campaign_id, requester_id")).
		WithArgs("camp-1", "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	found, err := repo.FindByCampaignAndRequester(context.Background(), "camp-1", "user-1")
	require.NoError(t, err)
	require.Nil(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateStateIsTransactional(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	prev := models.RequestStateEnCours

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO state_changes")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	request := &models.Request{ID: "req-1", State: models.RequestStateReceptionnee}
	change := &models.StateChange{
		RequestID:     "req-1",
		NewState:      models.RequestStateReceptionnee,
		PreviousState: &prev,
		ActorID:       "staff-1",
		CreatedAt:     time.Now(),
	}
	require.NoError(t, repo.UpdateState(context.Background(), request, change))
	require.NotEmpty(t, change.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryUpdateStateRollsBackOnHistoryFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO state_changes")).
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	request := &models.Request{ID: "req-1", State: models.RequestStateReceptionnee}
	change := &models.StateChange{RequestID: "req-1", NewState: models.RequestStateReceptionnee, ActorID: "staff-1", CreatedAt: time.Now()}
	require.Error(t, repo.UpdateState(context.Background(), request, change))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestRepositoryListStateChangesOldestFirst(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewRequestRepository(db)
	prev := models.RequestStateEnCours
	rows := sqlmock.NewRows([]string{"id", "request_id", "new_state", "previous_state", "actor_id", "comment", "assigned_profile_id", "created_at"}).
		AddRow("sc-1", "req-1", "EN_COURS", nil, "user-1", nil, nil, time.Now().Add(-time.Hour)).
		AddRow("sc-2", "req-1", "RECEPTIONNEE", string(prev), "staff-1", nil, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, request_id, new_state")).
		WithArgs("req-1").
		WillReturnRows(rows)

	changes, err := repo.ListStateChanges(context.Background(), "req-1")
	require.NoError(t, err)
	require.Len(t, changes, 2)
	require.Nil(t, changes[0].PreviousState)
	require.Equal(t, models.RequestStateReceptionnee, changes[1].NewState)
	require.NoError(t, mock.ExpectationsWereMet())
}
