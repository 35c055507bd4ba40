package members

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock
}

func TestAdd_Upserts(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `INSERT INTO journal_members .* ON CONFLICT \(journal_uid, user_id\) DO UPDATE SET wrapped_key = EXCLUDED\.wrapped_key`

	mock.ExpectExec(q).WithArgs("j1", "u2", []byte("k")).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Add(context.Background(), models.Member{JournalUID: "j1", UserID: "u2", WrappedKey: []byte("k")}))

	mock.ExpectExec(q).WillReturnError(errors.New("fk violation"))
	assert.Error(t, repo.Add(context.Background(), models.Member{JournalUID: "j1", UserID: "nobody"}))
}

func TestRemove(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	q := `DELETE FROM journal_members WHERE journal_uid = \$1 AND user_id = \$2`

	mock.ExpectExec(q).WithArgs("j1", "u2").WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Remove(context.Background(), "j1", "u2"))

	mock.ExpectExec(q).WithArgs("j1", "u3").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Remove(context.Background(), "j1", "u3"), common.ErrorNotFound)
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`SELECT user_id, wrapped_key FROM journal_members WHERE journal_uid = \$1`).WithArgs("j1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "wrapped_key"}).AddRow("u2", []byte("k2")).AddRow("u3", []byte("k3")))

	got, err := repo.List(context.Background(), "j1")
	require.NoError(t, err)
	assert.Equal(t, []models.Member{
		{JournalUID: "j1", UserID: "u2", WrappedKey: []byte("k2")},
		{JournalUID: "j1", UserID: "u3", WrappedKey: []byte("k3")},
	}, got)
}
