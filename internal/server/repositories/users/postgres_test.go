package users

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/taskjournal/internal/common"
	"github.com/dmitrijs2005/taskjournal/internal/server/models"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepository(db), mock, db
}

const insertUser = `(?s)^\s*INSERT\s+INTO\s+users\s*\(username,\s*salt,\s*master_key_verifier\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3\)\s*RETURNING\s+id,\s*created_at\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	now := time.Now()
	mock.ExpectQuery(insertUser).
		WithArgs("alice", []byte("salt"), []byte("verifier")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("42", now))

	got, err := repo.Create(context.Background(), &models.User{UserName: "alice", Salt: []byte("salt"), Verifier: []byte("verifier")})
	require.NoError(t, err)
	assert.Equal(t, "42", got.ID)
	assert.Equal(t, now, got.CreatedAt)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_Duplicate(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(insertUser).
		WithArgs("alice", []byte("salt"), []byte("verifier")).
		WillReturnError(&pgconn.PgError{Code: "23505"})

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice", Salt: []byte("salt"), Verifier: []byte("verifier")})
	assert.ErrorIs(t, err, common.ErrorAlreadyExists)
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(insertUser).WillReturnError(errors.New("db down"))

	_, err := repo.Create(context.Background(), &models.User{UserName: "alice"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error: db down")
}

const selectUser = `(?s)^\s*SELECT\s+id,\s*username,\s*master_key_verifier,\s*salt\s+FROM\s+users\s+WHERE\s+username\s*=\s*\$1\s*$`

func TestGetUserByLogin(t *testing.T) {
	repo, mock, _ := newRepoWithMock(t)

	mock.ExpectQuery(selectUser).
		WithArgs("alice").
		WillReturnRows(sqlmock.NewRows([]string{"id", "username", "master_key_verifier", "salt"}).
			AddRow("u-1", "alice", []byte("ver"), []byte("salt")))
	got, err := repo.GetUserByLogin(context.Background(), "alice")
	require.NoError(t, err)
	assert.Equal(t, &models.User{ID: "u-1", UserName: "alice", Verifier: []byte("ver"), Salt: []byte("salt")}, got)

	mock.ExpectQuery(selectUser).WithArgs("bob").WillReturnError(sql.ErrNoRows)
	_, err = repo.GetUserByLogin(context.Background(), "bob")
	assert.ErrorIs(t, err, common.ErrorNotFound)

	mock.ExpectQuery(selectUser).WithArgs("carol").WillReturnError(errors.New("boom"))
	_, err = repo.GetUserByLogin(context.Background(), "carol")
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrorNotFound)
}
