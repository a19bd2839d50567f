package records

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	cols    = []string{"id", "owner_id", "client_id", "data", "created_at", "updated_at"}
	created = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db, "notes"), mock
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	rows := sqlmock.NewRows(cols).
		AddRow(int64(1), "u1", "c-1", []byte(`{"title":"a"}`), created, created).
		AddRow(int64(2), "u1", "", `{"title":"b"}`, created, created.Add(time.Hour))
	mock.ExpectQuery(`(?s)SELECT\s+id,\s*owner_id,.*FROM\s+notes\s+WHERE\s+owner_id\s*=\s*\$1\s+ORDER\s+BY\s+id`).
		WithArgs("u1").
		WillReturnRows(rows)

	got, err := repo.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, "c-1", got[0].ClientID)
	assert.JSONEq(t, `{"title":"b"}`, string(got[1].Data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestList_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+notes`).WithArgs("u1").WillReturnRows(sqlmock.NewRows(cols))

	got, err := repo.List(context.Background(), "u1")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestList_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`FROM\s+notes`).WithArgs("u1").WillReturnError(errors.New("db down"))

	_, err := repo.List(context.Background(), "u1")
	require.ErrorContains(t, err, "db error: db down")
}

const insertQuery = `(?s)INSERT\s+INTO\s+notes\s*\(owner_id,\s*client_id,\s*data\).*ON\s+CONFLICT\s+\(owner_id,\s*client_id\)\s+WHERE\s+client_id\s*<>\s*''\s+DO\s+NOTHING\s+RETURNING`

func TestCreate_Inserts(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).
		WithArgs("u1", "c-1", `{"title":"a"}`).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(7), "u1", "c-1", []byte(`{"title":"a"}`), created, created))

	got, isNew, err := repo.Create(context.Background(), models.Record{
		OwnerID:  "u1",
		ClientID: "c-1",
		Data:     json.RawMessage(`{"title":"a"}`),
	})
	require.NoError(t, err)
	assert.True(t, isNew)
	assert.Equal(t, int64(7), got.ID)
	assert.Equal(t, created, got.CreatedAt)
}

func TestCreate_ExistingClientID(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).
		WithArgs("u1", "c-1", `{"title":"again"}`).
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectQuery(`(?s)SELECT.*FROM\s+notes\s+WHERE\s+owner_id\s*=\s*\$1\s+AND\s+client_id\s*=\s*\$2`).
		WithArgs("u1", "c-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(7), "u1", "c-1", []byte(`{"title":"first"}`), created, created))

	got, isNew, err := repo.Create(context.Background(), models.Record{
		OwnerID:  "u1",
		ClientID: "c-1",
		Data:     json.RawMessage(`{"title":"again"}`),
	})
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, int64(7), got.ID)
	assert.JSONEq(t, `{"title":"first"}`, string(got.Data))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_DBError(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(insertQuery).WillReturnError(errors.New("db down"))

	_, _, err := repo.Create(context.Background(), models.Record{OwnerID: "u1", Data: json.RawMessage(`{}`)})
	require.ErrorContains(t, err, "db error: db down")
}

func TestGetByClientID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(`client_id\s*=\s*\$2`).WithArgs("u1", "nope").WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByClientID(context.Background(), "u1", "nope")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

const updateQuery = `(?s)UPDATE\s+notes\s+SET\s+data\s*=\s*\$3,\s*updated_at\s*=\s*now\(\)\s+WHERE\s+owner_id\s*=\s*\$1\s+AND\s+id\s*=\s*\$2\s+RETURNING`

func TestUpdate(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(updateQuery).
		WithArgs("u1", int64(7), `{"title":"v2"}`).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(int64(7), "u1", "c-1", []byte(`{"title":"v2"}`), created, created.Add(time.Hour)))

	got, err := repo.Update(context.Background(), "u1", 7, json.RawMessage(`{"title":"v2"}`))
	require.NoError(t, err)
	assert.Equal(t, created.Add(time.Hour), got.UpdatedAt)
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)

	mock.ExpectQuery(updateQuery).
		WithArgs("u2", int64(7), `{}`).
		WillReturnRows(sqlmock.NewRows(cols))

	_, err := repo.Update(context.Background(), "u2", 7, json.RawMessage(`{}`))
	require.ErrorIs(t, err, common.ErrorNotFound)
}

const deleteQuery = `(?s)DELETE\s+FROM\s+notes\s+WHERE\s+owner_id\s*=\s*\$1\s+AND\s+id\s*=\s*\$2`

func TestDelete(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		execErr  error
		want     error
	}{
		{name: "deleted", affected: 1},
		{name: "missing", affected: 0, want: common.ErrorNotFound},
		{name: "db error", execErr: errors.New("db down")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newRepoWithMock(t)

			exp := mock.ExpectExec(deleteQuery).WithArgs("u1", int64(7))
			if tt.execErr != nil {
				exp.WillReturnError(tt.execErr)
			} else {
				exp.WillReturnResult(sqlmock.NewResult(0, tt.affected))
			}

			err := repo.Delete(context.Background(), "u1", 7)
			switch {
			case tt.execErr != nil:
				require.ErrorContains(t, err, "db down")
			case tt.want != nil:
				require.ErrorIs(t, err, tt.want)
			default:
				require.NoError(t, err)
			}
		})
	}
}

func TestTableName(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM\s+tasks\s+WHERE`).WithArgs("u1").WillReturnRows(sqlmock.NewRows(cols))

	_, err = NewPostgresRepository(db, "tasks").List(context.Background(), "u1")
	require.NoError(t, err)
}
