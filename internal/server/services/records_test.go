package services

import (
	"context"
	"testing"

	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRecordService(t *testing.T) (*RecordService, *fakeRepoManager) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	rm := newFakeRepoManager()
	return NewRecordService(db, rm), rm
}

func TestRecordService_CreateIsIdempotentByClientID(t *testing.T) {
	s, rm := newRecordService(t)
	ctx := context.Background()

	first, created, err := s.Create(ctx, "notes", "u1", []byte(`{"client_id":"c-1","title":"Exam plan"}`))
	require.NoError(t, err)
	assert.True(t, created)

	again, created, err := s.Create(ctx, "notes", "u1", []byte(`{"client_id":"c-1","title":"Exam plan (retry)"}`))
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Len(t, rm.records["notes"].rows, 1)

	// same client_id under another owner is a different record
	_, created, err = s.Create(ctx, "notes", "u2", []byte(`{"client_id":"c-1","title":"x"}`))
	require.NoError(t, err)
	assert.True(t, created)
}

func TestRecordService_CreateWithoutClientID(t *testing.T) {
	s, rm := newRecordService(t)
	ctx := context.Background()

	for range 2 {
		_, created, err := s.Create(ctx, "tasks", "u1", []byte(`{"title":"Read"}`))
		require.NoError(t, err)
		assert.True(t, created)
	}
	assert.Len(t, rm.records["tasks"].rows, 2)
}

func TestRecordService_Validation(t *testing.T) {
	s, _ := newRecordService(t)
	ctx := context.Background()

	_, _, err := s.Create(ctx, "notes", "u1", []byte(`{"title":""}`))
	require.ErrorIs(t, err, common.ErrorValidation)

	_, err = s.Update(ctx, "notes", "u1", 1, []byte(`[]`))
	require.ErrorIs(t, err, common.ErrorValidation)
}

func TestRecordService_UnknownCollection(t *testing.T) {
	s, _ := newRecordService(t)
	ctx := context.Background()

	_, err := s.List(ctx, "users", "u1")
	require.ErrorIs(t, err, common.ErrorNotFound)
	_, _, err = s.Create(ctx, "users", "u1", []byte(`{"title":"x"}`))
	require.ErrorIs(t, err, common.ErrorNotFound)
	require.ErrorIs(t, s.Delete(ctx, "users", "u1", 1), common.ErrorNotFound)
}

func TestRecordService_UpdateListDelete(t *testing.T) {
	s, _ := newRecordService(t)
	ctx := context.Background()

	rec, _, err := s.Create(ctx, "notes", "u1", []byte(`{"client_id":"c-1","title":"v1"}`))
	require.NoError(t, err)

	updated, err := s.Update(ctx, "notes", "u1", rec.ID, []byte(`{"client_id":"other","title":"v2"}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"v2"}`, string(updated.Data))
	assert.Equal(t, "c-1", updated.ClientID)

	_, err = s.Update(ctx, "notes", "u2", rec.ID, []byte(`{"title":"steal"}`))
	require.ErrorIs(t, err, common.ErrorNotFound)

	list, err := s.List(ctx, "notes", "u1")
	require.NoError(t, err)
	require.Len(t, list, 1)

	require.NoError(t, s.Delete(ctx, "notes", "u1", rec.ID))
	require.ErrorIs(t, s.Delete(ctx, "notes", "u1", rec.ID), common.ErrorNotFound)

	list, err = s.List(ctx, "notes", "u1")
	require.NoError(t, err)
	assert.Empty(t, list)
}
