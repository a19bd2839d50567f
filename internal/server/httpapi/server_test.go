package httpapi

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/notesync/internal/client/client"
	clientmodels "github.com/dmitrijs2005/notesync/internal/client/models"
	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServer_WithSyncClient(t *testing.T) {
	f := newFixture(t, Options{})
	ctx := context.Background()

	c := client.NewHTTPClient(f.ts.URL, client.WithRetry(0, time.Millisecond, time.Millisecond))
	require.NoError(t, c.Ping(ctx))

	pair, err := c.Login(ctx, "alice", []byte("correct horse"))
	require.NoError(t, err)
	owner, err := client.OwnerFromToken(pair.Access)
	require.NoError(t, err)
	assert.Equal(t, "u-alice", owner)

	notes := client.NewNotesResource(c)
	p := clientmodels.Payload[clientmodels.NoteFields]{
		ClientID: "local-1",
		Fields: clientmodels.NoteFields{
			Title:    "Physics",
			Category: "study",
			Tags:     clientmodels.Tags{"exam", "week 3"},
			Content:  "momentum",
		},
	}

	created, err := notes.Create(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, "local-1", created.ClientID)
	assert.Equal(t, p.Fields, created.Fields)

	again, err := notes.Create(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	p.Fields.Title = "Physics II"
	updated, err := notes.Update(ctx, created.ID, p)
	require.NoError(t, err)
	assert.Equal(t, "Physics II", updated.Fields.Title)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	list, err := notes.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)

	require.NoError(t, notes.Delete(ctx, created.ID))
	assert.ErrorIs(t, notes.Delete(ctx, created.ID), client.ErrNotFound)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	s := NewServer("127.0.0.1:0", logging.Discard(), &fakeUsers{t: t}, newMemRecords(), Options{SecretKey: testSecret, ShutdownTimeout: time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_RunReportsListenError(t *testing.T) {
	s := NewServer("bad-address", logging.Discard(), &fakeUsers{t: t}, newMemRecords(), Options{SecretKey: testSecret})

	err := s.Run(context.Background())
	assert.Error(t, err)
}
