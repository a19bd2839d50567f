package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecord_IsDue(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	var r Note
	assert.True(t, r.IsDue(now))

	r.NextAttemptAt = now
	assert.True(t, r.IsDue(now))

	r.NextAttemptAt = now.Add(time.Second)
	assert.False(t, r.IsDue(now))
}

func TestRecord_IsVisible(t *testing.T) {
	assert.True(t, Note{PendingAction: ActionUpdate}.IsVisible())
	assert.False(t, Note{PendingAction: ActionDelete}.IsVisible())
}

func TestRecord_MarkPending_ResetsRetry(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	r := Task{
		SyncStatus:    SyncStatusFailed,
		Attempts:      5,
		LastError:     "boom",
		NextAttemptAt: now.Add(time.Hour),
	}

	r.MarkPending(ActionUpdate, now)

	assert.Equal(t, SyncStatusPending, r.SyncStatus)
	assert.Equal(t, ActionUpdate, r.PendingAction)
	assert.Equal(t, now, r.UpdatedAt)
	assert.Zero(t, r.Attempts)
	assert.Empty(t, r.LastError)
	assert.True(t, r.NextAttemptAt.IsZero())
}

func TestRecord_Acknowledge(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	serverCreated := now.Add(-time.Minute)
	serverUpdated := now.Add(-time.Second)

	r := Note{LocalID: "L1", ClientID: "C1", SyncStatus: SyncStatusPending, PendingAction: ActionCreate, Attempts: 2, LastError: "timeout"}
	r.Acknowledge(Remote[NoteFields]{ID: 7, CreatedAt: serverCreated, UpdatedAt: serverUpdated}, now)

	assert.Equal(t, int64(7), r.ServerID)
	assert.Equal(t, "C1", r.ClientID)
	assert.Equal(t, "L1", r.LocalID)
	assert.Equal(t, serverCreated, r.CreatedAt)
	assert.Equal(t, serverUpdated, r.UpdatedAt)
	assert.True(t, r.IsSynced())
	assert.Equal(t, ActionNone, r.PendingAction)
	assert.Zero(t, r.Attempts)
	assert.Empty(t, r.LastError)

	r2 := Note{LocalID: "L2"}
	r2.Acknowledge(Remote[NoteFields]{ID: 8}, now)
	assert.Equal(t, now, r2.UpdatedAt)
}
