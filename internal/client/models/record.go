// Package models defines the records the sync client keeps in its local
// store and the wire shapes exchanged with the remote resource API.
package models

import "time"

// SyncStatus tells whether the local row matches the server.
type SyncStatus string

const (
	SyncStatusSynced  SyncStatus = "synced"
	SyncStatusPending SyncStatus = "pending"
	// SyncStatusFailed rows are kept locally but no longer replayed until
	// the user retries them.
	SyncStatusFailed SyncStatus = "failed"
)

// PendingAction is the remote call a non-synced row still owes the server.
type PendingAction string

const (
	ActionNone   PendingAction = ""
	ActionCreate PendingAction = "create"
	ActionUpdate PendingAction = "update"
	ActionDelete PendingAction = "delete"
)

// Fields is implemented by the domain field sets stored inside a Record.
type Fields[F any] interface {
	// Normalize returns a copy with defaults applied and tags cleaned up.
	Normalize() F
	// Validate reports whether the fields can be saved locally.
	Validate() error
}

// Record is one locally stored entity of a given kind.
type Record[F any] struct {
	// LocalID is the client-side primary key. It never changes and is never
	// reused. Records first seen on the server get "server-<id>".
	LocalID string

	// ServerID is the id assigned by the server, 0 while unknown.
	ServerID int64

	// ClientID is generated once at local creation and sent with every
	// create and update so the server can recognise retries.
	ClientID string

	// OwnerID is the authenticated user the row belongs to.
	OwnerID string

	Fields F

	CreatedAt time.Time
	// UpdatedAt is refreshed on every local mutation.
	UpdatedAt time.Time

	SyncStatus    SyncStatus
	PendingAction PendingAction

	// Attempts counts consecutive transient flush failures.
	Attempts int
	// LastError holds the message of the last failed flush attempt.
	LastError string
	// NextAttemptAt is the earliest time the row is replayed again.
	// The zero value means "due now".
	NextAttemptAt time.Time
}

func (r Record[F]) HasServerID() bool {
	return r.ServerID != 0
}

func (r Record[F]) IsSynced() bool {
	return r.SyncStatus == SyncStatusSynced
}

// IsVisible reports whether the row should appear in listings.
// Tombstones waiting for a remote delete are hidden.
func (r Record[F]) IsVisible() bool {
	return r.PendingAction != ActionDelete
}

// IsDue reports whether a pending row may be replayed at now.
func (r Record[F]) IsDue(now time.Time) bool {
	return r.NextAttemptAt.IsZero() || !r.NextAttemptAt.After(now)
}

// MarkPending records a local mutation: the row owes the server action
// and its retry bookkeeping starts over.
func (r *Record[F]) MarkPending(action PendingAction, now time.Time) {
	r.SyncStatus = SyncStatusPending
	r.PendingAction = action
	r.UpdatedAt = now
	r.ResetRetry()
}

// ResetRetry clears the failure bookkeeping.
func (r *Record[F]) ResetRetry() {
	r.Attempts = 0
	r.LastError = ""
	r.NextAttemptAt = time.Time{}
}

// Acknowledge applies a successful create or update response: the row
// becomes synced and takes the server id and timestamps.
func (r *Record[F]) Acknowledge(remote Remote[F], now time.Time) {
	r.ServerID = remote.ID
	if remote.ClientID != "" {
		r.ClientID = remote.ClientID
	}
	if !remote.CreatedAt.IsZero() {
		r.CreatedAt = remote.CreatedAt
	}
	if !remote.UpdatedAt.IsZero() {
		r.UpdatedAt = remote.UpdatedAt
	} else {
		r.UpdatedAt = now
	}
	r.SyncStatus = SyncStatusSynced
	r.PendingAction = ActionNone
	r.ResetRetry()
}
