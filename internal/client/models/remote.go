package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// ServerLocalIDPrefix marks local ids of records adopted from the server.
const ServerLocalIDPrefix = "server-"

// Remote is a record as the resource API returns it: the domain fields
// plus id, client_id and timestamps, all in one flat JSON object.
type Remote[F any] struct {
	ID        int64
	ClientID  string
	CreatedAt time.Time
	UpdatedAt time.Time
	Fields    F
}

type remoteMeta struct {
	ID        int64      `json:"id"`
	ClientID  *string    `json:"client_id"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func (r *Remote[F]) UnmarshalJSON(b []byte) error {
	var meta remoteMeta
	if err := json.Unmarshal(b, &meta); err != nil {
		return fmt.Errorf("remote record: %w", err)
	}

	var fields F
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("remote record %d: %w", meta.ID, err)
	}

	*r = Remote[F]{ID: meta.ID, Fields: fields}
	if meta.ClientID != nil {
		r.ClientID = *meta.ClientID
	}
	if meta.CreatedAt != nil {
		r.CreatedAt = *meta.CreatedAt
	}
	if meta.UpdatedAt != nil {
		r.UpdatedAt = *meta.UpdatedAt
	}
	return nil
}

func (r Remote[F]) MarshalJSON() ([]byte, error) {
	meta := remoteMeta{ID: r.ID, ClientID: &r.ClientID}
	if !r.CreatedAt.IsZero() {
		meta.CreatedAt = &r.CreatedAt
	}
	if !r.UpdatedAt.IsZero() {
		meta.UpdatedAt = &r.UpdatedAt
	}
	return flatten(r.Fields, meta)
}

// Payload is the body of a create or update call: the full domain fields
// plus the record's client_id.
type Payload[F any] struct {
	ClientID string
	Fields   F
}

func (p Payload[F]) MarshalJSON() ([]byte, error) {
	return flatten(p.Fields, struct {
		ClientID string `json:"client_id"`
	}{p.ClientID})
}

func (p *Payload[F]) UnmarshalJSON(b []byte) error {
	var meta struct {
		ClientID string `json:"client_id"`
	}
	if err := json.Unmarshal(b, &meta); err != nil {
		return err
	}
	var fields F
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	*p = Payload[F]{ClientID: meta.ClientID, Fields: fields}
	return nil
}

// flatten merges the JSON objects of fields and extra into one object.
// Keys of extra win.
func flatten(fields any, extra any) ([]byte, error) {
	merged := map[string]json.RawMessage{}

	for _, part := range []any{fields, extra} {
		b, err := json.Marshal(part)
		if err != nil {
			return nil, err
		}
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(b, &obj); err != nil {
			return nil, err
		}
		for k, v := range obj {
			merged[k] = v
		}
	}

	return json.Marshal(merged)
}

// LocalIDForServer is the local id given to a record adopted from the server.
func LocalIDForServer(serverID int64) string {
	return ServerLocalIDPrefix + strconv.FormatInt(serverID, 10)
}

// FromRemote converts a server record into a synced local record owned by
// ownerID. A missing updated_at falls back to created_at.
func FromRemote[F Fields[F]](ownerID string, r Remote[F]) Record[F] {
	updated := r.UpdatedAt
	if updated.IsZero() {
		updated = r.CreatedAt
	}

	return Record[F]{
		LocalID:       LocalIDForServer(r.ID),
		ServerID:      r.ID,
		ClientID:      r.ClientID,
		OwnerID:       ownerID,
		Fields:        r.Fields.Normalize(),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     updated,
		SyncStatus:    SyncStatusSynced,
		PendingAction: ActionNone,
	}
}

// PayloadOf builds the create/update body for rec.
func PayloadOf[F Fields[F]](rec Record[F]) Payload[F] {
	return Payload[F]{ClientID: rec.ClientID, Fields: rec.Fields.Normalize()}
}
