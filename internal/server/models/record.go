package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Collections served under /api/<name>/. The name doubles as the table name.
const (
	CollectionNotes = "notes"
	CollectionTasks = "tasks"
)

var Collections = []string{CollectionNotes, CollectionTasks}

var (
	ErrNotAnObject   = errors.New("record body must be a JSON object")
	ErrTitleRequired = errors.New("title is required")
)

// reserved keys are owned by the server and never stored in Data.
var reserved = []string{"id", "client_id", "created_at", "updated_at", "owner_id"}

// Record is one row of a collection. Data is the JSON object of domain
// fields exactly as the client sent it, minus the reserved keys.
type Record struct {
	ID        int64
	OwnerID   string
	ClientID  string
	Data      json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// MarshalJSON renders the record flat: the domain fields plus id,
// client_id, created_at and updated_at.
func (r Record) MarshalJSON() ([]byte, error) {
	obj := map[string]json.RawMessage{}
	if len(r.Data) > 0 {
		if err := json.Unmarshal(r.Data, &obj); err != nil {
			return nil, fmt.Errorf("record %d data: %w", r.ID, err)
		}
	}

	set := func(k string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return err
		}
		obj[k] = b
		return nil
	}

	for k, v := range map[string]any{
		"id":         r.ID,
		"client_id":  r.ClientID,
		"created_at": r.CreatedAt.UTC(),
		"updated_at": r.UpdatedAt.UTC(),
	} {
		if err := set(k, v); err != nil {
			return nil, err
		}
	}

	return json.Marshal(obj)
}

// ParseBody splits a create or update body into its client_id and the
// domain fields to store. The title is trimmed and must not be empty.
func ParseBody(b []byte) (clientID string, data json.RawMessage, err error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(b, &obj); err != nil || obj == nil {
		return "", nil, ErrNotAnObject
	}

	if raw, ok := obj["client_id"]; ok {
		var s *string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", nil, fmt.Errorf("client_id: %w", err)
		}
		if s != nil {
			clientID = strings.TrimSpace(*s)
		}
	}

	for _, k := range reserved {
		delete(obj, k)
	}

	var title string
	if raw, ok := obj["title"]; ok {
		if err := json.Unmarshal(raw, &title); err != nil {
			return "", nil, fmt.Errorf("title: %w", err)
		}
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return "", nil, ErrTitleRequired
	}
	obj["title"], _ = json.Marshal(title)

	data, err = json.Marshal(obj)
	if err != nil {
		return "", nil, err
	}
	return clientID, data, nil
}

// IsCollection reports whether name is a served collection.
func IsCollection(name string) bool {
	return slices.Contains(Collections, name)
}
