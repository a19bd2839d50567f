package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/notesync/internal/client/models"
)

// HTTPResource implements Resource over /api/<collection>/.
type HTTPResource[F any] struct {
	c          *HTTPClient
	collection string
}

func NewResource[F any](c *HTTPClient, collection string) *HTTPResource[F] {
	return &HTTPResource[F]{c: c, collection: collection}
}

func NewNotesResource(c *HTTPClient) *HTTPResource[models.NoteFields] {
	return NewResource[models.NoteFields](c, "notes")
}

func NewTasksResource(c *HTTPClient) *HTTPResource[models.TaskFields] {
	return NewResource[models.TaskFields](c, "tasks")
}

func (r *HTTPResource[F]) collectionPath() string {
	return "/api/" + r.collection + "/"
}

func (r *HTTPResource[F]) itemPath(serverID int64) string {
	return fmt.Sprintf("/api/%s/%d/", r.collection, serverID)
}

// List fetches the whole collection. Both a bare array and a paginated
// {"results": [...]} envelope are accepted. An item that does not decode
// is logged and skipped so the rest of the snapshot still arrives.
func (r *HTTPResource[F]) List(ctx context.Context) ([]models.Remote[F], error) {
	var raw json.RawMessage
	if err := r.c.do(ctx, request{method: http.MethodGet, path: r.collectionPath(), out: &raw, authed: true}); err != nil {
		return nil, err
	}

	out := make([]models.Remote[F], 0)
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return out, nil
	}

	var items []json.RawMessage
	if raw[0] == '{' {
		var page struct {
			Results []json.RawMessage `json:"results"`
		}
		if err := json.Unmarshal(raw, &page); err != nil {
			return nil, fmt.Errorf("decode %s: %w", r.collection, err)
		}
		items = page.Results
	} else if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", r.collection, err)
	}

	for i, item := range items {
		var rec models.Remote[F]
		if err := json.Unmarshal(item, &rec); err != nil {
			r.c.logger.Warn(ctx, "skipping malformed remote record",
				"collection", r.collection, "index", i, "error", err)
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *HTTPResource[F]) Create(ctx context.Context, p models.Payload[F]) (*models.Remote[F], error) {
	var out models.Remote[F]
	if err := r.c.do(ctx, request{method: http.MethodPost, path: r.collectionPath(), body: p, out: &out, authed: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *HTTPResource[F]) Update(ctx context.Context, serverID int64, p models.Payload[F]) (*models.Remote[F], error) {
	var out models.Remote[F]
	if err := r.c.do(ctx, request{method: http.MethodPut, path: r.itemPath(serverID), body: p, out: &out, authed: true}); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *HTTPResource[F]) Delete(ctx context.Context, serverID int64) error {
	return r.c.do(ctx, request{method: http.MethodDelete, path: r.itemPath(serverID), authed: true})
}
