package reconcile

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/notesync/internal/client/models"
)

type call struct {
	op       string
	serverID int64
	title    string
}

// fakeNotes is an in-memory notes collection. Hooks, when set, replace the
// default behaviour of the matching operation.
type fakeNotes struct {
	mu      sync.Mutex
	nextID  int64
	items   map[int64]models.Remote[models.NoteFields]
	calls   []call
	listErr error

	onCreate func(p models.Payload[models.NoteFields]) (*models.Remote[models.NoteFields], error)
	onUpdate func(id int64, p models.Payload[models.NoteFields]) (*models.Remote[models.NoteFields], error)
	onDelete func(id int64) error
}

func newFakeNotes() *fakeNotes {
	return &fakeNotes{nextID: 100, items: make(map[int64]models.Remote[models.NoteFields])}
}

func (f *fakeNotes) record(c call) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
}

func (f *fakeNotes) Calls() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakeNotes) put(r models.Remote[models.NoteFields]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[r.ID] = r
}

func (f *fakeNotes) List(ctx context.Context) ([]models.Remote[models.NoteFields], error) {
	f.record(call{op: "list"})

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Remote[models.NoteFields], 0, len(f.items))
	for _, r := range f.items {
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeNotes) Create(ctx context.Context, p models.Payload[models.NoteFields]) (*models.Remote[models.NoteFields], error) {
	f.record(call{op: "create", title: p.Fields.Title})
	if f.onCreate != nil {
		return f.onCreate(p)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.items {
		if r.ClientID != "" && r.ClientID == p.ClientID {
			return &r, nil
		}
	}
	f.nextID++
	r := models.Remote[models.NoteFields]{
		ID:        f.nextID,
		ClientID:  p.ClientID,
		CreatedAt: t0.Add(time.Hour),
		UpdatedAt: t0.Add(time.Hour),
		Fields:    p.Fields,
	}
	f.items[r.ID] = r
	return &r, nil
}

func (f *fakeNotes) Update(ctx context.Context, id int64, p models.Payload[models.NoteFields]) (*models.Remote[models.NoteFields], error) {
	f.record(call{op: "update", serverID: id, title: p.Fields.Title})
	if f.onUpdate != nil {
		return f.onUpdate(id, p)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.items[id]
	if !ok {
		r = models.Remote[models.NoteFields]{ID: id, CreatedAt: t0}
	}
	r.ClientID = p.ClientID
	r.Fields = p.Fields
	r.UpdatedAt = t0.Add(2 * time.Hour)
	f.items[id] = r
	return &r, nil
}

func (f *fakeNotes) Delete(ctx context.Context, id int64) error {
	f.record(call{op: "delete", serverID: id})
	if f.onDelete != nil {
		return f.onDelete(id)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.items, id)
	return nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
