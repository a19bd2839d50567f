package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notesync/internal/client/client"
	"github.com/dmitrijs2005/notesync/internal/client/models"
	"github.com/dmitrijs2005/notesync/internal/client/repositories/records"
	"github.com/dmitrijs2005/notesync/internal/logging"
)

// Options tune an Engine. Zero values get defaults.
type Options struct {
	// Online reports connectivity; nil means always online.
	Online func() bool
	Policy RetryPolicy
	Logger logging.Logger
	Now    func() time.Time
}

// Engine reconciles one entity kind of one local table with one remote
// collection. Callers must not run two operations of the same Engine at
// the same time; the Scheduler guarantees that.
type Engine[F models.Fields[F]] struct {
	name   string
	repo   records.Repository[F]
	remote client.Resource[F]
	online func() bool
	policy RetryPolicy
	logger logging.Logger
	now    func() time.Time
}

func NewEngine[F models.Fields[F]](name string, repo records.Repository[F], remote client.Resource[F], opts Options) *Engine[F] {
	e := &Engine[F]{
		name:   name,
		repo:   repo,
		remote: remote,
		online: opts.Online,
		policy: opts.Policy,
		logger: opts.Logger,
		now:    opts.Now,
	}
	if e.online == nil {
		e.online = func() bool { return true }
	}
	if e.policy == (RetryPolicy{}) {
		e.policy = DefaultRetryPolicy()
	}
	if e.logger == nil {
		e.logger = logging.Discard()
	}
	e.logger = e.logger.With("kind", name)
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

func (e *Engine[F]) Name() string {
	return e.name
}

// Load returns the owner's local rows, tombstones included.
func (e *Engine[F]) Load(ctx context.Context, ownerID string) ([]models.Record[F], error) {
	return e.repo.GetAllByOwner(ctx, ownerID)
}

// Pull fetches the server collection and merges it into the owner's
// partition. It does nothing while offline or signed out. When the fetch
// fails the local rows stay as they are.
func (e *Engine[F]) Pull(ctx context.Context, ownerID string) error {
	if ownerID == "" || !e.online() {
		return nil
	}

	snapshot, err := e.remote.List(ctx)
	if err != nil {
		return fmt.Errorf("list %s: %w", e.name, err)
	}

	return e.Merge(ctx, ownerID, snapshot)
}

// Merge applies a server snapshot to the owner's partition atomically.
func (e *Engine[F]) Merge(ctx context.Context, ownerID string, snapshot []models.Remote[F]) error {
	var kept, total int

	err := e.repo.Swap(ctx, ownerID, func(current []models.Record[F]) ([]models.Record[F], error) {
		next := Merge(ownerID, current, snapshot)
		total = len(next)
		for _, rec := range next {
			if !rec.IsSynced() {
				kept++
			}
		}
		return next, nil
	})
	if err != nil {
		return fmt.Errorf("merge %s: %w", e.name, err)
	}

	e.logger.Debug(ctx, "merged server snapshot", "remote", len(snapshot), "pending_kept", kept, "rows", total)
	return nil
}
