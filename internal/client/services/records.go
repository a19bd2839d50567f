package services

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/notesync/internal/client/models"
	"github.com/dmitrijs2005/notesync/internal/client/repositories/records"
	"github.com/dmitrijs2005/notesync/internal/common"
	"github.com/dmitrijs2005/notesync/internal/logging"
	"github.com/google/uuid"
)

// ServiceConfig wires a RecordService to the session and the scheduler.
type ServiceConfig struct {
	// Owner returns the signed-in user id, "" when signed out.
	Owner func() string
	// Notify is called after every successful local mutation.
	Notify func()
	Now    func() time.Time
	Logger logging.Logger
}

// Summary counts the owner's rows by sync state.
type Summary struct {
	Total   int
	Pending int
	Failed  int
}

// RecordService is the local mutation API of one entity kind. Mutations
// only touch the local store; the scheduler pushes them to the server.
type RecordService[F models.Fields[F]] struct {
	repo   records.Repository[F]
	owner  func() string
	notify func()
	now    func() time.Time
	logger logging.Logger
	less   func(a, b models.Record[F]) int
}

func newRecordService[F models.Fields[F]](repo records.Repository[F], cfg ServiceConfig, less func(a, b models.Record[F]) int) *RecordService[F] {
	s := &RecordService[F]{
		repo:   repo,
		owner:  cfg.Owner,
		notify: cfg.Notify,
		now:    cfg.Now,
		logger: cfg.Logger,
		less:   less,
	}
	if s.owner == nil {
		s.owner = func() string { return "" }
	}
	if s.notify == nil {
		s.notify = func() {}
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	return s
}

// NewNoteService lists notes most recently updated first.
func NewNoteService(repo records.Repository[models.NoteFields], cfg ServiceConfig) *RecordService[models.NoteFields] {
	return newRecordService(repo, cfg, byUpdatedDesc[models.NoteFields])
}

func (s *RecordService[F]) Create(ctx context.Context, fields F) (*models.Record[F], error) {
	owner, err := s.requireOwner()
	if err != nil {
		return nil, err
	}

	fields = fields.Normalize()
	if err := fields.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrorValidation, err)
	}

	now := s.now().UTC()
	rec := models.Record[F]{
		LocalID:   uuid.NewString(),
		ClientID:  uuid.NewString(),
		OwnerID:   owner,
		Fields:    fields,
		CreatedAt: now,
	}
	rec.MarkPending(models.ActionCreate, now)

	if err := s.repo.Upsert(ctx, rec); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}

	s.logger.Debug(ctx, "record created", "local_id", rec.LocalID)
	s.notify()
	return &rec, nil
}

// Update replaces the fields of a visible row.
func (s *RecordService[F]) Update(ctx context.Context, localID string, fields F) (*models.Record[F], error) {
	return s.Edit(ctx, localID, func(F) F { return fields })
}

// Edit applies fn to the current fields of a visible row and marks it
// pending. A row that never reached the server keeps its create action.
func (s *RecordService[F]) Edit(ctx context.Context, localID string, fn func(F) F) (*models.Record[F], error) {
	owner, err := s.requireOwner()
	if err != nil {
		return nil, err
	}

	var out models.Record[F]
	err = s.repo.Update(ctx, localID, func(cur *models.Record[F]) (records.Outcome, error) {
		if cur.OwnerID != owner || !cur.IsVisible() {
			return records.Leave, common.ErrorNotFound
		}

		fields := fn(cur.Fields).Normalize()
		if err := fields.Validate(); err != nil {
			return records.Leave, fmt.Errorf("%w: %w", common.ErrorValidation, err)
		}

		action := models.ActionCreate
		if cur.HasServerID() {
			action = models.ActionUpdate
		}

		cur.Fields = fields
		cur.MarkPending(action, s.now().UTC())
		out = *cur
		return records.Save, nil
	})
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", localID, err)
	}

	s.notify()
	return &out, nil
}

// Delete hides the row. A row the server knows becomes a delete tombstone
// until the flush removes it; any other row is removed right away.
func (s *RecordService[F]) Delete(ctx context.Context, localID string) error {
	owner, err := s.requireOwner()
	if err != nil {
		return err
	}

	err = s.repo.Update(ctx, localID, func(cur *models.Record[F]) (records.Outcome, error) {
		if cur.OwnerID != owner || !cur.IsVisible() {
			return records.Leave, common.ErrorNotFound
		}
		if !cur.HasServerID() {
			return records.Remove, nil
		}
		cur.MarkPending(models.ActionDelete, s.now().UTC())
		return records.Save, nil
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", localID, err)
	}

	s.notify()
	return nil
}

// Retry moves a failed row back to pending with fresh retry bookkeeping.
func (s *RecordService[F]) Retry(ctx context.Context, localID string) error {
	owner, err := s.requireOwner()
	if err != nil {
		return err
	}

	err = s.repo.Update(ctx, localID, func(cur *models.Record[F]) (records.Outcome, error) {
		if cur.OwnerID != owner {
			return records.Leave, common.ErrorNotFound
		}
		if cur.SyncStatus != models.SyncStatusFailed {
			return records.Leave, ErrNotFailed
		}
		cur.SyncStatus = models.SyncStatusPending
		cur.ResetRetry()
		return records.Save, nil
	})
	if err != nil {
		return fmt.Errorf("retry %s: %w", localID, err)
	}

	s.notify()
	return nil
}

// RetryAll retries every failed row of the owner and returns how many.
func (s *RecordService[F]) RetryAll(ctx context.Context) (int, error) {
	owner, err := s.requireOwner()
	if err != nil {
		return 0, err
	}

	var n int
	err = s.repo.Swap(ctx, owner, func(current []models.Record[F]) ([]models.Record[F], error) {
		for i := range current {
			if current[i].SyncStatus == models.SyncStatusFailed {
				current[i].SyncStatus = models.SyncStatusPending
				current[i].ResetRetry()
				n++
			}
		}
		return current, nil
	})
	if err != nil {
		return 0, fmt.Errorf("retry all: %w", err)
	}

	if n > 0 {
		s.notify()
	}
	return n, nil
}

// Get returns a visible row of the owner.
func (s *RecordService[F]) Get(ctx context.Context, localID string) (*models.Record[F], error) {
	owner, err := s.requireOwner()
	if err != nil {
		return nil, err
	}

	rec, err := s.repo.GetByLocalID(ctx, localID)
	if err != nil {
		return nil, err
	}
	if rec.OwnerID != owner || !rec.IsVisible() {
		return nil, common.ErrorNotFound
	}
	return rec, nil
}

// List returns the owner's visible rows in display order. A non-empty
// query keeps the rows whose text contains it, ignoring case.
func (s *RecordService[F]) List(ctx context.Context, query string) ([]models.Record[F], error) {
	owner, err := s.requireOwner()
	if err != nil {
		return nil, err
	}

	all, err := s.repo.GetAllByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	out := make([]models.Record[F], 0, len(all))
	for _, rec := range all {
		if !rec.IsVisible() {
			continue
		}
		if query != "" && !matches(rec.Fields, query) {
			continue
		}
		out = append(out, rec)
	}

	slices.SortStableFunc(out, s.less)
	return out, nil
}

// Summary counts the owner's rows, tombstones included.
func (s *RecordService[F]) Summary(ctx context.Context) (Summary, error) {
	owner, err := s.requireOwner()
	if err != nil {
		return Summary{}, err
	}

	all, err := s.repo.GetAllByOwner(ctx, owner)
	if err != nil {
		return Summary{}, fmt.Errorf("summary: %w", err)
	}

	var sum Summary
	for _, rec := range all {
		sum.Total++
		switch rec.SyncStatus {
		case models.SyncStatusPending:
			sum.Pending++
		case models.SyncStatusFailed:
			sum.Failed++
		}
	}
	return sum, nil
}

func (s *RecordService[F]) requireOwner() (string, error) {
	owner := s.owner()
	if owner == "" {
		return "", ErrNotSignedIn
	}
	return owner, nil
}

func matches(fields any, query string) bool {
	st, ok := fields.(interface{ SearchText() string })
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(st.SearchText()), query)
}

func byUpdatedDesc[F any](a, b models.Record[F]) int {
	return b.UpdatedAt.Compare(a.UpdatedAt)
}

// TaskService adds the task-only operations to the record service.
type TaskService struct {
	*RecordService[models.TaskFields]
}

// NewTaskService lists open tasks first, then by due date with undated
// tasks last, then most recently updated.
func NewTaskService(repo records.Repository[models.TaskFields], cfg ServiceConfig) *TaskService {
	return &TaskService{newRecordService(repo, cfg, taskOrder)}
}

// ToggleComplete flips the completion flag of a task.
func (s *TaskService) ToggleComplete(ctx context.Context, localID string) (*models.Task, error) {
	return s.Edit(ctx, localID, func(f models.TaskFields) models.TaskFields {
		f.IsCompleted = !f.IsCompleted
		return f
	})
}

func taskOrder(a, b models.Task) int {
	if a.Fields.IsCompleted != b.Fields.IsCompleted {
		if a.Fields.IsCompleted {
			return 1
		}
		return -1
	}

	da, db := a.Fields.DueDate, b.Fields.DueDate
	switch {
	case da != nil && db != nil:
		if c := da.Compare(*db); c != 0 {
			return c
		}
	case da != nil:
		return -1
	case db != nil:
		return 1
	}

	return cmp.Or(b.UpdatedAt.Compare(a.UpdatedAt), cmp.Compare(a.LocalID, b.LocalID))
}
