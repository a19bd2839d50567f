package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/notesync/internal/client/models"
	"github.com/dmitrijs2005/notesync/internal/common"
)

const shortIDLen = 8

var errAmbiguousID = errors.New("id prefix matches several records")

// shortID is the id shown in listings.
func shortID(localID string) string {
	if strings.HasPrefix(localID, models.ServerLocalIDPrefix) || len(localID) <= shortIDLen {
		return localID
	}
	return localID[:shortIDLen]
}

// resolve finds the visible record whose local id is ref or starts with it.
func resolve[F any](ctx context.Context, svc recordService[F], ref string) (*models.Record[F], error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, common.ErrorNotFound
	}

	all, err := svc.List(ctx, "")
	if err != nil {
		return nil, err
	}

	var found *models.Record[F]
	for i := range all {
		switch {
		case all[i].LocalID == ref:
			return &all[i], nil
		case strings.HasPrefix(all[i].LocalID, ref):
			if found != nil {
				return nil, fmt.Errorf("%w: %s", errAmbiguousID, ref)
			}
			found = &all[i]
		}
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", common.ErrorNotFound, ref)
	}
	return found, nil
}

// syncMark tells how a row relates to the server.
func syncMark[F any](rec models.Record[F]) string {
	switch rec.SyncStatus {
	case models.SyncStatusPending:
		return "pending " + string(rec.PendingAction)
	case models.SyncStatusFailed:
		return "failed: " + rec.LastError
	default:
		return "synced"
	}
}

// Delete removes a note or a task.
func (a *App) Delete(ctx context.Context, ref string) error {
	if note, err := resolve[models.NoteFields](ctx, a.notes, ref); err == nil {
		if err := a.notes.Delete(ctx, note.LocalID); err != nil {
			return err
		}
		a.printf("Note %q deleted\n", note.Fields.Title)
		return nil
	} else if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	task, err := resolve[models.TaskFields](ctx, a.tasks, ref)
	if err != nil {
		return err
	}
	if err := a.tasks.Delete(ctx, task.LocalID); err != nil {
		return err
	}
	a.printf("Task %q deleted\n", task.Fields.Title)
	return nil
}

// Retry puts a failed record back into the queue. Without ref every failed
// record is retried.
func (a *App) Retry(ctx context.Context, ref string) error {
	if ref == "" {
		notes, err := a.notes.RetryAll(ctx)
		if err != nil {
			return err
		}
		tasks, err := a.tasks.RetryAll(ctx)
		if err != nil {
			return err
		}
		a.printf("Retrying %d note(s) and %d task(s)\n", notes, tasks)
		return nil
	}

	if note, err := resolve[models.NoteFields](ctx, a.notes, ref); err == nil {
		return a.notes.Retry(ctx, note.LocalID)
	} else if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	task, err := resolve[models.TaskFields](ctx, a.tasks, ref)
	if err != nil {
		return err
	}
	return a.tasks.Retry(ctx, task.LocalID)
}
