package reconcile

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/notesync/internal/client/client"
	"github.com/dmitrijs2005/notesync/internal/client/models"
	"github.com/dmitrijs2005/notesync/internal/client/repositories/records"
	"github.com/dmitrijs2005/notesync/internal/common"
)

// FlushReport counts what one FlushPending did.
type FlushReport struct {
	// Synced rows were created or updated on the server.
	Synced int
	// Removed rows were deleted locally after their delete went through.
	Removed int
	// Retried rows failed transiently and wait for their backoff.
	Retried int
	// Failed rows moved to the failed status in this run.
	Failed int
	// Skipped rows were failed already or not due yet.
	Skipped int
	// Unauthorized is set when the server refused the session; the
	// remaining rows were left for the next run.
	Unauthorized bool
}

func (r FlushReport) Add(o FlushReport) FlushReport {
	return FlushReport{
		Synced:       r.Synced + o.Synced,
		Removed:      r.Removed + o.Removed,
		Retried:      r.Retried + o.Retried,
		Failed:       r.Failed + o.Failed,
		Skipped:      r.Skipped + o.Skipped,
		Unauthorized: r.Unauthorized || o.Unauthorized,
	}
}

type failureKind int

const (
	failureTransient failureKind = iota
	failurePermanent
	failureAuth
)

func classify(err error) failureKind {
	switch {
	case errors.Is(err, client.ErrUnauthorized):
		return failureAuth
	case errors.Is(err, client.ErrRejected), errors.Is(err, client.ErrNotFound):
		return failurePermanent
	default:
		return failureTransient
	}
}

var errNoServerID = errors.New("server response carries no id")

// FlushPending replays the owner's pending rows against the server.
//
// Rows are handled one at a time; a failure of one row does not stop the
// others, except a refused session which ends the run. Only local store
// errors and context cancellation are returned.
func (e *Engine[F]) FlushPending(ctx context.Context, ownerID string) (FlushReport, error) {
	var report FlushReport

	if ownerID == "" || !e.online() {
		return report, nil
	}

	pending, err := e.repo.GetPending(ctx, ownerID)
	if err != nil {
		return report, fmt.Errorf("flush %s: %w", e.name, err)
	}

	now := e.now()

	for _, rec := range pending {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if rec.SyncStatus == models.SyncStatusFailed || !rec.IsDue(now) {
			report.Skipped++
			continue
		}

		if err := e.flushOne(ctx, rec, &report); err != nil {
			return report, fmt.Errorf("flush %s %s: %w", e.name, rec.LocalID, err)
		}
		if report.Unauthorized {
			e.logger.Warn(ctx, "session refused by server, flush stopped")
			break
		}
	}

	if len(pending) > 0 {
		e.logger.Info(ctx, "flush finished",
			"synced", report.Synced, "removed", report.Removed, "retried", report.Retried,
			"failed", report.Failed, "skipped", report.Skipped)
	}
	return report, nil
}

func (e *Engine[F]) flushOne(ctx context.Context, rec models.Record[F], report *FlushReport) error {
	if rec.PendingAction == models.ActionDelete {
		return e.flushDelete(ctx, rec, report)
	}

	var (
		resp *models.Remote[F]
		err  error
	)
	if rec.HasServerID() {
		resp, err = e.remote.Update(ctx, rec.ServerID, models.PayloadOf(rec))
	} else {
		resp, err = e.remote.Create(ctx, models.PayloadOf(rec))
	}
	if err == nil && (resp == nil || resp.ID == 0) {
		err = errNoServerID
	}
	if err != nil {
		return e.recordFailure(ctx, rec, err, report)
	}

	return e.recordSuccess(ctx, rec, *resp, report)
}

func (e *Engine[F]) flushDelete(ctx context.Context, rec models.Record[F], report *FlushReport) error {
	if rec.HasServerID() {
		err := e.remote.Delete(ctx, rec.ServerID)
		if err != nil && !errors.Is(err, client.ErrNotFound) {
			return e.recordFailure(ctx, rec, err, report)
		}
	}

	if err := e.repo.Delete(ctx, rec.LocalID); err != nil {
		return err
	}
	report.Removed++
	e.logger.Debug(ctx, "delete flushed", "local_id", rec.LocalID, "server_id", rec.ServerID)
	return nil
}

// recordSuccess stores the server's answer for sent. If the row changed
// while the request was in flight, only the server id is kept and the row
// stays pending so the newer edit goes out next time.
func (e *Engine[F]) recordSuccess(ctx context.Context, sent models.Record[F], resp models.Remote[F], report *FlushReport) error {
	var inFlightEdit bool

	err := e.repo.Update(ctx, sent.LocalID, func(cur *models.Record[F]) (records.Outcome, error) {
		if sameRevision(cur, sent) {
			cur.Acknowledge(resp, e.now())
			return records.Save, nil
		}

		inFlightEdit = true
		cur.ServerID = resp.ID
		if cur.PendingAction == models.ActionCreate {
			cur.PendingAction = models.ActionUpdate
		}
		return records.Save, nil
	})

	if errors.Is(err, common.ErrorNotFound) {
		// Deleted locally before the server id was known: the server copy
		// is an orphan now.
		if !sent.HasServerID() {
			if derr := e.remote.Delete(ctx, resp.ID); derr != nil && !errors.Is(derr, client.ErrNotFound) {
				e.logger.Warn(ctx, "could not remove orphaned server record", "server_id", resp.ID, "error", derr)
			}
		}
		return nil
	}
	if err != nil {
		return err
	}

	if inFlightEdit {
		e.logger.Debug(ctx, "row edited during flush, kept pending", "local_id", sent.LocalID, "server_id", resp.ID)
		return nil
	}

	report.Synced++
	e.logger.Debug(ctx, "row synced", "local_id", sent.LocalID, "server_id", resp.ID)
	return nil
}

func (e *Engine[F]) recordFailure(ctx context.Context, sent models.Record[F], cause error, report *FlushReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	kind := classify(cause)
	if kind == failureAuth {
		report.Unauthorized = true
		return nil
	}

	now := e.now()
	var failed bool

	err := e.repo.Update(ctx, sent.LocalID, func(cur *models.Record[F]) (records.Outcome, error) {
		if !sameRevision(cur, sent) {
			return records.Leave, nil
		}

		cur.LastError = cause.Error()

		if kind == failureTransient {
			cur.Attempts++
			if !e.policy.Exhausted(cur.Attempts) {
				cur.NextAttemptAt = now.Add(e.policy.Delay(cur.Attempts))
				return records.Save, nil
			}
		}

		cur.SyncStatus = models.SyncStatusFailed
		failed = true
		return records.Save, nil
	})
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if failed {
		report.Failed++
		e.logger.Warn(ctx, "row failed", "local_id", sent.LocalID, "action", sent.PendingAction, "error", cause)
	} else {
		report.Retried++
		e.logger.Info(ctx, "row will be retried", "local_id", sent.LocalID, "action", sent.PendingAction, "error", cause)
	}
	return nil
}

// sameRevision reports whether cur is still the row that was sent.
func sameRevision[F any](cur *models.Record[F], sent models.Record[F]) bool {
	return cur.SyncStatus == sent.SyncStatus &&
		cur.PendingAction == sent.PendingAction &&
		cur.UpdatedAt.Equal(sent.UpdatedAt)
}
