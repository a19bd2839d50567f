package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/notesync/internal/client/models"
)

// Sync pushes local changes and pulls the server state now.
func (a *App) Sync(ctx context.Context) error {
	if !a.isOnline() {
		a.printf("Offline: changes stay queued until the server is reachable\n")
		return nil
	}
	if !a.sync.SyncNow(ctx) {
		a.printf("A sync is already running\n")
		return nil
	}
	return a.Status(ctx)
}

// Status prints the queue state of notes and tasks and the failed records.
func (a *App) Status(ctx context.Context) error {
	server := "offline"
	if a.isOnline() {
		server = "online"
	}
	a.printf("Server: %s\n", server)

	if !a.isLoggedIn() {
		a.printf("Not logged in\n")
		return nil
	}

	notes, err := a.notes.Summary(ctx)
	if err != nil {
		return err
	}
	tasks, err := a.tasks.Summary(ctx)
	if err != nil {
		return err
	}

	a.printf("Notes: %d (%d pending, %d failed)\n", notes.Total, notes.Pending, notes.Failed)
	a.printf("Tasks: %d (%d pending, %d failed)\n", tasks.Total, tasks.Pending, tasks.Failed)

	if notes.Failed+tasks.Failed == 0 {
		return nil
	}

	var b strings.Builder
	if err := a.describeFailed(ctx, &b); err != nil {
		return err
	}
	a.printf("%s", b.String())
	a.printf("Use 'retry' to queue them again\n")
	return nil
}

func (a *App) describeFailed(ctx context.Context, b *strings.Builder) error {
	notes, err := a.notes.List(ctx, "")
	if err != nil {
		return err
	}
	for _, n := range notes {
		if n.SyncStatus == models.SyncStatusFailed {
			fmt.Fprintf(b, "  note %s %q: %s\n", shortID(n.LocalID), n.Fields.Title, n.LastError)
		}
	}

	tasks, err := a.tasks.List(ctx, "")
	if err != nil {
		return err
	}
	for _, t := range tasks {
		if t.SyncStatus == models.SyncStatusFailed {
			fmt.Fprintf(b, "  task %s %q: %s\n", shortID(t.LocalID), t.Fields.Title, t.LastError)
		}
	}
	return nil
}
