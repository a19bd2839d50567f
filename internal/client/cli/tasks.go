package cli

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dmitrijs2005/notesync/internal/client/models"
)

// Tasks prints open tasks first, by due date.
func (a *App) Tasks(ctx context.Context, query string) error {
	tasks, err := a.tasks.List(ctx, query)
	if err != nil {
		return err
	}
	if len(tasks) == 0 {
		a.printf("No tasks\n")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tTITLE\tPRIORITY\tDUE\tSTATUS")
	for _, t := range tasks {
		done := "[ ]"
		if t.Fields.IsCompleted {
			done = "[x]"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(t.LocalID), done, t.Fields.Title, t.Fields.Priority, formatDue(t.Fields.DueDate), syncMark(t))
	}
	return tw.Flush()
}

func (a *App) AddTask(ctx context.Context) error {
	fields, err := a.inputTask(models.TaskFields{})
	if err != nil {
		return err
	}

	t, err := a.tasks.Create(ctx, fields)
	if err != nil {
		return err
	}
	a.printf("Task %s saved\n", shortID(t.LocalID))
	return nil
}

func (a *App) EditTask(ctx context.Context, ref string) error {
	cur, err := resolve[models.TaskFields](ctx, a.tasks, ref)
	if err != nil {
		return err
	}

	fields, err := a.inputTask(cur.Fields)
	if err != nil {
		return err
	}

	if _, err := a.tasks.Update(ctx, cur.LocalID, fields); err != nil {
		return err
	}
	a.printf("Task %s updated\n", shortID(cur.LocalID))
	return nil
}

// Done toggles the completion of a task.
func (a *App) Done(ctx context.Context, ref string) error {
	cur, err := resolve[models.TaskFields](ctx, a.tasks, ref)
	if err != nil {
		return err
	}

	t, err := a.tasks.ToggleComplete(ctx, cur.LocalID)
	if err != nil {
		return err
	}

	state := "reopened"
	if t.Fields.IsCompleted {
		state = "completed"
	}
	a.printf("Task %q %s\n", t.Fields.Title, state)
	return nil
}

// inputTask asks for every task field. A due date of "-" clears it.
func (a *App) inputTask(cur models.TaskFields) (models.TaskFields, error) {
	var (
		f   = cur
		err error
	)

	if f.Title, err = GetTextOrKeep(a.reader, "Title", cur.Title, a.out); err != nil {
		return f, err
	}
	if f.Description, err = GetTextOrKeep(a.reader, "Description", cur.Description, a.out); err != nil {
		return f, err
	}

	priority, err := GetTextOrKeep(a.reader, "Priority (low, medium, high)", string(cur.Priority), a.out)
	if err != nil {
		return f, err
	}
	f.Priority = models.Priority(priority)

	due, err := GetTextOrKeep(a.reader, "Due date (YYYY-MM-DD, - for none)", formatDue(cur.DueDate), a.out)
	if err != nil {
		return f, err
	}
	if f.DueDate, err = parseDue(due); err != nil {
		return f, err
	}
	return f, nil
}

func formatDue(d *time.Time) string {
	if d == nil {
		return ""
	}
	return d.Format(models.DateLayout)
}

func parseDue(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return nil, nil
	}
	d, err := time.Parse(models.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("due date %q: expected YYYY-MM-DD", s)
	}
	return &d, nil
}
