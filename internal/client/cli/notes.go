package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/dmitrijs2005/notesync/internal/client/models"
)

// Notes prints the visible notes, newest first, optionally filtered.
func (a *App) Notes(ctx context.Context, query string) error {
	notes, err := a.notes.List(ctx, query)
	if err != nil {
		return err
	}
	if len(notes) == 0 {
		a.printf("No notes\n")
		return nil
	}

	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSUBJECT\tCATEGORY\tTAGS\tSTATUS")
	for _, n := range notes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(n.LocalID), n.Fields.Title, n.Fields.Subject, n.Fields.Category, n.Fields.Tags, syncMark(n))
	}
	return tw.Flush()
}

// ShowNote prints one note with its content.
func (a *App) ShowNote(ctx context.Context, ref string) error {
	n, err := resolve[models.NoteFields](ctx, a.notes, ref)
	if err != nil {
		return err
	}

	a.printf("%s\n", n.Fields.Title)
	a.printf("Subject: %s\nCategory: %s\nTags: %s\n", n.Fields.Subject, n.Fields.Category, n.Fields.Tags)
	a.printf("Updated: %s (%s)\n\n", n.UpdatedAt.Local().Format("2006-01-02 15:04"), syncMark(*n))
	a.printf("%s\n", n.Fields.Content)
	return nil
}

func (a *App) AddNote(ctx context.Context) error {
	fields, err := a.inputNote(models.NoteFields{})
	if err != nil {
		return err
	}

	n, err := a.notes.Create(ctx, fields)
	if err != nil {
		return err
	}
	a.printf("Note %s saved\n", shortID(n.LocalID))
	return nil
}

func (a *App) EditNote(ctx context.Context, ref string) error {
	cur, err := resolve[models.NoteFields](ctx, a.notes, ref)
	if err != nil {
		return err
	}

	fields, err := a.inputNote(cur.Fields)
	if err != nil {
		return err
	}

	if _, err := a.notes.Update(ctx, cur.LocalID, fields); err != nil {
		return err
	}
	a.printf("Note %s updated\n", shortID(cur.LocalID))
	return nil
}

// inputNote asks for every note field; for an existing note an empty
// answer keeps the current value.
func (a *App) inputNote(cur models.NoteFields) (models.NoteFields, error) {
	var (
		f   = cur
		err error
	)

	if f.Title, err = GetTextOrKeep(a.reader, "Title", cur.Title, a.out); err != nil {
		return f, err
	}
	if f.Subject, err = GetTextOrKeep(a.reader, "Subject", cur.Subject, a.out); err != nil {
		return f, err
	}
	if f.Category, err = GetTextOrKeep(a.reader, "Category", cur.Category, a.out); err != nil {
		return f, err
	}

	tags, err := GetTextOrKeep(a.reader, "Tags (comma separated)", cur.Tags.String(), a.out)
	if err != nil {
		return f, err
	}
	f.Tags = models.NormalizeTags(tags)

	prompt := "Content"
	if cur.Content != "" {
		prompt = "Content (empty keeps the current text)"
	}
	content, err := GetMultiline(a.reader, prompt, a.out)
	if err != nil {
		return f, err
	}
	if content != "" {
		f.Content = content
	}
	return f, nil
}
