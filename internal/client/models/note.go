package models

import (
	"errors"
	"strings"
)

// DefaultNoteCategory is used when a note is saved without a category.
const DefaultNoteCategory = "Study Notes"

var (
	ErrTitleRequired   = errors.New("title is required")
	ErrContentRequired = errors.New("content is required")
)

// NoteFields are the domain fields of a study note.
type NoteFields struct {
	Title    string `json:"title"`
	Subject  string `json:"subject"`
	Category string `json:"category"`
	Tags     Tags   `json:"tags"`
	Content  string `json:"content"`
}

func (n NoteFields) Normalize() NoteFields {
	n.Tags = NormalizeTags(n.Tags)
	if n.Category == "" {
		n.Category = DefaultNoteCategory
	}
	return n
}

func (n NoteFields) Validate() error {
	switch {
	case n.Title == "":
		return ErrTitleRequired
	case n.Content == "":
		return ErrContentRequired
	}
	return nil
}

// SearchText is the text a listing search looks at.
func (n NoteFields) SearchText() string {
	return strings.Join([]string{n.Title, n.Subject, n.Content, n.Tags.String()}, "\n")
}

// Note is a locally stored note.
type Note = Record[NoteFields]
