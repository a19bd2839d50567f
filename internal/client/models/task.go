package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the date-only form the server may use for due dates.
const DateLayout = "2006-01-02"

// Priority of a task. Unknown values normalise to PriorityMedium.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func NormalizePriority(p Priority) Priority {
	switch Priority(strings.ToLower(strings.TrimSpace(string(p)))) {
	case PriorityLow:
		return PriorityLow
	case PriorityHigh:
		return PriorityHigh
	default:
		return PriorityMedium
	}
}

// TaskFields are the domain fields of a to-do item.
type TaskFields struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Priority    Priority   `json:"priority"`
	DueDate     *time.Time `json:"due_date"`
	IsCompleted bool       `json:"is_completed"`
}

func (t TaskFields) Normalize() TaskFields {
	t.Priority = NormalizePriority(t.Priority)
	if t.DueDate != nil {
		if t.DueDate.IsZero() {
			t.DueDate = nil
		} else {
			d := t.DueDate.UTC()
			t.DueDate = &d
		}
	}
	return t
}

func (t TaskFields) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrTitleRequired
	}
	return nil
}

func (t TaskFields) SearchText() string {
	return t.Title + "\n" + t.Description
}

// Task is a locally stored task.
type Task = Record[TaskFields]

// UnmarshalJSON accepts due dates as RFC 3339 timestamps, plain dates,
// empty strings or null.
func (t *TaskFields) UnmarshalJSON(b []byte) error {
	type plain TaskFields
	var aux struct {
		plain
		DueDate *string `json:"due_date"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}

	*t = TaskFields(aux.plain)
	t.DueDate = nil

	if aux.DueDate == nil || *aux.DueDate == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, DateLayout} {
		if d, err := time.Parse(layout, *aux.DueDate); err == nil {
			t.DueDate = &d
			return nil
		}
	}
	return fmt.Errorf("due_date %q: unsupported format", *aux.DueDate)
}
