package model

import "time"

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          string     `json:"id"`
	ColumnID    string     `json:"columnId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Position    int        `json:"position"`
	Priority    Priority   `json:"priority,omitempty"`
	Progress    *int       `json:"progress,omitempty"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

type CreateTaskInput struct {
	Title       string
	Description string
	Position    *int
	Priority    Priority
	Progress    *int
	StartDate   *time.Time
	DueDate     *time.Time
}

// TaskField names an optional task field that a partial update can clear.
type TaskField string

const (
	FieldPriority  TaskField = "priority"
	FieldProgress  TaskField = "progress"
	FieldStartDate TaskField = "startDate"
	FieldDueDate   TaskField = "dueDate"
)

// UpdateTaskInput is a partial update: nil fields are left untouched and
// fields listed in Clear are reset to empty. Column and position changes go
// through a move instead.
type UpdateTaskInput struct {
	Title       *string
	Description *string
	Priority    *Priority
	Progress    *int
	StartDate   *time.Time
	DueDate     *time.Time
	Clear       []TaskField
}

// Sets reports whether the input assigns a value to f.
func (in UpdateTaskInput) Sets(f TaskField) bool {
	switch f {
	case FieldPriority:
		return in.Priority != nil
	case FieldProgress:
		return in.Progress != nil
	case FieldStartDate:
		return in.StartDate != nil
	case FieldDueDate:
		return in.DueDate != nil
	}
	return false
}

func (in UpdateTaskInput) Apply(t Task) Task {
	for _, f := range in.Clear {
		switch f {
		case FieldPriority:
			t.Priority = ""
		case FieldProgress:
			t.Progress = nil
		case FieldStartDate:
			t.StartDate = nil
		case FieldDueDate:
			t.DueDate = nil
		}
	}
	if in.Title != nil {
		t.Title = *in.Title
	}
	if in.Description != nil {
		t.Description = *in.Description
	}
	if in.Priority != nil {
		t.Priority = *in.Priority
	}
	if in.Progress != nil {
		p := *in.Progress
		t.Progress = &p
	}
	if in.StartDate != nil {
		d := *in.StartDate
		t.StartDate = &d
	}
	if in.DueDate != nil {
		d := *in.DueDate
		t.DueDate = &d
	}
	return t
}

type MoveTaskInput struct {
	ColumnID string
	Position int
}
