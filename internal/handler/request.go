package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/BuzzLyutic/kanban-api/internal/ledger"
	"github.com/BuzzLyutic/kanban-api/internal/model"
)

var errValidation = errors.New("validation error")

func invalid(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), errValidation)
}

func decode(r *http.Request, dst any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return invalid("empty request body")
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return invalid("invalid json: %v", err)
	}
	return nil
}

// parseDate accepts RFC 3339 timestamps and plain YYYY-MM-DD dates.
func parseDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, *s); err == nil {
			return &t, nil
		}
	}
	return nil, invalid("%s: %q is not a date", field, *s)
}

func checkTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return invalid("title is required")
	}
	return nil
}

func checkPriority(p string) error {
	if p != "" && !model.Priority(p).Valid() {
		return invalid("priority must be one of low, medium, high")
	}
	return nil
}

func checkProgress(p *int) error {
	if p != nil && (*p < 0 || *p > 100) {
		return invalid("progress must be between 0 and 100")
	}
	return nil
}

func checkPosition(p *int) error {
	if p != nil && !ledger.ValidPosition(*p) {
		return invalid("position must be between 0 and %d", ledger.MaxPosition)
	}
	return nil
}

type createBoardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (req createBoardRequest) input() (model.CreateBoardInput, error) {
	if err := checkTitle(req.Title); err != nil {
		return model.CreateBoardInput{}, err
	}
	return model.CreateBoardInput{Title: strings.TrimSpace(req.Title), Description: req.Description}, nil
}

type createColumnRequest struct {
	Title    string `json:"title"`
	Position *int   `json:"position"`
}

func (req createColumnRequest) input() (model.CreateColumnInput, error) {
	if err := errors.Join(checkTitle(req.Title), checkPosition(req.Position)); err != nil {
		return model.CreateColumnInput{}, err
	}
	return model.CreateColumnInput{Title: strings.TrimSpace(req.Title), Position: req.Position}, nil
}

type createTaskRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Position    *int    `json:"position"`
	Priority    string  `json:"priority"`
	Progress    *int    `json:"progress"`
	StartDate   *string `json:"startDate"`
	DueDate     *string `json:"dueDate"`
}

func (req createTaskRequest) input() (model.CreateTaskInput, error) {
	err := errors.Join(
		checkTitle(req.Title),
		checkPosition(req.Position),
		checkPriority(req.Priority),
		checkProgress(req.Progress),
	)
	start, startErr := parseDate("startDate", req.StartDate)
	due, dueErr := parseDate("dueDate", req.DueDate)
	if err := errors.Join(err, startErr, dueErr); err != nil {
		return model.CreateTaskInput{}, err
	}
	return model.CreateTaskInput{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Position:    req.Position,
		Priority:    model.Priority(req.Priority),
		Progress:    req.Progress,
		StartDate:   start,
		DueDate:     due,
	}, nil
}

// nullable tells a missing JSON field apart from an explicit null.
type nullable[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func (n *nullable[T]) UnmarshalJSON(b []byte) error {
	n.Set = true
	if string(b) == "null" {
		n.Null = true
		return nil
	}
	return json.Unmarshal(b, &n.Value)
}

// updateTaskRequest is a PATCH body. Optional fields sent as null, or as an
// empty string, are cleared.
type updateTaskRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Priority    nullable[string] `json:"priority"`
	Progress    nullable[int]    `json:"progress"`
	StartDate   nullable[string] `json:"startDate"`
	DueDate     nullable[string] `json:"dueDate"`
}

func (req updateTaskRequest) input() (model.UpdateTaskInput, error) {
	var errs []error
	in := model.UpdateTaskInput{Description: req.Description}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		errs = append(errs, checkTitle(title))
		in.Title = &title
	}

	switch {
	case req.Priority.Null || (req.Priority.Set && req.Priority.Value == ""):
		in.Clear = append(in.Clear, model.FieldPriority)
	case req.Priority.Set:
		errs = append(errs, checkPriority(req.Priority.Value))
		p := model.Priority(req.Priority.Value)
		in.Priority = &p
	}

	switch {
	case req.Progress.Null:
		in.Clear = append(in.Clear, model.FieldProgress)
	case req.Progress.Set:
		p := req.Progress.Value
		in.Progress = &p
		errs = append(errs, checkProgress(in.Progress))
	}

	dates := []struct {
		field model.TaskField
		value nullable[string]
		dst   **time.Time
	}{
		{model.FieldStartDate, req.StartDate, &in.StartDate},
		{model.FieldDueDate, req.DueDate, &in.DueDate},
	}
	for _, d := range dates {
		switch {
		case d.value.Null || (d.value.Set && d.value.Value == ""):
			in.Clear = append(in.Clear, d.field)
		case d.value.Set:
			t, err := parseDate(string(d.field), &d.value.Value)
			errs = append(errs, err)
			*d.dst = t
		}
	}

	if err := errors.Join(errs...); err != nil {
		return model.UpdateTaskInput{}, err
	}
	return in, nil
}

type moveTaskRequest struct {
	ColumnID string `json:"columnId"`
	Position *int   `json:"position"`
}

func (req moveTaskRequest) input() (model.MoveTaskInput, error) {
	var errs []error
	if strings.TrimSpace(req.ColumnID) == "" {
		errs = append(errs, invalid("columnId is required"))
	}
	if req.Position == nil {
		errs = append(errs, invalid("position is required"))
	}
	errs = append(errs, checkPosition(req.Position))
	if err := errors.Join(errs...); err != nil {
		return model.MoveTaskInput{}, err
	}
	return model.MoveTaskInput{ColumnID: req.ColumnID, Position: *req.Position}, nil
}
