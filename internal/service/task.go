package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/BuzzLyutic/kanban-api/internal/ledger"
	"github.com/BuzzLyutic/kanban-api/internal/model"
	"github.com/BuzzLyutic/kanban-api/internal/notify"
	"github.com/BuzzLyutic/kanban-api/internal/repo"
)

// CreateTask appends a task to a column, or inserts it at the requested
// position clamped to the column's size.
func (s *BoardService) CreateTask(ctx context.Context, columnID string, in model.CreateTaskInput) (task model.Task, err error) {
	ctx, span := s.startSpan(ctx, "CreateTask", attribute.String("column.id", columnID))
	defer func() { endSpan(span, err) }()

	if err := validateCreateTask(in); err != nil {
		return model.Task{}, err
	}
	if in.Position != nil && !ledger.ValidPosition(*in.Position) {
		return model.Task{}, fmt.Errorf("task position %d out of range: %w", *in.Position, ErrInvalidOperation)
	}

	var boardID string
	err = s.store.InTx(ctx, func(tx repo.Tx) error {
		col, err := lockColumn(ctx, tx, columnID)
		if err != nil {
			return err
		}
		boardID = col.BoardID

		l := ledger.New(tx)
		var pos int
		if in.Position == nil {
			if pos, err = l.NextPositionFor(ctx, ledger.KindColumnTasks, columnID); err != nil {
				return err
			}
		} else {
			n, err := tx.CountTasks(ctx, columnID)
			if err != nil {
				return err
			}
			pos = min(*in.Position, n)
			if err := l.OpenSlot(ctx, ledger.KindColumnTasks, columnID, pos); err != nil {
				return err
			}
		}

		task, err = tx.CreateTask(ctx, model.Task{
			ColumnID:    columnID,
			Title:       in.Title,
			Description: in.Description,
			Position:    pos,
			Priority:    in.Priority,
			Progress:    in.Progress,
			StartDate:   in.StartDate,
			DueDate:     in.DueDate,
		})
		return err
	})
	if err != nil {
		return model.Task{}, err
	}

	span.SetAttributes(attribute.String("board.id", boardID), attribute.String("task.id", task.ID))
	s.publish(ctx, notify.TaskCreated{BoardID: boardID, ColumnID: columnID, Task: task})
	return task, nil
}

// UpdateTask patches the descriptive fields of a task. Column and position
// are only changed by MoveTask.
func (s *BoardService) UpdateTask(ctx context.Context, taskID string, in model.UpdateTaskInput) (task model.Task, err error) {
	ctx, span := s.startSpan(ctx, "UpdateTask", attribute.String("task.id", taskID))
	defer func() { endSpan(span, err) }()

	if err := validateUpdateTask(in); err != nil {
		return model.Task{}, err
	}

	var boardID string
	err = s.store.InTx(ctx, func(tx repo.Tx) error {
		cur, col, err := lockTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		boardID = col.BoardID
		task, err = tx.UpdateTask(ctx, in.Apply(cur))
		return err
	})
	if err != nil {
		return model.Task{}, err
	}

	s.publish(ctx, notify.TaskUpdated{BoardID: boardID, Task: task})
	return task, nil
}

// DeleteTask removes a task and closes the gap it leaves in its column.
func (s *BoardService) DeleteTask(ctx context.Context, taskID string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteTask", attribute.String("task.id", taskID))
	defer func() { endSpan(span, err) }()

	var ev notify.TaskDeleted
	err = s.store.InTx(ctx, func(tx repo.Tx) error {
		task, col, err := lockTask(ctx, tx, taskID)
		if err != nil {
			return err
		}
		if err := tx.DeleteTask(ctx, taskID); err != nil {
			return err
		}
		if err := ledger.New(tx).CloseGap(ctx, ledger.KindColumnTasks, col.ID, task.Position); err != nil {
			return err
		}
		ev = notify.TaskDeleted{BoardID: col.BoardID, ColumnID: col.ID, TaskID: taskID, Position: task.Position}
		return nil
	})
	if err != nil {
		return err
	}

	s.publish(ctx, ev)
	return nil
}

func validateCreateTask(in model.CreateTaskInput) error {
	if !validTitle(in.Title) {
		return fmt.Errorf("task title is required: %w", ErrValidation)
	}
	if !validPriority(in.Priority) {
		return fmt.Errorf("priority %q: %w", in.Priority, ErrValidation)
	}
	if !validProgress(in.Progress) {
		return fmt.Errorf("progress %d out of range: %w", *in.Progress, ErrValidation)
	}
	return nil
}

func validateUpdateTask(in model.UpdateTaskInput) error {
	if in.Title != nil && !validTitle(*in.Title) {
		return fmt.Errorf("task title cannot be empty: %w", ErrValidation)
	}
	if in.Priority != nil && !validPriority(*in.Priority) {
		return fmt.Errorf("priority %q: %w", *in.Priority, ErrValidation)
	}
	if !validProgress(in.Progress) {
		return fmt.Errorf("progress %d out of range: %w", *in.Progress, ErrValidation)
	}
	for _, f := range in.Clear {
		switch f {
		case model.FieldPriority, model.FieldProgress, model.FieldStartDate, model.FieldDueDate:
		default:
			return fmt.Errorf("field %q cannot be cleared: %w", f, ErrValidation)
		}
		if in.Sets(f) {
			return fmt.Errorf("field %q is both set and cleared: %w", f, ErrValidation)
		}
	}
	return nil
}
