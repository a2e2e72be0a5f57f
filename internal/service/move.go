package service

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/BuzzLyutic/kanban-api/internal/ledger"
	"github.com/BuzzLyutic/kanban-api/internal/model"
	"github.com/BuzzLyutic/kanban-api/internal/notify"
	"github.com/BuzzLyutic/kanban-api/internal/repo"
)

type shift struct {
	columnID string
	r        ledger.Range
	delta    int
}

type movePlan struct {
	position int
	shifts   []shift
	noop     bool
}

// planMove computes where a task ends up and which siblings shift to make
// room. srcCount and destCount are the task counts of the source and
// destination columns before the move; they are equal for a same-column move.
func planMove(task model.Task, destColumnID string, target, srcCount, destCount int) movePlan {
	old := task.Position

	if destColumnID == task.ColumnID {
		pos := clamp(target, 0, srcCount-1)
		switch {
		case pos < old:
			return movePlan{position: pos, shifts: []shift{
				{columnID: task.ColumnID, r: ledger.Range{Lo: pos, Hi: old}, delta: 1},
			}}
		case pos > old:
			return movePlan{position: pos, shifts: []shift{
				{columnID: task.ColumnID, r: ledger.Range{Lo: old + 1, Hi: pos + 1}, delta: -1},
			}}
		default:
			return movePlan{position: old, noop: true}
		}
	}

	pos := clamp(target, 0, destCount)
	return movePlan{position: pos, shifts: []shift{
		{columnID: task.ColumnID, r: ledger.Range{Lo: old + 1, Hi: ledger.Open}, delta: -1},
		{columnID: destColumnID, r: ledger.Range{Lo: pos, Hi: ledger.Open}, delta: 1},
	}}
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	return max(lo, min(v, hi))
}

// MoveTask places a task at a position in a column of the same board and
// shifts its old and new siblings so both columns stay dense. Moving a task
// onto its current place changes nothing and publishes nothing.
func (s *BoardService) MoveTask(ctx context.Context, taskID string, in model.MoveTaskInput) (task model.Task, err error) {
	ctx, span := s.startSpan(ctx, "MoveTask",
		attribute.String("task.id", taskID),
		attribute.String("column.id", in.ColumnID),
		attribute.Int("position", in.Position),
	)
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(in.ColumnID) == "" {
		return model.Task{}, fmt.Errorf("target column is required: %w", ErrValidation)
	}
	if !ledger.ValidPosition(in.Position) {
		return model.Task{}, fmt.Errorf("task position %d out of range: %w", in.Position, ErrInvalidOperation)
	}

	var ev *notify.TaskMoved
	err = s.store.InTx(ctx, func(tx repo.Tx) error {
		cur, src, err := lockTask(ctx, tx, taskID)
		if err != nil {
			return err
		}

		dest := src
		if in.ColumnID != src.ID {
			if dest, err = tx.GetColumn(ctx, in.ColumnID); err != nil {
				return err
			}
			if dest.BoardID != src.BoardID {
				return fmt.Errorf("column %s belongs to another board: %w", dest.ID, ErrInvalidOperation)
			}
		}

		srcCount, err := tx.CountTasks(ctx, src.ID)
		if err != nil {
			return err
		}
		destCount := srcCount
		if dest.ID != src.ID {
			if destCount, err = tx.CountTasks(ctx, dest.ID); err != nil {
				return err
			}
		}

		plan := planMove(cur, dest.ID, in.Position, srcCount, destCount)
		if plan.noop {
			task = cur
			return nil
		}

		l := ledger.New(tx)
		for _, sh := range plan.shifts {
			if err := l.ShiftRange(ctx, ledger.KindColumnTasks, sh.columnID, sh.r, sh.delta); err != nil {
				return err
			}
		}

		moved := cur
		moved.ColumnID = dest.ID
		moved.Position = plan.position
		if task, err = tx.UpdateTask(ctx, moved); err != nil {
			return err
		}
		ev = &notify.TaskMoved{
			BoardID:      src.BoardID,
			FromColumnID: src.ID,
			FromPosition: cur.Position,
			Task:         task,
		}
		return nil
	})
	if err != nil {
		return model.Task{}, err
	}

	if ev != nil {
		s.publish(ctx, *ev)
	}
	return task, nil
}
