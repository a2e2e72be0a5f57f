package notify

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/BuzzLyutic/kanban-api/internal/model"
)

// ErrMismatch is returned by Apply when an event names a board, column or
// task the view does not hold.
var ErrMismatch = errors.New("event does not match board view")

// Apply folds one event into a local copy of a board. Sibling positions are
// derived the way the writer shifted them, so events must be applied in
// order to a view that was current before the first one. BoardCreated for
// another board is ignored.
func Apply(view *model.BoardView, ev Event) error {
	if e, ok := ev.(BoardCreated); ok {
		if view.ID != "" && view.ID != e.View.ID {
			return nil
		}
		*view = e.View
		for i := range view.Columns {
			if view.Columns[i].Tasks == nil {
				view.Columns[i].Tasks = []model.Task{}
			}
		}
		return nil
	}
	if ev.Board() != view.ID {
		return fmt.Errorf("%w: %s for board %s", ErrMismatch, ev.Type(), ev.Board())
	}

	switch e := ev.(type) {
	case ColumnCreated:
		pos := e.Column.Position
		if slices.ContainsFunc(view.Columns, func(c model.ColumnView) bool { return c.Position == pos }) {
			for i := range view.Columns {
				if view.Columns[i].Position >= pos {
					view.Columns[i].Position++
				}
			}
		}
		view.Columns = append(view.Columns, model.ColumnView{Column: e.Column, Tasks: []model.Task{}})
		slices.SortFunc(view.Columns, func(a, b model.ColumnView) int { return cmp.Compare(a.Position, b.Position) })

	case ColumnDeleted:
		i := columnIndex(view, e.ColumnID)
		if i < 0 {
			return fmt.Errorf("%w: column %s", ErrMismatch, e.ColumnID)
		}
		view.Columns = slices.Delete(view.Columns, i, i+1)

	case TaskCreated:
		col := column(view, e.ColumnID)
		if col == nil {
			return fmt.Errorf("%w: column %s", ErrMismatch, e.ColumnID)
		}
		insertTask(col, e.Task)

	case TaskUpdated:
		col := column(view, e.Task.ColumnID)
		if col == nil {
			return fmt.Errorf("%w: column %s", ErrMismatch, e.Task.ColumnID)
		}
		i := slices.IndexFunc(col.Tasks, func(t model.Task) bool { return t.ID == e.Task.ID })
		if i < 0 {
			return fmt.Errorf("%w: task %s", ErrMismatch, e.Task.ID)
		}
		col.Tasks[i] = e.Task

	case TaskMoved:
		src := column(view, e.FromColumnID)
		if src == nil {
			return fmt.Errorf("%w: column %s", ErrMismatch, e.FromColumnID)
		}
		if !removeTask(src, e.Task.ID, e.FromPosition) {
			return fmt.Errorf("%w: task %s", ErrMismatch, e.Task.ID)
		}
		dest := column(view, e.Task.ColumnID)
		if dest == nil {
			return fmt.Errorf("%w: column %s", ErrMismatch, e.Task.ColumnID)
		}
		insertTask(dest, e.Task)

	case TaskDeleted:
		col := column(view, e.ColumnID)
		if col == nil {
			return fmt.Errorf("%w: column %s", ErrMismatch, e.ColumnID)
		}
		if !removeTask(col, e.TaskID, e.Position) {
			return fmt.Errorf("%w: task %s", ErrMismatch, e.TaskID)
		}
	}
	return nil
}

func columnIndex(view *model.BoardView, id string) int {
	return slices.IndexFunc(view.Columns, func(c model.ColumnView) bool { return c.ID == id })
}

func column(view *model.BoardView, id string) *model.ColumnView {
	if i := columnIndex(view, id); i >= 0 {
		return &view.Columns[i]
	}
	return nil
}

// insertTask opens the slot at t.Position and puts t there.
func insertTask(col *model.ColumnView, t model.Task) {
	for i := range col.Tasks {
		if col.Tasks[i].Position >= t.Position {
			col.Tasks[i].Position++
		}
	}
	col.Tasks = append(col.Tasks, t)
	slices.SortFunc(col.Tasks, func(a, b model.Task) int { return cmp.Compare(a.Position, b.Position) })
}

// removeTask drops a task and closes the gap at pos.
func removeTask(col *model.ColumnView, id string, pos int) bool {
	i := slices.IndexFunc(col.Tasks, func(t model.Task) bool { return t.ID == id })
	if i < 0 {
		return false
	}
	col.Tasks = slices.Delete(col.Tasks, i, i+1)
	for j := range col.Tasks {
		if col.Tasks[j].Position > pos {
			col.Tasks[j].Position--
		}
	}
	return true
}
