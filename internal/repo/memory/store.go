// Package memory is a process-local repo.Store used for local runs and tests.
// Transactions work on a copy of the state that replaces the live state on
// commit, and a single mutex serializes writers.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/BuzzLyutic/kanban-api/internal/ledger"
	"github.com/BuzzLyutic/kanban-api/internal/model"
	"github.com/BuzzLyutic/kanban-api/internal/repo"
)

type Store struct {
	mu    sync.RWMutex
	state *state
	now   func() time.Time
}

func New() *Store {
	return &Store{state: newState(), now: time.Now}
}

func (s *Store) View(ctx context.Context, fn func(r repo.Reader) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(&tx{st: s.state, now: s.now})
}

func (s *Store) InTx(ctx context.Context, fn func(t repo.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.state.clone()
	if err := fn(&tx{st: work, now: s.now}); err != nil {
		return err
	}
	if err := work.checkPositions(); err != nil {
		return err
	}
	s.state = work
	return nil
}

type state struct {
	boards     map[string]model.Board
	boardOrder []string
	columns    map[string]model.Column
	tasks      map[string]model.Task
}

func newState() *state {
	return &state{
		boards:  map[string]model.Board{},
		columns: map[string]model.Column{},
		tasks:   map[string]model.Task{},
	}
}

func (st *state) clone() *state {
	out := &state{
		boards:     make(map[string]model.Board, len(st.boards)),
		boardOrder: append([]string(nil), st.boardOrder...),
		columns:    make(map[string]model.Column, len(st.columns)),
		tasks:      make(map[string]model.Task, len(st.tasks)),
	}
	for k, v := range st.boards {
		out.boards[k] = v
	}
	for k, v := range st.columns {
		out.columns[k] = v
	}
	for k, v := range st.tasks {
		out.tasks[k] = v
	}
	return out
}

// checkPositions plays the part of the deferred unique constraints of the
// SQL schema: no two siblings may share a position at commit time.
func (st *state) checkPositions() error {
	seen := make(map[string]struct{}, len(st.columns)+len(st.tasks))
	for _, c := range st.columns {
		key := fmt.Sprintf("b/%s/%d", c.BoardID, c.Position)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate column position %d on board %s: %w", c.Position, c.BoardID, repo.ErrorConflict)
		}
		seen[key] = struct{}{}
	}
	for _, t := range st.tasks {
		key := fmt.Sprintf("c/%s/%d", t.ColumnID, t.Position)
		if _, dup := seen[key]; dup {
			return fmt.Errorf("duplicate task position %d in column %s: %w", t.Position, t.ColumnID, repo.ErrorConflict)
		}
		seen[key] = struct{}{}
	}
	return nil
}

type tx struct {
	st  *state
	now func() time.Time
}

func (t *tx) GetBoard(_ context.Context, id string) (model.Board, error) {
	b, ok := t.st.boards[id]
	if !ok {
		return model.Board{}, fmt.Errorf("board %s: %w", id, repo.ErrorNotFound)
	}
	return b, nil
}

func (t *tx) ListBoards(_ context.Context) ([]model.Board, error) {
	out := make([]model.Board, 0, len(t.st.boardOrder))
	for _, id := range t.st.boardOrder {
		out = append(out, t.st.boards[id])
	}
	return out, nil
}

func (t *tx) GetColumn(_ context.Context, id string) (model.Column, error) {
	c, ok := t.st.columns[id]
	if !ok {
		return model.Column{}, fmt.Errorf("column %s: %w", id, repo.ErrorNotFound)
	}
	return c, nil
}

func (t *tx) ListColumns(_ context.Context, boardID string) ([]model.Column, error) {
	var out []model.Column
	for _, c := range t.st.columns {
		if c.BoardID == boardID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (t *tx) GetTask(_ context.Context, id string) (model.Task, error) {
	task, ok := t.st.tasks[id]
	if !ok {
		return model.Task{}, fmt.Errorf("task %s: %w", id, repo.ErrorNotFound)
	}
	return task, nil
}

func (t *tx) ListTasks(_ context.Context, columnIDs []string) ([]model.Task, error) {
	want := make(map[string]struct{}, len(columnIDs))
	for _, id := range columnIDs {
		want[id] = struct{}{}
	}
	var out []model.Task
	for _, task := range t.st.tasks {
		if _, ok := want[task.ColumnID]; ok {
			out = append(out, task)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ColumnID < out[j].ColumnID
	})
	return out, nil
}

func (t *tx) CountTasks(_ context.Context, columnID string) (int, error) {
	if _, ok := t.st.columns[columnID]; !ok {
		return 0, fmt.Errorf("column %s: %w", columnID, repo.ErrorNotFound)
	}
	n := 0
	for _, task := range t.st.tasks {
		if task.ColumnID == columnID {
			n++
		}
	}
	return n, nil
}

func (t *tx) MaxPosition(_ context.Context, kind ledger.Kind, containerID string) (int, bool, error) {
	max, found := 0, false
	observe := func(pos int) {
		if !found || pos > max {
			max, found = pos, true
		}
	}
	switch kind {
	case ledger.KindColumnTasks:
		if _, ok := t.st.columns[containerID]; !ok {
			return 0, false, fmt.Errorf("column %s: %w", containerID, repo.ErrorNotFound)
		}
		for _, task := range t.st.tasks {
			if task.ColumnID == containerID {
				observe(task.Position)
			}
		}
	case ledger.KindBoardColumns:
		if _, ok := t.st.boards[containerID]; !ok {
			return 0, false, fmt.Errorf("board %s: %w", containerID, repo.ErrorNotFound)
		}
		for _, c := range t.st.columns {
			if c.BoardID == containerID {
				observe(c.Position)
			}
		}
	default:
		return 0, false, fmt.Errorf("unknown ledger kind %s", kind)
	}
	return max, found, nil
}

func (t *tx) ShiftPositions(_ context.Context, kind ledger.Kind, containerID string, r ledger.Range, delta int) error {
	now := t.now()
	switch kind {
	case ledger.KindColumnTasks:
		for id, task := range t.st.tasks {
			if task.ColumnID == containerID && r.Contains(task.Position) {
				task.Position += delta
				task.UpdatedAt = now
				t.st.tasks[id] = task
			}
		}
	case ledger.KindBoardColumns:
		for id, c := range t.st.columns {
			if c.BoardID == containerID && r.Contains(c.Position) {
				c.Position += delta
				c.UpdatedAt = now
				t.st.columns[id] = c
			}
		}
	default:
		return fmt.Errorf("unknown ledger kind %s", kind)
	}
	return nil
}

func (t *tx) LockBoard(_ context.Context, boardID string) error {
	if _, ok := t.st.boards[boardID]; !ok {
		return fmt.Errorf("board %s: %w", boardID, repo.ErrorNotFound)
	}
	return nil
}

func (t *tx) CreateBoard(_ context.Context, b model.Board) (model.Board, error) {
	b.ID = uuid.NewString()
	b.CreatedAt = t.now()
	b.UpdatedAt = b.CreatedAt
	t.st.boards[b.ID] = b
	t.st.boardOrder = append(t.st.boardOrder, b.ID)
	return b, nil
}

func (t *tx) CreateColumn(_ context.Context, c model.Column) (model.Column, error) {
	if _, ok := t.st.boards[c.BoardID]; !ok {
		return model.Column{}, fmt.Errorf("board %s: %w", c.BoardID, repo.ErrorNotFound)
	}
	c.ID = uuid.NewString()
	c.CreatedAt = t.now()
	c.UpdatedAt = c.CreatedAt
	t.st.columns[c.ID] = c
	return c, nil
}

func (t *tx) DeleteColumn(_ context.Context, id string) error {
	if _, ok := t.st.columns[id]; !ok {
		return fmt.Errorf("column %s: %w", id, repo.ErrorNotFound)
	}
	delete(t.st.columns, id)
	for taskID, task := range t.st.tasks {
		if task.ColumnID == id {
			delete(t.st.tasks, taskID)
		}
	}
	return nil
}

func (t *tx) CreateTask(_ context.Context, task model.Task) (model.Task, error) {
	if _, ok := t.st.columns[task.ColumnID]; !ok {
		return model.Task{}, fmt.Errorf("column %s: %w", task.ColumnID, repo.ErrorNotFound)
	}
	task.ID = uuid.NewString()
	task.CreatedAt = t.now()
	task.UpdatedAt = task.CreatedAt
	t.st.tasks[task.ID] = task
	return task, nil
}

func (t *tx) UpdateTask(_ context.Context, task model.Task) (model.Task, error) {
	cur, ok := t.st.tasks[task.ID]
	if !ok {
		return model.Task{}, fmt.Errorf("task %s: %w", task.ID, repo.ErrorNotFound)
	}
	if _, ok := t.st.columns[task.ColumnID]; !ok {
		return model.Task{}, fmt.Errorf("column %s: %w", task.ColumnID, repo.ErrorNotFound)
	}
	task.CreatedAt = cur.CreatedAt
	task.UpdatedAt = t.now()
	t.st.tasks[task.ID] = task
	return task, nil
}

func (t *tx) DeleteTask(_ context.Context, id string) error {
	if _, ok := t.st.tasks[id]; !ok {
		return fmt.Errorf("task %s: %w", id, repo.ErrorNotFound)
	}
	delete(t.st.tasks, id)
	return nil
}

func (t *tx) DeleteTasksInColumn(_ context.Context, columnID string) (int64, error) {
	var n int64
	for id, task := range t.st.tasks {
		if task.ColumnID == columnID {
			delete(t.st.tasks, id)
			n++
		}
	}
	return n, nil
}
