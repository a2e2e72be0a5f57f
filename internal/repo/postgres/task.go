package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/BuzzLyutic/kanban-api/internal/ledger"
	"github.com/BuzzLyutic/kanban-api/internal/model"
	"github.com/BuzzLyutic/kanban-api/internal/repo"
)

const taskColumns = `id, column_id, title, description, position, priority, progress, start_date, due_date, created_at, updated_at`

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	var priority *string
	err := row.Scan(
		&t.ID, &t.ColumnID, &t.Title, &t.Description, &t.Position, &priority,
		&t.Progress, &t.StartDate, &t.DueDate, &t.CreatedAt, &t.UpdatedAt,
	)
	if priority != nil {
		t.Priority = model.Priority(*priority)
	}
	return t, err
}

func nullPriority(p model.Priority) *string {
	if p == "" {
		return nil
	}
	s := string(p)
	return &s
}

func (q *queries) CreateTask(ctx context.Context, t model.Task) (model.Task, error) {
	created, err := scanTask(q.db.QueryRow(ctx, `
		INSERT INTO tasks (column_id, title, description, position, priority, progress, start_date, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+taskColumns,
		t.ColumnID, t.Title, t.Description, t.Position, nullPriority(t.Priority), t.Progress, t.StartDate, t.DueDate,
	))
	if err != nil {
		return t, fmt.Errorf("insert task: %w", mapError(err))
	}
	return created, nil
}

func (q *queries) GetTask(ctx context.Context, id string) (model.Task, error) {
	t, err := scanTask(q.db.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		return t, fmt.Errorf("task %s: %w", id, mapError(err))
	}
	return t, nil
}

func (q *queries) ListTasks(ctx context.Context, columnIDs []string) ([]model.Task, error) {
	tasks := make([]model.Task, 0)
	if len(columnIDs) == 0 {
		return tasks, nil
	}

	rows, err := q.db.Query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE column_id = ANY($1::text[]::uuid[])
		ORDER BY position, column_id
	`, columnIDs)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (q *queries) CountTasks(ctx context.Context, columnID string) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `
		SELECT COUNT(t.id)
		FROM board_columns c
		LEFT JOIN tasks t ON t.column_id = c.id
		WHERE c.id = $1
		GROUP BY c.id
	`, columnID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count tasks in %s: %w", columnID, mapError(err))
	}
	return n, nil
}

func (q *queries) UpdateTask(ctx context.Context, t model.Task) (model.Task, error) {
	updated, err := scanTask(q.db.QueryRow(ctx, `
		UPDATE tasks
		SET column_id = $2, title = $3, description = $4, position = $5, priority = $6,
		    progress = $7, start_date = $8, due_date = $9, updated_at = now()
		WHERE id = $1
		RETURNING `+taskColumns,
		t.ID, t.ColumnID, t.Title, t.Description, t.Position, nullPriority(t.Priority),
		t.Progress, t.StartDate, t.DueDate,
	))
	if err != nil {
		return t, fmt.Errorf("update task %s: %w", t.ID, mapError(err))
	}
	return updated, nil
}

func (q *queries) DeleteTask(ctx context.Context, id string) error {
	cmd, err := q.db.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("task %s: %w", id, repo.ErrorNotFound)
	}
	return nil
}

func (q *queries) DeleteTasksInColumn(ctx context.Context, columnID string) (int64, error) {
	cmd, err := q.db.Exec(ctx, `DELETE FROM tasks WHERE column_id = $1`, columnID)
	if err != nil {
		return 0, mapError(err)
	}
	return cmd.RowsAffected(), nil
}

func (q *queries) MaxPosition(ctx context.Context, kind ledger.Kind, containerID string) (int, bool, error) {
	var query string
	switch kind {
	case ledger.KindColumnTasks:
		query = `
			SELECT MAX(t.position)
			FROM board_columns c
			LEFT JOIN tasks t ON t.column_id = c.id
			WHERE c.id = $1
			GROUP BY c.id`
	case ledger.KindBoardColumns:
		query = `
			SELECT MAX(c.position)
			FROM boards b
			LEFT JOIN board_columns c ON c.board_id = b.id
			WHERE b.id = $1
			GROUP BY b.id`
	default:
		return 0, false, fmt.Errorf("unknown ledger kind %s", kind)
	}

	var max *int
	if err := q.db.QueryRow(ctx, query, containerID).Scan(&max); err != nil {
		return 0, false, fmt.Errorf("%s %s: %w", kind, containerID, mapError(err))
	}
	if max == nil {
		return 0, false, nil
	}
	return *max, true, nil
}

// ShiftPositions moves every sibling in r by delta with a single UPDATE so
// the whole range changes atomically with the rest of the transaction.
func (q *queries) ShiftPositions(ctx context.Context, kind ledger.Kind, containerID string, r ledger.Range, delta int) error {
	var query string
	switch kind {
	case ledger.KindColumnTasks:
		query = `
			UPDATE tasks
			SET position = position + $4, updated_at = now()
			WHERE column_id = $1 AND position >= $2 AND position < $3`
	case ledger.KindBoardColumns:
		query = `
			UPDATE board_columns
			SET position = position + $4, updated_at = now()
			WHERE board_id = $1 AND position >= $2 AND position < $3`
	default:
		return fmt.Errorf("unknown ledger kind %s", kind)
	}

	if _, err := q.db.Exec(ctx, query, containerID, r.Lo, r.Hi, delta); err != nil {
		return mapError(err)
	}
	return nil
}
