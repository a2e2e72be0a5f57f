package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/BuzzLyutic/kanban-api/internal/model"
	"github.com/BuzzLyutic/kanban-api/internal/repo"
)

const columnColumns = `id, board_id, title, position, is_fixed, created_at, updated_at`

func scanColumn(row pgx.Row) (model.Column, error) {
	var c model.Column
	err := row.Scan(&c.ID, &c.BoardID, &c.Title, &c.Position, &c.IsFixed, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func (q *queries) CreateColumn(ctx context.Context, c model.Column) (model.Column, error) {
	created, err := scanColumn(q.db.QueryRow(ctx, `
		INSERT INTO board_columns (board_id, title, position, is_fixed)
		VALUES ($1, $2, $3, $4)
		RETURNING `+columnColumns,
		c.BoardID, c.Title, c.Position, c.IsFixed,
	))
	if err != nil {
		return c, fmt.Errorf("insert column: %w", mapError(err))
	}
	return created, nil
}

func (q *queries) GetColumn(ctx context.Context, id string) (model.Column, error) {
	c, err := scanColumn(q.db.QueryRow(ctx, `SELECT `+columnColumns+` FROM board_columns WHERE id = $1`, id))
	if err != nil {
		return c, fmt.Errorf("column %s: %w", id, mapError(err))
	}
	return c, nil
}

func (q *queries) ListColumns(ctx context.Context, boardID string) ([]model.Column, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+columnColumns+`
		FROM board_columns
		WHERE board_id = $1
		ORDER BY position
	`, boardID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	columns := make([]model.Column, 0)
	for rows.Next() {
		c, err := scanColumn(rows)
		if err != nil {
			return nil, err
		}
		columns = append(columns, c)
	}
	return columns, rows.Err()
}

func (q *queries) DeleteColumn(ctx context.Context, id string) error {
	cmd, err := q.db.Exec(ctx, `DELETE FROM board_columns WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("column %s: %w", id, repo.ErrorNotFound)
	}
	return nil
}
