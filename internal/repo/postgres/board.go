package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/BuzzLyutic/kanban-api/internal/model"
	"github.com/BuzzLyutic/kanban-api/internal/repo"
)

const boardColumns = `id, title, description, created_at, updated_at`

func scanBoard(row pgx.Row) (model.Board, error) {
	var b model.Board
	err := row.Scan(&b.ID, &b.Title, &b.Description, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (q *queries) CreateBoard(ctx context.Context, b model.Board) (model.Board, error) {
	created, err := scanBoard(q.db.QueryRow(ctx, `
		INSERT INTO boards (title, description)
		VALUES ($1, $2)
		RETURNING `+boardColumns,
		b.Title, b.Description,
	))
	if err != nil {
		return b, fmt.Errorf("insert board: %w", mapError(err))
	}
	return created, nil
}

func (q *queries) GetBoard(ctx context.Context, id string) (model.Board, error) {
	b, err := scanBoard(q.db.QueryRow(ctx, `SELECT `+boardColumns+` FROM boards WHERE id = $1`, id))
	if err != nil {
		return b, fmt.Errorf("board %s: %w", id, mapError(err))
	}
	return b, nil
}

func (q *queries) ListBoards(ctx context.Context) ([]model.Board, error) {
	rows, err := q.db.Query(ctx, `SELECT `+boardColumns+` FROM boards ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	boards := make([]model.Board, 0)
	for rows.Next() {
		b, err := scanBoard(rows)
		if err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, rows.Err()
}

// LockBoard takes a row lock on the board that is held until the
// transaction ends. Every mutation of the board's columns and tasks takes
// it first, so their read-modify-write cycles never interleave.
func (q *queries) LockBoard(ctx context.Context, boardID string) error {
	var id string
	err := q.db.QueryRow(ctx, `SELECT id FROM boards WHERE id = $1 FOR UPDATE`, boardID).Scan(&id)
	if err != nil {
		return fmt.Errorf("lock board %s: %w", boardID, mapError(err))
	}
	return nil
}

var _ repo.Tx = (*queries)(nil)
