package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-api/internal/ledger"
	"github.com/BuzzLyutic/kanban-api/internal/model"
	"github.com/BuzzLyutic/kanban-api/internal/notify"
	"github.com/BuzzLyutic/kanban-api/internal/repo"
)

// CreateBoard creates a board together with its fixed intake and terminal
// columns.
func (s *BoardService) CreateBoard(ctx context.Context, in model.CreateBoardInput) (view model.BoardView, err error) {
	ctx, span := s.startSpan(ctx, "CreateBoard")
	defer func() { endSpan(span, err) }()

	if !validTitle(in.Title) {
		return model.BoardView{}, fmt.Errorf("board title is required: %w", ErrValidation)
	}

	err = s.store.InTx(ctx, func(tx repo.Tx) error {
		b, err := tx.CreateBoard(ctx, model.Board{Title: in.Title, Description: in.Description})
		if err != nil {
			return err
		}
		view = model.BoardView{Board: b}

		fixed := []model.Column{
			{BoardID: b.ID, Title: ledger.IntakeTitle, Position: ledger.IntakePosition, IsFixed: true},
			{BoardID: b.ID, Title: ledger.TerminalTitle, Position: ledger.TerminalPosition, IsFixed: true},
		}
		for _, c := range fixed {
			created, err := tx.CreateColumn(ctx, c)
			if err != nil {
				return err
			}
			view.Columns = append(view.Columns, model.ColumnView{Column: created, Tasks: []model.Task{}})
		}
		return nil
	})
	if err != nil {
		return model.BoardView{}, err
	}

	span.SetAttributes(attribute.String("board.id", view.ID))
	s.logger.Info("board created", zap.String("board_id", view.ID))
	s.publish(ctx, notify.BoardCreated{View: view})
	return view, nil
}

// CreateColumn adds a column to a board. Without an explicit position the
// column lands after the last regular column and before the terminal one.
func (s *BoardService) CreateColumn(ctx context.Context, boardID string, in model.CreateColumnInput) (col model.Column, err error) {
	ctx, span := s.startSpan(ctx, "CreateColumn", attribute.String("board.id", boardID))
	defer func() { endSpan(span, err) }()

	if !validTitle(in.Title) {
		return model.Column{}, fmt.Errorf("column title is required: %w", ErrValidation)
	}
	if in.Position != nil && !ledger.ValidPosition(*in.Position) {
		return model.Column{}, fmt.Errorf("column position %d out of range: %w", *in.Position, ErrInvalidOperation)
	}

	err = s.store.InTx(ctx, func(tx repo.Tx) error {
		if err := tx.LockBoard(ctx, boardID); err != nil {
			return err
		}
		cols, err := tx.ListColumns(ctx, boardID)
		if err != nil {
			return err
		}
		siblings := make([]ledger.Sibling, len(cols))
		for i, c := range cols {
			siblings[i] = ledger.Sibling{Title: c.Title, Position: c.Position, IsFixed: c.IsFixed}
		}

		pos, err := ledger.New(tx).PlaceColumn(ctx, boardID, siblings, in.Position)
		if err != nil {
			return err
		}
		col, err = tx.CreateColumn(ctx, model.Column{BoardID: boardID, Title: in.Title, Position: pos})
		return err
	})
	if err != nil {
		return model.Column{}, err
	}

	span.SetAttributes(attribute.String("column.id", col.ID), attribute.Int("position", col.Position))
	s.publish(ctx, notify.ColumnCreated{BoardID: boardID, Column: col})
	return col, nil
}

// DeleteColumn removes a non-fixed column and every task in it.
func (s *BoardService) DeleteColumn(ctx context.Context, columnID string) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteColumn", attribute.String("column.id", columnID))
	defer func() { endSpan(span, err) }()

	var col model.Column
	var removed int64
	err = s.store.InTx(ctx, func(tx repo.Tx) error {
		c, err := lockColumn(ctx, tx, columnID)
		if err != nil {
			return err
		}
		if c.IsFixed {
			return fmt.Errorf("column %q is fixed: %w", c.Title, ErrInvalidOperation)
		}
		n, err := tx.DeleteTasksInColumn(ctx, columnID)
		if err != nil {
			return err
		}
		col, removed = c, n
		return tx.DeleteColumn(ctx, columnID)
	})
	if err != nil {
		return err
	}

	s.logger.Info("column deleted",
		zap.String("board_id", col.BoardID),
		zap.String("column_id", columnID),
		zap.Int64("tasks_removed", removed),
	)
	s.publish(ctx, notify.ColumnDeleted{BoardID: col.BoardID, ColumnID: columnID})
	return nil
}
