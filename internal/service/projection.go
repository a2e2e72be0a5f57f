package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-api/internal/export"
	"github.com/BuzzLyutic/kanban-api/internal/model"
	"github.com/BuzzLyutic/kanban-api/internal/repo"
)

// GetBoard returns the board with its columns and their tasks, both in
// ascending position order, read from one snapshot.
func (s *BoardService) GetBoard(ctx context.Context, boardID string) (model.BoardView, error) {
	var view model.BoardView
	err := s.store.View(ctx, func(r repo.Reader) error {
		var err error
		view, err = loadBoard(ctx, r, boardID)
		return err
	})
	if err != nil {
		return model.BoardView{}, err
	}
	return view, nil
}

func (s *BoardService) ListBoards(ctx context.Context) ([]model.Board, error) {
	var boards []model.Board
	err := s.store.View(ctx, func(r repo.Reader) error {
		var err error
		boards, err = r.ListBoards(ctx)
		return err
	})
	if err != nil {
		return nil, err
	}
	if boards == nil {
		boards = []model.Board{}
	}
	return boards, nil
}

func loadBoard(ctx context.Context, r repo.Reader, boardID string) (model.BoardView, error) {
	b, err := r.GetBoard(ctx, boardID)
	if err != nil {
		return model.BoardView{}, err
	}
	cols, err := r.ListColumns(ctx, boardID)
	if err != nil {
		return model.BoardView{}, err
	}
	ids := make([]string, len(cols))
	for i, c := range cols {
		ids[i] = c.ID
	}
	var tasks []model.Task
	if len(ids) > 0 {
		if tasks, err = r.ListTasks(ctx, ids); err != nil {
			return model.BoardView{}, err
		}
	}
	return buildView(b, cols, tasks), nil
}

// buildView nests tasks under their columns. Both inputs arrive sorted by
// position and the order is kept.
func buildView(b model.Board, cols []model.Column, tasks []model.Task) model.BoardView {
	view := model.BoardView{Board: b, Columns: make([]model.ColumnView, len(cols))}
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		view.Columns[i] = model.ColumnView{Column: c, Tasks: []model.Task{}}
		index[c.ID] = i
	}
	for _, t := range tasks {
		if i, ok := index[t.ColumnID]; ok {
			view.Columns[i].Tasks = append(view.Columns[i].Tasks, t)
		}
	}
	return view
}

// ExportTasks flattens a board into rows ordered by column, then by task
// position.
func (s *BoardService) ExportTasks(ctx context.Context, boardID string) ([]model.ExportRow, error) {
	view, err := s.GetBoard(ctx, boardID)
	if err != nil {
		return nil, err
	}
	return exportRows(view), nil
}

func exportRows(view model.BoardView) []model.ExportRow {
	rows := []model.ExportRow{}
	for _, c := range view.Columns {
		for _, t := range c.Tasks {
			rows = append(rows, model.ExportRow{
				TaskID:      t.ID,
				Title:       t.Title,
				Description: t.Description,
				ColumnID:    c.ID,
				ColumnTitle: c.Title,
				Position:    t.Position,
				Priority:    t.Priority,
				Progress:    t.Progress,
				StartDate:   t.StartDate,
				DueDate:     t.DueDate,
			})
		}
	}
	return rows
}

// ExportBoard sends the flattened board to the configured export target.
// Board state is never touched, whether delivery succeeds or not.
func (s *BoardService) ExportBoard(ctx context.Context, boardID string) (p export.Payload, err error) {
	ctx, span := s.startSpan(ctx, "ExportBoard", attribute.String("board.id", boardID))
	defer func() { endSpan(span, err) }()

	if s.exporter == nil {
		return export.Payload{}, export.ErrNotConfigured
	}

	rows, err := s.ExportTasks(ctx, boardID)
	if err != nil {
		return export.Payload{}, err
	}
	p = export.Payload{
		ID:         uuid.NewString(),
		BoardID:    boardID,
		ExportedAt: time.Now().UTC(),
		Tasks:      rows,
	}
	if err := s.exporter.Send(ctx, p); err != nil {
		s.logger.Error("export failed", zap.String("board_id", boardID), zap.String("export_id", p.ID), zap.Error(err))
		return export.Payload{}, fmt.Errorf("export board %s: %w", boardID, err)
	}
	return p, nil
}
