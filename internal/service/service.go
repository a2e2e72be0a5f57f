// Package service holds the board write path and its read projection. Every
// mutation runs in one store transaction that locks the owning board first,
// and publishes exactly one event once the transaction has committed.
package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-api/internal/export"
	"github.com/BuzzLyutic/kanban-api/internal/model"
	"github.com/BuzzLyutic/kanban-api/internal/notify"
	"github.com/BuzzLyutic/kanban-api/internal/repo"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrInvalidOperation = errors.New("invalid operation")
)

const tracerName = "kanban.service"

type BoardService struct {
	store     repo.Store
	publisher notify.Publisher
	exporter  export.Sender
	logger    *zap.Logger
	tracer    trace.Tracer
}

type Option func(*BoardService)

func WithExporter(s export.Sender) Option {
	return func(b *BoardService) { b.exporter = s }
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(b *BoardService) { b.tracer = tp.Tracer(tracerName) }
}

func NewBoardService(store repo.Store, publisher notify.Publisher, logger *zap.Logger, opts ...Option) *BoardService {
	if publisher == nil {
		publisher = notify.NopPublisher{}
	}
	s := &BoardService{
		store:     store,
		publisher: publisher,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *BoardService) publish(ctx context.Context, ev notify.Event) {
	s.publisher.Publish(context.WithoutCancel(ctx), ev)
}

func (s *BoardService) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "BoardService."+name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// lockColumn locks the board owning a column and returns the column as seen
// under the lock.
func lockColumn(ctx context.Context, tx repo.Tx, columnID string) (model.Column, error) {
	col, err := tx.GetColumn(ctx, columnID)
	if err != nil {
		return model.Column{}, err
	}
	if err := tx.LockBoard(ctx, col.BoardID); err != nil {
		return model.Column{}, err
	}
	return tx.GetColumn(ctx, columnID)
}

// lockTask locks the board owning a task and returns the task and its column
// as seen under the lock. The task may have moved while we waited.
func lockTask(ctx context.Context, tx repo.Tx, taskID string) (model.Task, model.Column, error) {
	task, err := tx.GetTask(ctx, taskID)
	if err != nil {
		return model.Task{}, model.Column{}, err
	}
	col, err := tx.GetColumn(ctx, task.ColumnID)
	if err != nil {
		return model.Task{}, model.Column{}, err
	}
	if err := tx.LockBoard(ctx, col.BoardID); err != nil {
		return model.Task{}, model.Column{}, err
	}

	task, err = tx.GetTask(ctx, taskID)
	if err != nil {
		return model.Task{}, model.Column{}, err
	}
	if task.ColumnID != col.ID {
		if col, err = tx.GetColumn(ctx, task.ColumnID); err != nil {
			return model.Task{}, model.Column{}, err
		}
	}
	return task, col, nil
}

func validTitle(title string) bool {
	return strings.TrimSpace(title) != ""
}

func validProgress(p *int) bool {
	return p == nil || (*p >= 0 && *p <= 100)
}

func validPriority(p model.Priority) bool {
	return p == "" || p.Valid()
}
