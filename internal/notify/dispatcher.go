package notify

import (
	"context"

	"go.uber.org/zap"

	"github.com/BuzzLyutic/kanban-api/internal/worker"
)

// Dispatcher moves publishing off the request path. Events are queued on a
// worker pool keyed by board id, so one board's events reach next in the
// order they were dispatched.
//
// Dispatch order is not commit order: callers publish after their
// transaction commits, so two commits on one board that finish close
// together can be dispatched in reverse. Observers that need the exact
// state re-fetch the board.
type Dispatcher struct {
	pool   *worker.Pool
	next   Publisher
	logger *zap.Logger
}

func NewDispatcher(pool *worker.Pool, next Publisher, logger *zap.Logger) *Dispatcher {
	return &Dispatcher{pool: pool, next: next, logger: logger}
}

func (d *Dispatcher) Publish(_ context.Context, ev Event) {
	err := d.pool.Submit(ev.Board(), func(ctx context.Context) {
		d.next.Publish(ctx, ev)
	})
	if err != nil {
		d.logger.Warn("event dropped",
			zap.String("board_id", ev.Board()),
			zap.String("type", string(ev.Type())),
			zap.Error(err),
		)
	}
}
