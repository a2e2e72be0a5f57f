package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
)

var (
	ErrPoolFull    = errors.New("worker queue is full")
	ErrPoolStopped = errors.New("worker pool is stopped")
)

// Job is a unit of work run by one worker.
type Job func(ctx context.Context)

// Pool runs jobs on a fixed set of workers. Each job carries a key and all
// jobs with the same key go to the same worker, so they run one at a time
// in submission order.
type Pool struct {
	logger     *zap.Logger
	count      int
	jobTimeout time.Duration
	queues     []chan Job
	wg         sync.WaitGroup

	mu      sync.RWMutex
	stopped bool
}

func NewPool(logger *zap.Logger, count, buffer int, jobTimeout time.Duration) *Pool {
	if count < 1 {
		count = 1
	}
	if buffer < 1 {
		buffer = 1
	}
	queues := make([]chan Job, count)
	for i := range queues {
		queues[i] = make(chan Job, buffer)
	}
	return &Pool{
		logger:     logger,
		count:      count,
		jobTimeout: jobTimeout,
		queues:     queues,
	}
}

func (p *Pool) Start(ctx context.Context) {
	p.logger.Info("Starting worker pool", zap.Int("workers", p.count))

	for i := 0; i < p.count; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}
}

// Stop refuses new jobs, lets workers drain what is already queued and waits
// for them to exit.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()

	p.logger.Info("Stopping worker pool...")
	p.wg.Wait()
	p.logger.Info("Worker pool stopped")
}

// Submit queues job on the worker owning key without blocking.
func (p *Pool) Submit(key string, job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrPoolStopped
	}

	select {
	case p.queues[p.slot(key)] <- job:
		return nil
	default:
		return ErrPoolFull
	}
}

func (p *Pool) slot(key string) int {
	return int(xxhash.Sum64String(key) % uint64(p.count))
}

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.queues[id]:
			if !ok {
				return
			}
			p.run(ctx, id, job)
		}
	}
}

func (p *Pool) run(ctx context.Context, id int, job Job) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker job panicked", zap.Int("worker", id), zap.Any("panic", r))
		}
	}()

	jobCtx := ctx
	if p.jobTimeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, p.jobTimeout)
		defer cancel()
	}
	job(jobCtx)
}
