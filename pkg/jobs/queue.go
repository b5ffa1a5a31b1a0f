package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrNotStarted is returned by Enqueue before Start or after Stop.
	ErrNotStarted = errors.New("queue not running")
	// ErrFull is returned by Enqueue when the buffer has no room.
	ErrFull = errors.New("queue full")
)

// Handler processes one payload.
type Handler[T any] func(ctx context.Context, payload T) error

// Config configures worker pool behaviour.
type Config struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
	Logger     *zap.Logger
}

type job[T any] struct {
	id      string
	payload T
	attempt int
}

// Queue is an in-memory worker pool for side effects that must not hold up a
// request. Enqueue never blocks; failed jobs are retried after RetryDelay.
type Queue[T any] struct {
	name    string
	handler Handler[T]
	cfg     Config
	logger  *zap.Logger

	jobs    chan job[T]
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.RWMutex
	running bool
}

// New builds a stopped queue.
func New[T any](name string, handler Handler[T], cfg Config) *Queue[T] {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = cfg.Workers * 64
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue[T]{
		name:    name,
		handler: handler,
		cfg:     cfg,
		logger:  cfg.Logger.With(zap.String("queue", name)),
		jobs:    make(chan job[T], cfg.BufferSize),
	}
}

// Start launches the workers. Calling it twice is a no-op.
func (q *Queue[T]) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	for i := 0; i < q.cfg.Workers; i++ {
		q.wg.Add(1)
		go q.work()
	}
	q.running = true
	q.logger.Info("queue started", zap.Int("workers", q.cfg.Workers))
}

// Stop cancels the workers and waits for them. Queued jobs are dropped.
func (q *Queue[T]) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()
	q.wg.Wait()
	q.logger.Info("queue stopped", zap.Int("dropped", len(q.jobs)))
}

// Drain stops accepting jobs, runs whatever is still buffered with ctx, then
// stops the workers. Pending retries are dropped.
func (q *Queue[T]) Drain(ctx context.Context) {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.mu.Unlock()

	drained := 0
	for done := false; !done; {
		select {
		case j := <-q.jobs:
			drained++
			if err := q.handler(ctx, j.payload); err != nil {
				q.logger.Error("drained job failed", zap.String("job_id", j.id), zap.Error(err))
			}
		default:
			done = true
		}
	}

	q.cancel()
	q.wg.Wait()
	q.logger.Info("queue drained", zap.Int("jobs", drained))
}

// Enqueue schedules payload for processing.
func (q *Queue[T]) Enqueue(payload T) error {
	return q.push(job[T]{id: uuid.NewString(), payload: payload})
}

func (q *Queue[T]) push(j job[T]) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if !q.running {
		return fmt.Errorf("%s: %w", q.name, ErrNotStarted)
	}
	select {
	case q.jobs <- j:
		return nil
	default:
		return fmt.Errorf("%s: %w", q.name, ErrFull)
	}
}

func (q *Queue[T]) work() {
	defer q.wg.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case j := <-q.jobs:
			if err := q.handler(q.ctx, j.payload); err != nil {
				q.retry(j, err)
			}
		}
	}
}

func (q *Queue[T]) retry(j job[T], err error) {
	j.attempt++
	if j.attempt > q.cfg.MaxRetries {
		q.logger.Error("job gave up", zap.String("job_id", j.id), zap.Int("attempts", j.attempt), zap.Error(err))
		return
	}
	q.logger.Warn("job failed, retrying", zap.String("job_id", j.id), zap.Int("attempt", j.attempt), zap.Error(err))

	timer := time.NewTimer(q.cfg.RetryDelay)
	go func() {
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.push(j); err != nil {
				q.logger.Error("requeue failed", zap.String("job_id", j.id), zap.Error(err))
			}
		}
	}()
}
