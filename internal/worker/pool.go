package worker

import (
	"context"
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrShutdownTimeout is returned when workers don't stop within timeout.
var ErrShutdownTimeout = errors.New("worker pool shutdown timed out")

// ErrPoolStopped is returned by Submit once the pool is shutting down.
var ErrPoolStopped = errors.New("worker pool stopped")

// Handler processes one chat update.
type Handler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, update tgbotapi.Update)

// HandleUpdate calls f(ctx, update).
func (f HandlerFunc) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	f(ctx, update)
}

// Pool manages a pool of workers for processing chat updates. Each update is
// handled end to end by exactly one worker.
type Pool struct {
	workers int
	queue   chan tgbotapi.Update
	handler Handler
	logger  *slog.Logger

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// Config holds worker pool configuration.
type Config struct {
	Workers   int
	QueueSize int
}

// NewPool creates a new worker pool.
func NewPool(cfg Config, handler Handler, logger *slog.Logger) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = cfg.Workers * 16
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers: cfg.Workers,
		queue:   make(chan tgbotapi.Update, cfg.QueueSize),
		handler: handler,
		logger:  logger,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start launches all workers.
func (p *Pool) Start() {
	p.logger.Info("starting worker pool", "workers", p.workers, "queue_size", cap(p.queue))

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit queues an update, blocking while the queue is full.
func (p *Pool) Submit(ctx context.Context, update tgbotapi.Update) error {
	if p.ctx.Err() != nil {
		return ErrPoolStopped
	}
	select {
	case p.queue <- update:
		return nil
	case <-p.ctx.Done():
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Pending returns the number of queued updates not yet picked up.
func (p *Pool) Pending() int {
	return len(p.queue)
}

// Stop cancels in-flight work and waits for the workers to return.
// Updates still queued are dropped.
func (p *Pool) Stop(timeout time.Duration) error {
	p.logger.Info("stopping worker pool", "pending", len(p.queue))
	p.cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("worker pool stopped gracefully")
		return nil
	case <-time.After(timeout):
		return ErrShutdownTimeout
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	logger := p.logger.With("worker_id", id)
	logger.Debug("worker started")

	for {
		select {
		case <-p.ctx.Done():
			logger.Debug("worker stopping")
			return
		case update := <-p.queue:
			// Both cases can be ready after Stop; a canceled pool drops
			// the update instead of running it.
			if p.ctx.Err() != nil {
				logger.Debug("dropping queued update", "update_id", update.UpdateID)
				return
			}
			p.process(logger, update)
		}
	}
}

func (p *Pool) process(logger *slog.Logger, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("update handler panicked",
				"update_id", update.UpdateID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
	}()

	p.handler.HandleUpdate(p.ctx, update)
}
