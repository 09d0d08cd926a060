package bot

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/mc-economy-bridge/internal/config"
	"github.com/panjf2000/ants/v2"
)

// ErrPoolBusy is returned when every worker is occupied
var ErrPoolBusy = errors.New("all workers are busy")

// WorkerPool bounds how many interactions are handled at once.
// Submissions fail fast with ErrPoolBusy instead of queueing.
type WorkerPool struct {
	pool   *ants.Pool
	logger *slog.Logger
}

func NewWorkerPool(cfg config.WorkerPoolConfig, logger *slog.Logger) (*WorkerPool, error) {
	logger = logger.With("component", "worker_pool")
	pool, err := ants.NewPool(cfg.Size,
		ants.WithNonblocking(true),
		ants.WithPanicHandler(func(p interface{}) {
			logger.Error("Worker panicked", "panic", p)
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool of size %d: %w", cfg.Size, err)
	}

	return &WorkerPool{
		pool:   pool,
		logger: logger,
	}, nil
}

func (p *WorkerPool) Submit(task func()) error {
	if err := p.pool.Submit(task); err != nil {
		if errors.Is(err, ants.ErrPoolOverload) {
			p.logger.Warn("Worker pool saturated", "running", p.pool.Running(), "capacity", p.pool.Cap())
			return ErrPoolBusy
		}
		return err
	}
	return nil
}

func (p *WorkerPool) Shutdown() {
	p.logger.Info("Shutting down worker pool", "running_workers", p.pool.Running())
	p.pool.Release()
}

func (p *WorkerPool) Running() int {
	return p.pool.Running()
}

func (p *WorkerPool) Capacity() int {
	return p.pool.Cap()
}
