package worker

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

type Task func()

// Pool runs submitted tasks on a fixed number of goroutines. A panicking
// task is logged and does not take its worker down.
type Pool struct {
	tasks      chan Task
	wg         sync.WaitGroup
	busy       atomic.Int32
	maxWorkers int
	logger     zerolog.Logger
	mu         sync.RWMutex
	stopped    bool
	submitWait time.Duration
	startOnce  sync.Once
	stopOnce   sync.Once
}

func NewPool(maxWorkers int, logger zerolog.Logger) *Pool {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	return &Pool{
		tasks:      make(chan Task, maxWorkers*10),
		maxWorkers: maxWorkers,
		logger:     logger,
		submitWait: time.Second,
	}
}

func (p *Pool) Start() {
	p.startOnce.Do(func() {
		p.logger.Info().Int("max_workers", p.maxWorkers).Msg("Starting worker pool")

		for i := 0; i < p.maxWorkers; i++ {
			p.wg.Add(1)
			go p.worker(i)
		}
	})
}

// Stop drains queued tasks and waits for the workers to exit.
func (p *Pool) Stop() {
	p.stopOnce.Do(func() {
		p.logger.Info().Msg("Stopping worker pool")

		p.mu.Lock()
		p.stopped = true
		close(p.tasks)
		p.mu.Unlock()

		p.wg.Wait()
		p.logger.Info().Msg("Worker pool stopped")
	})
}

// Submit queues task. It reports false when the pool is stopped or the queue
// stays full for longer than the submit wait.
func (p *Pool) Submit(task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.stopped {
		p.logger.Warn().Msg("Worker pool is stopped, task dropped")
		return false
	}

	select {
	case p.tasks <- task:
		return true
	default:
	}

	p.logger.Warn().Msg("Worker pool task queue is full")
	select {
	case p.tasks <- task:
		return true
	case <-time.After(p.submitWait):
		p.logger.Error().Msg("Failed to submit task to worker pool (timeout)")
		return false
	}
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug().Int("worker_id", id).Msg("Worker started")

	for task := range p.tasks {
		p.run(id, task)
	}

	p.logger.Debug().Int("worker_id", id).Msg("Worker stopped")
}

func (p *Pool) run(id int, task Task) {
	p.busy.Add(1)
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error().
				Int("worker_id", id).
				Interface("panic", r).
				Msg("Worker recovered from panic")
		}
		p.busy.Add(-1)
	}()

	task()
}

func (p *Pool) Stats() map[string]interface{} {
	return map[string]interface{}{
		"busy_workers":   int(p.busy.Load()),
		"max_workers":    p.maxWorkers,
		"queue_length":   len(p.tasks),
		"queue_capacity": cap(p.tasks),
	}
}
