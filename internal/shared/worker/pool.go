package worker

import (
	"context"
	"sync"
	"time"

	"resume-studio/internal/shared/telemetry"
)

// Task is a background job. Its error is logged and otherwise dropped.
type Task func(ctx context.Context) error

type job struct {
	name string
	run  Task
}

// Pool runs best-effort background tasks on a fixed set of goroutines.
type Pool struct {
	queue   chan job
	timeout time.Duration
	wg      sync.WaitGroup

	mu      sync.RWMutex
	closing bool
}

// NewPool starts size workers with a bounded queue. Each task runs with the
// given timeout (none when zero).
func NewPool(size, queueSize int, timeout time.Duration) *Pool {
	if size <= 0 {
		size = 1
	}
	if queueSize <= 0 {
		queueSize = 100
	}
	p := &Pool{
		queue:   make(chan job, queueSize),
		timeout: timeout,
	}
	for range size {
		p.wg.Add(1)
		go p.work()
	}
	return p
}

func (p *Pool) work() {
	defer p.wg.Done()
	for j := range p.queue {
		p.run(j)
	}
}

func (p *Pool) run(j job) {
	ctx := context.Background()
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	defer func() {
		if rec := recover(); rec != nil {
			telemetry.Error("worker.task.panic", map[string]any{"task": j.name, "panic": rec})
		}
	}()
	if err := j.run(ctx); err != nil {
		telemetry.Warn("worker.task.failed", map[string]any{"task": j.name, "err": err})
	}
}

// Submit enqueues a task without blocking. It reports false when the pool is
// shutting down or the queue is full; the task is dropped in both cases.
func (p *Pool) Submit(name string, t Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closing {
		telemetry.Warn("worker.task.dropped", map[string]any{"task": name, "reason": "shutdown"})
		return false
	}
	select {
	case p.queue <- job{name: name, run: t}:
		return true
	default:
		telemetry.Warn("worker.task.dropped", map[string]any{"task": name, "reason": "queue_full"})
		return false
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closing {
		p.mu.Unlock()
		return
	}
	p.closing = true
	close(p.queue)
	p.mu.Unlock()
	p.wg.Wait()
}
