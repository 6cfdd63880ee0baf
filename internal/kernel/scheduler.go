package kernel

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/nxp-qmc/qmc2g-core/internal/logger"
)

// Priority labels a spawned task the way the firmware core assigns a
// FreeRTOS task priority. The scheduler does not enforce preemption order
// between priorities — Go's runtime scheduler already time-slices
// goroutines fairly — but the label drives observability and lets the
// lifecycle supervisor reason about which tasks are safety-critical.
type Priority string

const (
	PriorityIdle     Priority = "idle"
	PriorityNormal   Priority = "normal"
	PriorityElevated Priority = "elevated"
	PriorityCritical Priority = "critical" // fault handling, watchdog kick
)

var activeTasks = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: "qmc",
		Subsystem: "kernel",
		Name:      "active_tasks",
		Help:      "Number of currently running coordination-kernel tasks by priority.",
	},
	[]string{"priority", "task"},
)

func init() {
	prometheus.MustRegister(activeTasks)
}

// Scheduler spawns and tracks the long-running tasks that make up the
// coordination kernel, so that a controlled shutdown can wait for every
// task to observe context cancellation and return.
type Scheduler struct {
	wg sync.WaitGroup
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Spawn starts fn in its own goroutine under the given name and priority.
// fn must return when ctx is cancelled. Spawn registers a metrics gauge
// for the task's lifetime and logs entry/exit at debug level.
func (s *Scheduler) Spawn(ctx context.Context, name string, priority Priority, fn func(context.Context)) {
	gauge := activeTasks.WithLabelValues(string(priority), name)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		gauge.Inc()
		defer gauge.Dec()
		logger.DebugCtx(ctx, "task started", logger.Task(name), logger.Priority(string(priority)))
		fn(ctx)
		logger.DebugCtx(ctx, "task stopped", logger.Task(name), logger.Priority(string(priority)))
	}()
}

// Wait blocks until every task spawned through this scheduler has
// returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
