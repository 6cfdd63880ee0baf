// Package kernel provides the concurrency primitives the coordination
// kernel's tasks are built from: fixed-capacity queues, event groups,
// timers and a priority-labelled scheduler. It stands in for the FreeRTOS
// primitives (xQueue, xEventGroup, xTimer) the firmware core uses, giving
// every higher-level component the same blocking, timeout-bounded,
// statically-sized semantics.
package kernel

import (
	"context"
	"sync"

	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

// Queue is a fixed-capacity FIFO with an additional front-insertion path,
// mirroring FreeRTOS's xQueueSendToFront used to requeue a command that a
// motor task could not yet consume. A Queue's capacity is fixed at
// creation; Send/SendFront block (respecting ctx) when full, and Receive
// blocks when empty.
type Queue[T any] struct {
	mu       sync.Mutex
	notEmpty chan struct{}
	notFull  chan struct{}
	items    []T
	cap      int
}

// NewQueue creates a queue with the given fixed capacity. capacity must be
// positive.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity <= 0 {
		panic("kernel: queue capacity must be positive")
	}
	return &Queue[T]{
		items:    make([]T, 0, capacity),
		cap:      capacity,
		notEmpty: make(chan struct{}, 1),
		notFull:  make(chan struct{}, 1),
	}
}

func (q *Queue[T]) signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

// Send appends v to the back of the queue, blocking until space is
// available or ctx is done.
func (q *Queue[T]) Send(ctx context.Context, v T) error {
	return q.send(ctx, v, false)
}

// SendFront inserts v at the front of the queue, blocking until space is
// available or ctx is done. Used to return a partially-processed item to
// be retried first.
func (q *Queue[T]) SendFront(ctx context.Context, v T) error {
	return q.send(ctx, v, true)
}

func (q *Queue[T]) send(ctx context.Context, v T, front bool) error {
	for {
		q.mu.Lock()
		if len(q.items) < q.cap {
			if front {
				q.items = append([]T{v}, q.items...)
			} else {
				q.items = append(q.items, v)
			}
			q.mu.Unlock()
			q.signal(q.notEmpty)
			return nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return qmcerr.Timeout
		case <-q.notFull:
		}
	}
}

// TrySend appends v without blocking. It returns qmcerr.NoMem if the queue
// is at capacity.
func (q *Queue[T]) TrySend(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.cap {
		return qmcerr.NoMem
	}
	q.items = append(q.items, v)
	q.signal(q.notEmpty)
	return nil
}

// TrySendFront inserts v at the front without blocking, mirroring
// xQueueSendToFront called with a zero tick timeout. It returns
// qmcerr.NoMem if the queue is at capacity.
func (q *Queue[T]) TrySendFront(v T) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) >= q.cap {
		return qmcerr.NoMem
	}
	q.items = append([]T{v}, q.items...)
	q.signal(q.notEmpty)
	return nil
}

// Receive removes and returns the item at the front of the queue, blocking
// until one is available or ctx is done.
func (q *Queue[T]) Receive(ctx context.Context) (T, error) {
	var zero T
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			v := q.items[0]
			q.items = q.items[1:]
			q.mu.Unlock()
			q.signal(q.notFull)
			return v, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return zero, qmcerr.Timeout
		case <-q.notEmpty:
		}
	}
}

// TryReceive removes and returns the front item without blocking. It
// returns qmcerr.NoMsg if the queue is empty.
func (q *Queue[T]) TryReceive() (T, error) {
	var zero T
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return zero, qmcerr.NoMsg
	}
	v := q.items[0]
	q.items = q.items[1:]
	q.signal(q.notFull)
	return v, nil
}

// Len returns the current number of queued items.
func (q *Queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the queue's fixed capacity.
func (q *Queue[T]) Cap() int { return q.cap }
