package logpipeline

import (
	"context"
	"sync"

	"github.com/nxp-qmc/qmc2g-core/internal/kernel"
	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

// MaxExportQueues bounds the number of concurrently registered export
// consumers. The defining header for the dynamic queue pool's capacity
// was not in the retrieval pack; 8 is an invented default sized for a
// handful of simultaneous export clients (REST download, MQTT stream,
// CLI tail).
const MaxExportQueues = 8

const eventBitFirstExport uint32 = 1 << 0

type exportSubscriber struct {
	queue     *kernel.Queue[*EncryptedRecord]
	eventMask uint32
}

// Registry is the dynamic fan-out of export consumer queues: callers
// obtain a handle via NewQueue, Push streams every encrypted record to
// every registered consumer (dropping, not blocking, a consumer that
// cannot keep up), and ReturnQueue releases a handle once a consumer
// disconnects.
type Registry struct {
	events *kernel.EventGroup

	mu          sync.Mutex
	subscribers [MaxExportQueues]*exportSubscriber
}

// NewRegistry creates an empty export fan-out registry.
func NewRegistry() *Registry {
	return &Registry{events: kernel.NewEventGroup()}
}

// NewQueue allocates a fan-out slot with the given queue depth and
// returns its event bit. It returns qmcerr.NoMem if every slot is in
// use.
func (r *Registry) NewQueue(queueLen int) (uint32, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.subscribers {
		if r.subscribers[i] == nil {
			mask := eventBitFirstExport << uint(i)
			r.subscribers[i] = &exportSubscriber{
				queue:     kernel.NewQueue[*EncryptedRecord](queueLen),
				eventMask: mask,
			}
			return mask, nil
		}
	}
	return 0, qmcerr.NoMem
}

// ReturnQueue releases a previously obtained fan-out slot.
func (r *Registry) ReturnQueue(eventMask uint32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.subscribers {
		if r.subscribers[i] != nil && r.subscribers[i].eventMask == eventMask {
			r.subscribers[i] = nil
			return nil
		}
	}
	return qmcerr.ArgInvalid
}

// Dequeue retrieves the next encrypted record for the consumer
// identified by eventMask, waiting up to ctx for one to arrive.
func (r *Registry) Dequeue(ctx context.Context, eventMask uint32) (*EncryptedRecord, error) {
	r.mu.Lock()
	var sub *exportSubscriber
	for i := range r.subscribers {
		if r.subscribers[i] != nil && r.subscribers[i].eventMask == eventMask {
			sub = r.subscribers[i]
			break
		}
	}
	r.mu.Unlock()
	if sub == nil {
		return nil, qmcerr.ArgInvalid
	}

	if rec, err := sub.queue.TryReceive(); err == nil {
		return rec, nil
	}
	if _, err := r.events.Wait(ctx, eventMask, false, true); err != nil {
		return nil, err
	}
	return sub.queue.Receive(ctx)
}

// HasConsumers reports whether any export consumer is currently
// registered. The datalogger only pays the cost of encrypting a record
// when at least one consumer exists to read it.
func (r *Registry) HasConsumers() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.subscribers {
		if r.subscribers[i] != nil {
			return true
		}
	}
	return false
}

// Push fans rec out to every registered consumer, returning the count
// of consumers whose queue was full and therefore missed it.
func (r *Registry) Push(rec *EncryptedRecord) (lost int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.subscribers {
		sub := r.subscribers[i]
		if sub == nil {
			continue
		}
		if err := sub.queue.TrySend(rec); err != nil {
			lost++
			continue
		}
		r.events.SetBits(sub.eventMask)
	}
	return lost
}
