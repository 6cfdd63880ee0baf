package api

import (
	"context"
	"sync"

	"github.com/nxp-qmc/qmc2g-core/internal/motorbus"
)

// statusCache mirrors the bus's latest per-motor status so GET /motors can
// answer synchronously instead of blocking on the next control-loop sample,
// the same shape internal/mqttpublish's motor-status publisher needs.
type statusCache struct {
	bus *motorbus.Bus

	mu       sync.RWMutex
	statuses [motorbus.MaxMotors]motorbus.Status
	have     [motorbus.MaxMotors]bool
}

func newStatusCache(bus *motorbus.Bus) *statusCache {
	return &statusCache{bus: bus}
}

// Run registers a status subscription and keeps the cache current until ctx
// is done, releasing the subscription slot on exit.
func (c *statusCache) Run(ctx context.Context) error {
	queue, mask, err := c.bus.NewStatusQueue(1, motorbus.MaxMotors*2)
	if err != nil {
		return err
	}
	defer c.bus.ReturnStatusQueue(mask)
	_ = queue

	for {
		status, err := c.bus.DequeueStatus(ctx, mask)
		if err != nil {
			return nil
		}
		if !status.MotorID.Valid() {
			continue
		}
		c.mu.Lock()
		c.statuses[status.MotorID] = status
		c.have[status.MotorID] = true
		c.mu.Unlock()
	}
}

// Get returns the latest known status for id, and whether one has arrived
// yet.
func (c *statusCache) Get(id motorbus.MotorID) (motorbus.Status, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !id.Valid() {
		return motorbus.Status{}, false
	}
	return c.statuses[id], c.have[id]
}

// All returns every motor's latest known status, in MotorID order.
func (c *statusCache) All() [motorbus.MaxMotors]motorbus.Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.statuses
}
