package api

import (
	"context"

	"github.com/nxp-qmc/qmc2g-core/internal/configstore"
	"github.com/nxp-qmc/qmc2g-core/internal/lifecycle"
	"github.com/nxp-qmc/qmc2g-core/internal/logpipeline"
	"github.com/nxp-qmc/qmc2g-core/internal/motorbus"
	"github.com/nxp-qmc/qmc2g-core/internal/usermgmt"
)

// DeviceIdentity supplies the device identifier the /system endpoint
// reports, satisfied by internal/cliapp's staticDeviceIdentity.
type DeviceIdentity interface {
	DeviceID() string
}

// Resetter schedules a system reset, satisfied by
// *internal/logpipeline.Service via its shutdown-drain path.
type Resetter interface {
	RequestShutdown(reason logpipeline.ShutdownReason)
}

// Handlers bundles every core collaborator the REST surface dispatches
// to. Every core package is held as its concrete type rather than a
// narrow interface, following how internal/board's Service is wired
// directly against *motorbus.Bus: the REST layer is the outermost caller
// in this tree, with nothing further decoupling it from the core packages
// it fronts. Only Device and Reset are interfaces.
type Handlers struct {
	Users     *usermgmt.Manager
	Motors    *motorbus.Bus
	Log       *logpipeline.Service
	Lifecycle *lifecycle.Machine
	Config    *configstore.Store
	Clock     *SystemClock
	Device    DeviceIdentity
	Reset     Resetter

	FWVersion    string
	FwStagingDir string

	statuses *statusCache
}

// NewHandlers builds a Handlers bundle and starts the motor-status cache
// feeding GetMotors/GetMotor in its own goroutine, returning without
// waiting for the cache's subscription to be registered. Callers run the returned context's cancellation (or process
// shutdown) to stop the background feed.
func NewHandlers(ctx context.Context, users *usermgmt.Manager, motors *motorbus.Bus, log *logpipeline.Service, lc *lifecycle.Machine, cfg *configstore.Store, clock *SystemClock, device DeviceIdentity, reset Resetter, fwVersion, fwStagingDir string) *Handlers {
	h := &Handlers{
		Users:        users,
		Motors:       motors,
		Log:          log,
		Lifecycle:    lc,
		Config:       cfg,
		Clock:        clock,
		Device:       device,
		Reset:        reset,
		FWVersion:    fwVersion,
		FwStagingDir: fwStagingDir,
		statuses:     newStatusCache(motors),
	}
	go h.statuses.Run(ctx)
	return h
}
