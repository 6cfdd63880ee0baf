package cliapp

import (
	"context"
	"fmt"

	"github.com/nxp-qmc/qmc2g-core/internal/board"
	"github.com/nxp-qmc/qmc2g-core/internal/configstore"
	"github.com/nxp-qmc/qmc2g-core/internal/fault"
	"github.com/nxp-qmc/qmc2g-core/internal/kernel"
	"github.com/nxp-qmc/qmc2g-core/internal/lifecycle"
	"github.com/nxp-qmc/qmc2g-core/internal/logger"
	"github.com/nxp-qmc/qmc2g-core/internal/logpipeline"
	"github.com/nxp-qmc/qmc2g-core/internal/motorbus"
	"github.com/nxp-qmc/qmc2g-core/internal/mqttpublish"
	restapi "github.com/nxp-qmc/qmc2g-core/internal/restapi"
	"github.com/nxp-qmc/qmc2g-core/internal/usermgmt"
)

// App bundles every component qmcd start runs, wired together the way
// internal/restapi/deps.go's NewHandlers doc comment describes: concrete
// core types passed directly between collaborators, with the REST/MQTT
// surfaces as the outermost callers.
type App struct {
	cfg *Config

	configStore *configstore.Store
	events      *kernel.EventGroup
	motors      *motorbus.Bus
	faults      *fault.Handler
	lifecycleM  *lifecycle.Machine
	logSvc      *logpipeline.Service
	users       *usermgmt.Manager
	boardSvc    *board.Service

	restServer *restapi.Server
	mqttPub    *mqttpublish.Publisher
}

// systemClockAdapter adapts internal/restapi's SystemClock to satisfy
// internal/usermgmt's Clock interface (both are Now() (int64, bool)).
type systemClockAdapter struct{ *restapi.SystemClock }

func (c systemClockAdapter) Now() (int64, bool) { return c.SystemClock.Now() }

// stopAllPolicy is the fault.StopPolicy used when FaultConfig.StopAllOnAnyFault
// is set: every motor is stopped alongside the one that faulted.
func stopAllPolicy(_, _ motorbus.MotorID) bool { return true }

// build wires every core collaborator from cfg, in dependency order:
// configuration store, shared system event group, motor bus (with its
// ControlLoop bridge), log pipeline, lifecycle machine, fault handler
// (backed by logSvc's SubmitFault adapter), user manager, board service,
// then the REST and MQTT outer surfaces.
func build(ctx context.Context, cancel context.CancelFunc, cfg *Config) (*App, error) {
	seal, err := configSeal(cfg.ConfigStore)
	if err != nil {
		return nil, fmt.Errorf("building config store seal: %w", err)
	}
	store, err := configstore.Open(cfg.ConfigStore.Dir, seal)
	if err != nil {
		return nil, fmt.Errorf("opening config store: %w", err)
	}

	events := kernel.NewEventGroup()

	motors := motorbus.New(unattachedControlLoop{}, cfg.CommandQueueLen)

	ring, err := logpipeline.NewFlashRing(cfg.LogPipeline.FlashDir, cfg.LogPipeline.AreaLength, cfg.LogPipeline.SectorSize)
	if err != nil {
		return nil, fmt.Errorf("opening log pipeline flash ring: %w", err)
	}
	resetter := processResetter{cancel: cancel}
	logSvc := logpipeline.New(ring, nil, nil, motors, motors, noopFastLoopDisabler{}, resetter)

	var policy fault.StopPolicy
	if cfg.Fault.StopAllOnAnyFault {
		policy = stopAllPolicy
	}

	lc := lifecycle.New(events, lifecycle.NewMemSnvsStore(lifecycle.SnvsLpGprState{}), motors, unprovisionedKeyRevoker{})

	faults := fault.New(motors, events, logSvc, lc, policy, cfg.Fault.QueueLen)

	device := staticDeviceIdentity(cfg.DeviceID)
	clock := restapi.NewSystemClock()
	users := usermgmt.New(store, systemClockAdapter{clock}, device, logSvc)

	boardSvc := board.New(unattachedBoardBus{}, faults, events, cfg.Board.thresholds())

	handlers := restapi.NewHandlers(ctx, users, motors, logSvc, lc, store, clock, device, logSvc, cfg.FWVersion, cfg.RestAPI.FwStagingDir)
	restServer := restapi.NewServer(cfg.RestAPI, handlers, users)

	var mqttPub *mqttpublish.Publisher
	if cfg.MQTT.DeviceID != "" {
		mqttPub, err = mqttpublish.New(cfg.MQTT, cfg.FWVersion, lc, faults, boardSystemSource{}, motors, logSvc)
		if err != nil {
			return nil, fmt.Errorf("connecting mqtt publisher: %w", err)
		}
	}

	return &App{
		cfg:         cfg,
		configStore: store,
		events:      events,
		motors:      motors,
		faults:      faults,
		lifecycleM:  lc,
		logSvc:      logSvc,
		users:       users,
		boardSvc:    boardSvc,
		restServer:  restServer,
		mqttPub:     mqttPub,
	}, nil
}

// boardSystemSource reports the ADStatus/SDCardAvailable signals
// internal/mqttpublish wants and this tree has no dedicated reader for
// (see mqttpublish.SystemStatusSource's doc comment); both read as
// "unavailable" until a board.Bus is attached to back them for real.
type boardSystemSource struct{}

func (boardSystemSource) ADStatus() bool        { return false }
func (boardSystemSource) SDCardAvailable() bool { return false }

// Run starts every background loop and blocks until ctx is cancelled;
// the loops stop with ctx, and Run then closes the configuration store.
func (a *App) Run(ctx context.Context) error {
	a.boardSvc.Init()

	go a.motors.Run(ctx)
	go a.faults.Run(ctx)
	go a.logSvc.Run(ctx)
	go a.boardSvc.Run(ctx)
	if a.mqttPub != nil {
		go a.mqttPub.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.restServer.Start(ctx)
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received, stopping", logger.Component("cliapp"))
		<-errCh
		return a.Close()
	case err := <-errCh:
		a.Close()
		return err
	}
}

// Close releases every collaborator holding an OS resource.
func (a *App) Close() error {
	return a.configStore.Close()
}
