package cliapp

import (
	"context"
	"fmt"

	"github.com/nxp-qmc/qmc2g-core/internal/board"
	"github.com/nxp-qmc/qmc2g-core/internal/logger"
	"github.com/nxp-qmc/qmc2g-core/internal/logpipeline"
	"github.com/nxp-qmc/qmc2g-core/internal/motorbus"
	"github.com/nxp-qmc/qmc2g-core/internal/qmcerr"
)

// unattachedControlLoop satisfies motorbus.ControlLoop when no real-time
// control core is reachable (e.g. running qmcd off-target for the REST/MQTT
// surfaces alone). Production wiring replaces this with the RPC bridge to
// the Cortex-M core that actually runs the control loop.
type unattachedControlLoop struct{}

func (unattachedControlLoop) SetCommand(motorbus.Command) error {
	return fmt.Errorf("no control-loop core attached: %w", qmcerr.Err)
}

func (unattachedControlLoop) GetStatus(id motorbus.MotorID) motorbus.Status {
	return motorbus.Status{MotorID: id}
}

// unattachedBoardBus satisfies board.Bus when no board peripheral access
// (FlexIO SPI, NAFE1x388, MCU temperature RPC) is reachable. Every read
// reports the corresponding communication-error condition rather than
// silently reporting a healthy board; KickFunctionalWatchdog no-ops so the
// watchdog loop itself doesn't starve while this bridge is in place.
type unattachedBoardBus struct{}

func (unattachedBoardBus) SelectSpiDevice(board.SpiDevice) error {
	return fmt.Errorf("no board bus attached: %w", qmcerr.Err)
}

func (unattachedBoardBus) GD3000Status(motorbus.MotorID) (board.GD3000Status, error) {
	return board.GD3000Status{}, fmt.Errorf("no board bus attached: %w", qmcerr.Err)
}

func (unattachedBoardBus) ResetGD3000(motorbus.MotorID) error {
	return fmt.Errorf("no board bus attached: %w", qmcerr.Err)
}

func (unattachedBoardBus) ClearGD3000Flags(motorbus.MotorID) error {
	return fmt.Errorf("no board bus attached: %w", qmcerr.Err)
}

func (unattachedBoardBus) HasAFE(motorbus.MotorID) bool { return false }

func (unattachedBoardBus) ReadPSBTemp1(motorbus.MotorID) (float64, error) {
	return 0, fmt.Errorf("no board bus attached: %w", qmcerr.Err)
}

func (unattachedBoardBus) ReadPSBTemp2(motorbus.MotorID) (float64, error) {
	return 0, fmt.Errorf("no board bus attached: %w", qmcerr.Err)
}

func (unattachedBoardBus) ReadBoardTemperature() (float64, error) {
	return 0, fmt.Errorf("no board bus attached: %w", qmcerr.Err)
}

func (unattachedBoardBus) ReadMCUTemperature() (float64, error) {
	return 0, fmt.Errorf("no board bus attached: %w", qmcerr.Err)
}

func (unattachedBoardBus) KickFunctionalWatchdog() error { return nil }

func (unattachedBoardBus) SecureElementReady() bool { return false }

// staticDeviceIdentity reports a fixed device ID, satisfying both
// internal/restapi's and internal/usermgmt's DeviceIdentity interfaces.
// build wires it from Config.DeviceID; *internal/secureelement.Session
// exposes the element's UID through UID() and has no DeviceID method.
type staticDeviceIdentity string

func (d staticDeviceIdentity) DeviceID() string { return string(d) }

// noopFastLoopDisabler satisfies logpipeline.FastLoopDisabler when there is
// no fast-loop NVIC to disable from this process; standing in for the
// real-time core's DisableMotorInterrupts sweep.
type noopFastLoopDisabler struct{}

func (noopFastLoopDisabler) DisableFastLoopInterrupts() {}

// processResetter satisfies logpipeline.Resetter by cancelling the
// application's root context instead of issuing RPC_Reset: on real
// hardware the log pipeline's shutdown drain ends in a hardware reset,
// while a Go daemon's closest equivalent is a clean process exit that lets
// its supervisor (systemd, an orchestrator) restart it.
type processResetter struct {
	cancel context.CancelFunc
}

func (r processResetter) Reset(reason logpipeline.ShutdownReason) error {
	logger.Warn("log pipeline requested a system reset, cancelling root context instead",
		logger.Component("cliapp"), "reason", reason)
	r.cancel()
	return nil
}

// unprovisionedKeyRevoker satisfies lifecycle.SEKeyRevoker when no secure
// element session is attached; RevokeKeys is a no-op since there is
// nothing provisioned to revoke.
type unprovisionedKeyRevoker struct{}

func (unprovisionedKeyRevoker) RevokeKeys() error { return nil }
