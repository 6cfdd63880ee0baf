package lifecycle

import (
	"sync"

	"github.com/nxp-qmc/qmc2g-core/internal/kernel"
	"github.com/nxp-qmc/qmc2g-core/internal/logger"
	"github.com/nxp-qmc/qmc2g-core/internal/motorbus"
)

// MotorUnfreezer lifts the TSN freeze on every motor, called on entry
// to Maintenance per the source's mc_unfreeze_motor sweep.
// *motorbus.Bus satisfies it via UnfreezeMotor.
type MotorUnfreezer interface {
	UnfreezeMotor(motor motorbus.MotorID) error
}

// SEKeyRevoker revokes the secure element's provisioned keys, called
// once on entry to Decommissioning via the secure bootloader per spec
// §4.9 ("Decommissioning is terminal; it triggers SE key revocation via
// the SBL").
type SEKeyRevoker interface {
	RevokeKeys() error
}

// Machine owns the device-wide lifecycle state and its SystemStatus
// event-group bit, and implements internal/fault.LifecycleSink so the
// fault handler can force an Error transition directly.
type Machine struct {
	mu          sync.Mutex
	current     State
	bootFwState FwState
	events      *kernel.EventGroup
	snvs        SnvsStore
	unfreeze    MotorUnfreezer
	revoke      SEKeyRevoker
}

// New reads the SNVS-LP-GPR hand-off word once (QMC2_LPGPR_Init's
// "read once at boot" contract) and boots into Maintenance if the
// bootloader reports an expired authenticated watchdog ticket
// (FwAwdtExpired), else Commissioning, per spec §4.9's boot rule.
func New(events *kernel.EventGroup, snvs SnvsStore, unfreeze MotorUnfreezer, revoke SEKeyRevoker) *Machine {
	m := &Machine{
		current:  Commissioning,
		events:   events,
		snvs:     snvs,
		unfreeze: unfreeze,
		revoke:   revoke,
	}

	if snvs != nil {
		if state, err := snvs.Read(); err == nil {
			m.bootFwState = state.FwState
			if state.FwState == FwAwdtExpired {
				m.current = Maintenance
			}
		} else {
			logger.Error("SNVS-LP-GPR hand-off read failed, defaulting to commissioning",
				logger.Component("lifecycle"), logger.Err(err))
		}
	}

	if events != nil {
		events.ClearBits(allLifecycleBits)
		events.SetBits(stateBit[m.current])
	}
	return m
}

// State returns the current lifecycle state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// BootFwState returns the firmware hand-off state read from the SNVS-LP-GPR
// word at boot, letting callers (the MQTT telemetry publisher's
// restart_required_configuration_backup/restart_required_fw_update_commit
// topics) report whether the secure bootloader is waiting on a pending
// configuration backup or firmware commit.
func (m *Machine) BootFwState() FwState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bootFwState
}

func (m *Machine) setLocked(next State) {
	if m.events != nil {
		m.events.ClearBits(stateBit[m.current])
		m.events.SetBits(stateBit[next])
	}
	m.current = next
}

// SetErrorState forces a transition to Error from any non-terminal
// state, latching it (a second fault while already in Error is a
// no-op), satisfying internal/fault.LifecycleSink. Decommissioning is
// terminal and is never overridden.
func (m *Machine) SetErrorState() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == Error || m.current == Decommissioning {
		return
	}
	m.setLocked(Error)
}

// EnterMaintenance transitions Error → Maintenance, the only edge spec
// §4.9 allows into Maintenance from a live fault, and unfreezes every
// motor on entry. Callers are responsible for having already verified
// the request came from an authenticated Maintenance-role session.
func (m *Machine) EnterMaintenance() error {
	m.mu.Lock()
	if m.current != Error {
		m.mu.Unlock()
		return ErrInvalidTransition
	}
	m.setLocked(Maintenance)
	m.mu.Unlock()

	if m.unfreeze == nil {
		return nil
	}
	var firstErr error
	for motor := motorbus.MotorID(0); motor < motorbus.MaxMotors; motor++ {
		if err := m.unfreeze.UnfreezeMotor(motor); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// EnterOperational transitions Maintenance → Operational, the only
// edge spec §4.9 allows out of Maintenance.
func (m *Machine) EnterOperational() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != Maintenance {
		return ErrInvalidTransition
	}
	m.setLocked(Operational)
	return nil
}

// EnterDecommissioning transitions to the terminal Decommissioning
// state from any state and revokes the secure element's keys via the
// bootloader hand-off.
func (m *Machine) EnterDecommissioning() error {
	m.mu.Lock()
	if m.current == Decommissioning {
		m.mu.Unlock()
		return nil
	}
	m.setLocked(Decommissioning)
	m.mu.Unlock()

	if m.revoke == nil {
		return nil
	}
	return m.revoke.RevokeKeys()
}
