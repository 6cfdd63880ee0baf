// Package lifecycle implements the device-wide operating-mode state
// machine, the SNVS low-power-GPR boot hand-off from the secure
// bootloader, and the power-loss/watchdog-reset shutdown signals,
// ported from api_board.h's lifecycle setter and qmc2_lpgpr.c's
// SNVS-LP-GPR accessors.
package lifecycle

// State is the device-wide operating mode. Exactly one State is active
// at any time, encoded one-hot in the shared SystemStatus event group.
type State uint8

const (
	Commissioning State = iota
	Operational
	Error
	Maintenance
	Decommissioning
)

func (s State) String() string {
	switch s {
	case Commissioning:
		return "commissioning"
	case Operational:
		return "operational"
	case Error:
		return "error"
	case Maintenance:
		return "maintenance"
	case Decommissioning:
		return "decommissioning"
	default:
		return "unknown"
	}
}

// System-status event-group bits for the lifecycle state, one-hot and
// placed below internal/fault's SysEventFaultMotor1 (1<<5) so the two
// bit ranges never overlap.
const (
	SysEventCommissioning   uint32 = 1 << 0
	SysEventOperational     uint32 = 1 << 1
	SysEventError           uint32 = 1 << 2
	SysEventMaintenance     uint32 = 1 << 3
	SysEventDecommissioning uint32 = 1 << 4
)

var stateBit = [...]uint32{
	Commissioning:    SysEventCommissioning,
	Operational:      SysEventOperational,
	Error:            SysEventError,
	Maintenance:      SysEventMaintenance,
	Decommissioning:  SysEventDecommissioning,
}

const allLifecycleBits = SysEventCommissioning | SysEventOperational | SysEventError |
	SysEventMaintenance | SysEventDecommissioning

// Shutdown signal bits. Placed past internal/logpipeline's
// SysEventLogMessageLost (1<<11); like every other SysEvent bit
// position in this tree, the literal board-header value was not in
// the retrieval pack, so these are a documented judgment call that
// only needs to not collide with the ranges already claimed above.
const (
	SysEventShutdownPowerLoss     uint32 = 1 << 12
	SysEventShutdownWatchdogReset uint32 = 1 << 13
)

// FwState is the firmware-update hand-off state the secure bootloader
// leaves for the application in the SNVS-LP-GPR word, ported from
// qmc2_lpgpr.c's kFWU_* enumerators.
type FwState uint8

const (
	FwNone FwState = iota
	FwRevert
	FwCommit
	FwBackupCfg
	FwAwdtExpired
	FwVerifyFw
	FwTimestampIssue
)

// SnvsLpGprState mirrors svns_lpgpr_t: the hand-off word the bootloader
// writes once before starting the application and the application
// reads once at boot, per QMC2_LPGPR_Init/Read.
type SnvsLpGprState struct {
	FwState       FwState
	WdStatus      uint8
	WdTimerBackup uint32
}
