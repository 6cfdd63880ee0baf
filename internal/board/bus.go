package board

import "github.com/nxp-qmc/qmc2g-core/internal/motorbus"

// Bus is the hardware collaborator the board service drives: the shared
// power-stage-board SPI mux, the four GD3000 gate drivers, the AFE
// temperature channels, the digital-board temperature sensor, the MCU
// temperature RPC, and the functional-watchdog kick. Concrete register
// access is out of scope; production wiring targets the FlexIO SPI / NAFE1x388
// / RPC stack the original task used, exposed here as a fake for tests.
type Bus interface {
	// SelectSpiDevice muxes the shared PSB SPI bus to dev. It fails when the
	// companion core's RPC call to perform the mux select does not succeed.
	SelectSpiDevice(dev SpiDevice) error

	// GD3000Status reads and clears the gate-driver status register for motor.
	GD3000Status(motor motorbus.MotorID) (GD3000Status, error)

	// ResetGD3000 reinitializes the gate driver for motor after a reset request.
	ResetGD3000(motor motorbus.MotorID) error

	// ClearGD3000Flags acknowledges motor's latched gate-driver fault flags.
	ClearGD3000Flags(motor motorbus.MotorID) error

	// HasAFE reports whether motor's power-stage board carries an AFE
	// temperature sensing channel (not every board variant does).
	HasAFE(motor motorbus.MotorID) bool

	// ReadPSBTemp1 samples the first AFE temperature channel for motor.
	ReadPSBTemp1(motor motorbus.MotorID) (celsius float64, err error)

	// ReadPSBTemp2 samples the second AFE temperature channel for motor.
	ReadPSBTemp2(motor motorbus.MotorID) (celsius float64, err error)

	// ReadBoardTemperature samples the digital board's onboard sensor.
	ReadBoardTemperature() (celsius float64, err error)

	// ReadMCUTemperature requests the MCU core temperature over RPC.
	ReadMCUTemperature() (celsius float64, err error)

	// KickFunctionalWatchdog services the board service's watchdog slot.
	KickFunctionalWatchdog() error

	// SecureElementReady reports whether the secure element session is
	// open and has a usable UID, used by SelfTest.
	SecureElementReady() bool
}
