// Package board implements the board service: periodic GD3000 gate-driver
// status polling, PSB/digital-board/MCU temperature monitoring with
// hysteresis, SPI-mux-selected AFE communication, and the boot/on-demand
// self-test, all driven from a single fixed-cadence loop.
package board

import "time"

// pollInterval is the board service's fixed wakeup cadence.
const pollInterval = 300 * time.Millisecond

// wakeupsBeforeTemps is the number of poll iterations between temperature
// sweeps; every (wakeupsBeforeTemps+1)th wakeup, i.e. every fifth, also
// samples PSB, digital board, and MCU temperatures.
const wakeupsBeforeTemps = 4

// Default over-temperature thresholds, in degrees Celsius. These mirror the
// firmware's PSB_TEMP1_THRESHOLD/PSB_TEMP2_THRESHOLD/DB_TEMP_THRESHOLD/
// MCU_TEMP_THRESHOLD board-config macros; the defining header was not
// present in the retrieval pack, so the exact values are a documented
// judgment call (see the project's design notes) rather than a ported
// constant.
const (
	DefaultPSBTemp1Threshold = 100.0
	DefaultPSBTemp2Threshold = 100.0
	DefaultDBTempThreshold   = 85.0
	DefaultMCUTempThreshold  = 105.0
)

// SpiDevice selects which peripheral the shared power-stage-board SPI bus
// is muxed to.
type SpiDevice uint8

const (
	SpiMotorDriver SpiDevice = iota
	SpiAfe
)

// GD3000Status is one gate-driver's status register snapshot.
type GD3000Status struct {
	ResetRequest bool
	Desaturation bool
	LowVLS       bool
	OverCurrent  bool
	OverTemp     bool
	FramingErr   bool
	PhaseErr     bool
}

// HasFault reports whether any latched fault bit is set.
func (s GD3000Status) HasFault() bool {
	return s.Desaturation || s.LowVLS || s.OverCurrent || s.OverTemp || s.FramingErr || s.PhaseErr
}

// Thresholds bundles the over-temperature thresholds the board service
// checks against, overridable from internal/configstore.
type Thresholds struct {
	PSBTemp1 float64
	PSBTemp2 float64
	DBTemp   float64
	MCUTemp  float64
}

// DefaultThresholds returns the documented default threshold set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		PSBTemp1: DefaultPSBTemp1Threshold,
		PSBTemp2: DefaultPSBTemp2Threshold,
		DBTemp:   DefaultDBTempThreshold,
		MCUTemp:  DefaultMCUTempThreshold,
	}
}
