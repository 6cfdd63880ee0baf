package board

import (
	"context"
	"sync"

	"github.com/nxp-qmc/qmc2g-core/internal/fault"
	"github.com/nxp-qmc/qmc2g-core/internal/kernel"
	"github.com/nxp-qmc/qmc2g-core/internal/logger"
	"github.com/nxp-qmc/qmc2g-core/internal/motorbus"
)

const eventBitPoll uint32 = 1 << 0

// FaultRaiser is the fault-reporting collaborator the board service posts
// through; *fault.Handler satisfies it via RaiseBlocking.
type FaultRaiser interface {
	RaiseBlocking(src fault.Source)
}

// SystemStatus exposes the subset of the shared system-status event group
// SelfTest inspects, satisfied by *kernel.EventGroup.
type SystemStatus interface {
	GetBits() uint32
}

// Service runs the board service loop: GD3000 status polling every
// iteration, a PSB/digital-board/MCU temperature sweep every
// wakeupsBeforeTemps+1'th iteration, and the boot/on-demand self-test.
type Service struct {
	bus        Bus
	faults     FaultRaiser
	system     SystemStatus
	thresholds Thresholds

	events *kernel.EventGroup
	timer  *kernel.Timer

	mu                         sync.Mutex
	initialized                bool
	spiSwitchFailReported      bool
	psbOvertempReported        [motorbus.MaxMotors]bool
	dbOvertempReported         bool
	mcuOvertempReported        bool
	communicationErrorReported bool
}

// New creates a Service. system is the shared system-status event group
// SelfTest checks for outstanding faults before reporting healthy.
func New(bus Bus, faults FaultRaiser, system SystemStatus, thresholds Thresholds) *Service {
	s := &Service{
		bus:        bus,
		faults:     faults,
		system:     system,
		thresholds: thresholds,
		events:     kernel.NewEventGroup(),
	}
	s.timer = kernel.NewTimer(pollInterval, true, func() {
		s.events.SetBits(eventBitPoll)
	})
	return s
}

// Init performs the one-time boot sequence: kicking the functional
// watchdog and selecting the gate-driver SPI mux for every motor.
func (s *Service) Init() {
	if err := s.bus.KickFunctionalWatchdog(); err != nil {
		s.faults.RaiseBlocking(fault.FunctionalWatchdogInitFail)
		logger.Error("functional watchdog registration failed",
			logger.Component("board"), logger.Err(err))
	}

	if err := s.bus.SelectSpiDevice(SpiMotorDriver); err != nil {
		logger.Error("could not select motor-driver SPI device at init",
			logger.Component("board"), logger.Err(err))
		return
	}

	s.mu.Lock()
	s.initialized = true
	s.mu.Unlock()
}

// Run drives the poll loop until ctx is done. Run is intended to be
// started via internal/kernel.Scheduler.Spawn.
func (s *Service) Run(ctx context.Context) {
	s.timer.Start()
	defer s.timer.Stop()

	wakeupCounter := 0
	for {
		_, err := s.events.Wait(ctx, eventBitPoll, false, true)
		if err != nil {
			return
		}

		if err := s.bus.KickFunctionalWatchdog(); err != nil {
			logger.Error("functional watchdog kick failed",
				logger.Component("board"), logger.Err(err))
		}

		wakeupCounter = (wakeupCounter + 1) % (wakeupsBeforeTemps + 1)

		if !s.spiSwitchFailReportedSnapshot() {
			s.pollGateDrivers()
		}

		if wakeupCounter == wakeupsBeforeTemps {
			s.sweepTemperatures()
		}
	}
}

func (s *Service) spiSwitchFailReportedSnapshot() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spiSwitchFailReported
}

func (s *Service) pollGateDrivers() {
	for motor := motorbus.MotorID(0); motor < motorbus.MaxMotors; motor++ {
		status, err := s.bus.GD3000Status(motor)
		if err != nil {
			logger.Error("gate driver status read failed",
				logger.Component("board"), logger.MotorID(int(motor)), logger.Err(err))
			continue
		}

		switch {
		case status.ResetRequest:
			if err := s.bus.ResetGD3000(motor); err != nil {
				logger.Error("gate driver reset failed",
					logger.Component("board"), logger.MotorID(int(motor)), logger.Err(err))
			}
		case status.HasFault():
			if err := s.bus.ClearGD3000Flags(motor); err != nil {
				logger.Error("gate driver flag clear failed",
					logger.Component("board"), logger.MotorID(int(motor)), logger.Err(err))
			}
		}
	}
}

// selectSpiDevice mux-selects dev, raising or clearing the rate-limited
// RpcCallFailed fault on transition, exactly mirroring the source task's
// SPISwitchFailReported bookkeeping around every RPC_SelectPowerStageBoardSpiDevice call.
func (s *Service) selectSpiDevice(dev SpiDevice) bool {
	if err := s.bus.SelectSpiDevice(dev); err != nil {
		s.mu.Lock()
		alreadyReported := s.spiSwitchFailReported
		s.spiSwitchFailReported = true
		s.mu.Unlock()
		if !alreadyReported {
			s.faults.RaiseBlocking(fault.RpcCallFailed)
		}
		return false
	}

	s.mu.Lock()
	wasReported := s.spiSwitchFailReported
	s.spiSwitchFailReported = false
	s.mu.Unlock()
	if wasReported {
		s.faults.RaiseBlocking(fault.NoFault)
	}
	return true
}

func (s *Service) sweepTemperatures() {
	communicationOK := true

	if s.selectSpiDevice(SpiAfe) {
		for motor := motorbus.MotorID(0); motor < motorbus.MaxMotors; motor++ {
			if !s.bus.HasAFE(motor) {
				continue
			}
			if ok := s.samplePSBTemps(motor); !ok {
				communicationOK = false
			}
		}
	} else {
		communicationOK = false
	}

	s.selectSpiDevice(SpiMotorDriver)

	dbOK := s.checkBoardTemperature()
	mcuOK := s.checkMCUTemperature(&communicationOK)
	systemTempOK := dbOK && mcuOK

	s.maybeClearStickyFaults(systemTempOK, communicationOK)
}

func (s *Service) samplePSBTemps(motor motorbus.MotorID) bool {
	ok := true

	t1, err := s.bus.ReadPSBTemp1(motor)
	if err != nil {
		s.reportAFECommError(motor)
		return false
	}
	over1 := t1 > s.thresholds.PSBTemp1

	t2, err := s.bus.ReadPSBTemp2(motor)
	if err != nil {
		s.reportAFECommError(motor)
		return false
	}
	over2 := t2 > s.thresholds.PSBTemp2

	if over1 {
		s.faults.RaiseBlocking(fault.NewSource(uint64(fault.PSBOverTemperature1), uint8(motor)))
	}
	if over2 {
		s.faults.RaiseBlocking(fault.NewSource(uint64(fault.PSBOverTemperature2), uint8(motor)))
	}

	s.mu.Lock()
	wasReported := s.psbOvertempReported[motor]
	nowFaulty := over1 || over2
	s.psbOvertempReported[motor] = nowFaulty
	s.mu.Unlock()

	if !nowFaulty && wasReported {
		s.faults.RaiseBlocking(fault.NewSource(uint64(fault.NoFaultBS), uint8(motor)))
	}

	if over1 || over2 {
		ok = false
	}
	return ok
}

func (s *Service) reportAFECommError(motor motorbus.MotorID) {
	s.faults.RaiseBlocking(fault.NewSource(uint64(fault.AfePsbCommunicationError), uint8(motor)))
	s.mu.Lock()
	s.communicationErrorReported = true
	s.mu.Unlock()
}

func (s *Service) checkBoardTemperature() bool {
	t, err := s.bus.ReadBoardTemperature()
	if err != nil {
		s.faults.RaiseBlocking(fault.DBTempSensCommunicationError)
		s.mu.Lock()
		s.communicationErrorReported = true
		s.mu.Unlock()
		return true // communication failure alone doesn't fail the temperature check itself
	}

	over := t > s.thresholds.DBTemp
	if over {
		s.faults.RaiseBlocking(fault.DbOverTemperature)
		s.mu.Lock()
		s.dbOvertempReported = true
		s.mu.Unlock()
	}
	logger.Debug("digital board temperature sampled",
		logger.Component("board"), logger.TemperatureC(t))
	return !over
}

func (s *Service) checkMCUTemperature(communicationOK *bool) bool {
	t, err := s.bus.ReadMCUTemperature()
	if err != nil {
		s.faults.RaiseBlocking(fault.RpcCallFailed)
		s.mu.Lock()
		s.communicationErrorReported = true
		s.mu.Unlock()
		*communicationOK = false
		return true
	}

	over := t > s.thresholds.MCUTemp
	if over {
		s.faults.RaiseBlocking(fault.McuOverTemperature)
		s.mu.Lock()
		s.mcuOvertempReported = true
		s.mu.Unlock()
	}
	return !over
}

func (s *Service) maybeClearStickyFaults(systemTempOK, communicationOK bool) {
	s.mu.Lock()
	anyReported := s.dbOvertempReported || s.mcuOvertempReported || s.communicationErrorReported
	shouldClear := systemTempOK && communicationOK && anyReported
	if shouldClear {
		s.dbOvertempReported = false
		s.mcuOvertempReported = false
		s.communicationErrorReported = false
	}
	s.mu.Unlock()

	if shouldClear {
		s.faults.RaiseBlocking(fault.NoFault)
	}
}

// SelfTest reports whether the board is healthy enough to accept a
// commissioning/maintenance transition: no outstanding motor or system
// fault bits, BoardServiceInit ran successfully, the AFE/digital-board
// sensors answer, and the secure element session is usable. Network-link
// and log-pipeline health bits are checked by their owning components, not
// here.
func (s *Service) SelfTest() error {
	bits := s.system.GetBits()
	if bits&(fault.SysEventFaultMotor1|fault.SysEventFaultMotor2|fault.SysEventFaultMotor3|fault.SysEventFaultMotor4|fault.SysEventFaultSystem) != 0 {
		return errSelfTestFailed
	}

	s.mu.Lock()
	initialized := s.initialized
	s.mu.Unlock()
	if !initialized {
		return errSelfTestFailed
	}

	if ok := s.selectSpiDevice(SpiAfe); !ok {
		return errSelfTestFailed
	}
	for motor := motorbus.MotorID(0); motor < motorbus.MaxMotors; motor++ {
		if !s.bus.HasAFE(motor) {
			continue
		}
		if _, err := s.bus.ReadPSBTemp1(motor); err != nil {
			return errSelfTestFailed
		}
	}
	if ok := s.selectSpiDevice(SpiMotorDriver); !ok {
		return errSelfTestFailed
	}

	if _, err := s.bus.ReadBoardTemperature(); err != nil {
		return errSelfTestFailed
	}

	if !s.bus.SecureElementReady() {
		return errSelfTestFailed
	}

	return nil
}
