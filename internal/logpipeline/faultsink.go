package logpipeline

import "github.com/nxp-qmc/qmc2g-core/internal/fault"

// faultEventCodes maps each individual fault bit to the EventCode its log
// record carries. The three "cleared" sentinels (NoFaultMC, NoFaultBS,
// NoFault) are intentionally absent: NoFaultMC is the zero value and
// indistinguishable from "no bit in this call's mask matched" without
// further plane context, so SubmitFault only logs fault assertions, not
// clear transitions.
var faultEventCodes = map[fault.Source]EventCode{
	fault.OverCurrent:                  EventOverCurrent,
	fault.UnderDCBusVoltage:            EventUnderDcBusVoltage,
	fault.OverDCBusVoltage:             EventOverDcBusVoltage,
	fault.OverLoad:                     EventOverLoad,
	fault.OverSpeed:                    EventOverSpeed,
	fault.RotorBlocked:                 EventRotorBlocked,
	fault.PSBOverTemperature1:          EventPsbOverTemperature1,
	fault.PSBOverTemperature2:          EventPsbOverTemperature2,
	fault.GD3000OverTemperature:        EventGD3000OverTemperature,
	fault.GD3000Desaturation:           EventGD3000Desaturation,
	fault.GD3000LowVLS:                 EventGD3000LowVLS,
	fault.GD3000OverCurrent:            EventGD3000OverCurrent,
	fault.GD3000PhaseError:             EventGD3000PhaseError,
	fault.GD3000Reset:                  EventGD3000Reset,
	fault.DbOverTemperature:            EventDbOverTemperature,
	fault.McuOverTemperature:           EventMcuOverTemperature,
	fault.PmicUnderVoltage1:            EventPmicUnderVoltage,
	fault.PmicUnderVoltage2:            EventPmicUnderVoltage,
	fault.PmicUnderVoltage3:            EventPmicUnderVoltage,
	fault.PmicUnderVoltage4:            EventPmicUnderVoltage,
	fault.PmicOverTemperature:          EventPmicOverTemperature,
	fault.EmergencyStop:                EventEmergencyStop,
	fault.AfeDbCommunicationError:      EventAfeDbCommunicationError,
	fault.DBTempSensCommunicationError: EventDBTempSensCommunicationError,
	fault.AfePsbCommunicationError:     EventAfePsbCommunicationError,
	fault.FaultBufferOverflow:          EventFaultBufferOverflow,
	fault.FaultQueueOverflow:           EventFaultQueueOverflow,
	fault.InvalidFaultSource:           EventInvalidFaultSource,
	fault.RpcCallFailed:                EventRPCCallFailed,
	fault.FunctionalWatchdogInitFail:   EventFunctionalWatchdogInitFailed,
}

// SubmitFault implements fault.LogSink: it queues one log record per set
// bit in src, in the Source/Category/EventCode shape internal/usermgmt's
// own logUserMgmt/logDefault helpers use for their domain events.
func (s *Service) SubmitFault(src fault.Source, motorID uint8, withID bool) {
	for bit, code := range faultEventCodes {
		if src&bit == 0 {
			continue
		}
		var rec Record
		if withID {
			rec = Record{Data: FaultWithIDData{
				Source:    SourceFaultHandling,
				Category:  CategoryFault,
				EventCode: code,
				ID:        motorID,
			}}
		} else {
			rec = Record{Data: FaultWithoutIDData{
				Source:    SourceFaultHandling,
				Category:  CategoryFault,
				EventCode: code,
			}}
		}
		_ = s.QueueEntry(rec, true)
	}
}
