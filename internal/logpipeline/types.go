// Package logpipeline implements the log recording and export pipeline:
// an inbound priority queue of plain records, an append-only flash-sector
// ring holding them durably, per-record encryption for any attached
// export consumer, and a dynamically allocated fan-out of subscriber
// queues that stream the encrypted records out.
package logpipeline

import "time"

// Source identifies the subsystem that submitted a log record, mirroring
// log_source_id_t.
type Source uint8

const (
	SourceUnspecified                 Source = 0x00
	SourceWebservice                  Source = 0x01
	SourceFaultHandling               Source = 0x02
	SourceCloudService                Source = 0x03
	SourceLocalService                Source = 0x04
	SourceBoardService                Source = 0x05
	SourceAnomalyDetection            Source = 0x06
	SourceMotorControl                Source = 0x07
	SourceSecureWatchdog              Source = 0x08
	SourceTaskStartup                 Source = 0x09
	SourceRpcModule                   Source = 0x0A
	SourceSecureWatchdogRequestNonce  Source = 0x0B
	SourceSecureWatchdogRequestTicket Source = 0x0C
	SourceSecureWatchdogKick          Source = 0x0D
	SourceFunctionalWatchdog          Source = 0x0E
	SourcePowerLossInterrupt          Source = 0x0F
	SourceLoggingService              Source = 0x10
	SourceTSN                         Source = 0x11
	SourceDataHub                     Source = 0x12
	SourceSecureBootloader            Source = 0x13
	SourceUserManagement              Source = 0x14
)

// Category groups log records for filtering, mirroring log_category_id_t.
type Category uint8

const (
	CategoryGeneral        Category = 0x00
	CategoryFault          Category = 0x01
	CategoryAuthentication Category = 0x02
	CategoryConnectivity   Category = 0x03
)

// EventCode is the specific event a record reports, mirroring
// log_event_code_t.
type EventCode uint16

const (
	EventAfeDbCommunicationError      EventCode = 0x00
	EventAfePsbCommunicationError     EventCode = 0x01
	EventDBTempSensCommunicationError EventCode = 0x02
	EventDbOverTemperature            EventCode = 0x03
	EventEmergencyStop                EventCode = 0x04
	EventFaultBufferOverflow          EventCode = 0x05
	EventFaultQueueOverflow           EventCode = 0x06
	EventGD3000Desaturation           EventCode = 0x07
	EventGD3000LowVLS                 EventCode = 0x08
	EventGD3000OverCurrent            EventCode = 0x09
	EventGD3000OverTemperature        EventCode = 0x0A
	EventGD3000PhaseError             EventCode = 0x0B
	EventGD3000Reset                  EventCode = 0x0C
	EventInvalidFaultSource           EventCode = 0x0D
	EventMcuOverTemperature           EventCode = 0x0E
	EventNoFault                      EventCode = 0x0F
	EventNoFaultBS                    EventCode = 0x10
	EventNoFaultMC                    EventCode = 0x11
	EventOverCurrent                  EventCode = 0x12
	EventOverDcBusVoltage             EventCode = 0x13
	EventOverLoad                     EventCode = 0x14
	EventOverSpeed                    EventCode = 0x15
	EventPmicOverTemperature          EventCode = 0x16
	EventPmicUnderVoltage             EventCode = 0x17
	EventSPISwitchFailed              EventCode = 0x18
	EventPsbOverTemperature1          EventCode = 0x19
	EventPsbOverTemperature2          EventCode = 0x1A
	EventRotorBlocked                 EventCode = 0x1B
	EventUnderDcBusVoltage            EventCode = 0x1C

	EventButton1Pressed         EventCode = 0x1D
	EventButton2Pressed         EventCode = 0x1E
	EventButton3Pressed         EventCode = 0x1F
	EventButton4Pressed         EventCode = 0x20
	EventEmergencyButtonPressed EventCode = 0x21
	EventLidOpenButton          EventCode = 0x22
	EventLidOpenSd              EventCode = 0x23
	EventTamperingButton        EventCode = 0x24
	EventTamperingSd            EventCode = 0x25

	EventResetSecureWatchdog EventCode = 0x26

	EventAccountResumed   EventCode = 0x27
	EventAccountSuspended EventCode = 0x28
	EventLoginFailure     EventCode = 0x29
	EventSessionTimeout   EventCode = 0x2A
	EventTerminateSession EventCode = 0x2B
	EventUserLogin        EventCode = 0x2C
	EventUserLogout       EventCode = 0x2D

	EventQueueingCommandFailedInternal EventCode = 0x2E
	EventQueueingCommandFailedTSN      EventCode = 0x2F
	EventQueueingCommandFailedQueue    EventCode = 0x30

	EventResetRequest      EventCode = 0x31
	EventInvalidResetCause EventCode = 0x32

	EventInvalidArgument  EventCode = 0x33
	EventRPCCallFailed    EventCode = 0x34
	EventAWDTExpired      EventCode = 0x35
	EventSignatureInvalid EventCode = 0x36
	EventTimeout          EventCode = 0x37
	EventSyncError        EventCode = 0x38
	EventInternalError    EventCode = 0x39
	EventNoBufsError      EventCode = 0x3A
	EventConnectionError  EventCode = 0x3B
	EventRequestError     EventCode = 0x3C
	EventJsonParsingError EventCode = 0x3D
	EventRangeError       EventCode = 0x3E
	EventPowerLoss        EventCode = 0x3F

	EventResetFunctionalWatchdog      EventCode = 0x40
	EventFunctionalWatchdogKickFailed EventCode = 0x41
	EventFunctionalWatchdogInitFailed EventCode = 0x42

	EventUserCreated EventCode = 0x43
	EventUserUpdate  EventCode = 0x44
	EventUserRemoved EventCode = 0x45
)

// RecordType discriminates the tagged-union payload a Record carries,
// mirroring log_record_type_id_t. It is the stable, compact on-flash
// discriminant so records remain readable across versions.
type RecordType uint8

const (
	RecordDefault        RecordType = 0x01
	RecordFaultWithID    RecordType = 0x02
	RecordFaultWithoutID RecordType = 0x03
	RecordSystem         RecordType = 0x04
	RecordErrorCount     RecordType = 0x05
	RecordUserMgmt       RecordType = 0x06
)

// maxDataSize is the encoded size of the largest Data variant
// (ErrorCountData), which fixes the payload recorder's per-record size.
const maxDataSize = 8

// Data is the tagged-union payload a Record carries. Every variant
// encodes itself into a fixed maxDataSize-byte buffer so the ring's
// record size never changes after init.
type Data interface {
	Type() RecordType
	encode(buf []byte)
}

// DefaultData is the general-purpose record payload.
type DefaultData struct {
	Source    Source
	Category  Category
	EventCode EventCode
	User      uint16
}

func (d DefaultData) Type() RecordType { return RecordDefault }
func (d DefaultData) encode(buf []byte) {
	buf[0] = byte(d.Source)
	buf[1] = byte(d.Category)
	putUint16(buf[2:4], uint16(d.EventCode))
	putUint16(buf[4:6], d.User)
}

// FaultWithIDData is a fault record further qualified by a motor, PSB or
// PMIC id.
type FaultWithIDData struct {
	Source    Source
	Category  Category
	EventCode EventCode
	ID        uint8
}

func (d FaultWithIDData) Type() RecordType { return RecordFaultWithID }
func (d FaultWithIDData) encode(buf []byte) {
	buf[0] = byte(d.Source)
	buf[1] = byte(d.Category)
	putUint16(buf[2:4], uint16(d.EventCode))
	buf[4] = d.ID
}

// FaultWithoutIDData is a fault-handling application error with no
// associated id.
type FaultWithoutIDData struct {
	Source    Source
	Category  Category
	EventCode EventCode
}

func (d FaultWithoutIDData) Type() RecordType { return RecordFaultWithoutID }
func (d FaultWithoutIDData) encode(buf []byte) {
	buf[0] = byte(d.Source)
	buf[1] = byte(d.Category)
	putUint16(buf[2:4], uint16(d.EventCode))
}

// SystemData is a general system event record.
type SystemData struct {
	Source    Source
	Category  Category
	EventCode EventCode
}

func (d SystemData) Type() RecordType { return RecordSystem }
func (d SystemData) encode(buf []byte) {
	buf[0] = byte(d.Source)
	buf[1] = byte(d.Category)
	putUint16(buf[2:4], uint16(d.EventCode))
}

// ErrorCountData is a record carrying an associated occurrence counter.
type ErrorCountData struct {
	Source    Source
	Category  Category
	ErrorCode uint16
	User      uint16
	Count     uint16
}

func (d ErrorCountData) Type() RecordType { return RecordErrorCount }
func (d ErrorCountData) encode(buf []byte) {
	buf[0] = byte(d.Source)
	buf[1] = byte(d.Category)
	putUint16(buf[2:4], d.ErrorCode)
	putUint16(buf[4:6], d.User)
	putUint16(buf[6:8], d.Count)
}

// UserMgmtData is a user-account lifecycle record: who performed the
// action (User, the acting session's uid) and which account it affected
// (Subject), mirroring log_record_t's usrMgmt variant.
type UserMgmtData struct {
	Source    Source
	Category  Category
	EventCode EventCode
	User      uint16
	Subject   uint16
}

func (d UserMgmtData) Type() RecordType { return RecordUserMgmt }
func (d UserMgmtData) encode(buf []byte) {
	buf[0] = byte(d.Source)
	buf[1] = byte(d.Category)
	putUint16(buf[2:4], uint16(d.EventCode))
	putUint16(buf[4:6], d.User)
	putUint16(buf[6:8], d.Subject)
}

// Head is the metadata every Record carries: a strictly monotonic ring
// position, a timestamp at 10ms resolution, and an integrity checksum
// assigned by the ring on Append.
type Head struct {
	UUID      uint64
	Timestamp time.Time
	Checksum  uint32
}

// Record is a plain log entry prior to encryption.
type Record struct {
	Head Head
	Data Data
}

// EncryptedRecord is the exported, signed form of a Record: a per-record
// AES key+IV sealed under the log reader's RSA public key, the AES-CBC
// ciphertext of the record, and an ECDSA-P384 signature over the SHA-384
// digest of (KeyIVEnc || RecordEnc).
type EncryptedRecord struct {
	Length    uint32
	KeyIVEnc  []byte
	RecordEnc []byte
	Signature []byte
}

// Bytes serializes r in the wire order a log consumer replays it in:
// Length (big-endian) followed by KeyIVEnc, RecordEnc and Signature back
// to back, mirroring datalogger.c's dual info/payload-then-signature
// record layout. The MQTT telemetry publisher hex-encodes this for
// log/latest_record.
func (r *EncryptedRecord) Bytes() []byte {
	buf := make([]byte, 4, 4+len(r.KeyIVEnc)+len(r.RecordEnc)+len(r.Signature))
	buf[0] = byte(r.Length >> 24)
	buf[1] = byte(r.Length >> 16)
	buf[2] = byte(r.Length >> 8)
	buf[3] = byte(r.Length)
	buf = append(buf, r.KeyIVEnc...)
	buf = append(buf, r.RecordEnc...)
	buf = append(buf, r.Signature...)
	return buf
}

func putUint16(buf []byte, v uint16) {
	buf[0] = byte(v)
	buf[1] = byte(v >> 8)
}

func getUint16(buf []byte) uint16 {
	return uint16(buf[0]) | uint16(buf[1])<<8
}

// decodeData parses the maxDataSize-byte payload for the given
// discriminant.
func decodeData(t RecordType, buf []byte) (Data, error) {
	switch t {
	case RecordDefault:
		return DefaultData{
			Source:    Source(buf[0]),
			Category:  Category(buf[1]),
			EventCode: EventCode(getUint16(buf[2:4])),
			User:      getUint16(buf[4:6]),
		}, nil
	case RecordFaultWithID:
		return FaultWithIDData{
			Source:    Source(buf[0]),
			Category:  Category(buf[1]),
			EventCode: EventCode(getUint16(buf[2:4])),
			ID:        buf[4],
		}, nil
	case RecordFaultWithoutID:
		return FaultWithoutIDData{
			Source:    Source(buf[0]),
			Category:  Category(buf[1]),
			EventCode: EventCode(getUint16(buf[2:4])),
		}, nil
	case RecordSystem:
		return SystemData{
			Source:    Source(buf[0]),
			Category:  Category(buf[1]),
			EventCode: EventCode(getUint16(buf[2:4])),
		}, nil
	case RecordErrorCount:
		return ErrorCountData{
			Source:    Source(buf[0]),
			Category:  Category(buf[1]),
			ErrorCode: getUint16(buf[2:4]),
			User:      getUint16(buf[4:6]),
			Count:     getUint16(buf[6:8]),
		}, nil
	case RecordUserMgmt:
		return UserMgmtData{
			Source:    Source(buf[0]),
			Category:  Category(buf[1]),
			EventCode: EventCode(getUint16(buf[2:4])),
			User:      getUint16(buf[4:6]),
			Subject:   getUint16(buf[6:8]),
		}, nil
	default:
		return nil, ErrCorrupted
	}
}
