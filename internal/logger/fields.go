package logger

import (
	"fmt"
	"log/slog"
)

// Standard field keys for structured logging.
// These keys are designed to be component-agnostic across the coordination
// kernel's task set. Use them consistently across all log statements so
// that log aggregation and querying stay uniform between the fault,
// motor-bus, log-pipeline, configuration, user-management and secure
// element subsystems.
const (
	// ========================================================================
	// Request / event correlation
	// ========================================================================
	KeyTraceID   = "trace_id"   // REST request correlation id
	KeyRequestID = "request_id" // HTTP request id (chi middleware)

	// ========================================================================
	// Component & task identification
	// ========================================================================
	KeyComponent = "component" // owning subsystem: kernel, motorbus, fault, board, log, config, usermgmt, se, lifecycle, restapi, mqtt
	KeyTask      = "task"      // task/goroutine name
	KeyPriority  = "priority"  // scheduler priority label
	KeyEvent     = "event"     // event-group bit name

	// ========================================================================
	// Motor domain
	// ========================================================================
	KeyMotorID      = "motor_id"      // motorbus.MotorID, 0..3
	KeyMotorCommand = "motor_command" // command opcode name
	KeyMotorStatus  = "motor_status"  // status opcode name
	KeyFrozen       = "frozen"        // motor frozen-by-TSN indicator

	// ========================================================================
	// Fault subsystem
	// ========================================================================
	KeyFaultSource = "fault_source" // fault_source_t bitmask, hex
	KeyFaultPlane  = "fault_plane"  // dispatch plane: motor, board, system, communication
	KeyStopPolicy  = "stop_policy"  // resolved stop-policy action
	KeyOverflow    = "overflow"     // sticky fault-queue overflow indicator

	// ========================================================================
	// Board service
	// ========================================================================
	KeyTemperatureC = "temperature_c" // measured temperature, Celsius
	KeyRPCFailures  = "rpc_failures"  // consecutive SPI/RPC failure count

	// ========================================================================
	// Log pipeline
	// ========================================================================
	KeyLogUUID     = "log_uuid"     // log record identifier
	KeyRecordLen   = "record_len"   // encrypted record length in bytes
	KeySectorIndex = "sector_index" // flash-sector-simulated ring index
	KeySubscriber  = "subscriber"   // log fan-out subscriber queue name

	// ========================================================================
	// Configuration store
	// ========================================================================
	KeyConfigKey  = "config_key"  // configuration cell identifier
	KeyChunkIndex = "chunk_index" // firmware-update chunk index

	// ========================================================================
	// User & session management
	// ========================================================================
	KeySessionID  = "sid"        // session identifier
	KeyUsername   = "username"   // account name
	KeyRole       = "role"       // resolved role (operator, maintenance)
	KeyLoginState = "login_state" // authentication outcome

	// ========================================================================
	// Secure element
	// ========================================================================
	KeySEOperation = "se_operation" // crypto operation name delegated to the secure element

	// ========================================================================
	// Lifecycle
	// ========================================================================
	KeyLifecycleState = "lifecycle_state" // commissioning, operational, error, maintenance, decommissioning
	KeyWatchdogSlot   = "watchdog_slot"   // functional-watchdog kick slot index

	// ========================================================================
	// Operation metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // operation duration in milliseconds
	KeyError      = "error"       // error message
	KeyErrorCode  = "error_code"  // numeric qmcerr kind
	KeyAttempt    = "attempt"     // retry attempt number
	KeyMaxRetries = "max_retries" // maximum retry attempts
)

// ----------------------------------------------------------------------------
// Correlation
// ----------------------------------------------------------------------------

// TraceID returns a slog.Attr for request correlation.
func TraceID(id string) slog.Attr { return slog.String(KeyTraceID, id) }

// RequestID returns a slog.Attr for an HTTP request id.
func RequestID(id string) slog.Attr { return slog.String(KeyRequestID, id) }

// ----------------------------------------------------------------------------
// Component & task
// ----------------------------------------------------------------------------

// Component returns a slog.Attr tagging the log line with its owning
// coordination-kernel component.
func Component(name string) slog.Attr { return slog.String(KeyComponent, name) }

// Task returns a slog.Attr for a task/goroutine name.
func Task(name string) slog.Attr { return slog.String(KeyTask, name) }

// Priority returns a slog.Attr for a scheduler priority label.
func Priority(p string) slog.Attr { return slog.String(KeyPriority, p) }

// Event returns a slog.Attr for an event-group bit name.
func Event(name string) slog.Attr { return slog.String(KeyEvent, name) }

// ----------------------------------------------------------------------------
// Motor domain
// ----------------------------------------------------------------------------

// MotorID returns a slog.Attr for the affected motor id.
func MotorID(id int) slog.Attr { return slog.Int(KeyMotorID, id) }

// MotorCommand returns a slog.Attr for a command opcode name.
func MotorCommand(name string) slog.Attr { return slog.String(KeyMotorCommand, name) }

// MotorStatus returns a slog.Attr for a status opcode name.
func MotorStatus(name string) slog.Attr { return slog.String(KeyMotorStatus, name) }

// Frozen returns a slog.Attr for the TSN-freeze indicator.
func Frozen(frozen bool) slog.Attr { return slog.Bool(KeyFrozen, frozen) }

// ----------------------------------------------------------------------------
// Fault subsystem
// ----------------------------------------------------------------------------

// FaultSource returns a slog.Attr for a fault-source bitmask, hex-formatted.
func FaultSource(mask uint64) slog.Attr {
	return slog.String(KeyFaultSource, fmt.Sprintf("0x%016x", mask))
}

// FaultPlane returns a slog.Attr for the dispatch plane a fault came from.
func FaultPlane(plane string) slog.Attr { return slog.String(KeyFaultPlane, plane) }

// StopPolicy returns a slog.Attr for the resolved stop-policy action.
func StopPolicy(action string) slog.Attr { return slog.String(KeyStopPolicy, action) }

// Overflow returns a slog.Attr for the sticky fault-queue overflow bit.
func Overflow(overflowed bool) slog.Attr { return slog.Bool(KeyOverflow, overflowed) }

// ----------------------------------------------------------------------------
// Board service
// ----------------------------------------------------------------------------

// TemperatureC returns a slog.Attr for a measured temperature in Celsius.
func TemperatureC(c float64) slog.Attr { return slog.Float64(KeyTemperatureC, c) }

// RPCFailures returns a slog.Attr for a consecutive SPI/RPC failure count.
func RPCFailures(n int) slog.Attr { return slog.Int(KeyRPCFailures, n) }

// ----------------------------------------------------------------------------
// Log pipeline
// ----------------------------------------------------------------------------

// LogUUID returns a slog.Attr for a log record identifier.
func LogUUID(id string) slog.Attr { return slog.String(KeyLogUUID, id) }

// RecordLen returns a slog.Attr for an encrypted record length.
func RecordLen(n int) slog.Attr { return slog.Int(KeyRecordLen, n) }

// SectorIndex returns a slog.Attr for a flash-sector-simulated ring index.
func SectorIndex(i uint32) slog.Attr { return slog.Uint64(KeySectorIndex, uint64(i)) }

// Subscriber returns a slog.Attr for a log fan-out subscriber name.
func Subscriber(name string) slog.Attr { return slog.String(KeySubscriber, name) }

// ----------------------------------------------------------------------------
// Configuration store
// ----------------------------------------------------------------------------

// ConfigKey returns a slog.Attr for a configuration cell identifier.
func ConfigKey(key string) slog.Attr { return slog.String(KeyConfigKey, key) }

// ChunkIndex returns a slog.Attr for a firmware-update chunk index.
func ChunkIndex(i int) slog.Attr { return slog.Int(KeyChunkIndex, i) }

// ----------------------------------------------------------------------------
// User & session management
// ----------------------------------------------------------------------------

// SessionID returns a slog.Attr for a session identifier.
func SessionID(id string) slog.Attr { return slog.String(KeySessionID, id) }

// Username returns a slog.Attr for an account name.
func Username(name string) slog.Attr { return slog.String(KeyUsername, name) }

// Role returns a slog.Attr for a resolved role.
func Role(role string) slog.Attr { return slog.String(KeyRole, role) }

// LoginState returns a slog.Attr for an authentication outcome.
func LoginState(state string) slog.Attr { return slog.String(KeyLoginState, state) }

// ----------------------------------------------------------------------------
// Secure element
// ----------------------------------------------------------------------------

// SEOperation returns a slog.Attr for a crypto operation delegated to the
// secure element.
func SEOperation(name string) slog.Attr { return slog.String(KeySEOperation, name) }

// ----------------------------------------------------------------------------
// Lifecycle
// ----------------------------------------------------------------------------

// LifecycleState returns a slog.Attr for the device lifecycle state.
func LifecycleState(state string) slog.Attr { return slog.String(KeyLifecycleState, state) }

// WatchdogSlot returns a slog.Attr for a functional-watchdog kick slot.
func WatchdogSlot(slot int) slog.Attr { return slog.Int(KeyWatchdogSlot, slot) }

// ----------------------------------------------------------------------------
// Operation metadata
// ----------------------------------------------------------------------------

// DurationMs returns a slog.Attr for duration in milliseconds.
func DurationMs(ms float64) slog.Attr { return slog.Float64(KeyDurationMs, ms) }

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric qmcerr kind code.
func ErrorCode(code int) slog.Attr { return slog.Int(KeyErrorCode, code) }

// Attempt returns a slog.Attr for a retry attempt number.
func Attempt(n int) slog.Attr { return slog.Int(KeyAttempt, n) }

// MaxRetries returns a slog.Attr for the maximum retry attempt count.
func MaxRetries(n int) slog.Attr { return slog.Int(KeyMaxRetries, n) }
