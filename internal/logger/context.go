package logger

import (
	"context"
	"time"
)

// contextKey is a private type for context keys to avoid collisions.
type contextKey struct{}

// logContextKey is the key for LogContext in context.Context.
var logContextKey = contextKey{}

// LogContext holds request/task-scoped logging context threaded through the
// coordination kernel: a REST request, a fault dispatch, or a motor command
// all carry one of these so every log line in that path shares the same
// correlation fields.
type LogContext struct {
	TraceID   string    // request correlation id
	Component string    // owning subsystem name
	MotorID   int       // affected motor, 0 if not motor-scoped
	SessionID string    // authenticated session id, empty if unauthenticated
	Username  string    // authenticated account name
	StartTime time.Time // for duration calculation
}

// WithContext returns a new context with the given LogContext.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from context, or nil if not present.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a new LogContext for the given component.
func NewLogContext(component string) *LogContext {
	return &LogContext{
		Component: component,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	return &LogContext{
		TraceID:   lc.TraceID,
		Component: lc.Component,
		MotorID:   lc.MotorID,
		SessionID: lc.SessionID,
		Username:  lc.Username,
		StartTime: lc.StartTime,
	}
}

// WithMotor returns a copy with the motor id set.
func (lc *LogContext) WithMotor(motorID int) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.MotorID = motorID
	}
	return clone
}

// WithSession returns a copy with session identity set.
func (lc *LogContext) WithSession(sessionID, username string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.SessionID = sessionID
		clone.Username = username
	}
	return clone
}

// WithTrace returns a copy with the trace id set.
func (lc *LogContext) WithTrace(traceID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
