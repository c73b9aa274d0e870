package boot

import (
	"fmt"
)

// Error codes shared by every boot medium
const (
	// ErrCodeConfig marks caller misuse: bad seek origin, negative position,
	// wrong device description, operation in the wrong session state
	ErrCodeConfig = "CONFIG"

	// ErrCodeAllocation marks a table or buffer that could not be obtained
	ErrCodeAllocation = "ALLOCATION"

	// ErrCodeHardware marks a failure reported by the hardware back end
	ErrCodeHardware = "HARDWARE"

	// ErrCodeGeometryExhausted marks an address beyond the usable media
	ErrCodeGeometryExhausted = "GEOMETRY_EXHAUSTED"
)

// Operations named in errors
const (
	OpOpen    = "open"
	OpScan    = "scan"
	OpSeek    = "seek"
	OpRead    = "read"
	OpPeek    = "peek"
	OpRestore = "peek-restore"
	OpClose   = "close"
)

// Sentinels for errors.Is. They match any Error carrying the same code.
var (
	ErrConfig            = &Error{Code: ErrCodeConfig}
	ErrAllocation        = &Error{Code: ErrCodeAllocation}
	ErrHardware          = &Error{Code: ErrCodeHardware}
	ErrGeometryExhausted = &Error{Code: ErrCodeGeometryExhausted}
)

// Error is returned by every boot medium operation.
type Error struct {
	Code    string
	Op      string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Code
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches sentinels by code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Message == "" && t.Err == nil && t.Code == e.Code
}

// NewConfigError reports caller misuse.
func NewConfigError(op, format string, args ...any) *Error {
	return &Error{Code: ErrCodeConfig, Op: op, Message: fmt.Sprintf(format, args...)}
}

// NewAllocationError reports a failed allocation of the named object.
func NewAllocationError(op, what string, err error) *Error {
	return &Error{Code: ErrCodeAllocation, Op: op, Message: "allocating " + what, Err: err}
}

// NewHardwareError wraps an error from the hardware back end without
// reinterpreting it.
func NewHardwareError(op string, err error) *Error {
	return &Error{Code: ErrCodeHardware, Op: op, Err: err}
}

// NewGeometryError reports an address beyond the usable media.
func NewGeometryError(op, format string, args ...any) *Error {
	return &Error{Code: ErrCodeGeometryExhausted, Op: op, Message: fmt.Sprintf(format, args...)}
}
