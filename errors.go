package hwcodec

import (
	"errors"
	"fmt"
)

// Sentinel errors. Typed errors below match them through errors.Is.
var (
	// ErrUnsupported is returned when no backend or driver can serve a
	// request. Catalog queries never return it; an unsupported machine
	// yields an empty capability list instead.
	ErrUnsupported = errors.New("hwcodec: unsupported")

	// ErrConstruction matches every *ConstructionError.
	ErrConstruction = errors.New("hwcodec: session construction failed")

	// ErrOperation matches every *OperationError.
	ErrOperation = errors.New("hwcodec: session operation failed")

	// ErrInterop matches every *InteropError.
	ErrInterop = errors.New("hwcodec: texture interop failed")

	// ErrSessionClosed is returned by any session call made after Close.
	ErrSessionClosed = errors.New("hwcodec: session closed")

	// ErrNoOutput is the conventional cause drivers attach when a native
	// step reports that it produced nothing. Sessions translate it into an
	// empty, successful step.
	ErrNoOutput = errors.New("hwcodec: no output")

	// ErrInvalidConfig is wrapped by every EncodeConfig/DecodeConfig
	// validation failure.
	ErrInvalidConfig = errors.New("hwcodec: invalid config")
)

// ConstructionError reports a failed encoder or decoder construction.
// The caller must not retry the same configuration unchanged.
type ConstructionError struct {
	Backend string
	Entry   CapabilityEntry
	// Code is the native SDK result code, passed through verbatim.
	Code int32
	Err  error
}

func (e *ConstructionError) Error() string {
	msg := fmt.Sprintf("hwcodec: %s: construct %s (code %d)", e.Backend, e.Entry, e.Code)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConstructionError) Unwrap() error { return e.Err }

// Is reports ErrConstruction as a match.
func (e *ConstructionError) Is(target error) bool { return target == ErrConstruction }

// OperationError reports a failed step or tuning call. The session is left
// in an undefined state but must still be closed.
type OperationError struct {
	Backend string
	Op      string
	Code    int32
	Err     error
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("hwcodec: %s: %s (code %d)", e.Backend, e.Op, e.Code)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OperationError) Unwrap() error { return e.Err }

// Is reports ErrOperation as a match.
func (e *OperationError) Is(target error) bool { return target == ErrOperation }

// Interop error codes reported by presentation surfaces. Native render
// results are passed through unchanged when positive.
const (
	CodeDeviceMismatch     int32 = -1
	CodeUnsupportedTexture int32 = -2
	CodeFormatMismatch     int32 = -3
	CodeSubmitFailed       int32 = -4
)

// InteropError reports that a ForeignTexture could not be used with a
// presentation surface. It is never retried automatically.
type InteropError struct {
	Op   string
	Code int32
	Err  error
}

func (e *InteropError) Error() string {
	msg := fmt.Sprintf("hwcodec: %s: interop failure (code %d)", e.Op, e.Code)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *InteropError) Unwrap() error { return e.Err }

// Is reports ErrInterop as a match.
func (e *InteropError) Is(target error) bool { return target == ErrInterop }

// NativeCode extracts the native result code from any of the typed errors.
// It returns 0, false for other errors.
func NativeCode(err error) (int32, bool) {
	var ce *ConstructionError
	if errors.As(err, &ce) {
		return ce.Code, true
	}
	var oe *OperationError
	if errors.As(err, &oe) {
		return oe.Code, true
	}
	var ie *InteropError
	if errors.As(err, &ie) {
		return ie.Code, true
	}
	return 0, false
}
