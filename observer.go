package hwcodec

import (
	"fmt"
	"time"
)

// SessionKind distinguishes encoder from decoder sessions in observations.
type SessionKind uint8

const (
	KindEncode SessionKind = iota
	KindDecode
)

func (k SessionKind) String() string {
	switch k {
	case KindEncode:
		return "encode"
	case KindDecode:
		return "decode"
	}
	return fmt.Sprintf("SessionKind(%d)", uint8(k))
}

// MarshalText implements encoding.TextMarshaler.
func (k SessionKind) MarshalText() ([]byte, error) {
	if k > KindDecode {
		return nil, fmt.Errorf("hwcodec: cannot marshal %v", k)
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *SessionKind) UnmarshalText(b []byte) error {
	switch fold(string(b)) {
	case "encode":
		*k = KindEncode
	case "decode":
		*k = KindDecode
	default:
		return fmt.Errorf("hwcodec: unknown session kind %q", b)
	}
	return nil
}

// Observer receives session lifecycle and step events. Implementations
// must be safe for concurrent use; calls are made synchronously on the
// session's goroutine.
type Observer interface {
	SessionOpened(kind SessionKind, backend string, e CapabilityEntry)
	SessionClosed(kind SessionKind, backend string, e CapabilityEntry)
	// StepDone is called after every Encode or Decode with the number of
	// outputs produced and the resulting error, if any.
	StepDone(kind SessionKind, backend string, outputs int, elapsed time.Duration, err error)
}

type nopObserver struct{}

func (nopObserver) SessionOpened(SessionKind, string, CapabilityEntry)      {}
func (nopObserver) SessionClosed(SessionKind, string, CapabilityEntry)      {}
func (nopObserver) StepDone(SessionKind, string, int, time.Duration, error) {}
