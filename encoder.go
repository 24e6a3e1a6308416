package hwcodec

import (
	"errors"
	"runtime"
	"sync"
	"time"
)

// Encoder is a scoped encoder session. It owns one native handle, calls
// the driver's destroy slot exactly once, and rejects every call made
// after Close with ErrSessionClosed.
//
// Calls on one Encoder are serialized, so at most one native operation is
// in flight per handle. Independent Encoders may run in parallel.
type Encoder struct {
	mu     sync.Mutex
	drv    EncodeDriver
	handle Handle
	closed bool

	entry    CapabilityEntry
	backend  string
	observer Observer

	bitrate   int
	framerate int
	qpMin     int
	qpMax     int

	cleanup runtime.Cleanup
}

// encoderRef is what the leak cleanup needs. It must not reference the
// Encoder itself.
type encoderRef struct {
	drv     EncodeDriver
	handle  Handle
	backend string
}

func (r encoderRef) release() {
	Logger().Warn("hwcodec: encoder leaked without Close", "backend", r.backend)
	if err := r.drv.DestroyEncoder(r.handle); err != nil {
		Logger().Warn("hwcodec: destroy leaked encoder", "backend", r.backend, "err", err)
	}
}

// OpenEncoder validates cfg and constructs an encoder session on b.
func OpenEncoder(b Backend, cfg EncodeConfig, opts ...SessionOption) (*Encoder, error) {
	if b == nil {
		return nil, ErrUnsupported
	}
	opts = append([]SessionOption{WithBackendName(b.Name())}, opts...)
	return NewEncoder(b.EncodeDriver(), cfg, opts...)
}

// NewEncoder validates cfg and constructs an encoder session on d.
func NewEncoder(d EncodeDriver, cfg EncodeConfig, opts ...SessionOption) (*Encoder, error) {
	so := applySessionOptions(opts)
	if d == nil {
		return nil, ErrUnsupported
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ConstructionError{Backend: so.backend, Entry: cfg.Entry(), Err: err}
	}

	h, err := d.NewEncoder(cfg)
	if err != nil {
		return nil, constructionError(so.backend, cfg.Entry(), err)
	}
	if h.IsNil() {
		return nil, &ConstructionError{Backend: so.backend, Entry: cfg.Entry(), Code: -1}
	}

	e := &Encoder{
		drv:       d,
		handle:    h,
		entry:     cfg.Entry(),
		backend:   so.backend,
		observer:  so.observer,
		bitrate:   cfg.BitrateKbps,
		framerate: cfg.Framerate,
		qpMin:     cfg.QPMin,
		qpMax:     cfg.QPMax,
	}
	e.cleanup = runtime.AddCleanup(e, encoderRef.release, encoderRef{drv: d, handle: h, backend: so.backend})

	Logger().Debug("hwcodec: encoder opened", "backend", e.backend, "entry", e.entry.String(),
		"width", cfg.Width, "height", cfg.Height, "kbps", cfg.BitrateKbps)
	e.observer.SessionOpened(KindEncode, e.backend, e.entry)
	return e, nil
}

// Entry returns the capability entry the session was built for.
func (e *Encoder) Entry() CapabilityEntry { return e.entry }

// Backend returns the backend name of the session.
func (e *Encoder) Backend() string { return e.backend }

// Encode submits one frame and returns every packet that became available.
// An empty result is a normal outcome for buffering drivers.
func (e *Encoder) Encode(frame Frame) ([]Packet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrSessionClosed
	}

	start := time.Now()
	pkts, err := e.drv.Encode(e.handle, frame)
	if errors.Is(err, ErrNoOutput) {
		pkts, err = nil, nil
	}
	if err != nil {
		err = operationError(e.backend, "encode", err)
		pkts = nil
	}
	e.observer.StepDone(KindEncode, e.backend, len(pkts), time.Since(start), err)
	return pkts, err
}

// Flush returns packets still buffered in the driver. Drivers that do not
// buffer return nothing.
func (e *Encoder) Flush() ([]Packet, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrSessionClosed
	}
	f, ok := e.drv.(EncodeFlusher)
	if !ok {
		return nil, nil
	}
	pkts, err := f.FlushEncoder(e.handle)
	if errors.Is(err, ErrNoOutput) {
		return nil, nil
	}
	if err != nil {
		return nil, operationError(e.backend, "flush", err)
	}
	return pkts, nil
}

// SetBitrate changes the target bitrate for this and all later frames.
func (e *Encoder) SetBitrate(kbps int) error {
	if err := ValidateBitrate(kbps); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrSessionClosed
	}
	if err := e.drv.SetBitrate(e.handle, kbps); err != nil {
		return operationError(e.backend, "set bitrate", err)
	}
	e.bitrate = kbps
	return nil
}

// SetQP changes the quantizer range for this and all later frames.
func (e *Encoder) SetQP(qpMin, qpMax int) error {
	if err := ValidateQP(qpMin, qpMax); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrSessionClosed
	}
	if err := e.drv.SetQP(e.handle, qpMin, qpMax); err != nil {
		return operationError(e.backend, "set qp", err)
	}
	e.qpMin, e.qpMax = qpMin, qpMax
	return nil
}

// SetFramerate changes the nominal framerate for this and all later frames.
func (e *Encoder) SetFramerate(fps int) error {
	if err := ValidateFramerate(fps); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrSessionClosed
	}
	if err := e.drv.SetFramerate(e.handle, fps); err != nil {
		return operationError(e.backend, "set framerate", err)
	}
	e.framerate = fps
	return nil
}

// Bitrate returns the last bitrate the driver accepted, in kbps.
func (e *Encoder) Bitrate() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.bitrate
}

// Framerate returns the last framerate the driver accepted.
func (e *Encoder) Framerate() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.framerate
}

// QP returns the last quantizer range the driver accepted.
func (e *Encoder) QP() (qpMin, qpMax int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.qpMin, e.qpMax
}

// Close destroys the native encoder. It is safe to call more than once;
// only the first call reaches the driver.
func (e *Encoder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	e.cleanup.Stop()

	err := e.drv.DestroyEncoder(e.handle)
	e.handle = Handle{}
	Logger().Debug("hwcodec: encoder closed", "backend", e.backend, "entry", e.entry.String())
	e.observer.SessionClosed(KindEncode, e.backend, e.entry)
	if err != nil {
		return operationError(e.backend, "destroy", err)
	}
	return nil
}

func constructionError(backend string, entry CapabilityEntry, err error) error {
	var ce *ConstructionError
	if errors.As(err, &ce) {
		return err
	}
	code, ok := NativeCode(err)
	if !ok {
		code = -1
	}
	return &ConstructionError{Backend: backend, Entry: entry, Code: code, Err: err}
}

func operationError(backend, op string, err error) error {
	var oe *OperationError
	if errors.As(err, &oe) {
		return err
	}
	code, ok := NativeCode(err)
	if !ok {
		code = -1
	}
	return &OperationError{Backend: backend, Op: op, Code: code, Err: err}
}
