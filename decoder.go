package hwcodec

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// Decoder is a scoped decoder session. See Encoder for the ownership rules.
//
// When the config's Device implements DeviceLeaser the decoder holds a
// lease on it from open until Close, so a presentation surface cannot be
// destroyed while the decoder can still produce textures for it.
type Decoder struct {
	mu     sync.Mutex
	drv    DecodeDriver
	handle Handle
	closed bool

	entry    CapabilityEntry
	backend  string
	observer Observer
	release  func()

	cleanup runtime.Cleanup
}

type decoderRef struct {
	drv     DecodeDriver
	handle  Handle
	backend string
	release func()
}

func (r decoderRef) destroy() {
	Logger().Warn("hwcodec: decoder leaked without Close", "backend", r.backend)
	if err := r.drv.DestroyDecoder(r.handle); err != nil {
		Logger().Warn("hwcodec: destroy leaked decoder", "backend", r.backend, "err", err)
	}
	if r.release != nil {
		r.release()
	}
}

// OpenDecoder validates cfg and constructs a decoder session on b.
func OpenDecoder(b Backend, cfg DecodeConfig, opts ...SessionOption) (*Decoder, error) {
	if b == nil {
		return nil, ErrUnsupported
	}
	opts = append([]SessionOption{WithBackendName(b.Name())}, opts...)
	return NewDecoder(b.DecodeDriver(), cfg, opts...)
}

// NewDecoder validates cfg and constructs a decoder session on d.
func NewDecoder(d DecodeDriver, cfg DecodeConfig, opts ...SessionOption) (*Decoder, error) {
	so := applySessionOptions(opts)
	if d == nil {
		return nil, ErrUnsupported
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ConstructionError{Backend: so.backend, Entry: cfg.Entry(), Err: err}
	}

	var release func()
	if l, ok := cfg.Device.(DeviceLeaser); ok {
		r, err := l.Lease()
		if err != nil {
			return nil, &ConstructionError{Backend: so.backend, Entry: cfg.Entry(),
				Err: fmt.Errorf("lease device: %w", err)}
		}
		release = r
	}

	h, err := d.NewDecoder(cfg)
	if err == nil && h.IsNil() {
		err = &ConstructionError{Backend: so.backend, Entry: cfg.Entry(), Code: -1}
	}
	if err != nil {
		if release != nil {
			release()
		}
		return nil, constructionError(so.backend, cfg.Entry(), err)
	}

	dec := &Decoder{
		drv:      d,
		handle:   h,
		entry:    cfg.Entry(),
		backend:  so.backend,
		observer: so.observer,
		release:  release,
	}
	dec.cleanup = runtime.AddCleanup(dec, decoderRef.destroy,
		decoderRef{drv: d, handle: h, backend: so.backend, release: release})

	Logger().Debug("hwcodec: decoder opened", "backend", dec.backend, "entry", dec.entry.String(),
		"shared", cfg.OutputSharedHandle)
	dec.observer.SessionOpened(KindDecode, dec.backend, dec.entry)
	return dec, nil
}

// Entry returns the capability entry the session was built for.
func (d *Decoder) Entry() CapabilityEntry { return d.entry }

// Backend returns the backend name of the session.
func (d *Decoder) Backend() string { return d.backend }

// Decode submits one compressed packet and returns every texture that
// became available. Textures are only valid until the next Decode or Close.
func (d *Decoder) Decode(packet []byte) ([]ForeignTexture, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrSessionClosed
	}

	start := time.Now()
	texs, err := d.drv.Decode(d.handle, packet)
	if errors.Is(err, ErrNoOutput) {
		texs, err = nil, nil
	}
	if err != nil {
		err = operationError(d.backend, "decode", err)
		texs = nil
	}
	d.observer.StepDone(KindDecode, d.backend, len(texs), time.Since(start), err)
	return texs, err
}

// Close destroys the native decoder and returns the device lease. It is
// safe to call more than once.
func (d *Decoder) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil
	}
	d.closed = true
	d.cleanup.Stop()

	err := d.drv.DestroyDecoder(d.handle)
	d.handle = Handle{}
	if d.release != nil {
		d.release()
		d.release = nil
	}
	Logger().Debug("hwcodec: decoder closed", "backend", d.backend, "entry", d.entry.String())
	d.observer.SessionClosed(KindDecode, d.backend, d.entry)
	if err != nil {
		return operationError(d.backend, "destroy", err)
	}
	return nil
}
