// Package hwcodectest provides a deterministic in-memory backend for
// testing code built on hwcodec.
//
// The fake drivers count live native handles, record the tuning in effect
// at every step, and can be configured to buffer output, emit several
// outputs per step, or fail at a chosen slot.
package hwcodectest

import (
	"errors"
	"sync"

	"github.com/gogpu/hwcodec"
)

// ErrInjected is the cause attached to failures requested through Options.
var ErrInjected = errors.New("hwcodectest: injected failure")

// Options configures a fake Backend. The zero value is a backend that
// supports APIVulkan × {H264, H265}, emits one output per step with no
// buffering, and passes its self-tests on adapter LUID 1.
type Options struct {
	Name    string
	APIs    []hwcodec.GraphicsAPI
	Formats []hwcodec.CodecFormat

	// ProbeErr makes both catalogs empty.
	ProbeErr error

	// NoEncode and NoDecode drop the corresponding driver.
	NoEncode bool
	NoDecode bool

	// Delay is the number of steps buffered before the first output.
	Delay int
	// Outputs is the number of outputs emitted per released step.
	// Zero means one.
	Outputs int

	// FailConstruct makes construction fail with this native code.
	FailConstruct int32
	// FailStepAt makes the n-th step (1-based) of every session fail.
	FailStepAt int
	// NoFramerate makes SetFramerate unsupported at runtime.
	NoFramerate bool

	// Adapters is what self-tests report. Nil means {{LUID: 1}}.
	Adapters []hwcodec.AdapterDesc
	// FailSelfTest makes self-tests return an error.
	FailSelfTest bool
}

func (o Options) withDefaults() Options {
	if o.Name == "" {
		o.Name = "fake"
	}
	if o.APIs == nil {
		o.APIs = []hwcodec.GraphicsAPI{hwcodec.APIVulkan}
	}
	if o.Formats == nil {
		o.Formats = hwcodec.DefaultFormats()
	}
	if o.Outputs <= 0 {
		o.Outputs = 1
	}
	if o.Adapters == nil {
		o.Adapters = []hwcodec.AdapterDesc{{LUID: 1}}
	}
	return o
}

// Backend is a fake hwcodec.Backend.
type Backend struct {
	opts   Options
	encCat *hwcodec.Catalog
	decCat *hwcodec.Catalog
	enc    *EncodeDriver
	dec    *DecodeDriver

	mu     sync.Mutex
	probes int
}

var _ hwcodec.Backend = (*Backend)(nil)

// NewBackend returns a fake backend configured by opts.
func NewBackend(opts Options) *Backend {
	opts = opts.withDefaults()
	b := &Backend{opts: opts}
	b.encCat = hwcodec.NewCatalog(opts.Name+"/encode", b.probe, opts.APIs, opts.Formats)
	b.decCat = hwcodec.NewCatalog(opts.Name+"/decode", b.probe, opts.APIs, opts.Formats)
	if !opts.NoEncode {
		b.enc = &EncodeDriver{opts: opts, live: make(map[*encSession]struct{})}
	}
	if !opts.NoDecode {
		b.dec = &DecodeDriver{opts: opts, live: make(map[*decSession]struct{})}
	}
	return b
}

func (b *Backend) probe() error {
	b.mu.Lock()
	b.probes++
	b.mu.Unlock()
	return b.opts.ProbeErr
}

// Probes returns how many times the driver probe ran.
func (b *Backend) Probes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.probes
}

func (b *Backend) Name() string { return b.opts.Name }

func (b *Backend) EncodeCapabilities() []hwcodec.CapabilityEntry { return b.encCat.Capabilities() }

func (b *Backend) DecodeCapabilities() []hwcodec.CapabilityEntry { return b.decCat.Capabilities() }

// EncodeDriver returns the fake encode driver, or nil with NoEncode.
func (b *Backend) EncodeDriver() hwcodec.EncodeDriver {
	if b.enc == nil {
		return nil
	}
	return b.enc
}

// DecodeDriver returns the fake decode driver, or nil with NoDecode.
func (b *Backend) DecodeDriver() hwcodec.DecodeDriver {
	if b.dec == nil {
		return nil
	}
	return b.dec
}

// Encoder returns the concrete encode driver for inspection.
func (b *Backend) Encoder() *EncodeDriver { return b.enc }

// Decoder returns the concrete decode driver for inspection.
func (b *Backend) Decoder() *DecodeDriver { return b.dec }
