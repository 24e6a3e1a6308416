package sdk

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/hwcodec"
)

var errEmptySample = errors.New("sdk: empty decode sample")

// DecodeParams are the native construction arguments of a decoder.
type DecodeParams struct {
	Args
	OutputSharedHandle bool
}

// DecodeABI is the native decode entry points of one vendor library.
type DecodeABI struct {
	// New returns nil when the SDK refuses the parameters.
	New func(p DecodeParams) unsafe.Pointer

	// Decode consumes data and delivers output textures to sink.
	Decode func(dec unsafe.Pointer, data []byte, sink *TextureSink) int32

	Destroy func(dec unsafe.Pointer) int32

	// Test decodes sample on every adapter of the vendor and writes the
	// LUIDs that produced output into luids.
	Test func(p DecodeParams, sample []byte, luids []int64) (n int, rc int32)
}

// TextureSink collects the textures of one native decode call.
type TextureSink struct {
	device gpucontext.Device
	shared bool
	out    []hwcodec.ForeignTexture
}

// Add records a texture, or a shared handle when the decoder was built
// with OutputSharedHandle.
func (s *TextureSink) Add(ptr unsafe.Pointer) {
	if ptr == nil {
		return
	}
	s.out = append(s.out, &NativeTexture{ptr: ptr, device: s.device, shared: s.shared})
}

// NativeTexture is a BGRA decoder output owned by the native decoder. It
// stays valid until the next Decode or Close of the session. Device is the
// caller's device only when the SDK was handed its native pointer;
// otherwise it is a private identity of the SDK's own device.
//
// The SDK callbacks do not report the coded size, so Width and Height
// return zero.
type NativeTexture struct {
	ptr    unsafe.Pointer
	device gpucontext.Device
	shared bool
}

func (t *NativeTexture) Width() int                     { return 0 }
func (t *NativeTexture) Height() int                    { return 0 }
func (t *NativeTexture) Format() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (t *NativeTexture) Device() gpucontext.Device      { return t.device }

// NativePointer returns the native texture, or the shared handle when
// Shared reports true.
func (t *NativeTexture) NativePointer() unsafe.Pointer { return t.ptr }

// Shared reports whether NativePointer is a cross-process shared handle.
func (t *NativeTexture) Shared() bool { return t.shared }

type decodeDriver struct {
	backend string
	abi     DecodeABI

	// devices remembers the device each live decoder was built on.
	mu      sync.Mutex
	devices map[unsafe.Pointer]decoderDevice
}

type decoderDevice struct {
	device gpucontext.Device
	shared bool
}

// NewDecodeDriver binds abi as the decode dispatch table of backend.
func NewDecodeDriver(backend string, abi DecodeABI) hwcodec.DecodeDriver {
	return &decodeDriver{backend: backend, abi: abi, devices: make(map[unsafe.Pointer]decoderDevice)}
}

func (d *decodeDriver) params(cfg hwcodec.DecodeConfig) (DecodeParams, error) {
	a, err := args(d.backend, nativeDevice(cfg.Device), cfg.LUID, cfg.API, cfg.Format)
	if err != nil {
		return DecodeParams{}, err
	}
	return DecodeParams{Args: a, OutputSharedHandle: cfg.OutputSharedHandle}, nil
}

func (d *decodeDriver) NewDecoder(cfg hwcodec.DecodeConfig) (hwcodec.Handle, error) {
	p, err := d.params(cfg)
	if err != nil {
		return hwcodec.Handle{}, err
	}
	ptr := d.abi.New(p)
	if ptr == nil {
		return hwcodec.Handle{}, &hwcodec.ConstructionError{Backend: d.backend, Entry: cfg.Entry(), Code: codeFailure}
	}
	// Outputs live on the device the SDK actually received.
	var dev gpucontext.Device = &ownDevice{backend: d.backend}
	if p.Device != nil && cfg.Device != nil {
		dev = cfg.Device.Device()
	}
	d.mu.Lock()
	d.devices[ptr] = decoderDevice{device: dev, shared: cfg.OutputSharedHandle}
	d.mu.Unlock()
	return hwcodec.NewHandle(ptr), nil
}

func (d *decodeDriver) Decode(h hwcodec.Handle, packet []byte) ([]hwcodec.ForeignTexture, error) {
	d.mu.Lock()
	dd := d.devices[h.Pointer()]
	d.mu.Unlock()
	sink := &TextureSink{device: dd.device, shared: dd.shared}
	rc := d.abi.Decode(h.Pointer(), packet, sink)
	switch {
	case len(sink.out) > 0:
		return sink.out, nil
	case rc == 0 || rc == codeFailure:
		return nil, hwcodec.ErrNoOutput
	default:
		return nil, status(d.backend, "decode", rc)
	}
}

func (d *decodeDriver) DestroyDecoder(h hwcodec.Handle) error {
	d.mu.Lock()
	delete(d.devices, h.Pointer())
	d.mu.Unlock()
	return status(d.backend, "destroy", d.abi.Destroy(h.Pointer()))
}

func (d *decodeDriver) TestDecode(cfg hwcodec.DecodeConfig, sample []byte) ([]hwcodec.AdapterDesc, error) {
	if len(sample) == 0 {
		return nil, errEmptySample
	}
	p, err := d.params(cfg)
	if err != nil {
		return nil, err
	}
	luids := make([]int64, MaxAdapters)
	n, rc := d.abi.Test(p, sample, luids)
	if err := status(d.backend, "test decode", rc); err != nil {
		return nil, err
	}
	return adapters(luids[:max(0, min(n, len(luids)))]), nil
}
