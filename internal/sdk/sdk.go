// Package sdk implements the vendor-independent half of the bundled
// hardware backends.
//
// A vendor package binds its native C entry points into an EncodeABI and
// a DecodeABI of plain Go functions. This package turns those into
// hwcodec dispatch tables: it converts configs to native arguments, owns
// the callback sinks, maps native status codes to hwcodec errors, and
// gates the driver probe on PCI detection.
package sdk

import (
	"errors"
	"unsafe"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/hwcodec"
)

// ErrNotBuilt is the probe result of a vendor package compiled without
// its native SDK.
var ErrNotBuilt = errors.New("sdk: built without native support")

// ErrNoDevice is the probe result when no adapter of the vendor is
// installed.
var ErrNoDevice = errors.New("sdk: no adapter of this vendor")

// codeFailure is the generic native failure status. A step that returns
// it without emitting anything produced no output.
const codeFailure int32 = -1

// MaxAdapters bounds the adapters a native self-test reports.
const MaxAdapters = 16

// Native enum values shared by every vendor library.
const (
	nativeAPIDX11   int32 = 0
	nativeAPIDX12   int32 = 1
	nativeAPIOpenCL int32 = 2
	nativeAPIOpenGL int32 = 3
	nativeAPIVulkan int32 = 4
	nativeAPICUDA   int32 = 5
	nativeAPIVAAPI  int32 = 6

	nativeH264 int32 = 0
	nativeH265 int32 = 1
	nativeVP8  int32 = 2
	nativeVP9  int32 = 3
	nativeAV1  int32 = 4
)

// NativeAPI returns the native enum value of a.
func NativeAPI(a hwcodec.GraphicsAPI) (int32, bool) {
	switch a {
	case hwcodec.APIDX11:
		return nativeAPIDX11, true
	case hwcodec.APIDX12:
		return nativeAPIDX12, true
	case hwcodec.APIOpenCL:
		return nativeAPIOpenCL, true
	case hwcodec.APIOpenGL:
		return nativeAPIOpenGL, true
	case hwcodec.APIVulkan:
		return nativeAPIVulkan, true
	case hwcodec.APICUDA:
		return nativeAPICUDA, true
	case hwcodec.APIVAAPI:
		return nativeAPIVAAPI, true
	}
	return -1, false
}

// NativeFormat returns the native enum value of f.
func NativeFormat(f hwcodec.CodecFormat) (int32, bool) {
	switch f {
	case hwcodec.H264:
		return nativeH264, true
	case hwcodec.H265:
		return nativeH265, true
	case hwcodec.VP8:
		return nativeVP8, true
	case hwcodec.VP9:
		return nativeVP9, true
	case hwcodec.AV1:
		return nativeAV1, true
	}
	return -1, false
}

// NativeDevice is implemented by devices that can hand their native
// device pointer (an ID3D11Device, a VkDevice) to a vendor SDK.
type NativeDevice interface {
	NativeDevice() unsafe.Pointer
}

// NativeSource is implemented by textures that can hand their native
// resource pointer to a vendor SDK.
type NativeSource interface {
	NativePointer() unsafe.Pointer
}

// nativeDevice extracts the native pointer of dp, or nil when the SDK
// should create its own device. The provider is asked before the device
// it wraps.
func nativeDevice(dp gpucontext.DeviceProvider) unsafe.Pointer {
	if dp == nil {
		return nil
	}
	if nd, ok := dp.(NativeDevice); ok {
		return nd.NativeDevice()
	}
	if nd, ok := dp.Device().(NativeDevice); ok {
		return nd.NativeDevice()
	}
	return nil
}

// ownDevice identifies a device a vendor SDK created for itself because
// it was given no native device. No surface owns it, so textures bound to
// it fail every same-device check.
type ownDevice struct {
	backend string
}

func (d *ownDevice) String() string { return d.backend + " sdk device" }

// Args are the native arguments shared by both directions.
type Args struct {
	Device unsafe.Pointer
	LUID   int64
	API    int32
	Format int32
}

func args(backend string, dev unsafe.Pointer, luid int64, api hwcodec.GraphicsAPI, f hwcodec.CodecFormat) (Args, error) {
	a, okAPI := NativeAPI(api)
	nf, okFormat := NativeFormat(f)
	if !okAPI || !okFormat {
		return Args{}, &hwcodec.ConstructionError{
			Backend: backend,
			Entry:   hwcodec.CapabilityEntry{API: api, Format: f},
			Code:    codeFailure,
			Err:     hwcodec.ErrUnsupported,
		}
	}
	return Args{Device: dev, LUID: luid, API: a, Format: nf}, nil
}

func status(backend, op string, rc int32) error {
	if rc == 0 {
		return nil
	}
	return &hwcodec.OperationError{Backend: backend, Op: op, Code: rc}
}

func adapters(luids []int64) []hwcodec.AdapterDesc {
	out := make([]hwcodec.AdapterDesc, len(luids))
	for i, l := range luids {
		out[i] = hwcodec.AdapterDesc{LUID: l}
	}
	return out
}
