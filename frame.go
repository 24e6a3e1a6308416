package hwcodec

import (
	"unsafe"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// Handle is an opaque reference to native session state owned by a driver.
// Only the driver that returned a Handle may interpret it.
type Handle struct {
	ptr unsafe.Pointer
}

// NewHandle wraps a driver-owned pointer.
func NewHandle(ptr unsafe.Pointer) Handle { return Handle{ptr: ptr} }

// Pointer returns the wrapped pointer.
func (h Handle) Pointer() unsafe.Pointer { return h.ptr }

// IsNil reports whether the handle references nothing.
func (h Handle) IsNil() bool { return h.ptr == nil }

// ForeignTexture is a GPU-resident frame handed across a backend boundary.
// The receiver reads it but does not own it.
type ForeignTexture interface {
	gpucontext.Texture

	// Format is the texel format of the texture.
	Format() gputypes.TextureFormat

	// Device is the device the texture was allocated against. Surfaces
	// compare it by identity with their own device.
	Device() gpucontext.Device
}

// DeviceLeaser is implemented by device handles that track how many
// sessions allocate against them. The returned release func must be called
// exactly once.
type DeviceLeaser interface {
	Lease() (release func(), err error)
}

// Frame is one unit of encoder input. Exactly one of Texture and Data is
// set. Data layout is defined by the driver; the bundled vendor backends
// take textures only and reject Data with an *InteropError carrying
// CodeUnsupportedTexture.
type Frame struct {
	Texture ForeignTexture
	Data    []byte
	PTS     int64
}

// Packet is one compressed access unit produced by an encoder.
type Packet struct {
	Data     []byte
	Keyframe bool
	PTS      int64
}

// AdapterDesc identifies a physical adapter that passed a self-test.
type AdapterDesc struct {
	LUID int64 `json:"luid" yaml:"luid"`
}
