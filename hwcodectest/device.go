package hwcodectest

import (
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
)

// ErrDeviceClosed is returned by Lease after Close.
var ErrDeviceClosed = errors.New("hwcodectest: device closed")

// Device is an in-memory device provider. Its identity is the only thing
// that matters to surfaces and drivers; it allocates nothing.
type Device struct {
	name string

	mu     sync.Mutex
	leases int
	closed bool
}

var _ gpucontext.DeviceProvider = (*Device)(nil)

// NewDevice returns a device with the given adapter name.
func NewDevice(name string) *Device {
	return &Device{name: name}
}

func (d *Device) Device() gpucontext.Device   { return d }
func (d *Device) Queue() gpucontext.Queue     { return nil }
func (d *Device) Adapter() gpucontext.Adapter { return nil }

func (d *Device) SurfaceFormat() gputypes.TextureFormat {
	return gputypes.TextureFormatBGRA8Unorm
}

func (d *Device) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: d.name, Type: gpucontext.AdapterTypeSoftware}
}

// Lease records one user of the device.
func (d *Device) Lease() (func(), error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrDeviceClosed
	}
	d.leases++
	var once sync.Once
	return func() {
		once.Do(func() {
			d.mu.Lock()
			d.leases--
			d.mu.Unlock()
		})
	}, nil
}

// Leases returns the number of outstanding leases.
func (d *Device) Leases() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.leases
}

// Close makes later Lease calls fail.
func (d *Device) Close() {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()
}

// Texture is a device-bound texture with no storage. Seq numbers the
// textures a decoder produced, starting at 1.
type Texture struct {
	W, H int
	Fmt  gputypes.TextureFormat
	Dev  gpucontext.Device
	Seq  int
}

func (t *Texture) Width() int                     { return t.W }
func (t *Texture) Height() int                    { return t.H }
func (t *Texture) Format() gputypes.TextureFormat { return t.Fmt }
func (t *Texture) Device() gpucontext.Device      { return t.Dev }

// Image fills the texture with SeqColor(Seq). BGRA textures store their
// bytes in B, G, R, A order.
func (t *Texture) Image() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, t.W, t.H))
	c := SeqColor(t.Seq)
	px := [4]byte{c.R, c.G, c.B, c.A}
	if t.Fmt == gputypes.TextureFormatBGRA8Unorm {
		px[0], px[2] = px[2], px[0]
	}
	for i := 0; i < len(img.Pix); i += 4 {
		copy(img.Pix[i:i+4], px[:])
	}
	return img
}

// SeqColor is the solid color of the seq-th decoded texture.
func SeqColor(seq int) color.RGBA {
	r := byte(seq * 40)
	return color.RGBA{R: r, G: 0x80, B: 0xff - r, A: 0xff}
}
