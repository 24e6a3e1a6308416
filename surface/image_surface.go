// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"fmt"
	"image"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/hwcodec"
)

// ImageSource is implemented by foreign textures whose texels are
// readable on the CPU. For BGRA textures Image returns an *image.RGBA whose
// Pix holds B, G, R, A bytes.
type ImageSource interface {
	Image() image.Image
}

var (
	errNilTexture = errors.New("nil texture")
	errNoCPUImage = errors.New("texture has no CPU-readable image")
)

// ImageSurface is a CPU compositor that presents frames into an
// *image.RGBA. It is the headless fallback when no GPU adapter is present.
//
// Example:
//
//	s, _ := surface.NewImageSurface(640, 480)
//	defer s.Destroy()
//
//	tex, _ := surface.NewImageTexture(s.Device(), frame)
//	_ = s.Render(tex)
//	img, _ := s.Snapshot()
type ImageSurface struct {
	lifecycle

	opts   Options
	img    *image.RGBA
	dev    *imageDevice
	frames uint64
}

var _ Surface = (*ImageSurface)(nil)

// NewImageSurface creates a CPU surface of the given size with default
// options.
func NewImageSurface(width, height int) (*ImageSurface, error) {
	return NewImageSurfaceWithOptions(DefaultOptions(width, height))
}

// NewImageSurfaceWithOptions creates a CPU surface.
func NewImageSurfaceWithOptions(opts Options) (*ImageSurface, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	s := &ImageSurface{
		opts: opts,
		img:  image.NewRGBA(image.Rect(0, 0, opts.Width, opts.Height)),
	}
	s.dev = &imageDevice{s: s}
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(opts.Background), image.Point{}, draw.Src)
	s.state = StateCreated

	hwcodec.Logger().Debug("surface: created", "kind", "image", "width", opts.Width, "height", opts.Height)
	return s, nil
}

// Width returns the target width.
func (s *ImageSurface) Width() int {
	return s.opts.Width
}

// Height returns the target height.
func (s *ImageSurface) Height() int {
	return s.opts.Height
}

// Frames returns how many frames were rendered.
func (s *ImageSurface) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Render composites tex onto the target. Frames of another size are
// scaled with the configured Filter.
func (s *ImageSurface) Render(tex hwcodec.ForeignTexture) error {
	if tex == nil {
		return interopError(hwcodec.CodeUnsupportedTexture, errNilTexture)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	if !sameDevice(tex.Device(), s.dev) {
		return interopError(hwcodec.CodeDeviceMismatch,
			fmt.Errorf("texture allocated on %T, surface device is %T", tex.Device(), s.dev))
	}

	src, ok := tex.(ImageSource)
	if !ok {
		return interopError(hwcodec.CodeUnsupportedTexture, fmt.Errorf("%T: %w", tex, errNoCPUImage))
	}
	img, err := rgbaView(src.Image(), tex.Format())
	if err != nil {
		return interopError(hwcodec.CodeFormatMismatch, err)
	}

	s.composite(img)
	s.frames++
	return nil
}

func (s *ImageSurface) composite(src image.Image) {
	dst := s.img.Bounds()
	sb := src.Bounds()
	if sb.Dx() == dst.Dx() && sb.Dy() == dst.Dy() {
		draw.Draw(s.img, dst, src, sb.Min, draw.Src)
		return
	}
	s.opts.Filter.scaler().Scale(s.img, dst, src, sb, draw.Src, nil)
}

// rgbaView returns img in RGBA order. BGRA images are swizzled into a
// copy; the source is never modified.
func rgbaView(img image.Image, f gputypes.TextureFormat) (image.Image, error) {
	if img == nil {
		return nil, errNoCPUImage
	}
	switch f {
	case gputypes.TextureFormatRGBA8Unorm:
		return img, nil
	case gputypes.TextureFormatBGRA8Unorm:
		bgra, ok := img.(*image.RGBA)
		if !ok {
			return nil, fmt.Errorf("bgra texture backed by %T", img)
		}
		out := image.NewRGBA(bgra.Rect)
		copy(out.Pix, bgra.Pix)
		swapRB(out.Pix)
		return out, nil
	default:
		return nil, fmt.Errorf("texture format %v is not composited", f)
	}
}

func swapRB(pix []byte) {
	for i := 0; i+3 < len(pix); i += 4 {
		pix[i], pix[i+2] = pix[i+2], pix[i]
	}
}

// Device returns the surface device, or nil after Destroy.
func (s *ImageSurface) Device() DeviceHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.check() != nil {
		return nil
	}
	return s.dev
}

// Snapshot returns a copy of the presented image.
func (s *ImageSurface) Snapshot() (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return nil, err
	}
	out := image.NewRGBA(s.img.Rect)
	copy(out.Pix, s.img.Pix)
	return out, nil
}

// Destroy releases the target image.
func (s *ImageSurface) Destroy() error {
	return s.destroy(func() {
		s.img = nil
		hwcodec.Logger().Debug("surface: destroyed", "kind", "image", "frames", s.frames)
	})
}

// imageDevice is the identity textures bind to. It allocates nothing.
type imageDevice struct {
	s *ImageSurface
}

func (d *imageDevice) Device() gpucontext.Device   { return d }
func (d *imageDevice) Queue() gpucontext.Queue     { return nil }
func (d *imageDevice) Adapter() gpucontext.Adapter { return nil }

func (d *imageDevice) SurfaceFormat() gputypes.TextureFormat {
	return d.s.opts.Format.TextureFormat()
}

func (d *imageDevice) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: "cpu", Type: gpucontext.AdapterTypeSoftware}
}

func (d *imageDevice) Lease() (func(), error) {
	return d.s.lease()
}

// ImageTexture is a CPU texture bound to a device. Hosts and tests use it
// to hand frames to an ImageSurface.
type ImageTexture struct {
	img    *image.RGBA
	format gputypes.TextureFormat
	dev    gpucontext.Device
}

var _ hwcodec.ForeignTexture = (*ImageTexture)(nil)

// NewImageTexture binds img to dev as an RGBA texture. A nil img returns
// ErrNilImage.
func NewImageTexture(dev gpucontext.DeviceProvider, img *image.RGBA) (*ImageTexture, error) {
	if img == nil {
		return nil, ErrNilImage
	}
	t := &ImageTexture{img: img, format: gputypes.TextureFormatRGBA8Unorm}
	if dev != nil {
		t.dev = dev.Device()
	}
	return t, nil
}

func (t *ImageTexture) Width() int                     { return t.img.Rect.Dx() }
func (t *ImageTexture) Height() int                    { return t.img.Rect.Dy() }
func (t *ImageTexture) Format() gputypes.TextureFormat { return t.format }
func (t *ImageTexture) Device() gpucontext.Device      { return t.dev }
func (t *ImageTexture) Image() image.Image             { return t.img }
