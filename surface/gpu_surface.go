// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"
	"github.com/gogpu/wgpu/hal"

	// Vulkan is the interop target of every vendor decode path.
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/gogpu/hwcodec"
)

// ErrNoAdapter is returned by NewGPUSurface when no adapter with a working
// queue matches the options.
var ErrNoAdapter = errors.New("surface: no compatible gpu adapter")

// WGPUTextureSource is implemented by foreign textures backed by a wgpu
// texture.
type WGPUTextureSource interface {
	WGPUTexture() *wgpu.Texture
}

// NativeTextureSource is implemented by foreign textures that only carry
// a native resource pointer, such as vendor decoder outputs. GPUSurface
// presents them when the pointer names a texture allocated on the surface
// device with NewGPUTexture.
type NativeTextureSource interface {
	NativePointer() unsafe.Pointer
}

// GPUSurface presents frames into a wgpu render target. Decoders that
// allocate against its Device hand over textures the surface copies or
// blits without leaving the GPU.
type GPUSurface struct {
	lifecycle

	opts Options
	info gputypes.AdapterInfo

	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	target     *wgpu.Texture
	targetView *wgpu.TextureView
	blit       *blitPipeline

	handle *gpuDevice
	frames uint64

	// natives maps the native handles of live GPUTextures allocated on
	// this surface to their wgpu textures.
	nativeMu sync.Mutex
	natives  map[uintptr]*GPUTexture
}

var _ Surface = (*GPUSurface)(nil)

// NewGPUSurface acquires an adapter and device and allocates the render
// target. Any failure is returned; the caller decides whether to fall back
// to an ImageSurface.
func NewGPUSurface(ctx context.Context, opts Options) (*GPUSurface, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	s := &GPUSurface{opts: opts, natives: make(map[uintptr]*GPUTexture)}
	if err := s.init(ctx); err != nil {
		s.release()
		return nil, err
	}
	s.handle = &gpuDevice{s: s}
	s.state = StateCreated

	hwcodec.Logger().Debug("surface: created",
		"kind", "gpu",
		"adapter", s.info.Name,
		"backend", s.info.Backend,
		"width", opts.Width,
		"height", opts.Height)
	return s, nil
}

func (s *GPUSurface) init(ctx context.Context) error {
	var err error
	s.instance, err = wgpu.CreateInstance(&wgpu.InstanceDescriptor{Backends: gputypes.BackendsPrimary})
	if err != nil {
		return fmt.Errorf("surface: create instance: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.adapter, err = s.instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: gputypes.PowerPreferenceHighPerformance,
	})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrNoAdapter, err)
	}
	s.info = s.adapter.Info()
	if s.opts.Adapter != "" && !strings.Contains(strings.ToLower(s.info.Name), strings.ToLower(s.opts.Adapter)) {
		return fmt.Errorf("%w: want %q, got %q", ErrNoAdapter, s.opts.Adapter, s.info.Name)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.device, err = s.adapter.RequestDevice(&wgpu.DeviceDescriptor{Label: "hwcodec-present"})
	if err != nil {
		return fmt.Errorf("surface: request device: %w", err)
	}
	s.queue = s.device.Queue()
	if s.queue == nil {
		return fmt.Errorf("%w: %s has no queue", ErrNoAdapter, s.info.Name)
	}

	s.target, err = s.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "hwcodec-present-target",
		Size:          wgpu.Extent3D{Width: uint32(s.opts.Width), Height: uint32(s.opts.Height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        s.opts.Format.TextureFormat(),
		Usage: wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageCopySrc |
			wgpu.TextureUsageCopyDst | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("surface: create target: %w", err)
	}
	s.targetView, err = s.device.CreateTextureView(s.target, &wgpu.TextureViewDescriptor{
		Label:           "hwcodec-present-target-view",
		Format:          s.target.Format(),
		Dimension:       gputypes.TextureViewDimension2D,
		Aspect:          gputypes.TextureAspectAll,
		MipLevelCount:   1,
		ArrayLayerCount: 1,
	})
	if err != nil {
		return fmt.Errorf("surface: create target view: %w", err)
	}
	return s.clear()
}

// clear fills the target with the background color.
func (s *GPUSurface) clear() error {
	r, g, b, a := s.opts.Background.RGBA()
	enc, err := s.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "hwcodec-present-clear"})
	if err != nil {
		return fmt.Errorf("surface: clear: %w", err)
	}
	pass, err := enc.BeginRenderPass(&wgpu.RenderPassDescriptor{
		Label: "hwcodec-present-clear",
		ColorAttachments: []wgpu.RenderPassColorAttachment{{
			View:    s.targetView,
			LoadOp:  gputypes.LoadOpClear,
			StoreOp: gputypes.StoreOpStore,
			ClearValue: gputypes.Color{
				R: float64(r) / 0xffff,
				G: float64(g) / 0xffff,
				B: float64(b) / 0xffff,
				A: float64(a) / 0xffff,
			},
		}},
	})
	if err != nil {
		enc.DiscardEncoding()
		return fmt.Errorf("surface: clear: %w", err)
	}
	if err := pass.End(); err != nil {
		enc.DiscardEncoding()
		return fmt.Errorf("surface: clear: %w", err)
	}
	return s.submit(enc)
}

func (s *GPUSurface) submit(enc *wgpu.CommandEncoder) error {
	cb, err := enc.Finish()
	if err != nil {
		return err
	}
	if _, err := s.queue.Submit(cb); err != nil {
		cb.Release()
		return err
	}
	return nil
}

// Width returns the target width.
func (s *GPUSurface) Width() int {
	return s.opts.Width
}

// Height returns the target height.
func (s *GPUSurface) Height() int {
	return s.opts.Height
}

// AdapterInfo returns the adapter the surface runs on.
func (s *GPUSurface) AdapterInfo() gputypes.AdapterInfo {
	return s.info
}

// Frames returns how many frames were rendered.
func (s *GPUSurface) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Render presents tex, which must be a wgpu texture or a native texture
// allocated on the surface device. A texture matching the target format
// and size is copied; any other filterable color texture is blitted with
// scaling.
func (s *GPUSurface) Render(tex hwcodec.ForeignTexture) error {
	if tex == nil {
		return interopError(hwcodec.CodeUnsupportedTexture, errNilTexture)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return err
	}
	if !sameDevice(tex.Device(), s.device) {
		return interopError(hwcodec.CodeDeviceMismatch,
			fmt.Errorf("texture allocated on %T, surface device is %s", tex.Device(), s.info.Name))
	}

	src, w, h, err := s.source(tex)
	if err != nil {
		return interopError(hwcodec.CodeUnsupportedTexture, err)
	}

	switch format := src.Format(); {
	case format == s.target.Format() && w == s.opts.Width && h == s.opts.Height:
		err = s.copyFrom(src)
	case blittable(format):
		err = s.blitFrom(src)
	default:
		return interopError(hwcodec.CodeFormatMismatch,
			fmt.Errorf("texture format %v cannot be presented to %v", format, s.target.Format()))
	}
	if err != nil {
		return interopError(hwcodec.CodeSubmitFailed, err)
	}
	s.frames++
	return nil
}

// source resolves tex to a wgpu texture and its size. Native textures are
// looked up among the textures allocated on the surface, since their
// reported size and format are not reliable.
func (s *GPUSurface) source(tex hwcodec.ForeignTexture) (*wgpu.Texture, int, int, error) {
	if src, ok := tex.(WGPUTextureSource); ok {
		if wt := src.WGPUTexture(); wt != nil {
			return wt, tex.Width(), tex.Height(), nil
		}
		return nil, 0, 0, fmt.Errorf("%T was released", tex)
	}
	src, ok := tex.(NativeTextureSource)
	if !ok {
		return nil, 0, 0, fmt.Errorf("%T is not a wgpu texture", tex)
	}
	ptr := src.NativePointer()
	s.nativeMu.Lock()
	gt := s.natives[uintptr(ptr)]
	s.nativeMu.Unlock()
	if ptr == nil || gt == nil {
		return nil, 0, 0, fmt.Errorf("native texture %p was not allocated on this surface", ptr)
	}
	return gt.tex, gt.width, gt.height, nil
}

func (s *GPUSurface) trackNative(t *GPUTexture) {
	if h := t.nativeHandle(); h != 0 {
		s.nativeMu.Lock()
		s.natives[h] = t
		s.nativeMu.Unlock()
	}
}

func (s *GPUSurface) untrackNative(h uintptr) {
	s.nativeMu.Lock()
	delete(s.natives, h)
	s.nativeMu.Unlock()
}

func (s *GPUSurface) copyFrom(src *wgpu.Texture) error {
	enc, err := s.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "hwcodec-present-copy"})
	if err != nil {
		return err
	}
	enc.CopyTextureToTexture(src, s.target, []wgpu.TextureCopy{{
		Source:      wgpu.ImageCopyTexture{Texture: src, Aspect: gputypes.TextureAspectAll},
		Destination: wgpu.ImageCopyTexture{Texture: s.target, Aspect: gputypes.TextureAspectAll},
		Size:        wgpu.Extent3D{Width: uint32(s.opts.Width), Height: uint32(s.opts.Height), DepthOrArrayLayers: 1},
	}})
	return s.submit(enc)
}

func (s *GPUSurface) blitFrom(src *wgpu.Texture) error {
	if s.blit == nil {
		bp, err := newBlitPipeline(s.device, s.target.Format())
		if err != nil {
			return err
		}
		s.blit = bp
	}
	return s.blit.draw(s, src)
}

// Device returns the surface device handle, or nil after Destroy.
func (s *GPUSurface) Device() DeviceHandle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.check() != nil {
		return nil
	}
	return s.handle
}

// Destroy waits for the queue to drain and releases the device.
func (s *GPUSurface) Destroy() error {
	return s.destroy(func() {
		s.release()
		hwcodec.Logger().Debug("surface: destroyed", "kind", "gpu", "frames", s.frames)
	})
}

// release frees whatever init acquired, in reverse order.
func (s *GPUSurface) release() {
	if s.device != nil {
		if err := s.device.WaitIdle(); err != nil {
			hwcodec.Logger().Warn("surface: wait idle", "err", err)
		}
	}
	if s.blit != nil {
		s.blit.release()
		s.blit = nil
	}
	if s.targetView != nil {
		s.targetView.Release()
		s.targetView = nil
	}
	if s.target != nil {
		s.target.Release()
		s.target = nil
	}
	if s.device != nil {
		s.device.Release()
		s.device = nil
	}
	if s.adapter != nil {
		s.adapter.Release()
		s.adapter = nil
	}
	if s.instance != nil {
		s.instance.Release()
		s.instance = nil
	}
	s.queue = nil
}

// gpuDevice exposes the surface's wgpu device to decoders.
type gpuDevice struct {
	s *GPUSurface
}

func (d *gpuDevice) Device() gpucontext.Device   { return d.s.device }
func (d *gpuDevice) Queue() gpucontext.Queue     { return d.s.queue }
func (d *gpuDevice) Adapter() gpucontext.Adapter { return d.s.adapter }

func (d *gpuDevice) SurfaceFormat() gputypes.TextureFormat {
	return d.s.opts.Format.TextureFormat()
}

func (d *gpuDevice) AdapterInfo() gpucontext.AdapterInfo {
	return gpucontext.AdapterInfo{Name: d.s.info.Name, Type: adapterType(d.s.info.DeviceType)}
}

func (d *gpuDevice) Lease() (func(), error) {
	return d.s.lease()
}

// NativeDevice returns the backend device handle vendor SDKs allocate
// on, or nil when the HAL does not expose one and the SDK must create
// its own device.
func (d *gpuDevice) NativeDevice() unsafe.Pointer {
	if d.s.device == nil {
		return nil
	}
	nh, ok := d.s.device.HalDevice().(hal.NativeHandle)
	if !ok {
		return nil
	}
	return unsafe.Pointer(nh.NativeHandle())
}

func adapterType(t gputypes.DeviceType) gpucontext.AdapterType {
	switch t {
	case gputypes.DeviceTypeDiscreteGPU:
		return gpucontext.AdapterTypeDiscrete
	case gputypes.DeviceTypeIntegratedGPU:
		return gpucontext.AdapterTypeIntegrated
	case gputypes.DeviceTypeCPU:
		return gpucontext.AdapterTypeSoftware
	default:
		return gpucontext.AdapterTypeUnknown
	}
}
