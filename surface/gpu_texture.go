// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"context"
	"errors"
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu"

	"github.com/gogpu/hwcodec"
)

// copyRowAlign is the bytes-per-row alignment of texture/buffer copies.
const copyRowAlign = 256

var errNotWGPUDevice = errors.New("surface: device is not a wgpu device")

// GPUTexture is a wgpu texture bound to a surface device. Decode drivers
// that output through wgpu, and tests, allocate frames with it.
type GPUTexture struct {
	tex    *wgpu.Texture
	dev    *wgpu.Device
	queue  *wgpu.Queue
	width  int
	height int

	owner  *GPUSurface
	handle uintptr
}

var (
	_ hwcodec.ForeignTexture = (*GPUTexture)(nil)
	_ WGPUTextureSource      = (*GPUTexture)(nil)
	_ NativeTextureSource    = (*GPUTexture)(nil)
)

// NewGPUTexture allocates a sampled, copyable texture on the device
// behind dp. Textures allocated on a GPUSurface device are also
// presentable by their native pointer until Release.
func NewGPUTexture(dp gpucontext.DeviceProvider, width, height int, format gputypes.TextureFormat) (*GPUTexture, error) {
	if dp == nil {
		return nil, errNotWGPUDevice
	}
	dev, ok := dp.Device().(*wgpu.Device)
	if !ok || dev == nil {
		return nil, fmt.Errorf("%w: %T", errNotWGPUDevice, dp.Device())
	}
	if width <= 0 || height <= 0 {
		return nil, ErrInvalidSize
	}
	tex, err := dev.CreateTexture(&wgpu.TextureDescriptor{
		Label:         "hwcodec-frame",
		Size:          wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        format,
		Usage:         wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return nil, fmt.Errorf("surface: create frame texture: %w", err)
	}
	t := &GPUTexture{tex: tex, dev: dev, queue: dev.Queue(), width: width, height: height}
	if gd, ok := dp.(*gpuDevice); ok {
		t.owner = gd.s
		t.handle = t.nativeHandle()
		gd.s.trackNative(t)
	}
	return t, nil
}

func (t *GPUTexture) Width() int                     { return t.width }
func (t *GPUTexture) Height() int                    { return t.height }
func (t *GPUTexture) Format() gputypes.TextureFormat { return t.tex.Format() }
func (t *GPUTexture) Device() gpucontext.Device      { return t.dev }
func (t *GPUTexture) WGPUTexture() *wgpu.Texture     { return t.tex }

// NativePointer returns the backend texture handle (a VkImage, an
// ID3D12Resource) for vendor encoders, or nil once released.
func (t *GPUTexture) NativePointer() unsafe.Pointer {
	if t.tex == nil {
		return nil
	}
	ht := t.tex.HalTexture()
	if ht == nil {
		return nil
	}
	return unsafe.Pointer(ht.NativeHandle())
}

func (t *GPUTexture) nativeHandle() uintptr {
	return uintptr(t.NativePointer())
}

// Upload writes tightly packed 4-byte texels into the texture.
func (t *GPUTexture) Upload(pix []byte) error {
	if len(pix) != t.width*t.height*4 {
		return fmt.Errorf("surface: upload %d bytes, want %d", len(pix), t.width*t.height*4)
	}
	return t.queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: t.tex, Aspect: gputypes.TextureAspectAll},
		pix,
		&wgpu.ImageDataLayout{BytesPerRow: uint32(t.width * 4), RowsPerImage: uint32(t.height)},
		&wgpu.Extent3D{Width: uint32(t.width), Height: uint32(t.height), DepthOrArrayLayers: 1},
	)
}

// Release frees the texture.
func (t *GPUTexture) Release() {
	if t.owner != nil {
		t.owner.untrackNative(t.handle)
		t.owner = nil
	}
	if t.tex != nil {
		t.tex.Release()
		t.tex = nil
	}
}

// Snapshot reads the render target back into an RGBA image.
func (s *GPUSurface) Snapshot() (*image.RGBA, error) {
	return s.SnapshotContext(context.Background())
}

// SnapshotContext is Snapshot with a deadline on the buffer map.
func (s *GPUSurface) SnapshotContext(ctx context.Context) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(); err != nil {
		return nil, err
	}

	w, h := s.opts.Width, s.opts.Height
	row := (w*4 + copyRowAlign - 1) / copyRowAlign * copyRowAlign
	size := uint64(row * h)

	buf, err := s.device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "hwcodec-readback",
		Size:  size,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return nil, fmt.Errorf("surface: readback buffer: %w", err)
	}
	defer buf.Release()

	enc, err := s.device.CreateCommandEncoder(&wgpu.CommandEncoderDescriptor{Label: "hwcodec-readback"})
	if err != nil {
		return nil, fmt.Errorf("surface: readback: %w", err)
	}
	enc.CopyTextureToBuffer(s.target, buf, []wgpu.BufferTextureCopy{{
		BufferLayout: wgpu.ImageDataLayout{BytesPerRow: uint32(row), RowsPerImage: uint32(h)},
		TextureBase:  wgpu.ImageCopyTexture{Texture: s.target, Aspect: gputypes.TextureAspectAll},
		Size:         wgpu.Extent3D{Width: uint32(w), Height: uint32(h), DepthOrArrayLayers: 1},
	}})
	if err := s.submit(enc); err != nil {
		return nil, fmt.Errorf("surface: readback: %w", err)
	}

	if err := buf.Map(ctx, wgpu.MapModeRead, 0, size); err != nil {
		return nil, fmt.Errorf("surface: map readback: %w", err)
	}
	defer func() { _ = buf.Unmap() }()
	rng, err := buf.MappedRange(0, size)
	if err != nil {
		return nil, fmt.Errorf("surface: map readback: %w", err)
	}
	defer rng.Release()
	data := rng.Bytes()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		copy(img.Pix[y*img.Stride:y*img.Stride+w*4], data[y*row:y*row+w*4])
	}
	if s.target.Format() == gputypes.TextureFormatBGRA8Unorm {
		swapRB(img.Pix)
	}
	return img, nil
}
