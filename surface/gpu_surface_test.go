// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"
	"unsafe"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	// Software adapter for hosts without a GPU. Rows of 64 RGBA texels
	// keep copies at the 256-byte row alignment it assumes.
	_ "github.com/gogpu/wgpu/hal/software"

	"github.com/gogpu/hwcodec"
	"github.com/gogpu/hwcodec/hwcodectest"
)

// newTestGPUSurface skips when no adapter with a working queue exists,
// as on headless CI.
func newTestGPUSurface(t *testing.T, opts Options) *GPUSurface {
	t.Helper()
	s, err := NewGPUSurface(context.Background(), opts)
	if err != nil {
		t.Skipf("skipping: no gpu surface: %v", err)
	}
	return s
}

func TestGPUSurfaceLifecycle(t *testing.T) {
	opts := DefaultOptions(64, 32)
	opts.Background = color.RGBA{R: 255, A: 255}
	s := newTestGPUSurface(t, opts)

	dev := s.Device()
	if dev == nil || dev.Device() == nil || dev.Queue() == nil {
		t.Fatal("Device() handle is incomplete")
	}
	if got := dev.SurfaceFormat(); got != gputypes.TextureFormatRGBA8Unorm {
		t.Errorf("SurfaceFormat() = %v, want RGBA8Unorm", got)
	}

	img, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if got := img.RGBAAt(10, 10); got != (color.RGBA{R: 255, A: 255}) {
		t.Errorf("background pixel = %v, want red", got)
	}

	if err := s.Destroy(); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if err := s.Destroy(); !errors.Is(err, ErrSurfaceDestroyed) {
		t.Errorf("second Destroy() = %v, want ErrSurfaceDestroyed", err)
	}
	if s.Device() != nil {
		t.Error("Device() after Destroy should be nil")
	}
}

// uploadSolid allocates a w x h RGBA texture on s filled with c.
func uploadSolid(t *testing.T, s *GPUSurface, w, h int, c color.RGBA) *GPUTexture {
	t.Helper()
	tex, err := NewGPUTexture(s.Device(), w, h, gputypes.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("NewGPUTexture() error = %v", err)
	}
	if err := tex.Upload(solid(w, h, c).Pix); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	return tex
}

func centerPixel(t *testing.T, s *GPUSurface) color.RGBA {
	t.Helper()
	img, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	return img.RGBAAt(s.Width()/2, s.Height()/2)
}

func TestGPUSurfaceRenderCopy(t *testing.T) {
	s := newTestGPUSurface(t, DefaultOptions(64, 64))
	defer s.Destroy()

	green := color.RGBA{G: 255, A: 255}
	tex := uploadSolid(t, s, 64, 64, green)
	defer tex.Release()

	if err := s.Render(tex); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := centerPixel(t, s); got != green {
		t.Errorf("pixel = %v, want green", got)
	}
	if got := s.Frames(); got != 1 {
		t.Errorf("Frames() = %d, want 1", got)
	}
}

func TestGPUSurfaceRenderBlit(t *testing.T) {
	s := newTestGPUSurface(t, DefaultOptions(64, 64))
	defer s.Destroy()

	blue := color.RGBA{B: 255, A: 255}
	tex := uploadSolid(t, s, 64, 32, blue)
	defer tex.Release()

	if err := s.Render(tex); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := centerPixel(t, s); got != blue {
		t.Errorf("pixel = %v, want blue", got)
	}
}

// nativeTexture carries only a native pointer, like a vendor decoder
// output.
type nativeTexture struct {
	ptr unsafe.Pointer
	dev gpucontext.Device
}

func (t *nativeTexture) Width() int                     { return 0 }
func (t *nativeTexture) Height() int                    { return 0 }
func (t *nativeTexture) Format() gputypes.TextureFormat { return gputypes.TextureFormatBGRA8Unorm }
func (t *nativeTexture) Device() gpucontext.Device      { return t.dev }
func (t *nativeTexture) NativePointer() unsafe.Pointer  { return t.ptr }

func TestGPUSurfaceRenderNative(t *testing.T) {
	s := newTestGPUSurface(t, DefaultOptions(64, 64))
	defer s.Destroy()

	green := color.RGBA{G: 255, A: 255}
	tex := uploadSolid(t, s, 64, 64, green)
	ptr := tex.NativePointer()
	if ptr == nil {
		tex.Release()
		t.Skip("skipping: adapter exposes no native texture handles")
	}
	dev := s.Device().Device()

	if err := s.Render(&nativeTexture{ptr: ptr, dev: dev}); err != nil {
		t.Fatalf("Render(native) error = %v", err)
	}
	if got := centerPixel(t, s); got != green {
		t.Errorf("pixel = %v, want green", got)
	}

	tex.Release()
	if tex.NativePointer() != nil {
		t.Error("NativePointer() after Release should be nil")
	}
	if code, _ := hwcodec.NativeCode(s.Render(&nativeTexture{ptr: ptr, dev: dev})); code != hwcodec.CodeUnsupportedTexture {
		t.Errorf("Render(released native) code = %d, want CodeUnsupportedTexture", code)
	}
}

func TestGPUSurfaceNativeDevice(t *testing.T) {
	s := newTestGPUSurface(t, DefaultOptions(64, 64))

	nd, ok := s.Device().(interface{ NativeDevice() unsafe.Pointer })
	if !ok {
		t.Fatal("gpu device handle does not expose a native device")
	}
	_ = nd.NativeDevice()

	if err := s.Destroy(); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if p := nd.NativeDevice(); p != nil {
		t.Errorf("NativeDevice() after Destroy = %p, want nil", p)
	}
}

func TestGPUSurfaceRenderInterop(t *testing.T) {
	s := newTestGPUSurface(t, DefaultOptions(64, 64))
	defer s.Destroy()

	foreign := &hwcodectest.Texture{W: 16, H: 16, Fmt: gputypes.TextureFormatRGBA8Unorm, Dev: hwcodectest.NewDevice("other")}
	if code, _ := hwcodec.NativeCode(s.Render(foreign)); code != hwcodec.CodeDeviceMismatch {
		t.Errorf("Render(foreign) code = %d, want CodeDeviceMismatch", code)
	}

	cpu := imageTexture(t, s.Device(), image.NewRGBA(image.Rect(0, 0, 16, 16)))
	if code, _ := hwcodec.NativeCode(s.Render(cpu)); code != hwcodec.CodeUnsupportedTexture {
		t.Errorf("Render(cpu texture) code = %d, want CodeUnsupportedTexture", code)
	}

	stray := &nativeTexture{ptr: unsafe.Pointer(new(int64)), dev: s.Device().Device()}
	if code, _ := hwcodec.NativeCode(s.Render(stray)); code != hwcodec.CodeUnsupportedTexture {
		t.Errorf("Render(unknown native) code = %d, want CodeUnsupportedTexture", code)
	}
}

func TestNewGPUTextureRequiresWGPUDevice(t *testing.T) {
	s := newImageSurface(t, 4, 4)
	defer s.Destroy()

	if _, err := NewGPUTexture(s.Device(), 4, 4, gputypes.TextureFormatRGBA8Unorm); !errors.Is(err, errNotWGPUDevice) {
		t.Errorf("NewGPUTexture(image device) = %v, want errNotWGPUDevice", err)
	}
}

func TestNewGPUSurfaceInvalidSize(t *testing.T) {
	if _, err := NewGPUSurface(context.Background(), Options{Width: -1, Height: 4}); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("NewGPUSurface(-1x4) = %v, want ErrInvalidSize", err)
	}
}

func TestBlittable(t *testing.T) {
	tests := []struct {
		f    gputypes.TextureFormat
		want bool
	}{
		{gputypes.TextureFormatRGBA8Unorm, true},
		{gputypes.TextureFormatBGRA8Unorm, true},
		{gputypes.TextureFormatRGBA16Float, true},
		{gputypes.TextureFormatUndefined, false},
		{gputypes.TextureFormatR8Unorm, false},
	}
	for _, tt := range tests {
		if got := blittable(tt.f); got != tt.want {
			t.Errorf("blittable(%v) = %v, want %v", tt.f, got, tt.want)
		}
	}
}

func TestCompileBlitShader(t *testing.T) {
	words, err := compileSPIRV(blitShaderSource)
	if err != nil {
		t.Fatalf("compileSPIRV() error = %v", err)
	}
	const spirvMagic = 0x07230203
	if len(words) == 0 || words[0] != spirvMagic {
		t.Errorf("compiled shader does not start with the SPIR-V magic")
	}
}
