// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/hwcodec"
	"github.com/gogpu/hwcodec/hwcodectest"
)

func imageTexture(t *testing.T, dev gpucontext.DeviceProvider, img *image.RGBA) *ImageTexture {
	t.Helper()
	tex, err := NewImageTexture(dev, img)
	if err != nil {
		t.Fatalf("NewImageTexture() error = %v", err)
	}
	return tex
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func checkAll(t *testing.T, img *image.RGBA, want color.RGBA) {
	t.Helper()
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if got := img.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

// TestImageSurfaceBackground tests the initial clear.
func TestImageSurfaceBackground(t *testing.T) {
	opts := DefaultOptions(6, 4)
	opts.Background = color.RGBA{R: 10, G: 20, B: 30, A: 255}
	s, err := NewImageSurfaceWithOptions(opts)
	if err != nil {
		t.Fatalf("NewImageSurfaceWithOptions() error = %v", err)
	}
	defer s.Destroy()

	img, err := s.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	checkAll(t, img, color.RGBA{R: 10, G: 20, B: 30, A: 255})
}

// TestImageSurfaceRenderCopy tests a same-size frame.
func TestImageSurfaceRenderCopy(t *testing.T) {
	s := newImageSurface(t, 4, 4)
	defer s.Destroy()

	red := color.RGBA{R: 255, A: 255}
	if err := s.Render(imageTexture(t, s.Device(), solid(4, 4, red))); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	img, _ := s.Snapshot()
	checkAll(t, img, red)
	if n := s.Frames(); n != 1 {
		t.Errorf("Frames() = %d, want 1", n)
	}
}

// TestImageSurfaceRenderScaled tests scaling with every filter.
func TestImageSurfaceRenderScaled(t *testing.T) {
	green := color.RGBA{G: 255, A: 255}
	for _, f := range []Filter{FilterNearest, FilterBilinear, FilterCatmullRom} {
		t.Run(f.String(), func(t *testing.T) {
			opts := DefaultOptions(8, 8)
			opts.Filter = f
			s, err := NewImageSurfaceWithOptions(opts)
			if err != nil {
				t.Fatalf("NewImageSurfaceWithOptions() error = %v", err)
			}
			defer s.Destroy()

			if err := s.Render(imageTexture(t, s.Device(), solid(2, 2, green))); err != nil {
				t.Fatalf("Render() error = %v", err)
			}
			img, _ := s.Snapshot()
			checkAll(t, img, green)
		})
	}
}

// TestImageSurfaceRenderBGRA tests swizzling of decoder output.
func TestImageSurfaceRenderBGRA(t *testing.T) {
	s := newImageSurface(t, hwcodectest.TextureWidth, hwcodectest.TextureHeight)
	defer s.Destroy()

	tex := &hwcodectest.Texture{
		W:   hwcodectest.TextureWidth,
		H:   hwcodectest.TextureHeight,
		Fmt: gputypes.TextureFormatBGRA8Unorm,
		Dev: s.Device().Device(),
		Seq: 3,
	}
	if err := s.Render(tex); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	img, _ := s.Snapshot()
	checkAll(t, img, hwcodectest.SeqColor(3))
}

// bareTexture has no CPU image.
type bareTexture struct {
	dev gpucontext.Device
	fmt gputypes.TextureFormat
}

func (t bareTexture) Width() int                     { return 4 }
func (t bareTexture) Height() int                    { return 4 }
func (t bareTexture) Format() gputypes.TextureFormat { return t.fmt }
func (t bareTexture) Device() gpucontext.Device      { return t.dev }

// floatTexture has a CPU image in a format the compositor rejects.
type floatTexture struct{ bareTexture }

func (floatTexture) Image() image.Image { return image.NewRGBA(image.Rect(0, 0, 4, 4)) }

// TestNewImageTextureNil tests that a nil image never reaches Render.
func TestNewImageTextureNil(t *testing.T) {
	s := newImageSurface(t, 4, 4)
	defer s.Destroy()

	tex, err := NewImageTexture(s.Device(), nil)
	if !errors.Is(err, ErrNilImage) {
		t.Errorf("NewImageTexture(nil) error = %v, want ErrNilImage", err)
	}
	if tex != nil {
		t.Errorf("NewImageTexture(nil) = %v, want nil", tex)
	}
}

// TestImageSurfaceRenderInterop tests every interop rejection.
func TestImageSurfaceRenderInterop(t *testing.T) {
	s := newImageSurface(t, 4, 4)
	defer s.Destroy()
	other := newImageSurface(t, 4, 4)
	defer other.Destroy()

	dev := s.Device().Device()
	tests := []struct {
		name string
		tex  hwcodec.ForeignTexture
		code int32
	}{
		{"other device", imageTexture(t, other.Device(), solid(4, 4, color.RGBA{A: 255})), hwcodec.CodeDeviceMismatch},
		{"unbound", imageTexture(t, nil, solid(4, 4, color.RGBA{A: 255})), hwcodec.CodeDeviceMismatch},
		{"nil", nil, hwcodec.CodeUnsupportedTexture},
		{"no image", bareTexture{dev: dev, fmt: gputypes.TextureFormatRGBA8Unorm}, hwcodec.CodeUnsupportedTexture},
		{"float format", floatTexture{bareTexture{dev: dev, fmt: gputypes.TextureFormatRGBA16Float}}, hwcodec.CodeFormatMismatch},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Render(tt.tex)
			var ie *hwcodec.InteropError
			if !errors.As(err, &ie) {
				t.Fatalf("Render() = %v, want *InteropError", err)
			}
			if ie.Code != tt.code {
				t.Errorf("Code = %d, want %d", ie.Code, tt.code)
			}
			if !errors.Is(err, hwcodec.ErrInterop) {
				t.Error("error should match ErrInterop")
			}
		})
	}

	// Rejections leave the surface usable.
	if err := s.Render(imageTexture(t, s.Device(), solid(4, 4, color.RGBA{B: 255, A: 255}))); err != nil {
		t.Errorf("Render() after rejections = %v", err)
	}
	if n := s.Frames(); n != 1 {
		t.Errorf("Frames() = %d, want 1", n)
	}
}

// TestDumpPNG tests the debug dump.
func TestDumpPNG(t *testing.T) {
	s := newImageSurface(t, 3, 2)
	blue := color.RGBA{B: 255, A: 255}
	if err := s.Render(imageTexture(t, s.Device(), solid(3, 2, blue))); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	var buf bytes.Buffer
	if err := DumpPNG(&buf, s); err != nil {
		t.Fatalf("DumpPNG() error = %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("png.Decode() error = %v", err)
	}
	if got := color.RGBAModel.Convert(img.At(1, 1)); got != blue {
		t.Errorf("pixel = %v, want %v", got, blue)
	}

	_ = s.Destroy()
	if err := DumpPNG(&buf, s); !errors.Is(err, ErrSurfaceDestroyed) {
		t.Errorf("DumpPNG() after Destroy = %v, want ErrSurfaceDestroyed", err)
	}
}
