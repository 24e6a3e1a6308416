// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"image"
	"testing"

	"github.com/gogpu/hwcodec"
)

func newImageSurface(t *testing.T, w, h int) *ImageSurface {
	t.Helper()
	s, err := NewImageSurface(w, h)
	if err != nil {
		t.Fatalf("NewImageSurface(%d, %d) error = %v", w, h, err)
	}
	return s
}

// TestSurfaceLifecycle walks Created to Destroyed.
func TestSurfaceLifecycle(t *testing.T) {
	s := newImageSurface(t, 8, 8)
	if got := s.State(); got != StateCreated {
		t.Fatalf("State() = %v, want created", got)
	}
	dev := s.Device()
	if dev == nil {
		t.Fatal("Device() = nil while created")
	}
	tex := imageTexture(t, dev, image.NewRGBA(image.Rect(0, 0, 8, 8)))
	if err := s.Render(tex); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if err := s.Destroy(); err != nil {
		t.Fatalf("Destroy() error = %v", err)
	}
	if got := s.State(); got != StateDestroyed {
		t.Errorf("State() = %v, want destroyed", got)
	}
	if err := s.Render(tex); !errors.Is(err, ErrSurfaceDestroyed) {
		t.Errorf("Render() after Destroy = %v, want ErrSurfaceDestroyed", err)
	}
	if d := s.Device(); d != nil {
		t.Errorf("Device() after Destroy = %v, want nil", d)
	}
	if _, err := s.Snapshot(); !errors.Is(err, ErrSurfaceDestroyed) {
		t.Errorf("Snapshot() after Destroy = %v, want ErrSurfaceDestroyed", err)
	}
	if err := s.Destroy(); !errors.Is(err, ErrSurfaceDestroyed) {
		t.Errorf("second Destroy() = %v, want ErrSurfaceDestroyed", err)
	}
	if _, err := dev.Lease(); !errors.Is(err, ErrSurfaceDestroyed) {
		t.Errorf("Lease() after Destroy = %v, want ErrSurfaceDestroyed", err)
	}
}

// TestSurfaceUninitialized tests the zero value.
func TestSurfaceUninitialized(t *testing.T) {
	var s ImageSurface
	if got := s.State(); got != StateUninitialized {
		t.Errorf("State() = %v, want uninitialized", got)
	}
	tex := imageTexture(t, nil, image.NewRGBA(image.Rect(0, 0, 1, 1)))
	if err := s.Render(tex); !errors.Is(err, ErrSurfaceNotCreated) {
		t.Errorf("Render() = %v, want ErrSurfaceNotCreated", err)
	}
	if d := s.Device(); d != nil {
		t.Errorf("Device() = %v, want nil", d)
	}
	if err := s.Destroy(); !errors.Is(err, ErrSurfaceNotCreated) {
		t.Errorf("Destroy() = %v, want ErrSurfaceNotCreated", err)
	}
}

// TestSurfaceDestroyWhileLeased tests that leases block Destroy.
func TestSurfaceDestroyWhileLeased(t *testing.T) {
	s := newImageSurface(t, 4, 4)
	release, err := s.Device().Lease()
	if err != nil {
		t.Fatalf("Lease() error = %v", err)
	}
	if n := s.Leases(); n != 1 {
		t.Errorf("Leases() = %d, want 1", n)
	}
	if err := s.Destroy(); !errors.Is(err, ErrSurfaceInUse) {
		t.Errorf("Destroy() while leased = %v, want ErrSurfaceInUse", err)
	}
	if got := s.State(); got != StateCreated {
		t.Errorf("State() after refused Destroy = %v, want created", got)
	}

	release()
	release()
	if n := s.Leases(); n != 0 {
		t.Errorf("Leases() after double release = %d, want 0", n)
	}
	if err := s.Destroy(); err != nil {
		t.Errorf("Destroy() = %v", err)
	}
}

// TestNewImageSurfaceInvalid tests option validation.
func TestNewImageSurfaceInvalid(t *testing.T) {
	if _, err := NewImageSurface(0, 10); !errors.Is(err, ErrInvalidSize) {
		t.Errorf("NewImageSurface(0, 10) = %v, want ErrInvalidSize", err)
	}

	opts := DefaultOptions(16, 16)
	opts.Format = hwcodec.SurfaceNV12
	_, err := NewImageSurfaceWithOptions(opts)
	if code, ok := hwcodec.NativeCode(err); !errors.Is(err, hwcodec.ErrInterop) || !ok || code != hwcodec.CodeFormatMismatch {
		t.Errorf("NV12 surface = %v, want InteropError CodeFormatMismatch", err)
	}
}

type sliceDevice []int

// TestSameDevice tests identity comparison without panics.
func TestSameDevice(t *testing.T) {
	a, b := &imageDevice{}, &imageDevice{}
	tests := []struct {
		name string
		x, y any
		want bool
	}{
		{"same pointer", a, a, true},
		{"other pointer", a, b, false},
		{"nil", nil, a, false},
		{"different types", a, sliceDevice{1}, false},
		{"uncomparable", sliceDevice{1}, sliceDevice{1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sameDevice(tt.x, tt.y); got != tt.want {
				t.Errorf("sameDevice() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStateString(t *testing.T) {
	for s, want := range map[State]string{
		StateUninitialized: "uninitialized",
		StateCreated:       "created",
		StateDestroyed:     "destroyed",
		State(9):           "unknown",
	} {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
