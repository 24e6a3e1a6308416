// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"reflect"
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/hwcodec"
)

// Surface is a presentation target for decoded frames.
//
// A Surface owns a rendering device. Decoders that should hand their output
// to the surface without a copy are opened with the surface's Device as
// their config device:
//
//	s, _ := surface.NewSurface(ctx, surface.DefaultOptions(1280, 720))
//	defer s.Destroy()
//
//	cfg := hwcodec.DecodeConfig{Device: s.Device(), API: api, Format: hwcodec.H264}
//	dec, _ := hwcodec.OpenDecoder(backend, cfg)
//	defer dec.Close()
//
//	texs, _ := dec.Decode(packet)
//	for _, t := range texs {
//	    _ = s.Render(t)
//	}
//
// Surfaces are safe for concurrent use.
type Surface interface {
	// Width returns the target width in pixels.
	Width() int

	// Height returns the target height in pixels.
	Height() int

	// Render composites tex onto the current target. A texture that was not
	// allocated against Device, or that the surface cannot read, returns a
	// *hwcodec.InteropError carrying the reason code.
	Render(tex hwcodec.ForeignTexture) error

	// Device returns the handle upstream decoders allocate against, or nil
	// once the surface is destroyed.
	Device() DeviceHandle

	// Destroy releases the device. It fails with ErrSurfaceInUse while
	// leases taken through Device are outstanding, and with
	// ErrSurfaceDestroyed when called again.
	Destroy() error
}

// DeviceHandle is the device a Surface exposes to decoders.
type DeviceHandle interface {
	gpucontext.DeviceProvider
	hwcodec.DeviceLeaser
}

// State is the lifecycle state of a Surface.
type State uint8

const (
	// StateUninitialized is the zero state of a surface value that was not
	// built by a constructor.
	StateUninitialized State = iota

	// StateCreated means the device is held and Render is valid.
	StateCreated

	// StateDestroyed is terminal.
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateCreated:
		return "created"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Errors.
var (
	// ErrSurfaceNotCreated is returned by operations on a surface that was
	// not built by a constructor.
	ErrSurfaceNotCreated = errors.New("surface: not created")

	// ErrSurfaceDestroyed is returned by operations after Destroy.
	ErrSurfaceDestroyed = errors.New("surface: destroyed")

	// ErrSurfaceInUse is returned by Destroy while device leases are held.
	ErrSurfaceInUse = errors.New("surface: device in use")

	// ErrInvalidSize is returned by constructors for non-positive sizes.
	ErrInvalidSize = errors.New("surface: invalid size")

	// ErrNilImage is returned by NewImageTexture for a nil image.
	ErrNilImage = errors.New("surface: nil image")
)

// lifecycle holds the state machine and the lease count shared by every
// surface implementation. The mutex also serializes Render.
type lifecycle struct {
	mu     sync.Mutex
	state  State
	leases int
}

// check must be called with mu held.
func (l *lifecycle) check() error {
	switch l.state {
	case StateCreated:
		return nil
	case StateDestroyed:
		return ErrSurfaceDestroyed
	default:
		return ErrSurfaceNotCreated
	}
}

// State returns the current lifecycle state.
func (l *lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Leases returns the number of outstanding device leases.
func (l *lifecycle) Leases() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.leases
}

func (l *lifecycle) lease() (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(); err != nil {
		return nil, err
	}
	l.leases++
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			l.leases--
			l.mu.Unlock()
		})
	}, nil
}

// destroy moves Created to Destroyed and runs release with mu held.
// release runs at most once over the life of the surface.
func (l *lifecycle) destroy(release func()) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.check(); err != nil {
		return err
	}
	if l.leases > 0 {
		return ErrSurfaceInUse
	}
	l.state = StateDestroyed
	if release != nil {
		release()
	}
	return nil
}

// sameDevice compares device identities without panicking on
// uncomparable dynamic types.
func sameDevice(a, b gpucontext.Device) bool {
	if a == nil || b == nil {
		return false
	}
	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

func interopError(code int32, err error) error {
	return &hwcodec.InteropError{Op: "render", Code: code, Err: err}
}
