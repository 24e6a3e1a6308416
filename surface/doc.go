// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package surface presents decoded frames.
//
// A Surface owns a rendering device and composites hwcodec.ForeignTexture
// values onto its target. Two kinds are built in:
//
//   - GPUSurface: a wgpu device and render target. Textures on the same
//     device are copied, or blitted through a WGSL shader when their size
//     or format differs.
//   - ImageSurface: a CPU compositor into an *image.RGBA for headless
//     hosts and tests.
//
// # Device sharing
//
// Surface.Device returns a DeviceHandle. Passing it as the Device of a
// hwcodec.DecodeConfig makes the decoder allocate its output on the
// surface's device and take a lease on it. Destroy refuses with
// ErrSurfaceInUse until every such decoder is closed.
//
// A texture allocated on any other device is rejected by Render with a
// *hwcodec.InteropError whose Code is hwcodec.CodeDeviceMismatch.
//
// # Lifecycle
//
// Constructors return surfaces in StateCreated. Destroy moves to
// StateDestroyed, after which Render returns ErrSurfaceDestroyed and Device
// returns nil. The zero value of a surface type is StateUninitialized.
//
// # Registry
//
// Surface kinds register themselves by name and priority:
//
//	s, err := surface.NewSurface(ctx, surface.DefaultOptions(1280, 720))
//
// NewSurface tries "gpu" first and logs every failed kind before trying
// the next. NewSurfaceByName never falls back.
package surface
