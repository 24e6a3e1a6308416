// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"errors"
	"image/color"

	"github.com/gogpu/gputypes"
	"golang.org/x/image/draw"

	"github.com/gogpu/hwcodec"
)

var errUnpresentable = errors.New("format has no single-plane texture equivalent")

// Filter specifies the interpolation used when a frame is scaled to the
// target size. Frames of the target size are always copied unfiltered.
type Filter uint8

const (
	// FilterNearest uses nearest-neighbor interpolation.
	FilterNearest Filter = iota

	// FilterBilinear uses bilinear interpolation.
	FilterBilinear

	// FilterCatmullRom uses the Catmull-Rom cubic kernel.
	FilterCatmullRom
)

func (f Filter) String() string {
	switch f {
	case FilterNearest:
		return "nearest"
	case FilterBilinear:
		return "bilinear"
	case FilterCatmullRom:
		return "catmullrom"
	default:
		return "unknown"
	}
}

func (f Filter) scaler() draw.Scaler {
	switch f {
	case FilterBilinear:
		return draw.ApproxBiLinear
	case FilterCatmullRom:
		return draw.CatmullRom
	default:
		return draw.NearestNeighbor
	}
}

// Options configures surface creation.
type Options struct {
	// Width is the target width in pixels.
	Width int

	// Height is the target height in pixels.
	Height int

	// Format is the target pixel format. NV12 is not presentable.
	// Default: hwcodec.SurfaceRGBA
	Format hwcodec.SurfaceFormat

	// Filter selects the scaler for frames of a different size.
	Filter Filter

	// Background is the color the target is cleared to on creation.
	// Default: opaque black
	Background color.Color

	// Adapter names a preferred adapter for GPU surfaces. An empty name
	// picks the high-performance adapter.
	Adapter string
}

// DefaultOptions returns Options with default values.
func DefaultOptions(width, height int) Options {
	return Options{
		Width:      width,
		Height:     height,
		Format:     hwcodec.SurfaceRGBA,
		Filter:     FilterBilinear,
		Background: color.Black,
	}
}

func (o Options) withDefaults() Options {
	if o.Format == hwcodec.SurfaceUnknown {
		o.Format = hwcodec.SurfaceRGBA
	}
	if o.Background == nil {
		o.Background = color.Black
	}
	return o
}

func (o Options) validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return ErrInvalidSize
	}
	if o.Format.TextureFormat() == gputypes.TextureFormatUndefined {
		return &hwcodec.InteropError{Op: "create", Code: hwcodec.CodeFormatMismatch, Err: errUnpresentable}
	}
	return nil
}
