// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package surface

import (
	"fmt"
	"image"
	"image/png"
	"io"
)

// Snapshotter is implemented by surfaces that can read back the presented
// frame.
type Snapshotter interface {
	Snapshot() (*image.RGBA, error)
}

// DumpPNG writes the presented frame of s to w as PNG.
func DumpPNG(w io.Writer, s Snapshotter) error {
	img, err := s.Snapshot()
	if err != nil {
		return fmt.Errorf("surface: snapshot: %w", err)
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("surface: encode png: %w", err)
	}
	return nil
}
