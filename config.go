package hwcodec

import (
	"fmt"

	"github.com/gogpu/gpucontext"
)

// Encoder tuning limits.
const (
	MinQP        = 0
	MaxQP        = 51
	MaxFramerate = 240
)

// EncodeConfig configures an encoder session.
type EncodeConfig struct {
	// Device is the device textures passed to Encode are allocated against.
	// Nil lets the driver pick an adapter by LUID.
	Device gpucontext.DeviceProvider
	// LUID selects the physical adapter when Device is nil. Zero means any.
	LUID int64

	API    GraphicsAPI
	Format CodecFormat

	// Width and Height must be positive and even.
	Width, Height int

	BitrateKbps int
	Framerate   int
	// GOP is the keyframe interval in frames. Zero means driver default.
	GOP int

	QPMin, QPMax int
}

// DefaultEncodeConfig returns a config for the given entry and resolution
// with typical streaming defaults.
func DefaultEncodeConfig(e CapabilityEntry, width, height int) EncodeConfig {
	return EncodeConfig{
		API:         e.API,
		Format:      e.Format,
		Width:       width,
		Height:      height,
		BitrateKbps: 4000,
		Framerate:   30,
		GOP:         60,
		QPMin:       18,
		QPMax:       MaxQP,
	}
}

// Entry returns the capability entry the config targets.
func (c EncodeConfig) Entry() CapabilityEntry {
	return CapabilityEntry{API: c.API, Format: c.Format}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c EncodeConfig) Validate() error {
	switch {
	case !c.API.Valid():
		return fmt.Errorf("%w: graphics API %v", ErrInvalidConfig, c.API)
	case !c.Format.Valid():
		return fmt.Errorf("%w: codec format %v", ErrInvalidConfig, c.Format)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalidConfig, c.Width, c.Height)
	case c.Width%2 != 0 || c.Height%2 != 0:
		return fmt.Errorf("%w: size %dx%d must be even", ErrInvalidConfig, c.Width, c.Height)
	case c.GOP < 0:
		return fmt.Errorf("%w: gop %d", ErrInvalidConfig, c.GOP)
	}
	if err := ValidateBitrate(c.BitrateKbps); err != nil {
		return err
	}
	if err := ValidateFramerate(c.Framerate); err != nil {
		return err
	}
	return ValidateQP(c.QPMin, c.QPMax)
}

// ValidateBitrate checks a bitrate in kbps.
func ValidateBitrate(kbps int) error {
	if kbps <= 0 {
		return fmt.Errorf("%w: bitrate %d kbps", ErrInvalidConfig, kbps)
	}
	return nil
}

// ValidateFramerate checks a framerate in frames per second.
func ValidateFramerate(fps int) error {
	if fps < 1 || fps > MaxFramerate {
		return fmt.Errorf("%w: framerate %d", ErrInvalidConfig, fps)
	}
	return nil
}

// ValidateQP checks a quantizer range.
func ValidateQP(qpMin, qpMax int) error {
	if qpMin < MinQP || qpMax > MaxQP || qpMin > qpMax {
		return fmt.Errorf("%w: qp range [%d,%d]", ErrInvalidConfig, qpMin, qpMax)
	}
	return nil
}

// DecodeConfig configures a decoder session.
type DecodeConfig struct {
	// Device is the device output textures are allocated against. Pass a
	// presentation surface's Device for zero-copy rendering.
	Device gpucontext.DeviceProvider
	LUID   int64

	API    GraphicsAPI
	Format CodecFormat

	// OutputSharedHandle asks the driver for cross-device shareable output
	// textures instead of textures private to Device.
	OutputSharedHandle bool
}

// Entry returns the capability entry the config targets.
func (c DecodeConfig) Entry() CapabilityEntry {
	return CapabilityEntry{API: c.API, Format: c.Format}
}

// Validate reports the first invalid field, wrapped in ErrInvalidConfig.
func (c DecodeConfig) Validate() error {
	if !c.API.Valid() {
		return fmt.Errorf("%w: graphics API %v", ErrInvalidConfig, c.API)
	}
	if !c.Format.Valid() {
		return fmt.Errorf("%w: codec format %v", ErrInvalidConfig, c.Format)
	}
	return nil
}
