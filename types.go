package hwcodec

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"golang.org/x/text/cases"
)

// GraphicsAPI identifies a platform graphics or compute API that a vendor
// SDK can run on. It is used as a catalog key.
type GraphicsAPI uint8

const (
	APIUnknown GraphicsAPI = iota
	APIDX11
	APIDX12
	APIOpenCL
	APIOpenGL
	APIVulkan
	APICUDA
	APIVAAPI
)

var apiNames = [...]string{
	APIUnknown: "unknown",
	APIDX11:    "dx11",
	APIDX12:    "dx12",
	APIOpenCL:  "opencl",
	APIOpenGL:  "opengl",
	APIVulkan:  "vulkan",
	APICUDA:    "cuda",
	APIVAAPI:   "vaapi",
}

// String returns the canonical lower-case name of the API.
func (a GraphicsAPI) String() string {
	if int(a) < len(apiNames) {
		return apiNames[a]
	}
	return fmt.Sprintf("GraphicsAPI(%d)", uint8(a))
}

// Valid reports whether a names a known, concrete API.
func (a GraphicsAPI) Valid() bool {
	return a > APIUnknown && int(a) < len(apiNames)
}

// ParseGraphicsAPI parses a name as produced by String. Matching is
// case-insensitive; "d3d11" is accepted as an alias of dx11.
func ParseGraphicsAPI(s string) (GraphicsAPI, error) {
	name := fold(s)
	if name == "d3d11" {
		return APIDX11, nil
	}
	if name == "d3d12" {
		return APIDX12, nil
	}
	for i, n := range apiNames {
		if i > 0 && n == name {
			return GraphicsAPI(i), nil
		}
	}
	return APIUnknown, fmt.Errorf("hwcodec: unknown graphics API %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (a GraphicsAPI) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("hwcodec: cannot marshal %v", a)
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *GraphicsAPI) UnmarshalText(b []byte) error {
	v, err := ParseGraphicsAPI(string(b))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// CodecFormat identifies a compressed video format.
type CodecFormat uint8

const (
	FormatUnknown CodecFormat = iota
	H264
	H265
	VP8
	VP9
	AV1
)

var formatNames = [...]string{
	FormatUnknown: "unknown",
	H264:          "h264",
	H265:          "h265",
	VP8:           "vp8",
	VP9:           "vp9",
	AV1:           "av1",
}

// DefaultFormats is the codec set every bundled backend offers.
func DefaultFormats() []CodecFormat {
	return []CodecFormat{H264, H265}
}

func (f CodecFormat) String() string {
	if int(f) < len(formatNames) {
		return formatNames[f]
	}
	return fmt.Sprintf("CodecFormat(%d)", uint8(f))
}

// Valid reports whether f names a known, concrete format.
func (f CodecFormat) Valid() bool {
	return f > FormatUnknown && int(f) < len(formatNames)
}

// ParseCodecFormat parses a format name. "avc" and "hevc" are accepted as
// aliases of h264 and h265.
func ParseCodecFormat(s string) (CodecFormat, error) {
	switch name := fold(s); name {
	case "avc", "h.264":
		return H264, nil
	case "hevc", "h.265":
		return H265, nil
	default:
		for i, n := range formatNames {
			if i > 0 && n == name {
				return CodecFormat(i), nil
			}
		}
	}
	return FormatUnknown, fmt.Errorf("hwcodec: unknown codec format %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (f CodecFormat) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("hwcodec: cannot marshal %v", f)
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *CodecFormat) UnmarshalText(b []byte) error {
	v, err := ParseCodecFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// SurfaceFormat is the pixel layout of a texture exchanged with a backend.
type SurfaceFormat uint8

const (
	SurfaceUnknown SurfaceFormat = iota
	SurfaceBGRA
	SurfaceRGBA
	SurfaceNV12
)

var surfaceNames = [...]string{
	SurfaceUnknown: "unknown",
	SurfaceBGRA:    "bgra",
	SurfaceRGBA:    "rgba",
	SurfaceNV12:    "nv12",
}

func (s SurfaceFormat) String() string {
	if int(s) < len(surfaceNames) {
		return surfaceNames[s]
	}
	return fmt.Sprintf("SurfaceFormat(%d)", uint8(s))
}

// TextureFormat maps s to the WebGPU texture format used for presentation.
// Planar formats have no single-texture equivalent and map to
// TextureFormatUndefined.
func (s SurfaceFormat) TextureFormat() gputypes.TextureFormat {
	switch s {
	case SurfaceBGRA:
		return gputypes.TextureFormatBGRA8Unorm
	case SurfaceRGBA:
		return gputypes.TextureFormatRGBA8Unorm
	default:
		return gputypes.TextureFormatUndefined
	}
}

// SurfaceFormatOf is the inverse of SurfaceFormat.TextureFormat.
func SurfaceFormatOf(tf gputypes.TextureFormat) SurfaceFormat {
	switch tf {
	case gputypes.TextureFormatBGRA8Unorm:
		return SurfaceBGRA
	case gputypes.TextureFormatRGBA8Unorm:
		return SurfaceRGBA
	default:
		return SurfaceUnknown
	}
}

// ParseSurfaceFormat parses a surface format name.
func ParseSurfaceFormat(s string) (SurfaceFormat, error) {
	name := fold(s)
	for i, n := range surfaceNames {
		if i > 0 && n == name {
			return SurfaceFormat(i), nil
		}
	}
	return SurfaceUnknown, fmt.Errorf("hwcodec: unknown surface format %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (s SurfaceFormat) MarshalText() ([]byte, error) {
	if s == SurfaceUnknown || int(s) >= len(surfaceNames) {
		return nil, fmt.Errorf("hwcodec: cannot marshal %v", s)
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *SurfaceFormat) UnmarshalText(b []byte) error {
	v, err := ParseSurfaceFormat(string(b))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// fold returns the Unicode case-folded form of s. A Caser is stateful, so
// each call builds its own.
func fold(s string) string {
	return cases.Fold().String(s)
}
