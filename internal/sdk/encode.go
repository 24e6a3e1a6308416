package sdk

import (
	"errors"
	"fmt"
	"unsafe"

	"github.com/gogpu/hwcodec"
)

// EncodeParams are the native construction arguments of an encoder.
type EncodeParams struct {
	Args
	Width, Height int32
	Kbps          int32
	Framerate     int32
	GOP           int32
	QPMin, QPMax  int32
}

// EncodeABI is the native encode entry points of one vendor library.
// Every function returns the native status, zero on success.
type EncodeABI struct {
	// New returns nil when the SDK refuses the parameters.
	New func(p EncodeParams) unsafe.Pointer

	// Encode submits tex and delivers packets to sink. The libraries
	// return a non-zero status both on failure and when nothing was
	// produced.
	Encode func(enc, tex unsafe.Pointer, sink *PacketSink) int32

	Destroy func(enc unsafe.Pointer) int32

	// Test writes the LUIDs of adapters that encoded a frame into luids
	// and returns how many it wrote.
	Test func(p EncodeParams, luids []int64) (n int, rc int32)

	SetBitrate   func(enc unsafe.Pointer, kbps int32) int32
	SetQP        func(enc unsafe.Pointer, qpMin, qpMax int32) int32
	SetFramerate func(enc unsafe.Pointer, fps int32) int32
}

// PacketSink collects the packets of one native encode call. Vendor
// packages pass it to C through a runtime/cgo.Handle.
type PacketSink struct {
	PTS     int64
	Packets []hwcodec.Packet
}

// Add copies data into a new packet.
func (s *PacketSink) Add(data []byte, keyframe bool) {
	s.Packets = append(s.Packets, hwcodec.Packet{
		Data:     append([]byte(nil), data...),
		Keyframe: keyframe,
		PTS:      s.PTS,
	})
}

// errCPUFrame rejects Frame.Data: the vendor encoders read GPU textures
// only.
var errCPUFrame = errors.New("sdk: native encoders take textures, not cpu frame data")

type encodeDriver struct {
	backend string
	abi     EncodeABI
}

// NewEncodeDriver binds abi as the encode dispatch table of backend.
func NewEncodeDriver(backend string, abi EncodeABI) hwcodec.EncodeDriver {
	return &encodeDriver{backend: backend, abi: abi}
}

func (d *encodeDriver) params(cfg hwcodec.EncodeConfig) (EncodeParams, error) {
	a, err := args(d.backend, nativeDevice(cfg.Device), cfg.LUID, cfg.API, cfg.Format)
	if err != nil {
		return EncodeParams{}, err
	}
	return EncodeParams{
		Args:      a,
		Width:     int32(cfg.Width),
		Height:    int32(cfg.Height),
		Kbps:      int32(cfg.BitrateKbps),
		Framerate: int32(cfg.Framerate),
		GOP:       int32(cfg.GOP),
		QPMin:     int32(cfg.QPMin),
		QPMax:     int32(cfg.QPMax),
	}, nil
}

func (d *encodeDriver) NewEncoder(cfg hwcodec.EncodeConfig) (hwcodec.Handle, error) {
	p, err := d.params(cfg)
	if err != nil {
		return hwcodec.Handle{}, err
	}
	ptr := d.abi.New(p)
	if ptr == nil {
		return hwcodec.Handle{}, &hwcodec.ConstructionError{Backend: d.backend, Entry: cfg.Entry(), Code: codeFailure}
	}
	return hwcodec.NewHandle(ptr), nil
}

func (d *encodeDriver) Encode(h hwcodec.Handle, frame hwcodec.Frame) ([]hwcodec.Packet, error) {
	if frame.Texture == nil && frame.Data != nil {
		return nil, &hwcodec.InteropError{Op: "encode", Code: hwcodec.CodeUnsupportedTexture, Err: errCPUFrame}
	}
	src, ok := frame.Texture.(NativeSource)
	if !ok || src.NativePointer() == nil {
		return nil, &hwcodec.InteropError{Op: "encode", Code: hwcodec.CodeUnsupportedTexture,
			Err: fmt.Errorf("sdk: frame texture %T has no native resource", frame.Texture)}
	}
	sink := &PacketSink{PTS: frame.PTS}
	rc := d.abi.Encode(h.Pointer(), src.NativePointer(), sink)
	switch {
	case len(sink.Packets) > 0:
		return sink.Packets, nil
	case rc == 0 || rc == codeFailure:
		return nil, hwcodec.ErrNoOutput
	default:
		return nil, status(d.backend, "encode", rc)
	}
}

func (d *encodeDriver) DestroyEncoder(h hwcodec.Handle) error {
	return status(d.backend, "destroy", d.abi.Destroy(h.Pointer()))
}

func (d *encodeDriver) TestEncode(cfg hwcodec.EncodeConfig) ([]hwcodec.AdapterDesc, error) {
	p, err := d.params(cfg)
	if err != nil {
		return nil, err
	}
	luids := make([]int64, MaxAdapters)
	n, rc := d.abi.Test(p, luids)
	if err := status(d.backend, "test encode", rc); err != nil {
		return nil, err
	}
	return adapters(luids[:max(0, min(n, len(luids)))]), nil
}

func (d *encodeDriver) SetBitrate(h hwcodec.Handle, kbps int) error {
	return status(d.backend, "set bitrate", d.abi.SetBitrate(h.Pointer(), int32(kbps)))
}

func (d *encodeDriver) SetQP(h hwcodec.Handle, qpMin, qpMax int) error {
	return status(d.backend, "set qp", d.abi.SetQP(h.Pointer(), int32(qpMin), int32(qpMax)))
}

func (d *encodeDriver) SetFramerate(h hwcodec.Handle, fps int) error {
	return status(d.backend, "set framerate", d.abi.SetFramerate(h.Pointer(), int32(fps)))
}
