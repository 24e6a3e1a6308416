// Package hwcodec is a hardware video encode/decode abstraction layer.
//
// # Overview
//
// A machine may carry several competing acceleration SDKs (AMD AMF,
// NVIDIA NVENC/NVDEC, Intel oneVPL), each usable through a different set
// of graphics APIs. hwcodec discovers at runtime which {GraphicsAPI,
// CodecFormat} pairs are usable and exposes every vendor SDK behind one
// lifecycle contract, so a pipeline can drive an encoder or decoder
// without knowing which SDK sits underneath.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/hwcodec"
//	    _ "github.com/gogpu/hwcodec/backend/nv"
//	)
//
//	for _, c := range hwcodec.EncodeCapabilities() {
//	    fmt.Println(c.Backend, c.Entry)
//	}
//
//	entry := hwcodec.CapabilityEntry{API: hwcodec.APIDX11, Format: hwcodec.H264}
//	b, err := hwcodec.SelectEncoder(entry)
//	if err != nil {
//	    return err // ErrUnsupported: nothing on this machine can do it
//	}
//	enc, err := hwcodec.OpenEncoder(b, hwcodec.DefaultEncodeConfig(entry, 1920, 1080))
//	if err != nil {
//	    return err
//	}
//	defer enc.Close()
//
//	pkts, err := enc.Encode(hwcodec.Frame{Texture: tex})
//
// # Capability catalog
//
// Each backend builds its catalogs with [NewCatalog]: a driver-support
// probe followed by the cross-product of the platform's API list with the
// backend's codec list. A failing probe yields an empty list, never an
// error. Catalog entries are eligible, not guaranteed; [Confirm] runs the
// backends' self-tests to find the entries that actually work.
//
// # Sessions
//
// [EncodeDriver] and [DecodeDriver] are the dispatch tables a backend
// implements. Callers normally hold sessions through [Encoder] and
// [Decoder], which own the native handle, serialize calls, destroy the
// handle exactly once and reject use after Close.
//
// A step may yield zero, one or several outputs. Zero is not an error.
//
// # Errors
//
// Failures are typed: [ConstructionError], [OperationError] and
// [InteropError] carry the native SDK code verbatim and match
// [ErrConstruction], [ErrOperation] and [ErrInterop] respectively.
//
// # Presentation
//
// Decoded textures are shown through the surface sub-package, whose
// surfaces expose the device decoders must allocate against.
package hwcodec
