// Package nv registers the NVIDIA backend (NVENC for encode, CUVID for
// decode).
//
// The native bridge is compiled only with cgo and the "nv" build tag:
//
//	go build -tags nv ./...
//
// and links against libhwcodec_nv. Other builds register the same name
// with empty catalogs, so capability listings stay uniform across builds.
package nv

import (
	"github.com/gogpu/hwcodec"
	"github.com/gogpu/hwcodec/internal/pci"
	"github.com/gogpu/hwcodec/internal/sdk"
)

// Name is the registry name of the backend.
const Name = hwcodec.BackendNV

var backend = newBackend()

func init() {
	hwcodec.RegisterBackend(Name, func() hwcodec.Backend { return backend })
}

func newBackend() *sdk.Backend {
	cfg := sdk.Config{
		Name:       Name,
		Vendor:     pci.VendorNVIDIA,
		EncodeAPIs: encodeAPIs,
		DecodeAPIs: decodeAPIs,
	}
	bindNative(&cfg)
	return sdk.NewBackend(cfg)
}
