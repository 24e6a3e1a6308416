// Package amf registers the AMD backend built on the Advanced Media
// Framework.
//
// The native bridge is compiled only with cgo and the "amf" build tag:
//
//	go build -tags amf ./...
//
// and links against libhwcodec_amf. Without it the backend is registered
// with empty catalogs.
package amf

import (
	"github.com/gogpu/hwcodec"
	"github.com/gogpu/hwcodec/internal/pci"
	"github.com/gogpu/hwcodec/internal/sdk"
)

// Name is the registry name of the backend.
const Name = hwcodec.BackendAMF

var backend = newBackend()

func init() {
	hwcodec.RegisterBackend(Name, func() hwcodec.Backend { return backend })
}

func newBackend() *sdk.Backend {
	cfg := sdk.Config{
		Name:       Name,
		Vendor:     pci.VendorAMD,
		EncodeAPIs: encodeAPIs,
		DecodeAPIs: decodeAPIs,
	}
	bindNative(&cfg)
	return sdk.NewBackend(cfg)
}
