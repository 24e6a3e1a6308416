// Package vpl registers the Intel backend built on oneVPL.
//
// Build with cgo and the "vpl" build tag to link libhwcodec_vpl:
//
//	go build -tags vpl ./...
//
// Other builds register the name with empty catalogs.
package vpl

import (
	"github.com/gogpu/hwcodec"
	"github.com/gogpu/hwcodec/internal/pci"
	"github.com/gogpu/hwcodec/internal/sdk"
)

// Name is the registry name of the backend.
const Name = hwcodec.BackendVPL

var backend = newBackend()

func init() {
	hwcodec.RegisterBackend(Name, func() hwcodec.Backend { return backend })
}

func newBackend() *sdk.Backend {
	cfg := sdk.Config{
		Name:       Name,
		Vendor:     pci.VendorIntel,
		EncodeAPIs: encodeAPIs,
		DecodeAPIs: decodeAPIs,
	}
	bindNative(&cfg)
	return sdk.NewBackend(cfg)
}
