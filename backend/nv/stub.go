//go:build !(cgo && nv)

package nv

import "github.com/gogpu/hwcodec/internal/sdk"

// bindNative leaves the driver support checks unset, so both catalogs
// report sdk.ErrNotBuilt and stay empty.
func bindNative(*sdk.Config) {}
